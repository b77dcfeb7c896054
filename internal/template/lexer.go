package template

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// jinjaLexer is the chroma Django/Jinja lexer, shared by all lexResolver
// values. Chroma lexers are stateless between Tokenise calls.
var jinjaLexer = func() chroma.Lexer {
	l := lexers.Get("jinja")
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}()

// lexResolver classifies directive structure from the chroma token stream
// instead of raw regex matching. Expression classification (attribute, call,
// word) is character-level in both strategies, so that part is shared.
type lexResolver struct{}

func (lexResolver) ResolveWord(text string, pos Pos) (string, bool) {
	line, ok := lineAt(text, pos.Line)
	if !ok {
		return "", false
	}
	return wordAt(line, byteColumn(line, pos.Character))
}

func (lexResolver) ResolveExpression(text string, pos Pos) ResolvedContext {
	line, ok := lineAt(text, pos.Line)
	if !ok {
		return ResolvedContext{Kind: KindNone}
	}
	col := byteColumn(line, pos.Character)

	if target, ok := lexIncludeTargetAt(line, col); ok {
		return ResolvedContext{Kind: KindInclude, TargetPath: target}
	}
	return classifyExpression(line, col)
}

// tokenSpan is a lexed token with its byte offsets within the line.
type tokenSpan struct {
	start, end int
	typ        chroma.TokenType
	value      string
}

func lexLine(line string) []tokenSpan {
	it, err := jinjaLexer.Tokenise(nil, line)
	if err != nil {
		return nil
	}
	var spans []tokenSpan
	offset := 0
	for _, tok := range it.Tokens() {
		spans = append(spans, tokenSpan{
			start: offset,
			end:   offset + len(tok.Value),
			typ:   tok.Type,
			value: tok.Value,
		})
		offset += len(tok.Value)
	}
	return spans
}

// pathDirectives are the statement keywords whose first quoted argument names
// a template file.
var pathDirectives = map[string]bool{
	"include": true,
	"extends": true,
	"import":  true,
	"from":    true,
}

// lexIncludeTargetAt walks the token stream to find a path directive whose
// quoted argument span contains the cursor. Statements are visited
// left-to-right; the first containing span wins.
func lexIncludeTargetAt(line string, col int) (string, bool) {
	spans := lexLine(line)

	inStatement := false
	directive := ""
	sawDirectiveWord := false

	for _, sp := range spans {
		if sp.typ.InCategory(chroma.Comment) && !sp.typ.InSubCategory(chroma.CommentPreproc) {
			continue
		}
		if sp.typ.InSubCategory(chroma.CommentPreproc) || sp.typ == chroma.Punctuation {
			open := strings.LastIndex(sp.value, "{%")
			closing := strings.LastIndex(sp.value, "%}")
			if open >= 0 || closing >= 0 {
				// A coalesced token may carry both delimiters; the later
				// one decides the state.
				if open > closing {
					inStatement = true
					directive = ""
					sawDirectiveWord = false
				} else {
					inStatement = false
				}
				continue
			}
			if !inStatement {
				continue
			}
		}
		if !inStatement {
			continue
		}
		word := strings.TrimSpace(sp.value)
		// Whitespace-control markers ("{%-", "{%+") lex as a separate token
		// after the delimiter; they are not the directive keyword.
		word = strings.TrimLeft(word, "-+")
		if !sawDirectiveWord && word != "" && !isQuoted(word) {
			directive = word
			sawDirectiveWord = true
			continue
		}
		if sp.typ.InSubCategory(chroma.LiteralString) && pathDirectives[directive] {
			target, ok := quotedSpanContains(sp, col)
			if ok {
				return target, true
			}
			// Only the first quoted argument of a directive is its path.
			directive = ""
		}
	}
	return "", false
}

// quotedSpanContains reports whether col falls inside the quotes of a string
// token and returns the unquoted content.
func quotedSpanContains(sp tokenSpan, col int) (string, bool) {
	v := sp.value
	if !isQuoted(v) {
		return "", false
	}
	start := sp.start + 1
	stop := sp.end - 1
	if col >= start && col <= stop {
		return v[1 : len(v)-1], true
	}
	return "", false
}

func isQuoted(s string) bool {
	return len(s) >= 2 &&
		((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\''))
}

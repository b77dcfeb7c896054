package template

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// Resolver classifies a cursor position within a document.
//
// Two interchangeable strategies exist: StrategyRegex scans the current line
// with regular expressions, StrategyLexer walks the token stream produced by
// the chroma Django/Jinja lexer to locate directive structure. Both expose
// identical semantics so call sites and tests are strategy-agnostic.
type Resolver interface {
	// ResolveWord returns the contiguous [A-Za-z0-9_] identifier containing
	// or immediately adjacent to the cursor. The second result is false when
	// the cursor is not on an identifier.
	ResolveWord(text string, pos Pos) (string, bool)

	// ResolveExpression classifies the cursor into one ResolvedContext
	// variant, trying include target, attribute access, call-argument
	// position, and bare word, in that order.
	ResolveExpression(text string, pos Pos) ResolvedContext
}

// Resolution strategies selectable via configuration.
const (
	StrategyRegex = "regex"
	StrategyLexer = "lexer"
)

// NewResolver returns the resolver for the named strategy.
// Unknown names fall back to the regex strategy.
func NewResolver(strategy string) Resolver {
	if strategy == StrategyLexer {
		return &lexResolver{}
	}
	return &regexResolver{}
}

var (
	// Opening token of a directive whose first quoted argument is a template
	// path. "from" is included so the path of a from-import resolves too.
	includeDirectiveRe = regexp.MustCompile(`\{%[-+]?\s*(include|extends|import|from)\s`)

	quotedRe = regexp.MustCompile(`"[^"]*"|'[^']*'`)

	// <expr>.<partial> immediately before the cursor. The base is the longest
	// run of identifier/dot/bracket/paren characters before the final dot.
	attributeRe = regexp.MustCompile(`([A-Za-z0-9_.\[\]()]+)\.([A-Za-z0-9_]*)$`)
)

// regexResolver is the line-scanning heuristic strategy.
type regexResolver struct{}

func (regexResolver) ResolveWord(text string, pos Pos) (string, bool) {
	line, ok := lineAt(text, pos.Line)
	if !ok {
		return "", false
	}
	return wordAt(line, byteColumn(line, pos.Character))
}

func (regexResolver) ResolveExpression(text string, pos Pos) ResolvedContext {
	line, ok := lineAt(text, pos.Line)
	if !ok {
		return ResolvedContext{Kind: KindNone}
	}
	col := byteColumn(line, pos.Character)

	if target, ok := includeTargetAt(line, col); ok {
		return ResolvedContext{Kind: KindInclude, TargetPath: target}
	}
	return classifyExpression(line, col)
}

// includeTargetAt checks whether the cursor sits inside the quoted path
// argument of an include-like directive. Directives are evaluated
// left-to-right; the first whose quoted span contains the cursor wins.
func includeTargetAt(line string, col int) (string, bool) {
	for _, dir := range includeDirectiveRe.FindAllStringIndex(line, -1) {
		stmt := line[dir[1]:]
		end := len(line)
		if closing := strings.Index(stmt, "%}"); closing >= 0 {
			end = dir[1] + closing
		}
		quote := quotedRe.FindStringIndex(line[dir[1]:end])
		if quote == nil {
			continue
		}
		// Inside the quotes, not on them.
		start := dir[1] + quote[0] + 1
		stop := dir[1] + quote[1] - 1
		if col >= start && col <= stop {
			return line[start:stop], true
		}
	}
	return "", false
}

// classifyExpression applies the attribute / call / word fallthrough shared
// by both strategies once directive handling is done.
func classifyExpression(line string, col int) ResolvedContext {
	prefix := line[:col]

	if m := attributeRe.FindStringSubmatch(prefix); m != nil {
		if base := trimUnbalanced(m[1]); base != "" {
			return ResolvedContext{
				Kind:       KindAttribute,
				Base:       base,
				Partial:    m[2],
				InsideCall: hasUnmatchedParen(prefix),
			}
		}
	}

	if callee, ok := enclosingCallee(prefix); ok {
		return ResolvedContext{Kind: KindCall, Callee: callee}
	}

	if word, ok := wordAt(line, col); ok {
		return ResolvedContext{Kind: KindWord, Word: word}
	}

	return ResolvedContext{Kind: KindNone}
}

// trimUnbalanced cuts a base expression after its last unmatched opening
// bracket, so "fmt(user" resolves to "user" while "get(x)" stays whole.
func trimUnbalanced(base string) string {
	depth := 0
	for i := len(base) - 1; i >= 0; i-- {
		switch base[i] {
		case ')', ']':
			depth++
		case '(', '[':
			if depth == 0 {
				return base[i+1:]
			}
			depth--
		}
	}
	return base
}

// enclosingCallee finds the nearest unmatched "(" before the cursor and
// returns the identifier/dot run immediately preceding it.
func enclosingCallee(prefix string) (string, bool) {
	depth := 0
	for i := len(prefix) - 1; i >= 0; i-- {
		switch prefix[i] {
		case ')':
			depth++
		case '(':
			if depth > 0 {
				depth--
				continue
			}
			start := i
			for start > 0 && isExprChar(prefix[start-1]) {
				start--
			}
			if callee := prefix[start:i]; callee != "" {
				return callee, true
			}
			return "", false
		}
	}
	return "", false
}

func hasUnmatchedParen(prefix string) bool {
	depth := 0
	for i := len(prefix) - 1; i >= 0; i-- {
		switch prefix[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				return true
			}
			depth--
		}
	}
	return false
}

// wordAt expands left and right from a byte column across identifier
// characters. A cursor immediately after the last character of an identifier
// still counts as being on it.
func wordAt(line string, col int) (string, bool) {
	if col > len(line) {
		col = len(line)
	}
	onIdent := col < len(line) && isIdentChar(line[col])
	afterIdent := col > 0 && isIdentChar(line[col-1])
	if !onIdent && !afterIdent {
		return "", false
	}
	start, end := col, col
	for start > 0 && isIdentChar(line[start-1]) {
		start--
	}
	for end < len(line) && isIdentChar(line[end]) {
		end++
	}
	return line[start:end], true
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// isExprChar covers the characters allowed in a base expression: identifier
// characters plus dot, brackets, and parens.
func isExprChar(c byte) bool {
	switch c {
	case '.', '[', ']', '(', ')':
		return true
	}
	return isIdentChar(c)
}

// lineAt returns the line with the given zero-based index.
func lineAt(text string, line int) (string, bool) {
	if line < 0 {
		return "", false
	}
	rest := text
	for i := 0; i < line; i++ {
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return "", false
		}
		rest = rest[nl+1:]
	}
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSuffix(rest, "\r"), true
}

// byteColumn converts a UTF-16 column (LSP wire format) to a byte offset
// within the line, clamped to the line length.
func byteColumn(line string, character int) int {
	if character <= 0 {
		return 0
	}
	units := 0
	for i, r := range line {
		if units >= character {
			return i
		}
		l := utf16.RuneLen(r)
		if l < 1 {
			l = 1
		}
		units += l
	}
	return len(line)
}

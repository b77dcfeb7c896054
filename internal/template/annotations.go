package template

import (
	"regexp"
	"strings"
)

// Annotation is one variable declaration from a {# @types ... #} block.
// Line is the zero-based line number of the declaration in the document.
type Annotation struct {
	Name string
	Type string
	Doc  string
	Line int
}

// MalformedLine is an annotation line that could not be parsed, with its
// zero-based line number in the document.
type MalformedLine struct {
	Line int
	Text string
}

// TypesBlock is the parsed content of a template's {# @types ... #} block.
// A template without a block yields the zero value with Found == false,
// which is a valid empty result, not an error.
type TypesBlock struct {
	Found       bool
	Imports     []string
	Annotations []Annotation
	Malformed   []MalformedLine
}

// Lookup returns the annotation with the given name.
func (b TypesBlock) Lookup(name string) (Annotation, bool) {
	for _, a := range b.Annotations {
		if a.Name == name {
			return a, true
		}
	}
	return Annotation{}, false
}

var (
	typesBlockRe   = regexp.MustCompile(`(?s)\{#\s*@types(.*?)#\}`)
	annotationRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(.+)$`)
	docstringQuote = regexp.MustCompile(`^("""|''')`)
)

// ParseTypesBlock extracts import statements, variable type annotations, and
// docstrings from the first {# @types ... #} comment block of a template.
//
// Inside the block: lines starting with "#" are comments, "import"/"from"
// lines are collected verbatim, a triple-quoted line documents the next
// annotation, and "name: type" lines declare variables. A type containing a
// colon is malformed, as is any other unrecognized line.
func ParseTypesBlock(content string) TypesBlock {
	loc := typesBlockRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return TypesBlock{}
	}

	block := content[loc[2]:loc[3]]
	firstLine := strings.Count(content[:loc[2]], "\n")

	out := TypesBlock{Found: true}
	pendingDoc := ""

	for i, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "from ") {
			out.Imports = append(out.Imports, line)
			continue
		}
		if docstringQuote.MatchString(line) {
			pendingDoc = strings.Trim(line, `"' `)
			continue
		}
		if m := annotationRe.FindStringSubmatch(line); m != nil {
			typ := strings.TrimSpace(m[2])
			// A second colon inside the type marks the line malformed.
			if strings.Contains(typ, ":") {
				out.Malformed = append(out.Malformed, MalformedLine{Line: firstLine + i, Text: line})
				continue
			}
			out.Annotations = append(out.Annotations, Annotation{
				Name: m[1],
				Type: typ,
				Doc:  pendingDoc,
				Line: firstLine + i,
			})
			pendingDoc = ""
			continue
		}
		out.Malformed = append(out.Malformed, MalformedLine{Line: firstLine + i, Text: line})
	}

	return out
}

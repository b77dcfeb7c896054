// Package lint checks the {# @types ... #} annotation block of a template.
package lint

import (
	"fmt"

	"github.com/typedjinja/tjls/internal/template"
)

// Rule identifiers.
const (
	RuleMalformedAnnotation = "typedjinja/malformed-annotation"
	RuleDuplicateAnnotation = "typedjinja/duplicate-annotation"
)

// Issue represents one problem found in a template's annotation block.
type Issue struct {
	// Rule is the rule identifier (e.g., "typedjinja/malformed-annotation")
	Rule string `json:"rule"`
	// Line is the zero-based line number where the issue was found
	Line int `json:"line"`
	// Message is the human-readable description of the issue
	Message string `json:"message"`
	// Severity is the issue severity (error, warning)
	Severity string `json:"severity"`
}

// FileResult contains the lint results for a single template.
type FileResult struct {
	// File is the path to the template
	File string `json:"file"`
	// Annotations is the number of well-formed declarations found
	Annotations int `json:"annotations"`
	// Issues is the list of issues found
	Issues []Issue `json:"issues"`
}

// CheckTemplate parses the template's types block and reports malformed and
// duplicate annotation lines. A template without a block yields no issues.
func CheckTemplate(file, content string) FileResult {
	block := template.ParseTypesBlock(content)

	result := FileResult{File: file, Annotations: len(block.Annotations)}

	for _, m := range block.Malformed {
		result.Issues = append(result.Issues, Issue{
			Rule:     RuleMalformedAnnotation,
			Line:     m.Line,
			Message:  fmt.Sprintf("cannot parse annotation line %q", m.Text),
			Severity: "error",
		})
	}

	seen := make(map[string]bool, len(block.Annotations))
	for _, a := range block.Annotations {
		if seen[a.Name] {
			result.Issues = append(result.Issues, Issue{
				Rule:     RuleDuplicateAnnotation,
				Line:     a.Line,
				Message:  fmt.Sprintf("variable %q is annotated more than once", a.Name),
				Severity: "warning",
			})
			continue
		}
		seen[a.Name] = true
	}

	return result
}

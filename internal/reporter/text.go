// Package reporter provides output formatters for annotation check results.
package reporter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/typedjinja/tjls/internal/lint"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	ruleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	markerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// PrintText writes issues with source snippets, one block per issue.
//
// Example output:
//
//	ERROR: typedjinja/malformed-annotation
//	cannot parse annotation line "user User"
//
//	templates/profile.jinja:3
//	--------------------
//	   2 |        user: User
//	   3 | >>>    user User
//	--------------------
func PrintText(w io.Writer, results []lint.FileResult, sources map[string][]byte, color bool) {
	sorted := make([]lint.FileResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].File < sorted[j].File })

	for _, r := range sorted {
		issues := make([]lint.Issue, len(r.Issues))
		copy(issues, r.Issues)
		sort.Slice(issues, func(i, j int) bool { return issues[i].Line < issues[j].Line })

		for _, issue := range issues {
			printIssue(w, r.File, issue, sources[r.File], color)
		}
	}
}

func printIssue(w io.Writer, file string, issue lint.Issue, source []byte, color bool) {
	severity := strings.ToUpper(issue.Severity)
	rule := issue.Rule
	if color {
		if issue.Severity == "error" {
			severity = errorStyle.Render(severity)
		} else {
			severity = warningStyle.Render(severity)
		}
		rule = ruleStyle.Render(rule)
	}

	fmt.Fprintf(w, "\n%s: %s\n%s\n", severity, rule, issue.Message)

	if len(source) > 0 {
		printSnippet(w, file, issue.Line, source, color)
	}
}

// printSnippet renders the source lines around the issue with the affected
// line marked. Issue lines are 0-based internally, 1-based in display.
func printSnippet(w io.Writer, file string, issueLine int, source []byte, color bool) {
	lines := strings.Split(string(source), "\n")

	display := issueLine + 1
	if display > len(lines) || display < 1 {
		return
	}

	const pad = 2
	start := display - pad
	if start < 1 {
		start = 1
	}
	end := display + pad
	if end > len(lines) {
		end = len(lines)
	}

	fmt.Fprintf(w, "\n%s:%d\n", file, display)
	fmt.Fprintln(w, "--------------------")
	for i := start; i <= end; i++ {
		pfx := "   "
		if i == display {
			pfx = ">>>"
			if color {
				pfx = markerStyle.Render(pfx)
			}
		}
		fmt.Fprintf(w, " %3d | %s %s\n", i, pfx, lines[i-1])
	}
	fmt.Fprintln(w, "--------------------")
}

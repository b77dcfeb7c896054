package reporter

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v3/pkg/report"
	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/typedjinja/tjls/internal/lint"
	"github.com/typedjinja/tjls/internal/version"
)

const infoURI = "https://github.com/typedjinja/tjls"

// PrintSARIF writes issues as a SARIF 2.1.0 report, for code-scanning
// uploads.
func PrintSARIF(w io.Writer, results []lint.FileResult) error {
	rpt := report.NewV210Report()

	run := sarif.NewRunWithInformationURI("tjls", infoURI)
	run.Tool.Driver.WithVersion(version.RawVersion())

	rules := map[string]bool{}
	for _, r := range results {
		for _, issue := range r.Issues {
			if !rules[issue.Rule] {
				rules[issue.Rule] = true
				run.AddRule(issue.Rule).
					WithDescription(ruleDescription(issue.Rule)).
					WithHelpURI(infoURI)
			}

			line := issue.Line + 1 // SARIF regions are 1-based
			run.CreateResultForRule(issue.Rule).
				WithLevel(sarifLevel(issue.Severity)).
				WithMessage(sarif.NewTextMessage(issue.Message)).
				WithLocations([]*sarif.Location{
					sarif.NewLocationWithPhysicalLocation(
						sarif.NewPhysicalLocation().
							WithArtifactLocation(sarif.NewSimpleArtifactLocation(r.File)).
							WithRegion(sarif.NewSimpleRegion(line, line)),
					),
				})
		}
	}

	rpt.AddRun(run)
	if err := rpt.PrettyWrite(w); err != nil {
		return fmt.Errorf("write sarif: %w", err)
	}
	return nil
}

func sarifLevel(severity string) string {
	switch severity {
	case "error":
		return "error"
	case "warning":
		return "warning"
	default:
		return "note"
	}
}

func ruleDescription(rule string) string {
	switch rule {
	case lint.RuleMalformedAnnotation:
		return "Annotation lines must have the form 'name: type'"
	case lint.RuleDuplicateAnnotation:
		return "Each variable may be annotated only once"
	default:
		return rule
	}
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/typedjinja/tjls/internal/config"
	"github.com/typedjinja/tjls/internal/lint"
	"github.com/typedjinja/tjls/internal/reporter"
	"github.com/typedjinja/tjls/internal/workspace"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check template annotation blocks for issues",
		ArgsUsage: "[TEMPLATE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, sarif",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "Colorize text output: auto, on, off",
				Value: "auto",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format := cmd.String("format")
			files := cmd.Args().Slice()

			if len(files) == 0 {
				// Default to every template under the current directory.
				settings, err := config.Load(".")
				if err != nil {
					settings = config.Default()
				}
				files = workspace.FindTemplates(".", settings.TemplateGlobs)
			}

			var results []lint.FileResult
			sources := make(map[string][]byte, len(files))

			for _, file := range files {
				content, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				sources[file] = content
				results = append(results, lint.CheckTemplate(file, string(content)))
			}

			hasIssues := false
			for _, r := range results {
				if len(r.Issues) > 0 {
					hasIssues = true
					break
				}
			}

			switch format {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
			case "sarif":
				if err := reporter.PrintSARIF(os.Stdout, results); err != nil {
					return err
				}
			default:
				color := config.ColorEnabled(cmd.String("color"))
				reporter.PrintText(os.Stdout, results, sources, color)
			}

			if hasIssues {
				os.Exit(1)
			}
			return nil
		},
	}
}

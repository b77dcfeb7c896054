package cmd

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/typedjinja/tjls/internal/version"
)

// NewApp creates the CLI application
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "tjls",
		Usage:   "Language server and tools for type-annotated Jinja2 templates",
		Version: version.Version(),
		Description: `tjls adds type-aware completion, hover, go-to-definition, and
diagnostics to Jinja2 templates annotated with {# @types ... #} blocks.

Semantic resolution is delegated to the typedjinja Python package; tjls
works standalone with reduced (stub-based) answers when it is not installed.

Examples:
  tjls lsp --stdio
  tjls check templates/profile.jinja
  tjls stubgen .`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			// stdout can be a protocol channel; all logging goes to stderr.
			logrus.SetOutput(os.Stderr)
			if level, err := logrus.ParseLevel(cmd.String("log-level")); err == nil {
				logrus.SetLevel(level)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			lspCommand(),
			checkCommand(),
			stubgenCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}

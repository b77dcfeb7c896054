package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/typedjinja/tjls/internal/config"
	"github.com/typedjinja/tjls/internal/lspserver"
)

func lspCommand() *cli.Command {
	return &cli.Command{
		Name:  "lsp",
		Usage: "Run the language server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stdio",
				Usage: "Communicate over stdin/stdout (the only supported transport)",
				Value: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Bool("stdio") {
				return fmt.Errorf("only --stdio transport is supported")
			}

			// Workspace-specific settings are resolved again at initialize,
			// once the client has told us its root.
			settings, err := config.Load("")
			if err != nil {
				logrus.Warnf("config: %v, using defaults", err)
				settings = config.Default()
			}

			server := lspserver.New(settings, logrus.StandardLogger())
			return server.RunStdio(ctx)
		},
	}
}

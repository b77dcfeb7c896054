package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/typedjinja/tjls/internal/config"
	"github.com/typedjinja/tjls/internal/workspace"
)

func stubgenCommand() *cli.Command {
	return &cli.Command{
		Name:      "stubgen",
		Usage:     "Generate stub artifacts for every annotated template under a directory",
		ArgsUsage: "[DIR]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root := cmd.Args().First()
			if root == "" {
				root = "."
			}

			settings, err := config.Load(root)
			if err != nil {
				logrus.Warnf("config: %v, using defaults", err)
				settings = config.Default()
			}

			n := workspace.SyncStubs(root, settings.TemplateGlobs, settings.CacheDir, logrus.StandardLogger())
			fmt.Printf("wrote %d stub(s)\n", n)
			return nil
		},
	}
}

package cli

import (
	"context"

	mcpsvc "github.com/halcyonlabs/mnemo/pkg/service/mcp"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the recall engine as an MCP tool over stdio",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer()
			}

			return mcpsvc.NewServer(uc, version).Run(ctx)
		},
	}
}

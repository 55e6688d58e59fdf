package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/serpent-os/ent/internal/api"
	"github.com/serpent-os/ent/pkg/report"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve update reports over HTTP",
		Long: `Serve the update report for the recipe tree at path over HTTP.

Endpoints:
  GET /healthz
  GET /v1/report            (?refresh=true to bypass the cache)
  GET /v1/report/updates
  GET /v1/runs              (requires history.mongo_uri)
  GET /v1/runs/{id}`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			logger := loggerFromContext(ctx)
			if addr == "" {
				addr = cfg.Server.Addr
			}

			runner, err := c.newRunner(cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			store, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close(context.WithoutCancel(ctx))
			}

			root := rootArg(args)
			popts := cfg.PipelineOptions()
			popts.Logger = logger
			srv := api.New(api.Config{
				Check: func(ctx context.Context, refresh bool) (*report.Report, error) {
					o := popts
					o.Refresh = refresh
					return runner.Run(ctx, root, o)
				},
				History: store,
				Logger:  logger,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.addr)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not use the observation cache")
	return cmd
}

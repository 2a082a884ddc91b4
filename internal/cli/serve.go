package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridplan/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noStore bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API.

POST /v1/generate/{pipes,poles,beacons} runs a generator on a blueprint body.
/v1/blueprints exposes the configured store unless --no-store is set.
The server shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cat, err := cfg.LoadCatalog()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			scfg := server.Config{
				Runner:       runner,
				Catalog:      cat,
				Generate:     cfg.Generate,
				Logger:       loggerFromContext(ctx),
				MaxBodyBytes: cfg.Server.MaxBodyBytes,
			}
			if !noStore {
				s, err := c.openStore(ctx)
				if err != nil {
					return err
				}
				defer s.Close()
				scfg.Store = s
			}

			if addr == "" {
				addr = cfg.Server.Addr
			}
			return server.New(scfg).ListenAndServe(ctx, addr, cfg.Server.ReadTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the /v1/blueprints routes")

	return cmd
}

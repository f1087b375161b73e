package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/zplkit/pkg/config"
	"github.com/matzehuels/zplkit/pkg/server"
	"github.com/matzehuels/zplkit/pkg/store"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noStore bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Routes live under /v1: templates, compile, optimize, templatize, fill,
preview and documents. Preview requests carrying the same X-Session-ID share
one in-flight render; a newer request cancels the older one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			var st store.Store
			if !noStore {
				st, err = c.openStore(ctx)
				if err != nil {
					c.Logger.Warn("document routes disabled", "backend", cfg.Store.Backend, "err", err)
					st = nil
				} else {
					defer st.Close()
				}
			}

			srv := server.New(runner, st,
				server.WithLogger(c.Logger),
				server.WithDefaults(server.Defaults{
					Escape:       cfg.Compile.Escape,
					Substitution: cfg.Compile.Substitution,
					Profile:      cfg.Profile(),
					Scale:        cfg.Compile.Scale,
				}))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+config.DefaultAddr+")")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the document routes")
	return cmd
}

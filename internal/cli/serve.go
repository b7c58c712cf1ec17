package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the flow store and graph pipeline over HTTP",
		Long: `Serve the JSON API used by web front-ends: import, edit, export and
render flows, and fetch their positioned graphs.

Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(st, runner, c.Logger)
			srv.Defaults = c.pipelineOptions()

			printSuccess("Listening on %s", styleCommand.Render("http://"+addr))
			printDetail("store: %s, cache: %s", c.cfg.Store.Backend, c.cfg.Cache.Backend)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else "+config.DefaultAddr+")")
	return cmd
}

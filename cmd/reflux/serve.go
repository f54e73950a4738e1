package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/reflux/internal/app"
)

func newServeCmd(c *cli) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				c.cfg.ListenAddr = listen
			}
			a, err := app.New(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			return a.Run()
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides REFLUX_LISTEN_ADDR)")
	return cmd
}

package main

import (
	"github.com/spf13/cobra"

	"gradegraph/internal/app"
)

func newServeCmd(c *cli) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				c.cfg.Server.Port = port
			}
			application, err := app.NewApplication(c.cfg)
			if err != nil {
				return err
			}
			return application.Run()
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides the config)")
	return cmd
}

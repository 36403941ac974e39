package main

import (
	"github.com/spf13/cobra"

	"github.com/bleitz/meditai/app"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			a, err := app.NewServer(cfg)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}

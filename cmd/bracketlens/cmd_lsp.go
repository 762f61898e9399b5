package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/bracketlens/lsp"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			server, err := lsp.NewServer(cfg, path, version)
			if err != nil {
				return err
			}
			return server.RunStdio()
		},
	}
}

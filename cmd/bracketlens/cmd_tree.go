package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/bracketlens/format"
	"github.com/dhamidi/bracketlens/lens"
)

func newTreeCmd() *cobra.Command {
	var outputFormat string
	var language string

	cmd := &cobra.Command{
		Use:   "tree <file>",
		Short: "Dump the scope forest of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			engine, err := lens.New(cfg)
			if err != nil {
				return err
			}
			defer engine.Shutdown()

			enc, err := newEncoder(cmd.OutOrStdout(), outputFormat, true)
			if err != nil {
				return err
			}
			doc, err := readDocument(engine, args[0], language)
			if err != nil {
				return err
			}
			r := &format.Result{Document: doc}
			r.Forest, r.Sources, r.Err = engine.Scan(doc)
			if r.Err != nil {
				return r.Err
			}
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "language id (default: from the file extension)")

	return cmd
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/bracketlens/document"
	"github.com/dhamidi/bracketlens/format"
	"github.com/dhamidi/bracketlens/lens"
)

func newScanCmd() *cobra.Command {
	var outputFormat string
	var language string

	cmd := &cobra.Command{
		Use:   "scan <file>...",
		Short: "Print the labels bracketlens would show for each file",
		Args:  cobra.MinimumNArgs(1),
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

			enc, err := newEncoder(cmd.OutOrStdout(), outputFormat, false)
			if err != nil {
				return err
			}
			for _, filename := range args {
				doc, err := readDocument(engine, filename, language)
				if err != nil {
					return err
				}
				r := &format.Result{Document: doc}
				r.Forest, r.Sources, r.Err = engine.Scan(doc)
				if err := enc.Encode(r); err != nil {
					return fmt.Errorf("encode: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "language id (default: from the file extension)")

	return cmd
}

func readDocument(engine *lens.Engine, filename, language string) (*document.Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if language == "" {
		language = engine.Registry().LanguageForFile(filename)
	}
	return document.New(filename, language, 1, string(data)), nil
}

func newEncoder(w io.Writer, outputFormat string, tree bool) (format.Encoder, error) {
	switch {
	case outputFormat == "json" && tree:
		return format.NewTreeJSONEncoder(w), nil
	case outputFormat == "json":
		return format.NewJSONEncoder(w), nil
	case outputFormat == "text" && tree:
		return format.NewTreeEncoder(w), nil
	case outputFormat == "text":
		return format.NewLineEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", outputFormat)
	}
}

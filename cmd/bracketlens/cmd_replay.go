package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"

	"github.com/dhamidi/bracketlens/document"
	"github.com/dhamidi/bracketlens/lens"
)

var errReplayMismatch = errors.New("incremental parse differs from full parse")

func newReplayCmd() *cobra.Command {
	var language string
	var stepwise bool

	cmd := &cobra.Command{
		Use:   "replay <old> <new>",
		Short: "Patch the parse of <old> into <new> and check it against a full parse",
		Long: `Replay diffs two versions of a file, feeds the difference to the
incremental cache as edits, and compares the patched scope forest with a
fresh parse of the new version.`,
		Args: cobra.ExactArgs(2),
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

			oldDoc, err := readDocument(engine, args[0], language)
			if err != nil {
				return err
			}
			newText, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			out := cmd.OutOrStdout()
			engine.Open(oldDoc)
			if _, _, err := engine.Scan(oldDoc); err != nil {
				return err
			}

			edits := document.Diff(oldDoc.Text(), string(newText))
			newDoc := oldDoc.Replace(oldDoc.Version+1, string(newText))
			if stepwise {
				doc := oldDoc
				for i, e := range edits {
					ver := oldDoc.Version + int32(i) + 1
					text := doc.Text()[:e.Start] + inserted(string(newText), e) + doc.Text()[e.OldEnd:]
					doc = doc.Replace(ver, text)
					engine.OnTextChanged(doc, e)
					engine.Flush(doc.URI)
				}
				newDoc = doc
			} else {
				engine.OnTextChanged(newDoc, edits...)
				engine.Flush(newDoc.URI)
			}

			patched := engine.Parse(newDoc)
			metrics := engine.CacheMetrics()
			engine.ClearCache()
			full := engine.Parse(newDoc)

			fmt.Fprintf(out, "edits\t%d\n", len(edits))
			fmt.Fprintf(out, "scopes\t%d\n", full.Len())
			fmt.Fprintf(out, "patches\t%d\n", metrics.Patches)
			fmt.Fprintf(out, "full parses\t%d\n", metrics.FullParses)
			fmt.Fprintf(out, "patch failures\t%d\n", metrics.PatchFailures)

			if diff := cmp.Diff(full, patched, cmpopts.EquateEmpty()); diff != "" {
				fmt.Fprintf(out, "forest mismatch (-full +patched):\n%s", diff)
				return errReplayMismatch
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "language id (default: from the file extension)")
	cmd.Flags().BoolVar(&stepwise, "stepwise", false, "apply and recompute each edit separately")

	return cmd
}

// inserted returns the text e put in place. Edits from Diff run left to
// right and never touch text before their start, so the inserted range is
// already final in the new text.
func inserted(newText string, e document.Edit) string {
	return newText[e.Start:e.NewEnd]
}

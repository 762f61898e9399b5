package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dhamidi/bracketlens/grammar"
	"github.com/dhamidi/bracketlens/lens"
)

func newGrammarsCmd() *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "grammars [name]...",
		Short: "List known grammars, or dump them as a grammar file",
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

			grammars, err := selectGrammars(engine.Registry(), args)
			if err != nil {
				return err
			}
			if dump {
				return grammar.Write(cmd.OutOrStdout(), grammars...)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tLANGUAGES\tEXTENSIONS\tINCREMENTAL")
			for _, g := range grammars {
				incremental := "yes"
				if g.IncrementalUnsafe {
					incremental = "no"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.Name,
					strings.Join(g.Languages, ","), strings.Join(g.Extensions, ","), incremental)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&dump, "dump", false, "print the grammars as YAML")

	return cmd
}

// selectGrammars returns the named grammars, or all of them when names is
// empty. Names may be grammar names or language ids.
func selectGrammars(reg *grammar.Registry, names []string) ([]*grammar.Grammar, error) {
	all := reg.Grammars()
	if len(names) == 0 {
		return all, nil
	}
	var out []*grammar.Grammar
	for _, name := range names {
		g, ok := reg.Lookup(name)
		if !ok {
			for _, candidate := range all {
				if candidate.Name == name {
					g, ok = candidate, true
					break
				}
			}
		}
		if !ok {
			return nil, fmt.Errorf("unknown grammar: %s", name)
		}
		out = append(out, g)
	}
	return out, nil
}

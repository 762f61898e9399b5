package grammar

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type grammarFile struct {
	Grammars []*Grammar `yaml:"grammars"`
}

// Parse reads a YAML grammar file holding a top-level "grammars" list.
// Every grammar is validated; the first invalid one aborts the load.
func Parse(r io.Reader) ([]*Grammar, error) {
	var f grammarFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, &ConfigError{Field: "yaml", Err: err}
	}
	for _, g := range f.Grammars {
		if err := g.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Grammars, nil
}

// LoadFile loads grammars from a YAML file.
func LoadFile(filename string) ([]*Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	grammars, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse grammar %s: %w", filename, err)
	}
	return grammars, nil
}

// Write encodes grammars in the format Parse reads.
func Write(w io.Writer, grammars ...*Grammar) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(grammarFile{Grammars: grammars}); err != nil {
		return fmt.Errorf("encode grammar: %w", err)
	}
	return enc.Close()
}

// Package grammar describes the lexical shape of a language as far as scope
// tracking needs it: comments, strings, bracket pairs and statement
// terminators.
//
// A Grammar is pure data. It is validated once, when it is registered or
// compiled, and a ConfigError is the only error the rest of the system ever
// surfaces for it.
package grammar

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// HeaderMode selects where a scope's label is taken from.
type HeaderMode int

const (
	// HeaderSmart tries HeaderBefore first and falls back to HeaderInner.
	HeaderSmart HeaderMode = iota
	// HeaderBefore uses the text in front of the opening token.
	HeaderBefore
	// HeaderInner uses the first line of content inside the scope.
	HeaderInner
)

func (m HeaderMode) String() string {
	switch m {
	case HeaderBefore:
		return "before"
	case HeaderInner:
		return "inner"
	case HeaderSmart:
		return "smart"
	default:
		return fmt.Sprintf("HeaderMode(%d)", int(m))
	}
}

func (m HeaderMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *HeaderMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "smart":
		*m = HeaderSmart
	case "before":
		*m = HeaderBefore
	case "inner":
		*m = HeaderInner
	default:
		return fmt.Errorf("unknown header mode %q", text)
	}
	return nil
}

// Bracket is an opener/closer pair. Word brackets are keywords such as
// "begin"/"end" and only match on word boundaries. A Leading opener only
// counts when nothing but whitespace precedes it on its line, which keeps
// modifier forms like Ruby's "return if done" from opening a scope.
type Bracket struct {
	Open    string     `yaml:"open"`
	Close   string     `yaml:"close"`
	Word    bool       `yaml:"word"`
	Leading bool       `yaml:"leading"`
	Header  HeaderMode `yaml:"header"`
}

// IsWord reports whether the bracket needs word-boundary checks. Brackets made
// only of word characters are treated as word brackets even when Word is unset.
func (b Bracket) IsWord() bool {
	return b.Word || isWordLiteral(b.Open) || isWordLiteral(b.Close)
}

// CommentPair delimits a block comment.
type CommentPair struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// StringDelim describes a string literal. Close defaults to Open.
type StringDelim struct {
	Open      string   `yaml:"open"`
	Close     string   `yaml:"close"`
	Escapes   []string `yaml:"escapes"`
	Multiline bool     `yaml:"multiline"`
}

// Closer returns the closing delimiter.
func (s StringDelim) Closer() string {
	if s.Close == "" {
		return s.Open
	}
	return s.Close
}

// Grammar is the declarative configuration for one language family.
type Grammar struct {
	Name              string        `yaml:"name"`
	Languages         []string      `yaml:"languages"`
	Extensions        []string      `yaml:"extensions"`
	LineComments      []string      `yaml:"line_comments"`
	BlockComments     []CommentPair `yaml:"block_comments"`
	Brackets          []Bracket     `yaml:"brackets"`
	Strings           []StringDelim `yaml:"strings"`
	Terminators       []string      `yaml:"terminators"`
	CaseInsensitive   bool          `yaml:"case_insensitive"`
	IncrementalUnsafe bool          `yaml:"incremental_unsafe"`

	// WordChars is a regular expression matching one word character. It
	// decides word-bracket boundaries. Empty means letters, digits and '_'.
	WordChars string `yaml:"word_chars"`
}

// Validate checks the grammar for structural problems. The returned error is
// always a *ConfigError.
func (g *Grammar) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return &ConfigError{Field: "name", Err: ErrEmptyLiteral}
	}
	if len(g.Languages) == 0 {
		return &ConfigError{Grammar: g.Name, Field: "languages", Err: ErrNoLanguages}
	}
	for i, c := range g.LineComments {
		if c == "" {
			return &ConfigError{Grammar: g.Name, Field: fmt.Sprintf("line_comments[%d]", i), Err: ErrEmptyLiteral}
		}
	}
	for i, c := range g.BlockComments {
		if c.Open == "" || c.Close == "" {
			return &ConfigError{Grammar: g.Name, Field: fmt.Sprintf("block_comments[%d]", i), Err: ErrEmptyLiteral}
		}
	}
	for i, s := range g.Strings {
		if s.Open == "" {
			return &ConfigError{Grammar: g.Name, Field: fmt.Sprintf("strings[%d]", i), Err: ErrEmptyLiteral}
		}
		for j, esc := range s.Escapes {
			if esc == "" {
				return &ConfigError{Grammar: g.Name, Field: fmt.Sprintf("strings[%d].escapes[%d]", i, j), Err: ErrEmptyLiteral}
			}
		}
	}
	if len(g.Brackets) == 0 {
		return &ConfigError{Grammar: g.Name, Field: "brackets", Err: ErrNoBrackets}
	}
	for i, b := range g.Brackets {
		field := fmt.Sprintf("brackets[%d]", i)
		if b.Open == "" || b.Close == "" {
			return &ConfigError{Grammar: g.Name, Field: field, Err: ErrEmptyLiteral}
		}
		if g.fold(b.Open) == g.fold(b.Close) {
			return &ConfigError{Grammar: g.Name, Field: field, Err: ErrSameDelimiters}
		}
		if b.Header < HeaderSmart || b.Header > HeaderInner {
			return &ConfigError{Grammar: g.Name, Field: field + ".header", Err: fmt.Errorf("unknown header mode %d", int(b.Header))}
		}
	}
	if _, err := g.WordPattern(); err != nil {
		return &ConfigError{Grammar: g.Name, Field: "word_chars", Err: err}
	}
	return nil
}

// WordPattern compiles WordChars anchored to a single character.
func (g *Grammar) WordPattern() (*regexp.Regexp, error) {
	if g.WordChars == "" {
		return nil, nil
	}
	return regexp.Compile(`^(?:` + g.WordChars + `)$`)
}

// Fold normalises a literal for comparisons under the grammar's case rules.
func (g *Grammar) Fold(s string) string {
	return g.fold(s)
}

func (g *Grammar) fold(s string) string {
	if g.CaseInsensitive {
		return strings.ToLower(s)
	}
	return s
}

// Clone returns a deep copy, so callers can adjust flags on a registered
// grammar without touching the shared instance.
func (g *Grammar) Clone() *Grammar {
	c := *g
	c.Languages = append([]string(nil), g.Languages...)
	c.Extensions = append([]string(nil), g.Extensions...)
	c.LineComments = append([]string(nil), g.LineComments...)
	c.BlockComments = append([]CommentPair(nil), g.BlockComments...)
	c.Brackets = append([]Bracket(nil), g.Brackets...)
	c.Terminators = append([]string(nil), g.Terminators...)
	c.Strings = make([]StringDelim, len(g.Strings))
	for i, s := range g.Strings {
		s.Escapes = append([]string(nil), s.Escapes...)
		c.Strings[i] = s
	}
	return &c
}

func isWordLiteral(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsWordRune(r) {
			return false
		}
	}
	return true
}

// IsWordRune is the default word-character test.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

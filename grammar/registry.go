package grammar

import (
	"path/filepath"
	"sort"
	"strings"
)

// Registry resolves language ids and file extensions to grammars. Later
// registrations win, so configured grammars override the built-in ones.
type Registry struct {
	byName     map[string]*Grammar
	byLanguage map[string]*Grammar
	byExt      map[string]*Grammar
}

func NewRegistry() *Registry {
	return &Registry{
		byName:     make(map[string]*Grammar),
		byLanguage: make(map[string]*Grammar),
		byExt:      make(map[string]*Grammar),
	}
}

// NewBuiltinRegistry returns a registry holding every built-in grammar.
func NewBuiltinRegistry() (*Registry, error) {
	r := NewRegistry()
	for _, g := range Builtin() {
		if err := r.Register(g); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates g and stores a copy of it.
func (r *Registry) Register(g *Grammar) error {
	if err := g.Validate(); err != nil {
		return err
	}
	c := g.Clone()
	r.byName[c.Name] = c
	for _, lang := range c.Languages {
		r.byLanguage[strings.ToLower(lang)] = c
	}
	for _, ext := range c.Extensions {
		r.byExt[strings.ToLower(ext)] = c
	}
	return nil
}

// Lookup finds the grammar for an editor language id.
func (r *Registry) Lookup(languageID string) (*Grammar, bool) {
	g, ok := r.byLanguage[strings.ToLower(languageID)]
	return g, ok
}

// ForFile finds the grammar for a path by its extension.
func (r *Registry) ForFile(path string) (*Grammar, bool) {
	g, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return g, ok
}

// LanguageForFile returns the first language id of the grammar matching path.
func (r *Registry) LanguageForFile(path string) string {
	g, ok := r.ForFile(path)
	if !ok {
		return ""
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, lang := range g.Languages {
		if lang == ext {
			return lang
		}
	}
	return g.Languages[0]
}

// Languages lists every registered language id, sorted.
func (r *Registry) Languages() []string {
	langs := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Grammars returns the grammars currently reachable through a language id,
// sorted by name. Grammars fully shadowed by later registrations are left out.
func (r *Registry) Grammars() []*Grammar {
	seen := make(map[*Grammar]bool)
	var out []*Grammar
	for _, g := range r.byLanguage {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

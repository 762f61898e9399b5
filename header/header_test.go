package header

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/bracketlens/document"
	"github.com/dhamidi/bracketlens/grammar"
	"github.com/dhamidi/bracketlens/scope"
)

func builtin(t *testing.T, name string) *grammar.Grammar {
	t.Helper()
	for _, g := range grammar.Builtin() {
		if g.Name == name {
			return g
		}
	}
	t.Fatalf("no builtin grammar %q", name)
	return nil
}

// resolve parses text with g and resolves the header of root i.
func resolve(t *testing.T, r *Resolver, g *grammar.Grammar, lang, text string, i int) (Header, bool) {
	t.Helper()
	tz, err := scope.Compile(g)
	require.NoError(t, err)
	f := tz.Parse(text)
	require.Greater(t, len(f.Roots), i)

	prev := scope.NoScope
	if i > 0 {
		prev = f.Roots[i-1]
	}
	doc := document.New("file:///x", lang, 1, text)
	return r.Resolve(doc, g, f, f.Roots[i], prev)
}

func TestResolve(t *testing.T) {
	terminated := &grammar.Grammar{
		Name:        "t",
		Languages:   []string{"t"},
		Brackets:    []grammar.Bracket{{Open: "{", Close: "}"}},
		Terminators: []string{";"},
	}

	tests := []struct {
		name  string
		g     *grammar.Grammar
		text  string
		root  int
		want  string
		found bool
	}{
		{"text before opener", builtin(t, "go"), "func main() {\n\tx()\n}\n", 0, "func main()", true},
		{"previous line", builtin(t, "go"), "func main()\n{\n\tx()\n}\n", 0, "func main()", true},
		{"terminated candidate falls back to inner", terminated, "x = 1;\n{\n  y\n}\n", 0, "y", true},
		{"bounded by previous sibling", builtin(t, "go"), "if a {\n\tb\n} else {\n\tc\n}\n", 1, "else", true},
		{"whitespace collapsed", builtin(t, "go"), "for   i :=\t0; i < n; i++ {\n\tx()\n}\n", 0, "for i := 0; i < n; i++", true},
		{"inner line of a tag", builtin(t, "markup"), "<div\n  class=\"a\">\n</div>\n", 0, "div", true},
		{"inner skips the opener keyword", builtin(t, "ruby"), "def\n  hello\nend\n", 0, "hello", true},
		{"nothing usable", builtin(t, "go"), "{\n}\n", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := resolve(t, NewResolver(Options{}), tt.g, tt.g.Languages[0], tt.text, tt.root)
			require.Equal(t, tt.found, ok)
			require.Equal(t, tt.want, h.Label)
		})
	}
}

func TestResolveLimits(t *testing.T) {
	g := builtin(t, "c")
	text := "public static void main(String[] args) {\n\trun();\n}\n"

	h, ok := resolve(t, NewResolver(Options{MaxWords: 3}), g, "java", text, 0)
	require.True(t, ok)
	require.Equal(t, "public static void", h.Label)
	require.Equal(t, "public static void main(String[] args)", h.Raw)

	h, ok = resolve(t, NewResolver(Options{MaxLength: 10}), g, "java", text, 0)
	require.True(t, ok)
	require.True(t, strings.HasSuffix(h.Label, "…"), h.Label)
	require.LessOrEqual(t, runewidth.StringWidth(h.Label), 10)

	h, ok = resolve(t, NewResolver(Options{MaxLength: 10, Ellipsis: "..."}), g, "java", text, 0)
	require.True(t, ok)
	require.True(t, strings.HasSuffix(h.Label, "..."), h.Label)
}

func TestResolveHooks(t *testing.T) {
	g := builtin(t, "go")
	text := "func main() {\n\tx()\n}\n"

	rewrite, err := NewRewriter(map[string][]Rule{
		"go":        {{Match: `^func (\w+)\(.*\)$`, Replace: "$1"}},
		AnyLanguage: {{Match: `main`, Replace: "MAIN"}},
	})
	require.NoError(t, err)

	h, ok := resolve(t, NewResolver(Options{Simplify: rewrite}), g, "go", text, 0)
	require.True(t, ok)
	require.Equal(t, "MAIN", h.Label)
	require.Equal(t, "func main()", h.Raw)

	h, ok = resolve(t, NewResolver(Options{Filter: ExcludeSymbols("(", ")")}), g, "go", text, 0)
	require.True(t, ok)
	require.Equal(t, "func main", h.Label)

	drop := func(string, string) string { return "" }
	_, ok = resolve(t, NewResolver(Options{Simplify: drop}), g, "go", text, 0)
	require.False(t, ok)
}

func TestNewRewriterBadPattern(t *testing.T) {
	_, err := NewRewriter(map[string][]Rule{"go": {{Match: "(unclosed"}}})
	var cfgErr *grammar.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "go", cfgErr.Grammar)
	require.Equal(t, "simplify[0]", cfgErr.Field)
}

func TestExcludeSymbolsEmpty(t *testing.T) {
	require.Nil(t, ExcludeSymbols())
	require.Nil(t, ExcludeSymbols(""))
}

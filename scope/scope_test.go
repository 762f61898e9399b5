package scope

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dhamidi/bracketlens/grammar"
)

// tb is satisfied by both *testing.T and *rapid.T.
type tb interface {
	require.TestingT
	Helper()
}

func compileBuiltin(t *testing.T, name string) *Tokenizer {
	t.Helper()
	for _, g := range grammar.Builtin() {
		if g.Name == name {
			tz, err := Compile(g)
			require.NoError(t, err)
			return tz
		}
	}
	t.Fatalf("no builtin grammar %q", name)
	return nil
}

func texts(toks []Token) []string {
	var out []string
	for _, tok := range toks {
		if tok.Text != "\n" {
			out = append(out, tok.Text)
		}
	}
	return out
}

// checkForest verifies the structural invariants every parse must satisfy.
func checkForest(t tb, f *Forest) {
	t.Helper()
	checkSiblings := func(ids []ID, parent ID) {
		for i, id := range ids {
			e := f.Entry(id)
			require.Equal(t, parent, e.Parent, "parent of %d", id)
			require.GreaterOrEqual(t, e.End.Offset, e.Start.Offset, "entry %d ends before it starts", id)
			if parent != NoScope {
				p := f.Entry(parent)
				require.GreaterOrEqual(t, e.Start.Offset, p.Start.End(), "entry %d starts outside parent", id)
				require.LessOrEqual(t, e.End.End(), p.End.Offset, "entry %d ends outside parent", id)
			}
			if i > 0 {
				prev := f.Entry(ids[i-1])
				require.LessOrEqual(t, prev.End.End(), e.Start.Offset, "siblings %d and %d overlap", ids[i-1], id)
			}
			for _, c := range e.Children {
				require.Less(t, c, id, "child %d stored after parent %d", c, id)
			}
		}
	}
	checkSiblings(f.Roots, NoScope)
	for id := range f.Entries {
		checkSiblings(f.Entries[id].Children, ID(id))
	}
}

func TestCompileBuiltins(t *testing.T) {
	for _, g := range grammar.Builtin() {
		t.Run(g.Name, func(t *testing.T) {
			_, err := Compile(g)
			require.NoError(t, err)
		})
	}
}

func TestCompileInvalidGrammar(t *testing.T) {
	_, err := Compile(&grammar.Grammar{Name: "broken", Languages: []string{"x"}})
	var cfgErr *grammar.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "brackets", cfgErr.Field)
}

func TestTokenizeWordBoundaries(t *testing.T) {
	tz := compileBuiltin(t, "ruby")

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"keyword inside identifier", "iffy = backend\nendless", nil},
		{"keyword pair", "if x\n  y\nend", []string{"if", "end"}},
		{"leading only", "return if done\n", nil},
		{"indented leading", "  while x\n  end", []string{"while", "end"}},
		{"symbol next to word", "do|x|\nend", []string{"do", "end"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, texts(tz.Tokenize(tt.input)))
		})
	}
}

func TestTokenizeLongestLiteralFirst(t *testing.T) {
	tz := compileBuiltin(t, "c")
	require.Equal(t, []string{`"""`, `"""`}, texts(tz.Tokenize(`s = """x"""`)))
}

func TestTokenizeDeterministic(t *testing.T) {
	tz := compileBuiltin(t, "go")
	input := "func f() {\n\ts := \"{\" // }\n}\n"
	require.Equal(t, tz.Tokenize(input), tz.Tokenize(input))
}

func TestParseUnclosedOpeners(t *testing.T) {
	tz := compileBuiltin(t, "go")
	f := tz.Parse("{{{{")

	require.Equal(t, 4, f.Len())
	require.Len(t, f.Roots, 1)
	for _, e := range f.Entries {
		require.True(t, e.Unmatched)
		require.Equal(t, 4, e.End.Offset)
		require.Empty(t, e.End.Text)
	}
	checkForest(t, f)
}

func TestParseDropsSingleLineScopes(t *testing.T) {
	tz := compileBuiltin(t, "javascript")
	require.Zero(t, tz.Parse("{ a: { b: 1 } }").Len())
}

func TestParseNested(t *testing.T) {
	tz := compileBuiltin(t, "go")
	input := "func main() {\n\tif x {\n\t\ty()\n\t}\n}\n"
	f := tz.Parse(input)

	require.Equal(t, 2, f.Len())
	require.Len(t, f.Roots, 1)
	root := f.Entry(f.Roots[0])
	require.Equal(t, strings.Index(input, "{"), root.Start.Offset)
	require.Equal(t, strings.LastIndex(input, "}"), root.End.Offset)
	require.False(t, root.Unmatched)
	require.Equal(t, grammar.HeaderSmart, root.Header)

	require.Len(t, root.Children, 1)
	child := f.Entry(root.Children[0])
	require.Equal(t, strings.Index(input, "x {")+2, child.Start.Offset)
	checkForest(t, f)
}

func TestParseMalformed(t *testing.T) {
	tz := compileBuiltin(t, "go")

	t.Run("wrong closer", func(t *testing.T) {
		f := tz.Parse("(\n]")
		require.Equal(t, 1, f.Len())
		e := f.Entry(f.Roots[0])
		require.True(t, e.Unmatched)
		require.Equal(t, "]", e.End.Text)
	})

	t.Run("orphan closer", func(t *testing.T) {
		f := tz.Parse("}\n")
		require.Equal(t, 1, f.Len())
		e := f.Entry(f.Roots[0])
		require.True(t, e.Unmatched)
		require.Equal(t, Token{Offset: 0}, e.Start)
		require.Equal(t, Token{Offset: 0, Text: "}"}, e.End)
		require.Equal(t, grammar.HeaderBefore, e.Header)
	})

	t.Run("single line mismatch is kept", func(t *testing.T) {
		f := tz.Parse("x := (a]")
		require.Equal(t, 1, f.Len())
		require.True(t, f.Entries[0].Unmatched)
	})
}

func TestParseIgnoresCommentsAndStrings(t *testing.T) {
	tz := compileBuiltin(t, "go")

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"line comment", "// {\n", 0},
		{"block comment", "/* {\n\n */\n", 0},
		{"string", "s := \"{\"\n", 0},
		{"escaped quote", "s := \"\\\"{\"\n{\n}", 1},
		{"raw string", "s := `\n{\n`\n", 0},
		{"unterminated string ends at line break", "s := \"abc\n{\n}\n", 1},
		{"comment closer outside comment", "*/ {\n}", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tz.Parse(tt.input)
			require.Equal(t, tt.want, f.Len())
			for _, e := range f.Entries {
				require.False(t, e.Unmatched)
			}
		})
	}
}

func TestParseCaseInsensitive(t *testing.T) {
	tz := compileBuiltin(t, "sql")
	f := tz.Parse("BEGIN\n  select 'end';\nEnd")

	require.Equal(t, 1, f.Len())
	e := f.Entry(f.Roots[0])
	require.False(t, e.Unmatched)
	require.Equal(t, "BEGIN", e.Start.Text)
	require.Equal(t, "End", e.End.Text)
}

func TestParseWordBlocks(t *testing.T) {
	tz := compileBuiltin(t, "ruby")
	f := tz.Parse("def f\n  return 1 if x\n  while y\n    z\n  end\nend\n")

	require.Equal(t, 2, f.Len())
	root := f.Entry(f.Roots[0])
	require.Equal(t, "def", root.Start.Text)
	require.False(t, root.Unmatched)
	require.Len(t, root.Children, 1)
	require.Equal(t, "while", f.Entry(root.Children[0]).Start.Text)
}

func TestParseIdempotent(t *testing.T) {
	tz := compileBuiltin(t, "go")
	input := "package p\n\nfunc f() {\n\tfor {\n\t\tg(func() {\n\t\t})\n\t}\n}\n}\n{\n"
	require.Empty(t, cmp.Diff(tz.Parse(input), tz.Parse(input)))
}

func TestParseInner(t *testing.T) {
	tz := compileBuiltin(t, "go")
	input := "func f() {\n\tif a {\n\t}\n}\n"
	full := tz.Parse(input)
	root := full.Entry(full.Roots[0])

	sub, clean := tz.ParseInner(input, root.Start, root.End)
	require.True(t, clean)
	require.Equal(t, 1, sub.Len())
	require.Equal(t, full.Entry(root.Children[0]).Start, sub.Entry(sub.Roots[0]).Start)

	t.Run("unbalanced interior", func(t *testing.T) {
		edited := "func f() {\n\tif a {\n\t}\n\t{\n}\n"
		closer := Token{Offset: strings.LastIndex(edited, "}"), Text: "}"}
		_, clean := tz.ParseInner(edited, root.Start, closer)
		require.False(t, clean)
	})

	t.Run("closer moved", func(t *testing.T) {
		closer := root.End
		closer.Offset--
		_, clean := tz.ParseInner(input, root.Start, closer)
		require.False(t, clean)
	})
}

func TestSpliceMatchesFullParse(t *testing.T) {
	tz := compileBuiltin(t, "go")
	before := "func f() {\n\tif a {\n\t}\n}\n\nfunc g() {\n\tx()\n}\n"
	insert := "\tfor {\n\t}\n"
	at := strings.Index(before, "\t}\n}") + len("\t}\n")
	after := before[:at] + insert + before[at:]

	old := tz.Parse(before)
	target := old.Roots[0]
	e := old.Entry(target)
	closer := e.End
	closer.Offset += len(insert)

	sub, clean := tz.ParseInner(after, e.Start, closer)
	require.True(t, clean)
	patched := old.Splice(target, sub, at, len(insert))

	require.Empty(t, cmp.Diff(tz.Parse(after), patched))
	checkForest(t, patched)
}

func TestLines(t *testing.T) {
	require.Equal(t, 0, Lines("abc", 0, 3))
	require.Equal(t, 2, Lines("a\nb\nc", 0, 5))
	require.Equal(t, 1, Lines("a\nb\nc", 2, 100))
}

func TestPropertyForestInvariants(t *testing.T) {
	tz := compileBuiltin(t, "go")
	rapid.Check(t, func(rt *rapid.T) {
		input := rapid.StringOfN(rapid.SampledFrom([]rune("{}[]()\n ab\"'`/*\\")), 0, 200, -1).Draw(rt, "input")
		f := tz.Parse(input)
		checkForest(rt, f)
		for _, e := range f.Entries {
			require.LessOrEqual(rt, e.End.End(), len(input))
		}
	})
}

func TestPropertyBalancedInputIsMatched(t *testing.T) {
	tz := compileBuiltin(t, "go")
	pairs := [][2]string{{"{", "}"}, {"[", "]"}, {"(", ")"}}

	balanced := rapid.Custom(func(rt *rapid.T) string {
		var sb strings.Builder
		var stack []string
		steps := rapid.IntRange(0, 80).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch op := rapid.IntRange(0, 3).Draw(rt, "op"); {
			case op == 0 || (op == 1 && len(stack) == 0):
				p := pairs[rapid.IntRange(0, len(pairs)-1).Draw(rt, "pair")]
				sb.WriteString(p[0])
				stack = append(stack, p[1])
			case op == 1:
				sb.WriteString(stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			case op == 2:
				sb.WriteByte('\n')
			default:
				sb.WriteString("x ")
			}
		}
		for len(stack) > 0 {
			sb.WriteString(stack[len(stack)-1])
			stack = stack[:len(stack)-1]
		}
		return sb.String()
	})

	rapid.Check(t, func(rt *rapid.T) {
		input := balanced.Draw(rt, "input")
		f := tz.Parse(input)
		for _, e := range f.Entries {
			require.False(rt, e.Unmatched, "unmatched entry in %q", input)
		}
		checkForest(rt, f)
	})
}

package document

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLineIndex(t *testing.T) {
	d := New("file:///a.go", "go", 1, "ab\ncd\r\n\nlast")

	require.Equal(t, 4, d.LineCount())
	require.Equal(t, "ab", d.Line(0))
	require.Equal(t, "cd", d.Line(1))
	require.Equal(t, "", d.Line(2))
	require.Equal(t, "last", d.Line(3))
	require.Equal(t, "", d.Line(7))

	require.Equal(t, 0, d.LineOf(2))
	require.Equal(t, 1, d.LineOf(3))
	require.Equal(t, 3, d.LineOf(d.Len()+10))
	require.Equal(t, d.Len(), d.LineStart(99))
}

func TestPositionOffset(t *testing.T) {
	d := New("u", "go", 1, "func f() {\n\treturn\n}")

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{0, 0}},
		{10, Position{0, 10}},
		{11, Position{1, 0}},
		{13, Position{1, 2}},
		{-4, Position{0, 0}},
		{1000, Position{2, 1}},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, d.Position(tt.offset), "offset %d", tt.offset)
	}

	require.Equal(t, 13, d.Offset(Position{1, 2}))
	require.Equal(t, 18, d.Offset(Position{1, 99}), "column clamps to the line")
	require.Equal(t, d.Len(), d.Offset(Position{40, 0}))
}

func TestUTF16(t *testing.T) {
	// "é" is two bytes and one unit; the emoji is four bytes and two units.
	d := New("u", "md", 1, "é😀x\nok")
	x := len("é😀")

	require.Equal(t, Position{0, 3}, d.UTF16Position(x))
	require.Equal(t, x, d.OffsetFromUTF16(Position{0, 3}))
	require.Equal(t, Position{1, 1}, d.UTF16Position(d.Len()-1))
	require.Equal(t, d.Len()-1, d.OffsetFromUTF16(Position{1, 1}))
	require.Equal(t, len("é😀x"), d.OffsetFromUTF16(Position{0, 50}))
}

func TestApply(t *testing.T) {
	d := New("u", "go", 1, "0123456789")

	next, edits := d.Apply(2,
		Change{Start: 5, End: 5, Text: "ab"},
		Change{Start: 1, End: 3, Text: ""},
	)
	require.Equal(t, "034ab56789", next.Text())
	require.Equal(t, int32(2), next.Version)
	require.Equal(t, "u", next.URI)
	require.Equal(t, []Edit{{5, 5, 7}, {1, 3, 1}}, edits)

	env, ok := Compose(edits...)
	require.True(t, ok)
	require.Equal(t, Edit{Start: 1, OldEnd: 5, NewEnd: 5}, env)
	require.Equal(t, d.Text()[:env.Start], next.Text()[:env.Start])
	require.Equal(t, d.Text()[env.OldEnd:], next.Text()[env.NewEnd:])

	_, ok = Compose()
	require.False(t, ok)
}

func TestApplyClampsRanges(t *testing.T) {
	d := New("u", "go", 1, "abc")
	next, edits := d.Apply(2, Change{Start: 2, End: 40, Text: "Z"})
	require.Equal(t, "abZ", next.Text())
	require.Equal(t, []Edit{{2, 3, 3}}, edits)
}

func TestEdit(t *testing.T) {
	require.True(t, Edit{3, 3, 3}.IsNoop())
	require.False(t, Edit{3, 3, 4}.IsNoop())
	require.Equal(t, -2, Edit{0, 4, 2}.Delta())
}

func TestDiff(t *testing.T) {
	require.Nil(t, Diff("same", "same"))

	old := "func f() {\n\treturn\n}\n"
	new := "func f() {\n\tx := 1\n\treturn x\n}\n"
	edits := Diff(old, new)
	require.NotEmpty(t, edits)
	require.Equal(t, new, replay(old, new, edits))
}

// replay applies edits produced by Diff, taking inserted text from new.
func replay(old, new string, edits []Edit) string {
	text := old
	for _, e := range edits {
		text = text[:e.Start] + new[e.Start:e.NewEnd] + text[e.OldEnd:]
	}
	return text
}

func TestPropertyDiffReplays(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		alphabet := rapid.SampledFrom([]rune("ab{}\n é"))
		old := rapid.StringOf(alphabet).Draw(t, "old")
		new := rapid.StringOf(alphabet).Draw(t, "new")

		edits := Diff(old, new)
		require.Equal(t, new, replay(old, new, edits))

		if env, ok := Compose(edits...); ok {
			require.Equal(t, old[:env.Start], new[:env.Start])
			require.Equal(t, old[env.OldEnd:], new[env.NewEnd:])
		}
	})
}

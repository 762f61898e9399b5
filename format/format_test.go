package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhamidi/bracketlens/decoration"
	"github.com/dhamidi/bracketlens/document"
	"github.com/dhamidi/bracketlens/grammar"
	"github.com/dhamidi/bracketlens/scope"
)

const source = "func f() {\n\tif a {\n\t\tx()\n\t}\n}\n{\n"

func scan(t *testing.T) *Result {
	t.Helper()
	var g *grammar.Grammar
	for _, b := range grammar.Builtin() {
		if b.Name == "go" {
			g = b
		}
	}
	tz, err := scope.Compile(g)
	require.NoError(t, err)

	doc := document.New("file:///a.go", "go", 3, source)
	return &Result{
		Document: doc,
		Forest:   tz.Parse(source),
		Sources: []decoration.Source{
			{Anchor: 29, Line: 4, Label: "func f()", Lines: 5},
			{Anchor: len(source), Line: 6, Label: "{", Lines: 2, Unmatched: true},
		},
	}
}

func TestLineEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewLineEncoder(&buf).Encode(scan(t)))
	require.Equal(t, "file:///a.go:5:2\tfunc f()\t5\n"+
		"file:///a.go:7:1\t{\t2\tunmatched\n", buf.String())
}

func TestLineEncoder_Error(t *testing.T) {
	r := scan(t)
	r.Err = errors.New("document exceeds size limit")
	var buf bytes.Buffer
	require.NoError(t, NewLineEncoder(&buf).Encode(r))
	require.Equal(t, "file:///a.go\tskipped\tdocument exceeds size limit\n", buf.String())
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONEncoder(&buf).Encode(scan(t)))

	var got jsonResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, jsonResult{
		URI:      "file:///a.go",
		Language: "go",
		Version:  3,
		Decorations: []jsonDecoration{
			{Offset: 29, Line: 5, Column: 2, Label: "func f()", Lines: 5},
			{Offset: len(source), Line: 7, Column: 1, Label: "{", Lines: 2, Unmatched: true},
		},
	}, got)
}

func TestJSONEncoder_EmptyDecorations(t *testing.T) {
	r := scan(t)
	r.Sources = nil
	text, err := (&JSONEncoder{result: r}).MarshalText()
	require.NoError(t, err)
	require.Contains(t, string(text), `"decorations": []`)
}

func TestTreeEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTreeEncoder(&buf).Encode(scan(t)))
	require.Equal(t, "{…} 1:10-5:1 smart\n"+
		"  {…} 2:7-4:2 smart\n"+
		"{…∅ 6:1-7:1 smart unmatched\n", buf.String())
}

func TestTreeJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTreeJSONEncoder(&buf).Encode(scan(t)))

	var nodes []*treeJSONNode
	require.NoError(t, json.Unmarshal(buf.Bytes(), &nodes))
	require.Len(t, nodes, 2)
	require.Len(t, nodes[0].Children, 1)
	require.Equal(t, treeJSONPos{Offset: 17, Line: 2, Column: 7}, nodes[0].Children[0].Start)
	require.True(t, nodes[1].Unmatched)
	require.Empty(t, nodes[1].Close)
}

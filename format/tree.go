package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/bracketlens/document"
	"github.com/dhamidi/bracketlens/scope"
)

// TreeEncoder dumps the scope forest, indented by depth.
type TreeEncoder struct {
	w      io.Writer
	result *Result
}

func NewTreeEncoder(w io.Writer) *TreeEncoder {
	return &TreeEncoder{w: w}
}

func (e *TreeEncoder) Encode(r *Result) error {
	e.result = r
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TreeEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	doc, f := e.result.Document, e.result.Forest
	f.Walk(func(id scope.ID, depth int) bool {
		entry := f.Entry(id)
		start, end := doc.Position(entry.Start.Offset), doc.Position(entry.End.Offset)
		fmt.Fprintf(&sb, "%s%s…%s %d:%d-%d:%d %s",
			strings.Repeat("  ", depth),
			tokenText(entry.Start), tokenText(entry.End),
			start.Line+1, start.Column+1, end.Line+1, end.Column+1,
			entry.Header)
		if entry.Unmatched {
			sb.WriteString(" unmatched")
		}
		sb.WriteByte('\n')
		return true
	})
	return []byte(sb.String()), nil
}

func tokenText(t scope.Token) string {
	if t.Text == "" {
		return "∅"
	}
	return t.Text
}

// TreeJSONEncoder writes the scope forest as nested JSON.
type TreeJSONEncoder struct {
	w      io.Writer
	result *Result
}

func NewTreeJSONEncoder(w io.Writer) *TreeJSONEncoder {
	return &TreeJSONEncoder{w: w}
}

func (e *TreeJSONEncoder) Encode(r *Result) error {
	e.result = r
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	text = append(text, '\n')
	_, err = e.w.Write(text)
	return err
}

func (e *TreeJSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(forestToJSON(e.result.Document, e.result.Forest), "", "  ")
}

type treeJSONNode struct {
	Open      string          `json:"open"`
	Close     string          `json:"close"`
	Start     treeJSONPos     `json:"start"`
	End       treeJSONPos     `json:"end"`
	Header    string          `json:"header"`
	Unmatched bool            `json:"unmatched,omitempty"`
	Children  []*treeJSONNode `json:"children,omitempty"`
}

type treeJSONPos struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func jsonPos(doc *document.Document, offset int) treeJSONPos {
	p := doc.Position(offset)
	return treeJSONPos{Offset: offset, Line: p.Line + 1, Column: p.Column + 1}
}

func forestToJSON(doc *document.Document, f *scope.Forest) []*treeJSONNode {
	roots := []*treeJSONNode{}
	var path []*treeJSONNode
	f.Walk(func(id scope.ID, depth int) bool {
		entry := f.Entry(id)
		node := &treeJSONNode{
			Open:      entry.Start.Text,
			Close:     entry.End.Text,
			Start:     jsonPos(doc, entry.Start.Offset),
			End:       jsonPos(doc, entry.End.Offset),
			Header:    entry.Header.String(),
			Unmatched: entry.Unmatched,
		}
		path = path[:depth]
		if depth == 0 {
			roots = append(roots, node)
		} else {
			parent := path[depth-1]
			parent.Children = append(parent.Children, node)
		}
		path = append(path, node)
		return true
	})
	return roots
}

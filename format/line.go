package format

import (
	"fmt"
	"io"
	"strings"
)

// LineEncoder writes one tab-separated line per decoration:
// uri:line:column, label, line span and an optional "unmatched" marker.
type LineEncoder struct {
	w      io.Writer
	result *Result
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(r *Result) error {
	e.result = r
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	r := e.result
	doc := r.Document

	if r.Err != nil {
		fmt.Fprintf(&sb, "%s\tskipped\t%s\n", doc.URI, r.Err)
		return []byte(sb.String()), nil
	}

	for _, src := range r.Sources {
		pos := doc.Position(src.Anchor)
		fmt.Fprintf(&sb, "%s:%d:%d\t%s\t%d", doc.URI, pos.Line+1, pos.Column+1, src.Label, src.Lines)
		if src.Unmatched {
			sb.WriteString("\tunmatched")
		}
		sb.WriteByte('\n')
	}

	return []byte(sb.String()), nil
}

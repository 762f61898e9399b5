package format

import (
	"encoding/json"
	"io"
)

// JSONEncoder writes decoration sources as one JSON document per result.
type JSONEncoder struct {
	w      io.Writer
	result *Result
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(r *Result) error {
	e.result = r
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	text = append(text, '\n')
	_, err = e.w.Write(text)
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(e.buildData(), "", "  ")
}

type jsonResult struct {
	URI         string           `json:"uri"`
	Language    string           `json:"language"`
	Version     int32            `json:"version"`
	Error       string           `json:"error,omitempty"`
	Decorations []jsonDecoration `json:"decorations"`
}

type jsonDecoration struct {
	Offset    int    `json:"offset"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Label     string `json:"label"`
	Lines     int    `json:"lines"`
	Unmatched bool   `json:"unmatched,omitempty"`
}

func (e *JSONEncoder) buildData() jsonResult {
	r := e.result
	doc := r.Document
	data := jsonResult{
		URI:         doc.URI,
		Language:    doc.LanguageID,
		Version:     doc.Version,
		Decorations: make([]jsonDecoration, 0, len(r.Sources)),
	}
	if r.Err != nil {
		data.Error = r.Err.Error()
	}
	for _, src := range r.Sources {
		pos := doc.Position(src.Anchor)
		data.Decorations = append(data.Decorations, jsonDecoration{
			Offset:    src.Anchor,
			Line:      pos.Line + 1,
			Column:    pos.Column + 1,
			Label:     src.Label,
			Lines:     src.Lines,
			Unmatched: src.Unmatched,
		})
	}
	return data
}

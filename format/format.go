// Package format renders scan results for the command line.
package format

import (
	"encoding"

	"github.com/dhamidi/bracketlens/decoration"
	"github.com/dhamidi/bracketlens/document"
	"github.com/dhamidi/bracketlens/scope"
)

// Result is everything known about one scanned document.
type Result struct {
	Document *document.Document
	Forest   *scope.Forest
	Sources  []decoration.Source
	Err      error // why nothing was produced, if anything
}

type Encoder interface {
	encoding.TextMarshaler
	Encode(r *Result) error
}

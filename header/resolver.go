// Package header derives the short label shown next to a scope's closer.
package header

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dhamidi/bracketlens/document"
	"github.com/dhamidi/bracketlens/grammar"
	"github.com/dhamidi/bracketlens/scope"
)

// maxInnerLines bounds how far HeaderInner looks for a non-trivial line.
const maxInnerLines = 16

// Simplifier rewrites a collapsed header into a shorter language-specific
// form. Returning "" drops the label.
type Simplifier func(language, header string) string

// Filter removes content that should never appear in a label.
type Filter func(language, header string) string

type Options struct {
	MaxWords  int
	MaxLength int // display cells; 0 disables truncation
	Ellipsis  string
	Simplify  Simplifier
	Filter    Filter
}

// Header is a resolved label. Raw is the candidate text with whitespace
// collapsed, before hooks and limits ran.
type Header struct {
	Raw   string
	Label string
}

type Resolver struct {
	opts Options
}

func NewResolver(opts Options) *Resolver {
	if opts.Ellipsis == "" {
		opts.Ellipsis = "…"
	}
	return &Resolver{opts: opts}
}

// Resolve computes the header of entry id. prev is the entry's previous
// sibling, or scope.NoScope. It reports false when no candidate is valid.
func (r *Resolver) Resolve(doc *document.Document, g *grammar.Grammar, f *scope.Forest, id, prev scope.ID) (Header, bool) {
	e := f.Entry(id)
	var raw string
	var ok bool
	switch e.Header {
	case grammar.HeaderBefore:
		raw, ok = r.before(doc, g, f, e, prev)
	case grammar.HeaderInner:
		raw, ok = r.inner(doc, g, e)
	default:
		raw, ok = r.before(doc, g, f, e, prev)
		if !ok {
			raw, ok = r.inner(doc, g, e)
		}
	}
	if !ok {
		return Header{}, false
	}
	raw = collapse(raw)
	label, ok := r.finish(doc.LanguageID, raw)
	if !ok {
		return Header{}, false
	}
	return Header{Raw: raw, Label: label}, true
}

// lowerBound is the first offset a HeaderBefore candidate may use: the end of
// the previous sibling, else the end of the parent's opener.
func lowerBound(f *scope.Forest, e *scope.Entry, prev scope.ID) int {
	if prev != scope.NoScope {
		_, end := f.Entry(prev).Span()
		return end
	}
	if e.Parent != scope.NoScope {
		start, _ := f.Entry(e.Parent).Inner()
		return start
	}
	return 0
}

func (r *Resolver) before(doc *document.Document, g *grammar.Grammar, f *scope.Forest, e *scope.Entry, prev scope.ID) (string, bool) {
	text := doc.Text()
	open := e.Start.Offset
	bound := lowerBound(f, e, prev)
	line := doc.LineOf(open)

	from := max(doc.LineStart(line), bound)
	if from <= open {
		if c := text[from:open]; valid(g, c) {
			return c, true
		}
	}

	if line == 0 {
		return "", false
	}
	prevStart, prevEnd := doc.LineStart(line-1), doc.LineEnd(line-1)
	if bound >= prevEnd {
		return "", false
	}
	c := text[max(prevStart, bound):prevEnd]
	if valid(g, c) {
		return c, true
	}
	return "", false
}

func (r *Resolver) inner(doc *document.Document, g *grammar.Grammar, e *scope.Entry) (string, bool) {
	text := doc.Text()
	from, to := e.Inner()
	if from > to {
		return "", false
	}
	opener := g.Fold(strings.TrimSpace(e.Start.Text))
	pos := from
	for i := 0; i < maxInnerLines && pos <= to; i++ {
		end := to
		if nl := strings.IndexByte(text[pos:to], '\n'); nl >= 0 {
			end = pos + nl
		}
		line := strings.TrimSpace(text[pos:end])
		if line != "" && g.Fold(line) != opener {
			if valid(g, line) {
				return line, true
			}
			return "", false
		}
		pos = end + 1
	}
	return "", false
}

// valid rejects empty candidates and candidates ending in a statement
// terminator, which belong to an earlier statement.
func valid(g *grammar.Grammar, c string) bool {
	t := strings.TrimSpace(strings.ReplaceAll(c, ",", ""))
	if t == "" {
		return false
	}
	t = g.Fold(t)
	for _, term := range g.Terminators {
		if strings.HasSuffix(t, g.Fold(term)) {
			return false
		}
	}
	return true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (r *Resolver) finish(language, s string) (string, bool) {
	if r.opts.Simplify != nil {
		s = collapse(r.opts.Simplify(language, s))
	}
	if r.opts.Filter != nil {
		s = collapse(r.opts.Filter(language, s))
	}
	if s == "" {
		return "", false
	}
	if r.opts.MaxWords > 0 {
		if words := strings.Fields(s); len(words) > r.opts.MaxWords {
			s = strings.Join(words[:r.opts.MaxWords], " ")
		}
	}
	if r.opts.MaxLength > 0 && runewidth.StringWidth(s) > r.opts.MaxLength {
		s = runewidth.Truncate(s, r.opts.MaxLength, r.opts.Ellipsis)
	}
	return s, true
}

// Package decoration turns a scope forest into the list of labels an editor
// draws after closing brackets.
package decoration

import (
	"sort"
	"strings"
	"unicode"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/bracketlens/document"
	"github.com/dhamidi/bracketlens/grammar"
	"github.com/dhamidi/bracketlens/header"
	"github.com/dhamidi/bracketlens/scope"
)

var log = commonlog.GetLogger("bracketlens.decoration")

// DefaultControlFlow lists keywords whose blocks are labelled even when they
// are shorter than the minimum line span.
var DefaultControlFlow = []string{
	"if", "else", "elif", "elsif", "for", "foreach", "while", "do", "switch",
	"case", "try", "catch", "except", "finally", "with", "loop", "match",
	"unless", "until", "when", "select",
}

// Source is one label and where to draw it.
type Source struct {
	Anchor    int      `json:"anchor"` // offset right after the closer
	Line      int      `json:"line"`   // zero-based line of the closer
	Label     string   `json:"label"`
	Unmatched bool     `json:"unmatched,omitempty"`
	Lines     int      `json:"lines"` // line span, both ends included
	Scope     scope.ID `json:"-"`
}

type Options struct {
	MinLines       int
	MaxDecorations int // 0 means unlimited
	ControlFlow    []string
}

type Builder struct {
	opts        Options
	resolver    *header.Resolver
	controlFlow map[string]bool
}

func NewBuilder(resolver *header.Resolver, opts Options) *Builder {
	keywords := opts.ControlFlow
	if keywords == nil {
		keywords = DefaultControlFlow
	}
	cf := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		cf[strings.ToLower(k)] = true
	}
	return &Builder{opts: opts, resolver: resolver, controlFlow: cf}
}

type level struct {
	ids []scope.ID
	i   int
}

// Build walks f in pre-order and returns the labels to show, at most
// MaxDecorations of them.
func (b *Builder) Build(doc *document.Document, g *grammar.Grammar, f *scope.Forest) []Source {
	if f.Len() == 0 {
		return nil
	}
	var out []Source
	used := make(map[int]bool)

	stack := []level{{ids: f.Roots}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.i >= len(top.ids) {
			stack = stack[:len(stack)-1]
			continue
		}
		idx := top.i
		top.i++
		id := top.ids[idx]
		prev, next := scope.NoScope, scope.NoScope
		if idx > 0 {
			prev = top.ids[idx-1]
		}
		if idx+1 < len(top.ids) {
			next = top.ids[idx+1]
		}

		if src, ok := b.visit(doc, g, f, id, prev, next, used); ok {
			used[src.Line] = true
			out = append(out, src)
		}
		if kids := f.Entry(id).Children; len(kids) > 0 {
			stack = append(stack, level{ids: kids})
		}
	}

	if b.opts.MaxDecorations > 0 && len(out) > b.opts.MaxDecorations {
		log.Debugf("%s: %d decorations, keeping %d", doc.URI, len(out), b.opts.MaxDecorations)
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Unmatched != out[j].Unmatched {
				return out[i].Unmatched
			}
			return out[i].Lines > out[j].Lines
		})
		out = out[:b.opts.MaxDecorations]
	}
	return out
}

func (b *Builder) visit(doc *document.Document, g *grammar.Grammar, f *scope.Forest, id, prev, next scope.ID, used map[int]bool) (Source, bool) {
	e := f.Entry(id)
	startLine := doc.LineOf(e.Start.Offset)
	endLine := doc.LineOf(e.End.Offset)

	if used[endLine] {
		return Source{}, false
	}
	if e.Parent != scope.NoScope && doc.LineOf(f.Entry(e.Parent).End.Offset) == endLine {
		return Source{}, false
	}
	if next != scope.NoScope && doc.LineOf(f.Entry(next).Start.Offset) == endLine {
		return Source{}, false
	}

	h, ok := b.resolver.Resolve(doc, g, f, id, prev)
	if !ok {
		return Source{}, false
	}
	lines := endLine - startLine + 1
	if lines < b.opts.MinLines && !b.isControlFlow(h.Raw) {
		return Source{}, false
	}
	return Source{
		Anchor:    anchor(doc.Text(), e),
		Line:      endLine,
		Label:     h.Label,
		Unmatched: e.Unmatched,
		Lines:     lines,
		Scope:     id,
	}, true
}

func (b *Builder) isControlFlow(raw string) bool {
	words := strings.FieldsFunc(raw, func(r rune) bool { return !unicode.IsLetter(r) })
	return len(words) > 0 && b.controlFlow[strings.ToLower(words[0])]
}

// anchor places a label right after the closer, and after a comma or
// semicolon that directly follows it.
func anchor(text string, e *scope.Entry) int {
	a := e.End.End()
	if a < len(text) && (text[a] == ',' || text[a] == ';') {
		a++
	}
	return a
}

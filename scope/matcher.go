package scope

import (
	"strings"

	"github.com/dhamidi/bracketlens/grammar"
)

type state uint8

const (
	stateDefault state = iota
	stateBlockComment
	stateLineComment
	stateInlineString
	stateMultilineString
)

type frame struct {
	start     Token
	expect    string // folded closer
	header    grammar.HeaderMode
	startLine int
	children  []ID
}

// matcher folds a token stream into a Forest. It never fails: malformed input
// shows up as entries flagged Unmatched.
type matcher struct {
	tz     *Tokenizer
	forest *Forest
	stack  []frame
	roots  []ID
	line   int

	state   state
	closer  string // folded terminator of the current comment or string
	escapes map[string]bool

	orphans int
}

func newMatcher(tz *Tokenizer) *matcher {
	return &matcher{tz: tz, forest: &Forest{}}
}

// Parse tokenizes text and matches its scopes.
func (t *Tokenizer) Parse(text string) *Forest {
	m := newMatcher(t)
	m.run(t.scan(text, 0, len(text)))
	m.finish(len(text))
	return m.forest
}

// ParseInner reparses the inside of an existing scope after an edit. opener
// and closer are the scope's tokens in the edited text. It reports false when
// the result cannot stand in for a full parse: the scope's own tokens no
// longer lex the same, or its inside no longer ends in plain code with every
// bracket closed.
func (t *Tokenizer) ParseInner(text string, opener, closer Token) (*Forest, bool) {
	if opener.End() > closer.Offset || closer.End() > len(text) {
		return nil, false
	}
	toks := t.scan(text, opener.Offset, closer.End())
	if len(toks) < 2 {
		return nil, false
	}
	first, last := toks[0], toks[len(toks)-1]
	if first.Token != opener || last.Token != closer {
		return nil, false
	}

	m := newMatcher(t)
	m.run(toks[1 : len(toks)-1])
	clean := m.state == stateDefault && len(m.stack) == 0 && m.orphans == 0
	m.finish(closer.Offset)
	return m.forest, clean
}

func (m *matcher) run(toks []lexed) {
	for _, tok := range toks {
		m.step(tok)
	}
}

func (m *matcher) step(tok lexed) {
	lx := tok.lex
	if lx.kind == kindNewline {
		m.line++
		if m.state == stateLineComment || m.state == stateInlineString {
			m.state = stateDefault
		}
		return
	}

	switch m.state {
	case stateBlockComment:
		if lx.text == m.closer {
			m.state = stateDefault
		}
		return
	case stateLineComment:
		return
	case stateInlineString, stateMultilineString:
		if m.escapes[lx.text] {
			return
		}
		if lx.text == m.closer {
			m.state = stateDefault
		}
		return
	}

	g := m.tz.grammar
	switch lx.kind {
	case kindBlockComment:
		m.state = stateBlockComment
		m.closer = g.Fold(g.BlockComments[lx.index].Close)
	case kindLineComment:
		m.state = stateLineComment
	case kindString:
		s := g.Strings[lx.index]
		m.state = stateInlineString
		if s.Multiline {
			m.state = stateMultilineString
		}
		m.closer = g.Fold(s.Closer())
		m.escapes = m.tz.escapes[lx.index]
	case kindOpen:
		m.stack = append(m.stack, frame{
			start:     tok.Token,
			expect:    m.tz.closers[lx.index],
			header:    g.Brackets[lx.index].Header,
			startLine: m.line,
		})
	case kindClose:
		m.close(tok.Token, lx.text)
	}
}

func (m *matcher) close(tok Token, folded string) {
	if len(m.stack) == 0 {
		m.orphans++
		id := m.forest.add(Entry{
			Start:     Token{Offset: tok.Offset},
			End:       tok,
			Header:    grammar.HeaderBefore,
			Unmatched: true,
		}, nil)
		m.roots = append(m.roots, id)
		return
	}
	f := m.pop()
	m.keep(f, tok, f.expect != folded)
}

func (m *matcher) pop() frame {
	f := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return f
}

// keep records a finished frame if it spans lines or is unmatched. The kept
// children of a discarded frame move up to the enclosing frame.
func (m *matcher) keep(f frame, end Token, unmatched bool) {
	if !unmatched && m.line == f.startLine {
		m.attach(f.children...)
		return
	}
	id := m.forest.add(Entry{
		Start:     f.start,
		End:       end,
		Header:    f.header,
		Unmatched: unmatched,
	}, f.children)
	m.attach(id)
}

func (m *matcher) attach(ids ...ID) {
	if len(ids) == 0 {
		return
	}
	if n := len(m.stack); n > 0 {
		m.stack[n-1].children = append(m.stack[n-1].children, ids...)
		return
	}
	m.roots = append(m.roots, ids...)
}

// finish force-closes every open frame at offset end.
func (m *matcher) finish(end int) {
	for len(m.stack) > 0 {
		f := m.pop()
		m.keep(f, Token{Offset: end}, true)
	}
	m.forest.Roots = m.roots
}

// Lines counts the line breaks in text[start:end]. Helpers outside the
// matcher use it to decide whether a span is multi-line.
func Lines(text string, start, end int) int {
	start = min(max(start, 0), len(text))
	end = min(max(end, start), len(text))
	return strings.Count(text[start:end], "\n")
}

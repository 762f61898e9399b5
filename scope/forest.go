package scope

import (
	"github.com/dhamidi/bracketlens/grammar"
)

// ID indexes an Entry in its Forest.
type ID int32

// NoScope is the parent of top-level entries.
const NoScope ID = -1

// Entry is one scope: an opener, the closer that ended it, and the kept
// scopes between them. A force-closed scope ends in a zero-length token at
// the end of the parsed range; an orphan closer starts with one.
type Entry struct {
	Start     Token
	End       Token
	Header    grammar.HeaderMode
	Unmatched bool
	Parent    ID
	Children  []ID
}

// Span returns the byte range covered by the entry, closer included.
func (e *Entry) Span() (start, end int) {
	return e.Start.Offset, e.End.End()
}

// Inner returns the byte range strictly between opener and closer.
func (e *Entry) Inner() (start, end int) {
	return e.Start.End(), e.End.Offset
}

// Forest is a flat arena of entries. Entries are stored in post-order, so
// equal trees always produce equal arenas.
type Forest struct {
	Entries []Entry
	Roots   []ID
}

func (f *Forest) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Entries)
}

// Entry returns the entry with the given id.
func (f *Forest) Entry(id ID) *Entry {
	return &f.Entries[id]
}

// Siblings returns the list id belongs to: its parent's children or the roots.
func (f *Forest) Siblings(id ID) []ID {
	if p := f.Entries[id].Parent; p != NoScope {
		return f.Entries[p].Children
	}
	return f.Roots
}

// Walk visits entries in pre-order (document order of openers). Returning
// false from fn skips the entry's children.
func (f *Forest) Walk(fn func(id ID, depth int) bool) {
	if f == nil {
		return
	}
	type item struct {
		id    ID
		depth int
	}
	stack := make([]item, 0, len(f.Roots))
	for i := len(f.Roots) - 1; i >= 0; i-- {
		stack = append(stack, item{f.Roots[i], 0})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(it.id, it.depth) {
			continue
		}
		kids := f.Entries[it.id].Children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, item{kids[i], it.depth + 1})
		}
	}
}

// add appends an entry owning children and returns its id.
func (f *Forest) add(e Entry, children []ID) ID {
	id := ID(len(f.Entries))
	e.Parent = NoScope
	e.Children = children
	f.Entries = append(f.Entries, e)
	for _, c := range children {
		f.Entries[c].Parent = id
	}
	return id
}

// Splice returns a new forest in which the children of target are replaced
// by the roots of sub, and every token at or after oldEnd is moved by delta.
// sub must already be in the coordinates of the edited text.
func (f *Forest) Splice(target ID, sub *Forest, oldEnd, delta int) *Forest {
	out := &Forest{Entries: make([]Entry, 0, len(f.Entries)+sub.Len())}
	shift := func(t Token) Token {
		if t.Offset >= oldEnd {
			t.Offset += delta
		}
		return t
	}

	for _, r := range f.Roots {
		out.Roots = append(out.Roots, copyTree(out, f, r, func(src *Forest, id ID) (Entry, *Forest, []ID) {
			e := src.Entries[id]
			if src == sub {
				return e, sub, e.Children
			}
			e.Start, e.End = shift(e.Start), shift(e.End)
			if id == target {
				return e, sub, sub.Roots
			}
			return e, f, e.Children
		}))
	}
	return out
}

// expandFunc maps a source entry to the entry to emit, plus the forest and
// ids its children come from.
type expandFunc func(src *Forest, id ID) (Entry, *Forest, []ID)

// copyTree copies the subtree at root into out in post-order without
// recursion, so deeply nested input cannot exhaust the stack.
func copyTree(out *Forest, src *Forest, root ID, expand expandFunc) ID {
	type frame struct {
		entry    Entry
		from     *Forest
		children []ID
		next     int
		copied   []ID
	}
	e, from, kids := expand(src, root)
	stack := []frame{{entry: e, from: from, children: kids}}
	var last ID
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.children) {
			child := top.children[top.next]
			top.next++
			ce, cf, ck := expand(top.from, child)
			stack = append(stack, frame{entry: ce, from: cf, children: ck})
			continue
		}
		last = out.add(top.entry, top.copied)
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			parent := &stack[len(stack)-1]
			parent.copied = append(parent.copied, last)
		}
	}
	return last
}

package document

// Change replaces the bytes [Start, End) of a snapshot with Text.
type Change struct {
	Start int
	End   int
	Text  string
}

// Edit describes a changed region: [Start, OldEnd) in the old text became
// [Start, NewEnd) in the new text. Everything before Start is untouched and
// everything after OldEnd moved by Delta.
type Edit struct {
	Start  int
	OldEnd int
	NewEnd int
}

func (e Edit) Delta() int { return e.NewEnd - e.OldEnd }

// IsNoop reports whether the edit changed nothing.
func (e Edit) IsNoop() bool { return e.Start == e.OldEnd && e.OldEnd == e.NewEnd }

// Then composes e with an edit expressed in the coordinates of the text e
// produced. The result spans both edits in the coordinates of e's old text.
func (e Edit) Then(next Edit) Edit {
	start := min(e.Start, next.Start)
	x := max(e.NewEnd, next.OldEnd)
	return Edit{
		Start:  start,
		OldEnd: x - e.Delta(),
		NewEnd: x + next.Delta(),
	}
}

// Compose folds a sequence of edits, each relative to the text left by the
// previous one, into one envelope. It reports false for an empty sequence.
func Compose(edits ...Edit) (Edit, bool) {
	if len(edits) == 0 {
		return Edit{}, false
	}
	out := edits[0]
	for _, e := range edits[1:] {
		out = out.Then(e)
	}
	return out, true
}

// Apply replaces text following changes in order and returns the resulting
// snapshot at version together with one Edit per change. Change offsets are
// clamped to the text they apply to.
func (d *Document) Apply(version int32, changes ...Change) (*Document, []Edit) {
	text := d.text
	edits := make([]Edit, 0, len(changes))
	for _, c := range changes {
		start := min(max(c.Start, 0), len(text))
		end := min(max(c.End, start), len(text))
		text = text[:start] + c.Text + text[end:]
		edits = append(edits, Edit{Start: start, OldEnd: end, NewEnd: start + len(c.Text)})
	}
	return New(d.URI, d.LanguageID, version, text), edits
}

// Replace returns a snapshot at version holding text, with no edit
// information. Callers that know what changed should use Apply.
func (d *Document) Replace(version int32, text string) *Document {
	return New(d.URI, d.LanguageID, version, text)
}

package document

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff describes how to turn old into new as a sequence of edits, each
// relative to the text left by the previous one. It is used when only the
// full new text is known, so the parse cache can still patch locally.
func Diff(old, new string) []Edit {
	if old == new {
		return nil
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, new, false)

	var edits []Edit
	pos := 0
	for _, d := range diffs {
		n := len(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += n
		case diffmatchpatch.DiffDelete:
			edits = append(edits, Edit{Start: pos, OldEnd: pos + n, NewEnd: pos})
		case diffmatchpatch.DiffInsert:
			edits = append(edits, Edit{Start: pos, OldEnd: pos, NewEnd: pos + n})
			pos += n
		}
	}
	return edits
}

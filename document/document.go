// Package document holds immutable text snapshots with a line index, the
// offset/position translations editors need, and the edit ranges that
// describe how one snapshot became the next.
package document

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Position is a zero-based line and column. Column counts bytes unless the
// value came from one of the UTF16 helpers.
type Position struct {
	Line   int
	Column int
}

// Document is one version of a text buffer. It is never mutated; Apply
// returns a new snapshot.
type Document struct {
	URI        string
	LanguageID string
	Version    int32

	text  string
	lines []int // byte offset of each line start
}

func New(uri, languageID string, version int32, text string) *Document {
	d := &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		text:       text,
	}
	d.buildLineIndex()
	return d
}

func (d *Document) buildLineIndex() {
	d.lines = make([]int, 1, strings.Count(d.text, "\n")+1)
	for i := 0; i < len(d.text); i++ {
		if d.text[i] == '\n' {
			d.lines = append(d.lines, i+1)
		}
	}
}

func (d *Document) Text() string { return d.text }

func (d *Document) Len() int { return len(d.text) }

func (d *Document) LineCount() int { return len(d.lines) }

// LineOf returns the zero-based line containing offset. Offsets past the end
// map to the last line.
func (d *Document) LineOf(offset int) int {
	if offset <= 0 {
		return 0
	}
	return sort.Search(len(d.lines), func(i int) bool { return d.lines[i] > offset }) - 1
}

// LineStart returns the offset of the first byte of line.
func (d *Document) LineStart(line int) int {
	if line <= 0 {
		return 0
	}
	if line >= len(d.lines) {
		return len(d.text)
	}
	return d.lines[line]
}

// LineEnd returns the offset of the line break ending line, or the text
// length for the last line. A trailing '\r' is excluded.
func (d *Document) LineEnd(line int) int {
	var end int
	if line+1 >= len(d.lines) {
		end = len(d.text)
	} else {
		end = d.lines[line+1] - 1
	}
	if end > d.LineStart(line) && d.text[end-1] == '\r' {
		end--
	}
	return end
}

// Line returns the text of line without its line break.
func (d *Document) Line(line int) string {
	if line < 0 || line >= len(d.lines) {
		return ""
	}
	return d.text[d.LineStart(line):d.LineEnd(line)]
}

// Position converts a byte offset to a line and byte column.
func (d *Document) Position(offset int) Position {
	offset = d.clamp(offset)
	line := d.LineOf(offset)
	return Position{Line: line, Column: offset - d.lines[line]}
}

// Offset converts a line and byte column back to an offset, clamping the
// column to the line.
func (d *Document) Offset(p Position) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(d.lines) {
		return len(d.text)
	}
	start := d.lines[p.Line]
	end := d.LineEnd(p.Line)
	off := start + max(p.Column, 0)
	return min(off, end)
}

// UTF16Position converts an offset to a position whose column counts UTF-16
// code units, as the language server protocol expects.
func (d *Document) UTF16Position(offset int) Position {
	offset = d.clamp(offset)
	p := d.Position(offset)
	lineText := d.text[d.lines[p.Line]:offset]
	return Position{Line: p.Line, Column: utf16Len(lineText)}
}

// OffsetFromUTF16 is the inverse of UTF16Position.
func (d *Document) OffsetFromUTF16(p Position) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(d.lines) {
		return len(d.text)
	}
	start := d.lines[p.Line]
	line := d.text[start:d.LineEnd(p.Line)]
	units := 0
	for i, r := range line {
		if units >= p.Column {
			return start + i
		}
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	return start + len(line)
}

func (d *Document) clamp(offset int) int {
	return min(max(offset, 0), len(d.text))
}

func utf16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

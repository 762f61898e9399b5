// Package scope finds bracket scopes in source text.
//
// # Overview
//
// A Tokenizer is compiled once per grammar. It turns every comment marker,
// string delimiter, escape sequence and bracket literal of the grammar into a
// single alternation and finds all of them in one pass over the text:
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│    Text     │────▶│  Tokenizer  │────▶│   Matcher   │────▶ Forest
//	└─────────────┘     └─────────────┘     └─────────────┘
//
// The matcher walks the tokens with a five-state machine (code, block
// comment, line comment, inline string, multi-line string) and a stack of
// open brackets. Inside comments and strings only the matching terminator is
// recognised.
//
// # Error Tolerance
//
// Matching never fails. A closer that does not fit the innermost opener still
// closes it and the entry is flagged Unmatched. A closer with nothing open
// becomes a zero-width Unmatched entry. Openers left at the end of the text
// are closed there, Unmatched. An unterminated inline string ends at the line
// break.
//
// # Noise Reduction
//
// Matched scopes that open and close on the same line are dropped; their kept
// children move up to the enclosing scope.
//
// # Word Brackets
//
// Keyword brackets such as "begin"/"end" only count when the neighbouring
// characters are not word characters, so "iffy" never matches "if". Go's RE2
// engine has no lookaround, so the check runs on each match after the scan.
//
// # Forest Layout
//
// Entries live in a flat arena (Forest.Entries) in post-order and refer to
// each other by ID. Two parses of the same text produce identical arenas,
// which makes incremental splices comparable with full parses.
package scope

package scope

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dhamidi/bracketlens/grammar"
)

// Token is one literal from the grammar found in the text.
type Token struct {
	Offset int
	Text   string
}

// End returns the offset just past the token.
func (t Token) End() int { return t.Offset + len(t.Text) }

type kind uint8

const (
	kindNone kind = iota
	kindNewline
	kindBlockComment
	kindBlockCommentEnd
	kindLineComment
	kindString
	kindStringEnd
	kindEscape
	kindOpen
	kindClose
)

// lexeme is everything the grammar says about one literal. kind is the role
// the literal plays outside comments and strings; when a literal is defined
// more than once, the first definition decides it.
type lexeme struct {
	text    string // folded
	kind    kind
	index   int // into BlockComments, Strings or Brackets, depending on kind
	leading bool
	wordL   bool // first rune is a word character
	wordR   bool // last rune is a word character
}

type lexed struct {
	Token
	lex *lexeme
}

// Tokenizer scans text for the literals of one grammar. It is immutable after
// Compile and safe to share.
type Tokenizer struct {
	grammar  *grammar.Grammar
	pattern  *regexp.Regexp
	lexemes  map[string]*lexeme
	wordChar *regexp.Regexp
	escapes  []map[string]bool // per string delimiter, folded
	closers  []string          // per bracket, folded
}

// Compile builds the alternation pattern for g. Errors are *grammar.ConfigError.
func Compile(g *grammar.Grammar) (*Tokenizer, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	wordChar, _ := g.WordPattern()

	t := &Tokenizer{
		grammar:  g,
		lexemes:  make(map[string]*lexeme),
		wordChar: wordChar,
	}

	var order []*lexeme
	add := func(lit string, k kind, index int, leading bool) {
		folded := g.Fold(lit)
		if _, ok := t.lexemes[folded]; ok {
			return
		}
		first, _ := utf8.DecodeRuneInString(lit)
		last, _ := utf8.DecodeLastRuneInString(lit)
		lx := &lexeme{
			text:    folded,
			kind:    k,
			index:   index,
			leading: leading,
			wordL:   t.isWord(first),
			wordR:   t.isWord(last),
		}
		t.lexemes[folded] = lx
		order = append(order, lx)
	}

	for i, c := range g.BlockComments {
		add(c.Open, kindBlockComment, i, false)
		add(c.Close, kindBlockCommentEnd, i, false)
	}
	for _, c := range g.LineComments {
		add(c, kindLineComment, 0, false)
	}
	t.escapes = make([]map[string]bool, len(g.Strings))
	for i, s := range g.Strings {
		add(s.Open, kindString, i, false)
		add(s.Closer(), kindStringEnd, i, false)
		t.escapes[i] = make(map[string]bool, len(s.Escapes))
		for _, esc := range s.Escapes {
			add(esc, kindEscape, i, false)
			t.escapes[i][g.Fold(esc)] = true
		}
	}
	t.closers = make([]string, len(g.Brackets))
	for i, b := range g.Brackets {
		add(b.Open, kindOpen, i, b.Leading)
		t.closers[i] = g.Fold(b.Close)
	}
	for i, b := range g.Brackets {
		add(b.Close, kindClose, i, false)
	}
	add("\n", kindNewline, 0, false)

	// Longest literal first, so "-->" is preferred over "-" and "end" over
	// "e"; ties keep definition order.
	sort.SliceStable(order, func(i, j int) bool {
		return len(order[i].text) > len(order[j].text)
	})
	alts := make([]string, len(order))
	for i, lx := range order {
		alts[i] = regexp.QuoteMeta(lx.text)
	}
	expr := strings.Join(alts, "|")
	if g.CaseInsensitive {
		expr = "(?i)" + expr
	}
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, &grammar.ConfigError{Grammar: g.Name, Field: "pattern", Err: err}
	}
	t.pattern = pattern
	return t, nil
}

// Grammar returns the grammar the tokenizer was compiled from.
func (t *Tokenizer) Grammar() *grammar.Grammar { return t.grammar }

// Tokenize returns every token in text, in order.
func (t *Tokenizer) Tokenize(text string) []Token {
	return t.TokenizeRange(text, 0, len(text))
}

// TokenizeRange tokenizes text[start:end]. Offsets are absolute and word
// boundaries are checked against the full text.
func (t *Tokenizer) TokenizeRange(text string, start, end int) []Token {
	lx := t.scan(text, start, end)
	out := make([]Token, len(lx))
	for i, l := range lx {
		out[i] = l.Token
	}
	return out
}

func (t *Tokenizer) scan(text string, start, end int) []lexed {
	start = min(max(start, 0), len(text))
	end = min(max(end, start), len(text))
	matches := t.pattern.FindAllStringIndex(text[start:end], -1)
	out := make([]lexed, 0, len(matches))
	for _, m := range matches {
		from, to := start+m[0], start+m[1]
		lit := text[from:to]
		lx := t.lexemes[t.grammar.Fold(lit)]
		if lx == nil {
			continue
		}
		if lx.wordL && from > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:from])
			if t.isWord(r) {
				continue
			}
		}
		if lx.wordR && to < len(text) {
			r, _ := utf8.DecodeRuneInString(text[to:])
			if t.isWord(r) {
				continue
			}
		}
		if lx.leading && !atLineStart(text, from) {
			continue
		}
		out = append(out, lexed{Token: Token{Offset: from, Text: lit}, lex: lx})
	}
	return out
}

func (t *Tokenizer) isWord(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	if t.wordChar != nil {
		return t.wordChar.MatchString(string(r))
	}
	return grammar.IsWordRune(r)
}

func atLineStart(text string, offset int) bool {
	for i := offset - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

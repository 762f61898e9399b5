package grammar

var (
	cStrings = []StringDelim{
		{Open: `"`, Escapes: []string{`\\`, `\"`}},
		{Open: `'`, Escapes: []string{`\\`, `\'`}},
	}
	cComments      = []CommentPair{{Open: "/*", Close: "*/"}}
	symbolBrackets = []Bracket{
		{Open: "{", Close: "}", Header: HeaderSmart},
		{Open: "[", Close: "]", Header: HeaderBefore},
		{Open: "(", Close: ")", Header: HeaderBefore},
	}
)

func with(base []StringDelim, extra ...StringDelim) []StringDelim {
	out := make([]StringDelim, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// Builtin returns the grammars shipped with bracketlens. Slices are shared
// between entries; Registry.Register stores clones.
func Builtin() []*Grammar {
	return []*Grammar{
		{
			Name:          "go",
			Languages:     []string{"go"},
			Extensions:    []string{".go"},
			LineComments:  []string{"//"},
			BlockComments: cComments,
			Brackets:      symbolBrackets,
			Strings:       with(cStrings, StringDelim{Open: "`", Multiline: true}),
			Terminators:   []string{";"},
		},
		{
			Name:          "c",
			Languages:     []string{"c", "cpp", "csharp", "java", "kotlin", "swift", "dart", "scala", "objective-c", "groovy"},
			Extensions:    []string{".c", ".h", ".cc", ".cpp", ".hpp", ".cs", ".java", ".kt", ".swift", ".dart", ".scala", ".m", ".groovy"},
			LineComments:  []string{"//"},
			BlockComments: cComments,
			Brackets:      symbolBrackets,
			Strings:       with([]StringDelim{{Open: `"""`, Multiline: true}}, cStrings...),
			Terminators:   []string{";"},
		},
		{
			Name:          "javascript",
			Languages:     []string{"javascript", "javascriptreact", "typescript", "typescriptreact"},
			Extensions:    []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"},
			LineComments:  []string{"//"},
			BlockComments: cComments,
			Brackets:      symbolBrackets,
			Strings:       with(cStrings, StringDelim{Open: "`", Escapes: []string{`\\`, "\\`"}, Multiline: true}),
			Terminators:   []string{";"},
		},
		{
			Name:          "rust",
			Languages:     []string{"rust"},
			Extensions:    []string{".rs"},
			LineComments:  []string{"//"},
			BlockComments: cComments,
			Brackets:      symbolBrackets,
			Strings:       []StringDelim{{Open: `"`, Escapes: []string{`\\`, `\"`}, Multiline: true}},
			Terminators:   []string{";"},
		},
		{
			Name:          "php",
			Languages:     []string{"php"},
			Extensions:    []string{".php"},
			LineComments:  []string{"//", "#"},
			BlockComments: cComments,
			Brackets:      symbolBrackets,
			Strings:       cStrings,
			Terminators:   []string{";"},
		},
		{
			Name:          "css",
			Languages:     []string{"css", "scss", "less"},
			Extensions:    []string{".css", ".scss", ".less"},
			LineComments:  []string{"//"},
			BlockComments: cComments,
			Brackets:      symbolBrackets,
			Strings:       cStrings,
			Terminators:   []string{";"},
		},
		{
			Name:          "json",
			Languages:     []string{"json", "jsonc"},
			Extensions:    []string{".json", ".jsonc"},
			LineComments:  []string{"//"},
			BlockComments: cComments,
			Brackets: []Bracket{
				{Open: "{", Close: "}", Header: HeaderSmart},
				{Open: "[", Close: "]", Header: HeaderSmart},
			},
			Strings: []StringDelim{{Open: `"`, Escapes: []string{`\\`, `\"`}}},
		},
		{
			Name:         "python",
			Languages:    []string{"python"},
			Extensions:   []string{".py", ".pyi"},
			LineComments: []string{"#"},
			Brackets:     symbolBrackets,
			Strings: with([]StringDelim{
				{Open: `"""`, Escapes: []string{`\\`, `\"`}, Multiline: true},
				{Open: `'''`, Escapes: []string{`\\`, `\'`}, Multiline: true},
			}, cStrings...),
		},
		{
			Name:          "ruby",
			Languages:     []string{"ruby"},
			Extensions:    []string{".rb", ".rake"},
			LineComments:  []string{"#"},
			BlockComments: []CommentPair{{Open: "=begin", Close: "=end"}},
			Brackets: append([]Bracket{
				{Open: "def", Close: "end", Word: true, Header: HeaderInner},
				{Open: "class", Close: "end", Word: true, Header: HeaderInner},
				{Open: "module", Close: "end", Word: true, Header: HeaderInner},
				{Open: "case", Close: "end", Word: true, Header: HeaderInner},
				{Open: "if", Close: "end", Word: true, Leading: true, Header: HeaderInner},
				{Open: "unless", Close: "end", Word: true, Leading: true, Header: HeaderInner},
				{Open: "while", Close: "end", Word: true, Leading: true, Header: HeaderInner},
				{Open: "until", Close: "end", Word: true, Leading: true, Header: HeaderInner},
				{Open: "begin", Close: "end", Word: true, Header: HeaderSmart},
				{Open: "do", Close: "end", Word: true, Header: HeaderSmart},
			}, symbolBrackets...),
			Strings:           cStrings,
			IncrementalUnsafe: true,
		},
		{
			Name:          "lua",
			Languages:     []string{"lua"},
			Extensions:    []string{".lua"},
			LineComments:  []string{"--"},
			BlockComments: []CommentPair{{Open: "--[[", Close: "]]"}},
			Brackets: append([]Bracket{
				{Open: "function", Close: "end", Word: true, Header: HeaderInner},
				{Open: "if", Close: "end", Word: true, Header: HeaderInner},
				{Open: "do", Close: "end", Word: true, Header: HeaderSmart},
				{Open: "repeat", Close: "until", Word: true, Header: HeaderSmart},
			}, symbolBrackets...),
			Strings:           cStrings,
			IncrementalUnsafe: true,
		},
		{
			Name:         "shell",
			Languages:    []string{"shellscript", "bash", "sh", "zsh"},
			Extensions:   []string{".sh", ".bash", ".zsh"},
			LineComments: []string{"#"},
			Brackets: []Bracket{
				{Open: "if", Close: "fi", Word: true, Header: HeaderInner},
				{Open: "case", Close: "esac", Word: true, Header: HeaderInner},
				{Open: "do", Close: "done", Word: true, Header: HeaderSmart},
				{Open: "{", Close: "}", Header: HeaderSmart},
			},
			Strings: []StringDelim{
				{Open: `"`, Escapes: []string{`\\`, `\"`}, Multiline: true},
				{Open: `'`, Multiline: true},
			},
			IncrementalUnsafe: true,
		},
		{
			Name:          "sql",
			Languages:     []string{"sql", "plsql", "mysql", "postgres"},
			Extensions:    []string{".sql"},
			LineComments:  []string{"--"},
			BlockComments: cComments,
			Brackets: []Bracket{
				{Open: "begin", Close: "end", Word: true, Header: HeaderSmart},
				{Open: "case", Close: "end", Word: true, Header: HeaderInner},
				{Open: "(", Close: ")", Header: HeaderBefore},
			},
			Strings:         []StringDelim{{Open: "'", Escapes: []string{"''"}}},
			Terminators:     []string{";"},
			CaseInsensitive: true,
		},
		{
			Name:          "markup",
			Languages:     []string{"html", "xml", "svg", "vue"},
			Extensions:    []string{".html", ".htm", ".xml", ".svg", ".vue"},
			BlockComments: []CommentPair{{Open: "<!--", Close: "-->"}},
			Brackets: []Bracket{
				{Open: "<", Close: ">", Header: HeaderInner},
				{Open: "{", Close: "}", Header: HeaderSmart},
			},
			Strings: []StringDelim{{Open: `"`}},
		},
	}
}

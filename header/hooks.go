package header

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dhamidi/bracketlens/grammar"
)

// AnyLanguage keys rewrite rules that apply to every language.
const AnyLanguage = "*"

// Rule replaces every match of Match with Replace, which may use $1-style
// group references.
type Rule struct {
	Match   string `mapstructure:"match" yaml:"match"`
	Replace string `mapstructure:"replace" yaml:"replace"`
}

type compiledRule struct {
	re      *regexp.Regexp
	replace string
}

// NewRewriter compiles per-language rules into a Simplifier. Rules under
// AnyLanguage run after the language's own rules. A bad pattern is a
// *grammar.ConfigError.
func NewRewriter(rules map[string][]Rule) (Simplifier, error) {
	compiled := make(map[string][]compiledRule, len(rules))
	for lang, rs := range rules {
		for i, rule := range rs {
			re, err := regexp.Compile(rule.Match)
			if err != nil {
				return nil, &grammar.ConfigError{Grammar: lang, Field: fmt.Sprintf("simplify[%d]", i), Err: err}
			}
			compiled[lang] = append(compiled[lang], compiledRule{re: re, replace: rule.Replace})
		}
	}
	return func(language, s string) string {
		for _, rule := range compiled[language] {
			s = rule.re.ReplaceAllString(s, rule.replace)
		}
		if language != AnyLanguage {
			for _, rule := range compiled[AnyLanguage] {
				s = rule.re.ReplaceAllString(s, rule.replace)
			}
		}
		return s
	}, nil
}

// ExcludeSymbols returns a Filter deleting each symbol from the label.
func ExcludeSymbols(symbols ...string) Filter {
	var pairs []string
	for _, s := range symbols {
		if s != "" {
			pairs = append(pairs, s, "")
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	r := strings.NewReplacer(pairs...)
	return func(_ string, s string) string {
		return r.Replace(s)
	}
}

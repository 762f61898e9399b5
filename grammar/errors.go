package grammar

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyLiteral   = errors.New("empty literal")
	ErrNoLanguages    = errors.New("no language ids")
	ErrNoBrackets     = errors.New("no bracket pairs")
	ErrSameDelimiters = errors.New("opener and closer are identical")
)

// ConfigError reports an unusable grammar. It is the one fatal error of the
// scope pipeline and is raised once, at setup.
type ConfigError struct {
	Grammar string
	Field   string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Grammar == "" {
		return fmt.Sprintf("grammar config: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("grammar config %s: %s: %v", e.Grammar, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

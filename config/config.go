// Package config loads bracketlens settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dhamidi/bracketlens/header"
)

// EnvPrefix prefixes environment overrides, e.g. BRACKETLENS_MIN_SCOPE_LINES.
const EnvPrefix = "BRACKETLENS"

type Config struct {
	MaxDocumentBytes    int                      `mapstructure:"max_document_bytes"`
	MaxDecorations      int                      `mapstructure:"max_decorations"`
	MinScopeLines       int                      `mapstructure:"min_scope_lines"`
	DebounceMS          int                      `mapstructure:"debounce_ms"`
	FocusedDebounceMS   int                      `mapstructure:"focused_debounce_ms"`
	Header              HeaderConfig             `mapstructure:"header"`
	ControlFlowKeywords []string                 `mapstructure:"control_flow_keywords"`
	IncrementalUnsafe   []string                 `mapstructure:"incremental_unsafe"` // language ids
	GrammarFiles        []string                 `mapstructure:"grammar_files"`
	Simplify            map[string][]header.Rule `mapstructure:"simplify"` // keyed by language id or "*"
	Log                 LogConfig                `mapstructure:"log"`
}

type HeaderConfig struct {
	MaxWords        int      `mapstructure:"max_words"`
	MaxLength       int      `mapstructure:"max_length"`
	Ellipsis        string   `mapstructure:"ellipsis"`
	ExcludedSymbols []string `mapstructure:"excluded_symbols"`
}

type LogConfig struct {
	Verbosity int    `mapstructure:"verbosity"`
	File      string `mapstructure:"file"`
}

func Defaults() Config {
	return Config{
		MaxDocumentBytes:  1 << 20,
		MaxDecorations:    500,
		MinScopeLines:     4,
		DebounceMS:        300,
		FocusedDebounceMS: 100,
		Header: HeaderConfig{
			MaxWords:  8,
			MaxLength: 60,
			Ellipsis:  "…",
		},
	}
}

func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func (c Config) FocusedDebounce() time.Duration {
	return time.Duration(c.FocusedDebounceMS) * time.Millisecond
}

// Validate rejects settings no component can work with.
func (c Config) Validate() error {
	var errs []error
	check := func(name string, v int) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}
	check("max_document_bytes", c.MaxDocumentBytes)
	check("max_decorations", c.MaxDecorations)
	check("min_scope_lines", c.MinScopeLines)
	check("debounce_ms", c.DebounceMS)
	check("focused_debounce_ms", c.FocusedDebounceMS)
	check("header.max_words", c.Header.MaxWords)
	check("header.max_length", c.Header.MaxLength)
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("max_document_bytes", d.MaxDocumentBytes)
	v.SetDefault("max_decorations", d.MaxDecorations)
	v.SetDefault("min_scope_lines", d.MinScopeLines)
	v.SetDefault("debounce_ms", d.DebounceMS)
	v.SetDefault("focused_debounce_ms", d.FocusedDebounceMS)
	v.SetDefault("header.max_words", d.Header.MaxWords)
	v.SetDefault("header.max_length", d.Header.MaxLength)
	v.SetDefault("header.ellipsis", d.Header.Ellipsis)
	v.SetDefault("log.verbosity", d.Log.Verbosity)
	v.SetDefault("log.file", d.Log.File)
}

// Find returns the config file to use when none was given: .bracketlens.yaml
// in the working directory, then ~/.config/bracketlens/config.yaml. It
// returns "" when neither exists.
func Find() string {
	if _, err := os.Stat(".bracketlens.yaml"); err == nil {
		return ".bracketlens.yaml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".config", "bracketlens", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// Load reads path, or only defaults and environment when path is "".
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

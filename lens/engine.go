// Package lens is the public face of bracketlens. An Engine owns the
// grammars, the parse cache and the update scheduler for a set of open
// documents, and turns document text into decoration sources.
//
// Engine methods are not safe for concurrent use. Run them on one goroutine,
// normally a schedule.Loop, and give the engine that loop as its Poster so
// debounced recomputes land on the same goroutine.
package lens

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/bracketlens/cache"
	"github.com/dhamidi/bracketlens/config"
	"github.com/dhamidi/bracketlens/decoration"
	"github.com/dhamidi/bracketlens/document"
	"github.com/dhamidi/bracketlens/grammar"
	"github.com/dhamidi/bracketlens/header"
	"github.com/dhamidi/bracketlens/schedule"
	"github.com/dhamidi/bracketlens/scope"
)

var log = commonlog.GetLogger("bracketlens.lens")

var (
	// ErrDocumentTooLarge marks documents above max_document_bytes. They are
	// never tokenized and have no decorations.
	ErrDocumentTooLarge = cache.ErrTooLarge

	// ErrUnknownLanguage means no grammar covers the document's language.
	ErrUnknownLanguage = errors.New("no grammar for language")
)

// UpdateFunc receives fresh decorations after a debounced recompute, or
// after a document is opened.
type UpdateFunc func(doc *document.Document, sources []decoration.Source)

type Option func(*Engine)

// WithSimplifier replaces the rewrite rules from the config with s.
func WithSimplifier(s header.Simplifier) Option {
	return func(e *Engine) { e.simplifier = s }
}

// WithFilter replaces the excluded_symbols filter from the config with f.
func WithFilter(f header.Filter) Option {
	return func(e *Engine) { e.filter = f }
}

// WithPoster sets where debounced recomputes run. The default runs them on
// the timer goroutine, which is only safe when nothing else uses the engine.
func WithPoster(p schedule.Poster) Option {
	return func(e *Engine) { e.poster = p }
}

func WithClock(c schedule.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithUpdateFunc(fn UpdateFunc) Option {
	return func(e *Engine) { e.onUpdate = fn }
}

// setup is everything derived from a Config. It is rebuilt as a whole so a
// bad configuration leaves the previous one in place.
type setup struct {
	cfg        config.Config
	registry   *grammar.Registry
	tokenizers map[*grammar.Grammar]*scope.Tokenizer
	unsafe     map[string]bool
	builder    *decoration.Builder
}

type Engine struct {
	setup

	simplifier header.Simplifier
	filter     header.Filter
	poster     schedule.Poster
	clock      schedule.Clock
	onUpdate   UpdateFunc

	cache *cache.Cache
	sched *schedule.Scheduler
	docs  map[string]*document.Document
	views map[string]*View
}

// New builds an engine from cfg. A grammar that fails to load or compile is
// returned as an error; it is the only fatal condition.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		poster: schedule.Inline{},
		clock:  schedule.RealClock,
		docs:   make(map[string]*document.Document),
		views:  make(map[string]*View),
	}
	for _, opt := range opts {
		opt(e)
	}
	s, err := e.build(cfg)
	if err != nil {
		return nil, err
	}
	e.setup = s
	e.cache = cache.New(cfg.MaxDocumentBytes)
	e.sched = schedule.New(e.poster, cfg.Debounce(), cfg.FocusedDebounce(), schedule.WithClock(e.clock))
	return e, nil
}

func (e *Engine) build(cfg config.Config) (setup, error) {
	if err := cfg.Validate(); err != nil {
		return setup{}, err
	}
	reg, err := grammar.NewBuiltinRegistry()
	if err != nil {
		return setup{}, err
	}
	for _, path := range cfg.GrammarFiles {
		gs, err := grammar.LoadFile(path)
		if err != nil {
			return setup{}, err
		}
		for _, g := range gs {
			if err := reg.Register(g); err != nil {
				return setup{}, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	tokenizers := make(map[*grammar.Grammar]*scope.Tokenizer)
	for _, g := range reg.Grammars() {
		tz, err := scope.Compile(g)
		if err != nil {
			return setup{}, err
		}
		tokenizers[g] = tz
	}

	simplify := e.simplifier
	if simplify == nil && len(cfg.Simplify) > 0 {
		if simplify, err = header.NewRewriter(cfg.Simplify); err != nil {
			return setup{}, err
		}
	}
	filter := e.filter
	if filter == nil {
		filter = header.ExcludeSymbols(cfg.Header.ExcludedSymbols...)
	}
	resolver := header.NewResolver(header.Options{
		MaxWords:  cfg.Header.MaxWords,
		MaxLength: cfg.Header.MaxLength,
		Ellipsis:  cfg.Header.Ellipsis,
		Simplify:  simplify,
		Filter:    filter,
	})

	unsafe := make(map[string]bool, len(cfg.IncrementalUnsafe))
	for _, lang := range cfg.IncrementalUnsafe {
		unsafe[lang] = true
	}

	return setup{
		cfg:        cfg,
		registry:   reg,
		tokenizers: tokenizers,
		unsafe:     unsafe,
		builder: decoration.NewBuilder(resolver, decoration.Options{
			MinLines:       cfg.MinScopeLines,
			MaxDecorations: cfg.MaxDecorations,
			ControlFlow:    cfg.ControlFlowKeywords,
		}),
	}, nil
}

// Registry exposes the grammars the engine knows.
func (e *Engine) Registry() *grammar.Registry {
	return e.registry
}

func (e *Engine) Config() config.Config {
	return e.cfg
}

func (e *Engine) tokenizer(doc *document.Document) (*scope.Tokenizer, bool) {
	g, ok := e.registry.Lookup(doc.LanguageID)
	if !ok {
		return nil, false
	}
	tz, ok := e.tokenizers[g]
	return tz, ok
}

// Scan parses doc and builds its decorations, reporting why nothing could be
// produced.
func (e *Engine) Scan(doc *document.Document) (*scope.Forest, []decoration.Source, error) {
	tz, ok := e.tokenizer(doc)
	if !ok {
		return &scope.Forest{}, []decoration.Source{}, fmt.Errorf("%w %q", ErrUnknownLanguage, doc.LanguageID)
	}
	g := tz.Grammar()
	f, err := e.cache.Parse(doc, tz, !g.IncrementalUnsafe && !e.unsafe[doc.LanguageID])
	if err != nil {
		return &scope.Forest{}, []decoration.Source{}, err
	}
	if sources, ok := e.cache.Sources(doc.URI, doc.Version); ok {
		return f, sources, nil
	}
	sources := e.builder.Build(doc, g, f)
	if sources == nil {
		sources = []decoration.Source{}
	}
	e.cache.SetSources(doc.URI, doc.Version, sources)
	return f, sources, nil
}

// Parse returns the scope forest of doc. Documents in unknown languages or
// above the size limit give an empty forest.
func (e *Engine) Parse(doc *document.Document) *scope.Forest {
	f, _, _ := e.scanLogged(doc)
	return f
}

// DecorationSources returns the labels for doc, never nil.
func (e *Engine) DecorationSources(doc *document.Document) []decoration.Source {
	_, sources, _ := e.scanLogged(doc)
	return sources
}

func (e *Engine) scanLogged(doc *document.Document) (*scope.Forest, []decoration.Source, error) {
	f, sources, err := e.Scan(doc)
	if err != nil {
		log.Debugf("%s: %s", doc.URI, err)
	}
	return f, sources, err
}

// Open starts tracking doc and publishes its decorations right away.
func (e *Engine) Open(doc *document.Document) {
	e.cache.Remove(doc.URI)
	e.docs[doc.URI] = doc
	e.publish(doc)
}

// OnTextChanged records that doc replaced the previous snapshot of the same
// URI through edits, and schedules a recompute. Pass no edits when the
// change is unknown; the next recompute then parses from scratch.
func (e *Engine) OnTextChanged(doc *document.Document, edits ...document.Edit) {
	if _, known := e.docs[doc.URI]; known && len(edits) > 0 {
		e.cache.NoteEdits(doc.URI, edits...)
	} else {
		e.cache.Remove(doc.URI)
	}
	e.docs[doc.URI] = doc
	uri := doc.URI
	e.sched.Schedule(uri, func() { e.recompute(uri) })
}

// Flush runs the pending recompute for uri now, if there is one.
func (e *Engine) Flush(uri string) bool {
	return e.sched.Flush(uri)
}

func (e *Engine) recompute(uri string) {
	doc, ok := e.docs[uri]
	if !ok {
		return
	}
	e.publish(doc)
}

func (e *Engine) publish(doc *document.Document) {
	sources := e.DecorationSources(doc)
	if e.onUpdate != nil {
		e.onUpdate(doc, sources)
	}
}

// Close forgets uri and every view on it.
func (e *Engine) Close(uri string) {
	e.sched.Cancel(uri)
	e.cache.Remove(uri)
	delete(e.docs, uri)
	for id, v := range e.views {
		if v.URI == uri {
			delete(e.views, id)
		}
	}
}

// Document returns the latest snapshot of uri.
func (e *Engine) Document(uri string) (*document.Document, bool) {
	doc, ok := e.docs[uri]
	return doc, ok
}

// SetFocused gives uri the shorter debounce delay.
func (e *Engine) SetFocused(uri string) {
	e.sched.SetFocused(uri)
}

// OnConfigurationChanged switches to cfg, drops every cached parse and
// schedules a recompute of every open document. If cfg is invalid the
// engine keeps its current configuration and returns the error.
func (e *Engine) OnConfigurationChanged(cfg config.Config) error {
	s, err := e.build(cfg)
	if err != nil {
		return err
	}
	e.setup = s
	e.cache.Invalidate()
	e.cache.SetMaxBytes(cfg.MaxDocumentBytes)
	e.sched.SetDelays(cfg.Debounce(), cfg.FocusedDebounce())
	for uri := range e.docs {
		e.sched.Schedule(uri, func() { e.recompute(uri) })
	}
	log.Infof("configuration changed, %d documents queued", len(e.docs))
	return nil
}

func (e *Engine) ClearCache() {
	e.cache.Invalidate()
}

func (e *Engine) CacheMetrics() cache.Metrics {
	return e.cache.Metrics()
}

// Shutdown cancels pending work and releases every document.
func (e *Engine) Shutdown() {
	e.sched.Stop()
	e.cache.Invalidate()
	clear(e.docs)
	clear(e.views)
}

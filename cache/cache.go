// Package cache keeps one parsed scope forest per open document and updates
// it after edits by reparsing only the innermost scope around the change.
//
// The cache is owned by a single event loop and does no locking of its own.
package cache

import (
	"errors"

	gocache "github.com/patrickmn/go-cache"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/bracketlens/decoration"
	"github.com/dhamidi/bracketlens/document"
	"github.com/dhamidi/bracketlens/scope"
)

var log = commonlog.GetLogger("bracketlens.cache")

var (
	// ErrTooLarge is returned for documents above the size limit. They are
	// never tokenized.
	ErrTooLarge = errors.New("document exceeds size limit")

	// ErrPatchInconsistent means the reported edits do not explain the new
	// text. Incremental parsing is switched off for the document afterwards.
	ErrPatchInconsistent = errors.New("edit does not match document text")

	errNoSplicePoint = errors.New("no scope encloses the edit cleanly")
)

// Metrics are cumulative counters plus the current entry count.
type Metrics struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Size          int   `json:"size"`
	FullParses    int64 `json:"fullParses"`
	Patches       int64 `json:"patches"`
	PatchFailures int64 `json:"patchFailures"`
	Skipped       int64 `json:"skipped"`
}

type entry struct {
	version   int32
	text      string
	tokenizer *scope.Tokenizer
	forest    *scope.Forest
	pending   *document.Edit

	sources      []decoration.Source
	sourcesValid bool
}

type Cache struct {
	store         *gocache.Cache
	maxBytes      int
	noIncremental map[string]bool
	metrics       Metrics
}

// New creates a cache. Documents longer than maxBytes are refused; 0 means
// no limit.
func New(maxBytes int) *Cache {
	return &Cache{
		store:         gocache.New(gocache.NoExpiration, 0),
		maxBytes:      maxBytes,
		noIncremental: make(map[string]bool),
	}
}

// SetMaxBytes changes the size limit. Cached entries are kept.
func (c *Cache) SetMaxBytes(n int) {
	c.maxBytes = n
}

func (c *Cache) get(uri string) *entry {
	v, ok := c.store.Get(uri)
	if !ok {
		return nil
	}
	e, ok := v.(*entry)
	if !ok {
		log.Errorf("wrong entry type for %s", uri)
		c.store.Delete(uri)
		return nil
	}
	return e
}

// NoteEdits records edits made to uri since it was last parsed. Each edit is
// relative to the text left by the one before it.
func (c *Cache) NoteEdits(uri string, edits ...document.Edit) {
	e := c.get(uri)
	if e == nil || len(edits) == 0 {
		return
	}
	env, _ := document.Compose(edits...)
	if e.pending != nil {
		env = e.pending.Then(env)
	}
	e.pending = &env
	e.sourcesValid = false
}

// Parse returns the scope forest of doc, reusing or patching the cached one
// when it can. incremental is false for languages whose scopes cannot be
// patched locally.
func (c *Cache) Parse(doc *document.Document, tz *scope.Tokenizer, incremental bool) (*scope.Forest, error) {
	if c.maxBytes > 0 && doc.Len() > c.maxBytes {
		c.metrics.Skipped++
		c.store.Delete(doc.URI)
		log.Debugf("%s: %d bytes, limit %d, skipping", doc.URI, doc.Len(), c.maxBytes)
		return nil, ErrTooLarge
	}

	e := c.get(doc.URI)
	if e != nil && e.tokenizer == tz && e.version == doc.Version && e.pending == nil {
		c.metrics.Hits++
		return e.forest, nil
	}
	c.metrics.Misses++

	if e != nil && e.tokenizer == tz && e.pending != nil {
		switch {
		case !incremental:
			log.Debugf("%s: incremental parsing disabled for %s", doc.URI, tz.Grammar().Name)
		case c.noIncremental[doc.URI]:
			log.Debugf("%s: incremental parsing disabled after earlier failure", doc.URI)
		default:
			f, err := c.patch(e, doc, tz)
			if err == nil {
				c.metrics.Patches++
				c.put(doc, tz, f)
				return f, nil
			}
			// errNoSplicePoint is routine for top-level edits and leaves
			// patching enabled.
			if errors.Is(err, ErrPatchInconsistent) {
				c.metrics.PatchFailures++
				c.noIncremental[doc.URI] = true
			}
			log.Debugf("%s: %v, reparsing", doc.URI, err)
		}
		c.store.Delete(doc.URI)
	}

	c.metrics.FullParses++
	f := tz.Parse(doc.Text())
	c.put(doc, tz, f)
	return f, nil
}

func (c *Cache) put(doc *document.Document, tz *scope.Tokenizer, f *scope.Forest) {
	c.store.Set(doc.URI, &entry{
		version:   doc.Version,
		text:      doc.Text(),
		tokenizer: tz,
		forest:    f,
	}, gocache.NoExpiration)
}

// patch splices a reparse of the innermost clean enclosing scope into the
// cached forest.
func (c *Cache) patch(e *entry, doc *document.Document, tz *scope.Tokenizer) (*scope.Forest, error) {
	ed := *e.pending
	old, cur := e.text, doc.Text()
	delta := ed.Delta()
	if ed.Start < 0 || ed.Start > ed.OldEnd || ed.OldEnd > len(old) || ed.NewEnd > len(cur) || len(cur)-len(old) != delta {
		return nil, ErrPatchInconsistent
	}
	if old[:ed.Start] != cur[:ed.Start] || old[ed.OldEnd:] != cur[ed.NewEnd:] {
		return nil, ErrPatchInconsistent
	}

	f := e.forest
	var chain []scope.ID
	f.Walk(func(id scope.ID, _ int) bool {
		ent := f.Entry(id)
		start, end := ent.Inner()
		if start > ed.Start || ed.OldEnd > end {
			return false
		}
		if ent.Start.Text != "" && ent.End.Text != "" {
			chain = append(chain, id)
		}
		return true
	})

	for i := len(chain) - 1; i >= 0; i-- {
		id := chain[i]
		ent := f.Entry(id)
		closer := ent.End
		closer.Offset += delta
		sub, clean := tz.ParseInner(cur, ent.Start, closer)
		if !clean {
			continue
		}
		// Enclosing entries keep their line-span verdicts only while this
		// one stays multi-line or its line count is unchanged.
		was := scope.Lines(old, ent.Start.Offset, ent.End.Offset)
		now := scope.Lines(cur, ent.Start.Offset, closer.Offset)
		if now != was && (was == 0 || now == 0) {
			continue
		}
		return f.Splice(id, sub, ed.OldEnd, delta), nil
	}
	return nil, errNoSplicePoint
}

// Sources returns the decorations stored for uri at version.
func (c *Cache) Sources(uri string, version int32) ([]decoration.Source, bool) {
	e := c.get(uri)
	if e == nil || !e.sourcesValid || e.version != version || e.pending != nil {
		return nil, false
	}
	return e.sources, true
}

// SetSources stores decorations computed from the forest cached for uri at
// version. It is a no-op if that forest has been replaced.
func (c *Cache) SetSources(uri string, version int32, sources []decoration.Source) {
	e := c.get(uri)
	if e == nil || e.version != version || e.pending != nil {
		return
	}
	e.sources = sources
	e.sourcesValid = true
}

// InvalidateSources drops every stored decoration list but keeps forests,
// for filter changes that do not affect parsing.
func (c *Cache) InvalidateSources() {
	for _, item := range c.store.Items() {
		if e, ok := item.Object.(*entry); ok {
			e.sources = nil
			e.sourcesValid = false
		}
	}
}

// Remove forgets uri, including an earlier incremental failure.
func (c *Cache) Remove(uri string) {
	c.store.Delete(uri)
	delete(c.noIncremental, uri)
}

// Invalidate drops every entry.
func (c *Cache) Invalidate() {
	c.store.Flush()
	c.noIncremental = make(map[string]bool)
}

func (c *Cache) Metrics() Metrics {
	m := c.metrics
	m.Size = c.store.ItemCount()
	return m
}

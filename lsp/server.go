// Package lsp serves bracketlens decorations to editors over the language
// server protocol.
//
// Besides code lenses, the server pushes a bracketLens/decorations
// notification after every debounced recompute so clients can draw inline
// labels without polling.
package lsp

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/bracketlens/config"
	"github.com/dhamidi/bracketlens/decoration"
	"github.com/dhamidi/bracketlens/document"
	"github.com/dhamidi/bracketlens/lens"
	"github.com/dhamidi/bracketlens/schedule"
)

const lsName = "bracketlens"

// MethodDecorations is the notification carrying a document's labels.
const MethodDecorations = "bracketLens/decorations"

var log = commonlog.GetLogger("bracketlens.lsp")

type Server struct {
	engine     *lens.Engine
	loop       *schedule.Loop
	handler    protocol.Handler
	server     *server.Server
	version    string
	configPath string
	watcher    *config.Watcher
	notify     glsp.NotifyFunc
}

// NewServer builds a server for cfg. configPath, when set, is reloaded on
// change and on workspace/didChangeConfiguration.
func NewServer(cfg config.Config, configPath, version string) (*Server, error) {
	ls := &Server{
		loop:       schedule.NewLoop(),
		version:    version,
		configPath: configPath,
	}
	engine, err := lens.New(cfg,
		lens.WithPoster(ls.loop),
		lens.WithUpdateFunc(ls.publish),
	)
	if err != nil {
		return nil, err
	}
	ls.engine = engine

	ls.handler = protocol.Handler{
		Initialize:                      ls.initialize,
		Initialized:                     ls.initialized,
		Shutdown:                        ls.shutdown,
		SetTrace:                        ls.setTrace,
		TextDocumentDidOpen:             ls.textDocumentDidOpen,
		TextDocumentDidChange:           ls.textDocumentDidChange,
		TextDocumentDidClose:            ls.textDocumentDidClose,
		TextDocumentDidSave:             ls.textDocumentDidSave,
		TextDocumentCodeLens:            ls.textDocumentCodeLens,
		WorkspaceDidChangeConfiguration: ls.workspaceDidChangeConfiguration,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls, nil
}

// RunStdio serves on stdin/stdout until the client disconnects.
func (ls *Server) RunStdio() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ls.loop.Run(ctx)
	defer ls.stopWatching()
	return ls.server.RunStdio()
}

// do runs fn on the engine's loop.
func (ls *Server) do(fn func()) error {
	return ls.loop.Do(context.Background(), fn)
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindIncremental),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}
	capabilities.CodeLensProvider = &protocol.CodeLensOptions{
		ResolveProvider: boolPtr(false),
	}

	err := ls.do(func() { ls.notify = ctx.Notify })
	if err != nil {
		return nil, err
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if ls.configPath == "" {
		return nil
	}
	w, err := config.Watch(ls.configPath, ls.engine.Config().Debounce(), func(cfg config.Config) {
		ls.loop.Post(func() { ls.applyConfig(cfg) })
	})
	if err != nil {
		log.Warningf("not watching %s: %s", ls.configPath, err)
		return nil
	}
	ls.watcher = w
	return nil
}

func (ls *Server) stopWatching() {
	if ls.watcher != nil {
		ls.watcher.Stop()
		ls.watcher = nil
	}
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	ls.stopWatching()
	return ls.do(ls.engine.Shutdown)
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) applyConfig(cfg config.Config) {
	if err := ls.engine.OnConfigurationChanged(cfg); err != nil {
		log.Errorf("configuration rejected: %s", err)
	}
}

func (ls *Server) workspaceDidChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	if ls.configPath == "" {
		return nil
	}
	cfg, err := config.Load(ls.configPath)
	if err != nil {
		log.Errorf("reload %s: %s", ls.configPath, err)
		return nil
	}
	return ls.do(func() { ls.applyConfig(cfg) })
}

// languageFor prefers the client's language id and falls back to the file
// extension when no grammar knows that id.
func (ls *Server) languageFor(uri, languageID string) string {
	if _, ok := ls.engine.Registry().Lookup(languageID); ok {
		return languageID
	}
	path, err := uriToPath(uri)
	if err != nil {
		return languageID
	}
	if lang := ls.engine.Registry().LanguageForFile(path); lang != "" {
		return lang
	}
	return languageID
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument
	uri := string(item.URI)
	return ls.do(func() {
		doc := document.New(uri, ls.languageFor(uri, item.LanguageID), item.Version, item.Text)
		ls.engine.SetFocused(uri)
		ls.engine.Open(doc)
	})
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	version := params.TextDocument.Version
	return ls.do(func() {
		doc, ok := ls.engine.Document(uri)
		if !ok {
			log.Debugf("change for unopened document %s", uri)
			return
		}
		doc, edits := applyChanges(doc, version, params.ContentChanges)
		ls.engine.SetFocused(uri)
		ls.engine.OnTextChanged(doc, edits...)
	})
}

// applyChanges applies LSP content changes in order. Whole-document
// replacements are diffed against the previous text so the result still
// carries edit ranges.
func applyChanges(doc *document.Document, version int32, changes []any) (*document.Document, []document.Edit) {
	var edits []document.Edit
	for _, change := range changes {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			start := doc.OffsetFromUTF16(fromProtocol(c.Range.Start))
			end := doc.OffsetFromUTF16(fromProtocol(c.Range.End))
			var es []document.Edit
			doc, es = doc.Apply(version, document.Change{Start: start, End: end, Text: c.Text})
			edits = append(edits, es...)
		case protocol.TextDocumentContentChangeEventWhole:
			edits = append(edits, document.Diff(doc.Text(), c.Text)...)
			doc = doc.Replace(version, c.Text)
		}
	}
	if doc.Version != version {
		doc = doc.Replace(version, doc.Text())
	}
	return doc, edits
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	return ls.do(func() { ls.engine.Close(uri) })
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text == nil {
		return nil
	}
	uri := string(params.TextDocument.URI)
	text := *params.Text
	return ls.do(func() {
		doc, ok := ls.engine.Document(uri)
		if !ok || doc.Text() == text {
			return
		}
		log.Debugf("%s: saved text differs from tracked text", uri)
		ls.engine.OnTextChanged(doc.Replace(doc.Version, text), document.Diff(doc.Text(), text)...)
	})
}

func (ls *Server) textDocumentCodeLens(ctx *glsp.Context, params *protocol.CodeLensParams) ([]protocol.CodeLens, error) {
	uri := string(params.TextDocument.URI)
	var lenses []protocol.CodeLens
	err := ls.do(func() {
		ls.engine.Flush(uri)
		doc, ok := ls.engine.Document(uri)
		if !ok {
			return
		}
		for _, src := range ls.engine.DecorationSources(doc) {
			pos := toProtocol(doc.UTF16Position(src.Anchor))
			lenses = append(lenses, protocol.CodeLens{
				Range:   protocol.Range{Start: pos, End: pos},
				Command: &protocol.Command{Title: src.Label},
			})
		}
	})
	return lenses, err
}

// Decoration is one label in a bracketLens/decorations notification.
type Decoration struct {
	Position  protocol.Position `json:"position"`
	Label     string            `json:"label"`
	Unmatched bool              `json:"unmatched,omitempty"`
}

type DecorationsParams struct {
	URI         string       `json:"uri"`
	Version     int32        `json:"version"`
	Decorations []Decoration `json:"decorations"`
}

// publish runs on the loop after each recompute.
func (ls *Server) publish(doc *document.Document, sources []decoration.Source) {
	if ls.notify == nil {
		return
	}
	ls.notify(MethodDecorations, decorationsParams(doc, sources))
}

func decorationsParams(doc *document.Document, sources []decoration.Source) DecorationsParams {
	params := DecorationsParams{
		URI:         doc.URI,
		Version:     doc.Version,
		Decorations: make([]Decoration, 0, len(sources)),
	}
	for _, src := range sources {
		params.Decorations = append(params.Decorations, Decoration{
			Position:  toProtocol(doc.UTF16Position(src.Anchor)),
			Label:     src.Label,
			Unmatched: src.Unmatched,
		})
	}
	return params
}

func fromProtocol(p protocol.Position) document.Position {
	return document.Position{Line: int(p.Line), Column: int(p.Character)}
}

func toProtocol(p document.Position) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(p.Line), Character: protocol.UInteger(p.Column)}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}

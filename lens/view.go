package lens

import (
	"github.com/google/uuid"

	"github.com/dhamidi/bracketlens/decoration"
)

// View is one editor pane showing a document. Views of the same document
// share its parse; muting a view hides labels in that view only.
type View struct {
	ID    string
	URI   string
	Muted bool
}

// OpenView registers a view on uri and returns its id.
func (e *Engine) OpenView(uri string) string {
	id := uuid.NewString()
	e.views[id] = &View{ID: id, URI: uri}
	return id
}

func (e *Engine) CloseView(id string) {
	delete(e.views, id)
}

// SetMuted reports false for an unknown view.
func (e *Engine) SetMuted(id string, muted bool) bool {
	v, ok := e.views[id]
	if !ok {
		return false
	}
	v.Muted = muted
	return true
}

func (e *Engine) View(id string) (View, bool) {
	v, ok := e.views[id]
	if !ok {
		return View{}, false
	}
	return *v, true
}

// ViewSources returns what view id should display: nothing when muted or
// when its document is not open.
func (e *Engine) ViewSources(id string) []decoration.Source {
	v, ok := e.views[id]
	if !ok || v.Muted {
		return []decoration.Source{}
	}
	doc, ok := e.docs[v.URI]
	if !ok {
		return []decoration.Source{}
	}
	return e.DecorationSources(doc)
}

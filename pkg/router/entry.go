package router

import (
	"maps"

	"github.com/vango-dev/navrouter/pkg/match"
)

// Renderer produces a route's view payload from its captured params.
type Renderer func(params match.Params) any

// Target computes a redirect destination from the active path that matched.
type Target func(activePath string) string

// Entry is one registered route: a path spec plus either a renderer or a
// redirect target. An entry with a non-nil Redirect is a redirect.
type Entry struct {
	// ID is an optional stable identifier for consumer-side reconciliation.
	ID string

	Path     match.Path
	Render   Renderer
	Redirect Target
}

// Route creates a terminal entry rendered from its params.
func Route(path match.Path, render Renderer) Entry {
	return Entry{Path: path, Render: render}
}

// Static creates a terminal entry with a fixed payload.
func Static(path match.Path, payload any) Entry {
	return Entry{
		Path:   path,
		Render: func(match.Params) any { return payload },
	}
}

// Redirect creates an entry that redirects to a fixed destination.
func Redirect(path match.Path, to string) Entry {
	return Entry{
		Path:     path,
		Redirect: func(string) string { return to },
	}
}

// RedirectFunc creates an entry whose destination is computed from the
// matched active path.
func RedirectFunc(path match.Path, to Target) Entry {
	return Entry{Path: path, Redirect: to}
}

// WithID returns a copy of e with the given identifier.
func (e Entry) WithID(id string) Entry {
	e.ID = id
	return e
}

// IsRedirect reports whether e is a redirect entry.
func (e Entry) IsRedirect() bool {
	return e.Redirect != nil
}

// Selection is the result of a successful resolution.
type Selection struct {
	// Entry is the terminal entry that matched.
	Entry Entry

	// Index is the entry's position in the resolved route list.
	Index int

	// Params are the captures of the final match.
	Params match.Params

	// ActivePath is the path the entry matched, after any redirects.
	ActivePath string

	// Hops is the number of redirects followed to reach the entry.
	Hops int
}

// Payload renders the selected entry. It returns nil for a nil selection
// or an entry without a renderer. The renderer receives its own copy of the
// params.
func (s *Selection) Payload() any {
	if s == nil || s.Entry.Render == nil {
		return nil
	}
	return s.Entry.Render(maps.Clone(s.Params))
}

// Package history abstracts the host's session history: the current
// location, push and replace of history entries, and the notification
// fired when the location changes without the router asking for it
// (back/forward navigation).
//
// Two hosts are provided. Memory keeps the entry stack in process and is
// what tests and headless tools use. Remote mirrors a browser tab over a
// WebSocket: a thin client reports popstate events and link clicks, and
// history mutations are sent back as frames.
//
// As in a browser, PushState and ReplaceState do not fire pop-state
// listeners. Only Back/Forward (Memory) or a client popstate frame (Remote)
// do.
package history

import (
	"net/url"
	"slices"
	"sync"
)

// History is the host navigation facility a router drives.
type History interface {
	// Location returns the current absolute location.
	Location() *url.URL

	// BaseURI returns the URL relative hrefs are resolved against.
	BaseURI() *url.URL

	// PushState appends a new entry for href and makes it current.
	PushState(href string) error

	// ReplaceState overwrites the current entry with href.
	ReplaceState(href string) error

	// OnPopState registers a location-changed listener and returns a
	// function that removes it.
	OnPopState(fn func()) (remove func())
}

// OpKind is the kind of a recorded history mutation.
type OpKind string

const (
	OpPush    OpKind = "push"
	OpReplace OpKind = "replace"
	OpPop     OpKind = "pop"
)

// Op is one recorded history mutation.
type Op struct {
	Kind OpKind `json:"kind"`
	URL  string `json:"url"`
}

// Resolve resolves href against base the way a browser resolves an anchor.
func Resolve(base *url.URL, href string) (*url.URL, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return ref, nil
	}
	return base.ResolveReference(ref), nil
}

// listeners is an ordered, removable list of callbacks.
type listeners[F any] struct {
	mu     sync.Mutex
	nextID uint64
	items  []listenerEntry[F]
}

type listenerEntry[F any] struct {
	id uint64
	fn F
}

func (l *listeners[F]) add(fn F) func() {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.items = append(l.items, listenerEntry[F]{id: id, fn: fn})
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.items = slices.DeleteFunc(l.items, func(e listenerEntry[F]) bool {
			return e.id == id
		})
	}
}

func (l *listeners[F]) snapshot() []F {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]F, len(l.items))
	for i, e := range l.items {
		out[i] = e.fn
	}
	return out
}

func (l *listeners[F]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}

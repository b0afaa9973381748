package router

import (
	"github.com/vango-dev/navrouter/internal/errors"
)

// MouseEvent is the part of a click event the link helper inspects.
type MouseEvent struct {
	Button   int
	Which    int
	CtrlKey  bool
	ShiftKey bool
	AltKey   bool
	MetaKey  bool

	defaultPrevented bool
}

// PreventDefault suppresses the host's native handling of the click.
func (e *MouseEvent) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *MouseEvent) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Native reports whether the click asks the host to handle it itself: a
// middle-button click, or one with a modifier that opens a new tab or
// window.
func (e *MouseEvent) Native() bool {
	if e.CtrlKey || e.MetaKey || e.ShiftKey || e.AltKey {
		return true
	}
	return e.Which == 2 || e.Button == 1
}

// Link is an href plus the click handler to bind next to it.
type Link struct {
	Href    string
	OnClick func(ev *MouseEvent)
}

// HrefOption configures Href.
type HrefOption func(*hrefOptions)

type hrefOptions struct {
	router *Router
	hook   func(ev *MouseEvent) bool
}

// WithRouter binds the link to r instead of the default router.
func WithRouter(r *Router) HrefOption {
	return func(o *hrefOptions) {
		o.router = r
	}
}

// OnClickHook runs fn on every intercepted click before navigating.
// Returning false cancels the navigation.
func OnClickHook(fn func(ev *MouseEvent) bool) HrefOption {
	return func(o *hrefOptions) {
		o.hook = fn
	}
}

// Href returns a Link that navigates to target through a router.
//
// On click, native clicks (see MouseEvent.Native) are left alone: no
// PreventDefault, no navigation. A click is native when Ctrl, Meta, Shift
// or Alt is held, or when it is a middle click, so Shift-click (new window)
// and Alt-click (download) are handled by the browser and never routed. Any other click is prevented, passed to the
// hook if one is set, and then pushed unless the hook returned false.
//
// The router is the one given with WithRouter, else Default(). When neither
// exists Href panics with ErrRouterUndefined. Builds tagged
// navrouter_production relax this: the returned Link still prevents the
// default action and runs the hook, but navigation is silently skipped.
func Href(target string, opts ...HrefOption) Link {
	var o hrefOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := o.router
	if r == nil {
		r = Default()
	}
	if r == nil && !productionBuild {
		panic(errors.New(errors.CodeRouterUndefined).
			WithDetailf("href %q", target))
	}

	return Link{
		Href: target,
		OnClick: func(ev *MouseEvent) {
			if ev.Native() {
				return
			}
			ev.PreventDefault()
			if o.hook != nil && !o.hook(ev) {
				return
			}
			if r == nil {
				return
			}
			if err := r.Push(target); err != nil {
				r.logger.Warn("link navigation failed", "href", target, "error", err)
			}
		},
	}
}

// Href returns a Link bound to r.
func (r *Router) Href(target string, opts ...HrefOption) Link {
	return Href(target, append([]HrefOption{WithRouter(r)}, opts...)...)
}

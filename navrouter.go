// Package navrouter provides the public API for client-side navigation
// routing.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/navrouter"
//
// Usage:
//
//	r := navrouter.New(navrouter.WithHistory(h))
//	view := r.Switch(
//	    navrouter.Static(navrouter.Exact("/"), home),
//	    navrouter.Route(navrouter.MustTemplate("/users/:id"), userPage),
//	    navrouter.Redirect(navrouter.Exact("/old"), "/"),
//	)
//	link := navrouter.Href("/users/42")
package navrouter

import (
	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/match"
	"github.com/vango-dev/navrouter/pkg/routepath"
	"github.com/vango-dev/navrouter/pkg/router"
)

// =============================================================================
// Router (re-export from pkg/router)
// =============================================================================

// Router resolves an ordered route list against the current location.
type Router = router.Router

// Option configures a Router.
type Option = router.Option

// New creates a router and makes it the default unless WithoutDefault is
// given.
var New = router.New

// Default returns the process-wide default router, or nil.
var Default = router.Default

// Router options.
var (
	WithHistory      = router.WithHistory
	WithParseURL     = router.WithParseURL
	WithSerializeURL = router.WithSerializeURL
	WithLogger       = router.WithLogger
	WithMaxRedirects = router.WithMaxRedirects
	WithMetrics      = router.WithMetrics
	WithTracer       = router.WithTracer
	WithoutDefault   = router.WithoutDefault
)

// Metrics reports router activity to Prometheus.
type Metrics = router.Metrics

// NewMetrics registers router metrics.
var NewMetrics = router.NewMetrics

// =============================================================================
// Routes
// =============================================================================

// Entry is one route in a route list.
type Entry = router.Entry

// Selection is the result of a successful resolution.
type Selection = router.Selection

// Route builders.
var (
	Route        = router.Route
	Static       = router.Static
	Redirect     = router.Redirect
	RedirectFunc = router.RedirectFunc
)

// =============================================================================
// Navigation
// =============================================================================

// NavigateOption configures Router.Push.
type NavigateOption = router.NavigateOption

// WithReplace replaces the current history entry instead of pushing.
var WithReplace = router.WithReplace

// WithParams adds query parameters to the navigation target.
var WithParams = router.WithParams

// Link is an href plus its click handler.
type Link = router.Link

// MouseEvent is a click on a Link.
type MouseEvent = router.MouseEvent

// HrefOption configures Href.
type HrefOption = router.HrefOption

// Href returns a Link that navigates through the default router.
//
// Example:
//
//	link := navrouter.Href("/settings", navrouter.OnClickHook(confirmLeave))
var Href = router.Href

// Link options.
var (
	WithRouter  = router.WithRouter
	OnClickHook = router.OnClickHook
)

// =============================================================================
// Path matching (re-export from pkg/match)
// =============================================================================

// Params are the parameters captured by a match.
type Params = match.Params

// Path is a route path matcher.
type Path = match.Path

// Exact matches one pathname by string equality.
type Exact = match.Exact

// Predicate matches with arbitrary code.
type Predicate = match.Predicate

// Matchers.
var (
	Compile      = match.Compile
	MustCompile  = match.MustCompile
	NewTemplate  = match.NewTemplate
	MustTemplate = match.MustTemplate
	NewGlob      = match.NewGlob
	MustGlob     = match.MustGlob
	Func         = match.Func
	Global       = match.Global
	IgnoreCase   = match.IgnoreCase
)

// =============================================================================
// History and URL parsing
// =============================================================================

// History is the host navigation facility a router drives.
type History = history.History

// NewMemory creates an in-memory history at an absolute URL.
var NewMemory = history.NewMemory

// Parse functions for WithParseURL.
var (
	LowerPath          = routepath.LowerPath
	ExactPath          = routepath.ExactPath
	CanonicalLowerPath = routepath.CanonicalLowerPath
)

// Errors matched with errors.Is.
var (
	ErrRouterUndefined = router.ErrRouterUndefined
	ErrRedirectCycle   = router.ErrRedirectCycle
	ErrRedirectLimit   = router.ErrRedirectLimit
	ErrDisposed        = router.ErrDisposed
	ErrUnknownField    = router.ErrUnknownField
	ErrHistory         = router.ErrHistory
)

package router

import "sync"

var (
	defaultMu     sync.Mutex
	defaultRouter *Router
)

// Default returns the router most recently constructed without
// WithoutDefault, or nil if it has been disposed.
func Default() *Router {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultRouter
}

func setDefault(r *Router) {
	defaultMu.Lock()
	defaultRouter = r
	defaultMu.Unlock()
}

// clearDefault empties the slot if r still owns it.
func clearDefault(r *Router) {
	defaultMu.Lock()
	if defaultRouter == r {
		defaultRouter = nil
	}
	defaultMu.Unlock()
}

// Package router maps the current location to one route out of an ordered
// list and keeps reactive router state in sync with history.
//
// The router provides:
//   - Ordered, first-match-wins resolution over heterogeneous path specs
//   - Redirect entries followed with history replace, guarded against cycles
//   - Synchronous state propagation through a reactive store
//   - Link helpers that turn clicks into pushes
//
// # State
//
// A Router owns four store fields:
//
//	url         current absolute location (compared by String())
//	activePath  parse(url); the string routes are matched against
//	routes      the last registered route list
//	selection   result of the most recent resolution, nil when nothing matched
//
// Writing activePath or routes re-resolves the registered routes inline and
// publishes the result into selection. All of this happens before the write
// returns.
//
// # Usage
//
//	r := router.New(router.WithHistory(h))
//	defer r.Dispose()
//
//	view := r.Switch(
//	    router.Static(match.Exact("/"), homePage),
//	    router.Route(match.MustTemplate("/users/:id"), func(p match.Params) any {
//	        return userPage(p["id"])
//	    }),
//	    router.Redirect(match.Exact("/old"), "/"),
//	    router.Static(match.Func(func(string) bool { return true }), notFound),
//	)
//
// There is no implicit not-found route. Register a catch-all last if one is
// needed.
//
// # Threading
//
// A Router is meant to be driven from one goroutine: the one calling Push
// and the one delivering pop-state notifications must be the same. Store
// reads are safe from other goroutines.
//
// # Default router
//
// New records the router in a process-wide slot so that Href call sites
// need not carry a router. The slot assumes a single active router; Dispose
// clears it only if the disposing router still owns it. Pass WithRouter to
// Href, or WithoutDefault to New, when several routers coexist.
package router

// Package errors provides the coded errors reported by navrouter.
//
// Every failure a caller may need to tell apart carries a short code
// (e.g. "N002") that maps to:
//   - a category (config, navigation, runtime, manifest, protocol, cli)
//   - a one-line message and a longer explanation
//   - a documentation URL
//
// # Usage
//
//	err := errors.New(errors.CodeRedirectCycle).
//	    WithDetail("/a -> /b -> /a").
//	    WithSuggestion("Remove one of the redirects or point it at a terminal route")
//
//	fmt.Println(err.Format())
//	// ERROR N002: Redirect cycle detected
//	//
//	//   /a -> /b -> /a
//	//
//	//   Hint: Remove one of the redirects or point it at a terminal route
//	//
//	//   Learn more: https://vango.dev/docs/navrouter/errors/N002
//
// Two errors with the same code match under errors.Is, so package-level
// sentinels built with New can be compared against errors returned deep in
// the call stack:
//
//	if errors.Is(err, router.ErrRedirectCycle) { ... }
package errors

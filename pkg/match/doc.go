// Package match decides whether a pathname satisfies a route path
// and extracts the captured parameters.
//
// A Path is one of:
//
//	match.Exact("/about")                         // string equality, no captures
//	match.Predicate(func(p string) (Params, bool)) // arbitrary code
//	match.MustCompile(`^/users/(?<id>\d+)$`)       // pattern with named captures
//	match.MustGlob("/docs/**")                    // glob, no captures
//	match.MustTemplate("/users/:id/*rest")        // segment template
//
// Match never folds case or trims input; deriving a comparable pathname
// from a URL is the job of a routepath.ParseFunc.
//
// Every successful Match returns a fresh Params map owned by the caller.
// Pattern keeps a JavaScript-style scan position when compiled with Global;
// Match always rewinds it, so one Pattern can be shared by a route table
// that is resolved over and over.
package match

// Package routepath derives the string a router matches against from a URL,
// and canonicalizes navigation targets.
package routepath

import (
	"net/url"
	"strings"
)

// ParseFunc derives the active path from an absolute URL.
type ParseFunc func(u *url.URL) string

// SerializeFunc turns a path back into an absolute URL.
type SerializeFunc func(path string) *url.URL

// LowerPath returns the lower-cased path component. It is the default
// ParseFunc.
func LowerPath(u *url.URL) string {
	if u == nil {
		return ""
	}
	return strings.ToLower(u.Path)
}

// ExactPath returns the path component unchanged.
func ExactPath(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Path
}

// CanonicalLowerPath canonicalizes the path component and lower-cases it.
// Paths that fail canonicalization fall back to LowerPath.
func CanonicalLowerPath(u *url.URL) string {
	if u == nil {
		return ""
	}
	c, err := CanonicalizePath(u.EscapedPath())
	if err != nil {
		return LowerPath(u)
	}
	p, err := url.PathUnescape(c.Path)
	if err != nil {
		return LowerPath(u)
	}
	return strings.ToLower(p)
}

// ResolveAgainst returns a SerializeFunc that resolves paths relative to
// base.
func ResolveAgainst(base *url.URL) SerializeFunc {
	return func(path string) *url.URL {
		ref, err := url.Parse(path)
		if err != nil {
			return base
		}
		return base.ResolveReference(ref)
	}
}

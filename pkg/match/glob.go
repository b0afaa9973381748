package match

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Glob matches pathnames against a shell-style pattern. A single "*" does
// not cross "/" while "**" does. Globs capture nothing.
type Glob struct {
	g    glob.Glob
	expr string
}

// NewGlob compiles a glob pattern with "/" as the separator.
func NewGlob(pattern string) (*Glob, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("match: glob %q: %w", pattern, err)
	}
	return &Glob{g: g, expr: pattern}, nil
}

// MustGlob is like NewGlob but panics on error.
func MustGlob(pattern string) *Glob {
	g, err := NewGlob(pattern)
	if err != nil {
		panic(err)
	}
	return g
}

// Match implements Path.
func (g *Glob) Match(pathname string) (Params, bool) {
	if !g.g.Match(pathname) {
		return nil, false
	}
	return Params{}, true
}

// String returns the source pattern.
func (g *Glob) String() string {
	return g.expr
}

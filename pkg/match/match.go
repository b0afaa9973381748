package match

// Params are the parameters captured by a successful match.
type Params map[string]string

// Clone returns a copy of p. The copy of a nil map is an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Path is a route path matcher.
type Path interface {
	// Match reports whether pathname satisfies the path and returns
	// the captured parameters. The returned map is never shared with the
	// Path or with earlier results.
	Match(pathname string) (Params, bool)
}

// Match applies path to pathname. A nil path never matches.
func Match(pathname string, path Path) (Params, bool) {
	if path == nil {
		return nil, false
	}
	return path.Match(pathname)
}

// Exact matches one pathname by string equality.
type Exact string

// Match implements Path.
func (e Exact) Match(pathname string) (Params, bool) {
	if pathname != string(e) {
		return nil, false
	}
	return Params{}, true
}

// String returns the pathname.
func (e Exact) String() string {
	return string(e)
}

// Predicate matches with arbitrary code. Returning false means no match.
// Returning true with nil params is a match without captures. Returning
// true with params is a match whose params are copied before being handed
// out, so predicates may return a shared map.
type Predicate func(pathname string) (Params, bool)

// Match implements Path.
func (fn Predicate) Match(pathname string) (Params, bool) {
	if fn == nil {
		return nil, false
	}
	params, ok := fn(pathname)
	if !ok {
		return nil, false
	}
	return params.Clone(), true
}

// Func adapts a boolean test to a Predicate.
func Func(test func(pathname string) bool) Predicate {
	return func(pathname string) (Params, bool) {
		return nil, test(pathname)
	}
}

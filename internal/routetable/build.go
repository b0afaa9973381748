package routetable

import (
	"strings"

	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/match"
	"github.com/vango-dev/navrouter/pkg/router"
)

// Build compiles the manifest into router entries, in manifest order.
// Render entries produce their render string with params substituted.
func (m *Manifest) Build() ([]router.Entry, error) {
	entries := make([]router.Entry, 0, len(m.Routes))
	for i, spec := range m.Routes {
		p, err := spec.compile()
		if err != nil {
			return nil, errors.New(errors.CodeManifestInvalid).
				WithDetailf("route %s", spec.Label(i)).
				Wrap(err)
		}

		var entry router.Entry
		if spec.Redirect != "" {
			entry = router.RedirectFunc(p, redirectTarget(p, spec.Redirect))
		} else {
			render := spec.Render
			entry = router.Route(p, func(params match.Params) any {
				return Interpolate(render, params)
			})
		}
		entries = append(entries, entry.WithID(spec.ID))
	}
	return entries, nil
}

func (s RouteSpec) compile() (match.Path, error) {
	switch {
	case s.Path != "":
		return match.Exact(s.Path), nil
	case s.Pattern != "":
		var opts []match.PatternOption
		if s.Global {
			opts = append(opts, match.Global())
		}
		if s.IgnoreCase {
			opts = append(opts, match.IgnoreCase())
		}
		return match.Compile(s.Pattern, opts...)
	case s.Glob != "":
		return match.NewGlob(s.Glob)
	default:
		return match.NewTemplate(s.Template)
	}
}

// redirectTarget re-matches the active path to recover the params the
// redirect string refers to. Targets without placeholders skip the match.
func redirectTarget(p match.Path, target string) router.Target {
	if !strings.Contains(target, "{") {
		return func(string) string { return target }
	}
	return func(activePath string) string {
		params, _ := match.Match(activePath, p)
		return Interpolate(target, params)
	}
}

// Interpolate replaces each {name} in s with params[name]. Names without a
// param are left as written.
func Interpolate(s string, params match.Params) string {
	if len(params) == 0 || !strings.Contains(s, "{") {
		return s
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

package match

import (
	"fmt"
	"strings"
)

type segmentKind uint8

const (
	segmentStatic segmentKind = iota
	segmentParam
	segmentCatchAll
)

type segment struct {
	kind  segmentKind
	value string // literal text or parameter name
}

// Template matches pathnames segment by segment:
//
//	/projects/:id        → id captures one segment
//	/files/*path         → path captures the remaining segments (at least one)
//
// Leading and trailing slashes are ignored on both sides, so "/a/" and "/a"
// are the same pathname to a Template.
type Template struct {
	expr     string
	segments []segment
}

// NewTemplate parses a template. A catch-all must be the last segment and
// parameter names must be unique.
func NewTemplate(expr string) (*Template, error) {
	parts := splitPath(expr)
	segments := make([]segment, 0, len(parts))
	seen := make(map[string]bool)

	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, "*"):
			if i != len(parts)-1 {
				return nil, fmt.Errorf("match: template %q: catch-all %q must be last", expr, part)
			}
			segments = append(segments, segment{kind: segmentCatchAll, value: paramName(part)})
		case strings.HasPrefix(part, ":"):
			segments = append(segments, segment{kind: segmentParam, value: paramName(part)})
		default:
			segments = append(segments, segment{kind: segmentStatic, value: part})
			continue
		}

		name := segments[len(segments)-1].value
		if name == "" {
			return nil, fmt.Errorf("match: template %q: empty parameter name", expr)
		}
		if seen[name] {
			return nil, fmt.Errorf("match: template %q: duplicate parameter %q", expr, name)
		}
		seen[name] = true
	}

	return &Template{expr: expr, segments: segments}, nil
}

// MustTemplate is like NewTemplate but panics on error.
func MustTemplate(expr string) *Template {
	t, err := NewTemplate(expr)
	if err != nil {
		panic(err)
	}
	return t
}

// Match implements Path.
func (t *Template) Match(pathname string) (Params, bool) {
	parts := splitPath(pathname)
	params := Params{}

	for i, seg := range t.segments {
		switch seg.kind {
		case segmentCatchAll:
			if i >= len(parts) {
				return nil, false
			}
			params[seg.value] = strings.Join(parts[i:], "/")
			return params, true
		case segmentParam:
			if i >= len(parts) || parts[i] == "" {
				return nil, false
			}
			params[seg.value] = parts[i]
		default:
			if i >= len(parts) || parts[i] != seg.value {
				return nil, false
			}
		}
	}

	if len(parts) != len(t.segments) {
		return nil, false
	}
	return params, true
}

// String returns the source template.
func (t *Template) String() string {
	return t.expr
}

// splitPath splits a path into segments.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// paramName strips the ":" or "*" prefix and an optional ":type" suffix
// (":id:int" → "id").
func paramName(seg string) string {
	seg = seg[1:]
	if idx := strings.Index(seg, ":"); idx != -1 {
		return seg[:idx]
	}
	return seg
}

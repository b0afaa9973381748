package routepath

import (
	"errors"
	"strings"
)

// Canonical is the result of canonicalizing a path.
type Canonical struct {
	// Path is the canonical path, without query string.
	Path string

	// Query is the raw query string without the leading "?".
	Query string

	// Changed reports whether Path differs from the input path.
	Changed bool
}

// Canonicalization errors.
var (
	ErrInvalidPath          = errors.New("routepath: invalid path")
	ErrBackslashInPath      = errors.New("routepath: path contains backslash")
	ErrNullByteInPath       = errors.New("routepath: path contains null byte")
	ErrInvalidPercentEscape = errors.New("routepath: invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("routepath: path escapes root via ..")
)

// CanonicalizePath normalizes a path:
//   - a missing leading "/" is added
//   - repeated slashes collapse (/blog//post → /blog/post)
//   - "." segments are dropped and ".." segments resolved
//   - a trailing slash is removed, except for the root
//
// Backslashes, NUL bytes (literal or %00), malformed percent escapes and
// ".." segments that climb above the root are rejected. A query string is
// split off and returned untouched.
func CanonicalizePath(input string) (Canonical, error) {
	if input == "" {
		return Canonical{Path: "/", Changed: true}, nil
	}

	path, query, _ := strings.Cut(input, "?")

	if strings.Contains(path, "\\") {
		return Canonical{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Canonical{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Canonical{}, err
		}
	}

	original := path

	var kept []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(kept) == 0 {
				return Canonical{}, ErrPathEscapesRoot
			}
			kept = kept[:len(kept)-1]
		default:
			kept = append(kept, seg)
		}
	}

	path = "/" + strings.Join(kept, "/")

	return Canonical{
		Path:    path,
		Query:   query,
		Changed: path != original,
	}, nil
}

// ValidateNavPath checks a navigation target received from an untrusted
// client. Targets must be rooted relative paths; absolute and
// protocol-relative URLs are rejected. The canonical path is returned with
// its query string.
func ValidateNavPath(target string) (string, error) {
	if strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "//") ||
		!strings.HasPrefix(target, "/") {
		return "", ErrInvalidPath
	}

	c, err := CanonicalizePath(target)
	if err != nil {
		return "", err
	}
	if c.Query != "" {
		return c.Path + "?" + c.Query, nil
	}
	return c.Path, nil
}

// validatePercentEscapes requires every "%" to start a two-digit hex escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Package routetable loads route manifests and turns them into router
// entries.
//
// A manifest lists routes in priority order:
//
//	routes:
//	  - id: home
//	    path: /
//	    render: Home
//	  - id: user
//	    template: /users/:id
//	    render: "User {id}"
//	  - pattern: ^/legacy/(?<rest>.*)$
//	    redirect: /v2/{rest}
//	  - glob: /docs/**
//	    render: Docs
//
// Each route has exactly one matcher (path, pattern, glob or template) and
// exactly one of render or redirect. Braced names in render and redirect
// strings are replaced with the route's captured params.
//
// Manifests are JSON, YAML or TOML, chosen by file extension, and are read
// from disk or from S3.
package routetable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/navrouter/internal/errors"
)

// Format is a manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromName picks the format from a file name or object key.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.CodeManifestFormat).WithDetailf("%q", name)
}

// Manifest is a decoded route manifest.
type Manifest struct {
	Routes []RouteSpec `json:"routes" yaml:"routes" toml:"routes"`
}

// RouteSpec is one manifest route.
type RouteSpec struct {
	ID string `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`

	// Matchers; exactly one is set.
	Path     string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Pattern  string `json:"pattern,omitempty" yaml:"pattern,omitempty" toml:"pattern,omitempty"`
	Glob     string `json:"glob,omitempty" yaml:"glob,omitempty" toml:"glob,omitempty"`
	Template string `json:"template,omitempty" yaml:"template,omitempty" toml:"template,omitempty"`

	// Pattern flags.
	Global     bool `json:"global,omitempty" yaml:"global,omitempty" toml:"global,omitempty"`
	IgnoreCase bool `json:"ignoreCase,omitempty" yaml:"ignoreCase,omitempty" toml:"ignoreCase,omitempty"`

	// Outcomes; exactly one is set.
	Render   string `json:"render,omitempty" yaml:"render,omitempty" toml:"render,omitempty"`
	Redirect string `json:"redirect,omitempty" yaml:"redirect,omitempty" toml:"redirect,omitempty"`
}

// Matcher returns the kind and source of the route's matcher.
func (s RouteSpec) Matcher() (kind, source string) {
	switch {
	case s.Path != "":
		return "path", s.Path
	case s.Pattern != "":
		return "pattern", s.Pattern
	case s.Glob != "":
		return "glob", s.Glob
	case s.Template != "":
		return "template", s.Template
	}
	return "", ""
}

// Label names the route in messages: its ID, or its position.
func (s RouteSpec) Label(index int) string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("#%d", index)
}

// Decode parses a manifest.
func Decode(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	var err error

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&m)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&m)
	case FormatTOML:
		var meta toml.MetaData
		meta, err = toml.Decode(string(data), &m)
		if err == nil {
			if undecoded := meta.Undecoded(); len(undecoded) > 0 {
				err = fmt.Errorf("unknown key %q", undecoded[0].String())
			}
		}
	default:
		return nil, errors.New(errors.CodeManifestFormat).WithDetailf("%q", format)
	}

	if err != nil {
		return nil, errors.New(errors.CodeManifestInvalid).
			WithDetailf("decode %s", format).
			Wrap(err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every route has one matcher and one outcome.
func (m *Manifest) Validate() error {
	for i, r := range m.Routes {
		matchers := 0
		for _, s := range []string{r.Path, r.Pattern, r.Glob, r.Template} {
			if s != "" {
				matchers++
			}
		}
		if matchers != 1 {
			return errors.New(errors.CodeManifestInvalid).
				WithDetailf("route %s has %d matchers, want 1", r.Label(i), matchers)
		}
		if (r.Render == "") == (r.Redirect == "") {
			return errors.New(errors.CodeManifestInvalid).
				WithDetailf("route %s needs exactly one of render or redirect", r.Label(i))
		}
		if (r.Global || r.IgnoreCase) && r.Pattern == "" {
			return errors.New(errors.CodeManifestInvalid).
				WithDetailf("route %s sets pattern flags without a pattern", r.Label(i))
		}
	}
	return nil
}

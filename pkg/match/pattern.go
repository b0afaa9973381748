package match

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single pattern execution.
const DefaultMatchTimeout = 100 * time.Millisecond

// PatternOption configures a Pattern.
type PatternOption func(*patternOptions)

type patternOptions struct {
	global     bool
	ignoreCase bool
	timeout    time.Duration
}

// Global makes the pattern stateful: Exec resumes from LastIndex and
// advances it past each match, like a JavaScript /g regular expression.
func Global() PatternOption {
	return func(o *patternOptions) {
		o.global = true
	}
}

// IgnoreCase compiles the pattern case-insensitively.
func IgnoreCase() PatternOption {
	return func(o *patternOptions) {
		o.ignoreCase = true
	}
}

// WithMatchTimeout overrides DefaultMatchTimeout.
func WithMatchTimeout(d time.Duration) PatternOption {
	return func(o *patternOptions) {
		o.timeout = d
	}
}

// Pattern is a regular expression path with named captures, using
// ECMAScript syntax (including (?<name>...) groups).
type Pattern struct {
	re     *regexp2.Regexp
	expr   string
	global bool

	// mu protects lastIndex.
	mu        sync.Mutex
	lastIndex int
}

// Compile parses a pattern.
func Compile(expr string, opts ...PatternOption) (*Pattern, error) {
	options := patternOptions{timeout: DefaultMatchTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	flags := regexp2.RegexOptions(regexp2.ECMAScript)
	if options.ignoreCase {
		flags |= regexp2.IgnoreCase
	}

	re, err := regexp2.Compile(expr, flags)
	if err != nil {
		return nil, fmt.Errorf("match: compile %q: %w", expr, err)
	}
	re.MatchTimeout = options.timeout

	return &Pattern{
		re:     re,
		expr:   expr,
		global: options.global,
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string, opts ...PatternOption) *Pattern {
	p, err := Compile(expr, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source expression.
func (p *Pattern) String() string {
	return p.expr
}

// IsGlobal reports whether the pattern keeps a scan position.
func (p *Pattern) IsGlobal() bool {
	return p.global
}

// LastIndex returns the current scan position.
func (p *Pattern) LastIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastIndex
}

// Reset rewinds the scan position to the start.
func (p *Pattern) Reset() {
	p.mu.Lock()
	p.lastIndex = 0
	p.mu.Unlock()
}

// Exec runs the pattern against input and returns the named captures.
// For a global pattern the search starts at LastIndex, which is advanced
// past the match on success and rewound on failure. Non-global patterns
// always search from the start.
func (p *Pattern) Exec(input string) (Params, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.execLocked(input)
}

// Match implements Path. The scan position is rewound after every call,
// whatever the outcome.
func (p *Pattern) Match(pathname string) (Params, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { p.lastIndex = 0 }()
	return p.execLocked(pathname)
}

func (p *Pattern) execLocked(input string) (Params, bool) {
	start := 0
	if p.global {
		start = p.lastIndex
		if start > len([]rune(input)) {
			p.lastIndex = 0
			return nil, false
		}
	}

	m, err := p.re.FindStringMatchStartingAt(input, start)
	if err != nil || m == nil {
		// A timeout is treated as no match.
		if p.global {
			p.lastIndex = 0
		}
		return nil, false
	}

	if p.global {
		p.lastIndex = m.Index + m.Length
	}
	return namedCaptures(m), true
}

// namedCaptures copies every named group that participated in the match.
func namedCaptures(m *regexp2.Match) Params {
	params := Params{}
	for _, g := range m.Groups() {
		if _, err := strconv.Atoi(g.Name); err == nil {
			continue // numbered group
		}
		if len(g.Captures) == 0 {
			continue
		}
		params[g.Name] = g.String()
	}
	return params
}

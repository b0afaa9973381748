package history

import (
	"fmt"
	"net/url"
	"sync"
)

// Memory is an in-process History with a browser-like entry stack.
type Memory struct {
	mu      sync.Mutex
	base    *url.URL
	entries []*url.URL
	index   int
	ops     []Op

	pop listeners[func()]
}

// MemoryOption configures a Memory history.
type MemoryOption func(*Memory)

// WithBase fixes the base URI, like a <base href> element. Without it the
// base is the current location.
func WithBase(base *url.URL) MemoryOption {
	return func(m *Memory) {
		m.base = cloneURL(base)
	}
}

// NewMemory creates a history whose single entry is start, which must be an
// absolute URL.
func NewMemory(start string, opts ...MemoryOption) (*Memory, error) {
	u, err := url.Parse(start)
	if err != nil {
		return nil, fmt.Errorf("history: parse start %q: %w", start, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("history: start %q is not an absolute URL", start)
	}

	m := &Memory{entries: []*url.URL{u}}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// MustMemory is like NewMemory but panics on error.
func MustMemory(start string, opts ...MemoryOption) *Memory {
	m, err := NewMemory(start, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Location implements History.
func (m *Memory) Location() *url.URL {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneURL(m.entries[m.index])
}

// BaseURI implements History.
func (m *Memory) BaseURI() *url.URL {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseLocked()
}

func (m *Memory) baseLocked() *url.URL {
	if m.base != nil {
		return cloneURL(m.base)
	}
	return cloneURL(m.entries[m.index])
}

// PushState implements History. Forward entries are discarded.
func (m *Memory) PushState(href string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := Resolve(m.baseLocked(), href)
	if err != nil {
		return fmt.Errorf("history: push %q: %w", href, err)
	}
	m.entries = append(m.entries[:m.index+1], u)
	m.index++
	m.ops = append(m.ops, Op{Kind: OpPush, URL: u.String()})
	return nil
}

// ReplaceState implements History.
func (m *Memory) ReplaceState(href string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := Resolve(m.baseLocked(), href)
	if err != nil {
		return fmt.Errorf("history: replace %q: %w", href, err)
	}
	m.entries[m.index] = u
	m.ops = append(m.ops, Op{Kind: OpReplace, URL: u.String()})
	return nil
}

// OnPopState implements History.
func (m *Memory) OnPopState(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	return m.pop.add(fn)
}

// Back moves one entry back. It reports false at the start of the stack.
func (m *Memory) Back() bool {
	return m.Go(-1)
}

// Forward moves one entry forward. It reports false at the end of the stack.
func (m *Memory) Forward() bool {
	return m.Go(1)
}

// Go moves delta entries and fires pop-state listeners synchronously.
// Out-of-range moves do nothing and report false.
func (m *Memory) Go(delta int) bool {
	m.mu.Lock()
	target := m.index + delta
	if delta == 0 || target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = target
	m.ops = append(m.ops, Op{Kind: OpPop, URL: m.entries[target].String()})
	m.mu.Unlock()

	m.firePopState()
	return true
}

// Navigate simulates a location change made outside the router, such as a
// fragment change: a new entry is pushed and pop-state listeners fire.
func (m *Memory) Navigate(href string) error {
	if err := m.PushState(href); err != nil {
		return err
	}
	m.firePopState()
	return nil
}

// Ops returns the recorded mutation log.
func (m *Memory) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Op, len(m.ops))
	copy(out, m.ops)
	return out
}

// Len returns the number of entries in the stack.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Listeners returns the number of registered pop-state listeners.
func (m *Memory) Listeners() int {
	return m.pop.len()
}

func (m *Memory) firePopState() {
	for _, fn := range m.pop.snapshot() {
		fn()
	}
}

package store

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownField is returned when subscribing to a field name the store
// does not own.
var ErrUnknownField = errors.New("store: unknown field")

// field is the type-erased view of a Field used for name-based lookups.
type field interface {
	name() string
	onChangeAny(fn func(newV, oldV any)) func()
	clear()
}

// Store owns a fixed set of named fields.
type Store struct {
	mu       sync.RWMutex
	fields   map[string]field
	order    []string
	disposed bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		fields: make(map[string]field),
	}
}

// register adds a field to the store. Registering a duplicate name panics,
// since the field set is fixed at construction.
func (s *Store) register(f field) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fields[f.name()]; exists {
		panic(fmt.Sprintf("store: field %q registered twice", f.name()))
	}
	s.fields[f.name()] = f
	s.order = append(s.order, f.name())
}

// OnChange subscribes to a field by name. The callback receives the new and
// old values as any.
func (s *Store) OnChange(name string, fn func(newV, oldV any)) (func(), error) {
	s.mu.RLock()
	f, ok := s.fields[name]
	s.mu.RUnlock()

	if !ok {
		return func() {}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f.onChangeAny(fn), nil
}

// Fields returns the field names in registration order.
func (s *Store) Fields() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Disposed reports whether Dispose has been called.
func (s *Store) Disposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposed
}

// Dispose removes every subscriber and stops all further notifications.
func (s *Store) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	fields := make([]field, 0, len(s.order))
	for _, name := range s.order {
		fields = append(fields, s.fields[name])
	}
	s.mu.Unlock()

	for _, f := range fields {
		f.clear()
	}
}

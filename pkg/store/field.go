package store

import (
	"reflect"
	"slices"
	"sync"
)

// ChangeFunc receives the new and old value of a field.
type ChangeFunc[T any] func(newV, oldV T)

// FieldOption configures a field.
type FieldOption[T any] func(*Field[T])

// WithEquals overrides the equality predicate used to decide whether a write
// is a change.
func WithEquals[T any](fn func(a, b T) bool) FieldOption[T] {
	return func(f *Field[T]) {
		f.equal = fn
	}
}

// NeverEqual makes every write a change.
func NeverEqual[T any]() FieldOption[T] {
	return WithEquals(func(T, T) bool { return false })
}

type subscriber[T any] struct {
	id uint64
	fn ChangeFunc[T]
}

// Field is one named, typed value in a Store.
type Field[T any] struct {
	store *Store
	key   string

	// mu protects value.
	mu    sync.RWMutex
	value T
	equal func(a, b T) bool

	// subMu protects subs and nextID.
	subMu  sync.Mutex
	subs   []subscriber[T]
	nextID uint64
}

// NewField creates a field and registers it with the store.
func NewField[T any](s *Store, name string, initial T, opts ...FieldOption[T]) *Field[T] {
	f := &Field[T]{
		store: s,
		key:   name,
		value: initial,
	}
	for _, opt := range opts {
		opt(f)
	}
	s.register(f)
	return f
}

// Name returns the field name.
func (f *Field[T]) Name() string {
	return f.key
}

// Get returns the current value.
func (f *Field[T]) Get() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

// Set assigns the value. When the equality predicate reports a difference,
// every subscriber is called with (new, old) before Set returns.
func (f *Field[T]) Set(value T) {
	f.mu.Lock()
	old := f.value
	changed := !f.equals(old, value)
	if changed {
		f.value = value
	}
	f.mu.Unlock()

	if !changed || f.store.Disposed() {
		return
	}

	// Copy before notify so subscribers may (un)subscribe while running.
	f.subMu.Lock()
	subs := make([]subscriber[T], len(f.subs))
	copy(subs, f.subs)
	f.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(value, old)
	}
}

// OnChange registers a subscriber and returns a function that removes it.
// Subscribing to a field of a disposed store is a no-op.
func (f *Field[T]) OnChange(fn ChangeFunc[T]) func() {
	if fn == nil || f.store.Disposed() {
		return func() {}
	}

	f.subMu.Lock()
	f.nextID++
	id := f.nextID
	f.subs = append(f.subs, subscriber[T]{id: id, fn: fn})
	f.subMu.Unlock()

	return func() {
		f.subMu.Lock()
		defer f.subMu.Unlock()
		// Delete in place; subscribers are notified in registration order.
		f.subs = slices.DeleteFunc(f.subs, func(s subscriber[T]) bool {
			return s.id == id
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (f *Field[T]) Subscribers() int {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	return len(f.subs)
}

func (f *Field[T]) name() string {
	return f.key
}

func (f *Field[T]) onChangeAny(fn func(newV, oldV any)) func() {
	if fn == nil {
		return func() {}
	}
	return f.OnChange(func(newV, oldV T) {
		fn(newV, oldV)
	})
}

func (f *Field[T]) clear() {
	f.subMu.Lock()
	f.subs = nil
	f.subMu.Unlock()
}

func (f *Field[T]) equals(a, b T) bool {
	if f.equal != nil {
		return f.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for basic comparable kinds and reflect.DeepEqual for
// everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case uint64:
		bv, ok := any(b).(uint64)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

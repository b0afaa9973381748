// Package store provides the reactive state container behind a router.
//
// A Store owns a fixed set of named, typed fields. Writing a field compares
// the new value with the old one using the field's equality predicate and,
// when they differ, calls every subscriber of that field synchronously and
// in registration order before Set returns.
//
// Usage:
//
//	s := store.New()
//	path := store.NewField(s, "activePath", "/")
//
//	unsubscribe := path.OnChange(func(newV, oldV string) {
//	    fmt.Println(oldV, "->", newV)
//	})
//	defer unsubscribe()
//
//	path.Set("/users") // prints "/ -> /users" before returning
//
// Fields that hold values with their own notion of identity take a custom
// predicate:
//
//	u := store.NewField(s, "url", start, store.WithEquals(func(a, b *url.URL) bool {
//	    return a.String() == b.String()
//	}))
//
// There is no batching and no reentrancy guard. A subscriber that writes to
// another field fans out inline; a subscriber must not start an unbounded
// chain of further writes.
//
// Dispose removes every subscriber. Writes after disposal still store the
// value but are never observed.
package store

// Package lazyval provides a concurrency-safe lazy thunk: a fallible value
// computed at most once, no matter how many goroutines ask for it. The
// reconciler uses it to decode an existing filelists.xml.gz only when a
// carry-over package first needs its file list.
package lazyval

import "sync"

// Value memoizes the first call to a fallible initializer. Unlike the
// single-threaded Rc<Cell<Option<Rc<T>>>> this replaces, Get is safe to
// call from multiple goroutines concurrently; the lock inside sync.Once
// makes concurrent first calls wait for the single init.
type Value[T any] struct {
	once sync.Once
	init func() (T, error)
	val  T
	err  error
}

// New returns a Value that calls init at most once, on first Get.
func New[T any](init func() (T, error)) *Value[T] {
	return &Value[T]{init: init}
}

// Get returns the memoized value, computing it on the first call. Every
// subsequent call, from any goroutine, returns the same value and error
// without re-running init.
func (v *Value[T]) Get() (T, error) {
	v.once.Do(func() {
		v.val, v.err = v.init()
	})
	return v.val, v.err
}

package store

import (
	"sync"
	"time"
)

// DefaultDebounce is the trailing window used for persist scheduling.
const DefaultDebounce = 100 * time.Millisecond

// Debouncer collapses repeated calls into a single trailing invocation.
// Each Call resets the window and replaces the pending value; when the
// window elapses fn runs once with the value of the last Call. fn runs
// on a timer goroutine.
type Debouncer[T any] struct {
	d  time.Duration
	fn func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
}

// NewDebouncer creates a debouncer that invokes fn after d of quiet.
func NewDebouncer[T any](d time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{d: d, fn: fn}
}

// Call schedules fn with v, resetting any pending window.
func (db *Debouncer[T]) Call(v T) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.pending = v
	db.armed = true
	if db.timer == nil {
		db.timer = time.AfterFunc(db.d, db.fire)
	} else {
		db.timer.Reset(db.d)
	}
}

func (db *Debouncer[T]) fire() {
	db.mu.Lock()
	if !db.armed {
		db.mu.Unlock()
		return
	}
	v := db.pending
	var zero T
	db.pending = zero
	db.armed = false
	db.mu.Unlock()

	db.fn(v)
}

// Cancel drops any pending invocation.
func (db *Debouncer[T]) Cancel() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.armed = false
	var zero T
	db.pending = zero
	if db.timer != nil {
		db.timer.Stop()
	}
}

// Flush invokes fn immediately with the pending value, if any.
func (db *Debouncer[T]) Flush() {
	db.mu.Lock()
	if !db.armed {
		db.mu.Unlock()
		return
	}
	if db.timer != nil {
		db.timer.Stop()
	}
	v := db.pending
	var zero T
	db.pending = zero
	db.armed = false
	db.mu.Unlock()

	db.fn(v)
}

// Debounce wraps fn so repeated invocations within a trailing window of
// d collapse into one call after the window elapses. Each invocation of
// the returned function resets the window.
func Debounce(d time.Duration, fn func()) func() {
	db := NewDebouncer[struct{}](d, func(struct{}) { fn() })
	return func() { db.Call(struct{}{}) }
}

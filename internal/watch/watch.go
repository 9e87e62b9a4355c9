// Package watch implements the reactive primitives the cache and session
// layers are built from: a single-writer/many-reader watched value with
// async change notification, and a bounded async FIFO queue.
package watch

import (
	"context"
	"sync"
)

// Value holds a piece of state that one writer mutates and many readers
// observe. Readers call Wait to block until the version advances past the
// last value they observed, matching the "poll until notified" suspension
// model described for the session and cache layers.
type Value[T any] struct {
	mu      sync.Mutex
	state   T
	version uint64
	changed chan struct{}
}

// New creates a Value holding the given initial state.
func New[T any](initial T) *Value[T] {
	return &Value[T]{state: initial, changed: make(chan struct{})}
}

// Load returns a copy of the current state and its version.
func (v *Value[T]) Load() (T, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state, v.version
}

// Access calls fn with exclusive access to the state. If fn returns true,
// the version is bumped and any waiters in Wait are released.
func (v *Value[T]) Access(fn func(state *T) (changed bool)) {
	v.mu.Lock()
	changed := fn(&v.state)
	var ch chan struct{}
	if changed {
		v.version++
		ch = v.changed
		v.changed = make(chan struct{})
	}
	v.mu.Unlock()
	if changed {
		close(ch)
	}
}

// Wait blocks until the version is greater than last, or ctx is done.
// It returns the current state and version once woken.
func (v *Value[T]) Wait(ctx context.Context, last uint64) (T, uint64, error) {
	for {
		v.mu.Lock()
		if v.version > last {
			state, version := v.state, v.version
			v.mu.Unlock()
			return state, version, nil
		}
		ch := v.changed
		v.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			var zero T
			return zero, last, ctx.Err()
		}
	}
}

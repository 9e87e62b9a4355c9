// Package relay assembles the session engine in internal/moq into a
// multi-session router: a table of locally connected producers, a table
// of lazily-dialed peer origins, and the cluster discovery loop that
// keeps the two in sync across a fleet of relay nodes.
package relay

import (
	"sync"

	"moqrelay/internal/cache"
	"moqrelay/internal/moq"
	"moqrelay/internal/watch"
)

// Locals is the concurrent mapping from broadcast path to the source
// serving it, populated by locally connected producing sessions.
type Locals struct {
	mu         sync.RWMutex
	broadcasts map[string]moq.BroadcastSource

	events *watch.Queue[moq.AnnounceEvent]
}

// NewLocals creates an empty local broadcast table.
func NewLocals() *Locals {
	return &Locals{
		broadcasts: make(map[string]moq.BroadcastSource),
		events:     watch.NewQueue[moq.AnnounceEvent](256),
	}
}

// Events feeds an AnnounceEvent for every Register/Release, consumed by
// Cluster to mirror locally-originated broadcasts to the cluster root.
func (l *Locals) Events() *watch.Queue[moq.AnnounceEvent] {
	return l.events
}

// Register adds a broadcast under path, returning a scoped handle that
// removes it on Release. Registering an already-registered path returns
// cache.ErrDuplicate.
func (l *Locals) Register(path string, source moq.BroadcastSource) (*LocalRegistration, error) {
	l.mu.Lock()
	if _, exists := l.broadcasts[path]; exists {
		l.mu.Unlock()
		return nil, cache.ErrDuplicate
	}
	l.broadcasts[path] = source
	l.mu.Unlock()

	l.events.Push(moq.AnnounceEvent{Announced: true, Path: path})
	return &LocalRegistration{locals: l, path: path}, nil
}

func (l *Locals) release(path string) {
	l.mu.Lock()
	_, ok := l.broadcasts[path]
	delete(l.broadcasts, path)
	l.mu.Unlock()
	if ok {
		l.events.Push(moq.AnnounceEvent{Announced: false, Path: path})
	}
}

// Resolve implements moq.Router's first leg: a direct lookup against
// locally registered broadcasts.
func (l *Locals) Resolve(path string) (moq.BroadcastSource, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	source, ok := l.broadcasts[path]
	return source, ok
}

// Paths returns every currently registered broadcast path.
func (l *Locals) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	paths := make([]string, 0, len(l.broadcasts))
	for path := range l.broadcasts {
		paths = append(paths, path)
	}
	return paths
}

// LocalRegistration is the scoped handle returned by Locals.Register.
type LocalRegistration struct {
	locals *Locals
	path   string

	mu       sync.Mutex
	released bool
}

// Release is idempotent: only the first call removes the entry and
// wakes watchers.
func (r *LocalRegistration) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.locals.release(r.path)
}

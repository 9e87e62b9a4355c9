package cache

import (
	"sync"
)

// Broadcast is a named namespace of related tracks produced by one
// peer. It owns a mapping from track name to Track. A broadcast is
// created by a producer and torn down once the producer closes it and
// every consumer has released its handle.
type Broadcast struct {
	Path string

	mu     sync.RWMutex
	tracks map[string]*Track
	closed bool
}

// NewBroadcast creates an empty broadcast at the given path.
func NewBroadcast(path string) *Broadcast {
	return &Broadcast{Path: path, tracks: make(map[string]*Track)}
}

// CreateTrack registers a new track under this broadcast. Re-registering
// an existing name returns ErrDuplicate.
func (b *Broadcast) CreateTrack(name string, priority uint64) (*Track, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrDone
	}
	if _, exists := b.tracks[name]; exists {
		return nil, ErrDuplicate
	}

	track := NewTrack(name, priority)
	b.tracks[name] = track
	return track, nil
}

// Track resolves a track by name for a subscriber. Returns ErrNotFound
// if no track of that name has been produced.
func (b *Broadcast) Track(name string) (*Track, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	track, ok := b.tracks[name]
	if !ok {
		return nil, ErrNotFound
	}
	return track, nil
}

// RemoveTrack drops a track from the broadcast's mapping once its
// producer no longer needs it, e.g. a listings prefix that went empty.
// It does not itself close the track; the caller closes it first.
func (b *Broadcast) RemoveTrack(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tracks, name)
}

// Tracks returns the names of every track currently produced.
func (b *Broadcast) Tracks() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.tracks))
	for name := range b.tracks {
		names = append(names, name)
	}
	return names
}

// Close tears down the broadcast, closing every track it still owns
// with err.
func (b *Broadcast) Close(err error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	tracks := make([]*Track, 0, len(b.tracks))
	for _, t := range b.tracks {
		tracks = append(tracks, t)
	}
	b.mu.Unlock()

	for _, t := range tracks {
		t.Close(err)
	}
}

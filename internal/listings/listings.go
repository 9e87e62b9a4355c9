package listings

import (
	"context"
	"strings"
	"sync"

	"moqrelay/internal/cache"
	"moqrelay/internal/wire"
)

// Listings holds a directory of broadcast paths built on top of tracks:
// one track per distinct prefix, each carrying a delta log of base
// names inserted and removed under it. Cluster reads directory tracks
// in this format through NewReader to discover nodes; it does not
// announce through a Listings.
type Listings struct {
	root      string
	broadcast *cache.Broadcast

	mu      sync.Mutex
	writers map[string]*listingWriter
}

// New creates a Listings rooted at the given broadcast path. Every
// registered path must fall under root.
func New(root string) *Listings {
	return &Listings{
		root:      root,
		broadcast: cache.NewBroadcast(root),
		writers:   make(map[string]*listingWriter),
	}
}

// Broadcast returns the root broadcast producer, announced like any
// other locally produced broadcast.
func (l *Listings) Broadcast() *cache.Broadcast {
	return l.broadcast
}

// Register inserts path's base name into the listing track for its
// directory, creating the track if this is the first entry under that
// prefix. The returned Registration removes the entry when released.
// Registering the same path twice while the first handle is still live
// returns ErrDuplicate; the first handle must be released before the
// path can be registered again.
func (l *Listings) Register(path string) (*Registration, error) {
	dir, base := Prefix(path)
	if !strings.HasPrefix(dir, l.root) {
		return nil, ErrNotInBroadcast
	}
	prefix := dir[len(l.root):]

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.writers[prefix]
	if !ok {
		track, err := l.broadcast.CreateTrack(prefix, 0)
		if err != nil {
			return nil, err
		}
		w, err = newListingWriter(track)
		if err != nil {
			return nil, err
		}
		l.writers[prefix] = w
	}

	if err := w.register(base); err != nil {
		return nil, err
	}
	return &Registration{listings: l, prefix: prefix, base: base}, nil
}

// remove releases a (prefix, base) registration. If the writer for
// prefix becomes empty, its track is torn down and removed.
func (l *Listings) remove(prefix, base string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.writers[prefix]
	if !ok {
		return ErrNotFound
	}
	empty, err := w.release(base)
	if err != nil {
		return err
	}
	if empty {
		w.close()
		l.broadcast.RemoveTrack(prefix)
		delete(l.writers, prefix)
	}
	return nil
}

// Subscribe resolves a listing reader for the track named prefix,
// matching Cluster's discovery traversal.
func (l *Listings) Subscribe(prefix string) (*ListingReader, error) {
	track, err := l.broadcast.Track(prefix)
	if err != nil {
		return nil, err
	}
	return newListingReader(track.Reader(wire.OrderAsc)), nil
}

// Registration is a scoped handle returned by Register. Release removes
// the base name from its listing, tearing down the listing track if it
// was the last entry under that prefix.
type Registration struct {
	listings *Listings
	prefix   string
	base     string

	mu       sync.Mutex
	released bool
}

// Release is idempotent: only the first call has any effect.
func (r *Registration) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.listings.remove(r.prefix, r.base)
}

// listingWriter tracks the set of base names with a live registration
// under one prefix and appends delta frames to a single group as that
// set changes. A late subscriber replays the group's frames from the
// start to reconstruct the current set, so no separate snapshot frame
// is needed.
type listingWriter struct {
	track *cache.Track
	group *cache.Group

	mu   sync.Mutex
	live map[string]bool
}

func newListingWriter(track *cache.Track) (*listingWriter, error) {
	group, err := track.CreateGroup(1, 0)
	if err != nil {
		return nil, err
	}
	return &listingWriter{track: track, group: group, live: make(map[string]bool)}, nil
}

func (w *listingWriter) register(base string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.live[base] {
		return ErrDuplicate
	}
	w.live[base] = true
	return w.group.WriteFrame(encodeDelta(true, base))
}

// release drops base's registration and reports whether the writer now
// holds no live entries.
func (w *listingWriter) release(base string) (empty bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.live[base] {
		return len(w.live) == 0, ErrNotFound
	}
	delete(w.live, base)
	if err := w.group.WriteFrame(encodeDelta(false, base)); err != nil {
		return len(w.live) == 0, err
	}
	return len(w.live) == 0, nil
}

func (w *listingWriter) close() {
	w.group.Close()
}

func encodeDelta(insert bool, base string) []byte {
	tag := byte('-')
	if insert {
		tag = '+'
	}
	return append([]byte{tag}, base...)
}

func decodeDelta(frame []byte) (insert bool, base string) {
	if len(frame) == 0 {
		return true, ""
	}
	return frame[0] == '+', string(frame[1:])
}

// ListingReader traverses a listing track's delta log, yielding inserts
// and removals in production order.
type ListingReader struct {
	track *cache.TrackReader
	group *cache.GroupReader
}

func newListingReader(track *cache.TrackReader) *ListingReader {
	return &ListingReader{track: track}
}

// NewReader wraps an arbitrary track reader as a ListingReader, for
// traversing a directory track mirrored in from a remote session (where
// no local Listings producer exists to call Subscribe on).
func NewReader(track *cache.TrackReader) *ListingReader {
	return newListingReader(track)
}

// Next blocks until the next insert/remove delta is available, or ctx
// is done.
func (r *ListingReader) Next(ctx context.Context) (insert bool, base string, err error) {
	if r.group == nil {
		group, err := r.track.NextGroup(ctx)
		if err != nil {
			return false, "", err
		}
		if group == nil {
			return false, "", cache.ErrDone
		}
		r.group = group
	}
	frame, err := r.group.NextFrame(ctx)
	if err != nil {
		return false, "", err
	}
	insert, base = decodeDelta(frame)
	return insert, base, nil
}

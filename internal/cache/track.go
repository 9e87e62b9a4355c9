package cache

import (
	"container/heap"
	"context"
	"time"

	"moqrelay/internal/watch"
	"moqrelay/internal/wire"
)

func tiebreak(order wire.GroupOrder) GroupOrderFunc {
	if order == wire.OrderAsc {
		return AscOrder
	}
	return DescOrder
}

// trackState is the state shared between a Track's producer and every
// consumer watching it. Groups are appended in strictly increasing
// sequence order, so the log doubles as an insertion-ordered index
// keyed implicitly by position.
type trackState struct {
	log       []*groupEntry
	expires   expiryHeap
	pruned    int
	lastSeq   uint64
	hasLast   bool
	closed    bool
	closedErr error
}

// expire pops any log entries whose deadline has passed, replacing
// their slot with a nil marker, then shifts any nil prefix off the log
// head, bumping pruned. Mirrors the original implementation's
// lookup/expires/pruned triple.
func (s *trackState) expire(now time.Time) {
	for len(s.expires) > 0 {
		top := s.expires[0]
		if top.expires.After(now) {
			break
		}
		heap.Pop(&s.expires)
		if top.group != nil {
			top.group.Drop(0)
		}
		top.group = nil
	}

	for len(s.log) > 0 && s.log[0].group == nil {
		s.log = s.log[1:]
		s.pruned++
	}
}

// Track is a named, ordered sequence of groups with a priority. At most
// one producer may append to it; any number of consumers may read it
// independently.
type Track struct {
	Name     string
	Priority uint64

	state *watch.Value[trackState]
}

// NewTrack creates an empty track.
func NewTrack(name string, priority uint64) *Track {
	return &Track{
		Name:     name,
		Priority: priority,
		state:    watch.New(trackState{}),
	}
}

// CreateGroup appends a new group with the given sequence number,
// defaulting its priority to the track's priority, and an optional
// time-to-live after which it is evicted. Sequence numbers must
// strictly increase; a non-increasing sequence returns ErrDuplicate.
func (t *Track) CreateGroup(sequence uint64, ttl time.Duration) (*Group, error) {
	return t.createGroup(sequence, t.Priority, ttl)
}

// CreateGroupPriority is like CreateGroup but overrides the group's
// priority, matching the explicit priority field carried on the wire
// GroupHeader.
func (t *Track) CreateGroupPriority(sequence, priority uint64, ttl time.Duration) (*Group, error) {
	return t.createGroup(sequence, priority, ttl)
}

func (t *Track) createGroup(sequence, priority uint64, ttl time.Duration) (*Group, error) {
	var (
		group *Group
		fail  error
	)
	t.state.Access(func(s *trackState) bool {
		if s.closed {
			fail = ErrDone
			return false
		}
		if s.hasLast && sequence <= s.lastSeq {
			fail = ErrDuplicate
			return false
		}

		group = NewGroup(sequence, priority)
		entry := &groupEntry{sequence: sequence, group: group}
		if ttl > 0 {
			entry.expires = time.Now().Add(ttl)
			entry.hasExpiry = true
			heap.Push(&s.expires, entry)
		}
		s.log = append(s.log, entry)
		s.lastSeq = sequence
		s.hasLast = true

		s.expire(time.Now())
		return true
	})
	return group, fail
}

// Latest returns the most recently created group's sequence number and
// whether any group has been created yet.
func (t *Track) Latest() (uint64, bool) {
	state, _ := t.state.Load()
	return state.lastSeq, state.hasLast
}

// FindGroup looks up an already-produced group by sequence number for a
// fetch request. Unlike TrackReader.NextGroup it never blocks: a
// sequence not currently in the log, whether not yet produced or
// already pruned, returns ErrNotFound.
func (t *Track) FindGroup(sequence uint64) (*GroupReader, error) {
	state, _ := t.state.Load()
	for _, entry := range state.log {
		if entry.group != nil && entry.sequence == sequence {
			return entry.group.Reader(), nil
		}
	}
	return nil, ErrNotFound
}

// Close closes the track with the given terminal error. Idempotent:
// only the first close is recorded.
func (t *Track) Close(err error) {
	t.state.Access(func(s *trackState) bool {
		if s.closed {
			return false
		}
		s.closed = true
		s.closedErr = err
		return true
	})
}

// Reader returns a fresh consumer handle over the track, starting
// before the first group. Consumer handles are freely cloneable.
func (t *Track) Reader(order wire.GroupOrder) *TrackReader {
	return &TrackReader{
		track:   t,
		pending: newPriorityHeap(tiebreak(order)),
	}
}

// TrackReader is a single consumer's view into a Track: an index into
// the shared log plus a private priority heap of groups discovered but
// not yet delivered.
type TrackReader struct {
	track   *Track
	index   int
	last    uint64
	pending *priorityHeap
}

// NextGroup blocks until a group is ready to deliver, the track closes
// (returns nil, nil on a close with a nil error, otherwise nil and the
// close error), or ctx is done. Ready groups are delivered in
// priority order (lowest numeric priority first), tie-broken by the
// reader's configured GroupOrder.
func (r *TrackReader) NextGroup(ctx context.Context) (*GroupReader, error) {
	for {
		state, version := r.track.state.Load()
		if reader := r.drain(state); reader != nil {
			r.last = version
			return reader, nil
		}
		if state.closed {
			if state.closedErr == nil {
				return nil, nil
			}
			return nil, state.closedErr
		}

		_, version, err := r.track.state.Wait(ctx, r.last)
		if err != nil {
			return nil, err
		}
		r.last = version
	}
}

// drain pushes any newly visible log entries into the pending heap and
// pops the highest-priority group, if any.
func (r *TrackReader) drain(state trackState) *GroupReader {
	index := r.index - state.pruned
	if index < 0 {
		index = 0
	}
	for index < len(state.log) {
		entry := state.log[index]
		if entry.group != nil {
			heap.Push(r.pending, pendingGroup{reader: entry.group.Reader()})
		}
		index++
	}
	r.index = state.pruned + index

	if r.pending.Len() == 0 {
		return nil
	}
	item := heap.Pop(r.pending).(pendingGroup)
	return item.reader
}

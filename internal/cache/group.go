package cache

import (
	"context"
	"sync/atomic"

	"moqrelay/internal/watch"
)

// groupState is the mutable state shared between a Group's producer and
// all of its consumers.
type groupState struct {
	frames  [][]byte
	closed  bool
	dropped bool
	code    uint32
}

// Group is a self-contained, independently decodable unit carried on its
// own transport stream. A group is complete only when its producer
// closes it; consumers may read frames incrementally before completion.
type Group struct {
	Sequence uint64
	Priority uint64

	state    *watch.Value[groupState]
	refcount *int32
}

// NewGroup creates a new, empty group with the given sequence and
// priority. Priority defaults to the track's priority but may be
// overridden per group (mirroring the priority field carried in the
// wire GroupHeader).
func NewGroup(sequence, priority uint64) *Group {
	count := int32(1)
	return &Group{
		Sequence: sequence,
		Priority: priority,
		state:    watch.New(groupState{}),
		refcount: &count,
	}
}

// WriteFrame appends a frame to the group. It returns ErrDone if the
// group is already closed or dropped.
func (g *Group) WriteFrame(payload []byte) error {
	var failed error
	g.state.Access(func(s *groupState) bool {
		if s.closed || s.dropped {
			failed = ErrDone
			return false
		}
		s.frames = append(s.frames, payload)
		return true
	})
	return failed
}

// Close marks the group complete. No more frames may be written.
func (g *Group) Close() {
	g.state.Access(func(s *groupState) bool {
		if s.closed || s.dropped {
			return false
		}
		s.closed = true
		return true
	})
}

// Drop marks the group dropped with an application reason code. Readers
// that have not yet consumed all frames observe a GroupDroppedError.
func (g *Group) Drop(code uint32) {
	g.state.Access(func(s *groupState) bool {
		if s.closed || s.dropped {
			return false
		}
		s.dropped = true
		s.code = code
		return true
	})
}

// Reader returns a fresh consumer handle over the group, starting at
// frame index 0. Consumer handles are freely cloneable.
func (g *Group) Reader() *GroupReader {
	atomic.AddInt32(g.refcount, 1)
	return &GroupReader{group: g}
}

// GroupReader is a single consumer's cursor over a Group's frames.
type GroupReader struct {
	group *Group
	index int
	last  uint64
}

// Sequence returns the group's sequence number.
func (r *GroupReader) Sequence() uint64 { return r.group.Sequence }

// Priority returns the group's priority.
func (r *GroupReader) Priority() uint64 { return r.group.Priority }

// NextFrame blocks until the next frame is available, the group
// completes (returns nil, io.EOF-equivalent via ErrDone), or the group
// is dropped (returns a *GroupDroppedError).
func (r *GroupReader) NextFrame(ctx context.Context) ([]byte, error) {
	for {
		state, version := r.group.state.Load()
		if r.index < len(state.frames) {
			frame := state.frames[r.index]
			r.index++
			r.last = version
			return frame, nil
		}
		if state.dropped {
			return nil, &GroupDroppedError{Code: state.code}
		}
		if state.closed {
			return nil, ErrDone
		}

		_, version, err := r.group.state.Wait(ctx, r.last)
		if err != nil {
			return nil, err
		}
		r.last = version
	}
}

// Release drops this reader's reference to the group.
func (r *GroupReader) Release() {
	atomic.AddInt32(r.group.refcount, -1)
}

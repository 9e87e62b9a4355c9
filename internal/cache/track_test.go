package cache

import (
	"context"
	"testing"
	"time"

	"moqrelay/internal/wire"
)

func TestSubscribeHappyPath(t *testing.T) {
	broadcast := NewBroadcast("cam")
	track, err := broadcast.CreateTrack("video", 0)
	if err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}

	group, err := track.CreateGroup(1, 0)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	for _, frame := range [][]byte{[]byte("A"), []byte("B"), []byte("C")} {
		if err := group.WriteFrame(frame); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	group.Close()

	reader := track.Reader(wire.OrderDesc)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := reader.NextGroup(ctx)
	if err != nil {
		t.Fatalf("NextGroup: %v", err)
	}
	if got.Sequence() != 1 {
		t.Fatalf("sequence = %d, want 1", got.Sequence())
	}

	var frames [][]byte
	for {
		frame, err := got.NextFrame(ctx)
		if err == ErrDone {
			break
		}
		if err != nil {
			t.Fatalf("NextFrame: %v", err)
		}
		frames = append(frames, frame)
	}
	if len(frames) != 3 || string(frames[0]) != "A" || string(frames[1]) != "B" || string(frames[2]) != "C" {
		t.Fatalf("frames = %v, want [A B C]", frames)
	}
}

func TestSubscribeNotFound(t *testing.T) {
	broadcast := NewBroadcast("ghost")
	_, err := broadcast.Track("x")
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPriorityOrdering(t *testing.T) {
	track := NewTrack("video", 0)

	seqPrio := []struct {
		seq, prio uint64
	}{
		{1, 5},
		{2, 10},
		{3, 1},
	}
	for _, sp := range seqPrio {
		g, err := track.CreateGroupPriority(sp.seq, sp.prio, 0)
		if err != nil {
			t.Fatalf("CreateGroupPriority(%d): %v", sp.seq, err)
		}
		g.Close()
	}

	reader := track.Reader(wire.OrderDesc)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var order []uint64
	for i := 0; i < 3; i++ {
		g, err := reader.NextGroup(ctx)
		if err != nil {
			t.Fatalf("NextGroup: %v", err)
		}
		order = append(order, g.Sequence())
	}

	want := []uint64{3, 1, 2}
	for i, seq := range want {
		if order[i] != seq {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestDuplicateSequenceRejected(t *testing.T) {
	track := NewTrack("video", 0)
	if _, err := track.CreateGroup(5, 0); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if _, err := track.CreateGroup(5, 0); err != ErrDuplicate {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	if _, err := track.CreateGroup(4, 0); err != ErrDuplicate {
		t.Fatalf("err = %v, want ErrDuplicate for non-increasing sequence", err)
	}
}

func TestGroupExpiry(t *testing.T) {
	track := NewTrack("video", 0)
	g, err := track.CreateGroup(1, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	reader := g.Reader()

	time.Sleep(20 * time.Millisecond)
	// Force an expiry sweep via a second mutation, per the design's
	// "expiry runs only on mutation" policy.
	if _, err := track.CreateGroup(2, 0); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = reader.NextFrame(ctx)
	if _, ok := err.(*GroupDroppedError); !ok {
		t.Fatalf("err = %v, want *GroupDroppedError", err)
	}
}

func TestTrackClosedResolvesReader(t *testing.T) {
	track := NewTrack("video", 0)
	reader := track.Reader(wire.OrderDesc)
	track.Close(nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	g, err := reader.NextGroup(ctx)
	if err != nil || g != nil {
		t.Fatalf("NextGroup = (%v, %v), want (nil, nil) on clean close", g, err)
	}
}

package cache

import "testing"

func TestBroadcastDuplicateTrack(t *testing.T) {
	b := NewBroadcast(".origin.alice.cam1")
	if _, err := b.CreateTrack("video", 0); err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}
	if _, err := b.CreateTrack("video", 0); err != ErrDuplicate {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestBroadcastCloseClosesTracks(t *testing.T) {
	b := NewBroadcast("cam")
	track, err := b.CreateTrack("video", 0)
	if err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}

	b.Close(nil)

	if _, err := track.CreateGroup(1, 0); err != ErrDone {
		t.Fatalf("err = %v, want ErrDone after broadcast close", err)
	}
}

func TestBroadcastTracksList(t *testing.T) {
	b := NewBroadcast("cam")
	if _, err := b.CreateTrack("video", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := b.CreateTrack("audio", 1); err != nil {
		t.Fatal(err)
	}

	names := b.Tracks()
	if len(names) != 2 {
		t.Fatalf("Tracks() = %v, want 2 entries", names)
	}
}

package listings

import (
	"context"
	"testing"
)

func TestListingsLifecycle(t *testing.T) {
	l := New(".origin")

	regA, err := l.Register(".origin.a")
	if err != nil {
		t.Fatalf("register a: %v", err)
	}
	if _, err := l.Register(".origin.b"); err != nil {
		t.Fatalf("register b: %v", err)
	}

	if _, err := l.Register(".origin.a"); err != ErrDuplicate {
		t.Fatalf("register a again: got %v, want ErrDuplicate", err)
	}

	regA.Release()
	// Idempotent: releasing twice must not panic or double-write.
	regA.Release()

	r, err := l.Subscribe(".")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ctx := context.Background()
	live := map[string]bool{}
	want := []struct {
		insert bool
		base   string
	}{
		{true, "a"},
		{true, "b"},
		{false, "a"},
	}
	for i, w := range want {
		insert, base, err := r.Next(ctx)
		if err != nil {
			t.Fatalf("Next(%d): %v", i, err)
		}
		if insert != w.insert || base != w.base {
			t.Errorf("Next(%d) = (%v, %q), want (%v, %q)", i, insert, base, w.insert, w.base)
		}
		// Reconstruct the live set from the replayed deltas.
		live[base] = insert
	}

	if live["a"] {
		t.Errorf("expected a to be removed")
	}
	if !live["b"] {
		t.Errorf("expected b to remain")
	}
}

func TestListingsRegisterOutsideRoot(t *testing.T) {
	l := New(".origin")
	if _, err := l.Register(".other.a"); err != ErrNotInBroadcast {
		t.Fatalf("got %v, want ErrNotInBroadcast", err)
	}
}

func TestListingsReleaseTearsDownEmptyPrefix(t *testing.T) {
	l := New(".origin")

	reg, err := l.Register(".origin.only")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Release()

	if _, err := l.broadcast.Track("."); err == nil {
		t.Fatalf("expected track to be removed after last registration released")
	}

	// Re-registering the same base after teardown must succeed cleanly.
	if _, err := l.Register(".origin.only"); err != nil {
		t.Fatalf("re-register after teardown: %v", err)
	}
}

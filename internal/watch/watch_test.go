package watch

import (
	"context"
	"testing"
	"time"
)

func TestValueWaitWakesOnChange(t *testing.T) {
	v := New(0)
	_, version := v.Load()

	done := make(chan int, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		state, _, err := v.Wait(ctx, version)
		if err != nil {
			t.Errorf("Wait: %v", err)
			return
		}
		done <- state
	}()

	time.Sleep(10 * time.Millisecond)
	v.Access(func(s *int) bool {
		*s = 42
		return true
	})

	select {
	case got := <-done:
		if got != 42 {
			t.Fatalf("got %d, want 42", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait never woke up")
	}
}

func TestValueWaitContextCancel(t *testing.T) {
	v := New("x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := v.Wait(ctx, 0)
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestValueAccessNoChangeDoesNotWake(t *testing.T) {
	v := New(1)
	_, version := v.Load()

	woke := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, _, err := v.Wait(ctx, version)
		woke <- err
	}()

	v.Access(func(s *int) bool {
		return false // no-op mutation, must not notify
	})

	select {
	case err := <-woke:
		// The wait must end by its context timing out, not by the no-op
		// Access notifying it.
		if err != context.DeadlineExceeded {
			t.Fatalf("Wait returned %v, want context.DeadlineExceeded", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("waiter never returned")
	}
}

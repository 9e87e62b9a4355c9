package transport

import (
	"context"
	"testing"
	"time"
)

func TestMemoryPairBidirectional(t *testing.T) {
	a, b := NewMemoryPair()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		stream, err := b.AcceptBi(ctx)
		if err != nil {
			t.Errorf("AcceptBi: %v", err)
			return
		}
		buf := make([]byte, 5)
		if _, err := stream.Read(buf); err != nil {
			t.Errorf("Read: %v", err)
			return
		}
		if string(buf) != "hello" {
			t.Errorf("got %q, want hello", buf)
		}
	}()

	stream, err := a.OpenBi(ctx)
	if err != nil {
		t.Fatalf("OpenBi: %v", err)
	}
	if _, err := stream.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("timed out waiting for peer")
	}
}

func TestMemoryPairDatagram(t *testing.T) {
	a, b := NewMemoryPair()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := a.SendDatagram([]byte("ping")); err != nil {
		t.Fatalf("SendDatagram: %v", err)
	}
	got, err := b.RecvDatagram(ctx)
	if err != nil {
		t.Fatalf("RecvDatagram: %v", err)
	}
	if string(got) != "ping" {
		t.Fatalf("got %q, want ping", got)
	}
}

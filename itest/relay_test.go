// Package itest drives the assembled relay core — session engine,
// broadcast cache, and relay routing — end to end over in-memory
// transport pairs, the way the teacher's own integration suite drives
// the assembled server over real listeners.
package itest

import (
	"context"
	"testing"
	"time"

	"moqrelay/internal/cache"
	"moqrelay/internal/moq"
	"moqrelay/internal/relay"
	"moqrelay/internal/transport"
	"moqrelay/internal/wire"
)

// TestPublishSubscribeThroughRelay exercises a publisher and a
// subscriber that never connect to each other directly: both dial a
// relay node, which mirrors the publisher's announcement into its
// local broadcast table and routes the subscriber's request to it,
// re-subscribing upstream on the subscriber's behalf.
func TestPublishSubscribeThroughRelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	locals := relay.NewLocals()
	router := relay.NewRouter(locals, nil)

	// Publisher <-> relay leg.
	pubClientConn, pubRelayConn := transport.NewMemoryPair()
	acceptPub := acceptSessionAsync(ctx, pubRelayConn)
	pubClientSession := dialSession(t, ctx, pubClientConn)
	defer pubClientSession.Close(0, "test done")
	pubRelaySession := acceptPub.wait(t, ctx)
	defer pubRelaySession.Close(0, "test done")

	pubConn := relay.NewConnection(pubRelaySession, locals, router)
	go pubConn.Run(pubRelaySession.Context())

	broadcast := cache.NewBroadcast("cam")
	track, err := broadcast.CreateTrack("video", 0)
	if err != nil {
		t.Fatalf("create track: %v", err)
	}
	if err := pubClientSession.Publisher.Announce("cam", broadcast); err != nil {
		t.Fatalf("announce: %v", err)
	}

	group, err := track.CreateGroup(1, 0)
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := group.WriteFrame([]byte("hello")); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	group.Close()

	// Give the relay connection's announce-mirroring goroutine a tick
	// to register "cam" in Locals before the subscriber asks for it.
	waitFor(t, ctx, func() bool {
		for _, p := range locals.Paths() {
			if p == "cam" {
				return true
			}
		}
		return false
	})

	// Subscriber <-> relay leg.
	subClientConn, subRelayConn := transport.NewMemoryPair()
	acceptSub := acceptSessionAsync(ctx, subRelayConn)
	subClientSession := dialSession(t, ctx, subClientConn)
	defer subClientSession.Close(0, "test done")
	subRelaySession := acceptSub.wait(t, ctx)
	defer subRelaySession.Close(0, "test done")

	subRelaySession.Publisher.SetRouter(router)

	mirror, err := subClientSession.Subscriber.Subscribe(ctx, "cam", "video", 0, wire.OrderAsc)
	if err != nil {
		t.Fatalf("subscribe through relay: %v", err)
	}

	reader := mirror.Reader(wire.OrderAsc)
	gr, err := reader.NextGroup(ctx)
	if err != nil {
		t.Fatalf("next group: %v", err)
	}
	if gr == nil {
		t.Fatal("expected a group, got track closed")
	}
	frame, err := gr.NextFrame(ctx)
	if err != nil {
		t.Fatalf("next frame: %v", err)
	}
	if string(frame) != "hello" {
		t.Fatalf("frame = %q, want %q", frame, "hello")
	}
}

// TestSubscribeUnknownBroadcastThroughRelay subscribes a path no
// connected publisher and no remote origin has ever announced; the
// relay must report SubscribeError{UnknownBroadcast} rather than hang.
func TestSubscribeUnknownBroadcastThroughRelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	locals := relay.NewLocals()
	router := relay.NewRouter(locals, nil)

	subClientConn, subRelayConn := transport.NewMemoryPair()
	acceptSub := acceptSessionAsync(ctx, subRelayConn)
	subClientSession := dialSession(t, ctx, subClientConn)
	defer subClientSession.Close(0, "test done")
	subRelaySession := acceptSub.wait(t, ctx)
	defer subRelaySession.Close(0, "test done")

	subRelaySession.Publisher.SetRouter(router)

	_, err := subClientSession.Subscriber.Subscribe(ctx, "ghost", "x", 0, wire.OrderAsc)
	if err == nil {
		t.Fatal("expected an error for an unannounced broadcast")
	}
	remoteErr, ok := err.(*moq.RemoteError)
	if !ok {
		t.Fatalf("expected *moq.RemoteError, got %T: %v", err, err)
	}
	if remoteErr.Code != moq.CodeUnknownBroadcast {
		t.Fatalf("expected CodeUnknownBroadcast, got %v", remoteErr.Code)
	}
}

func dialSession(t *testing.T, ctx context.Context, conn transport.Session) *moq.Session {
	t.Helper()
	s, err := moq.Setup(ctx, conn, wire.RoleBoth)
	if err != nil {
		t.Fatalf("client setup: %v", err)
	}
	return s
}

// pendingAccept is a server-side Setup started before its peer has
// necessarily dialed yet, so the caller can kick off the client side
// without the two racing to see who calls AcceptBi/OpenBi first.
type pendingAccept struct {
	sessionCh chan *moq.Session
	errCh     chan error
}

func acceptSessionAsync(ctx context.Context, conn transport.Session) *pendingAccept {
	p := &pendingAccept{
		sessionCh: make(chan *moq.Session, 1),
		errCh:     make(chan error, 1),
	}
	go func() {
		s, err := moq.AcceptSetup(ctx, conn, wire.RoleBoth)
		if err != nil {
			p.errCh <- err
			return
		}
		p.sessionCh <- s
	}()
	return p
}

func (p *pendingAccept) wait(t *testing.T, ctx context.Context) *moq.Session {
	t.Helper()
	select {
	case s := <-p.sessionCh:
		return s
	case err := <-p.errCh:
		t.Fatalf("server setup: %v", err)
	case <-ctx.Done():
		t.Fatal("timed out waiting for server setup")
	}
	return nil
}

func waitFor(t *testing.T, ctx context.Context, done func() bool) {
	t.Helper()
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		if done() {
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatal("timed out waiting for condition")
		}
	}
}

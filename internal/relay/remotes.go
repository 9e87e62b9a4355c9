package relay

import (
	"context"
	"fmt"
	"log"
	"sync"

	"moqrelay/internal/cache"
	"moqrelay/internal/moq"
	"moqrelay/internal/transport"
	"moqrelay/internal/wire"
)

// RemoteOrigin is a lazily-connected peer relay: the client session to
// it is dialed on first use and cached, and every broadcast it
// announces is tracked so Resolve can answer without a round trip.
type RemoteOrigin struct {
	Name string

	dial func(ctx context.Context) (transport.Session, error)

	mu      sync.Mutex
	session *moq.Session
	dialErr error

	knownMu sync.RWMutex
	known   map[string]bool
}

// NewRemoteOrigin creates a remote origin named name, dialed lazily via
// dial on first Resolve call.
func NewRemoteOrigin(name string, dial func(ctx context.Context) (transport.Session, error)) *RemoteOrigin {
	return &RemoteOrigin{
		Name:  name,
		dial:  dial,
		known: make(map[string]bool),
	}
}

func (r *RemoteOrigin) connect(ctx context.Context) (*moq.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		return r.session, nil
	}
	if r.dialErr != nil {
		return nil, r.dialErr
	}

	conn, err := r.dial(ctx)
	if err != nil {
		r.dialErr = fmt.Errorf("relay: remote %s: dial: %w", r.Name, err)
		return nil, r.dialErr
	}
	session, err := moq.Setup(ctx, conn, wire.RoleBoth)
	if err != nil {
		r.dialErr = fmt.Errorf("relay: remote %s: setup: %w", r.Name, err)
		return nil, r.dialErr
	}

	r.session = session
	go r.watchAnnounced(session)
	return session, nil
}

// watchAnnounced maintains the known-broadcast set from the remote's
// announce feed for the life of the session.
func (r *RemoteOrigin) watchAnnounced(session *moq.Session) {
	for {
		event, err := session.Subscriber.Announced().Pop(session.Context())
		if err != nil {
			return
		}
		r.knownMu.Lock()
		if event.Announced {
			r.known[event.Path] = true
		} else {
			delete(r.known, event.Path)
		}
		r.knownMu.Unlock()
	}
}

// Resolve dials the remote if needed and reports whether it has
// announced path, returning a BroadcastSource that subscribes lazily
// per track.
func (r *RemoteOrigin) Resolve(path string) (moq.BroadcastSource, bool) {
	session, err := r.connect(context.Background())
	if err != nil {
		log.Printf("relay: remote %s: %v", r.Name, err)
		return nil, false
	}
	r.knownMu.RLock()
	known := r.known[path]
	r.knownMu.RUnlock()
	if !known {
		return nil, false
	}
	return &remoteBroadcast{session: session, path: path}, true
}

// remoteBroadcast subscribes a track lazily against a remote session's
// broadcast the first time Publisher asks for it, mirroring the result
// into a local cache.Track exactly like any direct subscription.
type remoteBroadcast struct {
	session *moq.Session
	path    string
}

func (b *remoteBroadcast) Track(name string) (*cache.Track, error) {
	return b.session.Subscriber.Subscribe(context.Background(), b.path, name, 0, wire.OrderAsc)
}

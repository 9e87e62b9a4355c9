package moq

import (
	"context"
	"log"
	"sync"

	"moqrelay/internal/cache"
	"moqrelay/internal/wire"
)

// BroadcastSource is the minimal shape Publisher needs to serve a
// subscription against a broadcast: resolve one of its tracks by name.
// *cache.Broadcast satisfies it directly; a relay wraps a lazily-dialed
// remote origin in a type that also satisfies it, so Publisher never
// needs to know whether a broadcast is local or remote.
type BroadcastSource interface {
	Track(name string) (*cache.Track, error)
}

// Router resolves a broadcast path that this session has not itself
// announced, e.g. against a relay's table of other locally connected
// producers or remote origins. A session with no router set only ever
// serves what was announced directly on it.
type Router interface {
	Resolve(path string) (BroadcastSource, bool)
}

// Metrics receives subscription and group lifecycle events as a
// session's Publisher serves them. A session with none set observes
// silently; Server installs the process's health.Service here.
type Metrics interface {
	SubscriptionOpened()
	SubscriptionClosed()
	GroupProduced()
	GroupDropped()
}

type noopMetrics struct{}

func (noopMetrics) SubscriptionOpened() {}
func (noopMetrics) SubscriptionClosed() {}
func (noopMetrics) GroupProduced()      {}
func (noopMetrics) GroupDropped()       {}

// Publisher is the producer-facing half of a session: it holds the
// outgoing announcement set and serves incoming subscriptions against
// locally produced broadcasts.
type Publisher struct {
	session *Session
	router  Router
	metrics Metrics

	mu        sync.Mutex
	announced map[string]BroadcastSource
	subs      map[uint64]*servedSubscription
}

type servedSubscription struct {
	cancel context.CancelFunc
}

func newPublisher(s *Session) *Publisher {
	return &Publisher{
		session:   s,
		metrics:   noopMetrics{},
		announced: make(map[string]BroadcastSource),
		subs:      make(map[uint64]*servedSubscription),
	}
}

// SetRouter installs a fallback resolver for broadcast paths not
// announced directly on this session.
func (p *Publisher) SetRouter(r Router) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.router = r
}

// SetMetrics installs the sink for this session's subscription and
// group lifecycle events, replacing the default no-op.
func (p *Publisher) SetMetrics(m Metrics) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = m
}

// Announce adds a broadcast to this session's announcement set and
// notifies the peer.
func (p *Publisher) Announce(path string, b BroadcastSource) error {
	p.mu.Lock()
	if _, exists := p.announced[path]; exists {
		p.mu.Unlock()
		return cache.ErrDuplicate
	}
	p.announced[path] = b
	p.mu.Unlock()

	return p.session.sendAnnounce(wire.Announce{Path: path}.Encode(nil))
}

// Unannounce removes a broadcast from the announcement set and
// notifies the peer.
func (p *Publisher) Unannounce(path string) error {
	p.mu.Lock()
	if _, exists := p.announced[path]; !exists {
		p.mu.Unlock()
		return cache.ErrNotFound
	}
	delete(p.announced, path)
	p.mu.Unlock()

	return p.session.sendAnnounce(wire.Unannounce{Path: path}.Encode(nil))
}

func (p *Publisher) broadcast(path string) (BroadcastSource, bool) {
	p.mu.Lock()
	b, ok := p.announced[path]
	router := p.router
	p.mu.Unlock()
	if ok {
		return b, true
	}
	if router == nil {
		return nil, false
	}
	return router.Resolve(path)
}

func (p *Publisher) handleSubscribe(ctx context.Context, msg wire.Subscribe) {
	broadcast, ok := p.broadcast(msg.Broadcast)
	if !ok {
		p.sendSubscribeError(msg.ID, CodeUnknownBroadcast, "unknown broadcast")
		return
	}
	track, err := broadcast.Track(msg.Track)
	if err != nil {
		p.sendSubscribeError(msg.ID, CodeUnknownTrack, "unknown track")
		return
	}

	subCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.subs[msg.ID] = &servedSubscription{cancel: cancel}
	p.mu.Unlock()

	latest, _ := track.Latest()
	ok2 := p.session.sendSubscribeOk(wire.SubscribeOk{ID: msg.ID, Priority: msg.Priority, GroupLatest: latest})
	if ok2 != nil {
		cancel()
		return
	}

	p.metrics.SubscriptionOpened()
	reader := track.Reader(msg.Order)
	go p.serveSubscription(subCtx, msg.ID, reader)
}

// serveSubscription opens one unidirectional stream per group delivered
// to this subscription, closing it when the group completes and
// reporting drops on the subscribe control stream.
func (p *Publisher) serveSubscription(ctx context.Context, id uint64, reader *cache.TrackReader) {
	defer p.metrics.SubscriptionClosed()
	for {
		group, err := reader.NextGroup(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("moq: publisher subscription %d ended: %v", id, err)
			}
			return
		}
		if group == nil {
			p.session.sendSubscribeDone(wire.SubscribeDone{ID: id, Code: uint64(CodeClosed)})
			return
		}
		go p.streamGroup(ctx, id, group)
	}
}

func (p *Publisher) streamGroup(ctx context.Context, subscribeID uint64, reader *cache.GroupReader) {
	defer reader.Release()

	stream, err := p.session.transport.OpenUni(ctx)
	if err != nil {
		return
	}
	defer stream.Close()

	header := wire.GroupHeader{
		SubscribeID: subscribeID,
		Sequence:    reader.Sequence(),
		Priority:    reader.Priority(),
	}
	if _, err := stream.Write(header.Encode(nil)); err != nil {
		return
	}

	for {
		frame, err := reader.NextFrame(ctx)
		if err != nil {
			if dropped, ok := err.(*cache.GroupDroppedError); ok {
				p.metrics.GroupDropped()
				p.session.sendGroupDrop(wire.GroupDrop{ID: subscribeID, Sequence: reader.Sequence(), Code: dropped.Code})
				stream.Reset(uint64(dropped.Code))
			} else if err == cache.ErrDone {
				p.metrics.GroupProduced()
			}
			return
		}
		if _, err := stream.Write(wire.PutFrame(nil, frame)); err != nil {
			return
		}
	}
}

// handleSubscribeUpdate ignores a priority/order change request: the
// new values are not applied to any group, since serveSubscription
// keeps the reader and order chosen at subscribe time for the life of
// the subscription.
func (p *Publisher) handleSubscribeUpdate(msg wire.SubscribeUpdate) {}

func (p *Publisher) handleUnsubscribe(id uint64) {
	p.mu.Lock()
	sub, ok := p.subs[id]
	delete(p.subs, id)
	p.mu.Unlock()
	if ok {
		sub.cancel()
	}
}

func (p *Publisher) sendSubscribeError(id uint64, code ErrorCode, reason string) {
	p.session.sendSubscribeErrorMsg(wire.SubscribeError{ID: id, Code: uint64(code), Reason: reason})
}

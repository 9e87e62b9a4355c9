package moq

import (
	"bufio"
	"context"
	"log"
	"sync"
	"sync/atomic"

	"moqrelay/internal/cache"
	"moqrelay/internal/watch"
	"moqrelay/internal/wire"
)

// AnnounceEvent reports a peer announcing or retracting a broadcast
// path, delivered through Subscriber.Announced in the order received.
type AnnounceEvent struct {
	Announced bool
	Path      string
}

// Subscriber is the consumer-facing half of a session: it issues
// subscriptions against the peer's announced broadcasts and mirrors
// delivered groups into local tracks, so a subscription looks exactly
// like any other cache.Track to the rest of the system.
type Subscriber struct {
	session *Session
	nextID  uint64

	mu      sync.Mutex
	pending map[uint64]*pendingSub
	active  map[uint64]*activeSub

	announced *watch.Queue[AnnounceEvent]
}

type pendingSub struct {
	track *cache.Track
	done  chan error
}

type activeSub struct {
	track *cache.Track

	mu     sync.Mutex
	groups map[uint64]*cache.Group
}

func newSubscriber(s *Session) *Subscriber {
	return &Subscriber{
		session:   s,
		pending:   make(map[uint64]*pendingSub),
		active:    make(map[uint64]*activeSub),
		announced: watch.NewQueue[AnnounceEvent](256),
	}
}

// Announced returns the feed of the peer's announce/unannounce events.
func (s *Subscriber) Announced() *watch.Queue[AnnounceEvent] {
	return s.announced
}

// Subscribe requests a broadcast+track pair from the peer and blocks
// until the peer accepts or rejects it. The returned Track is mirrored
// live from incoming group streams as they arrive.
func (s *Subscriber) Subscribe(ctx context.Context, broadcast, track string, priority uint64, order wire.GroupOrder) (*cache.Track, error) {
	id := atomic.AddUint64(&s.nextID, 1) - 1
	mirror := cache.NewTrack(track, priority)
	pending := &pendingSub{track: mirror, done: make(chan error, 1)}

	s.mu.Lock()
	s.pending[id] = pending
	s.mu.Unlock()

	msg := wire.Subscribe{ID: id, Broadcast: broadcast, Track: track, Priority: priority, Order: order}
	if err := s.session.sendSubscribe(msg.Encode(nil)); err != nil {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		return nil, err
	}

	select {
	case err := <-pending.done:
		if err != nil {
			return nil, err
		}
		return mirror, nil
	case <-ctx.Done():
		s.Unsubscribe(id)
		return nil, ctx.Err()
	case <-s.session.closed:
		return nil, ErrSessionClosed
	}
}

// Unsubscribe cancels a subscription, whether still pending or active.
func (s *Subscriber) Unsubscribe(id uint64) {
	s.mu.Lock()
	_, wasPending := s.pending[id]
	delete(s.pending, id)
	sub, wasActive := s.active[id]
	delete(s.active, id)
	s.mu.Unlock()

	if wasPending || wasActive {
		s.session.sendSubscribe(wire.Unsubscribe{ID: id}.Encode(nil))
	}
	if wasActive {
		sub.track.Close(nil)
	}
}

// Fetch requests a single already-produced frame range on a dedicated
// stream, per the one request per stream design used for Fetch and
// Info: there is no subscription to keep open, so no ID is needed to
// correlate the response.
type FetchResult struct {
	Group  uint64
	Frames [][]byte
}

func (s *Subscriber) Fetch(ctx context.Context, broadcast, track string, group, frame uint64) (*FetchResult, error) {
	stream, err := s.session.transport.OpenBi(ctx)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	buf := wire.PutVarInt(nil, uint64(wire.StreamFetch))
	buf = wire.Fetch{Broadcast: broadcast, Track: track, Group: group, Frame: frame}.Encode(buf)
	if _, err := stream.Write(buf); err != nil {
		return nil, err
	}

	r := bufio.NewReader(stream)
	status, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if status == respErr {
		fe, err := wire.DecodeFetchError(r)
		if err != nil {
			return nil, err
		}
		return nil, &RemoteError{Code: ErrorCode(fe.Code), Reason: fe.Reason}
	}

	if _, err := wire.ReadVarInt(r); err != nil { // FetchHeader's own UniFetch tag
		return nil, err
	}
	header, err := wire.DecodeFetchHeader(r)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{Group: header.Group}
	for {
		frame, err := wire.ReadFrame(r)
		if err != nil {
			break
		}
		result.Frames = append(result.Frames, frame)
	}
	return result, nil
}

// Info asks the peer for a track's current state without subscribing.
func (s *Subscriber) Info(ctx context.Context, broadcast, track string) (*wire.Info, error) {
	stream, err := s.session.transport.OpenBi(ctx)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	buf := wire.PutVarInt(nil, uint64(wire.StreamInfo))
	buf = wire.InfoRequest{Broadcast: broadcast, Track: track}.Encode(buf)
	if _, err := stream.Write(buf); err != nil {
		return nil, err
	}

	r := bufio.NewReader(stream)
	status, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if status == respErr {
		fe, err := wire.DecodeFetchError(r)
		if err != nil {
			return nil, err
		}
		return nil, &RemoteError{Code: ErrorCode(fe.Code), Reason: fe.Reason}
	}
	info, err := wire.DecodeInfo(r)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *Subscriber) handleAnnounceMessage(msg wire.AnnounceMessage) {
	event := AnnounceEvent{Announced: msg.Tag == wire.TagAnnounce, Path: msg.Path}
	if err := s.announced.Push(event); err != nil {
		log.Printf("moq: session %s: announce feed: %v", s.session.ID, err)
	}
}

func (s *Subscriber) handleSubscribeOk(msg wire.SubscribeOk) {
	s.mu.Lock()
	pending, ok := s.pending[msg.ID]
	if ok {
		delete(s.pending, msg.ID)
		s.active[msg.ID] = &activeSub{track: pending.track, groups: make(map[uint64]*cache.Group)}
	}
	s.mu.Unlock()
	if ok {
		pending.done <- nil
	}
}

func (s *Subscriber) handleSubscribeError(msg wire.SubscribeError) {
	s.mu.Lock()
	pending, ok := s.pending[msg.ID]
	delete(s.pending, msg.ID)
	s.mu.Unlock()
	if ok {
		pending.done <- &RemoteError{Code: ErrorCode(msg.Code), Reason: msg.Reason}
	}
}

func (s *Subscriber) handleSubscribeDone(msg wire.SubscribeDone) {
	s.mu.Lock()
	sub, ok := s.active[msg.ID]
	delete(s.active, msg.ID)
	s.mu.Unlock()
	if !ok {
		return
	}
	var err error
	if ErrorCode(msg.Code) != CodeNoError && ErrorCode(msg.Code) != CodeClosed {
		err = &RemoteError{Code: ErrorCode(msg.Code)}
	}
	sub.track.Close(err)
}

func (s *Subscriber) handleGroupDrop(msg wire.GroupDrop) {
	s.mu.Lock()
	sub, ok := s.active[msg.ID]
	s.mu.Unlock()
	if !ok {
		return
	}
	sub.mu.Lock()
	group, ok := sub.groups[msg.Sequence]
	sub.mu.Unlock()
	if ok {
		group.Drop(msg.Code)
	}
}

// handleGroupStream mirrors one incoming group stream's frames into the
// local track standing in for the remote subscription it belongs to.
func (s *Subscriber) handleGroupStream(ctx context.Context, header wire.GroupHeader, r *bufio.Reader) {
	s.mu.Lock()
	sub, ok := s.active[header.SubscribeID]
	s.mu.Unlock()
	if !ok {
		return
	}

	group, err := sub.track.CreateGroupPriority(header.Sequence, header.Priority, 0)
	if err != nil {
		return
	}
	sub.mu.Lock()
	sub.groups[header.Sequence] = group
	sub.mu.Unlock()
	defer func() {
		sub.mu.Lock()
		delete(sub.groups, header.Sequence)
		sub.mu.Unlock()
	}()

	for {
		frame, err := wire.ReadFrame(r)
		if err != nil {
			group.Close()
			return
		}
		if err := group.WriteFrame(frame); err != nil {
			return
		}
	}
}

// closeAll fails every pending and active subscription when the
// session closes.
func (s *Subscriber) closeAll() {
	s.mu.Lock()
	pendings := s.pending
	actives := s.active
	s.pending = make(map[uint64]*pendingSub)
	s.active = make(map[uint64]*activeSub)
	s.mu.Unlock()

	for _, p := range pendings {
		select {
		case p.done <- ErrSessionClosed:
		default:
		}
	}
	for _, a := range actives {
		a.track.Close(ErrSessionClosed)
	}
	s.announced.Close()
}

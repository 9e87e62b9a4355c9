package moq

import (
	"bufio"
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"moqrelay/internal/transport"
	"moqrelay/internal/wire"
)

// SupportedVersion is the only session-layer version this
// implementation speaks.
const SupportedVersion = 1

// Session is one negotiated connection: a transport session plus the
// Publisher and Subscriber engines layered on top of it.
//
// Every bidirectional stream a session ever opens or accepts begins
// with a single wire.StreamKind tag identifying its purpose. The
// Session, Announce and Subscribe kinds are each backed by one
// long-lived stream shared for the session's lifetime; Fetch and Info
// are opened fresh per request. To avoid both sides racing to open the
// same shared stream, the client always opens the Announce and
// Subscribe streams right after setup completes, and the server only
// ever accepts them.
type Session struct {
	ID   uuid.UUID
	Role wire.Role

	Publisher  *Publisher
	Subscriber *Subscriber

	transport transport.Session
	isClient  bool

	ctx    context.Context
	cancel context.CancelFunc

	openMu  sync.Mutex
	mu      sync.Mutex
	streams map[wire.StreamKind]*controlStream
	ready   map[wire.StreamKind]chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

func newSession(ctx context.Context, conn transport.Session, role wire.Role, isClient bool) *Session {
	sessCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:        uuid.New(),
		Role:      role,
		transport: conn,
		isClient:  isClient,
		ctx:       sessCtx,
		cancel:    cancel,
		streams:   make(map[wire.StreamKind]*controlStream),
		ready:     make(map[wire.StreamKind]chan struct{}),
		closed:    make(chan struct{}),
	}
	s.Publisher = newPublisher(s)
	s.Subscriber = newSubscriber(s)
	return s
}

// Setup dials the session stream as the client: opens it, sends
// ClientSetup and waits for ServerSetup.
func Setup(ctx context.Context, conn transport.Session, role wire.Role) (*Session, error) {
	stream, err := conn.OpenBi(ctx)
	if err != nil {
		return nil, err
	}

	buf := wire.PutVarInt(nil, uint64(wire.StreamSession))
	buf = wire.ClientSetup{Versions: []uint64{SupportedVersion}, Role: role}.Encode(buf)
	if _, err := stream.Write(buf); err != nil {
		return nil, err
	}

	r := bufio.NewReader(stream)
	if _, err := wire.ReadVarInt(r); err != nil { // ServerSetup's own tag
		return nil, err
	}
	setup, err := wire.DecodeServerSetup(r)
	if err != nil {
		return nil, err
	}
	if setup.Version != SupportedVersion {
		return nil, ErrVersionMismatch
	}
	if err := validateRoles(role, setup.Role); err != nil {
		return nil, err
	}

	s := newSession(ctx, conn, role, true)
	s.start()
	return s, nil
}

// AcceptSetup accepts the session stream as the server: accepts the
// first bidirectional stream, which must carry ClientSetup, and
// replies with ServerSetup.
func AcceptSetup(ctx context.Context, conn transport.Session, role wire.Role) (*Session, error) {
	stream, err := conn.AcceptBi(ctx)
	if err != nil {
		return nil, err
	}

	r := bufio.NewReader(stream)
	kind, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if wire.StreamKind(kind) != wire.StreamSession {
		return nil, ErrUnexpectedStream
	}
	if _, err := wire.ReadVarInt(r); err != nil { // ClientSetup's own tag
		return nil, err
	}
	setup, err := wire.DecodeClientSetup(r)
	if err != nil {
		return nil, err
	}
	if !containsVersion(setup.Versions, SupportedVersion) {
		return nil, ErrVersionMismatch
	}

	reply := wire.ServerSetup{Version: SupportedVersion, Role: role}.Encode(nil)
	if _, err := stream.Write(reply); err != nil {
		return nil, err
	}
	if err := validateRoles(role, setup.Role); err != nil {
		return nil, err
	}

	s := newSession(ctx, conn, role, false)
	s.start()
	return s, nil
}

func containsVersion(versions []uint64, want uint64) bool {
	for _, v := range versions {
		if v == want {
			return true
		}
	}
	return false
}

// validateRoles rejects role pairings that can never interact: both
// sides declaring the same publish-only or subscribe-only role leaves
// neither able to serve the other.
func validateRoles(local, remote wire.Role) error {
	if local == wire.RolePublisher && remote == wire.RolePublisher {
		return ErrRoleIncompatible
	}
	if local == wire.RoleSubscriber && remote == wire.RoleSubscriber {
		return ErrRoleIncompatible
	}
	return nil
}

// start launches the session's background loops and, for a client,
// eagerly opens the shared Announce and Subscribe streams.
func (s *Session) start() {
	go s.runAcceptBi()
	go s.runAcceptUni()

	if s.isClient {
		go func() {
			if _, err := s.getStream(s.ctx, wire.StreamAnnounce); err != nil {
				log.Printf("moq: session %s: open announce stream: %v", s.ID, err)
			}
		}()
		go func() {
			if _, err := s.getStream(s.ctx, wire.StreamSubscribe); err != nil {
				log.Printf("moq: session %s: open subscribe stream: %v", s.ID, err)
			}
		}()
	}
}

// Context is canceled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Close tears down the session and the underlying transport.
func (s *Session) Close(code uint64, reason string) error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.cancel()
		s.Subscriber.closeAll()
		err = s.transport.Close(code, reason)
	})
	return err
}

// readyChan returns (creating if necessary) the channel closed once
// kind's shared stream is registered.
func (s *Session) readyChan(kind wire.StreamKind) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.ready[kind]
	if !ok {
		ch = make(chan struct{})
		s.ready[kind] = ch
	}
	return ch
}

func (s *Session) registerStream(kind wire.StreamKind, cs *controlStream) bool {
	s.mu.Lock()
	if _, exists := s.streams[kind]; exists {
		s.mu.Unlock()
		return false
	}
	s.streams[kind] = cs
	ch, ok := s.ready[kind]
	if !ok {
		ch = make(chan struct{})
		s.ready[kind] = ch
	}
	s.mu.Unlock()
	close(ch)
	return true
}

// getStream returns the shared stream for kind, opening it if this
// session is the client and it does not exist yet, or waiting for the
// peer to open it if this session is the server.
func (s *Session) getStream(ctx context.Context, kind wire.StreamKind) (*controlStream, error) {
	s.mu.Lock()
	if cs, ok := s.streams[kind]; ok {
		s.mu.Unlock()
		return cs, nil
	}
	s.mu.Unlock()

	if !s.isClient {
		select {
		case <-s.readyChan(kind):
			s.mu.Lock()
			cs := s.streams[kind]
			s.mu.Unlock()
			return cs, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.closed:
			return nil, ErrSessionClosed
		}
	}

	// Only one goroutine may open kind's shared stream at a time: two
	// concurrent callers (e.g. the eager open in start and an early
	// caller of sendSubscribe) would otherwise both pass the check
	// above before either registers, each opening its own physical
	// stream. Serializing the open-then-register sequence here means a
	// second caller blocks until the first finishes, then finds kind
	// already registered below instead of opening a duplicate.
	s.openMu.Lock()
	defer s.openMu.Unlock()

	s.mu.Lock()
	if cs, ok := s.streams[kind]; ok {
		s.mu.Unlock()
		return cs, nil
	}
	s.mu.Unlock()

	stream, err := s.transport.OpenBi(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := stream.Write(wire.PutVarInt(nil, uint64(kind))); err != nil {
		return nil, err
	}
	cs := newControlStream(stream)
	if !s.registerStream(kind, cs) {
		s.mu.Lock()
		existing := s.streams[kind]
		s.mu.Unlock()
		return existing, nil
	}
	go s.dispatchKindReader(kind, cs)
	return cs, nil
}

func (s *Session) dispatchKindReader(kind wire.StreamKind, cs *controlStream) {
	switch kind {
	case wire.StreamAnnounce:
		s.runAnnounceReader(cs)
	case wire.StreamSubscribe:
		s.runSubscribeReader(cs)
	}
}

// runAcceptBi accepts every bidirectional stream the peer opens and
// dispatches it by its leading StreamKind tag.
func (s *Session) runAcceptBi() {
	for {
		stream, err := s.transport.AcceptBi(s.ctx)
		if err != nil {
			return
		}
		go s.handleAcceptedBi(stream)
	}
}

func (s *Session) handleAcceptedBi(stream transport.Stream) {
	r := bufio.NewReader(stream)
	tag, err := wire.ReadVarInt(r)
	if err != nil {
		return
	}
	switch wire.StreamKind(tag) {
	case wire.StreamAnnounce:
		cs := newControlStreamWithReader(stream, r)
		if s.registerStream(wire.StreamAnnounce, cs) {
			s.runAnnounceReader(cs)
		}
	case wire.StreamSubscribe:
		cs := newControlStreamWithReader(stream, r)
		if s.registerStream(wire.StreamSubscribe, cs) {
			s.runSubscribeReader(cs)
		}
	case wire.StreamFetch:
		s.Publisher.handleFetchStream(s.ctx, stream, r)
	case wire.StreamInfo:
		s.Publisher.handleInfoStream(s.ctx, stream, r)
	default:
		stream.Reset(uint64(CodeInternal))
	}
}

// runAcceptUni accepts every unidirectional stream the peer opens,
// each of which carries one group of a subscription this session made.
func (s *Session) runAcceptUni() {
	for {
		stream, err := s.transport.AcceptUni(s.ctx)
		if err != nil {
			return
		}
		go s.handleAcceptedUni(stream)
	}
}

func (s *Session) handleAcceptedUni(stream transport.ReceiveStream) {
	r := bufio.NewReader(stream)
	tag, err := wire.ReadVarInt(r)
	if err != nil {
		return
	}
	switch wire.UniStreamKind(tag) {
	case wire.UniGroup:
		header, err := wire.DecodeGroupHeader(r)
		if err != nil {
			return
		}
		s.Subscriber.handleGroupStream(s.ctx, header, r)
	default:
		stream.Reset(uint64(CodeInternal))
	}
}

func (s *Session) runAnnounceReader(cs *controlStream) {
	for {
		msg, err := wire.DecodeAnnounceMessage(cs.reader)
		if err != nil {
			return
		}
		s.Subscriber.handleAnnounceMessage(msg)
	}
}

func (s *Session) runSubscribeReader(cs *controlStream) {
	for {
		tag, err := wire.ReadVarInt(cs.reader)
		if err != nil {
			return
		}
		switch wire.SubscribeTag(tag) {
		case wire.TagSubscribe:
			msg, err := wire.DecodeSubscribe(cs.reader)
			if err != nil {
				return
			}
			s.Publisher.handleSubscribe(s.ctx, msg)
		case wire.TagSubscribeUpdate:
			msg, err := wire.DecodeSubscribeUpdate(cs.reader)
			if err != nil {
				return
			}
			s.Publisher.handleSubscribeUpdate(msg)
		case wire.TagUnsubscribe:
			msg, err := wire.DecodeUnsubscribe(cs.reader)
			if err != nil {
				return
			}
			s.Publisher.handleUnsubscribe(msg.ID)
		case wire.TagSubscribeOk:
			msg, err := wire.DecodeSubscribeOk(cs.reader)
			if err != nil {
				return
			}
			s.Subscriber.handleSubscribeOk(msg)
		case wire.TagSubscribeError:
			msg, err := wire.DecodeSubscribeError(cs.reader)
			if err != nil {
				return
			}
			s.Subscriber.handleSubscribeError(msg)
		case wire.TagSubscribeDone:
			msg, err := wire.DecodeSubscribeDone(cs.reader)
			if err != nil {
				return
			}
			s.Subscriber.handleSubscribeDone(msg)
		case wire.TagGroupDrop:
			msg, err := wire.DecodeGroupDrop(cs.reader)
			if err != nil {
				return
			}
			s.Subscriber.handleGroupDrop(msg)
		default:
			return
		}
	}
}

func (s *Session) sendAnnounce(buf []byte) error {
	cs, err := s.getStream(s.ctx, wire.StreamAnnounce)
	if err != nil {
		return err
	}
	return cs.Write(buf)
}

func (s *Session) sendSubscribe(buf []byte) error {
	cs, err := s.getStream(s.ctx, wire.StreamSubscribe)
	if err != nil {
		return err
	}
	return cs.Write(buf)
}

func (s *Session) sendSubscribeOk(msg wire.SubscribeOk) error {
	return s.sendSubscribe(msg.Encode(nil))
}

func (s *Session) sendSubscribeErrorMsg(msg wire.SubscribeError) error {
	return s.sendSubscribe(msg.Encode(nil))
}

func (s *Session) sendSubscribeDone(msg wire.SubscribeDone) error {
	return s.sendSubscribe(msg.Encode(nil))
}

func (s *Session) sendGroupDrop(msg wire.GroupDrop) error {
	return s.sendSubscribe(msg.Encode(nil))
}

package transport

import (
	"context"
	"io"
)

// NewMemoryPair returns two Sessions connected back-to-back, used by
// package-level tests and the itest package to exercise the session
// engine without a real QUIC loopback.
func NewMemoryPair() (a, b Session) {
	aToB := newPipeBroker() // streams/datagrams A opens, B accepts
	bToA := newPipeBroker() // streams/datagrams B opens, A accepts

	sa := &memorySession{
		openBi:    aToB.biOpen,
		openUni:   aToB.uniOpen,
		acceptBi:  bToA.biAccept,
		acceptUni: bToA.uniAccept,
		dgramOut:  aToB.dgrams,
		dgramIn:   bToA.dgrams,
	}
	sb := &memorySession{
		openBi:    bToA.biOpen,
		openUni:   bToA.uniOpen,
		acceptBi:  aToB.biAccept,
		acceptUni: aToB.uniAccept,
		dgramOut:  bToA.dgrams,
		dgramIn:   aToB.dgrams,
	}
	return sa, sb
}

// pipeBroker hands out one in-process bidirectional stream pair per
// OpenBi/AcceptBi call and one uni-stream pair per OpenUni/AcceptUni
// call, matching a single QUIC connection's independent stream
// multiplexing.
type pipeBroker struct {
	biWait  chan chan Stream
	uniWait chan chan ReceiveStream
	dgrams  chan []byte
}

func newPipeBroker() *pipeBroker {
	return &pipeBroker{
		biWait:  make(chan chan Stream, 64),
		uniWait: make(chan chan ReceiveStream, 64),
		dgrams:  make(chan []byte, 64),
	}
}

func (p *pipeBroker) biOpen(ctx context.Context) (Stream, error) {
	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()
	local := &memoryStream{r: r1, w: w2}
	remote := &memoryStream{r: r2, w: w1}

	delivered := make(chan Stream, 1)
	delivered <- remote
	p.biWait <- delivered

	return local, nil
}

func (p *pipeBroker) biAccept(ctx context.Context) (Stream, error) {
	select {
	case ch := <-p.biWait:
		return <-ch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pipeBroker) uniOpen(ctx context.Context) (SendStream, error) {
	r, w := io.Pipe()
	local := &memorySendStream{w: w}
	remote := &memoryRecvStream{r: r}

	delivered := make(chan ReceiveStream, 1)
	delivered <- remote
	p.uniWait <- delivered

	return local, nil
}

func (p *pipeBroker) uniAccept(ctx context.Context) (ReceiveStream, error) {
	select {
	case ch := <-p.uniWait:
		return <-ch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// memorySession implements Session over a pair of pipeBrokers: one
// carrying streams/datagrams this side opens, one carrying streams
// this side accepts from the peer.
type memorySession struct {
	openBi    func(ctx context.Context) (Stream, error)
	openUni   func(ctx context.Context) (SendStream, error)
	acceptBi  func(ctx context.Context) (Stream, error)
	acceptUni func(ctx context.Context) (ReceiveStream, error)
	dgramOut  chan []byte
	dgramIn   chan []byte
}

func (s *memorySession) OpenBi(ctx context.Context) (Stream, error)      { return s.openBi(ctx) }
func (s *memorySession) OpenUni(ctx context.Context) (SendStream, error) { return s.openUni(ctx) }
func (s *memorySession) AcceptBi(ctx context.Context) (Stream, error)    { return s.acceptBi(ctx) }
func (s *memorySession) AcceptUni(ctx context.Context) (ReceiveStream, error) {
	return s.acceptUni(ctx)
}

func (s *memorySession) RecvDatagram(ctx context.Context) ([]byte, error) {
	select {
	case b := <-s.dgramIn:
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *memorySession) SendDatagram(b []byte) error {
	cp := append([]byte(nil), b...)
	s.dgramOut <- cp
	return nil
}

func (s *memorySession) Close(code uint64, reason string) error {
	return nil
}

type memoryStream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (s *memoryStream) Read(b []byte) (int, error)  { return s.r.Read(b) }
func (s *memoryStream) Write(b []byte) (int, error) { return s.w.Write(b) }
func (s *memoryStream) Close() error                { return s.w.Close() }
func (s *memoryStream) Reset(code uint64) {
	s.r.CloseWithError(io.ErrClosedPipe)
	s.w.CloseWithError(io.ErrClosedPipe)
}

type memorySendStream struct {
	w *io.PipeWriter
}

func (s *memorySendStream) Write(b []byte) (int, error) { return s.w.Write(b) }
func (s *memorySendStream) Close() error                { return s.w.Close() }
func (s *memorySendStream) Reset(code uint64)           { s.w.CloseWithError(io.ErrClosedPipe) }

type memoryRecvStream struct {
	r *io.PipeReader
}

func (s *memoryRecvStream) Read(b []byte) (int, error) { return s.r.Read(b) }
func (s *memoryRecvStream) Reset(code uint64)          { s.r.CloseWithError(io.ErrClosedPipe) }

var (
	_ Session       = (*memorySession)(nil)
	_ Stream        = (*memoryStream)(nil)
	_ SendStream    = (*memorySendStream)(nil)
	_ ReceiveStream = (*memoryRecvStream)(nil)
)

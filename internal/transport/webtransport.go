package transport

import (
	"context"

	wt "github.com/quic-go/webtransport-go"
)

// WebTransportSession adapts a *webtransport.Session to the Session
// contract the session engine consumes.
type WebTransportSession struct {
	sess *wt.Session
}

// NewWebTransportSession wraps an established WebTransport session.
func NewWebTransportSession(sess *wt.Session) *WebTransportSession {
	return &WebTransportSession{sess: sess}
}

func (s *WebTransportSession) OpenBi(ctx context.Context) (Stream, error) {
	stream, err := s.sess.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return &wtStream{stream: stream}, nil
}

func (s *WebTransportSession) OpenUni(ctx context.Context) (SendStream, error) {
	stream, err := s.sess.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return &wtSendStream{stream: stream}, nil
}

func (s *WebTransportSession) AcceptBi(ctx context.Context) (Stream, error) {
	stream, err := s.sess.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return &wtStream{stream: stream}, nil
}

func (s *WebTransportSession) AcceptUni(ctx context.Context) (ReceiveStream, error) {
	stream, err := s.sess.AcceptUniStream(ctx)
	if err != nil {
		return nil, err
	}
	return &wtRecvStream{stream: stream}, nil
}

func (s *WebTransportSession) RecvDatagram(ctx context.Context) ([]byte, error) {
	return s.sess.ReceiveDatagram(ctx)
}

func (s *WebTransportSession) SendDatagram(b []byte) error {
	return s.sess.SendDatagram(b)
}

func (s *WebTransportSession) Close(code uint64, reason string) error {
	return s.sess.CloseWithError(wt.SessionErrorCode(code), reason)
}

type wtStream struct {
	stream *wt.Stream
}

func (s *wtStream) Read(b []byte) (int, error)  { return s.stream.Read(b) }
func (s *wtStream) Write(b []byte) (int, error) { return s.stream.Write(b) }
func (s *wtStream) Close() error                { return s.stream.Close() }
func (s *wtStream) Reset(code uint64) {
	s.stream.CancelRead(wt.StreamErrorCode(code))
	s.stream.CancelWrite(wt.StreamErrorCode(code))
}

type wtRecvStream struct {
	stream *wt.ReceiveStream
}

func (s *wtRecvStream) Read(b []byte) (int, error) { return s.stream.Read(b) }
func (s *wtRecvStream) Reset(code uint64)          { s.stream.CancelRead(wt.StreamErrorCode(code)) }

type wtSendStream struct {
	stream *wt.SendStream
}

func (s *wtSendStream) Write(b []byte) (int, error) { return s.stream.Write(b) }
func (s *wtSendStream) Close() error                { return s.stream.Close() }
func (s *wtSendStream) Reset(code uint64)           { s.stream.CancelWrite(wt.StreamErrorCode(code)) }

var (
	_ Session       = (*WebTransportSession)(nil)
	_ Stream        = (*wtStream)(nil)
	_ ReceiveStream = (*wtRecvStream)(nil)
	_ SendStream    = (*wtSendStream)(nil)
)

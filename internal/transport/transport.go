// Package transport abstracts the session and stream primitives the
// session engine is built on, so internal/moq never imports a concrete
// QUIC/WebTransport library directly.
package transport

import (
	"context"
	"io"
)

// SendStream is the write half of a unidirectional or bidirectional
// stream. Reset aborts the stream with a numeric application error
// code, mirroring the transport's native stream reset.
type SendStream interface {
	io.Writer
	Close() error
	Reset(code uint64)
}

// ReceiveStream is the read half of a unidirectional or bidirectional
// stream.
type ReceiveStream interface {
	io.Reader
	Reset(code uint64)
}

// Stream is a bidirectional stream, used for control traffic.
type Stream interface {
	SendStream
	ReceiveStream
}

// Session is the transport contract the session engine consumes. The
// concrete implementation is QUIC+WebTransport (see webtransport.go);
// nothing above this package depends on that concretely.
type Session interface {
	OpenBi(ctx context.Context) (Stream, error)
	OpenUni(ctx context.Context) (SendStream, error)
	AcceptBi(ctx context.Context) (Stream, error)
	AcceptUni(ctx context.Context) (ReceiveStream, error)
	RecvDatagram(ctx context.Context) ([]byte, error)
	SendDatagram(b []byte) error
	Close(code uint64, reason string) error
}

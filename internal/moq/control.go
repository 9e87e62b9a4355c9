package moq

import (
	"bufio"
	"sync"

	"moqrelay/internal/transport"
)

// controlStream wraps one bidirectional stream dedicated to a single
// shared stream-kind (Announce or Subscribe). The client side of the
// session opens it; the server accepts it and dispatches by the leading
// kind tag. Both directions of traffic for that kind share the one
// stream for the rest of the session, so writes are serialized with a
// mutex. Fetch and Info requests use their own per-request streams and
// are not wrapped in a controlStream.
type controlStream struct {
	stream transport.Stream
	reader *bufio.Reader
	mu     sync.Mutex
}

func newControlStream(s transport.Stream) *controlStream {
	return &controlStream{stream: s, reader: bufio.NewReader(s)}
}

// newControlStreamWithReader wraps a stream whose leading kind tag has
// already been consumed through r, reusing r instead of wrapping the
// stream in a fresh bufio.Reader that would lose whatever r already
// buffered ahead of the tag.
func newControlStreamWithReader(s transport.Stream, r *bufio.Reader) *controlStream {
	return &controlStream{stream: s, reader: r}
}

// Write sends an already-encoded message, serialized against concurrent
// writers on the same stream.
func (c *controlStream) Write(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.stream.Write(buf)
	return err
}

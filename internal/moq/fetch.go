package moq

import (
	"bufio"
	"context"

	"moqrelay/internal/transport"
	"moqrelay/internal/wire"
)

// respOk and respErr prefix a Fetch or Info response on its dedicated
// bidirectional stream, disambiguating a successful reply from an
// error one. Fetch and Info are each served as a single request on a
// freshly opened stream, so no request ID is needed to correlate the
// response.
const (
	respErr uint64 = 0
	respOk  uint64 = 1
)

// handleFetchStream serves one Fetch request on a dedicated stream the
// peer just opened, whose leading StreamKind tag has already been
// consumed into r.
func (p *Publisher) handleFetchStream(ctx context.Context, stream transport.Stream, r *bufio.Reader) {
	defer stream.Close()

	req, err := wire.DecodeFetch(r)
	if err != nil {
		return
	}

	broadcast, ok := p.broadcast(req.Broadcast)
	if !ok {
		writeRemoteError(stream, uint64(CodeUnknownBroadcast), "unknown broadcast")
		return
	}
	track, err := broadcast.Track(req.Track)
	if err != nil {
		writeRemoteError(stream, uint64(CodeUnknownTrack), "unknown track")
		return
	}
	group, err := track.FindGroup(req.Group)
	if err != nil {
		writeRemoteError(stream, uint64(CodeUnknownTrack), "group not available")
		return
	}
	defer group.Release()

	for i := uint64(0); i < req.Frame; i++ {
		if _, err := group.NextFrame(ctx); err != nil {
			writeRemoteError(stream, uint64(CodeInternal), "frame not available")
			return
		}
	}

	buf := wire.PutVarInt(nil, respOk)
	buf = wire.FetchHeader{Group: group.Sequence()}.Encode(buf)
	if _, err := stream.Write(buf); err != nil {
		return
	}
	for {
		frame, err := group.NextFrame(ctx)
		if err != nil {
			return
		}
		if _, err := stream.Write(wire.PutFrame(nil, frame)); err != nil {
			return
		}
	}
}

// handleInfoStream serves one InfoRequest on a dedicated stream.
func (p *Publisher) handleInfoStream(ctx context.Context, stream transport.Stream, r *bufio.Reader) {
	defer stream.Close()

	req, err := wire.DecodeInfoRequest(r)
	if err != nil {
		return
	}

	broadcast, ok := p.broadcast(req.Broadcast)
	if !ok {
		writeRemoteError(stream, uint64(CodeUnknownBroadcast), "unknown broadcast")
		return
	}
	track, err := broadcast.Track(req.Track)
	if err != nil {
		writeRemoteError(stream, uint64(CodeUnknownTrack), "unknown track")
		return
	}

	latest, _ := track.Latest()
	info := wire.Info{Priority: track.Priority, GroupLatest: latest, Order: wire.OrderAsc}
	buf := wire.PutVarInt(nil, respOk)
	buf = info.Encode(buf)
	stream.Write(buf)
}

func writeRemoteError(stream transport.SendStream, code uint64, reason string) {
	buf := wire.PutVarInt(nil, respErr)
	buf = wire.FetchError{Code: code, Reason: reason}.Encode(buf)
	stream.Write(buf)
}

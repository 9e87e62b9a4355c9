package wire

// GroupHeader begins every Group-kind unidirectional stream:
// [varint 0 (=Group)] [varint subscribe_id] [varint sequence] [varint priority].
// Frames follow as a sequence of [varint frame_len][bytes].
type GroupHeader struct {
	SubscribeID uint64
	Sequence    uint64
	Priority    uint64
}

// Encode appends the wire representation of h, including the leading
// UniGroup tag, to dst.
func (h GroupHeader) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(UniGroup))
	dst = PutVarInt(dst, h.SubscribeID)
	dst = PutVarInt(dst, h.Sequence)
	return PutVarInt(dst, h.Priority)
}

// DecodeGroupHeader reads a GroupHeader from r. The caller has already
// consumed the leading UniGroup tag.
func DecodeGroupHeader(r Reader) (GroupHeader, error) {
	var h GroupHeader
	var err error
	if h.SubscribeID, err = ReadVarInt(r); err != nil {
		return h, err
	}
	if h.Sequence, err = ReadVarInt(r); err != nil {
		return h, err
	}
	h.Priority, err = ReadVarInt(r)
	return h, err
}

// FetchHeader begins a successful Fetch reply, written back on the same
// bidirectional Fetch stream the request arrived on (not on a
// unidirectional stream); the frames of the requested range follow it
// in order.
type FetchHeader struct {
	Group uint64
}

// Encode appends the wire representation of h, including the leading
// UniFetch tag, to dst.
func (h FetchHeader) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(UniFetch))
	return PutVarInt(dst, h.Group)
}

// DecodeFetchHeader reads a FetchHeader from r. The caller has already
// consumed the leading UniFetch tag.
func DecodeFetchHeader(r Reader) (FetchHeader, error) {
	group, err := ReadVarInt(r)
	return FetchHeader{Group: group}, err
}

// PutFrame appends a varint length prefix followed by the frame payload.
func PutFrame(dst []byte, payload []byte) []byte {
	return PutBytes(dst, payload)
}

// ReadFrame reads one length-prefixed frame payload from r.
func ReadFrame(r Reader) ([]byte, error) {
	return ReadBytes(r)
}

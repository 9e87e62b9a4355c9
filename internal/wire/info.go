package wire

// InfoRequest asks the publisher for a track's current state without
// opening a subscription.
type InfoRequest struct {
	Broadcast string
	Track     string
}

// Encode appends the wire representation of m to dst.
func (m InfoRequest) Encode(dst []byte) []byte {
	dst = PutString(dst, m.Broadcast)
	return PutString(dst, m.Track)
}

// DecodeInfoRequest reads an InfoRequest from r.
func DecodeInfoRequest(r Reader) (InfoRequest, error) {
	var m InfoRequest
	var err error
	if m.Broadcast, err = ReadString(r); err != nil {
		return m, err
	}
	m.Track, err = ReadString(r)
	return m, err
}

// Info is the publisher's reply to an InfoRequest.
type Info struct {
	Priority    uint64
	GroupLatest uint64
	Order       GroupOrder
}

// Encode appends the wire representation of m to dst.
func (m Info) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, m.Priority)
	dst = PutVarInt(dst, m.GroupLatest)
	return PutVarInt(dst, uint64(m.Order))
}

// DecodeInfo reads an Info reply from r.
func DecodeInfo(r Reader) (Info, error) {
	var m Info
	var err error
	if m.Priority, err = ReadVarInt(r); err != nil {
		return m, err
	}
	if m.GroupLatest, err = ReadVarInt(r); err != nil {
		return m, err
	}
	order, err := ReadVarInt(r)
	m.Order = GroupOrder(order)
	return m, err
}

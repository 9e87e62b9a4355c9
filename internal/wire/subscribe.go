package wire

// SubscribeTag distinguishes the message kinds multiplexed on a single
// Subscribe-kind stream, which carries every subscription of a session
// for the session's lifetime.
type SubscribeTag uint64

const (
	TagSubscribe SubscribeTag = iota
	TagSubscribeUpdate
	TagSubscribeOk
	TagSubscribeError
	TagSubscribeDone
	TagUnsubscribe
	TagGroupDrop
)

// Subscribe opens a subscription for a broadcast+track pair. The subscriber
// chooses id, unique within the session.
type Subscribe struct {
	ID        uint64
	Broadcast string
	Track     string
	Priority  uint64
	Order     GroupOrder
}

// Encode appends the wire representation of m to dst, including the leading
// sub-message tag.
func (m Subscribe) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(TagSubscribe))
	dst = PutVarInt(dst, m.ID)
	dst = PutString(dst, m.Broadcast)
	dst = PutString(dst, m.Track)
	dst = PutVarInt(dst, m.Priority)
	return PutVarInt(dst, uint64(m.Order))
}

// DecodeSubscribe reads a Subscribe body from r. The caller has already
// consumed the leading tag.
func DecodeSubscribe(r Reader) (Subscribe, error) {
	var m Subscribe
	var err error
	if m.ID, err = ReadVarInt(r); err != nil {
		return m, err
	}
	if m.Broadcast, err = ReadString(r); err != nil {
		return m, err
	}
	if m.Track, err = ReadString(r); err != nil {
		return m, err
	}
	if m.Priority, err = ReadVarInt(r); err != nil {
		return m, err
	}
	order, err := ReadVarInt(r)
	m.Order = GroupOrder(order)
	return m, err
}

// SubscribeUpdate changes the priority or order of an active subscription.
type SubscribeUpdate struct {
	ID       uint64
	Priority uint64
	Order    GroupOrder
}

// Encode appends the wire representation of m to dst.
func (m SubscribeUpdate) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(TagSubscribeUpdate))
	dst = PutVarInt(dst, m.ID)
	dst = PutVarInt(dst, m.Priority)
	return PutVarInt(dst, uint64(m.Order))
}

// DecodeSubscribeUpdate reads a SubscribeUpdate body from r.
func DecodeSubscribeUpdate(r Reader) (SubscribeUpdate, error) {
	var m SubscribeUpdate
	var err error
	if m.ID, err = ReadVarInt(r); err != nil {
		return m, err
	}
	if m.Priority, err = ReadVarInt(r); err != nil {
		return m, err
	}
	order, err := ReadVarInt(r)
	m.Order = GroupOrder(order)
	return m, err
}

// SubscribeOk confirms a subscription and reports the latest produced
// group sequence at the time of acceptance.
type SubscribeOk struct {
	ID          uint64
	Priority    uint64
	GroupLatest uint64
}

// Encode appends the wire representation of m to dst.
func (m SubscribeOk) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(TagSubscribeOk))
	dst = PutVarInt(dst, m.ID)
	dst = PutVarInt(dst, m.Priority)
	return PutVarInt(dst, m.GroupLatest)
}

// DecodeSubscribeOk reads a SubscribeOk body from r.
func DecodeSubscribeOk(r Reader) (SubscribeOk, error) {
	var m SubscribeOk
	var err error
	if m.ID, err = ReadVarInt(r); err != nil {
		return m, err
	}
	if m.Priority, err = ReadVarInt(r); err != nil {
		return m, err
	}
	m.GroupLatest, err = ReadVarInt(r)
	return m, err
}

// SubscribeError reports that a subscription could not be fulfilled.
type SubscribeError struct {
	ID     uint64
	Code   uint64
	Reason string
}

// Encode appends the wire representation of m to dst.
func (m SubscribeError) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(TagSubscribeError))
	dst = PutVarInt(dst, m.ID)
	dst = PutVarInt(dst, m.Code)
	return PutString(dst, m.Reason)
}

// DecodeSubscribeError reads a SubscribeError body from r.
func DecodeSubscribeError(r Reader) (SubscribeError, error) {
	var m SubscribeError
	var err error
	if m.ID, err = ReadVarInt(r); err != nil {
		return m, err
	}
	if m.Code, err = ReadVarInt(r); err != nil {
		return m, err
	}
	m.Reason, err = ReadString(r)
	return m, err
}

// SubscribeDone terminates a subscription from either side.
type SubscribeDone struct {
	ID   uint64
	Code uint64
}

// Encode appends the wire representation of m to dst.
func (m SubscribeDone) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(TagSubscribeDone))
	dst = PutVarInt(dst, m.ID)
	return PutVarInt(dst, m.Code)
}

// DecodeSubscribeDone reads a SubscribeDone body from r.
func DecodeSubscribeDone(r Reader) (SubscribeDone, error) {
	var m SubscribeDone
	var err error
	if m.ID, err = ReadVarInt(r); err != nil {
		return m, err
	}
	m.Code, err = ReadVarInt(r)
	return m, err
}

// Unsubscribe cancels a subscription from the subscriber side.
type Unsubscribe struct {
	ID uint64
}

// Encode appends the wire representation of m to dst.
func (m Unsubscribe) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(TagUnsubscribe))
	return PutVarInt(dst, m.ID)
}

// DecodeUnsubscribe reads an Unsubscribe body from r.
func DecodeUnsubscribe(r Reader) (Unsubscribe, error) {
	id, err := ReadVarInt(r)
	return Unsubscribe{ID: id}, err
}

// GroupDrop reports that the publisher abandoned a group mid-stream. ID
// identifies which subscription it belongs to, since one Subscribe-kind
// stream multiplexes every subscription in the session.
type GroupDrop struct {
	ID       uint64
	Sequence uint64
	Count    uint64
	Code     uint32
}

// Encode appends the wire representation of m to dst.
func (m GroupDrop) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(TagGroupDrop))
	dst = PutVarInt(dst, m.ID)
	dst = PutVarInt(dst, m.Sequence)
	dst = PutVarInt(dst, m.Count)
	return PutVarInt(dst, uint64(m.Code))
}

// DecodeGroupDrop reads a GroupDrop body from r.
func DecodeGroupDrop(r Reader) (GroupDrop, error) {
	var m GroupDrop
	var err error
	if m.ID, err = ReadVarInt(r); err != nil {
		return m, err
	}
	if m.Sequence, err = ReadVarInt(r); err != nil {
		return m, err
	}
	if m.Count, err = ReadVarInt(r); err != nil {
		return m, err
	}
	code, err := ReadVarInt(r)
	m.Code = uint32(code)
	return m, err
}

package wire

import "errors"

// ErrUnknownTag is returned when a tagged union's leading varint does not
// match any known variant.
var ErrUnknownTag = errors.New("wire: unknown tag")

// Role is the negotiated direction of a session, exchanged during setup.
type Role uint64

const (
	RolePublisher Role = iota
	RoleSubscriber
	RoleBoth
)

// IsPublisher reports whether the role allows publishing.
func (r Role) IsPublisher() bool { return r == RolePublisher || r == RoleBoth }

// IsSubscriber reports whether the role allows subscribing.
func (r Role) IsSubscriber() bool { return r == RoleSubscriber || r == RoleBoth }

// GroupOrder controls the order in which a consumer pops ready groups.
type GroupOrder uint64

const (
	OrderAsc GroupOrder = iota
	OrderDesc
)

// StreamKind is the leading tag of every bidirectional control stream.
type StreamKind uint64

const (
	StreamSession StreamKind = iota
	StreamAnnounce
	StreamSubscribe
	StreamDatagrams
	StreamFetch
	StreamInfo
)

// UniStreamKind is the leading tag of every unidirectional data stream.
type UniStreamKind uint64

const (
	UniGroup UniStreamKind = iota
	UniFetch
)

// Params is an unordered bag of unknown setup parameters: [varint count]
// [varint key, varint len, bytes value]*.
type Params map[uint64][]byte

// Encode appends the wire representation of p to dst.
func (p Params) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(len(p)))
	for k, v := range p {
		dst = PutVarInt(dst, k)
		dst = PutBytes(dst, v)
	}
	return dst
}

// DecodeParams reads a Params value from r.
func DecodeParams(r Reader) (Params, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	p := make(Params, count)
	for i := uint64(0); i < count; i++ {
		key, err := ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		val, err := ReadBytes(r)
		if err != nil {
			return nil, err
		}
		p[key] = val
	}
	return p, nil
}

// ClientSetup is the first message sent by the client on the session stream.
type ClientSetup struct {
	Versions []uint64
	Role     Role
	Params   Params
}

const tagClientSetup = 0x40

// Encode appends the wire representation of m to dst.
func (m ClientSetup) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, tagClientSetup)
	dst = PutVarInt(dst, uint64(len(m.Versions)))
	for _, v := range m.Versions {
		dst = PutVarInt(dst, v)
	}
	dst = PutVarInt(dst, uint64(m.Role))
	return m.Params.Encode(dst)
}

// DecodeClientSetup reads a ClientSetup message from r. The caller has
// already consumed the leading tag.
func DecodeClientSetup(r Reader) (ClientSetup, error) {
	var m ClientSetup
	n, err := ReadVarInt(r)
	if err != nil {
		return m, err
	}
	m.Versions = make([]uint64, n)
	for i := range m.Versions {
		v, err := ReadVarInt(r)
		if err != nil {
			return m, err
		}
		m.Versions[i] = v
	}
	role, err := ReadVarInt(r)
	if err != nil {
		return m, err
	}
	m.Role = Role(role)
	m.Params, err = DecodeParams(r)
	return m, err
}

// ServerSetup is the server's reply on the session stream.
type ServerSetup struct {
	Version uint64
	Role    Role
	Params  Params
}

const tagServerSetup = 0x41

// Encode appends the wire representation of m to dst.
func (m ServerSetup) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, tagServerSetup)
	dst = PutVarInt(dst, m.Version)
	dst = PutVarInt(dst, uint64(m.Role))
	return m.Params.Encode(dst)
}

// DecodeServerSetup reads a ServerSetup message from r. The caller has
// already consumed the leading tag.
func DecodeServerSetup(r Reader) (ServerSetup, error) {
	var m ServerSetup
	var err error
	if m.Version, err = ReadVarInt(r); err != nil {
		return m, err
	}
	role, err := ReadVarInt(r)
	if err != nil {
		return m, err
	}
	m.Role = Role(role)
	m.Params, err = DecodeParams(r)
	return m, err
}

// PeekTag reads the leading varint tag of a message without further
// decoding, for dispatch purposes.
func PeekTag(r Reader) (uint64, error) {
	return ReadVarInt(r)
}

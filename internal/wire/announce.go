package wire

// AnnounceTag distinguishes the two message kinds sent on an Announce-kind
// stream.
type AnnounceTag uint64

const (
	TagAnnounce AnnounceTag = iota
	TagUnannounce
)

// Announce declares that the sender can produce the named broadcast.
type Announce struct {
	Path string
}

// Encode appends the wire representation of m to dst.
func (m Announce) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(TagAnnounce))
	return PutString(dst, m.Path)
}

// Unannounce retracts a previously announced broadcast.
type Unannounce struct {
	Path string
}

// Encode appends the wire representation of m to dst.
func (m Unannounce) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, uint64(TagUnannounce))
	return PutString(dst, m.Path)
}

// AnnounceMessage is either an Announce or an Unannounce, decoded from the
// leading tag on an Announce-kind stream.
type AnnounceMessage struct {
	Tag  AnnounceTag
	Path string
}

// DecodeAnnounceMessage reads one message from an Announce-kind stream.
func DecodeAnnounceMessage(r Reader) (AnnounceMessage, error) {
	tag, err := ReadVarInt(r)
	if err != nil {
		return AnnounceMessage{}, err
	}
	path, err := ReadString(r)
	if err != nil {
		return AnnounceMessage{}, err
	}
	switch AnnounceTag(tag) {
	case TagAnnounce, TagUnannounce:
		return AnnounceMessage{Tag: AnnounceTag(tag), Path: path}, nil
	default:
		return AnnounceMessage{}, ErrUnknownTag
	}
}

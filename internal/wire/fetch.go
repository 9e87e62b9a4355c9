package wire

// Fetch requests a single frame range outside the live window, on a
// dedicated Fetch-kind bidirectional stream.
type Fetch struct {
	Broadcast string
	Track     string
	Group     uint64
	Frame     uint64
}

// Encode appends the wire representation of m to dst.
func (m Fetch) Encode(dst []byte) []byte {
	dst = PutString(dst, m.Broadcast)
	dst = PutString(dst, m.Track)
	dst = PutVarInt(dst, m.Group)
	return PutVarInt(dst, m.Frame)
}

// DecodeFetch reads a Fetch request from r.
func DecodeFetch(r Reader) (Fetch, error) {
	var m Fetch
	var err error
	if m.Broadcast, err = ReadString(r); err != nil {
		return m, err
	}
	if m.Track, err = ReadString(r); err != nil {
		return m, err
	}
	if m.Group, err = ReadVarInt(r); err != nil {
		return m, err
	}
	m.Frame, err = ReadVarInt(r)
	return m, err
}

// FetchError reports that a fetch (or info request) could not be served.
// It is written as the reply on the request's stream, which is then
// closed normally rather than reset.
type FetchError struct {
	Code   uint64
	Reason string
}

// Encode appends the wire representation of m to dst.
func (m FetchError) Encode(dst []byte) []byte {
	dst = PutVarInt(dst, m.Code)
	return PutString(dst, m.Reason)
}

// DecodeFetchError reads a FetchError from r.
func DecodeFetchError(r Reader) (FetchError, error) {
	var m FetchError
	var err error
	if m.Code, err = ReadVarInt(r); err != nil {
		return m, err
	}
	m.Reason, err = ReadString(r)
	return m, err
}

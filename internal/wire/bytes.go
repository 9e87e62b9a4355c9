package wire

import "io"

// PutBytes appends a varint length prefix followed by b to dst.
func PutBytes(dst []byte, b []byte) []byte {
	dst = PutVarInt(dst, uint64(len(b)))
	return append(dst, b...)
}

// PutString appends a varint length prefix followed by the UTF-8 bytes of s
// to dst.
func PutString(dst []byte, s string) []byte {
	return PutBytes(dst, []byte(s))
}

// ReadBytes reads a varint-prefixed byte buffer from r.
func ReadBytes(r Reader) ([]byte, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadString reads a varint-prefixed UTF-8 string from r.
func ReadString(r Reader) (string, error) {
	b, err := ReadBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Reader is the minimal interface the codec needs to decode a message: a
// byte-at-a-time reader for varints plus io.Reader for bulk reads of
// already-length-known buffers.
type Reader interface {
	io.Reader
	io.ByteReader
}

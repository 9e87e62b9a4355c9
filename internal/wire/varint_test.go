package wire

import (
	"bufio"
	"bytes"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	cases := []uint64{
		0, 1, 63, 64, 16383, 16384, 1073741823, 1073741824,
		maxVarInt,
	}

	for _, v := range cases {
		buf := PutVarInt(nil, v)
		got, err := ReadVarInt(bufio.NewReader(bytes.NewReader(buf)))
		if err != nil {
			t.Fatalf("ReadVarInt(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: put %d, got %d", v, got)
		}
		if len(buf) != VarIntLen(v) {
			t.Fatalf("VarIntLen(%d) = %d, encoded %d bytes", v, VarIntLen(v), len(buf))
		}
	}
}

func TestVarIntMax62Bit(t *testing.T) {
	const want uint64 = 4611686018427387903 // 2^62 - 1
	if want != maxVarInt {
		t.Fatalf("test constant out of sync with maxVarInt: %d != %d", want, maxVarInt)
	}

	buf := PutVarInt(nil, want)
	if len(buf) != 8 {
		t.Fatalf("expected 8-byte encoding, got %d bytes", len(buf))
	}
	if buf[0]&0xc0 != 0xc0 {
		t.Fatalf("expected top two bits 11, got %#02x", buf[0])
	}

	got, err := ReadVarInt(bufio.NewReader(bytes.NewReader(buf)))
	if err != nil {
		t.Fatalf("ReadVarInt: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %d, want %d", got, want)
	}
}

func TestVarIntPanicsOnOverflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic encoding a value above the 62-bit range")
		}
	}()
	PutVarInt(nil, maxVarInt+1)
}

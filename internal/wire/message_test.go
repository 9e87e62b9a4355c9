package wire

import (
	"bufio"
	"bytes"
	"testing"
)

func TestClientSetupRoundTrip(t *testing.T) {
	m := ClientSetup{
		Versions: []uint64{1, 2, 3},
		Role:     RoleBoth,
		Params:   Params{7: []byte("hello")},
	}

	buf := m.Encode(nil)
	r := bufio.NewReader(bytes.NewReader(buf))

	tag, err := ReadVarInt(r)
	if err != nil {
		t.Fatalf("read tag: %v", err)
	}
	if tag != tagClientSetup {
		t.Fatalf("tag = %#x, want %#x", tag, tagClientSetup)
	}

	got, err := DecodeClientSetup(r)
	if err != nil {
		t.Fatalf("DecodeClientSetup: %v", err)
	}
	if len(got.Versions) != 3 || got.Versions[0] != 1 || got.Versions[2] != 3 {
		t.Fatalf("versions mismatch: %+v", got.Versions)
	}
	if got.Role != RoleBoth {
		t.Fatalf("role = %v, want %v", got.Role, RoleBoth)
	}
	if string(got.Params[7]) != "hello" {
		t.Fatalf("params mismatch: %+v", got.Params)
	}
}

func TestSubscribeRoundTrip(t *testing.T) {
	m := Subscribe{ID: 42, Broadcast: "cam", Track: "video", Priority: 5, Order: OrderDesc}
	buf := m.Encode(nil)
	r := bufio.NewReader(bytes.NewReader(buf))

	tag, err := ReadVarInt(r)
	if err != nil {
		t.Fatalf("read tag: %v", err)
	}
	if SubscribeTag(tag) != TagSubscribe {
		t.Fatalf("tag = %d, want %d", tag, TagSubscribe)
	}

	got, err := DecodeSubscribe(r)
	if err != nil {
		t.Fatalf("DecodeSubscribe: %v", err)
	}
	if got != m {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, m)
	}
}

func TestGroupHeaderRoundTrip(t *testing.T) {
	h := GroupHeader{SubscribeID: 9, Sequence: 100, Priority: 3}
	buf := h.Encode(nil)
	r := bufio.NewReader(bytes.NewReader(buf))

	tag, err := ReadVarInt(r)
	if err != nil {
		t.Fatalf("read tag: %v", err)
	}
	if UniStreamKind(tag) != UniGroup {
		t.Fatalf("tag = %d, want %d", tag, UniGroup)
	}

	got, err := DecodeGroupHeader(r)
	if err != nil {
		t.Fatalf("DecodeGroupHeader: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestAnnounceMessageUnknownTag(t *testing.T) {
	buf := PutVarInt(nil, 99)
	buf = PutString(buf, "x")
	_, err := DecodeAnnounceMessage(bufio.NewReader(bytes.NewReader(buf)))
	if err != ErrUnknownTag {
		t.Fatalf("err = %v, want ErrUnknownTag", err)
	}
}

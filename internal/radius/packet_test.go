package radius

import "testing"

func TestBuildPacketLengthMatchesSerializedSize(t *testing.T) {
	attrs := []rawAttr{
		{Type: AttrUserName, Value: []byte("alice")},
		{Type: AttrNASPort, Value: []byte{0, 0, 0, 0}},
	}
	var auth [16]byte
	pkt := buildPacket(CodeAccessRequest, 7, auth, attrs)

	gotLen := int(pkt[2])<<8 | int(pkt[3])
	if gotLen != len(pkt) {
		t.Errorf("length field = %d, want %d", gotLen, len(pkt))
	}
}

func TestWalkAttrsTruncatedFinalAttribute(t *testing.T) {
	// B1: final attribute's length byte runs past the datagram end.
	datagram := make([]byte, headerLen)
	datagram = append(datagram, AttrUserName, 10, 'a', 'b') // claims 8 bytes of value, only 2 present
	attrs := walkAttrs(datagram)
	if len(attrs) != 0 {
		t.Errorf("expected truncated attribute to be dropped, got %d attrs", len(attrs))
	}
}

func TestWalkAttrsStopsOnShortLength(t *testing.T) {
	// B2: an attribute with length < 2 stops the walk cleanly.
	datagram := make([]byte, headerLen)
	datagram = append(datagram, AttrUserName, 1) // length 1 is invalid (< 2)
	attrs := walkAttrs(datagram)
	if len(attrs) != 0 {
		t.Errorf("expected walk to stop cleanly, got %d attrs", len(attrs))
	}
}

func TestWalkAttrsMultipleValid(t *testing.T) {
	datagram := make([]byte, headerLen)
	a1 := rawAttr{Type: AttrUserName, Value: []byte("bob")}
	a2 := rawAttr{Type: AttrClass, Value: []byte("eng")}
	datagram = append(datagram, a1.encode()...)
	datagram = append(datagram, a2.encode()...)

	attrs := walkAttrs(datagram)
	if len(attrs) != 2 {
		t.Fatalf("got %d attrs, want 2", len(attrs))
	}
	if string(attrs[0].Value) != "bob" || string(attrs[1].Value) != "eng" {
		t.Errorf("unexpected values: %+v", attrs)
	}
}

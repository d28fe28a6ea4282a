package dictionary

import (
	"encoding/binary"
	"encoding/hex"
	"testing"
)

func TestDecodeIntegerRoundTrip(t *testing.T) {
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, 12345)

	const nasPort = 5 // NAS-Port, TypeInteger

	decoded := Decode(nasPort, raw)
	attr, ok := decoded.(*Attribute)
	if !ok {
		t.Fatalf("decode result type = %T", decoded)
	}
	if attr.Value.(uint32) != 12345 {
		t.Errorf("value = %v, want 12345", attr.Value)
	}

	// Decoding again is identical (R1).
	decoded2 := Decode(nasPort, raw)
	attr2 := decoded2.(*Attribute)
	if attr2.Value != attr.Value {
		t.Errorf("second decode = %v, want %v", attr2.Value, attr.Value)
	}
}

func TestDecodeVendorSpecificRoundTrip(t *testing.T) {
	payload := []byte{0, 0, 0, 9} // vendor id 9
	payload = append(payload, 1, 4, 0x41, 0x42)

	decoded := Decode(VendorSpecific, payload)
	va, ok := decoded.(*VendorAttribute)
	if !ok {
		t.Fatalf("decode result type = %T", decoded)
	}
	if va.VendorID != 9 {
		t.Errorf("vendor id = %d, want 9", va.VendorID)
	}
	if len(va.SubAttrs) != 1 {
		t.Fatalf("sub attrs = %d, want 1", len(va.SubAttrs))
	}
	if va.SubAttrs[0].VendorType != 1 {
		t.Errorf("sub attr type = %d, want 1", va.SubAttrs[0].VendorType)
	}
	if va.SubAttrs[0].ValueHex != "4142" {
		t.Errorf("sub attr value hex = %q, want 4142", va.SubAttrs[0].ValueHex)
	}

	// Decoding again yields the same ordered list (R2).
	decoded2 := Decode(VendorSpecific, payload)
	va2 := decoded2.(*VendorAttribute)
	if va2.SubAttrs[0] != va.SubAttrs[0] {
		t.Errorf("second decode differs: %+v vs %+v", va2.SubAttrs[0], va.SubAttrs[0])
	}
}

func TestDecodeVendorSpecificMalformedFallsBackToHex(t *testing.T) {
	payload := []byte{0, 0, 0, 9, 1, 1} // length byte says 1, but that's < 2
	decoded := Decode(VendorSpecific, payload)
	va := decoded.(*VendorAttribute)
	if va.SubAttrs != nil {
		t.Errorf("expected nil SubAttrs on malformed payload, got %+v", va.SubAttrs)
	}
	if va.RawHex != hex.EncodeToString(payload) {
		t.Errorf("raw hex mismatch")
	}
}

func TestDecodeUnknownAttributeFallsBackToHex(t *testing.T) {
	raw := []byte{0xde, 0xad}
	decoded := Decode(250, raw)
	attr := decoded.(*Attribute)
	if attr.Name != "Unknown-Attribute-250" {
		t.Errorf("name = %q", attr.Name)
	}
	if attr.Value != hex.EncodeToString(raw) {
		t.Errorf("value = %v, want hex fallback", attr.Value)
	}
}

func TestDecodeStringInvalidUTF8FallsBackToHex(t *testing.T) {
	raw := []byte{0xff, 0xfe, 0xfd}
	decoded := Decode(1, raw) // User-Name, TypeString
	attr := decoded.(*Attribute)
	if attr.Value != hex.EncodeToString(raw) {
		t.Errorf("value = %v, want hex fallback for invalid utf8", attr.Value)
	}
}

func TestDecodeIPv6AddressNoCompression(t *testing.T) {
	raw := make([]byte, 16)
	raw[15] = 1
	decoded := Decode(95, raw) // NAS-IPv6-Address
	attr := decoded.(*Attribute)
	want := "0:0:0:0:0:0:0:1"
	if attr.Value != want {
		t.Errorf("value = %v, want %v", attr.Value, want)
	}
}

func TestDecodeIPv6PrefixBoundary(t *testing.T) {
	// B3: prefix-length 64, eight bytes of data -> "<first-four-groups>:0:0:0:0/64"
	payload := []byte{0, 64, 0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0}
	decoded := Decode(97, payload) // Framed-IPv6-Prefix
	attr := decoded.(*Attribute)
	want := "2001:db8:0:0:0:0:0:0/64"
	if attr.Value != want {
		t.Errorf("value = %v, want %v", attr.Value, want)
	}
}

func TestDecodeIfID(t *testing.T) {
	raw := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77}
	decoded := Decode(96, raw) // Framed-Interface-Id
	attr := decoded.(*Attribute)
	want := "00:11:22:33:44:55:66:77"
	if attr.Value != want {
		t.Errorf("value = %v, want %v", attr.Value, want)
	}
}

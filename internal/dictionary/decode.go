package dictionary

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Attribute is a decoded response attribute (§3 "Decoded attribute", standard shape).
type Attribute struct {
	ID     uint8
	Name   string
	Value  any
	RawHex string
}

// VendorSubAttr is one parsed {type, value} tuple inside a Vendor-Specific payload.
type VendorSubAttr struct {
	VendorType uint8
	ValueHex   string
}

// VendorAttribute is a decoded Vendor-Specific attribute (id 26).
type VendorAttribute struct {
	ID       uint8
	Name     string
	VendorID uint32
	// SubAttrs holds the parsed sub-attribute list when the payload parses
	// cleanly and is nil otherwise. RawHex always holds the whole payload's hex.
	SubAttrs []VendorSubAttr
	RawHex   string
}

// Decode turns one (id, raw) pair into either an *Attribute or a
// *VendorAttribute. It never returns an error: unknown ids, wrong-length
// payloads, and invalid UTF-8 all degrade to a hex fallback per §4.1,
// since one bad attribute must not abort decoding the rest of a response.
func Decode(id uint8, raw []byte) any {
	if id == VendorSpecific {
		return decodeVendorSpecific(raw)
	}

	rawHex := hex.EncodeToString(raw)
	def, ok := Lookup(id)
	if !ok {
		return &Attribute{ID: id, Name: UnknownName(id), Value: rawHex, RawHex: rawHex}
	}

	value, ok := decodeValue(def.Type, raw)
	if !ok {
		value = rawHex
	}
	return &Attribute{ID: id, Name: def.Name, Value: value, RawHex: rawHex}
}

func decodeValue(t AttrType, raw []byte) (any, bool) {
	switch t {
	case TypeString:
		if !utf8.Valid(raw) {
			return nil, false
		}
		return string(raw), true
	case TypeInteger:
		if len(raw) != 4 {
			return nil, false
		}
		return binary.BigEndian.Uint32(raw), true
	case TypeInteger64:
		if len(raw) != 8 {
			return nil, false
		}
		return binary.BigEndian.Uint64(raw), true
	case TypeDate:
		if len(raw) != 4 {
			return nil, false
		}
		secs := binary.BigEndian.Uint32(raw)
		return time.Unix(int64(secs), 0).UTC(), true
	case TypeIPAddr:
		if len(raw) != 4 {
			return nil, false
		}
		return fmt.Sprintf("%d.%d.%d.%d", raw[0], raw[1], raw[2], raw[3]), true
	case TypeIPv6Addr:
		if len(raw) != 16 {
			return nil, false
		}
		return formatIPv6(raw), true
	case TypeIPv6Prefix:
		return decodeIPv6Prefix(raw)
	case TypeIfID:
		if len(raw) != 8 {
			return nil, false
		}
		return formatIfID(raw), true
	default:
		return nil, false
	}
}

// formatIPv6 renders 16 bytes as eight lowercase colon-hex groups without
// RFC 5952 zero compression, per §4.1.
func formatIPv6(b []byte) string {
	groups := make([]string, 8)
	for i := 0; i < 8; i++ {
		groups[i] = fmt.Sprintf("%x", binary.BigEndian.Uint16(b[i*2:i*2+2]))
	}
	return strings.Join(groups, ":")
}

func decodeIPv6Prefix(raw []byte) (any, bool) {
	if len(raw) < 2 {
		return nil, false
	}
	prefixLen := raw[1]
	payload := raw[2:]
	if len(payload) > 16 {
		return nil, false
	}
	padded := make([]byte, 16)
	copy(padded, payload)
	return fmt.Sprintf("%s/%d", formatIPv6(padded), prefixLen), true
}

func formatIfID(b []byte) string {
	parts := make([]string, 8)
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, ":")
}

// decodeVendorSpecific parses a Vendor-Specific payload (§4.1): a 4-byte
// big-endian vendor id followed by a walk of {type:u8, length:u8, value}
// tuples. If the payload is too short, or the walk doesn't consume it
// cleanly, the sub-attribute list is nil; RawHex carries the whole
// payload's hex in every case.
func decodeVendorSpecific(raw []byte) *VendorAttribute {
	rawHex := hex.EncodeToString(raw)
	va := &VendorAttribute{ID: VendorSpecific, Name: "Vendor-Specific", RawHex: rawHex}
	if len(raw) < 4 {
		return va
	}
	va.VendorID = binary.BigEndian.Uint32(raw[:4])

	body := raw[4:]
	subs, ok := walkSubAttrs(body)
	if ok && len(subs) > 0 {
		va.SubAttrs = subs
	}
	return va
}

func walkSubAttrs(body []byte) ([]VendorSubAttr, bool) {
	var subs []VendorSubAttr
	off := 0
	for off < len(body) {
		if off+2 > len(body) {
			return nil, false
		}
		t := body[off]
		l := int(body[off+1])
		if l < 2 || off+l > len(body) {
			return nil, false
		}
		value := body[off+2 : off+l]
		subs = append(subs, VendorSubAttr{VendorType: t, ValueHex: hex.EncodeToString(value)})
		off += l
	}
	return subs, off == len(body)
}

// Package radius implements the RADIUS PAP protocol engine: building an
// Access-Request, sending it over UDP, and validating/decoding the response
// (§4.2 of the protocol design). It uses internal/dictionary for
// attribute decoding.
package radius

import (
	"encoding/binary"
)

// Code is a RADIUS packet code (RFC 2865 §4.1).
type Code uint8

const (
	CodeAccessRequest Code = 1
	CodeAccessAccept  Code = 2
	CodeAccessReject  Code = 3
	CodeAccessChallenge Code = 11
)

// Attribute ids used by the protocol engine itself (request construction
// and assignment extraction). Response decoding uses the full dictionary.
const (
	AttrUserName            uint8 = 1
	AttrUserPassword        uint8 = 2
	AttrNASIPAddress         uint8 = 4
	AttrNASPort              uint8 = 5
	AttrClass                uint8 = 25
	AttrMessageAuthenticator uint8 = 80
	AttrVendorSpecific       uint8 = 26
)

// headerLen is the fixed RADIUS packet header size (§3).
const headerLen = 20

// rawAttr is one {type, value} pair awaiting serialization.
type rawAttr struct {
	Type  uint8
	Value []byte
}

// encode serializes a type/length/value attribute. Panics are never used;
// callers are expected to keep Value at most 253 bytes (RFC 2865 attributes
// cannot exceed 255 bytes including the 2-byte header).
func (a rawAttr) encode() []byte {
	buf := make([]byte, 2+len(a.Value))
	buf[0] = a.Type
	buf[1] = byte(len(a.Value) + 2)
	copy(buf[2:], a.Value)
	return buf
}

// buildPacket assembles header + attributes and fixes up the length field (I1).
func buildPacket(code Code, identifier byte, authenticator [16]byte, attrs []rawAttr) []byte {
	body := make([]byte, 0, 64)
	for _, a := range attrs {
		body = append(body, a.encode()...)
	}

	pkt := make([]byte, headerLen+len(body))
	pkt[0] = byte(code)
	pkt[1] = identifier
	binary.BigEndian.PutUint16(pkt[2:4], uint16(len(pkt)))
	copy(pkt[4:20], authenticator[:])
	copy(pkt[20:], body)
	return pkt
}

// walkAttrs reads the {type,length,value} attribute sequence starting at
// offset 20, stopping safely at or before the datagram end (I2, B1, B2).
func walkAttrs(datagram []byte) []rawAttr {
	var attrs []rawAttr
	off := headerLen
	for off < len(datagram) {
		if off+2 > len(datagram) {
			break
		}
		t := datagram[off]
		l := int(datagram[off+1])
		if l < 2 || off+l > len(datagram) {
			break
		}
		value := make([]byte, l-2)
		copy(value, datagram[off+2:off+l])
		attrs = append(attrs, rawAttr{Type: t, Value: value})
		off += l
	}
	return attrs
}

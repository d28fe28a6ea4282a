// Package dictionary provides the static RADIUS attribute dictionary and
// the decoder that turns raw attribute bytes into typed values using it.
package dictionary

import "fmt"

// AttrType is the semantic type of a dictionary attribute.
type AttrType int

const (
	TypeString AttrType = iota // UTF-8 text
	TypeInteger                // big-endian uint32
	TypeInteger64              // big-endian uint64
	TypeDate                   // big-endian uint32 seconds since epoch
	TypeIPAddr                 // 4-byte IPv4 address
	TypeIPv6Addr               // 16-byte IPv6 address
	TypeIPv6Prefix             // {reserved, prefix_len, bytes...}
	TypeIfID                   // 8-byte interface identifier
)

// VendorSpecific is the attribute id of the Vendor-Specific container (RFC 2865 §5.26).
const VendorSpecific = 26

// AttrDef describes one dictionary entry.
type AttrDef struct {
	ID   uint8
	Name string
	Type AttrType
}

// attrRegistry maps standard RADIUS attribute ids (RFC 2865/2866/2869) to
// their name and semantic type. This is data, not design: ids and names
// come straight from the RFCs, the way the DHCP option registry in the
// teacher repo is a flat table of RFC-assigned codes.
var attrRegistry = map[uint8]AttrDef{
	1:  {1, "User-Name", TypeString},
	2:  {2, "User-Password", TypeString},
	3:  {3, "CHAP-Password", TypeString},
	4:  {4, "NAS-IP-Address", TypeIPAddr},
	5:  {5, "NAS-Port", TypeInteger},
	6:  {6, "Service-Type", TypeInteger},
	7:  {7, "Framed-Protocol", TypeInteger},
	8:  {8, "Framed-IP-Address", TypeIPAddr},
	9:  {9, "Framed-IP-Netmask", TypeIPAddr},
	10: {10, "Framed-Routing", TypeInteger},
	11: {11, "Filter-Id", TypeString},
	12: {12, "Framed-MTU", TypeInteger},
	13: {13, "Framed-Compression", TypeInteger},
	14: {14, "Login-IP-Host", TypeIPAddr},
	15: {15, "Login-Service", TypeInteger},
	16: {16, "Login-TCP-Port", TypeInteger},
	18: {18, "Reply-Message", TypeString},
	19: {19, "Callback-Number", TypeString},
	20: {20, "Callback-Id", TypeString},
	22: {22, "Framed-Route", TypeString},
	23: {23, "Framed-IPX-Network", TypeInteger},
	24: {24, "State", TypeString},
	25: {25, "Class", TypeString},
	26: {26, "Vendor-Specific", TypeString}, // handled specially by the decoder
	27: {27, "Session-Timeout", TypeInteger},
	28: {28, "Idle-Timeout", TypeInteger},
	29: {29, "Termination-Action", TypeInteger},
	30: {30, "Called-Station-Id", TypeString},
	31: {31, "Calling-Station-Id", TypeString},
	32: {32, "NAS-Identifier", TypeString},
	33: {33, "Proxy-State", TypeString},
	34: {34, "Login-LAT-Service", TypeString},
	35: {35, "Login-LAT-Node", TypeString},
	36: {36, "Login-LAT-Group", TypeString},
	37: {37, "Framed-AppleTalk-Link", TypeInteger},
	38: {38, "Framed-AppleTalk-Network", TypeInteger},
	39: {39, "Framed-AppleTalk-Zone", TypeString},
	40: {40, "Acct-Status-Type", TypeInteger},
	41: {41, "Acct-Delay-Time", TypeInteger},
	42: {42, "Acct-Input-Octets", TypeInteger},
	43: {43, "Acct-Output-Octets", TypeInteger},
	44: {44, "Acct-Session-Id", TypeString},
	45: {45, "Acct-Authentic", TypeInteger},
	46: {46, "Acct-Session-Time", TypeInteger},
	47: {47, "Acct-Input-Packets", TypeInteger},
	48: {48, "Acct-Output-Packets", TypeInteger},
	49: {49, "Acct-Terminate-Cause", TypeInteger},
	50: {50, "Acct-Multi-Session-Id", TypeString},
	51: {51, "Acct-Link-Count", TypeInteger},
	55: {55, "Event-Timestamp", TypeDate},
	60: {60, "CHAP-Challenge", TypeString},
	61: {61, "NAS-Port-Type", TypeInteger},
	62: {62, "Port-Limit", TypeInteger},
	63: {63, "Login-LAT-Port", TypeString},
	64: {64, "Tunnel-Type", TypeInteger},
	65: {65, "Tunnel-Medium-Type", TypeInteger},
	66: {66, "Tunnel-Client-Endpoint", TypeString},
	67: {67, "Tunnel-Server-Endpoint", TypeString},
	68: {68, "Acct-Tunnel-Connection", TypeString},
	77: {77, "Connect-Info", TypeString},
	79: {79, "EAP-Message", TypeString},
	80: {80, "Message-Authenticator", TypeString},
	87: {87, "NAS-Port-Id", TypeString},
	95: {95, "NAS-IPv6-Address", TypeIPv6Addr},
	96: {96, "Framed-Interface-Id", TypeIfID},
	97: {97, "Framed-IPv6-Prefix", TypeIPv6Prefix},
	98: {98, "Login-IPv6-Host", TypeIPv6Addr},
	99: {99, "Framed-IPv6-Route", TypeString},
	100: {100, "Framed-IPv6-Pool", TypeString},
}

// Lookup returns the dictionary definition for an attribute id. The
// boolean is false for an id missing from the dictionary; callers name
// such attributes with UnknownName and read their value as hex.
func Lookup(id uint8) (AttrDef, bool) {
	def, ok := attrRegistry[id]
	return def, ok
}

// UnknownName builds the name used for an id missing from the dictionary.
func UnknownName(id uint8) string {
	return fmt.Sprintf("Unknown-Attribute-%d", id)
}

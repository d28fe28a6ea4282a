package radius

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/athena-dhcpd/radiusfailover/internal/dictionary"
	"github.com/athena-dhcpd/radiusfailover/internal/logging"
)

// ErrorCode enumerates the fixed outcome strings from §7. These are
// never Go errors: a non-empty ErrorCode on a Result is a normal, expected
// outcome, not a fault.
type ErrorCode string

const (
	ErrTimeout               ErrorCode = "timeout"
	ErrMalformedResponse     ErrorCode = "malformed_response"
	ErrAuthenticatorMismatch ErrorCode = "authenticator_mismatch"
	ErrAccessReject          ErrorCode = "access_reject"
	ErrAccessChallenge       ErrorCode = "access_challenge"
	ErrUnknownCode           ErrorCode = "unknown_code"
)

// DefaultPort is the standard RADIUS authentication UDP port.
const DefaultPort = 1812

// DefaultTimeout is the per-call timeout when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// DefaultAssignmentAttributeID is RFC 2865 attribute 25 (Class), used
// when Options.AssignmentAttributeID is zero.
const DefaultAssignmentAttributeID = 25

// Options are the immutable per-call settings described in §3 "Protocol options".
type Options struct {
	Secret                []byte
	Port                  int
	Timeout               time.Duration
	AssignmentAttributeID uint8
	VendorID              *uint32
	VendorType            *uint8
	ValuePattern          *regexp.Regexp
}

func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.AssignmentAttributeID == 0 {
		o.AssignmentAttributeID = DefaultAssignmentAttributeID
	}
	return o
}

// Result is the structured outcome of one Authenticate call (§3 "Authentication result").
type Result struct {
	OK         bool
	Class      string
	Attributes []any // *dictionary.Attribute or *dictionary.VendorAttribute
	RawHex     string
	Error      ErrorCode
}

// Client is the RADIUS protocol engine (component C): it owns no
// per-host state — the failover controller and client façade do — and
// performs exactly one request/response transaction per call.
type Client struct {
	logger logging.Logger
}

// NewClient creates a protocol engine bound to the given logger.
func NewClient(logger logging.Logger) *Client {
	return &Client{logger: logger}
}

// Authenticate performs one PAP Access-Request/Access-Accept exchange
// against host:port (§4.2). Socket and randomness failures are returned
// as a Go error (a fault, §7); every other negative outcome is reported
// through Result.Error.
func (c *Client) Authenticate(ctx context.Context, host, user, password string, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if len(opts.Secret) == 0 {
		return Result{}, fmt.Errorf("radius: shared secret is empty")
	}

	identifier, requestAuthenticator, err := freshIdentifiers()
	if err != nil {
		return Result{}, fmt.Errorf("radius: generating identifiers: %w", err)
	}

	packet, err := buildAccessRequest(opts.Secret, identifier, requestAuthenticator, user, password)
	if err != nil {
		return Result{}, fmt.Errorf("radius: building request: %w", err)
	}

	addr := net.JoinHostPort(resolveHost(host), strconv.Itoa(opts.Port))

	callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	tr := transact(callCtx, addr, packet, opts.Timeout)
	if tr.TimedOut {
		return Result{Error: ErrTimeout}, nil
	}
	if tr.Err != nil {
		return Result{}, fmt.Errorf("radius: transport error: %w", tr.Err)
	}

	return c.classify(tr.Datagram, opts.Secret, requestAuthenticator, opts), nil
}

// freshIdentifiers draws a random 1-byte identifier and 16-byte request
// authenticator from a cryptographically secure source, per the §9 open
// question on randomness quality.
func freshIdentifiers() (byte, [16]byte, error) {
	var buf [17]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, [16]byte{}, err
	}
	var authenticator [16]byte
	copy(authenticator[:], buf[1:])
	return buf[0], authenticator, nil
}

// buildAccessRequest constructs the Access-Request attributes in the
// exact order fixed by §4.2, then patches in the Message-Authenticator HMAC.
func buildAccessRequest(secret []byte, identifier byte, requestAuthenticator [16]byte, user, password string) ([]byte, error) {
	attrs := []rawAttr{
		{Type: AttrUserName, Value: []byte(user)},
		{Type: AttrUserPassword, Value: obfuscatePassword(secret, requestAuthenticator, []byte(password))},
		{Type: AttrNASIPAddress, Value: []byte{127, 0, 0, 1}},
		{Type: AttrNASPort, Value: []byte{0, 0, 0, 0}},
		{Type: AttrMessageAuthenticator, Value: make([]byte, 16)},
	}

	packet := buildPacket(CodeAccessRequest, identifier, requestAuthenticator, attrs)

	// The Message-Authenticator is the last attribute; its value is the
	// trailing 16 bytes of the assembled packet. Patch in place.
	mac := messageAuthenticatorHMAC(secret, packet)
	copy(packet[len(packet)-16:], mac[:])
	return packet, nil
}

// messageAuthenticatorHMAC computes HMAC-MD5 over the full packet with
// the Message-Authenticator value zeroed (RFC 2869 §5.14). HMAC errors
// are non-fatal per §4.2: on failure the zeroed value is sent as-is,
// since some servers do not require the attribute.
func messageAuthenticatorHMAC(secret, packetWithZeroedMAC []byte) (mac [16]byte) {
	defer func() {
		if recover() != nil {
			mac = [16]byte{}
		}
	}()
	h := hmac.New(md5.New, secret)
	h.Write(packetWithZeroedMAC)
	copy(mac[:], h.Sum(nil))
	return mac
}

// classify validates the response authenticator, walks and decodes
// attributes, extracts the assignment value, and builds the final Result.
func (c *Client) classify(datagram, secret []byte, requestAuthenticator [16]byte, opts Options) Result {
	rawHex := hex.EncodeToString(datagram)

	if len(datagram) < headerLen {
		return Result{Error: ErrMalformedResponse, RawHex: rawHex}
	}

	code := Code(datagram[0])
	responseAuthenticator := datagram[4:20]
	attrBytes := datagram[20:]

	if !c.verifyResponseAuthenticator(code, datagram[1], len(datagram), requestAuthenticator, attrBytes, secret, responseAuthenticator) {
		return Result{Error: ErrAuthenticatorMismatch, RawHex: rawHex}
	}

	rawAttrs := walkAttrs(datagram)
	decoded := make([]any, 0, len(rawAttrs))
	var matches []string
	for _, a := range rawAttrs {
		decoded = append(decoded, dictionary.Decode(a.Type, a.Value))
		if a.Type == opts.AssignmentAttributeID {
			if v, ok := extractAssignment(a, opts); ok {
				matches = append(matches, v)
			}
		}
	}

	result := Result{Attributes: decoded, RawHex: rawHex}
	if len(matches) > 0 {
		result.Class = matches[0]
	}

	switch code {
	case CodeAccessAccept:
		result.OK = true
	case CodeAccessReject:
		result.Error = ErrAccessReject
	case CodeAccessChallenge:
		result.Error = ErrAccessChallenge
	default:
		result.Error = ErrUnknownCode
	}
	return result
}

// verifyResponseAuthenticator checks the RFC 2865 §3 Response-Authenticator:
// MD5(code || identifier || length || request-authenticator || attributes || secret).
// A panic inside the hash path (the §9 open question) is treated as a
// mismatch rather than as bypassed verification.
func (c *Client) verifyResponseAuthenticator(code Code, identifier byte, datagramLen int, requestAuthenticator [16]byte, attrBytes, secret, responseAuthenticator []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("response authenticator verification panicked", "error", r)
			ok = false
		}
	}()

	lengthBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(lengthBytes, uint16(datagramLen))

	h := md5.New()
	h.Write([]byte{byte(code), identifier})
	h.Write(lengthBytes)
	h.Write(requestAuthenticator[:])
	h.Write(attrBytes)
	h.Write(secret)
	expected := h.Sum(nil)

	return hmac.Equal(expected, responseAuthenticator)
}

// extractAssignment implements §4.2 "Assignment extraction" for one
// matching attribute occurrence.
func extractAssignment(a rawAttr, opts Options) (string, bool) {
	var s string
	if a.Type == AttrVendorSpecific && opts.VendorID != nil && opts.VendorType != nil {
		if len(a.Value) < 6 {
			return "", false
		}
		vendorID := binary.BigEndian.Uint32(a.Value[:4])
		vendorType := a.Value[4]
		vendorLength := int(a.Value[5])
		if vendorID != *opts.VendorID || vendorType != *opts.VendorType {
			return "", false
		}
		if vendorLength < 2 || 6+vendorLength-2 > len(a.Value) {
			return "", false
		}
		s = string(a.Value[6 : 6+vendorLength-2])
	} else {
		s = string(a.Value)
	}

	if opts.ValuePattern == nil {
		return s, true
	}
	m := opts.ValuePattern.FindStringSubmatch(s)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

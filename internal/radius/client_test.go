package radius

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"encoding/binary"
	"log/slog"
	"net"
	"os"
	"strconv"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeServer is a minimal one-shot RADIUS responder used to exercise the
// protocol engine end to end without any third-party server dependency,
// mirroring how the DNS-proxy tests spin up a real loopback listener
// instead of mocking the socket.
type fakeServer struct {
	conn   *net.UDPConn
	secret []byte
}

func newFakeServer(t *testing.T, secret string) *fakeServer {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return &fakeServer{conn: conn, secret: []byte(secret)}
}

func (s *fakeServer) hostPort(t *testing.T) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(s.conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return host, port
}

func (s *fakeServer) close() { s.conn.Close() }

// respondOnce reads one request and replies with the given code, signing
// a correctly computed Response-Authenticator over the given attributes.
func (s *fakeServer) respondOnce(code Code, attrs []rawAttr) {
	buf := make([]byte, 4096)
	s.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, from, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		return
	}
	req := buf[:n]
	identifier := req[1]
	requestAuthenticator := req[4:20]

	var body []byte
	for _, a := range attrs {
		body = append(body, a.encode()...)
	}
	pkt := make([]byte, headerLen+len(body))
	pkt[0] = byte(code)
	pkt[1] = identifier
	binary.BigEndian.PutUint16(pkt[2:4], uint16(len(pkt)))
	copy(pkt[20:], body)

	h := md5.New()
	h.Write(pkt[0:2])
	h.Write(pkt[2:4])
	h.Write(requestAuthenticator)
	h.Write(pkt[20:])
	h.Write(s.secret)
	copy(pkt[4:20], h.Sum(nil))

	s.conn.WriteToUDP(pkt, from)
}

func (s *fakeServer) dontRespond() {
	buf := make([]byte, 4096)
	s.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	s.conn.ReadFromUDP(buf) // drain the request, reply with nothing
}

func TestAuthenticateAccessAccept(t *testing.T) {
	srv := newFakeServer(t, "testsecret")
	defer srv.close()

	go srv.respondOnce(CodeAccessAccept, []rawAttr{
		{Type: AttrClass, Value: []byte("group-42")},
	})

	host, port := srv.hostPort(t)
	c := NewClient(testLogger())
	result, err := c.Authenticate(context.Background(), host, "alice", "s3cret", Options{
		Secret: []byte("testsecret"),
		Port:   port,
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected OK, got %+v", result)
	}
	if result.Class != "group-42" {
		t.Errorf("class = %q, want group-42", result.Class)
	}
}

func TestAuthenticateAccessReject(t *testing.T) {
	srv := newFakeServer(t, "testsecret")
	defer srv.close()

	go srv.respondOnce(CodeAccessReject, nil)

	host, port := srv.hostPort(t)
	c := NewClient(testLogger())
	result, err := c.Authenticate(context.Background(), host, "alice", "wrong", Options{
		Secret: []byte("testsecret"),
		Port:   port,
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result.OK {
		t.Fatal("expected not-OK")
	}
	if result.Error != ErrAccessReject {
		t.Errorf("error = %q, want access_reject", result.Error)
	}
}

func TestAuthenticateTimeout(t *testing.T) {
	srv := newFakeServer(t, "testsecret")
	defer srv.close()

	go srv.dontRespond()

	host, port := srv.hostPort(t)
	c := NewClient(testLogger())
	result, err := c.Authenticate(context.Background(), host, "alice", "s3cret", Options{
		Secret:  []byte("testsecret"),
		Port:    port,
		Timeout: 300 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result.Error != ErrTimeout {
		t.Errorf("error = %q, want timeout", result.Error)
	}
}

func TestAuthenticateAuthenticatorMismatch(t *testing.T) {
	srv := newFakeServer(t, "wrongsecret") // signs with a different secret than the client uses
	defer srv.close()

	go srv.respondOnce(CodeAccessAccept, nil)

	host, port := srv.hostPort(t)
	c := NewClient(testLogger())
	result, err := c.Authenticate(context.Background(), host, "alice", "s3cret", Options{
		Secret: []byte("testsecret"),
		Port:   port,
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result.Error != ErrAuthenticatorMismatch {
		t.Errorf("error = %q, want authenticator_mismatch", result.Error)
	}
}

func TestAuthenticateEmptySecretIsFault(t *testing.T) {
	c := NewClient(testLogger())
	_, err := c.Authenticate(context.Background(), "127.0.0.1", "alice", "s3cret", Options{Port: 1812})
	if err == nil {
		t.Fatal("expected fault for empty secret")
	}
}

func TestObfuscatePasswordEmptyProducesOneBlock(t *testing.T) {
	var auth [16]byte
	out := obfuscatePassword([]byte("secret"), auth, nil)
	if len(out) != 16 {
		t.Errorf("len = %d, want 16", len(out))
	}
}

func TestMessageAuthenticatorHMACDeterministic(t *testing.T) {
	pkt := make([]byte, 38)
	mac1 := messageAuthenticatorHMAC([]byte("secret"), pkt)
	mac2 := messageAuthenticatorHMAC([]byte("secret"), pkt)
	if !hmac.Equal(mac1[:], mac2[:]) {
		t.Error("HMAC should be deterministic for identical input")
	}
}

package radius

import (
	"context"
	"net"
	"time"

	"golang.org/x/net/ipv4"
)

// transactionResult is the outcome of racing a datagram against a timer,
// matching the "callback-based socket completion -> explicit outcome
// channel" design note: exactly one of Datagram/TimedOut/Err is set.
type transactionResult struct {
	Datagram []byte
	TimedOut bool
	Err      error
}

// transact opens a fresh UDP v4 socket, sends one datagram to addr, and
// waits for the first of {response, timer, socket error}. The socket is
// always closed before transact returns (resource discipline, §5).
func transact(ctx context.Context, addr string, payload []byte, timeout time.Duration) transactionResult {
	conn, err := net.ListenPacket("udp4", "")
	if err != nil {
		return transactionResult{Err: err}
	}
	defer conn.Close()

	// Wrapping in ipv4.PacketConn lets the transaction pin a conservative
	// TTL on outgoing Access-Requests; RADIUS traffic never needs to
	// survive more than a handful of hops to a cooperating server.
	p := ipv4.NewPacketConn(conn)
	_ = p.SetTTL(32)

	dst, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return transactionResult{Err: err}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return transactionResult{Err: err}
	}

	if _, err := conn.WriteTo(payload, dst); err != nil {
		return transactionResult{Err: err}
	}

	buf := make([]byte, 4096)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return transactionResult{TimedOut: true}
		}
		return transactionResult{Err: err}
	}

	datagram := make([]byte, n)
	copy(datagram, buf[:n])
	return transactionResult{Datagram: datagram}
}

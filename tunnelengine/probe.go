package tunnelengine

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/opentracing/opentracing-go"
)

// DefaultProbeTimeout bounds how long probeReachable waits for the SOCKS
// listener to come up and complete a method handshake before giving up.
const DefaultProbeTimeout = 3 * time.Second

// socks5Greeting asks for no-authentication only; any listener speaking
// SOCKS5 accepts or rejects it without needing a live CONNECT target.
var socks5Greeting = []byte{0x05, 0x01, 0x00}

// probeReachable dials the local SOCKS listener on localPort, retrying the
// connect until it succeeds or timeout elapses, and completes
// only the version/method negotiation step of the handshake, not a verified
// round-trip through the remote tunnel: a CONNECT would need a live target
// on the far end, which this probe has no way to supply.
func probeReachable(ctx context.Context, localPort int, timeout time.Duration) bool {
	sp, ctx := opentracing.StartSpanFromContext(ctx, "strategyengine.tunnelengine.probe")
	defer sp.Finish()

	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(localPort))
	conn, err := d.DialContext(probeCtx, "tcp", addr)
	for err != nil {
		// Nothing is listening yet: retry until the listener comes up or
		// the timeout elapses.
		select {
		case <-probeCtx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
		}
		conn, err = d.DialContext(probeCtx, "tcp", addr)
	}
	defer conn.Close()

	if deadline, ok := probeCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(socks5Greeting); err != nil {
		return false
	}

	reply := make([]byte, 2)
	if _, err := fullRead(conn, reply); err != nil {
		return false
	}
	return reply[0] == 0x05
}

func fullRead(conn net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := conn.Read(buf[n:])
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

package tunnelengine

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProbeReachableFalseWhenNothingListening(t *testing.T) {
	require := require.New(t)
	ok := probeReachable(context.Background(), 19999, 200*time.Millisecond)
	require.False(ok)
}

func TestProbeReachableTrueOnSocks5MethodHandshake(t *testing.T) {
	require := require.New(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		greeting := make([]byte, 3)
		if _, err := fullRead(conn, greeting); err != nil {
			return
		}
		_, _ = conn.Write([]byte{0x05, 0x00})
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	ok := probeReachable(context.Background(), port, time.Second)
	require.True(ok)
}

package tunnelengine

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/reachnet/strategyengine/catalog"
	"github.com/reachnet/strategyengine/portalloc"
	"github.com/reachnet/strategyengine/tempfile"

	"github.com/stretchr/testify/require"
)

const validURI = "vless://550e8400-e29b-41d4-a716-446655440000@example.com:443?security=tls&sni=example.com&type=ws&path=%2Fws#primary"

func tunnelStrategy(id, uri string) catalog.Strategy {
	return catalog.Strategy{
		ID:             id,
		Family:         catalog.FamilyTunnel,
		BinaryPath:     "/bin/sh",
		LaunchTemplate: []string{"-c", "sleep 30"},
		TunnelURI:      uri,
	}
}

func TestTunnelStartHappyPath(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	tempfileRoot(t, dir)

	r := NewRunner()
	r.Ports = portalloc.New(19800, 10)
	r.Probe = func(ctx context.Context, port int, timeout time.Duration) bool { return true }

	inst, err := r.Start(context.Background(), tunnelStrategy("zt1", validURI))
	require.NoError(err)
	require.Equal("zt1", inst.StrategyID)
	require.Greater(inst.Lease.Port(), 0)

	_, statErr := os.Stat(inst.ConfigFile.Path)
	require.NoError(statErr, "config file must exist while instance is running")

	defer inst.Stop(time.Second)
}

func TestTunnelUnreachablePropagatesAndCleansUp(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	tempfileRoot(t, dir)

	r := NewRunner()
	r.Ports = portalloc.New(19810, 10)
	r.Probe = func(ctx context.Context, port int, timeout time.Duration) bool { return false }

	_, err := r.Start(context.Background(), tunnelStrategy("zt2", validURI))
	require.Error(err)
	require.True(ErrUnreachable.Is(err))

	lease, leaseErr := r.Ports.Acquire()
	require.NoError(leaseErr, "port must have been released after unreachable cleanup")
	lease.Release()
}

func TestTunnelInvalidUUIDIsConfigInvalidWithoutSideEffects(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	tempfileRoot(t, dir)

	r := NewRunner()
	r.Ports = portalloc.New(19820, 10)

	_, err := r.Start(context.Background(), tunnelStrategy("zt3", "vless://not-a-uuid@example.com:443"))
	require.Error(err)
	require.True(ErrConfigInvalid.Is(err))

	entries, readErr := os.ReadDir(dir)
	require.NoError(readErr)
	require.Empty(entries, "no temp config file should be left behind")

	lease, leaseErr := r.Ports.Acquire()
	require.NoError(leaseErr)
	require.Equal(19820, lease.Port(), "no port should have been consumed before validation failed")
	lease.Release()
}

func TestTunnelRejectsNonTunnelFamily(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	tempfileRoot(t, dir)

	r := NewRunner()
	r.Ports = portalloc.New(19830, 10)

	s := tunnelStrategy("zt4", validURI)
	s.Family = catalog.FamilyFilter

	_, err := r.Start(context.Background(), s)
	require.Error(err)
	require.True(ErrConfigInvalid.Is(err))
}

func TestTunnelPortsExhausted(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	tempfileRoot(t, dir)

	r := NewRunner()
	r.Ports = portalloc.New(19840, 1)
	held, err := r.Ports.Acquire()
	require.NoError(err)
	defer held.Release()

	_, err = r.Start(context.Background(), tunnelStrategy("zt5", validURI))
	require.Error(err)
	require.True(ErrPortsExhausted.Is(err))
}

// tempfileRoot points the tempfile package's Root at dir for the duration
// of the test and restores it on cleanup.
func tempfileRoot(t *testing.T, dir string) {
	t.Helper()
	old := tempfile.Root
	tempfile.Root = dir
	t.Cleanup(func() { tempfile.Root = old })
}

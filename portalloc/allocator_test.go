package portalloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAcquireReturnsPortInWindow(t *testing.T) {
	require := require.New(t)
	a := New(DefaultPortBase, DefaultPortCount)

	l, err := a.Acquire()
	require.NoError(err)
	require.GreaterOrEqual(l.Port(), DefaultPortBase)
	require.Less(l.Port(), DefaultPortBase+DefaultPortCount)
	l.Release()
}

func TestNoTwoLiveLeasesShareAPort(t *testing.T) {
	require := require.New(t)
	a := New(DefaultPortBase, 5)

	seen := make(map[int]bool)
	leases := make([]*Lease, 0, 5)
	for i := 0; i < 5; i++ {
		l, err := a.Acquire()
		require.NoError(err)
		require.False(seen[l.Port()])
		seen[l.Port()] = true
		leases = append(leases, l)
	}

	_, err := a.Acquire()
	require.Error(err)
	require.True(ErrPortsExhausted.Is(err))

	for _, l := range leases {
		l.Release()
	}
}

func TestReleasedPortIsReusable(t *testing.T) {
	require := require.New(t)
	a := New(DefaultPortBase, 1)

	l1, err := a.Acquire()
	require.NoError(err)
	port := l1.Port()
	l1.Release()

	l2, err := a.Acquire()
	require.NoError(err)
	require.Equal(port, l2.Port())
	l2.Release()
}

func TestReleaseIsIdempotent(t *testing.T) {
	require := require.New(t)
	a := New(DefaultPortBase, 1)

	l, err := a.Acquire()
	require.NoError(err)
	l.Release()
	l.Release()

	l2, err := a.Acquire()
	require.NoError(err)
	l2.Release()
}

func TestConcurrentAcquireNeverDoubleHandsOut(t *testing.T) {
	require := require.New(t)
	a := New(DefaultPortBase, 10)

	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup
	leases := make([]*Lease, 10)

	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := a.Acquire()
			require.NoError(err)
			mu.Lock()
			require.False(seen[l.Port()])
			seen[l.Port()] = true
			mu.Unlock()
			leases[i] = l
		}()
	}
	wg.Wait()

	for _, l := range leases {
		l.Release()
	}
}

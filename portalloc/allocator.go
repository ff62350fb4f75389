// Package portalloc hands out loopback ports from a bounded window for the
// local SOCKS listeners tunnel-family helpers bind to.
package portalloc

import (
	"net"
	"os"
	"strconv"
	"sync"

	"gopkg.in/src-d/go-errors.v1"
)

// ErrPortsExhausted is returned by Acquire when no port in the configured
// window is currently free.
var ErrPortsExhausted = errors.NewKind("no free port in [%d, %d)")

// Default window bounds, overridable via STRATEGYD_PORT_BASE /
// STRATEGYD_PORT_COUNT.
const (
	DefaultPortBase  = 10800
	DefaultPortCount = 100
)

// Allocator hands out leases over [Base, Base+Count).
type Allocator struct {
	Base  int
	Count int

	mu   sync.Mutex
	used map[int]bool
}

// New returns an Allocator over [base, base+count). Acquiring is safe for
// concurrent use.
func New(base, count int) *Allocator {
	return &Allocator{Base: base, Count: count, used: make(map[int]bool)}
}

// NewFromEnv builds an Allocator from STRATEGYD_PORT_BASE /
// STRATEGYD_PORT_COUNT, falling back to DefaultPortBase/DefaultPortCount.
func NewFromEnv() *Allocator {
	return New(envInt("STRATEGYD_PORT_BASE", DefaultPortBase), envInt("STRATEGYD_PORT_COUNT", DefaultPortCount))
}

func envInt(name string, def int) int {
	s := os.Getenv(name)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// Lease owns one port; releasing it (via Release, idempotent) frees the
// port back to the allocator.
type Lease struct {
	a        *Allocator
	port     int
	released bool
	mu       sync.Mutex
}

// Port returns the leased port number.
func (l *Lease) Port() int { return l.port }

// Release frees the port. Safe to call more than once.
func (l *Lease) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true
	l.a.release(l.port)
}

// Acquire scans the window in ascending order and returns the first port
// the OS actually accepts a listen on (a port may be free in the
// allocator's bookkeeping but unavailable at the OS level due to an
// unrelated process; such a port is skipped, not returned as an error).
func (a *Allocator) Acquire() (*Lease, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for p := a.Base; p < a.Base+a.Count; p++ {
		if a.used[p] {
			continue
		}
		if !probeListen(p) {
			continue
		}
		a.used[p] = true
		return &Lease{a: a, port: p}, nil
	}

	return nil, ErrPortsExhausted.New(a.Base, a.Base+a.Count)
}

func (a *Allocator) release(port int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.used, port)
}

// probeListen reports whether the OS currently accepts a TCP listen on
// port on loopback. The listener is closed immediately; a concurrent,
// unrelated process can still race this probe and bind the port first.
// The tunnel runner does not detect that case separately: a helper that
// exits because its port was taken never answers the SOCKS probe, and its
// start fails with ErrUnreachable.
func probeListen(port int) bool {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

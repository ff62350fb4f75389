// Package driverlock implements the process-wide mutual-exclusion guard over
// the kernel packet-filter driver: at most one holder may exist across the
// process at any instant, because concurrent use of the driver crashes the
// kernel.
package driverlock

import (
	"sync"
	"time"

	"gopkg.in/src-d/go-errors.v1"
)

// ErrBusy is returned by TryAcquire when another holder already owns the
// guard.
var ErrBusy = errors.NewKind("driver busy: another holder is active")

// ErrTimeout is returned by Acquire when the timeout elapses before the
// guard becomes available.
var ErrTimeout = errors.NewKind("timed out waiting for driver guard")

// Arbiter is a single-holder guard. Fairness among waiters is not
// guaranteed (FIFO ordering is not required). The zero value is not usable;
// New returns an Arbiter with the guard initially free.
type Arbiter struct {
	slot chan struct{}
}

// New returns a free Arbiter.
func New() *Arbiter {
	a := &Arbiter{slot: make(chan struct{}, 1)}
	a.slot <- struct{}{}
	return a
}

var global = New()

// Global returns the process-wide Arbiter singleton. All production callers
// should share this instance; tests construct their own with New() to avoid
// cross-test interference.
func Global() *Arbiter { return global }

// Guard is the owned token returned by a successful acquisition. Release is
// idempotent and must be called on every exit path of the acquirer
// (including panics, via defer) — the guard must be held for the entire
// lifetime of any child process that binds the filter driver.
type Guard struct {
	a    *Arbiter
	once sync.Once
}

// TryAcquire acquires the guard without blocking, returning ErrBusy if it is
// already held.
func (a *Arbiter) TryAcquire() (*Guard, error) {
	select {
	case <-a.slot:
		return &Guard{a: a}, nil
	default:
		return nil, ErrBusy.New()
	}
}

// Acquire blocks until the guard is available or timeout elapses.
func (a *Arbiter) Acquire(timeout time.Duration) (*Guard, error) {
	select {
	case <-a.slot:
		return &Guard{a: a}, nil
	case <-time.After(timeout):
		return nil, ErrTimeout.New()
	}
}

// Release frees the guard. It is safe to call more than once; only the
// first call has effect, so defer-based release composes with an explicit
// release on the happy path.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	g.once.Do(func() { g.a.slot <- struct{}{} })
}

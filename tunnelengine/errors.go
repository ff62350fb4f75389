package tunnelengine

import "gopkg.in/src-d/go-errors.v1"

// Error kinds, grouped by taxonomy bucket (Preflight, Contention, Runtime).
var (
	// ErrConfigInvalid is Preflight: the tunnel URI failed to parse or the
	// identity field is not a canonical UUID.
	ErrConfigInvalid = errors.NewKind("invalid tunnel configuration: %s")
	// ErrPortsExhausted is Contention: no loopback port is available.
	ErrPortsExhausted = errors.NewKind("no loopback port available")
	// ErrUnreachable is Runtime: the helper started but never became
	// reachable over SOCKS within the timeout.
	ErrUnreachable = errors.NewKind("tunnel unreachable: %s")
)

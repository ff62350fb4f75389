package engine

import (
	"gopkg.in/src-d/go-errors.v1"

	"github.com/reachnet/strategyengine/driverlock"
	"github.com/reachnet/strategyengine/filterengine"
	"github.com/reachnet/strategyengine/portalloc"
	"github.com/reachnet/strategyengine/process"
	"github.com/reachnet/strategyengine/tunnelengine"
)

// Error kinds owned by the registry itself. Family-specific failures
// originate in filterengine/tunnelengine/process/driverlock/portalloc and
// are mapped to an exit code by ExitCode below, without being wrapped again.
var (
	// ErrAlreadyRunning is Contention: a slot already exists for this
	// strategy id.
	ErrAlreadyRunning = errors.NewKind("strategy already running: %s")
	// ErrUnsupportedFamily is Preflight/Internal: the strategy's family has
	// no C7 dispatch target (composite is deferred to the caller, per
	// design; any other unrecognized value is a loader bug).
	ErrUnsupportedFamily = errors.NewKind("unsupported strategy family: %s")
	// ErrNotFound is returned by CurrentMetrics when no slot exists for the
	// given id. It is not one of the §6 exit codes: Stop of an absent
	// strategy is a no-op returning nil, so this kind exists only for
	// current_metrics's None case.
	ErrNotFound = errors.NewKind("no such strategy: %s")
)

// Code is one of the exit codes an operation can surface to its caller.
type Code string

const (
	Ok                 Code = "Ok"
	AlreadyRunning     Code = "AlreadyRunning"
	DriverBusy         Code = "DriverBusy"
	PortsExhausted     Code = "PortsExhausted"
	ConfigInvalid      Code = "ConfigInvalid"
	BinaryMissing      Code = "BinaryMissing"
	SpawnFailed        Code = "SpawnFailed"
	EarlyExit          Code = "EarlyExit"
	TunnelUnreachable  Code = "TunnelUnreachable"
	Timeout            Code = "Timeout"
	Internal           Code = "Internal"
)

// ExitCode maps any error returned by this module's public operations to
// one of the exit codes above. Errors not recognized by any kind below are
// Internal.
func ExitCode(err error) Code {
	if err == nil {
		return Ok
	}
	switch {
	case ErrAlreadyRunning.Is(err):
		return AlreadyRunning
	case ErrUnsupportedFamily.Is(err):
		return ConfigInvalid
	case driverlock.ErrBusy.Is(err), filterengine.ErrDriverBusy.Is(err):
		return DriverBusy
	case portalloc.ErrPortsExhausted.Is(err), tunnelengine.ErrPortsExhausted.Is(err):
		return PortsExhausted
	case filterengine.ErrConfigInvalid.Is(err), tunnelengine.ErrConfigInvalid.Is(err):
		return ConfigInvalid
	case filterengine.ErrHostListUnreadable.Is(err):
		return ConfigInvalid
	case process.ErrBinaryMissing.Is(err):
		return BinaryMissing
	case process.ErrSpawnFailed.Is(err):
		return SpawnFailed
	case filterengine.ErrEarlyExit.Is(err):
		return EarlyExit
	case tunnelengine.ErrUnreachable.Is(err):
		return TunnelUnreachable
	case driverlock.ErrTimeout.Is(err):
		return Timeout
	default:
		return Internal
	}
}

package process

import "gopkg.in/src-d/go-errors.v1"

// Error kinds. Each belongs to one of the taxonomy buckets used across this
// module's error handling design: Preflight, Spawn, Runtime, Internal.
var (
	// ErrBinaryMissing is Preflight: the configured binary does not exist or
	// is not executable.
	ErrBinaryMissing = errors.NewKind("binary missing or not executable: %s")
	// ErrSpawnFailed is Spawn: the OS refused to create the child after all
	// retries were exhausted.
	ErrSpawnFailed = errors.NewKind("spawn failed: %s")
	// ErrNotRunning is Internal: an operation that requires a live child was
	// called on a handle that is not in the Running state.
	ErrNotRunning = errors.NewKind("process is not running")
	// ErrAlreadyTerminal is Internal: terminate was called twice is not an
	// error (terminate is idempotent); this kind is reserved for callers
	// that bypass Handle and try to double-reap a wait().
	ErrAlreadyTerminal = errors.NewKind("process already in a terminal state")
)

package process

import "time"

// StdioPolicy controls how a Handle treats its child's stdout/stderr.
type StdioPolicy int

const (
	// CaptureLines consumes each stream line-by-line into a bounded ring.
	CaptureLines StdioPolicy = iota
	// Discard drops all output from the child.
	Discard
)

// ringSize is the fixed bound on captured stdout/stderr lines (spec's
// "last-N stdout/stderr lines", N = 200).
const ringSize = 200

// Config describes a child process to be spawned and supervised.
type Config struct {
	// BinaryPath is the absolute path to the executable.
	BinaryPath string
	// Args is the argument vector, in order. No shell interpretation is
	// ever performed.
	Args []string
	// Dir is the working directory; empty means inherit the caller's.
	Dir string
	// Env overlays the inherited environment; keys here win over any
	// identically-named inherited variable.
	Env map[string]string
	// Stdio selects the output capture policy.
	Stdio StdioPolicy
	// KillGrace is how long Terminate waits after the soft-stop signal
	// before force-killing the child when Terminate is called with a
	// non-positive grace; a positive grace argument takes precedence.
	KillGrace time.Duration

	// OnRelease, if set, is invoked exactly once when the handle reaches a
	// terminal state (Exited, Killed, or Crashed), after the child has been
	// reaped. It is the hook components above process bind their owned
	// resources (driver guard, port lease, temp file) into, so cleanup is
	// deterministic regardless of whether termination came from Terminate,
	// a crash, or a timeout-driven cleanup path.
	OnRelease func()

	// OnLine, if set and Stdio is CaptureLines, is invoked once per captured
	// line, in addition to the line being pushed into the bounded ring.
	// stream is "stdout" or "stderr". Called from the reader goroutine, so
	// it must not block.
	OnLine func(stream, line string)
}

// DefaultCrashWindow is the "too-soon" threshold: a nonzero exit inside
// this window after spawn is classified Crashed(ExitedEarly) rather than a
// normal Exited.
const DefaultCrashWindow = 2 * time.Second

// crashWindow is the threshold actually applied by reap. It is a package
// variable (rather than the DefaultCrashWindow constant) purely so tests can
// shrink it; production code never assigns to it.
var crashWindow = DefaultCrashWindow

// DefaultKillGrace is used when Config.KillGrace is zero.
const DefaultKillGrace = 5 * time.Second

// Package filterengine launches the packet-filter helper: the family of
// DPI-bypass strategy that binds the host's kernel filter driver. At most
// one instance may be non-idle system-wide, enforced by driverlock.
package filterengine

import (
	"context"
	"os"
	"time"

	"github.com/reachnet/strategyengine/catalog"
	"github.com/reachnet/strategyengine/driverlock"
	"github.com/reachnet/strategyengine/process"

	"github.com/sirupsen/logrus"
)

// Instance is a running filter-family helper: strategy id, process handle,
// driver guard, and mode, with the guard bound into the same value as the
// handle so the two can never be dropped independently.
type Instance struct {
	StrategyID string
	Mode       catalog.ModeHint
	Handle     *process.Handle
	Guard      *driverlock.Guard
}

// Stop terminates the helper and releases the driver guard, in that order
// (resources release strictly in reverse acquisition order — the guard was
// acquired before the child was spawned, so it is released after the child
// is confirmed terminal).
func (i *Instance) Stop(grace time.Duration) error {
	err := i.Handle.Terminate(grace)
	i.Guard.Release()
	return err
}

// Runner builds and supervises filter-family helpers.
type Runner struct {
	// Arbiter is the driver guard to acquire under. Defaults to
	// driverlock.Global() when nil.
	Arbiter *driverlock.Arbiter
	// CrashWindow bounds how long Start waits to confirm the helper is
	// still alive before publishing it as Running. Defaults to
	// process.DefaultCrashWindow.
	CrashWindow time.Duration
	// Spawn defaults to process.Spawn; overridable in tests.
	Spawn func(ctx context.Context, cfg process.Config) (*process.Handle, error)
	// OnLine, if set, is invoked once per captured output line from any
	// helper this Runner starts.
	OnLine func(strategyID, stream, line string)

	log logrus.FieldLogger
}

// NewRunner returns a Runner wired to the process-wide driver arbiter.
func NewRunner() *Runner {
	return &Runner{
		Arbiter:     driverlock.Global(),
		CrashWindow: process.DefaultCrashWindow,
		Spawn:       process.Spawn,
		log:         logrus.WithField("component", "filterengine"),
	}
}

// Start validates strategy, acquires the driver guard (try-acquire; fails
// fast with ErrDriverBusy), builds the argument vector, spawns the helper,
// and confirms it survives the crash window before returning.
func (r *Runner) Start(ctx context.Context, s catalog.Strategy, extraHostList string) (*Instance, error) {
	if r.Arbiter == nil {
		r.Arbiter = driverlock.Global()
	}
	if r.CrashWindow <= 0 {
		r.CrashWindow = process.DefaultCrashWindow
	}
	if r.Spawn == nil {
		r.Spawn = process.Spawn
	}

	if s.Family != catalog.FamilyFilter {
		return nil, ErrConfigInvalid.New("strategy " + s.ID + " is not family=filter")
	}
	if err := checkBinary(s.BinaryPath); err != nil {
		return nil, err
	}
	if s.HostListRef != "" {
		if err := checkReadable(s.HostListRef); err != nil {
			return nil, err
		}
	}

	guard, err := r.Arbiter.TryAcquire()
	if err != nil {
		return nil, ErrDriverBusy.Wrap(err)
	}

	args, err := buildArgs(s.LaunchTemplate, s.ModeHint, s.HostListRef, extraHostList)
	if err != nil {
		guard.Release()
		return nil, err
	}

	handle, err := r.Spawn(ctx, process.Config{
		BinaryPath: s.BinaryPath,
		Args:       args,
		Stdio:      process.CaptureLines,
		OnRelease:  guard.Release,
		OnLine:     r.lineHook(s.ID),
	})
	if err != nil {
		guard.Release()
		return nil, err
	}

	if crashed, status := r.awaitSettled(ctx, handle); crashed {
		return nil, ErrEarlyExit.New(status.Code, lastLine(handle.StderrTail()))
	}

	r.log.WithFields(logrus.Fields{
		"strategy_id": s.ID,
		"mode":        s.ModeHint,
		"pid":         handle.PID(),
	}).Info("filter helper running")

	return &Instance{StrategyID: s.ID, Mode: s.ModeHint, Handle: handle, Guard: guard}, nil
}

// awaitSettled waits up to CrashWindow for the helper to reach a terminal
// state. Only a nonzero exit observed inside the window counts as a crash
// (matching process.Handle's own Crashed classification); a clean exit(0)
// that happens to land inside the window is left to Exited, not surfaced as
// ErrEarlyExit. If the window elapses first, the helper is considered
// confirmed Running.
func (r *Runner) awaitSettled(ctx context.Context, h *process.Handle) (crashed bool, status process.ExitStatus) {
	waitCtx, cancel := context.WithTimeout(ctx, r.CrashWindow)
	defer cancel()

	status, err := h.Wait(waitCtx)
	if err != nil {
		// Deadline elapsed without the process terminating: it's running.
		return false, process.ExitStatus{}
	}
	return status.State == process.Crashed, status
}

// lineHook binds OnLine to strategyID, or returns nil if OnLine is unset so
// process.Config.OnLine stays nil rather than a no-op closure.
func (r *Runner) lineHook(strategyID string) func(stream, line string) {
	if r.OnLine == nil {
		return nil
	}
	return func(stream, line string) { r.OnLine(strategyID, stream, line) }
}

func lastLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

func checkBinary(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return process.ErrBinaryMissing.Wrap(err, path)
	}
	if info.IsDir() || info.Mode()&0111 == 0 {
		return process.ErrBinaryMissing.New(path)
	}
	return nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return ErrHostListUnreadable.Wrap(err, path)
	}
	return f.Close()
}

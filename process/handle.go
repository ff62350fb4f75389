// Package process supervises a single external helper binary: spawning it
// with retry, capturing its output into a bounded ring, detecting early
// crashes, and guaranteeing a terminal state on terminate or timeout.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/oklog/ulid"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a Handle.
type State int

const (
	Starting State = iota
	Running
	Exited
	Killed
	Crashed
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Exited:
		return "exited"
	case Killed:
		return "killed"
	case Crashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// CrashReason explains why a Handle transitioned to Crashed.
type CrashReason string

const (
	// ExitedEarly marks a nonzero exit observed inside the crash window.
	ExitedEarly CrashReason = "exited-early"
)

// ExitStatus is the terminal outcome of a supervised child.
type ExitStatus struct {
	State       State
	Code        int
	CrashReason CrashReason
}

// Handle is one supervised child process. Exactly one OS child is alive
// while State() reports Running. A Handle's lifecycle ends when it is
// observed to reach a terminal state (Exited, Killed, Crashed).
type Handle struct {
	cfg Config
	log logrus.FieldLogger

	runID string
	cmd   *exec.Cmd

	mu        sync.Mutex
	state     State
	startedAt time.Time
	result    ExitStatus

	stdout *lineRing
	stderr *lineRing

	done          chan struct{} // closed once a terminal state is reached
	terminating   bool          // set by Terminate before it signals the child
	terminateOnce sync.Once
	releaseOnce   sync.Once
}

// Spawn launches cfg.BinaryPath with the given arguments. It retries
// transient spawn errors with exponential backoff, up to 3 attempts and a
// total budget of 1s; non-transient errors return immediately. On any
// failure, no OS child is left running and no resources leak.
//
// For CaptureLines, the output-reader goroutines are guaranteed to be
// attached before Spawn returns, so a child that exits immediately after
// starting never loses its first lines of output.
func Spawn(ctx context.Context, cfg Config) (*Handle, error) {
	if err := checkExecutable(cfg.BinaryPath); err != nil {
		return nil, err
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = DefaultKillGrace
	}

	runID := ulid.MustNew(ulid.Now(), nil).String()
	log := logrus.WithFields(logrus.Fields{
		"component": "process",
		"run_id":    runID,
		"binary":    cfg.BinaryPath,
	})

	h := &Handle{
		cfg:    cfg,
		log:    log,
		runID:  runID,
		state:  Starting,
		stdout: newLineRing(ringSize),
		stderr: newLineRing(ringSize),
		done:   make(chan struct{}),
	}

	cmd, stdoutPipe, stderrPipe, err := spawnWithRetry(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	h.cmd = cmd
	h.startedAt = time.Now()
	h.mu.Lock()
	h.state = Running
	h.mu.Unlock()

	if cfg.Stdio == CaptureLines {
		var ready sync.WaitGroup
		ready.Add(2)
		go h.consume("stdout", stdoutPipe, h.stdout, &ready)
		go h.consume("stderr", stderrPipe, h.stderr, &ready)
		ready.Wait()
	}

	go h.reap()

	return h, nil
}

// consume reads line-delimited output from r into ring until EOF, signaling
// wg exactly once as soon as it is about to start reading — this is the
// readiness barrier Spawn blocks on, so short-lived children never race the
// reader attachment. Each line is also handed to cfg.OnLine, if set.
func (h *Handle) consume(stream string, r io.ReadCloser, ring *lineRing, wg *sync.WaitGroup) {
	scanner := bufio.NewScanner(r)
	wg.Done()
	for scanner.Scan() {
		line := scanner.Text()
		ring.push(line)
		if h.cfg.OnLine != nil {
			h.cfg.OnLine(stream, line)
		}
	}
}

// reap waits for the child to exit and classifies the terminal state.
func (h *Handle) reap() {
	err := h.cmd.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Killed {
		// Terminate already decided the terminal state.
		h.finalizeLocked()
		return
	}

	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	} else if err != nil {
		code = -1
	}

	early := time.Since(h.startedAt) < crashWindow
	if code != 0 && early && !h.terminating {
		h.state = Crashed
		h.result = ExitStatus{State: Crashed, Code: code, CrashReason: ExitedEarly}
	} else {
		h.state = Exited
		h.result = ExitStatus{State: Exited, Code: code}
	}

	h.finalizeLocked()
}

// finalizeLocked runs the release hook and then closes done, so a Wait or
// Terminate that returns has already seen the owned resources released.
// Must be called with h.mu held, exactly once per Handle.
func (h *Handle) finalizeLocked() {
	select {
	case <-h.done:
		return
	default:
	}
	if h.cfg.OnRelease != nil {
		h.releaseOnce.Do(h.cfg.OnRelease)
	}
	close(h.done)
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// PID returns the child's process id. It is only meaningful while State()
// reports Running.
func (h *Handle) PID() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// StartedAt returns the monotonic time the child was observed running.
func (h *Handle) StartedAt() time.Time {
	return h.startedAt
}

// StdoutTail returns the last captured stdout lines, oldest first.
func (h *Handle) StdoutTail() []string { return h.stdout.lines() }

// StderrTail returns the last captured stderr lines, oldest first.
func (h *Handle) StderrTail() []string { return h.stderr.lines() }

// Wait suspends until the child is reaped and returns its terminal status.
// Concurrent callers all observe the same result.
func (h *Handle) Wait(ctx context.Context) (ExitStatus, error) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.result, nil
	case <-ctx.Done():
		return ExitStatus{}, ctx.Err()
	}
}

// Terminate sends a soft-stop signal, waits up to grace, then force-kills.
// It always leaves the Handle in a terminal state, and is idempotent: a
// second call is a no-op once the first has completed.
func (h *Handle) Terminate(grace time.Duration) error {
	h.terminateOnce.Do(func() {
		h.mu.Lock()
		alreadyTerminal := h.state == Exited || h.state == Crashed || h.state == Killed
		h.terminating = true
		h.mu.Unlock()
		if alreadyTerminal {
			return
		}

		if grace <= 0 {
			grace = h.cfg.KillGrace
		}

		if h.cmd != nil && h.cmd.Process != nil {
			_ = h.cmd.Process.Signal(softStopSignal())
		}

		select {
		case <-h.done:
			return
		case <-time.After(grace):
		}

		h.mu.Lock()
		terminal := h.state == Exited || h.state == Crashed || h.state == Killed
		h.mu.Unlock()
		if terminal {
			return
		}

		if h.cmd != nil && h.cmd.Process != nil {
			_ = h.cmd.Process.Kill()
		}

		h.mu.Lock()
		if h.state != Exited && h.state != Crashed {
			h.state = Killed
			h.result = ExitStatus{State: Killed}
		}
		h.mu.Unlock()

		select {
		case <-h.done:
		case <-time.After(grace):
			// cmd.Wait's goroutine will still close h.done once the OS
			// reaps the child; this bound only prevents Terminate itself
			// from blocking forever if reaping is somehow delayed.
		}
	})

	return nil
}

func softStopSignal() os.Signal {
	return syscall.SIGTERM
}

// checkExecutable verifies the binary exists and is executable without
// spawning it.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return ErrBinaryMissing.Wrap(err, path)
	}
	if info.IsDir() {
		return ErrBinaryMissing.New(path)
	}
	if info.Mode()&0111 == 0 {
		return ErrBinaryMissing.New(path)
	}
	return nil
}

// spawnWithRetry attempts to start the child, retrying transient spawn
// errors with exponential backoff capped at 3 attempts / 1s total.
func spawnWithRetry(ctx context.Context, cfg Config, log logrus.FieldLogger) (*exec.Cmd, io.ReadCloser, io.ReadCloser, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = time.Second
	bo := backoff.WithMaxRetries(b, 2) // 3 attempts total

	var (
		cmd        *exec.Cmd
		stdoutPipe io.ReadCloser
		stderrPipe io.ReadCloser
	)

	operation := func() error {
		c, outR, errR, err := buildAndStart(ctx, cfg)
		if err == nil {
			cmd, stdoutPipe, stderrPipe = c, outR, errR
			return nil
		}
		if !isTransientSpawnError(err) {
			return backoff.Permanent(err)
		}
		log.WithError(err).Warn("transient spawn error, retrying")
		return err
	}

	if err := backoff.Retry(operation, bo); err != nil {
		return nil, nil, nil, ErrSpawnFailed.Wrap(err, cfg.BinaryPath)
	}

	return cmd, stdoutPipe, stderrPipe, nil
}

func buildAndStart(ctx context.Context, cfg Config) (*exec.Cmd, io.ReadCloser, io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, cfg.BinaryPath, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Env = mergeEnv(cfg.Env)

	var stdoutPipe, stderrPipe io.ReadCloser
	var err error

	if cfg.Stdio == CaptureLines {
		stdoutPipe, err = cmd.StdoutPipe()
		if err != nil {
			return nil, nil, nil, err
		}
		stderrPipe, err = cmd.StderrPipe()
		if err != nil {
			return nil, nil, nil, err
		}
	} else {
		cmd.Stdout = nil
		cmd.Stderr = nil
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, nil, err
	}

	return cmd, stdoutPipe, stderrPipe, nil
}

func mergeEnv(overlay map[string]string) []string {
	base := os.Environ()
	if len(overlay) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overlay))
	seen := make(map[string]bool, len(overlay))
	for k := range overlay {
		seen[k] = true
	}
	for _, kv := range base {
		key := kv
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			key = kv[:idx]
		}
		if seen[key] {
			continue
		}
		out = append(out, kv)
	}
	for k, v := range overlay {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}

// isTransientSpawnError reports whether err is a transient OS-level spawn
// failure worth retrying (e.g. a sharing violation on a binary that is
// momentarily locked by another process, or a resource-temporarily-
// unavailable condition). Non-transient errors (binary missing, permission
// denied) are returned immediately by the caller.
func isTransientSpawnError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ETXTBSY, syscall.EAGAIN, syscall.EINTR:
			return true
		}
	}
	return false
}

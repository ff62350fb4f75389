// Package tunnelengine launches the SOCKS-tunnel helper: the family of
// DPI-bypass strategy that needs a leased loopback port and a rendered JSON
// configuration file, but no kernel driver.
package tunnelengine

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/reachnet/strategyengine/catalog"
	"github.com/reachnet/strategyengine/portalloc"
	"github.com/reachnet/strategyengine/process"
	"github.com/reachnet/strategyengine/tempfile"

	"github.com/sirupsen/logrus"
)

// Instance is a running tunnel-family helper: strategy id, process handle,
// port lease, and config file, with the lease and config file bound into
// the same value as the handle so all three release together.
type Instance struct {
	StrategyID string
	Handle     *process.Handle
	Lease      *portalloc.Lease
	ConfigFile *tempfile.File
}

// Stop terminates the helper and releases the port lease and config file,
// in reverse acquisition order.
func (i *Instance) Stop(grace time.Duration) error {
	err := i.Handle.Terminate(grace)
	i.Lease.Release()
	i.ConfigFile.Release()
	return err
}

// Runner builds and supervises tunnel-family helpers.
type Runner struct {
	// Ports is the allocator leases are drawn from. Defaults to
	// portalloc.NewFromEnv() when nil.
	Ports *portalloc.Allocator
	// ProbeTimeout bounds how long Start waits for the SOCKS listener to
	// come up before declaring the helper unreachable. Defaults to
	// DefaultProbeTimeout.
	ProbeTimeout time.Duration
	// Spawn defaults to process.Spawn; overridable in tests.
	Spawn func(ctx context.Context, cfg process.Config) (*process.Handle, error)
	// Probe defaults to probeReachable; overridable in tests.
	Probe func(ctx context.Context, localPort int, timeout time.Duration) bool
	// OnLine, if set, is invoked once per captured output line from any
	// helper this Runner starts.
	OnLine func(strategyID, stream, line string)

	log logrus.FieldLogger
}

// NewRunner returns a Runner with its own port allocator, built from the
// environment by portalloc.NewFromEnv.
func NewRunner() *Runner {
	return &Runner{
		Ports:        portalloc.NewFromEnv(),
		ProbeTimeout: DefaultProbeTimeout,
		Spawn:        process.Spawn,
		Probe:        probeReachable,
		log:          logrus.WithField("component", "tunnelengine"),
	}
}

// Start parses and validates the strategy's tunnel URI, leases a loopback
// port, renders and writes the client configuration, spawns the helper, and
// confirms it answers SOCKS before returning. Any failure after the lease is
// acquired releases the lease and unlinks the config file before returning.
func (r *Runner) Start(ctx context.Context, s catalog.Strategy) (*Instance, error) {
	if r.Ports == nil {
		r.Ports = portalloc.NewFromEnv()
	}
	if r.ProbeTimeout <= 0 {
		r.ProbeTimeout = DefaultProbeTimeout
	}
	if r.Spawn == nil {
		r.Spawn = process.Spawn
	}
	if r.Probe == nil {
		r.Probe = probeReachable
	}

	if s.Family != catalog.FamilyTunnel {
		return nil, ErrConfigInvalid.New("strategy " + s.ID + " is not family=tunnel")
	}
	if err := checkBinary(s.BinaryPath); err != nil {
		return nil, err
	}

	uri, err := ParseURI(s.TunnelURI)
	if err != nil {
		return nil, err
	}

	lease, err := r.Ports.Acquire()
	if err != nil {
		return nil, ErrPortsExhausted.Wrap(err)
	}

	cfgBytes, err := renderConfig(uri, lease.Port())
	if err != nil {
		lease.Release()
		return nil, ErrConfigInvalid.Wrap(err, "rendering client config")
	}

	cfgFile := tempfile.Acquire(s.ID)
	if err := cfgFile.Write(cfgBytes); err != nil {
		lease.Release()
		cfgFile.Release()
		return nil, ErrConfigInvalid.Wrap(err, "writing client config")
	}

	args, err := buildArgs(s.LaunchTemplate, cfgFile.Path)
	if err != nil {
		lease.Release()
		cfgFile.Release()
		return nil, err
	}

	handle, err := r.Spawn(ctx, process.Config{
		BinaryPath: s.BinaryPath,
		Args:       args,
		Stdio:      process.CaptureLines,
		OnRelease: func() {
			lease.Release()
			cfgFile.Release()
		},
		OnLine: r.lineHook(s.ID),
	})
	if err != nil {
		lease.Release()
		cfgFile.Release()
		return nil, err
	}

	if !r.Probe(ctx, lease.Port(), r.ProbeTimeout) {
		_ = handle.Terminate(process.DefaultKillGrace)
		return nil, ErrUnreachable.New("SOCKS listener on 127.0.0.1:" + strconv.Itoa(lease.Port()) + " never answered")
	}

	r.log.WithFields(logrus.Fields{
		"strategy_id": s.ID,
		"port":        lease.Port(),
		"pid":         handle.PID(),
	}).Info("tunnel helper running")

	return &Instance{StrategyID: s.ID, Handle: handle, Lease: lease, ConfigFile: cfgFile}, nil
}

// lineHook binds OnLine to strategyID, or returns nil if OnLine is unset so
// process.Config.OnLine stays nil rather than a no-op closure.
func (r *Runner) lineHook(strategyID string) func(stream, line string) {
	if r.OnLine == nil {
		return nil
	}
	return func(stream, line string) { r.OnLine(strategyID, stream, line) }
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

package engine

import (
	"os"
	"strconv"
	"time"

	"github.com/reachnet/strategyengine/portalloc"
	"github.com/reachnet/strategyengine/process"
	"github.com/reachnet/strategyengine/tunnelengine"
)

// Config aggregates the tunables the registry wires into its two family
// runners. KillGrace is carried here but New does not pass it to either
// runner; helpers use process.DefaultKillGrace unless Stop/StopAll is given
// a positive grace. The zero value is not ready to use; construct via
// NewConfig/ConfigFromEnv.
type Config struct {
	PortBase     int
	PortCount    int
	CrashWindow  time.Duration
	ProbeTimeout time.Duration
	KillGrace    time.Duration
}

// NewConfig returns the package's literal defaults.
func NewConfig() Config {
	return Config{
		PortBase:     portalloc.DefaultPortBase,
		PortCount:    portalloc.DefaultPortCount,
		CrashWindow:  process.DefaultCrashWindow,
		ProbeTimeout: tunnelengine.DefaultProbeTimeout,
		KillGrace:    process.DefaultKillGrace,
	}
}

// ConfigFromEnv builds a Config from STRATEGYD_* environment variables,
// falling back to NewConfig's defaults for anything unset or unparsable.
func ConfigFromEnv() Config {
	cfg := NewConfig()
	cfg.PortBase = envInt("STRATEGYD_PORT_BASE", cfg.PortBase)
	cfg.PortCount = envInt("STRATEGYD_PORT_COUNT", cfg.PortCount)
	cfg.CrashWindow = envDuration("STRATEGYD_CRASH_WINDOW", cfg.CrashWindow)
	cfg.ProbeTimeout = envDuration("STRATEGYD_PROBE_TIMEOUT", cfg.ProbeTimeout)
	cfg.KillGrace = envDuration("STRATEGYD_KILL_GRACE", cfg.KillGrace)
	return cfg
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

func envDuration(name string, def time.Duration) time.Duration {
	s := os.Getenv(name)
	if s == "" {
		return def
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return v
}

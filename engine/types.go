package engine

import (
	"time"

	"github.com/reachnet/strategyengine/catalog"
	"github.com/reachnet/strategyengine/filterengine"
	"github.com/reachnet/strategyengine/process"
	"github.com/reachnet/strategyengine/tunnelengine"
)

// slot is the registry's internal representation of a running strategy: at
// most one of filter/tunnel is set (Empty is simply "no entry in the map").
type slot struct {
	strategyID string
	family     catalog.Family
	startedAt  time.Time

	filter *filterengine.Instance
	tunnel *tunnelengine.Instance
}

func (s *slot) handle() *process.Handle {
	if s.filter != nil {
		return s.filter.Handle
	}
	return s.tunnel.Handle
}

func (s *slot) stop(grace time.Duration) error {
	if s.filter != nil {
		return s.filter.Stop(grace)
	}
	return s.tunnel.Stop(grace)
}

// RunningStrategy is one row of ListRunning's result.
type RunningStrategy struct {
	StrategyID string
	Family     catalog.Family
	StartedAt  time.Time
	PID        int
}

// MetricsSnapshot is CurrentMetrics's result: uptime and the last-N captured
// output lines, as maintained by C1.
type MetricsSnapshot struct {
	StrategyID string
	State      process.State
	Uptime     time.Duration
	StdoutTail []string
	StderrTail []string
}

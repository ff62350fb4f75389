// Package engine is the top-level registry: the only component the outside
// world calls. It classifies a strategy's family, validates pre-conditions,
// and delegates to filterengine or tunnelengine, which in turn consume the
// process/driverlock/portalloc/tempfile primitives.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/reachnet/strategyengine/catalog"
	"github.com/reachnet/strategyengine/driverlock"
	"github.com/reachnet/strategyengine/filterengine"
	"github.com/reachnet/strategyengine/metrics"
	"github.com/reachnet/strategyengine/portalloc"
	"github.com/reachnet/strategyengine/tunnelengine"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Engine is the process-wide strategy registry. The zero value is not ready
// to use; construct via New.
type Engine struct {
	mu    sync.Mutex
	slots map[string]*slot

	filterRunner *filterengine.Runner
	tunnelRunner *tunnelengine.Runner

	events chan Event
	log    logrus.FieldLogger
}

// New builds an Engine wired from cfg: the process-wide driver arbiter
// (driverlock.Global) and a port allocator sized from cfg, shared by every
// strategy this Engine starts.
func New(cfg Config) *Engine {
	e := &Engine{
		slots:  make(map[string]*slot),
		events: make(chan Event, eventBufferSize),
		log:    logrus.WithField("component", "engine"),
	}

	fr := filterengine.NewRunner()
	fr.Arbiter = driverlock.Global()
	fr.CrashWindow = cfg.CrashWindow
	fr.OnLine = e.publishOutput

	tr := tunnelengine.NewRunner()
	tr.Ports = portalloc.New(cfg.PortBase, cfg.PortCount)
	tr.ProbeTimeout = cfg.ProbeTimeout
	tr.OnLine = e.publishOutput

	e.filterRunner = fr
	e.tunnelRunner = tr
	return e
}

// publishOutput forwards one captured output line as a strategy.output
// event. Bound to each family runner's OnLine hook, so every line a helper
// writes reaches Events() as it's captured, not just on crash.
func (e *Engine) publishOutput(strategyID, stream, line string) {
	e.publish(Event{Kind: EventOutput, StrategyID: strategyID, Stream: stream, Line: line})
}

// Start dispatches strategy by family and publishes the resulting slot. The
// entire check-and-insert, including the family runner's own startup work
// (spawn, probe), happens under the registry's single write lock, so there
// is no TOCTOU window between "is already running?" and "insert".
func (e *Engine) Start(ctx context.Context, s catalog.Strategy, extraHostList string) error {
	sp, ctx := opentracing.StartSpanFromContext(ctx, "strategyengine.engine.Start")
	defer sp.Finish()

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.slots[s.ID]; exists {
		return ErrAlreadyRunning.New(s.ID)
	}

	switch s.Family {
	case catalog.FamilyFilter:
		metrics.SpawnTotal.WithLabelValues(string(s.Family)).Inc()
		inst, err := e.filterRunner.Start(ctx, s, extraHostList)
		if err != nil {
			e.recordStartFailure(s.Family, err)
			return err
		}
		sl := &slot{strategyID: s.ID, family: s.Family, startedAt: time.Now(), filter: inst}
		e.slots[s.ID] = sl
		metrics.ActiveStrategies.Set(float64(len(e.slots)))
		e.publish(Event{Kind: EventStarted, StrategyID: s.ID, PID: inst.Handle.PID()})
		go e.watch(sl)
		return nil

	case catalog.FamilyTunnel:
		metrics.SpawnTotal.WithLabelValues(string(s.Family)).Inc()
		inst, err := e.tunnelRunner.Start(ctx, s)
		if err != nil {
			e.recordStartFailure(s.Family, err)
			return err
		}
		sl := &slot{strategyID: s.ID, family: s.Family, startedAt: time.Now(), tunnel: inst}
		e.slots[s.ID] = sl
		metrics.ActiveStrategies.Set(float64(len(e.slots)))
		e.publish(Event{Kind: EventStarted, StrategyID: s.ID, PID: inst.Handle.PID()})
		go e.watch(sl)
		return nil

	case catalog.FamilyComposite:
		return ErrUnsupportedFamily.New(s.Family)

	default:
		return ErrUnsupportedFamily.New(s.Family)
	}
}

// recordStartFailure increments the contention counters a failed start
// tripped, so operators can tell "driver busy" and "ports exhausted"
// pressure apart from ordinary spawn failures.
func (e *Engine) recordStartFailure(family catalog.Family, err error) {
	metrics.SpawnFailures.WithLabelValues(string(family)).Inc()
	switch ExitCode(err) {
	case DriverBusy:
		metrics.DriverGuardContention.Inc()
	case PortsExhausted:
		metrics.PortsExhausted.Inc()
	}
}

// watch waits for sl's handle to reach a terminal state outside operator
// control (a crash) and, if the slot is still registered under that id,
// removes it and publishes the matching event. A stop() initiated through
// Stop/StopAll removes the slot itself first, so watch's lookup below is a
// no-op in that case — only an unexpected exit reaches the publish below.
func (e *Engine) watch(sl *slot) {
	status, err := sl.handle().Wait(context.Background())
	if err != nil {
		return
	}

	e.mu.Lock()
	current, stillRegistered := e.slots[sl.strategyID]
	if stillRegistered && current == sl {
		delete(e.slots, sl.strategyID)
		metrics.ActiveStrategies.Set(float64(len(e.slots)))
	}
	e.mu.Unlock()

	if !stillRegistered || current != sl {
		return
	}

	if status.CrashReason != "" {
		metrics.CrashTotal.WithLabelValues(string(sl.family)).Inc()
		e.publish(Event{
			Kind:       EventCrashed,
			StrategyID: sl.strategyID,
			Code:       status.Code,
			StderrTail: lastLine(sl.handle().StderrTail()),
		})
		return
	}
	e.publish(Event{Kind: EventStopped, StrategyID: sl.strategyID, Reason: status.State.String()})
}

func lastLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// Stop removes the slot (if any), terminates the handle with grace, and
// releases all owned resources. Stopping an id with no slot is a no-op.
func (e *Engine) Stop(strategyID string, grace time.Duration) error {
	sp := opentracing.StartSpan("strategyengine.engine.Stop")
	defer sp.Finish()

	e.mu.Lock()
	sl, ok := e.slots[strategyID]
	if ok {
		delete(e.slots, strategyID)
		metrics.ActiveStrategies.Set(float64(len(e.slots)))
	}
	e.mu.Unlock()

	if !ok {
		return nil
	}

	err := sl.stop(grace)
	e.publish(Event{Kind: EventStopped, StrategyID: strategyID, Reason: "stopped"})
	return err
}

// StopAll terminates every registered slot concurrently, fanning out via
// errgroup the way the registry's own lifecycle operations fan out I/O.
// Safe to call during process shutdown or from any failure path: every
// slot's resources release even if one termination errors.
func (e *Engine) StopAll(grace time.Duration) error {
	e.mu.Lock()
	slots := make([]*slot, 0, len(e.slots))
	for id, sl := range e.slots {
		slots = append(slots, sl)
		delete(e.slots, id)
	}
	metrics.ActiveStrategies.Set(0)
	e.mu.Unlock()

	var g errgroup.Group
	for _, sl := range slots {
		sl := sl
		g.Go(func() error {
			err := sl.stop(grace)
			e.publish(Event{Kind: EventStopped, StrategyID: sl.strategyID, Reason: "stopped"})
			return err
		})
	}
	return g.Wait()
}

// IsRunning reports whether a slot currently exists for strategyID.
func (e *Engine) IsRunning(strategyID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.slots[strategyID]
	return ok
}

// ListRunning returns a snapshot of every currently registered slot.
func (e *Engine) ListRunning() []RunningStrategy {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]RunningStrategy, 0, len(e.slots))
	for _, sl := range e.slots {
		out = append(out, RunningStrategy{
			StrategyID: sl.strategyID,
			Family:     sl.family,
			StartedAt:  sl.startedAt,
			PID:        sl.handle().PID(),
		})
	}
	return out
}

// CurrentMetrics returns the metrics snapshot for strategyID, or
// ErrNotFound if no slot is registered under that id.
func (e *Engine) CurrentMetrics(strategyID string) (*MetricsSnapshot, error) {
	e.mu.Lock()
	sl, ok := e.slots[strategyID]
	e.mu.Unlock()

	if !ok {
		return nil, ErrNotFound.New(strategyID)
	}

	h := sl.handle()
	return &MetricsSnapshot{
		StrategyID: strategyID,
		State:      h.State(),
		Uptime:     time.Since(h.StartedAt()),
		StdoutTail: h.StdoutTail(),
		StderrTail: h.StderrTail(),
	}, nil
}

package engine

import "github.com/sirupsen/logrus"

// EventKind is the tag of an Event published on Engine.Events().
type EventKind string

const (
	EventStarted EventKind = "strategy.started"
	EventStopped EventKind = "strategy.stopped"
	EventCrashed EventKind = "strategy.crashed"
	EventOutput  EventKind = "strategy.output"
)

// Event is the tagged union published on Engine.Events(). Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind       EventKind
	StrategyID string
	PID        int
	Reason     string
	Code       int
	StderrTail string
	Stream     string
	Line       string
}

// eventBufferSize bounds the process-wide event channel. A slow consumer
// drops events past this bound rather than stall strategy lifecycle
// operations.
const eventBufferSize = 256

func (e *Engine) publish(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.log.WithFields(logrus.Fields{
			"kind":        ev.Kind,
			"strategy_id": ev.StrategyID,
		}).Warn("event channel full, dropping event")
	}
}

// Events returns the process-wide event stream. There is exactly one
// channel per Engine; callers must keep up or miss events.
func (e *Engine) Events() <-chan Event {
	return e.events
}

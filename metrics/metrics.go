// Package metrics exposes the Prometheus collectors shared by the family
// runners and the registry: each is a package-level collector registered at
// import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var familyLabel = []string{"family"}

var (
	// SpawnTotal counts every attempted helper spawn, labeled by family.
	SpawnTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strategyengine_spawn_total",
		Help: "The total number of helper process spawn attempts",
	}, familyLabel)

	// SpawnFailures counts strategy starts whose family runner returned any
	// error (spawn, preflight or contention), labeled by family.
	SpawnFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strategyengine_spawn_failures_total",
		Help: "The total number of helper process spawn failures",
	}, familyLabel)

	// CrashTotal counts helpers observed in Crashed(ExitedEarly), labeled
	// by family.
	CrashTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strategyengine_crash_total",
		Help: "The total number of helpers that crashed within the crash window",
	}, familyLabel)

	// DriverGuardContention counts failed try-acquire attempts against the
	// driver arbiter.
	DriverGuardContention = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strategyengine_driver_guard_contention_total",
		Help: "The total number of times a filter-family start found the driver guard already held",
	})

	// PortsExhausted counts acquire attempts that found no free port in
	// the configured window.
	PortsExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strategyengine_ports_exhausted_total",
		Help: "The total number of times the port allocator had no free port",
	})

	// ActiveStrategies reports the current registry size.
	ActiveStrategies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "strategyengine_active_strategies",
		Help: "The number of strategies currently registered as running",
	})

	// StrategyScore reports the last computed score per strategy id.
	StrategyScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "strategyengine_strategy_score",
		Help: "The last computed score for a strategy, in [0, 100]",
	}, []string{"strategy_id"})
)

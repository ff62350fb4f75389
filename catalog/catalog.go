// Package catalog holds the data model that is loaded externally (strategy
// descriptors, measurement summaries) and the interfaces of the collaborators
// that produce it. Nothing in this package talks to disk or the network; the
// loaders themselves live outside this module.
package catalog

import (
	"context"
	"net"
)

// Family classifies a Strategy by the kind of helper it launches.
type Family string

const (
	FamilyFilter    Family = "filter"
	FamilyTunnel    Family = "tunnel"
	FamilyComposite Family = "composite"
)

// ModeHint selects the packet-filter helper's operating mode. It only
// applies to FamilyFilter strategies.
type ModeHint string

const (
	ModeGlobal    ModeHint = "global"
	ModeSelective ModeHint = "selective"
)

// Strategy is an immutable descriptor loaded by an external configuration
// loader. The engine never mutates a Strategy; it only reads it.
type Strategy struct {
	ID             string
	Family         Family
	LaunchTemplate []string
	Services       map[string]struct{}
	WeightHint     int
	ModeHint       ModeHint
	HostListRef    string

	// TunnelURI carries the tunnel connection string for FamilyTunnel
	// strategies (see the grammar documented on tunnelengine.ParseURI).
	TunnelURI string

	// BinaryPath is the absolute path to the helper executable.
	BinaryPath string
}

// MeasurementSummary is produced externally (by a health prober) and
// consumed by the scorer, once per strategy per scoring window.
type MeasurementSummary struct {
	PassedTests     uint32
	CriticalPassed  uint32
	TotalTests      uint32
	CriticalTotal   uint32
	AvgLatencyMs    float64
	LatencyJitterMs float64
}

// StrategyLoader produces the set of strategy descriptors available to the
// engine. It is an external collaborator: no implementation of this
// interface ships in this module.
type StrategyLoader interface {
	Load(ctx context.Context) ([]Strategy, error)
}

// HostListLoader reads a host-list file: newline-separated domains, '#'
// comments, UTF-8, duplicates permitted (dedup is the loader's concern).
// It is an external collaborator: no implementation ships in this module.
type HostListLoader interface {
	Load(ctx context.Context, path string) ([]string, error)
}

// ExcludeListLoader reads a CIDR exclude list (IPv4 and IPv6, including
// private ranges). It is an external collaborator: no implementation ships
// in this module.
type ExcludeListLoader interface {
	Load(ctx context.Context, path string) ([]net.IPNet, error)
}

// HealthProber produces the MeasurementSummary that scorer.Compute consumes.
// It is an external collaborator: no implementation ships in this module.
type HealthProber interface {
	Probe(ctx context.Context, strategyID string) (MeasurementSummary, error)
}

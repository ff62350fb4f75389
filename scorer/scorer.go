// Package scorer ranks strategies deterministically from the measurement
// summaries an external health prober produces. It is pure: no I/O, no
// shared state, no side effects.
package scorer

import (
	"sort"

	"github.com/reachnet/strategyengine/catalog"
)

// Weights controls the contribution of each term to the final score. The
// defaults sum to 1.0; callers may override them, but Compute never
// renormalizes — an overridden set that sums to more than 1.0 can produce
// scores above 100, which is the caller's choice to make.
type Weights struct {
	Success  float64
	Critical float64
	Latency  float64
	Jitter   float64
}

// DefaultWeights returns the canonical fallback weights.
func DefaultWeights() Weights {
	return Weights{Success: 0.50, Critical: 0.30, Latency: 0.15, Jitter: 0.05}
}

// LMax and JMax bound the latency and jitter terms: a sample at or beyond
// these values contributes zero to its term.
const (
	LMax = 1000.0
	JMax = 500.0
)

// Score is one strategy's ranked outcome.
type Score struct {
	StrategyID string
	Value      float64
	WeightHint int
}

// Compute scores one strategy's MeasurementSummary against w.
func Compute(strategyID string, weightHint int, m catalog.MeasurementSummary, w Weights) Score {
	successRate := rate(float64(m.PassedTests), float64(m.TotalTests))
	criticalRate := 0.0
	if m.CriticalTotal > 0 {
		criticalRate = rate(float64(m.CriticalPassed), float64(m.CriticalTotal))
	}

	latencyTerm := clamp01(1 - m.AvgLatencyMs/LMax)
	jitterTerm := clamp01(1 - m.LatencyJitterMs/JMax)

	value := 100 * (w.Success*successRate + w.Critical*criticalRate + w.Latency*latencyTerm + w.Jitter*jitterTerm)

	return Score{StrategyID: strategyID, Value: value, WeightHint: weightHint}
}

// LatencyTerm computes the test-count-weighted latency term across samples
// from multiple measurement windows for the same strategy: Σ(passed_i ·
// avg_latency_i) / Σ(passed_i), mapped to [0,1] the same way Compute does
// for a single summary.
func LatencyTerm(samples []catalog.MeasurementSummary) float64 {
	var weightedSum, totalPassed float64
	for _, s := range samples {
		weightedSum += float64(s.PassedTests) * s.AvgLatencyMs
		totalPassed += float64(s.PassedTests)
	}
	if totalPassed == 0 {
		return clamp01(1)
	}
	meanLatency := weightedSum / totalPassed
	return clamp01(1 - meanLatency/LMax)
}

func rate(num, den float64) float64 {
	if den < 1 {
		den = 1
	}
	return num / den
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// tieEpsilon is the tolerance within which two scores are considered tied.
const tieEpsilon = 1e-9

// Rank sorts scores best-first: higher Value wins; within tieEpsilon of one
// another, higher WeightHint wins; on further tie, lexicographically
// smaller StrategyID wins.
func Rank(scores []Score) []Score {
	out := make([]Score, len(scores))
	copy(out, scores)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if diff := a.Value - b.Value; diff > tieEpsilon || diff < -tieEpsilon {
			return a.Value > b.Value
		}
		if a.WeightHint != b.WeightHint {
			return a.WeightHint > b.WeightHint
		}
		return a.StrategyID < b.StrategyID
	})
	return out
}

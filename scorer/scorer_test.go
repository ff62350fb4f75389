package scorer

import (
	"testing"

	"github.com/reachnet/strategyengine/catalog"

	"github.com/stretchr/testify/require"
)

func TestComputePerfectScoreIsOneHundred(t *testing.T) {
	require := require.New(t)
	m := catalog.MeasurementSummary{
		PassedTests:    100,
		TotalTests:     100,
		CriticalPassed: 10,
		CriticalTotal:  10,
	}
	s := Compute("s1", 0, m, DefaultWeights())
	require.InDelta(100.0, s.Value, 1e-9)
}

func TestComputeZeroCriticalTotalContributesZero(t *testing.T) {
	require := require.New(t)
	m := catalog.MeasurementSummary{PassedTests: 10, TotalTests: 10, CriticalTotal: 0}
	w := DefaultWeights()
	s := Compute("s1", 0, m, w)
	// success(1.0)*0.50 + critical(0)*0.30 + latency(1.0, avg=0)*0.15 + jitter(1.0)*0.05
	require.InDelta(100*(0.50+0.15+0.05), s.Value, 1e-9)
}

func TestComputeLatencyAndJitterClampAtBounds(t *testing.T) {
	require := require.New(t)
	m := catalog.MeasurementSummary{
		PassedTests: 1, TotalTests: 1,
		AvgLatencyMs:    2000, // beyond LMax
		LatencyJitterMs: 1000, // beyond JMax
	}
	s := Compute("s1", 0, m, DefaultWeights())
	require.InDelta(100*0.50, s.Value, 1e-9)
}

func TestLatencyTermIsTestCountWeighted(t *testing.T) {
	require := require.New(t)
	samples := []catalog.MeasurementSummary{
		{PassedTests: 90, AvgLatencyMs: 100},
		{PassedTests: 10, AvgLatencyMs: 1000},
	}
	// weighted mean = (90*100 + 10*1000) / 100 = 190
	got := LatencyTerm(samples)
	want := clamp01(1 - 190.0/LMax)
	require.InDelta(want, got, 1e-9)
}

func TestRankOrdersByScoreThenWeightHintThenID(t *testing.T) {
	require := require.New(t)
	scores := []Score{
		{StrategyID: "b", Value: 50, WeightHint: 1},
		{StrategyID: "a", Value: 50, WeightHint: 1},
		{StrategyID: "c", Value: 90, WeightHint: 0},
	}
	ranked := Rank(scores)
	require.Equal([]string{"c", "a", "b"}, []string{ranked[0].StrategyID, ranked[1].StrategyID, ranked[2].StrategyID})
}

func TestRankPrefersHigherWeightHintWithinEpsilon(t *testing.T) {
	require := require.New(t)
	scores := []Score{
		{StrategyID: "low", Value: 50, WeightHint: 0},
		{StrategyID: "high", Value: 50 + 1e-10, WeightHint: 5},
	}
	ranked := Rank(scores)
	require.Equal("high", ranked[0].StrategyID)
}

package analysis

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/unoanalysis/internal/dataset"
	"github.com/lox/unoanalysis/internal/statistics"
)

// agentGames builds n matches for agent with the first wins games won.
func agentGames(agent string, n, wins int, time func(i int) float64, turns func(i int) float64) []dataset.Match {
	out := make([]dataset.Match, n)
	for i := range out {
		w := 0.0
		if i < wins {
			w = 1
		}
		out[i] = dataset.Match{
			AgentName:       agent,
			GameID:          i + 1,
			Wins:            w,
			ExecutionTimeMs: time(i),
			TotalTurns:      turns(i),
		}
	}
	return out
}

func twoAgentScenario() *dataset.Dataset {
	random := agentGames("Random", 100, 20,
		func(i int) float64 { return 0.5 + float64(i%10)*0.01 },
		func(i int) float64 { return 30 + float64(i%7) })
	reglas := agentGames("Reglas", 100, 60,
		func(i int) float64 { return 1.2 + float64(i%10)*0.02 },
		func(i int) float64 { return 28 + float64(i%5) })
	return dataset.New(append(random, reglas...))
}

func testAggregator(t *testing.T) *Aggregator {
	return NewAggregator(WithLogger(zerolog.New(zerolog.NewTestWriter(t))))
}

func TestCompute_TwoAgentScenario(t *testing.T) {
	r := testAggregator(t).Compute(twoAgentScenario())

	require.Empty(t, r.StepErrors)
	assert.Equal(t, []string{"Random", "Reglas"}, r.Agents)
	assert.Equal(t, DefaultAlpha, r.Alpha)

	rate, ok := r.WinRate("Random")
	require.True(t, ok)
	assert.InDelta(t, 20.0, rate, 1e-9)
	rate, ok = r.WinRate("Reglas")
	require.True(t, ok)
	assert.InDelta(t, 60.0, rate, 1e-9)

	require.Len(t, r.WinStats, 2)
	assert.Equal(t, 100, r.WinStats[0].Games)
	assert.Equal(t, 20.0, r.WinStats[0].Wins)
	assert.InDelta(t, math.Sqrt(0.2*0.8*100/99), r.WinStats[0].Std, 1e-12)

	require.NotNil(t, r.WinChiSquare)
	assert.InDelta(t, 31.6875, r.WinChiSquare.Statistic, 1e-9)
	assert.Less(t, r.WinChiSquare.PValue, 0.05)

	require.NotNil(t, r.TimeANOVA)
	assert.Equal(t, 1.0, r.TimeANOVA.DF1)
	assert.Equal(t, 198.0, r.TimeANOVA.DF2)
	assert.True(t, r.TimeANOVA.Significant(r.Alpha))

	c, ok := comparisonOf(r, "Reglas", "Random")
	require.True(t, ok)
	assert.Equal(t, "Random", c.AgentA)
	assert.Equal(t, "Reglas", c.AgentB)
	assert.True(t, c.WinsSignificant)
	assert.True(t, c.TimeSignificant)
	assert.Less(t, c.Wins.Statistic, 0.0)
}

func TestCompute_SingleAgent(t *testing.T) {
	ds := dataset.New(agentGames("CFR", 10, 4,
		func(int) float64 { return 5 },
		func(i int) float64 { return float64(20 + i) }))

	r := testAggregator(t).Compute(ds)

	assert.Empty(t, r.StepErrors)
	assert.Nil(t, r.TimeANOVA)
	assert.Empty(t, r.Comparisons)

	// Constant time: zero spread, finite efficiency.
	require.Len(t, r.TimeStats, 1)
	assert.Equal(t, 0.0, r.TimeStats[0].Std)
	assert.Equal(t, 5.0, r.TimeStats[0].Median)

	e, ok := efficiencyOf(r, "CFR")
	require.True(t, ok)
	assert.False(t, e.TimeUndefined)
	assert.InDelta(t, 0.4/5, e.TimeEfficiency, 1e-12)
	assert.InDelta(t, 100.0, e.TimeNormalized, 1e-9)
	assert.InDelta(t, 100.0, e.TurnsNormalized, 1e-9)

	require.NotNil(t, r.WinChiSquare)
	assert.Equal(t, 0.0, r.WinChiSquare.Statistic)
	assert.Equal(t, 1.0, r.WinChiSquare.PValue)
}

func TestCompute_SingleRecordAgent(t *testing.T) {
	ds := dataset.New([]dataset.Match{
		{AgentName: "A", GameID: 1, Wins: 1, ExecutionTimeMs: 1, TotalTurns: 10},
		{AgentName: "B", GameID: 1, Wins: 0, ExecutionTimeMs: 2, TotalTurns: 12},
		{AgentName: "B", GameID: 2, Wins: 1, ExecutionTimeMs: 3, TotalTurns: 11},
	})

	r := testAggregator(t).Compute(ds)

	require.Len(t, r.WinStats, 2)
	assert.True(t, math.IsNaN(r.WinStats[0].Std))
	assert.Equal(t, 100.0, r.WinStats[0].RatePct)
	assert.Equal(t, 50.0, r.WinStats[1].RatePct)
}

func TestCompute_ZeroMeanTime(t *testing.T) {
	fast := agentGames("Fast", 4, 2, func(int) float64 { return 0 }, func(int) float64 { return 10 })
	slow := agentGames("Slow", 4, 1, func(int) float64 { return 2 }, func(int) float64 { return 10 })

	r := testAggregator(t).Compute(dataset.New(append(fast, slow...)))

	require.Nil(t, stepErr(r, StepEfficiency))
	e, ok := efficiencyOf(r, "Fast")
	require.True(t, ok)
	assert.True(t, e.TimeUndefined)
	assert.True(t, math.IsNaN(e.TimeEfficiency))
	assert.True(t, math.IsNaN(e.TimeNormalized))
	assert.False(t, e.TurnsUndefined)
	assert.InDelta(t, 100.0, e.TurnsNormalized, 1e-9)

	s, ok := efficiencyOf(r, "Slow")
	require.True(t, ok)
	assert.InDelta(t, 100.0, s.TimeNormalized, 1e-9)
	assert.InDelta(t, 50.0, s.TurnsNormalized, 1e-9)
}

func TestCompute_NoWinsAnywhere(t *testing.T) {
	a := agentGames("A", 5, 0, func(i int) float64 { return float64(i + 1) }, func(int) float64 { return 10 })
	b := agentGames("B", 5, 0, func(i int) float64 { return float64(i + 2) }, func(int) float64 { return 12 })

	r := testAggregator(t).Compute(dataset.New(append(a, b...)))

	err := stepErr(r, StepChiSquare)
	require.Error(t, err)
	assert.ErrorIs(t, err, statistics.ErrDegenerateContingency)
	assert.Nil(t, r.WinChiSquare)

	// Other steps are unaffected.
	assert.NotNil(t, r.TimeANOVA)
	assert.Len(t, r.Comparisons, 1)
	assert.Len(t, r.WinRates, 2)

	// Zero mean wins everywhere: the best efficiency is 0, nothing can be
	// normalized.
	for _, e := range r.Efficiency {
		assert.Equal(t, 0.0, e.TimeEfficiency)
		assert.True(t, math.IsNaN(e.TimeNormalized))
	}
}

func TestCompute_MissingCellsAreSkipped(t *testing.T) {
	ds := dataset.New([]dataset.Match{
		{AgentName: "A", GameID: 1, Wins: 1, ExecutionTimeMs: 2, TotalTurns: 10},
		{AgentName: "A", GameID: 2, Wins: math.NaN(), ExecutionTimeMs: math.NaN(), TotalTurns: 12},
		{AgentName: "A", GameID: 3, Wins: 0, ExecutionTimeMs: 4, TotalTurns: 14},
	})

	r := testAggregator(t).Compute(ds)

	assert.Equal(t, 2, r.WinStats[0].Games)
	assert.Equal(t, 50.0, r.WinStats[0].RatePct)
	assert.Equal(t, 2, r.TimeStats[0].Count)
	assert.Equal(t, 1, r.TimeStats[0].Missing)
	assert.Equal(t, 3.0, r.TimeStats[0].Mean)
	assert.Equal(t, 3, r.TurnStats[0].Count)
}

func TestCompute_AlphaOption(t *testing.T) {
	r := NewAggregator(WithAlpha(1e-12)).Compute(twoAgentScenario())
	assert.Equal(t, 1e-12, r.Alpha)

	// p is ~1.8e-8: significant at 0.05, not at 1e-12.
	require.NotNil(t, r.WinChiSquare)
	assert.False(t, r.WinChiSquare.Significant(r.Alpha))

	assert.Equal(t, DefaultAlpha, NewAggregator(WithAlpha(2)).Compute(twoAgentScenario()).Alpha)
}

func TestResults_Lookups(t *testing.T) {
	r := testAggregator(t).Compute(twoAgentScenario())

	_, ok := r.WinRate("Nobody")
	assert.False(t, ok)
	_, ok = comparisonOf(r, "Random", "Nobody")
	assert.False(t, ok)
	_, ok = efficiencyOf(r, "Nobody")
	assert.False(t, ok)
	assert.NoError(t, stepErr(r, StepPairwise))
}

// comparisonOf finds the comparison between a and b in either order.
func comparisonOf(r *Results, a, b string) (Comparison, bool) {
	for _, c := range r.Comparisons {
		if (c.AgentA == a && c.AgentB == b) || (c.AgentA == b && c.AgentB == a) {
			return c, true
		}
	}
	return Comparison{}, false
}

func efficiencyOf(r *Results, agent string) (Efficiency, bool) {
	for _, e := range r.Efficiency {
		if e.Agent == agent {
			return e, true
		}
	}
	return Efficiency{}, false
}

func stepErr(r *Results, step Step) error {
	for _, e := range r.StepErrors {
		if e.Step == step {
			return e
		}
	}
	return nil
}

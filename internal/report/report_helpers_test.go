package report

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/unoanalysis/internal/analysis"
	"github.com/lox/unoanalysis/internal/config"
	"github.com/lox/unoanalysis/internal/dataset"
)

// matchesFor builds n games for agent, the first wins of them won. Times and
// turns vary with the game index so every distribution has spread.
func matchesFor(agent string, n, wins int, baseTime float64) []dataset.Match {
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
			ExecutionTimeMs: baseTime + float64(i%7)*0.25,
			TotalTurns:      float64(20 + i%11),
		}
	}
	return out
}

// scenario is Random winning 20/100 against Reglas winning 60/100.
func scenario(t *testing.T) (*dataset.Dataset, *analysis.Results) {
	t.Helper()
	var matches []dataset.Match
	matches = append(matches, matchesFor("Random", 100, 20, 1.0)...)
	matches = append(matches, matchesFor("Reglas", 100, 60, 3.0)...)
	ds := dataset.New(matches)
	res := analysis.NewAggregator().Compute(ds)
	require.Empty(t, res.StepErrors)
	return ds, res
}

// testStyle keeps rendered charts small.
func testStyle(t *testing.T) Style {
	t.Helper()
	cfg := config.Default().Style
	cfg.Width, cfg.Height, cfg.DPI = 6, 4, 30
	s, err := StyleFromConfig(cfg, 7)
	require.NoError(t, err)
	return s
}

func agentNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("bot-%d", i)
	}
	return out
}

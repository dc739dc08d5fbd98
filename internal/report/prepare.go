package report

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/lox/unoanalysis/internal/config"
	"github.com/lox/unoanalysis/internal/dataset"
)

// ColWinRate is the per-record column holding the agent's win percentage.
const ColWinRate = dataset.ColWinPct

// NormalizeTime returns ds with execution times converted from unit to
// milliseconds. ds itself is left untouched; it is returned as is when no
// conversion is needed.
func NormalizeTime(ds *dataset.Dataset, unit string, logger zerolog.Logger) (*dataset.Dataset, error) {
	scale, err := timeScale(ds, unit, logger)
	if err != nil {
		return nil, err
	}
	if scale == 1 {
		return ds, nil
	}

	matches := ds.Matches()
	for i := range matches {
		matches[i].ExecutionTimeMs *= scale
	}
	return dataset.New(matches, ds.Extra()...), nil
}

// withWinRate returns the copy of ds the charts are drawn from: ds plus a
// win_rate column unless the input already carries one.
func withWinRate(ds *dataset.Dataset) *dataset.Dataset {
	extra := append([]dataset.Column(nil), ds.Extra()...)
	if hasColumn(extra, ColWinRate) {
		return ds
	}

	rates := make(map[string]float64)
	for _, agent := range ds.Agents() {
		rates[agent] = ds.AgentValues(agent, dataset.FieldWins).Mean() * 100
	}
	matches := ds.Matches()
	values := make([]string, len(matches))
	for i, m := range matches {
		if rate := rates[m.AgentName]; !math.IsNaN(rate) {
			values[i] = strconv.FormatFloat(rate, 'f', -1, 64)
		}
	}
	extra = append(extra, dataset.Column{Name: ColWinRate, Values: values})
	return dataset.New(matches, extra...)
}

func timeScale(ds *dataset.Dataset, unit string, logger zerolog.Logger) (float64, error) {
	switch unit {
	case config.TimeUnitMilliseconds, "":
		return 1, nil
	case config.TimeUnitSeconds:
		return 1000, nil
	case config.TimeUnitAuto:
		longest := ds.Values(dataset.FieldTime).Max()
		if longest < 1 {
			logger.Warn().
				Float64("max_time", longest).
				Msg("Execution times look like seconds, converting to milliseconds; set time_unit explicitly to silence this")
			return 1000, nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("unknown time unit %q", unit)
	}
}

func hasColumn(cols []dataset.Column, name string) bool {
	for _, c := range cols {
		if c.Name == name {
			return true
		}
	}
	return false
}

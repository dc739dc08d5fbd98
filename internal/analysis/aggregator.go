// Package analysis computes the per-agent statistics, significance tests and
// efficiency metrics of a match dataset.
package analysis

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/lox/unoanalysis/internal/dataset"
	"github.com/lox/unoanalysis/internal/statistics"
)

// DefaultAlpha is the significance level used when none is configured.
const DefaultAlpha = 0.05

// Aggregator runs the analysis steps over a dataset.
type Aggregator struct {
	logger zerolog.Logger
	alpha  float64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger used for step progress.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithAlpha sets the significance level. Values outside (0, 1) are ignored.
func WithAlpha(alpha float64) Option {
	return func(a *Aggregator) {
		if alpha > 0 && alpha < 1 {
			a.alpha = alpha
		}
	}
}

// NewAggregator creates an Aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		logger: zerolog.Nop(),
		alpha:  DefaultAlpha,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type stepFunc func(ds *dataset.Dataset, r *Results) error

// Compute runs every step over ds. A failing step is recorded in
// Results.StepErrors and leaves its fields empty; the other steps still run.
// ds is not modified.
func (a *Aggregator) Compute(ds *dataset.Dataset) *Results {
	r := &Results{
		Agents: ds.Agents(),
		Alpha:  a.alpha,
	}

	a.logger.Info().
		Int("records", ds.Len()).
		Strs("agents", r.Agents).
		Float64("alpha", a.alpha).
		Msg("Running statistical analysis")

	steps := []struct {
		step Step
		run  stepFunc
	}{
		{StepWinRates, a.winRates},
		{StepTimes, a.timeStats},
		{StepTurns, a.turnStats},
		{StepANOVA, a.timeANOVA},
		{StepChiSquare, a.winChiSquare},
		{StepPairwise, a.pairwise},
		{StepEfficiency, a.efficiency},
	}
	for _, s := range steps {
		if err := runStep(s.run, ds, r); err != nil {
			a.logger.Warn().Err(err).Str("step", string(s.step)).Msg("Analysis step failed")
			r.StepErrors = append(r.StepErrors, StepError{Step: s.step, Err: err})
		}
	}

	return r
}

func runStep(run stepFunc, ds *dataset.Dataset, r *Results) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return run(ds, r)
}

func (a *Aggregator) winRates(ds *dataset.Dataset, r *Results) error {
	groups := ds.ByAgent(dataset.FieldWins)
	stats := make([]WinStat, len(r.Agents))
	rates := make([]AgentValue, len(r.Agents))

	for i, agent := range r.Agents {
		wins, _ := groups[i].Clean()
		s := WinStat{
			Agent: agent,
			Games: len(wins),
			Wins:  wins.Sum(),
			Mean:  wins.Mean(),
			Std:   wins.StdDev(),
		}
		s.RatePct = s.Mean * 100
		stats[i] = s
		rates[i] = AgentValue{Agent: agent, Value: s.RatePct}

		a.logger.Info().
			Str("agent", agent).
			Float64("rate_pct", s.RatePct).
			Msgf("%s: %.2f%% (%.0f/%d victorias)", agent, s.RatePct, s.Wins, s.Games)
	}

	r.WinStats = stats
	r.WinRates = rates
	return nil
}

func (a *Aggregator) timeStats(ds *dataset.Dataset, r *Results) error {
	r.TimeStats = a.summaries(ds, r.Agents, dataset.FieldTime)
	return nil
}

func (a *Aggregator) turnStats(ds *dataset.Dataset, r *Results) error {
	r.TurnStats = a.summaries(ds, r.Agents, dataset.FieldTurns)
	return nil
}

func (a *Aggregator) summaries(ds *dataset.Dataset, agents []string, field dataset.Field) []AgentSummary {
	groups := ds.ByAgent(field)
	out := make([]AgentSummary, len(agents))
	for i, agent := range agents {
		s := statistics.Describe(groups[i])
		out[i] = AgentSummary{Agent: agent, Summary: s}

		ev := a.logger.Info().
			Str("agent", agent).
			Str("column", field.String()).
			Float64("mean", s.Mean).
			Float64("std", s.Std).
			Float64("min", s.Min).
			Float64("max", s.Max).
			Float64("median", s.Median)
		if s.Missing > 0 {
			ev = ev.Int("missing", s.Missing)
		}
		ev.Msg("Distribution")
	}
	return out
}

func (a *Aggregator) timeANOVA(ds *dataset.Dataset, r *Results) error {
	if len(r.Agents) < 2 {
		a.logger.Info().Int("agents", len(r.Agents)).Msg("Skipping ANOVA: fewer than two agents")
		return nil
	}

	res, err := statistics.OneWayANOVA(ds.ByAgent(dataset.FieldTime))
	if err != nil {
		return fmt.Errorf("ANOVA on %s: %w", dataset.ColTime, err)
	}
	r.TimeANOVA = &res

	a.logger.Info().
		Float64("F", res.Statistic).
		Float64("p", res.PValue).
		Bool("significant", res.Significant(a.alpha)).
		Msgf("ANOVA tiempos: F=%.4f, p=%.4f", res.Statistic, res.PValue)
	return nil
}

// winChiSquare tests agent against outcome on an agents × {0, 1} table.
// Cells that are NaN or not binary are left out of the table.
func (a *Aggregator) winChiSquare(ds *dataset.Dataset, r *Results) error {
	groups := ds.ByAgent(dataset.FieldWins)
	table := make([][]float64, len(groups))
	for i, g := range groups {
		table[i] = make([]float64, 2)
		for _, v := range g {
			switch v {
			case 0:
				table[i][0]++
			case 1:
				table[i][1]++
			}
		}
	}

	res, err := statistics.ChiSquareIndependence(table)
	if err != nil {
		return fmt.Errorf("chi-square on %s: %w", dataset.ColWins, err)
	}
	r.WinChiSquare = &res

	a.logger.Info().
		Float64("chi2", res.Statistic).
		Float64("p", res.PValue).
		Float64("dof", res.DF1).
		Bool("significant", res.Significant(a.alpha)).
		Msgf("Chi-cuadrado victorias: χ²=%.4f, p=%.4f", res.Statistic, res.PValue)
	return nil
}

func (a *Aggregator) pairwise(ds *dataset.Dataset, r *Results) error {
	wins := ds.ByAgent(dataset.FieldWins)
	times := ds.ByAgent(dataset.FieldTime)

	n := len(r.Agents)
	comparisons := make([]Comparison, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := Comparison{
				AgentA: r.Agents[i],
				AgentB: r.Agents[j],
				Wins:   statistics.TTestIndependent(wins[i], wins[j]),
				Time:   statistics.TTestIndependent(times[i], times[j]),
			}
			c.WinsSignificant = c.Wins.Significant(a.alpha)
			c.TimeSignificant = c.Time.Significant(a.alpha)
			comparisons = append(comparisons, c)

			a.logger.Info().
				Str("agent_a", c.AgentA).
				Str("agent_b", c.AgentB).
				Float64("wins_p", c.Wins.PValue).
				Bool("wins_significant", c.WinsSignificant).
				Float64("time_p", c.Time.PValue).
				Bool("time_significant", c.TimeSignificant).
				Msgf("%s vs %s", c.AgentA, c.AgentB)
		}
	}

	r.Comparisons = comparisons
	return nil
}

func (a *Aggregator) efficiency(ds *dataset.Dataset, r *Results) error {
	wins := ds.ByAgent(dataset.FieldWins)
	times := ds.ByAgent(dataset.FieldTime)
	turns := ds.ByAgent(dataset.FieldTurns)

	out := make([]Efficiency, len(r.Agents))
	for i, agent := range r.Agents {
		e := Efficiency{
			Agent:     agent,
			MeanWins:  wins[i].Mean(),
			MeanTime:  times[i].Mean(),
			MeanTurns: turns[i].Mean(),
		}
		e.TimeEfficiency, e.TimeUndefined = ratio(e.MeanWins, e.MeanTime)
		e.TurnsEfficiency, e.TurnsUndefined = ratio(e.MeanWins, e.MeanTurns)
		out[i] = e
	}

	timeNorm := normalizeToMax(out, func(e Efficiency) float64 { return e.TimeEfficiency })
	turnsNorm := normalizeToMax(out, func(e Efficiency) float64 { return e.TurnsEfficiency })
	for i := range out {
		out[i].TimeNormalized = timeNorm[i]
		out[i].TurnsNormalized = turnsNorm[i]

		a.logger.Info().
			Str("agent", out[i].Agent).
			Float64("time_norm", out[i].TimeNormalized).
			Float64("turns_norm", out[i].TurnsNormalized).
			Bool("time_undefined", out[i].TimeUndefined).
			Bool("turns_undefined", out[i].TurnsUndefined).
			Msg("Efficiency")
	}

	r.Efficiency = out
	return nil
}

// ratio divides num by den. A zero or missing denominator makes the ratio
// undefined.
func ratio(num, den float64) (float64, bool) {
	if den == 0 || math.IsNaN(den) || math.IsNaN(num) {
		return math.NaN(), true
	}
	return num / den, false
}

// normalizeToMax scales values to percentages of the largest finite value.
// Non-finite values stay NaN; a non-positive maximum leaves every value NaN.
func normalizeToMax(records []Efficiency, value func(Efficiency) float64) []float64 {
	out := make([]float64, len(records))
	best := math.Inf(-1)
	for _, rec := range records {
		if v := value(rec); isFinite(v) && v > best {
			best = v
		}
	}
	for i, rec := range records {
		v := value(rec)
		if best <= 0 || math.IsInf(best, -1) || !isFinite(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = v / best * 100
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

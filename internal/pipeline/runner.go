// Package pipeline runs the analysis end to end: load, explore, aggregate,
// render and persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lox/unoanalysis/internal/analysis"
	"github.com/lox/unoanalysis/internal/config"
	"github.com/lox/unoanalysis/internal/dataset"
	"github.com/lox/unoanalysis/internal/fileutil"
	"github.com/lox/unoanalysis/internal/report"
)

// ProcessedCSV is the copy of the input table written to the data directory.
const ProcessedCSV = "datos_procesados.csv"

// maxLoggedViolations caps the per-row warnings; the rest are only counted.
const maxLoggedViolations = 10

// Runner executes one analysis run.
type Runner struct {
	config  *config.Config
	logger  zerolog.Logger
	clock   quartz.Clock
	console io.Writer
	newID   func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger handed to every stage.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithClock replaces the wall clock used for run timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(r *Runner) { r.clock = clock }
}

// WithConsole sets where the styled tables are printed. nil disables them.
func WithConsole(w io.Writer) Option {
	return func(r *Runner) { r.console = w }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.newID = func() string { return id } }
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		config: cfg,
		logger: zerolog.Nop(),
		clock:  quartz.NewReal(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Records    int
	Agents     []string
	Violations []dataset.Violation
	Results    *analysis.Results
	Artifacts  *report.Artifacts
	Processed  string // path of the processed CSV, empty if not written
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Run executes every stage in order. Cancelling ctx stops the run before the
// next stage begins. Artifact failures do not stop the run; they are returned
// joined once every stage has finished.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	s := &Summary{
		RunID:     r.newID(),
		StartedAt: r.clock.Now(),
	}
	logger := r.logger.With().Str("run_id", s.RunID).Logger()

	logger.Info().
		Str("input", r.config.Input.Path).
		Str("output", r.config.Output.Dir).
		Msg("Starting UNO agent analysis")

	// Load
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds, err := dataset.Load(r.config.Input.Path, columnMapping(r.config.Input.Columns))
	if err != nil {
		return nil, err
	}
	s.Records = ds.Len()
	s.Agents = ds.Agents()
	logger.Info().Int("records", ds.Len()).Strs("agents", s.Agents).Msg("Data loaded")

	// Statistics and charts share one time scale; the processed CSV keeps
	// the input unit.
	normalized, err := report.NormalizeTime(ds, r.config.Input.TimeUnit, logger)
	if err != nil {
		return nil, err
	}

	style, err := report.StyleFromConfig(r.config.Style, r.config.Analysis.JitterSeed)
	if err != nil {
		return nil, err
	}
	reporter := report.NewReporter(report.Config{
		ChartsDir:   r.config.ChartsPath(),
		DataDir:     r.config.DataPath(),
		SummaryPath: r.config.SummaryPath(),
		Formats:     r.config.Output.Formats,
		Style:       style,
		Logger:      logger,
		Console:     r.console,
	})

	// Explore
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.Violations = r.explore(logger, normalized, reporter)

	// Aggregate
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	aggregator := analysis.NewAggregator(
		analysis.WithLogger(logger.With().Str("component", "analysis").Logger()),
		analysis.WithAlpha(r.config.Analysis.Alpha),
	)
	s.Results = aggregator.Compute(normalized)

	// Render
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var errs []error
	artifacts, err := reporter.Render(normalized, s.Results, report.Run{
		ID:          s.RunID,
		Input:       r.config.Input.Path,
		TimeUnit:    r.config.Input.TimeUnit,
		StartedAt:   s.StartedAt,
		GeneratedAt: r.clock.Now(),
		Violations:  s.Violations,
	})
	if err != nil {
		if artifacts == nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		errs = append(errs, err)
	}
	s.Artifacts = artifacts

	// Persist
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	processed := filepath.Join(r.config.DataPath(), ProcessedCSV)
	if err := fileutil.WriteAtomic(processed, 0o644, ds.WriteCSV); err != nil {
		logger.Error().Err(err).Str("path", processed).Msg("Failed to save processed data")
		errs = append(errs, fmt.Errorf("processed data: %w", err))
	} else {
		s.Processed = processed
		logger.Info().Str("path", processed).Msg("Processed data saved")
	}

	s.FinishedAt = r.clock.Now()
	logger.Info().
		Dur("duration", s.Duration()).
		Str("output", r.config.Output.Dir).
		Int("step_errors", len(s.Results.StepErrors)).
		Msg("Analysis complete")

	return s, errors.Join(errs...)
}

// explore logs the dataset overview and integrity violations and prints the
// overview tables.
func (r *Runner) explore(logger zerolog.Logger, ds *dataset.Dataset, reporter *report.Reporter) []dataset.Violation {
	ov := ds.Describe()

	logger.Info().
		Int("rows", ov.Rows).
		Strs("columns", ov.Columns).
		Msg("Dataset overview")
	for _, c := range ov.AgentCounts {
		logger.Debug().Str("agent", c.Agent).Float64("games", c.Count).Msg("Games per agent")
	}
	for _, w := range ov.WinsByAgent {
		logger.Debug().Str("agent", w.Agent).Float64("wins", w.Count).Msg("Wins per agent")
	}
	for _, n := range ov.NullCounts {
		logger.Warn().Str("column", n.Column).Int("empty", n.Count).Msg("Column has empty values")
	}

	violations := ds.Validate()
	for i, v := range violations {
		if i == maxLoggedViolations {
			logger.Warn().Int("remaining", len(violations)-i).Msg("Further data violations omitted")
			break
		}
		logger.Warn().
			Str("kind", string(v.Kind)).
			Int("row", v.Row+1).
			Str("column", v.Column).
			Str("value", v.Value).
			Msg("Data violation")
	}

	reporter.PrintOverview(ov)
	return violations
}

func columnMapping(c config.ColumnsConfig) dataset.ColumnMapping {
	return dataset.ColumnMapping{
		Agent: c.Agent,
		Game:  c.Game,
		Wins:  c.Wins,
		Time:  c.Time,
		Turns: c.Turns,
	}
}

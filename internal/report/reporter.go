// Package report turns analysis results into charts, a text summary and data
// exports.
package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/lox/unoanalysis/internal/analysis"
	"github.com/lox/unoanalysis/internal/config"
	"github.com/lox/unoanalysis/internal/dataset"
	"github.com/lox/unoanalysis/internal/fileutil"
)

// Config holds where and how the Reporter writes.
type Config struct {
	ChartsDir   string
	DataDir     string
	SummaryPath string
	Formats     []string // json, xlsx, parquet
	Style       Style
	Logger      zerolog.Logger
	Console     io.Writer // styled tables; nil disables them
}

// Run describes the pipeline run being reported.
type Run struct {
	ID          string
	Input       string
	TimeUnit    string // unit of the input times; reported values are milliseconds
	StartedAt   time.Time
	GeneratedAt time.Time
	Violations  []dataset.Violation
}

// Artifacts lists the files a Render call wrote.
type Artifacts struct {
	Charts  []string
	Summary string
	Exports []string
}

// Reporter handles output generation for analysis results
type Reporter struct {
	config Config
	logger zerolog.Logger
}

// NewReporter creates a new reporter instance
func NewReporter(cfg Config) *Reporter {
	return &Reporter{
		config: cfg,
		logger: cfg.Logger.With().Str("component", "report").Logger(),
	}
}

// Render writes every chart, the summary and the enabled exports. ds must
// hold execution times in milliseconds, see NormalizeTime. A failing artifact
// does not stop the others; all failures are returned joined.
func (r *Reporter) Render(ds *dataset.Dataset, res *analysis.Results, run Run) (*Artifacts, error) {
	prepared := withWinRate(ds)

	if err := fileutil.EnsureDirs(r.config.ChartsDir, r.config.DataDir, filepath.Dir(r.config.SummaryPath)); err != nil {
		return nil, err
	}

	artifacts := &Artifacts{}
	var errs []error

	r.logger.Info().Str("dir", r.config.ChartsDir).Msg("Generating charts")
	for _, chart := range charts {
		path := filepath.Join(r.config.ChartsDir, chart.file)
		if err := r.renderChart(path, chart.build, prepared, res); err != nil {
			r.logger.Error().Err(err).Str("chart", chart.file).Msg("Chart failed")
			errs = append(errs, fmt.Errorf("chart %s: %w", chart.file, err))
			continue
		}
		artifacts.Charts = append(artifacts.Charts, path)
		r.logger.Debug().Str("path", path).Msg("Chart written")
	}

	if err := fileutil.WriteAtomic(r.config.SummaryPath, 0o644, func(w io.Writer) error {
		return WriteSummary(w, res, run.Violations)
	}); err != nil {
		r.logger.Error().Err(err).Msg("Summary failed")
		errs = append(errs, fmt.Errorf("summary: %w", err))
	} else {
		artifacts.Summary = r.config.SummaryPath
	}

	for _, export := range r.exports(prepared, res, run) {
		if !r.enabled(export.format) {
			continue
		}
		path := filepath.Join(r.config.DataDir, export.file)
		if err := fileutil.WriteAtomic(path, 0o644, export.write); err != nil {
			r.logger.Error().Err(err).Str("format", export.format).Msg("Export failed")
			errs = append(errs, fmt.Errorf("export %s: %w", export.file, err))
			continue
		}
		artifacts.Exports = append(artifacts.Exports, path)
	}

	r.PrintResults(res)

	r.logger.Info().
		Int("charts", len(artifacts.Charts)).
		Int("exports", len(artifacts.Exports)).
		Int("failures", len(errs)).
		Msg("Report rendered")

	return artifacts, errors.Join(errs...)
}

func (r *Reporter) renderChart(path string, build chartBuilder, ds *dataset.Dataset, res *analysis.Results) (err error) {
	// gonum/plot panics on some degenerate inputs.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("render panic: %v", p)
		}
	}()

	fig, err := build(r.config.Style, ds, res)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return r.config.Style.writePNG(fig, w)
	})
}

type export struct {
	format string
	file   string
	write  func(w io.Writer) error
}

func (r *Reporter) exports(ds *dataset.Dataset, res *analysis.Results, run Run) []export {
	return []export{
		{config.FormatJSON, ExportJSON, func(w io.Writer) error {
			return writeJSON(w, newResultsDocument(res, run, ds.Len()))
		}},
		{config.FormatXLSX, ExportXLSX, func(w io.Writer) error {
			return writeXLSX(w, res, run.Violations)
		}},
		{config.FormatParquet, ExportParquet, func(w io.Writer) error {
			return writeParquet(w, ds, res)
		}},
	}
}

func (r *Reporter) enabled(format string) bool {
	return config.FormatEnabled(r.config.Formats, format)
}

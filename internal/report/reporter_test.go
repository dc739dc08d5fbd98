package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/unoanalysis/internal/config"
	"github.com/lox/unoanalysis/internal/dataset"
)

func newTestReporter(t *testing.T, dir string, console *bytes.Buffer, formats ...string) *Reporter {
	t.Helper()
	cfg := Config{
		ChartsDir:   filepath.Join(dir, "graficos"),
		DataDir:     filepath.Join(dir, "datos"),
		SummaryPath: filepath.Join(dir, "resumen_analisis.txt"),
		Formats:     formats,
		Style:       testStyle(t),
		Logger:      zerolog.New(zerolog.NewTestWriter(t)),
	}
	if console != nil {
		cfg.Console = console
	}
	return NewReporter(cfg)
}

func testRun() Run {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return Run{ID: "test-run", Input: "uno_agents_detailed.csv", TimeUnit: config.TimeUnitMilliseconds, StartedAt: now, GeneratedAt: now}
}

func requirePNG(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, path)
	require.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "%s is not a PNG", path)
	return data
}

func TestRender(t *testing.T) {
	ds, res := scenario(t)
	dir := t.TempDir()
	var console bytes.Buffer

	r := newTestReporter(t, dir, &console, config.FormatJSON, config.FormatXLSX, config.FormatParquet)
	artifacts, err := r.Render(ds, res, testRun())
	require.NoError(t, err)

	require.Len(t, artifacts.Charts, len(charts))
	for i, chart := range charts {
		assert.Equal(t, filepath.Join(dir, "graficos", chart.file), artifacts.Charts[i])
		requirePNG(t, artifacts.Charts[i])
	}

	summary, err := os.ReadFile(artifacts.Summary)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "RESUMEN ANÁLISIS AGENTES UNO")

	assert.Equal(t, []string{
		filepath.Join(dir, "datos", ExportJSON),
		filepath.Join(dir, "datos", ExportXLSX),
		filepath.Join(dir, "datos", ExportParquet),
	}, artifacts.Exports)
	for _, path := range artifacts.Exports {
		assert.FileExists(t, path)
	}

	assert.Contains(t, console.String(), "Tasas de victoria")
	assert.Contains(t, console.String(), "Reglas")
}

func TestRender_SkipsDisabledFormats(t *testing.T) {
	ds, res := scenario(t)
	dir := t.TempDir()

	r := newTestReporter(t, dir, nil, "JSON")
	artifacts, err := r.Render(ds, res, testRun())
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "datos", ExportJSON)}, artifacts.Exports)
	assert.NoFileExists(t, filepath.Join(dir, "datos", ExportXLSX))
	assert.NoFileExists(t, filepath.Join(dir, "datos", ExportParquet))
}

func TestRender_ContinuesAfterFailure(t *testing.T) {
	ds, res := scenario(t)
	dir := t.TempDir()

	r := newTestReporter(t, dir, nil, config.FormatJSON)
	// A directory where the summary should go makes that write fail.
	require.NoError(t, os.MkdirAll(r.config.SummaryPath, 0o755))

	artifacts, err := r.Render(ds, res, testRun())
	require.Error(t, err)
	assert.ErrorContains(t, err, "summary")

	require.NotNil(t, artifacts)
	assert.Empty(t, artifacts.Summary)
	assert.Len(t, artifacts.Charts, len(charts))
	assert.Len(t, artifacts.Exports, 1)
}

func TestRender_JitterIsDeterministic(t *testing.T) {
	ds, res := scenario(t)

	first := newTestReporter(t, t.TempDir(), nil)
	a, err := first.Render(ds, res, testRun())
	require.NoError(t, err)

	second := newTestReporter(t, t.TempDir(), nil)
	b, err := second.Render(ds, res, testRun())
	require.NoError(t, err)

	assert.Equal(t,
		requirePNG(t, filepath.Join(filepath.Dir(a.Charts[0]), ChartExecutionTimes)),
		requirePNG(t, filepath.Join(filepath.Dir(b.Charts[0]), ChartExecutionTimes)))
}

func TestPrintOverview(t *testing.T) {
	ds, _ := scenario(t)
	var console bytes.Buffer

	r := newTestReporter(t, t.TempDir(), &console)
	r.PrintOverview(ds.Describe())

	out := console.String()
	assert.Contains(t, out, "Datos: 200 filas, 5 columnas")
	assert.Contains(t, out, dataset.ColTime)
	assert.Contains(t, out, "Random")
	assert.NotContains(t, out, "Valores vacíos")
}

func TestPrintOverview_NilConsole(t *testing.T) {
	ds, _ := scenario(t)
	r := newTestReporter(t, t.TempDir(), nil)
	assert.NotPanics(t, func() { r.PrintOverview(ds.Describe()) })
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analysis.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
input {
  path      = "matches.csv"
  time_unit = "s"

  columns {
    agent = "Bot"
  }
}

output {
  dir     = "out"
  formats = ["json"]
}

analysis {
  alpha = 0.01
}

style {
  dpi = 150
  palette = {
    MCTS = "#A78BFA"
  }
}

log {
  format = "json"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "matches.csv", cfg.Input.Path)
	assert.Equal(t, TimeUnitSeconds, cfg.Input.TimeUnit)
	assert.Equal(t, "Bot", cfg.Input.Columns.Agent)
	assert.Equal(t, "Partida", cfg.Input.Columns.Game, "unset columns keep defaults")

	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, []string{FormatJSON}, cfg.Output.Formats)
	assert.Equal(t, filepath.Join("out", "graficos"), cfg.ChartsPath())
	assert.Equal(t, filepath.Join("out", "datos"), cfg.DataPath())
	assert.Equal(t, filepath.Join("out", "resumen_analisis.txt"), cfg.SummaryPath())
	assert.True(t, FormatEnabled(cfg.Output.Formats, "JSON"))
	assert.False(t, FormatEnabled(cfg.Output.Formats, FormatXLSX))

	assert.Equal(t, 0.01, cfg.Analysis.Alpha)
	assert.Equal(t, int64(42), cfg.Analysis.JitterSeed)

	assert.Equal(t, 150, cfg.Style.DPI)
	assert.Equal(t, 12.0, cfg.Style.Width)
	assert.Equal(t, "#A78BFA", cfg.Style.Palette["MCTS"])
	assert.Equal(t, "#F87171", cfg.Style.Palette["Random"])

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ExplicitZeroIsKept(t *testing.T) {
	path := writeConfig(t, `
analysis {
  jitter_seed = 0
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.Analysis.JitterSeed)
	assert.Equal(t, 0.05, cfg.Analysis.Alpha, "absent attributes keep defaults")
}

func TestLoad_ExplicitZeroIsValidated(t *testing.T) {
	path := writeConfig(t, `
analysis {
  alpha = 0
}
style {
  width = 0
}
`)
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "alpha")
	assert.Contains(t, err.Error(), "chart size")
}

func TestLoad_ParseError(t *testing.T) {
	path := writeConfig(t, `input { path = `)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnknownBlock(t *testing.T) {
	path := writeConfig(t, `server { port = 8080 }`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
input {
  time_unit = "minutes"
}
analysis {
  alpha = 1.5
}
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "time_unit")
	assert.Contains(t, err.Error(), "alpha")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty input", func(c *Config) { c.Input.Path = "" }},
		{"empty output", func(c *Config) { c.Output.Dir = "" }},
		{"unknown format", func(c *Config) { c.Output.Formats = []string{"csv"} }},
		{"zero alpha", func(c *Config) { c.Analysis.Alpha = 0 }},
		{"zero width", func(c *Config) { c.Style.Width = 0 }},
		{"huge dpi", func(c *Config) { c.Style.DPI = 5000 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestResolveAbsolutePaths(t *testing.T) {
	cfg := Default()
	abs := filepath.Join(t.TempDir(), "charts")
	cfg.Output.ChartsDir = abs
	assert.Equal(t, abs, cfg.ChartsPath())
}

// Package config loads the analysis configuration from an HCL file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Time units accepted for the execution time column.
const (
	TimeUnitMilliseconds = "ms"
	TimeUnitSeconds      = "s"
	TimeUnitAuto         = "auto"
)

// Export formats.
const (
	FormatJSON    = "json"
	FormatXLSX    = "xlsx"
	FormatParquet = "parquet"
)

// Config is the complete analysis configuration.
type Config struct {
	Input    InputConfig
	Output   OutputConfig
	Analysis AnalysisConfig
	Style    StyleConfig
	Log      LogConfig
}

// InputConfig describes where the match CSV lives and how to read it.
type InputConfig struct {
	Path     string
	TimeUnit string // ms, s or auto
	Columns  ColumnsConfig
}

// ColumnsConfig maps input headers onto the internal columns.
type ColumnsConfig struct {
	Agent string `hcl:"agent,optional"`
	Game  string `hcl:"game,optional"`
	Wins  string `hcl:"wins,optional"`
	Time  string `hcl:"time,optional"`
	Turns string `hcl:"turns,optional"`
}

// OutputConfig names the output locations. ChartsDir and DataDir are relative
// to Dir unless absolute; SummaryFile likewise.
type OutputConfig struct {
	Dir         string   `hcl:"dir,optional"`
	ChartsDir   string   `hcl:"charts_dir,optional"`
	DataDir     string   `hcl:"data_dir,optional"`
	SummaryFile string   `hcl:"summary_file,optional"`
	Formats     []string `hcl:"formats,optional"`
}

// AnalysisConfig tunes the statistics.
type AnalysisConfig struct {
	Alpha      float64
	JitterSeed int64
}

// StyleConfig controls chart rendering.
type StyleConfig struct {
	Width     float64 // inches
	Height    float64 // inches
	DPI       int
	TitleSize float64 // points
	LabelSize float64 // points
	Palette   map[string]string
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

// file mirrors Config with optional blocks.
type file struct {
	Input    *inputBlock     `hcl:"input,block"`
	Output   *OutputConfig   `hcl:"output,block"`
	Analysis *analysisBlock `hcl:"analysis,block"`
	Style    *styleBlock    `hcl:"style,block"`
	Log      *LogConfig     `hcl:"log,block"`
}

// Numeric attributes are pointers so an explicit zero is told apart from an
// absent attribute.
type analysisBlock struct {
	Alpha      *float64 `hcl:"alpha,optional"`
	JitterSeed *int64   `hcl:"jitter_seed,optional"`
}

type styleBlock struct {
	Width     *float64          `hcl:"width,optional"`
	Height    *float64          `hcl:"height,optional"`
	DPI       *int              `hcl:"dpi,optional"`
	TitleSize *float64          `hcl:"title_size,optional"`
	LabelSize *float64          `hcl:"label_size,optional"`
	Palette   map[string]string `hcl:"palette,optional"`
}

type inputBlock struct {
	Path     string         `hcl:"path,optional"`
	TimeUnit string         `hcl:"time_unit,optional"`
	Columns  *ColumnsConfig `hcl:"columns,block"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path:     filepath.Join("data", "uno_agents_detailed.csv"),
			TimeUnit: TimeUnitMilliseconds,
			Columns: ColumnsConfig{
				Agent: "Agente",
				Game:  "Partida",
				Wins:  "Victoria",
				Time:  "Tiempo_Jugada_ms",
				Turns: "Turnos_Totales",
			},
		},
		Output: OutputConfig{
			Dir:         "results",
			ChartsDir:   "graficos",
			DataDir:     "datos",
			SummaryFile: "resumen_analisis.txt",
			Formats:     []string{FormatJSON, FormatXLSX, FormatParquet},
		},
		Analysis: AnalysisConfig{
			Alpha:      0.05,
			JitterSeed: 42,
		},
		Style: StyleConfig{
			Width:     12,
			Height:    7,
			DPI:       300,
			TitleSize: 16,
			LabelSize: 12,
			Palette: map[string]string{
				"Random":         "#F87171",
				"Reglas":         "#60A5FA",
				"Probabilistico": "#FBBF24",
				"CFR":            "#4ADE80",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from an HCL file. A missing file yields Default().
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw file
	diags = gohcl.DecodeBody(f.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Default()
	raw.applyTo(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyTo overlays every value set in the file onto cfg.
func (f *file) applyTo(cfg *Config) {
	if in := f.Input; in != nil {
		setString(&cfg.Input.Path, in.Path)
		setString(&cfg.Input.TimeUnit, in.TimeUnit)
		if c := in.Columns; c != nil {
			setString(&cfg.Input.Columns.Agent, c.Agent)
			setString(&cfg.Input.Columns.Game, c.Game)
			setString(&cfg.Input.Columns.Wins, c.Wins)
			setString(&cfg.Input.Columns.Time, c.Time)
			setString(&cfg.Input.Columns.Turns, c.Turns)
		}
	}

	if out := f.Output; out != nil {
		setString(&cfg.Output.Dir, out.Dir)
		setString(&cfg.Output.ChartsDir, out.ChartsDir)
		setString(&cfg.Output.DataDir, out.DataDir)
		setString(&cfg.Output.SummaryFile, out.SummaryFile)
		if out.Formats != nil {
			cfg.Output.Formats = out.Formats
		}
	}

	if a := f.Analysis; a != nil {
		setValue(&cfg.Analysis.Alpha, a.Alpha)
		setValue(&cfg.Analysis.JitterSeed, a.JitterSeed)
	}

	if s := f.Style; s != nil {
		setValue(&cfg.Style.Width, s.Width)
		setValue(&cfg.Style.Height, s.Height)
		setValue(&cfg.Style.DPI, s.DPI)
		setValue(&cfg.Style.TitleSize, s.TitleSize)
		setValue(&cfg.Style.LabelSize, s.LabelSize)
		// Entries extend the default palette.
		for agent, color := range s.Palette {
			cfg.Style.Palette[agent] = color
		}
	}

	if l := f.Log; l != nil {
		setString(&cfg.Log.Level, l.Level)
		setString(&cfg.Log.Format, l.Format)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setValue[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the configuration for values the pipeline cannot use.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Input.Path == "" {
		invalid("input path is empty")
	}
	switch c.Input.TimeUnit {
	case TimeUnitMilliseconds, TimeUnitSeconds, TimeUnitAuto:
	default:
		invalid("time_unit must be one of ms, s, auto (got %q)", c.Input.TimeUnit)
	}

	if c.Output.Dir == "" {
		invalid("output dir is empty")
	}
	for _, format := range c.Output.Formats {
		switch strings.ToLower(format) {
		case FormatJSON, FormatXLSX, FormatParquet:
		default:
			invalid("unknown export format %q", format)
		}
	}

	if c.Analysis.Alpha <= 0 || c.Analysis.Alpha >= 1 {
		invalid("alpha must be in (0, 1) (got %v)", c.Analysis.Alpha)
	}

	if c.Style.Width <= 0 || c.Style.Height <= 0 {
		invalid("chart size must be positive (got %vx%v)", c.Style.Width, c.Style.Height)
	}
	if c.Style.DPI < 1 || c.Style.DPI > 1200 {
		invalid("dpi must be between 1 and 1200 (got %d)", c.Style.DPI)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		invalid("log format must be console or json (got %q)", c.Log.Format)
	}

	return errors.Join(errs...)
}

// ChartsPath returns the directory charts are written to.
func (c *Config) ChartsPath() string {
	return c.resolve(c.Output.ChartsDir)
}

// DataPath returns the directory data exports are written to.
func (c *Config) DataPath() string {
	return c.resolve(c.Output.DataDir)
}

// SummaryPath returns the path of the text summary.
func (c *Config) SummaryPath() string {
	return c.resolve(c.Output.SummaryFile)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Output.Dir, p)
}

// FormatEnabled reports whether format is in formats, ignoring case.
func FormatEnabled(formats []string, format string) bool {
	for _, f := range formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

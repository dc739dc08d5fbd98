package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/lox/unoanalysis/internal/config"
	"github.com/lox/unoanalysis/internal/dataset"
	"github.com/lox/unoanalysis/internal/logging"
	"github.com/lox/unoanalysis/internal/pipeline"
)

type CLI struct {
	Config   string `kong:"default='uno-analysis.hcl',type='path',help='HCL configuration file (defaults are used when missing)'"`
	Input    string `kong:"help='Match CSV to analyse (overrides input.path)'"`
	Output   string `kong:"help='Output directory (overrides output.dir)'"`
	TimeUnit string `kong:"name='time-unit',help='Unit of the execution time column (ms, s or auto)'"`
	Debug    bool   `kong:"help='Enable debug logging'"`
	JSONLogs bool   `kong:"name='json-logs',help='Write logs as JSON'"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("uno-analysis"),
		kong.Description("Statistical analysis of UNO agent match results"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	if err := run(cli); err != nil {
		os.Exit(1)
	}
}

func run(cli CLI) (err error) {
	cfg, cfgErr := config.Load(cli.Config)

	level, format := "info", "console"
	if cfg != nil {
		level, format = cfg.Log.Level, cfg.Log.Format
	}
	logger := logging.New(logging.Options{
		Level: level,
		Debug: cli.Debug,
		JSON:  cli.JSONLogs || format == "json",
	})

	defer func() {
		if p := recover(); p != nil {
			logger.Error().
				Interface("panic", p).
				Str("stack", string(debug.Stack())).
				Msg("Unexpected failure")
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	if cfgErr != nil {
		logFailure(logger.With().Str("config", cli.Config).Logger(), cfgErr, "Failed to load configuration")
		return cfgErr
	}

	if cli.Input != "" {
		cfg.Input.Path = cli.Input
	}
	if cli.Output != "" {
		cfg.Output.Dir = cli.Output
	}
	if cli.TimeUnit != "" {
		cfg.Input.TimeUnit = cli.TimeUnit
	}
	if err := cfg.Validate(); err != nil {
		logFailure(logger, err, "Invalid configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(cfg,
		pipeline.WithLogger(logger),
		pipeline.WithConsole(os.Stdout),
	)

	summary, err := runner.Run(ctx)
	switch {
	case errors.Is(err, dataset.ErrInputNotFound):
		logFailure(logger, err, "Input data not found")
		fmt.Fprintf(os.Stderr, "\nPlace uno_agents_detailed.csv in the data/ directory or pass --input.\n")
		return err
	case errors.Is(err, context.Canceled):
		logger.Warn().Msg("Interrupted, analysis stopped")
		return err
	case err != nil && summary == nil:
		logFailure(logger, err, "Analysis failed")
		return err
	case err != nil:
		logFailure(logger, err, "Analysis finished with errors")
		return err
	}

	logSummary(logger, summary)
	return nil
}

// logFailure logs err with its wrap chain and the stack of the caller.
func logFailure(logger zerolog.Logger, err error, msg string) {
	logger.Error().
		Err(err).
		Strs("trace", errorChain(err)).
		Str("stack", string(debug.Stack())).
		Msg(msg)
}

// errorChain lists err and every error it wraps, depth first.
func errorChain(err error) []string {
	var chain []string
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		chain = append(chain, fmt.Sprintf("%T: %v", e, e))
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return chain
}

func logSummary(logger zerolog.Logger, s *pipeline.Summary) {
	logger.Info().
		Str("run_id", s.RunID).
		Int("charts", len(s.Artifacts.Charts)).
		Int("exports", len(s.Artifacts.Exports)).
		Str("summary", s.Artifacts.Summary).
		Str("processed", s.Processed).
		Dur("duration", s.Duration()).
		Msg("Results written")
}

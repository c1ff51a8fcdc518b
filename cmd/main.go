// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"lethe/internal/config"
	lerrors "lethe/internal/errors"
	"lethe/internal/metrics"
	"lethe/internal/observability"
	"lethe/internal/preprocessors"
	"lethe/internal/version"

	_ "lethe/internal/formatters/json"
	_ "lethe/internal/formatters/text"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// app carries what every command needs once the global flags are parsed.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	observer *observability.StandardObserver
	recorder *metrics.Recorder
	registry *preprocessors.Registry

	stdin  *os.File
	stdout io.Writer
	stderr io.Writer
}

func main() {
	if err := run(context.Background(), os.Args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		os.Exit(1)
	}
}

// run builds and executes the command tree. It never exits the process.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdin: os.Stdin, stdout: stdout, stderr: stderr}
	return newRootCommand(a).Run(ctx, args)
}

func newRootCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "lethe",
		Usage:     "Reversible anonymization of Brazilian documents",
		Version:   version.Short(),
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to configuration file (YAML)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: json or console",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics to this textfile after the run",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, a.setup(cmd)
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			return a.teardown()
		},
		Commands: []*cli.Command{
			anonymizeCommand(a),
			reverseCommand(a),
			detectCommand(a),
			infoCommand(a),
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintln(a.stdout, version.Info())
					return nil
				},
			},
		},
	}
}

// setup loads the configuration, applies the global flags over it and
// builds the logger, metrics recorder and preprocessor registry.
func (a *app) setup(cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = config.FindConfigFile()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if cmd.IsSet("log-level") {
		cfg.Logging.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.Logging.Format = cmd.String("log-format")
	}
	if cmd.IsSet("no-color") {
		cfg.Output.NoColor = cmd.Bool("no-color")
	}
	if cmd.IsSet("metrics-file") {
		cfg.Metrics.Textfile = cmd.String("metrics-file")
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := observability.NewLogger(observability.LoggerConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: a.stderr,
	})
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	a.logger = logger

	level := observability.ObservabilityMetrics
	if cfg.Logging.Level == "debug" {
		level = observability.ObservabilityDebug
	}
	a.observer = observability.NewStandardObserver(level, logger)
	if level == observability.ObservabilityDebug {
		a.observer.DebugObserver = observability.NewDebugObserver(logger)
	}

	a.recorder = metrics.NewRecorder()
	a.registry = preprocessors.NewRegistry()
	a.registry.SetObserver(a.observer)

	if cfg.Output.NoColor || !isTerminal(a.stdout) {
		color.NoColor = true
	}
	return nil
}

func (a *app) teardown() error {
	if a.cfg == nil {
		return nil
	}
	err := a.recorder.WriteTextfile(a.cfg.Metrics.Textfile)
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

// describeError turns the typed failures into messages a user can act on.
func describeError(err error) string {
	switch lerrors.KindOf(err) {
	case lerrors.KindAuthentication:
		return "wrong password, or the mapping file was modified"
	case lerrors.KindCorruptMapping:
		return fmt.Sprintf("the mapping file is damaged: %v", err)
	case lerrors.KindReversal:
		return fmt.Sprintf("the anonymized text was modified and cannot be restored: %v", err)
	case lerrors.KindUnsupportedFormat:
		return err.Error()
	case lerrors.KindReplacementExhausted:
		return fmt.Sprintf("could not generate unique replacements: %v", err)
	}
	return err.Error()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

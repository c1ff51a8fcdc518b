// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lethe/internal/anonymizer"
	"lethe/internal/core"
	"lethe/internal/detector"
	"lethe/internal/formatters"
	"lethe/internal/help"
	"lethe/internal/mapping"
	"lethe/internal/mappingcrypto"
	"lethe/internal/metrics"
	"lethe/internal/parallel"
	"lethe/internal/paths"
	"lethe/internal/replacement"
	"lethe/internal/validators/birthdate"
	"lethe/internal/validators/cpf"
	"lethe/internal/validators/personname"
	"lethe/internal/validators/rg"
	"lethe/internal/version"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "Report format: " + fmt.Sprint(formatters.List()),
	}
}

func anonymizeCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "anonymize",
		Usage:     "Replace personal data and write an encrypted mapping",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Anonymized output path (single file only)",
			},
			&cli.StringFlag{
				Name:    "mapping",
				Aliases: []string{"m"},
				Usage:   "Mapping output path (single file only)",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password protecting the mapping (or LETHE_PASSWORD)",
			},
			&cli.Int64Flag{
				Name:    "seed",
				Aliases: []string{"s"},
				Usage:   "Seed for reproducible replacements",
			},
			&cli.BoolFlag{
				Name:  "show-mapping",
				Usage: "Print the original and replacement pairs",
			},
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runAnonymize(ctx, cmd)
		},
	}
}

func reverseCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "reverse",
		Usage:     "Restore an anonymized document from its mapping",
		ArgsUsage: "FILE MAPPING",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Restored output path",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password of the mapping (or LETHE_PASSWORD)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runReverse(ctx, cmd)
		},
	}
}

func detectCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "List detected entities without changing anything",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.BoolFlag{
				Name:  "show-match",
				Usage: "Display the detected text instead of [HIDDEN]",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runDetect(ctx, cmd)
		},
	}
}

func infoCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Describe the supported entities, formats and mapping protection",
		ArgsUsage: "[ENTITY]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runInfo(cmd)
		},
	}
}

func (a *app) reportFormat(cmd *cli.Command) string {
	if cmd.IsSet("format") {
		return cmd.String("format")
	}
	return a.cfg.Output.Format
}

func (a *app) printReports(cmd *cli.Command, reports []formatters.Report, options formatters.FormatterOptions) error {
	options.NoColor = a.cfg.Output.NoColor
	out, err := formatters.Export(a.reportFormat(cmd), reports, options)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, out)
	return nil
}

func (a *app) newAnonymizer() *anonymizer.Anonymizer {
	det := core.BuildDetector(a.cfg, a.observer)

	pools, err := replacement.DefaultPools()
	if err != nil {
		a.observer.Warn("cli", "name pools unavailable, using built-in replacements", zap.Error(err))
		pools = replacement.Pools{}
	}
	factory := anonymizer.NewGeneratorFactory(pools, replacement.WithMaxAge(a.cfg.Substitution.MaxAge))
	return anonymizer.New(det, factory,
		anonymizer.WithMaxAttempts(a.cfg.Substitution.MaxAttempts),
		anonymizer.WithObserver(a.observer))
}

func (a *app) runAnonymize(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errors.New("anonymize requires at least one FILE")
	}
	if len(files) > 1 && (cmd.IsSet("output") || cmd.IsSet("mapping")) {
		return errors.New("-o and -m can only be used with a single file")
	}

	password, err := a.resolvePassword(cmd.String("password"), true)
	if err != nil {
		return err
	}
	defer password.Clear()

	var seed *int64
	if cmd.IsSet("seed") {
		s := cmd.Int64("seed")
		seed = &s
	}

	anon := a.newAnonymizer()
	reports := make([]formatters.Report, len(files))

	processor := parallel.NewParallelProcessor(a.cfg.Workers, a.observer)
	_, err = processor.ProcessFiles(ctx, files, func(ctx context.Context, index int, filePath string) error {
		start := time.Now()
		report, err := a.anonymizeFile(anon, filePath, seed, password.Bytes(), cmd.String("output"), cmd.String("mapping"))
		a.recorder.ObserveDocument(metrics.OperationAnonymize, start, err)
		if err != nil {
			return err
		}
		reports[index] = *report
		return nil
	})
	if err != nil {
		return err
	}

	return a.printReports(cmd, reports, formatters.FormatterOptions{ShowMapping: cmd.Bool("show-mapping")})
}

func (a *app) anonymizeFile(anon *anonymizer.Anonymizer, filePath string, seed *int64, password []byte, output, mappingPath string) (*formatters.Report, error) {
	content, err := a.registry.Extract(filePath)
	if err != nil {
		return nil, err
	}

	result, err := anon.Anonymize(content.Text, seed)
	if err != nil {
		return nil, err
	}
	a.recorder.ObserveDetection(result.Detection)
	a.recorder.ObserveTable(result.Table)
	if result.Detection.Degraded {
		a.logger.Warn("person detection degraded, names were not replaced",
			zap.String("file", filepath.Base(filePath)),
			zap.Error(result.Detection.DegradedCause))
	}

	if output == "" {
		output = paths.DeriveOutput(filePath, a.cfg.Output.AnonymizedSuffix, ".txt")
	}
	if mappingPath == "" {
		mappingPath = paths.DeriveOutput(filePath, a.cfg.Output.MappingSuffix, a.cfg.Output.MappingExtension)
	}

	em, err := mappingcrypto.Encrypt(result.Table, password)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Clean(output), []byte(result.Text), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write anonymized file: %w", err)
	}
	if err := mappingcrypto.WriteFile(mappingPath, em); err != nil {
		return nil, err
	}

	a.logger.Info("document anonymized",
		zap.String("file", filepath.Base(filePath)),
		zap.String("format", content.Format),
		zap.Int("substitutions", result.Table.Len()))

	return &formatters.Report{
		Operation:   "anonymize",
		File:        filePath,
		Output:      output,
		MappingFile: mappingPath,
		Summary:     result.Table.Summary(),
		Mapping:     result.Table.Entries(),
		Degraded:    result.Detection.Degraded,
	}, nil
}

func (a *app) runReverse(ctx context.Context, cmd *cli.Command) (err error) {
	if cmd.Args().Len() != 2 {
		return errors.New("reverse requires FILE and MAPPING")
	}
	filePath, mappingPath := cmd.Args().Get(0), cmd.Args().Get(1)

	start := time.Now()
	defer func() { a.recorder.ObserveDocument(metrics.OperationReverse, start, err) }()

	content, err := a.registry.Extract(filePath)
	if err != nil {
		return err
	}
	em, err := mappingcrypto.ReadFile(mappingPath)
	if err != nil {
		return err
	}

	password, err := a.resolvePassword(cmd.String("password"), false)
	if err != nil {
		return err
	}
	defer password.Clear()

	table, err := mappingcrypto.Decrypt(em, password.Bytes())
	if err != nil {
		return err
	}
	restored, err := anonymizer.Reverse(content.Text, table)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		output = paths.DeriveRestored(filePath, a.cfg.Output.AnonymizedSuffix, a.cfg.Output.RestoredSuffix)
	}
	if err := os.WriteFile(filepath.Clean(output), []byte(restored), 0o600); err != nil {
		return fmt.Errorf("failed to write restored file: %w", err)
	}

	a.logger.Info("document restored",
		zap.String("file", filepath.Base(filePath)),
		zap.Int("substitutions", table.Len()))
	return a.printReports(cmd, []formatters.Report{{
		Operation:   "reverse",
		File:        filePath,
		Output:      output,
		MappingFile: mappingPath,
	}}, formatters.FormatterOptions{})
}

func (a *app) runDetect(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errors.New("detect requires at least one FILE")
	}

	det := core.BuildDetector(a.cfg, a.observer)
	reports := make([]formatters.Report, len(files))

	processor := parallel.NewParallelProcessor(a.cfg.Workers, a.observer)
	_, err := processor.ProcessFiles(ctx, files, func(ctx context.Context, index int, filePath string) error {
		start := time.Now()
		content, err := a.registry.Extract(filePath)
		if err != nil {
			a.recorder.ObserveDocument(metrics.OperationDetect, start, err)
			return err
		}
		result := det.Detect(content.Text)
		a.recorder.ObserveDetection(result)
		a.recorder.ObserveDocument(metrics.OperationDetect, start, nil)

		reports[index] = formatters.Report{
			Operation: "detect",
			File:      filePath,
			Summary:   distinctCounts(result.Entities),
			Findings:  formatters.FindingsFrom(content.Text, result.Entities),
			Degraded:  result.Degraded,
		}
		return nil
	})
	if err != nil {
		return err
	}

	return a.printReports(cmd, reports, formatters.FormatterOptions{ShowMatch: cmd.Bool("show-match")})
}

// distinctCounts counts entities per type, treating surfaces with the same
// consistency key as one.
func distinctCounts(entities []detector.Entity) map[detector.EntityType]int {
	seen := make(map[string]bool)
	counts := make(map[detector.EntityType]int)
	for _, e := range entities {
		key := e.Type.String() + "\x00" + mapping.Key(e.Type, e.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		counts[e.Type]++
	}
	return counts
}

func (a *app) runInfo(cmd *cli.Command) error {
	system := help.NewSystem(a.stdout, a.cfg.Output.NoColor)
	system.RegisterProvider(personname.HelpProvider{})
	system.RegisterProvider(cpf.NewValidator())
	system.RegisterProvider(rg.NewValidator())
	system.RegisterProvider(birthdate.NewValidator(birthdate.WithWindow(a.cfg.Detection.BirthContextWindow)))

	if cmd.Args().Len() > 0 {
		if !system.ShowCheckHelp(cmd.Args().First()) {
			return fmt.Errorf("unknown entity %q", cmd.Args().First())
		}
		return nil
	}

	system.ShowInfo(a.registry.SupportedExtensions(), help.CryptoInfo{
		KDF:           "PBKDF2-HMAC-SHA256",
		Iterations:    mappingcrypto.Iterations,
		SaltSize:      mappingcrypto.SaltSize,
		Cipher:        "AES-128-CBC (Fernet)",
		MAC:           "HMAC-SHA256",
		MappingFormat: version.MappingFormat,
		Extension:     a.cfg.Output.MappingExtension,
	})
	return nil
}

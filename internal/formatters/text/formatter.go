// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"lethe/internal/formatters"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":  color.New(color.FgGreen),
			"yellow": color.New(color.FgYellow),
			"red":    color.New(color.FgRed),
			"cyan":   color.New(color.FgCyan),
			"white":  color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable summary and mapping tables"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(reports []formatters.Report, options formatters.FormatterOptions) (string, error) {
	if options.NoColor {
		color.NoColor = true
	}
	if len(reports) == 0 {
		return "No documents processed.", nil
	}

	var builder strings.Builder
	for i, report := range reports {
		if i > 0 {
			builder.WriteString("\n")
		}
		f.appendReport(&builder, report, options)
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}

func (f *Formatter) appendReport(builder *strings.Builder, report formatters.Report, options formatters.FormatterOptions) {
	builder.WriteString(f.colors["white"].Sprintf("%s: %s", report.Operation, report.File))
	builder.WriteString("\n")
	if report.Output != "" {
		fmt.Fprintf(builder, "  %-10s %s\n", "output", report.Output)
	}
	if report.MappingFile != "" {
		fmt.Fprintf(builder, "  %-10s %s\n", "mapping", report.MappingFile)
	}
	if report.Degraded {
		builder.WriteString(f.colors["yellow"].Sprint("  ! person detection unavailable, names were not replaced"))
		builder.WriteString("\n")
	}
	for _, w := range report.Warnings {
		builder.WriteString(f.colors["yellow"].Sprintf("  ! %s", w))
		builder.WriteString("\n")
	}

	if report.Summary != nil {
		builder.WriteString("\n")
		f.appendSummary(builder, report)
	}
	if len(report.Findings) > 0 {
		builder.WriteString("\n")
		f.appendFindings(builder, report.Findings, options)
	}
	if options.ShowMapping && len(report.Mapping) > 0 {
		builder.WriteString("\n")
		f.appendMapping(builder, report)
	}
}

// appendSummary writes one row per entity type, zero counts included.
func (f *Formatter) appendSummary(builder *strings.Builder, report formatters.Report) {
	builder.WriteString(f.colors["white"].Sprintf("  %-22s %s", "TYPE", "COUNT"))
	builder.WriteString("\n")
	builder.WriteString("  " + strings.Repeat("-", 29) + "\n")

	total := 0
	for _, tc := range formatters.SummaryCounts(report.Summary) {
		count := fmt.Sprintf("%d", tc.Count)
		if tc.Count > 0 {
			count = f.colors["green"].Sprint(count)
		}
		fmt.Fprintf(builder, "  %-22s %s\n", tc.Type.Label(), count)
		total += tc.Count
	}
	builder.WriteString("  " + strings.Repeat("-", 29) + "\n")
	fmt.Fprintf(builder, "  %-22s %d\n", "Total", total)
}

func (f *Formatter) appendFindings(builder *strings.Builder, findings []formatters.Finding, options formatters.FormatterOptions) {
	matchWidth := 5
	if options.ShowMatch {
		for _, finding := range findings {
			matchWidth = max(matchWidth, len([]rune(finding.Text)))
		}
	}

	header := fmt.Sprintf("  %-14s %-6s %-6s %-*s %s", "TYPE", "LINE", "CONF%", matchWidth, "MATCH", "SOURCE")
	builder.WriteString(f.colors["white"].Sprint(header))
	builder.WriteString("\n")

	for _, finding := range findings {
		match := "[HIDDEN]"
		if options.ShowMatch {
			match = finding.Text
		}
		fmt.Fprintf(builder, "  %s %-6d %-6.0f %-*s %s\n",
			f.colors["cyan"].Sprintf("%-14s", finding.Type.String()),
			finding.Line, finding.Confidence, matchWidth, match, finding.Source)
	}
}

func (f *Formatter) appendMapping(builder *strings.Builder, report formatters.Report) {
	width := len("ORIGINAL")
	for _, s := range report.Mapping {
		width = max(width, len([]rune(s.Original)))
	}

	header := fmt.Sprintf("  %-14s %-*s %s", "TYPE", width, "ORIGINAL", "REPLACEMENT")
	builder.WriteString(f.colors["white"].Sprint(header))
	builder.WriteString("\n")
	for _, s := range report.Mapping {
		fmt.Fprintf(builder, "  %-14s %s %s\n",
			s.Type.String(),
			f.colors["red"].Sprintf("%-*s", width, s.Original),
			f.colors["green"].Sprint(s.Replacement))
	}
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}

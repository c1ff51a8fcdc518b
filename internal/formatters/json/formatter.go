// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"encoding/json"
	"fmt"

	"lethe/internal/formatters"
	"lethe/internal/mapping"
)

// Formatter implements JSON output formatting
type Formatter struct{}

// NewFormatter creates a new JSON formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "json"
}

func (f *Formatter) Description() string {
	return "Structured JSON output for programmatic consumption"
}

func (f *Formatter) FileExtension() string {
	return ".json"
}

type jsonFinding struct {
	Type       string  `json:"type"`
	Text       string  `json:"text,omitempty"`
	Line       int     `json:"line"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

type jsonReport struct {
	Operation   string                 `json:"operation"`
	File        string                 `json:"file"`
	Output      string                 `json:"output,omitempty"`
	MappingFile string                 `json:"mapping_file,omitempty"`
	Summary     map[string]int         `json:"summary,omitempty"`
	Findings    []jsonFinding          `json:"findings,omitempty"`
	Mapping     []mapping.Substitution `json:"mapping,omitempty"`
	Degraded    bool                   `json:"degraded"`
	Warnings    []string               `json:"warnings,omitempty"`
}

// Format renders reports as an indented JSON array. Detected text and the
// mapping are only included when the options ask for them.
func (f *Formatter) Format(reports []formatters.Report, options formatters.FormatterOptions) (string, error) {
	out := make([]jsonReport, 0, len(reports))
	for _, r := range reports {
		jr := jsonReport{
			Operation:   r.Operation,
			File:        r.File,
			Output:      r.Output,
			MappingFile: r.MappingFile,
			Degraded:    r.Degraded,
			Warnings:    r.Warnings,
		}
		if r.Summary != nil {
			jr.Summary = make(map[string]int)
			for _, tc := range formatters.SummaryCounts(r.Summary) {
				jr.Summary[tc.Type.String()] = tc.Count
			}
		}
		for _, finding := range r.Findings {
			jf := jsonFinding{
				Type:       finding.Type.String(),
				Line:       finding.Line,
				Start:      finding.Start,
				End:        finding.End,
				Confidence: finding.Confidence,
				Source:     finding.Source,
			}
			if options.ShowMatch {
				jf.Text = finding.Text
			}
			jr.Findings = append(jr.Findings, jf)
		}
		if options.ShowMapping {
			jr.Mapping = r.Mapping
		}
		out = append(out, jr)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error formatting JSON: %w", err)
	}
	return string(data), nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"strings"
	"testing"

	"lethe/internal/detector"
	"lethe/internal/formatters"
	"lethe/internal/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anonymizeReport() formatters.Report {
	return formatters.Report{
		Operation:   "anonymize",
		File:        "contrato.txt",
		Output:      "contrato_anonimizado.txt",
		MappingFile: "contrato_mapping.lethe",
		Summary: map[detector.EntityType]int{
			detector.Person:      1,
			detector.NationalIDA: 1,
			detector.BirthDate:   1,
		},
		Mapping: []mapping.Substitution{
			{Type: detector.Person, Original: "João da Silva", Replacement: "Pedro Costa"},
		},
	}
}

func TestFormatSummary(t *testing.T) {
	out, err := NewFormatter().Format([]formatters.Report{anonymizeReport()}, formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)

	assert.Contains(t, out, "anonymize: contrato.txt")
	assert.Contains(t, out, "output     contrato_anonimizado.txt")
	assert.Contains(t, out, "mapping    contrato_mapping.lethe")
	assert.Contains(t, out, "Nomes                  1")
	assert.Contains(t, out, "RGs                    0")
	assert.Contains(t, out, "Total                  3")
	assert.NotContains(t, out, "João da Silva", "mapping is hidden unless requested")
}

func TestFormatShowMapping(t *testing.T) {
	out, err := NewFormatter().Format([]formatters.Report{anonymizeReport()},
		formatters.FormatterOptions{NoColor: true, ShowMapping: true})
	require.NoError(t, err)

	assert.Contains(t, out, "ORIGINAL")
	line := ""
	for _, l := range strings.Split(out, "\n") {
		if strings.Contains(l, "Pedro Costa") {
			line = l
		}
	}
	assert.Contains(t, line, "PERSON")
	assert.Contains(t, line, "João da Silva")
}

func TestFormatFindings(t *testing.T) {
	report := formatters.Report{
		Operation: "detect",
		File:      "nota.txt",
		Findings: []formatters.Finding{
			{Type: detector.NationalIDA, Text: "123.456.789-09", Line: 3, Confidence: 100, Source: "cpf"},
		},
		Degraded: true,
	}

	hidden, err := NewFormatter().Format([]formatters.Report{report}, formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)
	assert.Contains(t, hidden, "[HIDDEN]")
	assert.Contains(t, hidden, "NATIONAL_ID_A")
	assert.Contains(t, hidden, "person detection unavailable")
	assert.NotContains(t, hidden, "123.456.789-09")

	shown, err := NewFormatter().Format([]formatters.Report{report}, formatters.FormatterOptions{NoColor: true, ShowMatch: true})
	require.NoError(t, err)
	assert.Contains(t, shown, "123.456.789-09")
}

func TestFormatEmpty(t *testing.T) {
	out, err := NewFormatter().Format(nil, formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)
	assert.Equal(t, "No documents processed.", out)
}

func TestRegisteredByInit(t *testing.T) {
	f, ok := formatters.Get("text")
	require.True(t, ok)
	assert.Equal(t, ".txt", f.FileExtension())
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"12.345.678-9", true},
		{"12.345.678-X", true},
		{"12.345.678-x", true},
		{"1.234.567", true},
		{"12.345.678", true},
		{"123456789", true},
		{"12345678X", true},
		{"1234567", true},
		{"123456", false},
		{"1234567890", false},
		{"12X345678", false},
		{"123.45.678-9", false},
		{"12.345.678-99", false},
		{"AB.345.678-9", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.value))
		})
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "12345678X", Clean("12.345.678-x"))
}

func TestScan(t *testing.T) {
	text := "RG 12.345.678-9 SSP/SP, identidade 1.234.567, valor R$ 1.234.567 e 2.345.678,90"
	result := NewValidator().Scan(text)

	require.Len(t, result.Entities, 2)
	assert.Equal(t, "12.345.678-9", result.Entities[0].Text)
	assert.Equal(t, 100.0, result.Entities[0].Confidence)
	assert.Equal(t, "1.234.567", result.Entities[1].Text)
	assert.Equal(t, 90.0, result.Entities[1].Confidence)
	assert.Equal(t, 2, result.Discarded)

	for _, e := range result.Entities {
		assert.Equal(t, e.Text, text[e.Start:e.End])
	}
}

func TestScanDoesNotMatchInsideCPF(t *testing.T) {
	result := NewValidator().Scan("CPF 123.456.789-09")
	assert.Empty(t, result.Entities)
}

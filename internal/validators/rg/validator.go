// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rg

import (
	"regexp"
	"strings"

	"lethe/internal/detector"
	"lethe/internal/observability"
)

// Validator implements detector.Validator for RG numbers.
type Validator struct {
	regex *regexp.Regexp

	positiveKeywords map[string]bool

	// Prefixes that mark the number as a currency amount
	currencyPrefixes []string

	extractor *detector.ContextExtractor
	observer  *observability.StandardObserver
}

// NewValidator creates an RG validator.
func NewValidator() *Validator {
	return &Validator{
		regex: regexp.MustCompile(`\b\d{1,2}\.\d{3}\.\d{3}(?:-[\dXx])?\b`),
		positiveKeywords: map[string]bool{
			"rg": true, "r.g": true, "registro geral": true, "identidade": true,
			"carteira de identidade": true, "cédula de identidade": true,
			"ssp": true, "ssp/sp": true, "documento": true,
		},
		currencyPrefixes: []string{"R$", "US$", "€", "$"},
		extractor:        detector.NewContextExtractor().WithContextTokens(4),
	}
}

// GetComponentName implements observability.Observable.
func (v *Validator) GetComponentName() string {
	return "rg_validator"
}

// SetObserver sets the observability component
func (v *Validator) SetObserver(observer *observability.StandardObserver) {
	v.observer = observer
}

// Type implements detector.Validator.
func (v *Validator) Type() detector.EntityType {
	return detector.NationalIDB
}

// Scan implements detector.Validator.
func (v *Validator) Scan(text string) detector.ScanResult {
	var finishTiming func(bool, map[string]interface{})
	if v.observer != nil {
		finishTiming = v.observer.StartTiming(v.GetComponentName(), "scan", "")
	}

	var result detector.ScanResult
	for _, loc := range v.regex.FindAllStringIndex(text, -1) {
		candidate := text[loc[0]:loc[1]]
		if !Validate(candidate) || v.isAmount(text, loc[0], loc[1]) {
			result.Discarded++
			continue
		}
		result.Entities = append(result.Entities, detector.Entity{
			Type:       detector.NationalIDB,
			Text:       candidate,
			Start:      loc[0],
			End:        loc[1],
			Confidence: v.confidence(text, loc[0], loc[1], candidate),
			Source:     v.GetComponentName(),
		})
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"match_count": len(result.Entities),
			"discarded":   result.Discarded,
		})
	}
	return result
}

// isAmount reports whether the hit reads as money: a currency prefix before
// it or a decimal part ",dd" right after it.
func (v *Validator) isAmount(text string, start, end int) bool {
	before := strings.TrimRight(text[max(0, start-4):start], " \u00a0")
	for _, prefix := range v.currencyPrefixes {
		if strings.HasSuffix(before, prefix) {
			return true
		}
	}
	rest := text[end:]
	return len(rest) >= 3 && rest[0] == ',' && isDigit(rest[1]) && isDigit(rest[2])
}

func (v *Validator) confidence(text string, start, end int, candidate string) float64 {
	// Without a verifier the pattern is shared with other dotted numbers.
	score := 75.0
	if strings.Contains(candidate, "-") {
		score = 85
	}
	ctx := v.extractor.Extract(text, start, end)
	if _, ok := detector.ContainsKeyword(ctx.TokensBefore, v.positiveKeywords, true); ok {
		score += 15
	}
	return min(score, 100)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cpf

import (
	"regexp"
	"strings"

	"lethe/internal/detector"
	"lethe/internal/observability"
)

var (
	punctuatedRegex = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	scanRegex       = regexp.MustCompile(`\b(?:\d{3}\.\d{3}\.\d{3}-\d{2}|\d{11})\b`)
)

// Validator implements detector.Validator for CPF numbers. Every pattern hit
// is checksum-validated; failures are dropped and counted.
type Validator struct {
	regex *regexp.Regexp

	// Keywords that raise confidence when they precede the number
	positiveKeywords map[string]bool

	extractor *detector.ContextExtractor
	observer  *observability.StandardObserver
}

// NewValidator creates a CPF validator.
func NewValidator() *Validator {
	v := &Validator{
		regex: scanRegex,
		positiveKeywords: map[string]bool{
			"cpf": true, "cpf/mf": true, "c.p.f": true, "contribuinte": true,
			"cadastro de pessoa física": true, "cadastro de pessoas físicas": true,
			"inscrito no cpf": true, "portador do cpf": true, "documento": true,
		},
		extractor: detector.NewContextExtractor().WithContextTokens(4),
	}
	return v
}

// GetComponentName implements observability.Observable.
func (v *Validator) GetComponentName() string {
	return "cpf_validator"
}

// SetObserver sets the observability component
func (v *Validator) SetObserver(observer *observability.StandardObserver) {
	v.observer = observer
}

// Type implements detector.Validator.
func (v *Validator) Type() detector.EntityType {
	return detector.NationalIDA
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
		if !Validate(candidate) {
			result.Discarded++
			continue
		}
		result.Entities = append(result.Entities, detector.Entity{
			Type:       detector.NationalIDA,
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

// confidence scores a checksum-valid hit. A valid check digit pair alone is
// strong evidence; the bare 11-digit form is weaker than the punctuated one.
func (v *Validator) confidence(text string, start, end int, candidate string) float64 {
	score := 90.0
	if !strings.ContainsAny(candidate, ".-") {
		score = 80
	}
	ctx := v.extractor.Extract(text, start, end)
	if _, ok := detector.ContainsKeyword(ctx.TokensBefore, v.positiveKeywords, true); ok {
		score += 10
	}
	return min(score, 100)
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package birthdate

import (
	"regexp"
	"strings"
	"time"

	"lethe/internal/detector"
	"lethe/internal/observability"
)

// DefaultWindow is the number of tokens searched before a date.
const DefaultWindow = 6

// afterWindow is the number of tokens searched after a date.
const afterWindow = 3

// Validator implements detector.Validator for birth dates. A date is reported
// only when a birth keyword sits within the token window around it.
type Validator struct {
	regex    *regexp.Regexp
	keywords map[string]bool
	window   int
	now      func() time.Time
	observer *observability.StandardObserver
}

// Option configures a Validator.
type Option func(*Validator)

// WithWindow sets how many tokens before a date are searched for keywords.
func WithWindow(tokens int) Option {
	return func(v *Validator) {
		if tokens > 0 {
			v.window = tokens
		}
	}
}

// WithClock overrides the clock used for the plausibility check.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// NewValidator creates a birth-date validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		regex: regexp.MustCompile(`\b\d{2}[/.-]\d{2}[/.-]\d{4}\b`),
		keywords: map[string]bool{
			"nascido": true, "nascida": true, "nascidos": true, "nascidas": true,
			"nascimento": true, "data de nascimento": true, "dt nascimento": true, "data nascimento": true,
			"data nasc": true, "nasc": true, "dt.nasc": true,
			"nasceu": true, "dn": true, "d.n": true, "natalício": true,
		},
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// GetComponentName implements observability.Observable.
func (v *Validator) GetComponentName() string {
	return "birthdate_validator"
}

// SetObserver sets the observability component
func (v *Validator) SetObserver(observer *observability.StandardObserver) {
	v.observer = observer
}

// Type implements detector.Validator.
func (v *Validator) Type() detector.EntityType {
	return detector.BirthDate
}

// Scan implements detector.Validator. The keyword window never crosses the
// previous or next date, so one keyword classifies at most the dates it
// actually introduces.
func (v *Validator) Scan(text string) detector.ScanResult {
	var finishTiming func(bool, map[string]interface{})
	if v.observer != nil {
		finishTiming = v.observer.StartTiming(v.GetComponentName(), "scan", "")
	}

	now := v.now()
	var result detector.ScanResult
	locs := v.regex.FindAllStringIndex(text, -1)
	for i, loc := range locs {
		candidate := text[loc[0]:loc[1]]
		if !Validate(candidate, now) {
			result.Discarded++
			continue
		}

		lower := 0
		if i > 0 {
			lower = locs[i-1][1]
		}
		upper := len(text)
		if i+1 < len(locs) {
			upper = locs[i+1][0]
		}

		confidence, ok := v.classify(text[lower:upper], loc[0]-lower, loc[1]-lower)
		if !ok {
			result.Discarded++
			continue
		}
		result.Entities = append(result.Entities, detector.Entity{
			Type:       detector.BirthDate,
			Text:       candidate,
			Start:      loc[0],
			End:        loc[1],
			Confidence: confidence,
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

// classify looks for a birth keyword before (preferred) or after the date.
func (v *Validator) classify(segment string, start, end int) (float64, bool) {
	before := detector.LastTokens(segment[:start], v.window)
	if _, ok := detector.ContainsKeyword(before, v.keywords, false); ok {
		return 95, true
	}

	after := v.tokensAfter(segment[end:])
	if len(after) > afterWindow {
		after = after[:afterWindow]
	}
	if _, ok := detector.ContainsKeyword(after, v.keywords, false); ok {
		return 80, true
	}
	return 0, false
}

// tokensAfter stops at the end of the sentence. A keyword directly followed
// by a colon labels whatever comes next, so it is dropped.
func (v *Validator) tokensAfter(tail string) []string {
	// the after window is a few tokens; a long tail adds nothing
	if len(tail) > 512 {
		tail = tail[:512]
	}
	if i := strings.IndexAny(tail, ".;!?\n"); i >= 0 {
		tail = tail[:i]
	}
	if i := strings.IndexByte(tail, ':'); i >= 0 {
		tokens := detector.Tokenize(tail[:i])
		if len(tokens) > 0 {
			tokens = tokens[:len(tokens)-1]
		}
		return tokens
	}
	return detector.Tokenize(tail)
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package anonymizer rewrites a document with synthetic replacements and
// restores it from the resulting mapping table.
package anonymizer

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"lethe/internal/core"
	"lethe/internal/detector"
	lerrors "lethe/internal/errors"
	"lethe/internal/mapping"
	"lethe/internal/observability"
	"lethe/internal/replacement"

	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds how many replacements are drawn for one entity
// before giving up.
const DefaultMaxAttempts = 64

// Detector is the detection capability the anonymizer depends on.
type Detector interface {
	Detect(text string) core.DetectionResult
}

// GeneratorFactory returns a fresh generator for one run. A nil seed asks
// for an unpredictable stream.
type GeneratorFactory func(seed *int64) *replacement.Generator

// NewGeneratorFactory returns a factory over pools. opts apply to every
// generator; a non-nil seed is applied last.
func NewGeneratorFactory(pools replacement.Pools, opts ...replacement.Option) GeneratorFactory {
	return func(seed *int64) *replacement.Generator {
		all := slices.Clone(opts)
		if seed != nil {
			all = append(all, replacement.WithSeed(*seed))
		}
		return replacement.NewGenerator(pools, all...)
	}
}

// Result is the output of one anonymization run.
type Result struct {
	Text  string
	Table *mapping.Table

	// Entities are every replaced span, propagated occurrences included,
	// in source order.
	Entities  []detector.Entity
	Detection core.DetectionResult

	// Warnings holds non-fatal conditions such as degraded detection.
	Warnings []error
}

// Anonymizer runs detection, substitution and rewriting. It holds no
// per-document state and may be shared.
type Anonymizer struct {
	detector     Detector
	newGenerator GeneratorFactory
	maxAttempts  int
	observer     *observability.StandardObserver
}

// Option configures an Anonymizer.
type Option func(*Anonymizer)

// WithMaxAttempts sets the per-entity draw limit of the collision policy.
func WithMaxAttempts(n int) Option {
	return func(a *Anonymizer) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithObserver attaches an observer.
func WithObserver(observer *observability.StandardObserver) Option {
	return func(a *Anonymizer) {
		a.observer = observer
	}
}

// New creates an Anonymizer.
func New(det Detector, newGenerator GeneratorFactory, opts ...Option) *Anonymizer {
	a := &Anonymizer{
		detector:     det,
		newGenerator: newGenerator,
		maxAttempts:  DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetComponentName implements observability.Observable.
func (a *Anonymizer) GetComponentName() string {
	return "anonymizer"
}

// SetObserver sets the observability component
func (a *Anonymizer) SetObserver(observer *observability.StandardObserver) {
	a.observer = observer
}

// Anonymize replaces every detected entity in text. With a non-nil seed the
// output is reproducible. No partial output is returned on error.
func (a *Anonymizer) Anonymize(text string, seed *int64) (*Result, error) {
	var finishTiming func(bool, map[string]interface{})
	if a.observer != nil {
		finishTiming = a.observer.StartTiming(a.GetComponentName(), "anonymize", "")
	}

	detection := a.detector.Detect(text)
	result := &Result{Detection: detection}
	if detection.Degraded {
		result.Warnings = append(result.Warnings, detection.DegradedCause)
		a.observer.Warn(a.GetComponentName(), "person detection degraded, only pattern entities replaced",
			zap.Error(detection.DegradedCause))
	}

	entities := propagate(text, detection.Entities)
	gen := a.newGenerator(seed)
	table := mapping.NewTable()

	edits := make([]edit, 0, len(entities))
	for _, e := range entities {
		repl, err := a.substitute(gen, table, text, e)
		if err != nil {
			if finishTiming != nil {
				finishTiming(false, map[string]interface{}{"error": lerrors.KindOf(err).String()})
			}
			return nil, err
		}
		edits = append(edits, edit{start: e.Start, end: e.End, text: repl})
	}

	result.Text = splice(text, edits)
	result.Table = table
	result.Entities = entities

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"entities":      len(entities),
			"substitutions": table.Len(),
			"degraded":      detection.Degraded,
		})
	}
	return result, nil
}

// substitute returns the replacement for e, adding a table entry on the
// first sight of its surface.
func (a *Anonymizer) substitute(gen *replacement.Generator, table *mapping.Table, source string, e detector.Entity) (string, error) {
	if s, ok := table.Lookup(e.Type, e.Text); ok {
		return s.Replacement, nil
	}

	repl := ""
	if s, ok := table.LookupKey(e.Type, e.Text); ok {
		// Another surface of the same entity: reuse its identity in this
		// surface's layout.
		rendered := replacement.Render(e.Type, e.Text, s.Replacement)
		if !rejected(rendered, e.Text, source, table) {
			repl = rendered
		}
	}

	if repl == "" {
		for range a.maxAttempts {
			candidate := gen.Generate(e)
			if candidate != e.Text && !rejected(candidate, e.Text, source, table) {
				repl = candidate
				break
			}
		}
	}
	if repl == "" {
		return "", lerrors.NewError(lerrors.KindReplacementExhausted,
			fmt.Sprintf("no collision-free %s replacement after %d attempts", e.Type, a.maxAttempts),
			a.GetComponentName(), nil)
	}

	if err := table.Add(mapping.Substitution{Type: e.Type, Original: e.Text, Replacement: repl}); err != nil {
		return "", err
	}
	return repl, nil
}

// rejected applies the collision policy. A candidate is rejected when it
// already occurs in the source, equals any original, or equals or overlaps
// on word boundaries the replacement of another entry.
func rejected(candidate, original, source string, table *mapping.Table) bool {
	if candidate == "" || candidate == original || strings.Contains(source, candidate) {
		return true
	}
	for _, s := range table.Entries() {
		if s.Original == candidate || s.Replacement == candidate {
			return true
		}
		if containsWord(candidate, s.Replacement) || containsWord(s.Replacement, candidate) {
			return true
		}
	}
	return false
}

// propagate adds every further word-bounded occurrence of each detected
// surface as an entity of the same type, so mentions the detector missed
// are replaced too.
func propagate(text string, entities []detector.Entity) []detector.Entity {
	out := slices.Clone(entities)
	seen := make(map[string]bool)
	for _, e := range entities {
		key := e.Type.String() + "\x00" + e.Text
		if seen[key] {
			continue
		}
		seen[key] = true

		for _, start := range wordOccurrences(text, e.Text) {
			candidate := detector.Entity{
				Type:       e.Type,
				Text:       e.Text,
				Start:      start,
				End:        start + len(e.Text),
				Confidence: e.Confidence,
				Source:     "propagation",
			}
			if !overlapsAny(candidate, out) {
				out = append(out, candidate)
			}
		}
	}
	slices.SortFunc(out, func(a, b detector.Entity) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return out
}

func overlapsAny(e detector.Entity, spans []detector.Entity) bool {
	for _, s := range spans {
		if e.Overlaps(s) {
			return true
		}
	}
	return false
}

// wordOccurrences returns the start offsets of needle in text that sit on
// word boundaries.
func wordOccurrences(text, needle string) []int {
	if needle == "" {
		return nil
	}
	var starts []int
	for offset := 0; offset <= len(text)-len(needle); {
		i := strings.Index(text[offset:], needle)
		if i < 0 {
			break
		}
		start := offset + i
		if detector.IsWordBoundary(text, start, start+len(needle)) {
			starts = append(starts, start)
		}
		offset = start + 1
	}
	return starts
}

func containsWord(haystack, needle string) bool {
	return len(wordOccurrences(haystack, needle)) > 0
}

// edit replaces text[start:end].
type edit struct {
	start int
	end   int
	text  string
}

// splice applies non-overlapping edits from the highest offset down, so
// earlier offsets stay valid while later ones are rewritten.
func splice(text string, edits []edit) string {
	sorted := slices.Clone(edits)
	slices.SortFunc(sorted, func(a, b edit) int {
		return cmp.Compare(b.start, a.start)
	})

	parts := make([]string, 0, 2*len(sorted)+1)
	end := len(text)
	for _, e := range sorted {
		parts = append(parts, text[e.end:end], e.text)
		end = e.start
	}
	parts = append(parts, text[:end])
	slices.Reverse(parts)
	return strings.Join(parts, "")
}

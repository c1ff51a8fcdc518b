// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"cmp"
	"fmt"
	"slices"

	"lethe/internal/detector"
	lerrors "lethe/internal/errors"
	"lethe/internal/observability"
	"lethe/internal/validators/birthdate"
	"lethe/internal/validators/cpf"
	"lethe/internal/validators/rg"
)

const componentName = "entity_detector"

// DetectionResult is the outcome of one Detect call.
type DetectionResult struct {
	// Entities are non-overlapping and sorted by start offset
	Entities []detector.Entity

	// Degraded is set when person recognition did not run
	Degraded      bool
	DegradedCause error

	// Discarded counts pattern matches rejected by validation, per type
	Discarded map[detector.EntityType]int
}

// Counts returns the number of entities per type.
func (r DetectionResult) Counts() map[detector.EntityType]int {
	counts := make(map[detector.EntityType]int, len(detector.AllEntityTypes))
	for _, e := range r.Entities {
		counts[e.Type]++
	}
	return counts
}

// Detector runs the pattern validators and the person recognizer over a
// text and merges their findings. It is immutable after construction and
// safe for concurrent use when its validators and recognizer are.
type Detector struct {
	validators    []detector.Validator
	recognizer    detector.PersonRecognizer
	degradedCause error
	observer      *observability.StandardObserver
}

// Option configures a Detector.
type Option func(*Detector)

// WithRecognizer sets the person recognizer. Without one the detector runs
// in degraded mode.
func WithRecognizer(r detector.PersonRecognizer) Option {
	return func(d *Detector) {
		d.recognizer = r
	}
}

// WithValidators replaces the default pattern validators.
func WithValidators(validators ...detector.Validator) Option {
	return func(d *Detector) {
		d.validators = validators
	}
}

// WithObserver attaches an observer.
func WithObserver(observer *observability.StandardObserver) Option {
	return func(d *Detector) {
		d.observer = observer
	}
}

// withDegradedCause records why no recognizer is present.
func withDegradedCause(cause error) Option {
	return func(d *Detector) {
		d.degradedCause = cause
	}
}

// NewDetector builds a detector with the CPF, RG and birth-date validators
// unless WithValidators says otherwise.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		validators: []detector.Validator{
			cpf.NewValidator(),
			rg.NewValidator(),
			birthdate.NewValidator(),
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GetComponentName implements observability.Observable.
func (d *Detector) GetComponentName() string {
	return componentName
}

// SetObserver sets the observer on the detector and on every component that
// accepts one.
func (d *Detector) SetObserver(observer *observability.StandardObserver) {
	d.observer = observer
	for _, v := range d.validators {
		if o, ok := v.(observability.Observable); ok {
			o.SetObserver(observer)
		}
	}
	if o, ok := d.recognizer.(observability.Observable); ok {
		o.SetObserver(observer)
	}
}

// Degraded reports whether Detect will run without person recognition.
func (d *Detector) Degraded() bool {
	return d.recognizer == nil
}

// Detect finds every entity in text.
func (d *Detector) Detect(text string) DetectionResult {
	var finishTiming func(bool, map[string]interface{})
	if d.observer != nil {
		finishTiming = d.observer.StartTiming(componentName, "detect", "")
	}

	result := DetectionResult{Discarded: make(map[detector.EntityType]int)}
	var candidates []detector.Entity

	var debug *observability.DebugObserver
	if d.observer != nil {
		debug = d.observer.DebugObserver
	}

	for _, v := range d.validators {
		var finishStep func(bool, string)
		if debug != nil {
			finishStep = debug.StartStep(componentName, "scan_"+v.Type().String(), "")
		}
		scan := v.Scan(text)
		candidates = append(candidates, scan.Entities...)
		if scan.Discarded > 0 {
			result.Discarded[v.Type()] += scan.Discarded
		}
		if finishStep != nil {
			finishStep(true, fmt.Sprintf("%d candidates, %d discarded", len(scan.Entities), scan.Discarded))
		}
	}

	var finishPersons func(bool, string)
	if debug != nil {
		finishPersons = debug.StartStep(componentName, "recognize_persons", "")
	}
	persons, err := d.detectPersons(text)
	if finishPersons != nil {
		finishPersons(err == nil, fmt.Sprintf("%d candidates", len(persons)))
	}
	if err != nil {
		result.Degraded = true
		result.DegradedCause = err
	}
	candidates = append(candidates, persons...)

	result.Entities = ResolveOverlaps(candidates)
	if debug != nil {
		debug.LogMetric(componentName, "overlaps_dropped", len(candidates)-len(result.Entities))
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"candidates":  len(candidates),
			"match_count": len(result.Entities),
			"degraded":    result.Degraded,
		})
	}
	return result
}

// detectPersons runs the recognizer. A missing or panicking recognizer
// yields a DetectionDegraded error and no spans.
func (d *Detector) detectPersons(text string) (entities []detector.Entity, err error) {
	if d.recognizer == nil {
		cause := d.degradedCause
		if cause == nil {
			cause = fmt.Errorf("no person recognizer configured")
		}
		return nil, lerrors.NewError(lerrors.KindDetectionDegraded, "person recognition unavailable", componentName, cause)
	}

	defer func() {
		if r := recover(); r != nil {
			entities = nil
			err = lerrors.NewError(lerrors.KindDetectionDegraded, "person recognizer failed", componentName, fmt.Errorf("panic: %v", r))
		}
	}()

	for _, s := range d.recognizer.DetectPersons(text) {
		if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			continue
		}
		entities = append(entities, detector.Entity{
			Type:       detector.Person,
			Text:       text[s.Start:s.End],
			Start:      s.Start,
			End:        s.End,
			Confidence: s.Confidence,
			Source:     "person_recognizer",
		})
	}
	return entities, nil
}

// ResolveOverlaps returns a non-overlapping subset of candidates sorted by
// start offset. Among overlapping candidates the longer span wins; equal
// lengths fall back to type priority and then to the earlier start.
func ResolveOverlaps(candidates []detector.Entity) []detector.Entity {
	if len(candidates) == 0 {
		return nil
	}

	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b detector.Entity) int {
		if c := cmp.Compare(b.Len(), a.Len()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Type.Priority(), a.Type.Priority()); c != 0 {
			return c
		}
		return cmp.Compare(a.Start, b.Start)
	})

	// kept stays sorted and non-overlapping, so only the neighbours at the
	// insertion point can overlap a candidate.
	var kept []detector.Entity
	for _, c := range ranked {
		i, _ := slices.BinarySearchFunc(kept, c.Start, func(k detector.Entity, start int) int {
			return cmp.Compare(k.Start, start)
		})
		if i > 0 && c.Overlaps(kept[i-1]) {
			continue
		}
		if i < len(kept) && c.Overlaps(kept[i]) {
			continue
		}
		kept = slices.Insert(kept, i, c)
	}
	return kept
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"

	"lethe/internal/config"
	"lethe/internal/detector"
	"lethe/internal/observability"
	"lethe/internal/validators/birthdate"
	"lethe/internal/validators/cpf"
	"lethe/internal/validators/personname"
	"lethe/internal/validators/rg"
)

// RecognizerFactory builds the person recognizer for a confidence threshold.
type RecognizerFactory func(threshold float64, observer *observability.StandardObserver) (detector.PersonRecognizer, error)

// DefaultRecognizerFactory builds the dictionary-based recognizer over the
// embedded name databases.
func DefaultRecognizerFactory(threshold float64, observer *observability.StandardObserver) (detector.PersonRecognizer, error) {
	r, err := personname.NewDefaultRecognizer(
		personname.WithThreshold(threshold),
		personname.WithObserver(observer),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// BuildDetector constructs the detector described by cfg. Pass nil for cfg
// to use the defaults. A recognizer that fails to build leaves the detector
// in degraded mode instead of failing.
func BuildDetector(cfg *config.Config, observer *observability.StandardObserver) *Detector {
	return BuildDetectorWith(cfg, observer, DefaultRecognizerFactory)
}

// BuildDetectorWith is BuildDetector with a custom recognizer factory.
func BuildDetectorWith(cfg *config.Config, observer *observability.StandardObserver, newRecognizer RecognizerFactory) *Detector {
	if cfg == nil {
		cfg = config.Default()
	}

	cpfValidator := cpf.NewValidator()
	rgValidator := rg.NewValidator()
	dateValidator := birthdate.NewValidator(birthdate.WithWindow(cfg.Detection.BirthContextWindow))

	opts := []Option{
		WithValidators(cpfValidator, rgValidator, dateValidator),
		WithObserver(observer),
	}

	switch {
	case !cfg.Detection.Persons:
		opts = append(opts, withDegradedCause(fmt.Errorf("person detection disabled by configuration")))
	case newRecognizer == nil:
		opts = append(opts, withDegradedCause(fmt.Errorf("no person recognizer factory")))
	default:
		recognizer, err := newRecognizer(cfg.Detection.PersonThreshold, observer)
		if err != nil {
			observer.Warn(componentName, "person recognizer unavailable, running pattern-only detection")
			opts = append(opts, withDegradedCause(fmt.Errorf("failed to build person recognizer: %w", err)))
		} else {
			opts = append(opts, WithRecognizer(recognizer))
		}
	}

	d := NewDetector(opts...)
	if observer != nil {
		d.SetObserver(observer)
	}
	return d
}

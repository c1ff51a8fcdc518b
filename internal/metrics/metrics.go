// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package metrics keeps Prometheus counters for detection, substitution and
// document processing, and writes them to a node_exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"lethe/internal/core"
	"lethe/internal/detector"
	"lethe/internal/mapping"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation labels.
const (
	OperationAnonymize = "anonymize"
	OperationReverse   = "reverse"
	OperationDetect    = "detect"
	OperationExtract   = "extract"
)

// Status labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Duration buckets in seconds. Key derivation alone takes a few hundred
// milliseconds.
var durationBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Recorder owns a private registry. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry *prometheus.Registry

	EntitiesDetected    *prometheus.CounterVec
	CandidatesDiscarded *prometheus.CounterVec
	Substitutions       *prometheus.CounterVec
	DocumentsProcessed  *prometheus.CounterVec
	DetectionDegraded   prometheus.Counter
	OperationDuration   *prometheus.HistogramVec
}

// NewRecorder registers every series on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		EntitiesDetected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lethe_entities_detected_total",
				Help: "Entities detected, by type",
			},
			[]string{"type"},
		),
		CandidatesDiscarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lethe_candidates_discarded_total",
				Help: "Pattern candidates rejected by validation, by type",
			},
			[]string{"type"},
		),
		Substitutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lethe_substitutions_total",
				Help: "Mapping table entries created, by type",
			},
			[]string{"type"},
		),
		DocumentsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lethe_documents_processed_total",
				Help: "Documents processed, by operation and status",
			},
			[]string{"operation", "status"},
		),
		DetectionDegraded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lethe_detection_degraded_total",
				Help: "Documents processed without person recognition",
			},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lethe_operation_duration_seconds",
				Help:    "Duration of one document operation in seconds",
				Buckets: durationBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveDetection counts the entities and discards of one detection run.
func (r *Recorder) ObserveDetection(result core.DetectionResult) {
	if r == nil {
		return
	}
	for t, n := range result.Counts() {
		if n > 0 {
			r.EntitiesDetected.WithLabelValues(t.String()).Add(float64(n))
		}
	}
	for t, n := range result.Discarded {
		if n > 0 {
			r.CandidatesDiscarded.WithLabelValues(t.String()).Add(float64(n))
		}
	}
	if result.Degraded {
		r.DetectionDegraded.Inc()
	}
}

// ObserveTable counts the substitutions of a finished table.
func (r *Recorder) ObserveTable(table *mapping.Table) {
	if r == nil || table == nil {
		return
	}
	counts := make(map[detector.EntityType]int)
	for _, s := range table.Entries() {
		counts[s.Type]++
	}
	for t, n := range counts {
		r.Substitutions.WithLabelValues(t.String()).Add(float64(n))
	}
}

// ObserveDocument records the outcome and duration of one operation.
func (r *Recorder) ObserveDocument(operation string, start time.Time, err error) {
	if r == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	r.DocumentsProcessed.WithLabelValues(operation, status).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every series in the text exposition format. The file
// is written to a temporary name and renamed.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

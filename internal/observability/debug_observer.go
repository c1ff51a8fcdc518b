// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DebugObserver provides detailed step-by-step debugging
type DebugObserver struct {
	*StandardObserver
	depth atomic.Int32
}

// NewDebugObserver creates a debug observer with step-by-step logging
func NewDebugObserver(logger *zap.Logger) *DebugObserver {
	d := &DebugObserver{
		StandardObserver: NewStandardObserver(ObservabilityDebug, logger),
	}
	d.StandardObserver.DebugObserver = d
	return d
}

// StartStep begins a processing step. The returned function closes it.
func (d *DebugObserver) StartStep(component, step, filePath string) func(success bool, details string) {
	start := time.Now()
	depth := d.depth.Add(1)

	d.logger.Debug("step started",
		zap.String("component", component),
		zap.String("step", step),
		zap.String("file_path", filePath),
		zap.Int32("depth", depth))

	return func(success bool, details string) {
		d.depth.Add(-1)
		d.logger.Debug("step finished",
			zap.String("component", component),
			zap.String("step", step),
			zap.Bool("success", success),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("details", details),
			zap.Int32("depth", depth))
	}
}

// LogDetail logs a detail within the current step
func (d *DebugObserver) LogDetail(component, detail string) {
	d.logger.Debug(detail, zap.String("component", component), zap.Int32("depth", d.depth.Load()))
}

// LogMetric logs a metric value
func (d *DebugObserver) LogMetric(component, metric string, value interface{}) {
	d.logger.Debug("metric",
		zap.String("component", component),
		zap.String("metric", metric),
		zap.Any("value", value))
}

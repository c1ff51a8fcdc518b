// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StandardObserver implements observability for all components
type StandardObserver struct {
	level         ObservabilityLevel
	logger        *zap.Logger
	runID         string
	DebugObserver *DebugObserver // Reference to debug observer when in debug mode
}

type ObservabilityLevel int

const (
	ObservabilityOff     ObservabilityLevel = 0
	ObservabilityMetrics ObservabilityLevel = 1
	ObservabilityDebug   ObservabilityLevel = 2
)

// NewStandardObserver creates observability component
func NewStandardObserver(level ObservabilityLevel, logger *zap.Logger) *StandardObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StandardObserver{
		level:  level,
		logger: logger,
		runID:  uuid.NewString(),
	}
}

// NewNopObserver returns an observer that discards everything.
func NewNopObserver() *StandardObserver {
	return NewStandardObserver(ObservabilityOff, zap.NewNop())
}

// Logger returns the underlying logger.
func (o *StandardObserver) Logger() *zap.Logger {
	if o == nil {
		return zap.NewNop()
	}
	return o.logger
}

// Level returns the configured observability level.
func (o *StandardObserver) Level() ObservabilityLevel {
	return o.level
}

// StartTiming returns a function to complete timing
func (o *StandardObserver) StartTiming(component, operation, filePath string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()

	return func(success bool, metadata map[string]interface{}) {
		data := StandardObservabilityData{
			Component:  component,
			Operation:  operation,
			FilePath:   filePath,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		}

		o.LogOperation(data)
	}
}

// LogOperation logs operation data
func (o *StandardObserver) LogOperation(data StandardObservabilityData) {
	if o == nil || o.level == ObservabilityOff {
		return
	}

	data.RequestID = o.runID

	fields := []zap.Field{
		zap.String("component", data.Component),
		zap.String("operation", data.Operation),
		zap.String("run_id", data.RequestID),
		zap.Bool("success", data.Success),
		zap.Int64("duration_ms", data.DurationMs),
	}
	if data.FilePath != "" {
		fields = append(fields, zap.String("file_path", data.FilePath))
	}
	if data.Error != "" {
		fields = append(fields, zap.String("error", data.Error))
	}
	if data.ContentLength > 0 {
		fields = append(fields, zap.Int("content_length", data.ContentLength))
	}
	if data.MatchCount > 0 {
		fields = append(fields, zap.Int("match_count", data.MatchCount))
	}
	if len(data.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", data.Metadata))
	}

	if o.level == ObservabilityDebug {
		o.logger.Info("operation", fields...)
		return
	}
	o.logger.Debug("operation", fields...)
}

// Warn logs a non-fatal condition regardless of the timing level.
func (o *StandardObserver) Warn(component, msg string, fields ...zap.Field) {
	if o == nil {
		return
	}
	o.logger.Warn(msg, append([]zap.Field{zap.String("component", component)}, fields...)...)
}

// StandardObservabilityData for all components
type StandardObservabilityData struct {
	Component     string                 `json:"component"`
	Operation     string                 `json:"operation"`
	RequestID     string                 `json:"request_id"`
	FilePath      string                 `json:"file_path,omitempty"`
	DurationMs    int64                  `json:"duration_ms,omitempty"`
	Success       bool                   `json:"success"`
	Error         string                 `json:"error,omitempty"`
	ContentLength int                    `json:"content_length,omitempty"`
	MatchCount    int                    `json:"match_count,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

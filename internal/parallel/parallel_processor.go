// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"lethe/internal/observability"

	"golang.org/x/sync/errgroup"
)

// JobFunc processes one file. index is the file's position in the batch, so
// callers can store results without locking.
type JobFunc func(ctx context.Context, index int, filePath string) error

// ProgressCallback is called when a file is completed
type ProgressCallback func(completed, total int, currentFile string)

// ProcessingStats tracks parallel processing statistics
type ProcessingStats struct {
	TotalFiles     int           `json:"total_files"`
	ProcessedFiles int           `json:"processed_files"`
	TotalDuration  time.Duration `json:"total_duration_ms"`
	WorkerCount    int           `json:"worker_count"`
	AvgFileTime    time.Duration `json:"avg_file_time_ms"`
}

// ParallelProcessor runs a JobFunc over a batch of files with bounded
// concurrency. The first failing job cancels the rest.
type ParallelProcessor struct {
	workers  int
	observer *observability.StandardObserver
	progress ProgressCallback
}

// NewParallelProcessor creates a processor running at most workers jobs at
// once. Non-positive values mean one worker per CPU.
func NewParallelProcessor(workers int, observer *observability.StandardObserver) *ParallelProcessor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &ParallelProcessor{workers: workers, observer: observer}
}

// Workers returns the concurrency limit.
func (pp *ParallelProcessor) Workers() int {
	return pp.workers
}

// SetProgressCallback installs a callback invoked after every successful
// file. Calls are serialized.
func (pp *ParallelProcessor) SetProgressCallback(cb ProgressCallback) {
	pp.progress = cb
}

// ProcessFiles runs fn for every file and waits for all started jobs to
// return. The returned error is the first job error, wrapped with its path.
func (pp *ParallelProcessor) ProcessFiles(ctx context.Context, filePaths []string, fn JobFunc) (*ProcessingStats, error) {
	start := time.Now()

	var finishTiming func(bool, map[string]interface{})
	if pp.observer != nil {
		finishTiming = pp.observer.StartTiming("parallel_processor", "process_files", "batch")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pp.workers)

	var (
		processed atomic.Int64
		busy      atomic.Int64
		mu        sync.Mutex
	)
	total := len(filePaths)

	for i, filePath := range filePaths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			jobStart := time.Now()
			if err := fn(gctx, i, filePath); err != nil {
				return fmt.Errorf("%s: %w", filePath, err)
			}
			busy.Add(int64(time.Since(jobStart)))
			done := processed.Add(1)

			if pp.progress != nil {
				mu.Lock()
				pp.progress(int(done), total, filePath)
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	count := int(processed.Load())
	stats := &ProcessingStats{
		TotalFiles:     total,
		ProcessedFiles: count,
		TotalDuration:  time.Since(start),
		WorkerCount:    pp.workers,
		AvgFileTime:    time.Duration(busy.Load()) / time.Duration(max(count, 1)),
	}

	if finishTiming != nil {
		finishTiming(err == nil, map[string]interface{}{
			"total_files":     total,
			"processed_files": count,
			"worker_count":    pp.workers,
		})
	}
	return stats, err
}

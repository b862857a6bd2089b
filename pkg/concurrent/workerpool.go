// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package concurrent runs independent tasks on a bounded number of goroutines.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs tasks with at most workerCount of them in flight.
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
	}
}

// RunAll runs every task to completion; a failing task never cancels the
// others. The non-nil errors are returned in task order. Tasks not yet started
// when ctx is done are skipped and report ctx.Err().
func (wp *WorkerPool) RunAll(ctx context.Context, tasks ...func() error) []error {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]error, len(tasks))
	g := new(errgroup.Group)
	g.SetLimit(wp.workerCount)

	for i, task := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = err
				return nil
			}
			results[i] = task()
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, err := range results {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

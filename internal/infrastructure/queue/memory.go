// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package queue holds the in-process notification queue.
package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
)

const (
	// DefaultCapacity is the number of jobs a MemoryQueue buffers.
	DefaultCapacity = 256

	// DefaultEnqueueWait bounds how long Enqueue waits for room in a full queue.
	DefaultEnqueueWait = 100 * time.Millisecond
)

// MemoryQueue is a bounded in-process notification queue. Jobs are lost when
// the process exits.
type MemoryQueue struct {
	jobs chan models.NotificationJob

	// EnqueueWait bounds how long Enqueue waits for room.
	EnqueueWait time.Duration
}

var _ domain.NotificationQueue = (*MemoryQueue)(nil)

// NewMemoryQueue creates a queue buffering up to capacity jobs.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryQueue{
		jobs:        make(chan models.NotificationJob, capacity),
		EnqueueWait: DefaultEnqueueWait,
	}
}

// Enqueue buffers job. When the queue is full it waits up to EnqueueWait for
// the consumer to make room, then gives up so callers never stall behind a
// slow notification channel.
func (q *MemoryQueue) Enqueue(ctx context.Context, job models.NotificationJob) error {
	select {
	case q.jobs <- job:
		return nil
	default:
	}

	timer := time.NewTimer(q.EnqueueWait)
	defer timer.Stop()
	select {
	case q.jobs <- job:
		return nil
	case <-timer.C:
		return domain.NewUnavailableError("notification queue is full", nil)
	case <-ctx.Done():
		return domain.NewUnavailableError("notification queue is full", ctx.Err())
	}
}

// Len returns the number of buffered jobs.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

// Consume hands jobs to handler one at a time until ctx is done.
func (q *MemoryQueue) Consume(ctx context.Context, handler domain.NotificationJobHandler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-q.jobs:
			if err := handler(ctx, job); err != nil {
				slog.WarnContext(ctx, "notification job finished with failures", logging.ErrKey, err, "job_id", job.ID)
			}
		}
	}
}

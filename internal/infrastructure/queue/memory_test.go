// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

func TestMemoryQueue_EnqueueConsume(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, id := range []string{"j1", "j2", "j3"} {
		require.NoError(t, q.Enqueue(ctx, models.NotificationJob{ID: id}))
	}
	assert.Equal(t, 3, q.Len())

	got := make(chan string, 3)
	done := make(chan error, 1)
	go func() {
		done <- q.Consume(ctx, func(_ context.Context, job models.NotificationJob) error {
			got <- job.ID
			if job.ID == "j2" {
				return errors.New("channel failed")
			}
			return nil
		})
	}()

	for _, want := range []string{"j1", "j2", "j3"} {
		select {
		case id := <-got:
			assert.Equal(t, want, id)
		case <-time.After(time.Second):
			t.Fatal("job not consumed")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestMemoryQueue_EnqueueFull(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func() (context.Context, context.CancelFunc)
		maxWait time.Duration
	}{
		{
			name:    "gives up after the enqueue wait",
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			maxWait: time.Second,
		},
		{
			name: "gives up when the caller is cancelled first",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 10*time.Millisecond)
			},
			maxWait: time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewMemoryQueue(1)
			q.EnqueueWait = 50 * time.Millisecond
			require.NoError(t, q.Enqueue(context.Background(), models.NotificationJob{ID: "j1"}))

			ctx, cancel := tt.ctx()
			defer cancel()
			start := time.Now()
			err := q.Enqueue(ctx, models.NotificationJob{ID: "j2"})
			assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
			assert.Less(t, time.Since(start), tt.maxWait)
			assert.Equal(t, 1, q.Len())
		})
	}
}

func TestMemoryQueue_EnqueueWaitsForRoom(t *testing.T) {
	q := NewMemoryQueue(1)
	q.EnqueueWait = time.Second
	require.NoError(t, q.Enqueue(context.Background(), models.NotificationJob{ID: "j1"}))

	go func() {
		time.Sleep(20 * time.Millisecond)
		<-q.jobs
	}()

	require.NoError(t, q.Enqueue(context.Background(), models.NotificationJob{ID: "j2"}))
	job := <-q.jobs
	assert.Equal(t, "j2", job.ID)
}

func TestNewMemoryQueue_DefaultCapacity(t *testing.T) {
	q := NewMemoryQueue(0)
	assert.Equal(t, DefaultCapacity, cap(q.jobs))
}

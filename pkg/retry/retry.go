// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package retry runs network-bound operations on a fixed retry schedule.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

// Policy is a fixed schedule: Attempts tries separated by a constant Delay.
type Policy struct {
	Attempts uint
	Delay    time.Duration
}

// Default is three attempts two seconds apart, without backoff growth or jitter.
var Default = Policy{
	Attempts: constants.RetryAttempts,
	Delay:    constants.RetryDelay,
}

// Do calls fn until it succeeds or the attempts are exhausted, returning the last error.
// An error wrapped with Permanent stops the schedule immediately.
func (p Policy) Do(ctx context.Context, name string, fn func() error) error {
	_, err := Value(ctx, p, name, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, name string, fn func() (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}

	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		return fn()
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.WarnContext(ctx, "operation failed, retrying",
				"operation", name,
				"attempt", attempt,
				"max_attempts", attempts,
				"retry_in", next.String(),
				logging.ErrKey, err,
			)
		}),
	)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

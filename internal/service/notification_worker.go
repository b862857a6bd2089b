// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/metrics"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/concurrent"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/retry"
)

// NotificationWorker delivers queued notification jobs to every channel.
// Each channel is retried on its own; one failing channel never blocks another.
type NotificationWorker struct {
	Notifiers []domain.Notifier
	Retry     retry.Policy
}

// NewNotificationWorker creates a new NotificationWorker.
func NewNotificationWorker(policy retry.Policy, notifiers ...domain.Notifier) *NotificationWorker {
	return &NotificationWorker{
		Notifiers: notifiers,
		Retry:     policy,
	}
}

// HandleJob fans job out to the notifiers. The returned error joins the
// channels that exhausted their retries.
func (w *NotificationWorker) HandleJob(ctx context.Context, job models.NotificationJob) error {
	if len(w.Notifiers) == 0 {
		return nil
	}

	ctx = logging.AppendCtx(ctx, slog.String("job_id", job.ID))
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", job.Meeting.ID))
	ctx = logging.AppendCtx(ctx, slog.String("action", string(job.Action)))

	meeting := job.Meeting
	tasks := make([]func() error, 0, len(w.Notifiers))
	for _, notifier := range w.Notifiers {
		tasks = append(tasks, func() error {
			channel := notifier.Channel()
			err := w.Retry.Do(ctx, channel, func() error {
				return stopOnRejection(notifier.Notify(ctx, job.Action, &meeting))
			})
			if err != nil {
				metrics.RecordNotification(channel, metrics.OutcomeFailure)
				notifyErr := domain.NewNotificationError(channel, err)
				slog.ErrorContext(ctx, "notification delivery failed", logging.ErrKey, notifyErr, "channel", channel)
				return notifyErr
			}
			metrics.RecordNotification(channel, metrics.OutcomeSuccess)
			slog.DebugContext(ctx, "notification delivered", "channel", channel)
			return nil
		})
	}

	errs := concurrent.NewWorkerPool(len(tasks)).RunAll(ctx, tasks...)
	return errors.Join(errs...)
}

// stopOnRejection marks errors that another attempt cannot fix as permanent:
// rejected input and 4xx answers other than 429.
func stopOnRejection(err error) error {
	if err == nil {
		return nil
	}
	var vendorErr *domain.VendorError
	if errors.As(err, &vendorErr) {
		if vendorErr.Status >= 400 && vendorErr.Status < 500 && vendorErr.Status != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}
	if domain.GetErrorType(err) == domain.ErrorTypeValidation {
		return retry.Permanent(err)
	}
	return err
}

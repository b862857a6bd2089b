// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
)

const (
	// notificationRetention bounds how long an unconsumed job is kept.
	notificationRetention = 7 * 24 * time.Hour

	// notificationAckWait is how long a delivered job may stay unacknowledged
	// before redelivery. It covers every channel running its full retry
	// schedule plus slow SMTP exchanges.
	notificationAckWait = 5 * time.Minute
)

// IJetStream is the JetStream subset the notification queue needs.
type IJetStream interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error)
}

// JetStreamQueue is a durable notification queue on a JetStream stream.
// Jobs are msgpack encoded. Every handled job is acknowledged, failed or not:
// the worker retries per channel itself and redelivery would duplicate
// notifications on the channels that already succeeded. A job interrupted by
// shutdown is negatively acknowledged instead so it is not lost.
type JetStreamQueue struct {
	JetStream IJetStream
	Subject   string
	Stream    string
	Consumer  string
}

var _ domain.NotificationQueue = (*JetStreamQueue)(nil)

// NewJetStreamQueue creates a queue on the default notification subject.
func NewJetStreamQueue(js IJetStream) *JetStreamQueue {
	return &JetStreamQueue{
		JetStream: js,
		Subject:   models.NotificationJobSubject,
		Stream:    models.NotificationStreamName,
		Consumer:  models.NotificationConsumerName,
	}
}

// Setup creates or updates the stream backing the queue.
func (q *JetStreamQueue) Setup(ctx context.Context) error {
	_, err := q.JetStream.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      q.Stream,
		Subjects:  []string{q.Subject},
		Retention: jetstream.WorkQueuePolicy,
		MaxAge:    notificationRetention,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("create notification stream: %w", err)
	}
	return nil
}

// Enqueue publishes job to the stream.
func (q *JetStreamQueue) Enqueue(ctx context.Context, job models.NotificationJob) error {
	data, err := msgpack.Marshal(&job)
	if err != nil {
		return domain.NewInternalError("failed to encode notification job", err)
	}
	if _, err := q.JetStream.Publish(ctx, q.Subject, data, jetstream.WithMsgID(job.ID)); err != nil {
		return domain.NewUnavailableError("failed to enqueue notification job", err)
	}
	slog.DebugContext(ctx, "enqueued notification job", "job_id", job.ID, "action", job.Action)
	return nil
}

// Consume delivers queued jobs to handler until ctx is done.
func (q *JetStreamQueue) Consume(ctx context.Context, handler domain.NotificationJobHandler) error {
	consumer, err := q.JetStream.CreateOrUpdateConsumer(ctx, q.Stream, jetstream.ConsumerConfig{
		Durable:       q.Consumer,
		FilterSubject: q.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       notificationAckWait,
	})
	if err != nil {
		return fmt.Errorf("create notification consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		q.handle(ctx, msg, handler)
	})
	if err != nil {
		return fmt.Errorf("consume notification jobs: %w", err)
	}
	defer consumeCtx.Stop()

	<-ctx.Done()
	return nil
}

func (q *JetStreamQueue) handle(ctx context.Context, msg jetstream.Msg, handler domain.NotificationJobHandler) {
	var job models.NotificationJob
	if err := msgpack.Unmarshal(msg.Data(), &job); err != nil {
		slog.ErrorContext(ctx, "dropping undecodable notification job", logging.ErrKey, err)
		if termErr := msg.Term(); termErr != nil {
			slog.WarnContext(ctx, "failed to terminate notification job", logging.ErrKey, termErr)
		}
		return
	}

	err := handler(ctx, job)
	if err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil) {
		// interrupted by shutdown, hand the job back for the next consumer
		if nakErr := msg.Nak(); nakErr != nil {
			slog.WarnContext(ctx, "failed to return interrupted notification job", logging.ErrKey, nakErr, "job_id", job.ID)
		}
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "notification job finished with failures", logging.ErrKey, err, "job_id", job.ID)
	}
	if err := msg.Ack(); err != nil {
		slog.WarnContext(ctx, "failed to acknowledge notification job", logging.ErrKey, err, "job_id", job.ID)
	}
}

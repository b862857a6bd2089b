// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
)

// ChannelEvent is the notification channel name of the event bus.
const ChannelEvent = "event"

// INatsConn is the NATS connection subset the event publisher needs.
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// eventMessage is the event bus envelope. Msg holds the meeting as a generic
// JSON object so consumers are not bound to the Go type.
type eventMessage struct {
	Action models.MessageAction `json:"action"`
	Msg    map[string]any       `json:"msg"`
}

// EventPublisher publishes meeting lifecycle events on the event bus.
type EventPublisher struct {
	NatsConn INatsConn
	Subject  string
}

var _ domain.Notifier = (*EventPublisher)(nil)

// NewEventPublisher creates a new EventPublisher on the default event subject.
func NewEventPublisher(natsConn INatsConn) *EventPublisher {
	return &EventPublisher{
		NatsConn: natsConn,
		Subject:  models.MeetingEventSubject,
	}
}

// Channel returns the notification channel name.
func (p *EventPublisher) Channel() string {
	return ChannelEvent
}

// Notify publishes {action, msg} for meeting.
func (p *EventPublisher) Notify(ctx context.Context, action models.MessageAction, meeting *models.Meeting) error {
	if p.NatsConn == nil || !p.NatsConn.IsConnected() {
		return domain.NewUnavailableError("NATS connection is not available")
	}

	payload, err := meetingPayload(meeting)
	if err != nil {
		slog.ErrorContext(ctx, "error building event payload", logging.ErrKey, err, "subject", p.Subject)
		return err
	}

	data, err := json.Marshal(eventMessage{Action: action, Msg: payload})
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling event into JSON", logging.ErrKey, err, "subject", p.Subject)
		return err
	}

	return p.publish(ctx, p.Subject, data)
}

// publish sends data to the NATS server.
func (p *EventPublisher) publish(ctx context.Context, subject string, data []byte) error {
	if err := p.NatsConn.Publish(subject, data); err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

// meetingPayload converts meeting to the map consumers receive, keyed by its JSON names.
func meetingPayload(meeting *models.Meeting) (map[string]any, error) {
	raw, err := json.Marshal(meeting)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

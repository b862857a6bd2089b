// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// Message is an inbound request on the meeting subjects. Respond is only
// meaningful when HasReply reports a reply inbox.
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler answers meeting requests.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// Notifier delivers a meeting lifecycle notice on one channel.
type Notifier interface {
	Channel() string
	Notify(ctx context.Context, action models.MessageAction, meeting *models.Meeting) error
}

// NotificationQueue hands notification jobs from the request path to the
// notification worker.
type NotificationQueue interface {
	Enqueue(ctx context.Context, job models.NotificationJob) error
}

// NotificationJobHandler processes one dequeued notification job.
type NotificationJobHandler func(ctx context.Context, job models.NotificationJob) error

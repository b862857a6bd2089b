// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
)

// NoOpNotifier is a no-operation email notifier that logs but doesn't send emails
type NoOpNotifier struct{}

var _ domain.Notifier = (*NoOpNotifier)(nil)

// NewNoOpNotifier creates a new no-op email notifier
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Channel returns the notification channel name.
func (s *NoOpNotifier) Channel() string {
	return ChannelEmail
}

// Notify logs the notice but doesn't send an email
func (s *NoOpNotifier) Notify(ctx context.Context, action models.MessageAction, meeting *models.Meeting) error {
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meeting.ID))
	ctx = logging.AppendCtx(ctx, slog.String("meeting_topic", meeting.Topic))

	slog.DebugContext(ctx, "email service disabled, skipping meeting email", "action", string(action))
	return nil
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
)

// ChannelEmail is the notification channel name of the email notifier.
const ChannelEmail = "email"

// Subject prefixes of follow-up emails.
const (
	SubjectPrefixUpdate = "[Update] "
	SubjectPrefixCancel = "[Cancel] "
)

// SMTPConfig holds the SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string // Optional for authenticated SMTP
	Password string // Optional for authenticated SMTP

	// Location is the zone meeting dates and clocks are expressed in.
	Location *time.Location
	// Portals maps a community to the meeting portal linked from its emails.
	Portals map[string]Portal
}

// Portal holds the meeting portal links of a community.
type Portal struct {
	EN string
	ZH string
}

// SMTPNotifier sends meeting invitations, updates and cancellations with a
// calendar invite attached.
type SMTPNotifier struct {
	config    SMTPConfig
	templates Templates
	send      func(recipients []string, message string) error
}

var _ domain.Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier creates a new SMTP email notifier
func NewSMTPNotifier(config SMTPConfig) (*SMTPNotifier, error) {
	if config.Location == nil {
		config.Location = time.UTC
	}
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	notifier := &SMTPNotifier{
		config:    config,
		templates: templates,
	}
	notifier.send = func(recipients []string, message string) error {
		return sendEmailMessage(notifier.config, recipients, message)
	}
	return notifier, nil
}

// Channel returns the notification channel name.
func (s *SMTPNotifier) Channel() string {
	return ChannelEmail
}

// Notify emails every recipient of meeting about action. Meetings without
// recipients are skipped.
func (s *SMTPNotifier) Notify(ctx context.Context, action models.MessageAction, meeting *models.Meeting) error {
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meeting.ID))
	ctx = logging.AppendCtx(ctx, slog.String("meeting_topic", meeting.Topic))

	recipients := meeting.Recipients()
	if len(recipients) == 0 {
		slog.InfoContext(ctx, "no email recipients, skipping email")
		return nil
	}

	set, method, subject := s.templates.Invitation, MethodRequest, meeting.Topic
	switch action {
	case models.ActionCreateMeeting:
	case models.ActionUpdateMeeting:
		subject = SubjectPrefixUpdate + meeting.Topic
	case models.ActionDeleteMeeting:
		set, method, subject = s.templates.Cancellation, MethodCancel, SubjectPrefixCancel+meeting.Topic
	default:
		return domain.NewValidationError(fmt.Sprintf("unsupported email action %q", action))
	}

	content, err := set.render(newMeetingEmailData(meeting, s.config.Portals[meeting.Community]))
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email templates", logging.ErrKey, err)
		return domain.NewNotificationError(ChannelEmail, err)
	}

	start, err := meeting.StartTime(s.config.Location)
	if err != nil {
		return domain.NewValidationError("invalid meeting start", err)
	}
	end, err := meeting.EndTime(s.config.Location)
	if err != nil {
		return domain.NewValidationError("invalid meeting end", err)
	}

	calendar := GenerateICS(ICSParams{
		Method:    method,
		UID:       meeting.ICSUID(),
		Community: meeting.Community,
		Summary:   subject,
		Organizer: s.config.From,
		Attendees: recipients,
		Start:     start,
		End:       end,
		Sequence:  meeting.Sequence,
	})

	message := buildEmailMessage(outgoingMessage{
		From:       fmt.Sprintf("%s conference <%s>", meeting.Community, s.config.From),
		Recipients: recipients,
		Subject:    subject,
		Content:    content,
		Calendar:   calendar,
		Method:     method,
	})
	if err := s.send(recipients, message); err != nil {
		slog.ErrorContext(ctx, "failed to send meeting email", logging.ErrKey, err, "action", string(action))
		return domain.NewNotificationError(ChannelEmail, err)
	}

	slog.InfoContext(ctx, "meeting email sent", "action", string(action), "recipients", len(recipients))
	return nil
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/service"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

// Response is the envelope of every reply. Code is 0 on success and the
// status code of the failure otherwise.
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// MeetingIDRequest addresses a single meeting.
type MeetingIDRequest struct {
	ID string `json:"id"`
}

const successMsg = "success"

// MeetingHandler answers the meeting request subjects.
type MeetingHandler struct {
	meetingService *service.MeetingService
}

var _ domain.MessageHandler = (*MeetingHandler)(nil)

// NewMeetingHandler creates a handler over meetingService.
func NewMeetingHandler(meetingService *service.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetingService: meetingService}
}

// HandlerReady reports whether the handler can serve requests.
func (s *MeetingHandler) HandlerReady() bool {
	return s.meetingService != nil && s.meetingService.ServiceReady()
}

// HandleMessage implements domain.MessageHandler interface
func (s *MeetingHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	handlers := map[string]func(ctx context.Context, msg domain.Message) (any, error){
		models.MeetingCreateSubject:       s.HandleCreateMeeting,
		models.MeetingUpdateSubject:       s.HandleUpdateMeeting,
		models.MeetingDeleteSubject:       s.HandleDeleteMeeting,
		models.MeetingGetSubject:          s.HandleGetMeeting,
		models.MeetingListSubject:         s.HandleListMeetings,
		models.MeetingParticipantsSubject: s.HandleGetParticipants,
	}

	var response Response
	handler, ok := handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		response = Response{Code: constants.StatusParameterError, Msg: "unknown subject " + subject}
	} else if data, err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "error handling message", logging.ErrKey, err)
		response = Response{Code: domain.GetStatusCode(err), Msg: err.Error()}
	} else {
		response = Response{Code: constants.StatusSuccess, Msg: successMsg, Data: data}
	}

	if !msg.HasReply() {
		slog.DebugContext(ctx, "handled NATS message (no reply expected)")
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		slog.ErrorContext(ctx, "error marshaling response", logging.ErrKey, err)
		return
	}
	if err := msg.Respond(payload); err != nil {
		slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
		return
	}
	slog.DebugContext(ctx, "responded to NATS message", "code", response.Code)
}

// decode reads a JSON object into T by its json tags. Scalars are weakly
// typed so form style values such as "is_record": "1" are accepted.
func decode[T any](msg domain.Message) (*T, error) {
	var fields map[string]any
	if err := json.Unmarshal(msg.Data(), &fields); err != nil {
		return nil, domain.NewValidationError("invalid request payload", err)
	}

	var payload T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &payload,
	})
	if err != nil {
		return nil, domain.NewInternalError("failed to build request decoder", err)
	}
	if err := decoder.Decode(fields); err != nil {
		return nil, domain.NewValidationError("invalid request payload", err)
	}
	return &payload, nil
}

// HandleCreateMeeting books a new meeting.
func (s *MeetingHandler) HandleCreateMeeting(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.CreateMeetingRequest](msg)
	if err != nil {
		return nil, err
	}
	return s.meetingService.CreateMeeting(ctx, req)
}

// HandleUpdateMeeting edits an existing meeting.
func (s *MeetingHandler) HandleUpdateMeeting(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[models.UpdateMeetingRequest](msg)
	if err != nil {
		return nil, err
	}
	return s.meetingService.UpdateMeeting(ctx, req)
}

// HandleDeleteMeeting cancels a meeting.
func (s *MeetingHandler) HandleDeleteMeeting(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[MeetingIDRequest](msg)
	if err != nil {
		return nil, err
	}
	return nil, s.meetingService.DeleteMeeting(ctx, req.ID)
}

// HandleGetMeeting returns a single meeting.
func (s *MeetingHandler) HandleGetMeeting(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[MeetingIDRequest](msg)
	if err != nil {
		return nil, err
	}
	return s.meetingService.GetMeeting(ctx, req.ID)
}

// HandleListMeetings lists meetings. An empty payload lists everything.
func (s *MeetingHandler) HandleListMeetings(ctx context.Context, msg domain.Message) (any, error) {
	filter := &models.ListMeetingsFilter{}
	if len(msg.Data()) > 0 {
		var err error
		if filter, err = decode[models.ListMeetingsFilter](msg); err != nil {
			return nil, err
		}
	}
	meetings, err := s.meetingService.ListMeetings(ctx, *filter)
	if err != nil {
		return nil, err
	}
	if meetings == nil {
		meetings = []*models.Meeting{}
	}
	return meetings, nil
}

// HandleGetParticipants returns the attendees of a meeting.
func (s *MeetingHandler) HandleGetParticipants(ctx context.Context, msg domain.Message) (any, error) {
	req, err := decode[MeetingIDRequest](msg)
	if err != nil {
		return nil, err
	}
	return s.meetingService.GetParticipants(ctx, req.ID)
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

// MeetingService orchestrates the meeting lifecycle: it validates requests,
// allocates a host, calls the conferencing vendor, persists the result and
// hands notifications to the queue.
type MeetingService struct {
	MeetingRepository domain.MeetingRepository
	PlatformRegistry  domain.PlatformRegistry
	NotificationQueue domain.NotificationQueue
	HostAllocator     *HostAllocator
	Config            ServiceConfig

	now func() time.Time
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(
	meetingRepository domain.MeetingRepository,
	platformRegistry domain.PlatformRegistry,
	notificationQueue domain.NotificationQueue,
	config ServiceConfig,
) *MeetingService {
	return &MeetingService{
		MeetingRepository: meetingRepository,
		PlatformRegistry:  platformRegistry,
		NotificationQueue: notificationQueue,
		HostAllocator:     NewHostAllocator(meetingRepository, config),
		Config:            config,
		now:               time.Now,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *MeetingService) ServiceReady() bool {
	return s.MeetingRepository != nil &&
		s.PlatformRegistry != nil &&
		s.NotificationQueue != nil &&
		s.HostAllocator != nil
}

// CreateMeeting books a meeting on a free host of the requested platform.
func (s *MeetingService) CreateMeeting(ctx context.Context, req *models.CreateMeetingRequest) (*models.Meeting, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}
	if req == nil {
		return nil, domain.NewValidationError("meeting payload is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("community", req.Community))
	ctx = logging.AppendCtx(ctx, slog.String("platform", req.Platform))

	err := s.validateFields(meetingFields{
		Sponsor:   req.Sponsor,
		GroupName: req.GroupName,
		Community: req.Community,
		Platform:  req.Platform,
		Topic:     req.Topic,
		Agenda:    req.Agenda,
		Etherpad:  req.Etherpad,
		EmailList: req.EmailList,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Config.Window.ValidateSchedule(req.Date, req.Start, req.End, s.now()); err != nil {
		return nil, err
	}

	hosts, err := s.HostAllocator.FindAvailableHosts(ctx, req.Community, req.Platform, req.Date, req.Start, req.End, "")
	if err != nil {
		return nil, err
	}
	host, err := PickHost(hosts)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	meeting := &models.Meeting{
		ID:           uuid.New().String(),
		Sponsor:      req.Sponsor,
		GroupName:    req.GroupName,
		Community:    req.Community,
		Topic:        req.Topic,
		Platform:     req.Platform,
		Date:         req.Date,
		Start:        req.Start,
		End:          req.End,
		Agenda:       req.Agenda,
		Etherpad:     req.Etherpad,
		EmailList:    req.EmailList,
		HostID:       host,
		IsRecord:     req.IsRecord,
		UploadStatus: models.UploadStatusInit,
		Sequence:     1,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meeting.ID))

	result, err := s.PlatformRegistry.Invoke(ctx, domain.OperationCreate, meeting)
	if err != nil {
		slog.ErrorContext(ctx, "vendor failed to create meeting", logging.ErrKey, err, "host_id", host)
		return nil, withStatusCode(err, constants.StatusMeetingFailedCreate)
	}
	if result.Meeting != nil {
		meeting.MID = result.Meeting.MID
		meeting.MMID = result.Meeting.MMID
		meeting.JoinURL = result.Meeting.JoinURL
	}

	if err := s.MeetingRepository.Create(ctx, meeting); err != nil {
		// The vendor meeting exists without a local record from here on.
		slog.ErrorContext(ctx, "vendor meeting created but not persisted",
			logging.ErrKey, err,
			"mid", meeting.MID,
			logging.PriorityCritical(),
		)
		return nil, err
	}

	slog.InfoContext(ctx, "created meeting", "mid", meeting.MID, "host_id", meeting.HostID)
	s.enqueueNotification(ctx, models.ActionCreateMeeting, meeting)
	return meeting, nil
}

// UpdateMeeting reschedules or edits a meeting on its current host.
func (s *MeetingService) UpdateMeeting(ctx context.Context, req *models.UpdateMeetingRequest) (*models.Meeting, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}
	if req == nil || req.ID == "" {
		return nil, domain.NewValidationError("meeting id is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", req.ID))

	existing, revision, err := s.getLiveMeeting(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.Config.Window.CheckLeadTime(existing.Date, existing.Start, now); err != nil {
		return nil, err
	}
	if req.Community != existing.Community || req.Platform != existing.Platform {
		return nil, domain.NewValidationError("community and platform cannot be changed").
			WithCode(constants.StatusInformationChangeError)
	}

	err = s.validateFields(meetingFields{
		Sponsor:   req.Sponsor,
		GroupName: req.GroupName,
		Community: existing.Community,
		Platform:  existing.Platform,
		Topic:     req.Topic,
		Agenda:    req.Agenda,
		Etherpad:  req.Etherpad,
		EmailList: req.EmailList,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Config.Window.ValidateSchedule(req.Date, req.Start, req.End, now); err != nil {
		return nil, err
	}
	if err := s.Config.Window.CheckLeadTime(req.Date, req.Start, now); err != nil {
		return nil, err
	}

	hosts, err := s.HostAllocator.FindAvailableHosts(ctx, existing.Community, existing.Platform, req.Date, req.Start, req.End, existing.ID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(hosts, existing.HostID) {
		return nil, domain.NewConflictError("host is not available for the new window").
			WithCode(constants.StatusMeetingDateConflict)
	}

	updated := *existing
	updated.Sponsor = req.Sponsor
	updated.GroupName = req.GroupName
	updated.Topic = req.Topic
	updated.Date = req.Date
	updated.Start = req.Start
	updated.End = req.End
	updated.Agenda = req.Agenda
	updated.Etherpad = req.Etherpad
	updated.EmailList = req.EmailList
	updated.IsRecord = req.IsRecord
	updated.Sequence = existing.Sequence + 1
	updatedAt := now.UTC()
	updated.UpdatedAt = &updatedAt

	if _, err := s.PlatformRegistry.Invoke(ctx, domain.OperationUpdate, &updated); err != nil {
		slog.ErrorContext(ctx, "vendor failed to update meeting", logging.ErrKey, err, "mid", existing.MID)
		return nil, withStatusCode(err, constants.StatusMeetingFailedUpdate)
	}

	if err := s.MeetingRepository.Update(ctx, &updated, revision); err != nil {
		slog.ErrorContext(ctx, "vendor meeting updated but not persisted",
			logging.ErrKey, err,
			"mid", updated.MID,
			logging.PriorityCritical(),
		)
		return nil, err
	}

	slog.InfoContext(ctx, "updated meeting", "mid", updated.MID, "sequence", updated.Sequence)
	s.enqueueNotification(ctx, models.ActionUpdateMeeting, &updated)
	return &updated, nil
}

// DeleteMeeting cancels a meeting at the vendor and soft deletes it.
func (s *MeetingService) DeleteMeeting(ctx context.Context, id string) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.ErrServiceUnavailable
	}
	if id == "" {
		return domain.NewValidationError("meeting id is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", id))

	existing, revision, err := s.getLiveMeeting(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.Config.Window.CheckLeadTime(existing.Date, existing.Start, now); err != nil {
		return err
	}

	deleted := *existing
	deleted.Sequence = existing.Sequence + 1
	deleted.IsDelete = true
	updatedAt := now.UTC()
	deleted.UpdatedAt = &updatedAt

	if _, err := s.PlatformRegistry.Invoke(ctx, domain.OperationDelete, &deleted); err != nil {
		slog.ErrorContext(ctx, "vendor failed to delete meeting", logging.ErrKey, err, "mid", existing.MID)
		return withStatusCode(err, constants.StatusMeetingFailedDelete)
	}

	if err := s.MeetingRepository.SoftDelete(ctx, &deleted, revision); err != nil {
		slog.ErrorContext(ctx, "vendor meeting deleted but not persisted",
			logging.ErrKey, err,
			"mid", deleted.MID,
			logging.PriorityCritical(),
		)
		return err
	}

	slog.InfoContext(ctx, "deleted meeting", "mid", deleted.MID, "sequence", deleted.Sequence)
	s.enqueueNotification(ctx, models.ActionDeleteMeeting, &deleted)
	return nil
}

// GetMeeting returns a meeting that has not been deleted.
func (s *MeetingService) GetMeeting(ctx context.Context, id string) (*models.Meeting, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}
	meeting, _, err := s.getLiveMeeting(ctx, id)
	return meeting, err
}

// ListMeetings returns the non-deleted meetings matching filter.
func (s *MeetingService) ListMeetings(ctx context.Context, filter models.ListMeetingsFilter) ([]*models.Meeting, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	switch filter.OrderBy {
	case "", models.OrderByDate, models.OrderByCreateTime, models.OrderByUpdateTime:
	default:
		return nil, domain.NewValidationError("unsupported order_by " + filter.OrderBy)
	}
	switch filter.OrderType {
	case "", models.OrderAsc, models.OrderDesc:
	default:
		return nil, domain.NewValidationError("unsupported order_type " + filter.OrderType)
	}

	return s.MeetingRepository.List(ctx, filter)
}

// GetParticipants returns the attendees of a meeting as reported by its vendor.
func (s *MeetingService) GetParticipants(ctx context.Context, id string) (*models.Participants, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.ErrServiceUnavailable
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", id))

	meeting, _, err := s.getLiveMeeting(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.PlatformRegistry.Invoke(ctx, domain.OperationGetParticipants, meeting)
	if err != nil {
		slog.ErrorContext(ctx, "vendor failed to list participants", logging.ErrKey, err, "mid", meeting.MID)
		return nil, withStatusCode(err, constants.StatusMeetingFailedParticipant)
	}
	if result.Participants == nil {
		return &models.Participants{}, nil
	}
	return result.Participants, nil
}

func (s *MeetingService) getLiveMeeting(ctx context.Context, id string) (*models.Meeting, uint64, error) {
	meeting, revision, err := s.MeetingRepository.GetWithRevision(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if meeting.IsDelete {
		return nil, 0, domain.NewNotFoundError("meeting not found").WithCode(constants.StatusMeetingNotExist)
	}
	return meeting, revision, nil
}

func (s *MeetingService) enqueueNotification(ctx context.Context, action models.MessageAction, meeting *models.Meeting) {
	job := models.NotificationJob{
		ID:      uuid.New().String(),
		Action:  action,
		Meeting: *meeting,
	}
	if err := s.NotificationQueue.Enqueue(ctx, job); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue notification",
			logging.ErrKey, err,
			"action", action,
			"job_id", job.ID,
		)
	}
}

// withStatusCode attaches code to a vendor failure that does not carry one yet.
func withStatusCode(err error, code int) error {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Code != 0 {
			return err
		}
		return &domain.DomainError{
			Type:    domainErr.Type,
			Code:    code,
			Message: domainErr.Message,
			Err:     domainErr.Err,
		}
	}
	return domain.NewInternalError("vendor request failed", err).WithCode(code)
}

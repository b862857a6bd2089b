// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package zoom

import (
	"fmt"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// CreateAction schedules a meeting on a host account.
type CreateAction struct {
	Date     string
	Start    string
	End      string
	Topic    string
	HostID   string
	IsRecord bool
}

// UpdateAction reschedules an existing meeting.
type UpdateAction struct {
	MID      string
	Date     string
	Start    string
	End      string
	Topic    string
	IsRecord bool
}

// DeleteAction cancels a meeting.
type DeleteAction struct {
	MID string
}

// ParticipantsAction lists the attendees of a finished meeting.
type ParticipantsAction struct {
	MID string
}

// VideoAction retrieves the cloud recording of a finished meeting.
type VideoAction struct {
	MID       string
	HostID    string
	Community string
	Date      string
	Start     string
}

func (CreateAction) Platform() string       { return models.PlatformZoom }
func (UpdateAction) Platform() string       { return models.PlatformZoom }
func (DeleteAction) Platform() string       { return models.PlatformZoom }
func (ParticipantsAction) Platform() string { return models.PlatformZoom }
func (VideoAction) Platform() string        { return models.PlatformZoom }

func (CreateAction) Operation() domain.Operation       { return domain.OperationCreate }
func (UpdateAction) Operation() domain.Operation       { return domain.OperationUpdate }
func (DeleteAction) Operation() domain.Operation       { return domain.OperationDelete }
func (ParticipantsAction) Operation() domain.Operation { return domain.OperationGetParticipants }
func (VideoAction) Operation() domain.Operation        { return domain.OperationGetVideo }

// NewAction builds the Zoom variant for op from meeting.
func (c *Client) NewAction(op domain.Operation, m *models.Meeting) (domain.Action, error) {
	switch op {
	case domain.OperationCreate:
		return CreateAction{Date: m.Date, Start: m.Start, End: m.End, Topic: m.Topic, HostID: m.HostID, IsRecord: m.IsRecord}, nil
	case domain.OperationUpdate:
		return UpdateAction{MID: m.MID, Date: m.Date, Start: m.Start, End: m.End, Topic: m.Topic, IsRecord: m.IsRecord}, nil
	case domain.OperationDelete:
		return DeleteAction{MID: m.MID}, nil
	case domain.OperationGetParticipants:
		return ParticipantsAction{MID: m.MID}, nil
	case domain.OperationGetVideo:
		return VideoAction{MID: m.MID, HostID: m.HostID, Community: m.Community, Date: m.Date, Start: m.Start}, nil
	}
	return nil, fmt.Errorf("zoom: unsupported operation %q", op)
}

func mismatch(want string, got domain.Action) error {
	return fmt.Errorf("%w: zoom expects %s, got %T", domain.ErrActionMismatch, want, got)
}

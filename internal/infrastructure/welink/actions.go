// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package welink

import (
	"fmt"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// CreateAction books a conference in a host's virtual meeting room.
type CreateAction struct {
	Date     string
	Start    string
	End      string
	Topic    string
	HostID   string
	IsRecord bool
}

// UpdateAction reschedules a conference.
type UpdateAction struct {
	HostID   string
	MID      string
	Date     string
	Start    string
	End      string
	Topic    string
	IsRecord bool
}

// DeleteAction cancels a conference.
type DeleteAction struct {
	HostID string
	MID    string
}

// ParticipantsAction lists attendees. WeLink looks finished conferences up
// by time range, hence the schedule fields.
type ParticipantsAction struct {
	HostID string
	MID    string
	Date   string
	Start  string
	End    string
}

// VideoAction retrieves the cloud recording of a finished conference.
type VideoAction struct {
	Community string
	HostID    string
	MID       string
	Date      string
	Start     string
	End       string
}

func (CreateAction) Platform() string       { return models.PlatformWelink }
func (UpdateAction) Platform() string       { return models.PlatformWelink }
func (DeleteAction) Platform() string       { return models.PlatformWelink }
func (ParticipantsAction) Platform() string { return models.PlatformWelink }
func (VideoAction) Platform() string        { return models.PlatformWelink }

func (CreateAction) Operation() domain.Operation       { return domain.OperationCreate }
func (UpdateAction) Operation() domain.Operation       { return domain.OperationUpdate }
func (DeleteAction) Operation() domain.Operation       { return domain.OperationDelete }
func (ParticipantsAction) Operation() domain.Operation { return domain.OperationGetParticipants }
func (VideoAction) Operation() domain.Operation        { return domain.OperationGetVideo }

// NewAction builds the WeLink variant for op from meeting.
func (c *Client) NewAction(op domain.Operation, m *models.Meeting) (domain.Action, error) {
	switch op {
	case domain.OperationCreate:
		return CreateAction{Date: m.Date, Start: m.Start, End: m.End, Topic: m.Topic, HostID: m.HostID, IsRecord: m.IsRecord}, nil
	case domain.OperationUpdate:
		return UpdateAction{HostID: m.HostID, MID: m.MID, Date: m.Date, Start: m.Start, End: m.End, Topic: m.Topic, IsRecord: m.IsRecord}, nil
	case domain.OperationDelete:
		return DeleteAction{HostID: m.HostID, MID: m.MID}, nil
	case domain.OperationGetParticipants:
		return ParticipantsAction{HostID: m.HostID, MID: m.MID, Date: m.Date, Start: m.Start, End: m.End}, nil
	case domain.OperationGetVideo:
		return VideoAction{Community: m.Community, HostID: m.HostID, MID: m.MID, Date: m.Date, Start: m.Start, End: m.End}, nil
	}
	return nil, fmt.Errorf("welink: unsupported operation %q", op)
}

func mismatch(want string, got domain.Action) error {
	return fmt.Errorf("%w: welink expects %s, got %T", domain.ErrActionMismatch, want, got)
}

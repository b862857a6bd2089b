// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package tencent

import (
	"fmt"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// CreateAction schedules a meeting for a host account.
type CreateAction struct {
	Date     string
	Start    string
	End      string
	Topic    string
	HostID   string
	IsRecord bool
}

// UpdateAction reschedules a meeting. Tencent addresses meetings by MMID.
type UpdateAction struct {
	HostID   string
	MID      string
	MMID     string
	Date     string
	Start    string
	End      string
	Topic    string
	IsRecord bool
}

// DeleteAction cancels a meeting.
type DeleteAction struct {
	HostID string
	MID    string
	MMID   string
}

// ParticipantsAction lists the attendees of a finished meeting.
type ParticipantsAction struct {
	HostID string
	MMID   string
}

// VideoAction retrieves the cloud recording of a finished meeting.
type VideoAction struct {
	Community string
	HostID    string
	MID       string
	MMID      string
	Date      string
	Start     string
}

func (CreateAction) Platform() string       { return models.PlatformTencent }
func (UpdateAction) Platform() string       { return models.PlatformTencent }
func (DeleteAction) Platform() string       { return models.PlatformTencent }
func (ParticipantsAction) Platform() string { return models.PlatformTencent }
func (VideoAction) Platform() string        { return models.PlatformTencent }

func (CreateAction) Operation() domain.Operation       { return domain.OperationCreate }
func (UpdateAction) Operation() domain.Operation       { return domain.OperationUpdate }
func (DeleteAction) Operation() domain.Operation       { return domain.OperationDelete }
func (ParticipantsAction) Operation() domain.Operation { return domain.OperationGetParticipants }
func (VideoAction) Operation() domain.Operation        { return domain.OperationGetVideo }

// NewAction builds the Tencent variant for op from meeting.
func (c *Client) NewAction(op domain.Operation, m *models.Meeting) (domain.Action, error) {
	switch op {
	case domain.OperationCreate:
		return CreateAction{Date: m.Date, Start: m.Start, End: m.End, Topic: m.Topic, HostID: m.HostID, IsRecord: m.IsRecord}, nil
	case domain.OperationUpdate:
		return UpdateAction{
			HostID: m.HostID, MID: m.MID, MMID: m.MMID,
			Date: m.Date, Start: m.Start, End: m.End, Topic: m.Topic, IsRecord: m.IsRecord,
		}, nil
	case domain.OperationDelete:
		return DeleteAction{HostID: m.HostID, MID: m.MID, MMID: m.MMID}, nil
	case domain.OperationGetParticipants:
		return ParticipantsAction{HostID: m.HostID, MMID: m.MMID}, nil
	case domain.OperationGetVideo:
		return VideoAction{Community: m.Community, HostID: m.HostID, MID: m.MID, MMID: m.MMID, Date: m.Date, Start: m.Start}, nil
	}
	return nil, fmt.Errorf("tencent: unsupported operation %q", op)
}

func mismatch(want string, got domain.Action) error {
	return fmt.Errorf("%w: tencent expects %s, got %T", domain.ErrActionMismatch, want, got)
}

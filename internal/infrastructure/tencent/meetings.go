// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package tencent

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// Settings is the subset of meeting settings the service controls
type Settings struct {
	MuteEnableJoin            bool   `json:"mute_enable_join"`
	AutoRecordType            string `json:"auto_record_type,omitempty"`
	ParticipantJoinAutoRecord bool   `json:"participant_join_auto_record,omitempty"`
	EnableHostPauseAutoRecord bool   `json:"enable_host_pause_auto_record,omitempty"`
}

// MeetingRequest is the body of create and update calls
type MeetingRequest struct {
	UserID        string   `json:"userid"`
	InstanceID    int      `json:"instanceid"`
	Subject       string   `json:"subject"`
	Type          int      `json:"type"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	Settings      Settings `json:"settings"`
	EnableHostKey bool     `json:"enable_host_key"`
	HostKey       string   `json:"host_key,omitempty"`
}

type meetingInfoResponse struct {
	MeetingInfoList []struct {
		MeetingID   string `json:"meeting_id"`
		MeetingCode string `json:"meeting_code"`
		JoinURL     string `json:"join_url"`
	} `json:"meeting_info_list"`
}

type cancelRequest struct {
	UserID     string `json:"userid"`
	InstanceID int    `json:"instanceid"`
	ReasonCode int    `json:"reason_code"`
}

type participantsResponse struct {
	TotalCount   int `json:"total_count"`
	Participants []struct {
		UserName string `json:"user_name"`
		JoinTime string `json:"join_time"`
		LeftTime string `json:"left_time"`
	} `json:"participants"`
}

const (
	// instanceID identifies requests made on behalf of a PC client
	instanceID = 1
	// reasonCodeCancel is the cancellation reason sent on delete
	reasonCodeCancel = 1
)

// Create schedules the meeting. The meeting code becomes MID and the
// meeting id MMID.
func (c *Client) Create(ctx context.Context, action domain.Action) (int, *domain.MeetingResult, error) {
	a, ok := action.(CreateAction)
	if !ok {
		return 0, nil, mismatch("CreateAction", action)
	}

	request, err := c.meetingRequest(a.HostID, a.Date, a.Start, a.End, a.Topic, a.IsRecord)
	if err != nil {
		return 0, nil, err
	}
	var created meetingInfoResponse
	status, err := c.doRequest(ctx, a.HostID, http.MethodPost, "/v1/meetings", request, &created)
	if err != nil {
		return status, nil, err
	}
	if len(created.MeetingInfoList) == 0 {
		return status, nil, fmt.Errorf("tencent: create answered without meeting info")
	}

	info := created.MeetingInfoList[0]
	return status, &domain.MeetingResult{
		HostID:  a.HostID,
		MID:     info.MeetingCode,
		MMID:    info.MeetingID,
		JoinURL: info.JoinURL,
	}, nil
}

// Update reschedules the meeting addressed by MMID.
func (c *Client) Update(ctx context.Context, action domain.Action) (int, error) {
	a, ok := action.(UpdateAction)
	if !ok {
		return 0, mismatch("UpdateAction", action)
	}

	request, err := c.meetingRequest(a.HostID, a.Date, a.Start, a.End, a.Topic, a.IsRecord)
	if err != nil {
		return 0, err
	}
	if !a.IsRecord {
		request.Settings.AutoRecordType = "none"
	}
	return c.doRequest(ctx, a.HostID, http.MethodPut, "/v1/meetings/"+url.PathEscape(a.MMID), request, nil)
}

// Delete cancels the meeting addressed by MMID.
func (c *Client) Delete(ctx context.Context, action domain.Action) (int, error) {
	a, ok := action.(DeleteAction)
	if !ok {
		return 0, mismatch("DeleteAction", action)
	}

	request := cancelRequest{UserID: a.HostID, InstanceID: instanceID, ReasonCode: reasonCodeCancel}
	return c.doRequest(ctx, a.HostID, http.MethodPost, "/v1/meetings/"+url.PathEscape(a.MMID)+"/cancel", request, nil)
}

// GetParticipants returns the attendees. Tencent reports names base64 encoded.
func (c *Client) GetParticipants(ctx context.Context, action domain.Action) (int, *models.Participants, error) {
	a, ok := action.(ParticipantsAction)
	if !ok {
		return 0, nil, mismatch("ParticipantsAction", action)
	}

	uri := "/v1/meetings/" + url.PathEscape(a.MMID) + "/participants?userid=" + url.QueryEscape(a.HostID)
	var report participantsResponse
	status, err := c.doRequest(ctx, a.HostID, http.MethodGet, uri, nil, &report)
	if err != nil {
		return status, nil, err
	}

	result := &models.Participants{Total: report.TotalCount, Participants: make([]models.Participant, 0, len(report.Participants))}
	for _, p := range report.Participants {
		name, err := base64.StdEncoding.DecodeString(p.UserName)
		if err != nil {
			name = []byte(p.UserName)
		}
		result.Participants = append(result.Participants, models.Participant{
			Name:      string(name),
			JoinTime:  p.JoinTime,
			LeaveTime: p.LeftTime,
		})
	}
	return status, result, nil
}

// meetingRequest converts a local date and clock range into epoch seconds.
func (c *Client) meetingRequest(hostID, date, start, end, topic string, isRecord bool) (*MeetingRequest, error) {
	creds, err := c.credentials(hostID)
	if err != nil {
		return nil, err
	}
	startAt, err := models.ParseClock(date, start, c.config.Location)
	if err != nil {
		return nil, fmt.Errorf("tencent: invalid start: %w", err)
	}
	endAt, err := models.ParseClock(date, end, c.config.Location)
	if err != nil {
		return nil, fmt.Errorf("tencent: invalid end: %w", err)
	}

	request := &MeetingRequest{
		UserID:        hostID,
		InstanceID:    instanceID,
		Subject:       topic,
		StartTime:     strconv.FormatInt(startAt.Unix(), 10),
		EndTime:       strconv.FormatInt(endAt.Unix(), 10),
		Settings:      Settings{MuteEnableJoin: true},
		EnableHostKey: creds.HostKey != "",
		HostKey:       creds.HostKey,
	}
	if isRecord {
		request.Settings.AutoRecordType = "cloud"
		request.Settings.ParticipantJoinAutoRecord = true
		request.Settings.EnableHostPauseAutoRecord = true
	}
	return request, nil
}

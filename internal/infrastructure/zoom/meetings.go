// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package zoom

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/akamensky/base58"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// MeetingTypeScheduled is the Zoom type of a one-off scheduled meeting
const MeetingTypeScheduled = 2

const (
	recordingCloud = "cloud"
	recordingNone  = "none"

	// participantsPageSize is the largest page the participants report allows
	participantsPageSize = 300
	// passcodeBytes of entropy encode to at most 9 base58 characters, within
	// Zoom's 10 character limit.
	passcodeBytes = 6
)

// MeetingSettings is the subset of Zoom meeting settings the service controls
type MeetingSettings struct {
	WaitingRoom    bool   `json:"waiting_room"`
	AutoRecording  string `json:"auto_recording"`
	JoinBeforeHost bool   `json:"join_before_host"`
	JBHTime        int    `json:"jbh_time,omitempty"`
}

// MeetingRequest is the body of create and update meeting calls
type MeetingRequest struct {
	Topic     string           `json:"topic"`
	Type      int              `json:"type,omitempty"`
	StartTime string           `json:"start_time"`
	Duration  int              `json:"duration"`
	Password  string           `json:"password,omitempty"`
	Settings  *MeetingSettings `json:"settings,omitempty"`
}

// CreateMeetingResponse is the part of the create answer the service keeps
type CreateMeetingResponse struct {
	ID       int64  `json:"id"`
	HostID   string `json:"host_id"`
	JoinURL  string `json:"join_url"`
	StartURL string `json:"start_url"`
}

type participantsResponse struct {
	TotalRecords int `json:"total_records"`
	Participants []struct {
		Name      string `json:"name"`
		JoinTime  string `json:"join_time"`
		LeaveTime string `json:"leave_time"`
	} `json:"participants"`
}

// Create schedules the meeting on the action's host account.
func (c *Client) Create(ctx context.Context, action domain.Action) (int, *domain.MeetingResult, error) {
	a, ok := action.(CreateAction)
	if !ok {
		return 0, nil, mismatch("CreateAction", action)
	}

	request, err := c.meetingRequest(a.Date, a.Start, a.End, a.Topic, a.IsRecord)
	if err != nil {
		return 0, nil, err
	}
	request.Type = MeetingTypeScheduled
	request.Settings.JoinBeforeHost = true
	request.Settings.JBHTime = 5
	if request.Password, err = newPasscode(); err != nil {
		return 0, nil, err
	}

	var created CreateMeetingResponse
	status, err := c.doRequest(ctx, http.MethodPost, "/users/"+url.PathEscape(a.HostID)+"/meetings", nil, request, &created)
	if err != nil {
		return status, nil, err
	}

	return status, &domain.MeetingResult{
		HostID:  created.HostID,
		MID:     strconv.FormatInt(created.ID, 10),
		JoinURL: created.JoinURL,
	}, nil
}

// Update reschedules the meeting. Zoom answers 204 without a body.
func (c *Client) Update(ctx context.Context, action domain.Action) (int, error) {
	a, ok := action.(UpdateAction)
	if !ok {
		return 0, mismatch("UpdateAction", action)
	}

	request, err := c.meetingRequest(a.Date, a.Start, a.End, a.Topic, a.IsRecord)
	if err != nil {
		return 0, err
	}
	return c.doRequest(ctx, http.MethodPatch, "/meetings/"+url.PathEscape(a.MID), nil, request, nil)
}

// Delete cancels the meeting.
func (c *Client) Delete(ctx context.Context, action domain.Action) (int, error) {
	a, ok := action.(DeleteAction)
	if !ok {
		return 0, mismatch("DeleteAction", action)
	}
	return c.doRequest(ctx, http.MethodDelete, "/meetings/"+url.PathEscape(a.MID), nil, nil, nil)
}

// GetParticipants returns the attendees of a finished meeting.
func (c *Client) GetParticipants(ctx context.Context, action domain.Action) (int, *models.Participants, error) {
	a, ok := action.(ParticipantsAction)
	if !ok {
		return 0, nil, mismatch("ParticipantsAction", action)
	}

	query := url.Values{"page_size": []string{strconv.Itoa(participantsPageSize)}}
	var report participantsResponse
	status, err := c.doRequest(ctx, http.MethodGet, "/past_meetings/"+url.PathEscape(a.MID)+"/participants", query, nil, &report)
	if err != nil {
		return status, nil, err
	}

	result := &models.Participants{Total: report.TotalRecords, Participants: make([]models.Participant, 0, len(report.Participants))}
	for _, p := range report.Participants {
		result.Participants = append(result.Participants, models.Participant{Name: p.Name, JoinTime: p.JoinTime, LeaveTime: p.LeaveTime})
	}
	return status, result, nil
}

// meetingRequest converts a local date and clock range into the UTC start
// and minute duration Zoom expects.
func (c *Client) meetingRequest(date, start, end, topic string, isRecord bool) (*MeetingRequest, error) {
	startAt, err := models.ParseClock(date, start, c.config.Location)
	if err != nil {
		return nil, fmt.Errorf("zoom: invalid start: %w", err)
	}
	endAt, err := models.ParseClock(date, end, c.config.Location)
	if err != nil {
		return nil, fmt.Errorf("zoom: invalid end: %w", err)
	}

	recording := recordingNone
	if isRecord {
		recording = recordingCloud
	}
	return &MeetingRequest{
		Topic:     topic,
		StartTime: startAt.UTC().Format(time.RFC3339),
		Duration:  int(endAt.Sub(startAt).Minutes()),
		Settings:  &MeetingSettings{AutoRecording: recording},
	}, nil
}

func newPasscode() (string, error) {
	buf := make([]byte, passcodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("zoom: generate passcode: %w", err)
	}
	return base58.Encode(buf), nil
}

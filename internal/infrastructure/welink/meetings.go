// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package welink

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

const (
	conferencesPath = "/v1/mmc/management/conferences"
	historyPath     = conferencesPath + "/history"
	attendeesPath   = historyPath + "/confAttendeeRecord"

	// historyMargin widens the history search around the scheduled window
	historyMargin = 7 * 24 * time.Hour
	historyLimit  = 500
)

// ConfConfigInfo holds the conference options the service controls
type ConfConfigInfo struct {
	IsAutoMute             bool `json:"isAutoMute"`
	IsHardTerminalAutoMute bool `json:"isHardTerminalAutoMute"`
	IsGuestFreePwd         bool `json:"isGuestFreePwd"`
	AllowGuestStartConf    bool `json:"allowGuestStartConf"`
	VMRIDType              int  `json:"vmrIDType"`
	ProlongLength          int  `json:"prolongLength"`
	EnableWaitingRoom      bool `json:"enableWaitingRoom"`
}

// ConferenceRequest is the body of create and update conference calls.
// Recording fields are pointers so an update can switch recording off.
type ConferenceRequest struct {
	StartTime      string          `json:"startTime"`
	Length         int             `json:"length"`
	Subject        string          `json:"subject"`
	MediaTypes     string          `json:"mediaTypes"`
	ConfConfigInfo *ConfConfigInfo `json:"confConfigInfo"`
	VMRFlag        int             `json:"vmrFlag,omitempty"`
	VMRID          string          `json:"vmrID,omitempty"`
	IsAutoRecord   *int            `json:"isAutoRecord,omitempty"`
	RecordType     *int            `json:"recordType,omitempty"`
}

// Conference is one entry of the create answer
type Conference struct {
	ConferenceID string `json:"conferenceID"`
	ChairJoinURI string `json:"chairJoinUri"`
	GuestJoinURI string `json:"guestJoinUri"`
}

type historyResponse struct {
	Count int `json:"count"`
	Data  []struct {
		ConferenceID string `json:"conferenceID"`
		ConfUUID     string `json:"confUUID"`
	} `json:"data"`
}

type attendeesResponse struct {
	Count int `json:"count"`
	Data  []struct {
		DisplayName string `json:"displayName"`
		JoinTime    int64  `json:"joinTime"`
		LeaveTime   int64  `json:"leaveTime"`
	} `json:"data"`
}

// Create books the conference in the host's virtual meeting room.
func (c *Client) Create(ctx context.Context, action domain.Action) (int, *domain.MeetingResult, error) {
	a, ok := action.(CreateAction)
	if !ok {
		return 0, nil, mismatch("CreateAction", action)
	}

	request, err := c.conferenceRequest(a.Date, a.Start, a.End, a.Topic)
	if err != nil {
		return 0, nil, err
	}
	request.VMRFlag = 1
	request.VMRID = a.HostID
	if a.IsRecord {
		request.IsAutoRecord, request.RecordType = intPtr(1), intPtr(2)
	}

	var created []Conference
	status, err := c.doRequest(ctx, a.HostID, http.MethodPost, conferencesPath, nil, request, &created)
	if err != nil {
		return status, nil, err
	}
	if len(created) == 0 || created[0].ConferenceID == "" {
		return status, nil, fmt.Errorf("welink: create answered without a conference")
	}

	return status, &domain.MeetingResult{
		HostID:  a.HostID,
		MID:     created[0].ConferenceID,
		JoinURL: created[0].GuestJoinURI,
	}, nil
}

// Update edits the conference in place.
func (c *Client) Update(ctx context.Context, action domain.Action) (int, error) {
	a, ok := action.(UpdateAction)
	if !ok {
		return 0, mismatch("UpdateAction", action)
	}

	request, err := c.conferenceRequest(a.Date, a.Start, a.End, a.Topic)
	if err != nil {
		return 0, err
	}
	if a.IsRecord {
		request.IsAutoRecord, request.RecordType = intPtr(1), intPtr(2)
	} else {
		request.IsAutoRecord, request.RecordType = intPtr(0), intPtr(0)
	}

	query := url.Values{"conferenceID": []string{a.MID}}
	return c.doRequest(ctx, a.HostID, http.MethodPut, conferencesPath, query, request, nil)
}

// Delete cancels the conference.
func (c *Client) Delete(ctx context.Context, action domain.Action) (int, error) {
	a, ok := action.(DeleteAction)
	if !ok {
		return 0, mismatch("DeleteAction", action)
	}

	query := url.Values{"conferenceID": []string{a.MID}, "type": []string{"1"}}
	return c.doRequest(ctx, a.HostID, http.MethodDelete, conferencesPath, query, nil, nil)
}

// GetParticipants collects attendees over every held instance of the
// conference found in the history around its schedule.
func (c *Client) GetParticipants(ctx context.Context, action domain.Action) (int, *models.Participants, error) {
	a, ok := action.(ParticipantsAction)
	if !ok {
		return 0, nil, mismatch("ParticipantsAction", action)
	}
	startAt, endAt, err := c.window(a.Date, a.Start, a.End)
	if err != nil {
		return 0, nil, err
	}

	token, status, err := c.proxyToken(ctx, a.HostID)
	if err != nil {
		return status, nil, err
	}

	query := url.Values{
		"startDate": []string{strconv.FormatInt(startAt.Add(-historyMargin).UnixMilli(), 10)},
		"endDate":   []string{strconv.FormatInt(endAt.Add(historyMargin).UnixMilli(), 10)},
		"limit":     []string{strconv.Itoa(historyLimit)},
	}
	var history historyResponse
	if status, err = c.send(ctx, token, http.MethodGet, historyPath, query, nil, &history); err != nil {
		return status, nil, err
	}

	result := &models.Participants{Participants: []models.Participant{}}
	for _, held := range history.Data {
		if held.ConferenceID != a.MID {
			continue
		}
		query := url.Values{"confUUID": []string{held.ConfUUID}, "limit": []string{strconv.Itoa(historyLimit)}}
		var attendees attendeesResponse
		if status, err = c.send(ctx, token, http.MethodGet, attendeesPath, query, nil, &attendees); err != nil {
			return status, nil, err
		}
		result.Total += attendees.Count
		for _, p := range attendees.Data {
			result.Participants = append(result.Participants, models.Participant{
				Name:      p.DisplayName,
				JoinTime:  epochMillis(p.JoinTime),
				LeaveTime: epochMillis(p.LeaveTime),
			})
		}
	}
	return status, result, nil
}

func (c *Client) conferenceRequest(date, start, end, topic string) (*ConferenceRequest, error) {
	startAt, endAt, err := c.window(date, start, end)
	if err != nil {
		return nil, err
	}
	return &ConferenceRequest{
		StartTime:  startAt.UTC().Format(wireLayout),
		Length:     int(endAt.Sub(startAt).Minutes()),
		Subject:    topic,
		MediaTypes: "HDVideo",
		ConfConfigInfo: &ConfConfigInfo{
			AllowGuestStartConf: true,
			VMRIDType:           1,
			ProlongLength:       15,
		},
	}, nil
}

func epochMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return strconv.FormatInt(ms, 10)
}

func intPtr(v int) *int { return &v }

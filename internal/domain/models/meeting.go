// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Supported platform identifiers.
const (
	PlatformTencent = "tencent"
	PlatformWelink  = "welink"
	PlatformZoom    = "zoom"
)

// Meeting is the key-value store representation of a meeting.
type Meeting struct {
	ID           string       `json:"id"`
	Sponsor      string       `json:"sponsor"`
	GroupName    string       `json:"group_name"`
	Community    string       `json:"community"`
	Topic        string       `json:"topic"`
	Platform     string       `json:"platform"`
	Date         string       `json:"date"`
	Start        string       `json:"start"`
	End          string       `json:"end"`
	Agenda       string       `json:"agenda,omitempty"`
	Etherpad     string       `json:"etherpad,omitempty"`
	EmailList    string       `json:"email_list,omitempty"`
	HostID       string       `json:"host_id"`
	MID          string       `json:"mid"`
	MMID         string       `json:"m_mid,omitempty"`
	JoinURL      string       `json:"join_url"`
	IsRecord     bool         `json:"is_record"`
	UploadStatus UploadStatus `json:"upload_status"`
	ReplayURL    string       `json:"replay_url,omitempty"`
	Sequence     int          `json:"sequence"`
	IsDelete     bool         `json:"is_delete"`
	CreatedAt    *time.Time   `json:"created_at,omitempty"`
	UpdatedAt    *time.Time   `json:"updated_at,omitempty"`
}

// StartTime returns the start of the meeting in loc.
func (m *Meeting) StartTime(loc *time.Location) (time.Time, error) {
	return ParseClock(m.Date, m.Start, loc)
}

// EndTime returns the end of the meeting in loc.
func (m *Meeting) EndTime(loc *time.Location) (time.Time, error) {
	return ParseClock(m.Date, m.End, loc)
}

// ICSUID returns the calendar UID shared by every invite of this meeting.
func (m *Meeting) ICSUID() string {
	return m.Platform + m.MID
}

// Recipients splits the email list on ASCII and full-width separators and
// returns the unique addresses in sorted order.
func (m *Meeting) Recipients() []string {
	replacer := strings.NewReplacer("；", ",", "，", ",", ";", ",")
	seen := make(map[string]struct{})
	var recipients []string
	for _, addr := range strings.Split(replacer.Replace(m.EmailList), ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		recipients = append(recipients, addr)
	}
	sort.Strings(recipients)
	return recipients
}

// AdvanceUploadStatus moves the upload status forward to next.
// Any transition that would not strictly move forward is rejected.
func (m *Meeting) AdvanceUploadStatus(next UploadStatus) error {
	if !next.Valid() {
		return fmt.Errorf("unknown upload status %d", next)
	}
	if next <= m.UploadStatus {
		return fmt.Errorf("cannot move upload status from %s to %s", m.UploadStatus, next)
	}
	m.UploadStatus = next
	return nil
}

// RecordingObjectKey returns the object storage key of the meeting recording:
// <community>/<group>/<month>/<mid>/<mid>.mp4 where month is the lowercase
// abbreviated month name of the meeting date.
func (m *Meeting) RecordingObjectKey() string {
	month := m.Date
	if d, err := time.Parse("2006-01-02", m.Date); err == nil {
		month = strings.ToLower(d.Format("Jan"))
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s.mp4", m.Community, m.GroupName, month, m.MID, m.MID)
}

// RecordingObjectDir returns the key prefix shared by the recording and its cover.
func (m *Meeting) RecordingObjectDir() string {
	key := m.RecordingObjectKey()
	return key[:strings.LastIndex(key, "/")+1]
}

// CoverObjectKey returns the object storage key of the recording cover.
func (m *Meeting) CoverObjectKey() string {
	return strings.TrimSuffix(m.RecordingObjectKey(), ".mp4") + ".png"
}

// ReplayID returns the replay host video id carried by the replay URL.
func (m *Meeting) ReplayID() string {
	if m.ReplayURL == "" {
		return ""
	}
	return m.ReplayURL[strings.LastIndex(m.ReplayURL, "/")+1:]
}

// ParseClock combines a YYYY-MM-DD date and an HH:MM clock in loc.
func ParseClock(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
}

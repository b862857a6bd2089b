// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// CreateMeetingRequest carries the caller supplied fields of a new meeting.
type CreateMeetingRequest struct {
	Sponsor   string `json:"sponsor"`
	GroupName string `json:"group_name"`
	Community string `json:"community"`
	Topic     string `json:"topic"`
	Platform  string `json:"platform"`
	Date      string `json:"date"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Agenda    string `json:"agenda,omitempty"`
	Etherpad  string `json:"etherpad,omitempty"`
	EmailList string `json:"email_list,omitempty"`
	IsRecord  bool   `json:"is_record"`
}

// UpdateMeetingRequest carries the mutable fields of an existing meeting.
// Community and platform are checked against the stored meeting and cannot change.
type UpdateMeetingRequest struct {
	ID        string `json:"id"`
	Community string `json:"community"`
	Platform  string `json:"platform"`
	Sponsor   string `json:"sponsor"`
	GroupName string `json:"group_name"`
	Topic     string `json:"topic"`
	Date      string `json:"date"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Agenda    string `json:"agenda,omitempty"`
	Etherpad  string `json:"etherpad,omitempty"`
	EmailList string `json:"email_list,omitempty"`
	IsRecord  bool   `json:"is_record"`
}

// Sort fields accepted by ListMeetingsFilter.
const (
	OrderByDate       = "date"
	OrderByCreateTime = "create_time"
	OrderByUpdateTime = "update_time"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListMeetingsFilter narrows and orders a meeting listing.
type ListMeetingsFilter struct {
	Community string `json:"community,omitempty"`
	MID       string `json:"mid,omitempty"`
	ID        string `json:"id,omitempty"`
	OrderBy   string `json:"order_by,omitempty"`
	OrderType string `json:"order_type,omitempty"`
}

// OverlapQuery selects the bookings that may collide with a window.
// Start and End are HH:MM on Date and already include any buffer.
type OverlapQuery struct {
	Community string
	Platform  string
	Date      string
	Start     string
	End       string
	ExcludeID string
}

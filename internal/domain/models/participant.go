// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// Participant is one attendee of a finished meeting as reported by the vendor.
type Participant struct {
	Name      string `json:"name"`
	JoinTime  string `json:"join_time,omitempty"`
	LeaveTime string `json:"leave_time,omitempty"`
}

// Participants is the normalized get-participants result.
type Participants struct {
	Total        int           `json:"total_records"`
	Participants []Participant `json:"participants"`
}

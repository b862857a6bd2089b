// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import "time"

// Operating window defaults
const (
	// DefaultOpeningTime is the earliest start time a meeting can be booked at
	DefaultOpeningTime = "08:00"

	// DefaultClosingTime is the latest end time a meeting can be booked at
	DefaultClosingTime = "22:00"

	// DefaultQuantum is the granularity of start and end times
	DefaultQuantum = 15 * time.Minute

	// DefaultMaxAdvanceDays is how far ahead a meeting can be booked
	DefaultMaxAdvanceDays = 60

	// DefaultLeadTime is how long before start a meeting stops accepting updates and deletes
	DefaultLeadTime = 60 * time.Minute

	// DefaultTimezone is the timezone date, start and end are expressed in
	DefaultTimezone = "Asia/Shanghai"

	// HostBuffer is added on both sides of a booking when checking host conflicts
	HostBuffer = 30 * time.Minute

	// DateLayout and ClockLayout are the wire formats of date, start and end
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Field limits
const (
	MaxTopicLength     = 128
	MaxAgendaLength    = 4096
	MaxEmailListLength = 1020
	MaxEmailLength     = 50
	MaxSponsorLength   = 64
	MaxGroupNameLength = 64
)

// Recording discovery defaults
const (
	// RecordingStartTolerance is how far a recording start may drift from the scheduled start
	RecordingStartTolerance = 30 * time.Minute

	// DefaultMinRecordingSize discards short or aborted recordings
	DefaultMinRecordingSize int64 = 50 * 1024 * 1024

	// RecordingLookback is how far back recordings are listed
	RecordingLookback = 7 * 24 * time.Hour
)

// Notification retry policy
const (
	RetryAttempts = 3
	RetryDelay    = 2 * time.Second
)

// Status codes returned to callers
const (
	statusFacilityMeeting = 1 << 16

	StatusSuccess                  = 0
	StatusParameterError           = 1
	StatusInternalError            = 2
	StatusInformationChangeError   = -9
	StatusStartLtEnd               = -10
	StatusStartGtNow               = -11
	StatusStartLtLimit             = -12
	StatusMeetingFailedCreate      = statusFacilityMeeting + 4
	StatusMeetingDateConflict      = statusFacilityMeeting + 6
	StatusMeetingCannotBeDelete    = statusFacilityMeeting + 7
	StatusMeetingNotExist          = statusFacilityMeeting + 11
	StatusMeetingFailedUpdate      = statusFacilityMeeting + 12
	StatusMeetingFailedDelete      = statusFacilityMeeting + 13
	StatusMeetingFailedParticipant = statusFacilityMeeting + 14
)

// StatusText returns the symbolic name of a status code.
func StatusText(code int) string {
	switch code {
	case StatusSuccess:
		return "STATUS_SUCCESS"
	case StatusParameterError:
		return "STATUS_PARAMETER_ERROR"
	case StatusInformationChangeError:
		return "INFORMATION_CHANGE_ERROR"
	case StatusStartLtEnd:
		return "STATUS_START_LT_END"
	case StatusStartGtNow:
		return "STATUS_START_GT_NOW"
	case StatusStartLtLimit:
		return "STATUS_START_LT_LIMIT"
	case StatusMeetingFailedCreate:
		return "STATUS_MEETING_FAILED_CREATE"
	case StatusMeetingDateConflict:
		return "STATUS_MEETING_DATE_CONFLICT"
	case StatusMeetingCannotBeDelete:
		return "STATUS_MEETING_CANNOT_BE_DELETE"
	case StatusMeetingNotExist:
		return "STATUS_MEETING_NOT_EXIST"
	case StatusMeetingFailedUpdate:
		return "STATUS_MEETING_FAILED_UPDATE"
	case StatusMeetingFailedDelete:
		return "STATUS_MEETING_FAILED_DELETE"
	case StatusMeetingFailedParticipant:
		return "STATUS_MEETING_FAILED_PARTICIPANTS"
	default:
		return "STATUS_INTERNAL_ERROR"
	}
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"fmt"
	"strings"
	"time"
)

// ICS constants for consistent values across all generated ICS files
const (
	ICALVersion       = "2.0"
	ICALScale         = "GREGORIAN"
	ICALMaxLineLength = 75
	ICSTimeLayout     = "20060102T150405Z"
	ICSAlarmTrigger   = "-PT15M"
)

// iCalendar methods.
const (
	MethodRequest = "REQUEST"
	MethodCancel  = "CANCEL"
)

// UTF-8 byte masks for line folding safety
const (
	UTF8TwoBitMask         = 0xC0 // Mask to isolate first two bits (11000000)
	UTF8ContinuationPrefix = 0x80 // UTF-8 continuation byte prefix (10000000)
)

// ICSParams describes the single event of a meeting calendar invite.
type ICSParams struct {
	Method    string
	UID       string
	Community string
	Summary   string
	Organizer string
	Attendees []string
	Start     time.Time
	End       time.Time
	Sequence  int
}

// GenerateICS renders the calendar of params. Requests carry a display alarm
// 15 minutes before the start; cancellations mark the event cancelled.
// Every invite of one meeting shares its UID so clients replace earlier copies.
func GenerateICS(params ICSParams) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	start := params.Start.UTC().Format(ICSTimeLayout)
	add("BEGIN:VCALENDAR")
	add("PRODID:-//%s conference calendar", params.Community)
	add("VERSION:%s", ICALVersion)
	add("CALSCALE:%s", ICALScale)
	add("METHOD:%s", params.Method)
	add("BEGIN:VEVENT")
	add("UID:%s", params.UID)
	add("SEQUENCE:%d", params.Sequence)
	add("DTSTAMP:%s", start)
	add("DTSTART:%s", start)
	add("DTEND:%s", params.End.UTC().Format(ICSTimeLayout))
	add("SUMMARY:%s", escapeICSText(params.Summary))
	if params.Organizer != "" {
		add("ORGANIZER:mailto:%s", params.Organizer)
	}
	for _, attendee := range params.Attendees {
		add("ATTENDEE;ROLE=REQ-PARTICIPANT;RSVP=TRUE:mailto:%s", attendee)
	}
	if params.Method == MethodCancel {
		add("STATUS:CANCELLED")
	} else {
		add("STATUS:CONFIRMED")
		add("BEGIN:VALARM")
		add("ACTION:DISPLAY")
		add("DESCRIPTION:Reminder")
		add("TRIGGER;RELATED=START:%s", ICSAlarmTrigger)
		add("END:VALARM")
	}
	add("END:VEVENT")
	add("END:VCALENDAR")

	var ics strings.Builder
	for _, line := range lines {
		ics.WriteString(foldICSLine(line, ICALMaxLineLength))
		ics.WriteString("\r\n")
	}
	return ics.String()
}

// escapeICSText escapes special characters in ICS text fields
func escapeICSText(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", "\\n")
	text = strings.ReplaceAll(text, ",", "\\,")
	text = strings.ReplaceAll(text, ";", "\\;")
	return text
}

// foldICSLine folds long lines according to RFC5545 (75 octets max)
func foldICSLine(line string, maxLength int) string {
	if len(line) <= maxLength {
		return line
	}

	var folded strings.Builder
	remaining := line
	first := true

	for len(remaining) > 0 {
		cutLength := maxLength
		if !first {
			cutLength = maxLength - 1 // Account for leading space on continued lines
		}

		if len(remaining) <= cutLength {
			if !first {
				folded.WriteString("\r\n ")
			}
			folded.WriteString(remaining)
			break
		}

		// Never split a UTF-8 sequence
		breakPoint := cutLength
		for breakPoint > 0 && remaining[breakPoint]&UTF8TwoBitMask == UTF8ContinuationPrefix {
			breakPoint--
		}

		if !first {
			folded.WriteString("\r\n ")
		}
		folded.WriteString(remaining[:breakPoint])
		remaining = remaining[breakPoint:]
		first = false
	}

	return folded.String()
}

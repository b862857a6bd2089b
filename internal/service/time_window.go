// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

// ValidateSchedule checks a date, start and end against the operating window
// as of now.
func (w OperatingWindow) ValidateSchedule(date, start, end string, now time.Time) error {
	day, err := time.ParseInLocation(constants.DateLayout, date, w.Location)
	if err != nil {
		return domain.NewValidationError(fmt.Sprintf("invalid date %q", date), err)
	}
	for _, clock := range []string{start, end} {
		if err := w.validateClock(clock); err != nil {
			return err
		}
	}

	startAt, _ := models.ParseClock(date, start, w.Location)
	endAt, _ := models.ParseClock(date, end, w.Location)
	if !startAt.Before(endAt) {
		return domain.NewValidationError("start must be before end").WithCode(constants.StatusStartLtEnd)
	}
	if !startAt.After(now) {
		return domain.NewValidationError("start must be in the future").WithCode(constants.StatusStartGtNow)
	}

	y, m, d := now.In(w.Location).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, w.Location)
	if day.After(today.AddDate(0, 0, w.MaxAdvanceDays)) {
		return domain.NewValidationError(
			fmt.Sprintf("date can be at most %d days ahead", w.MaxAdvanceDays),
		).WithCode(constants.StatusStartLtLimit)
	}
	return nil
}

func (w OperatingWindow) validateClock(clock string) error {
	t, err := time.Parse(constants.ClockLayout, clock)
	if err != nil || t.Format(constants.ClockLayout) != clock {
		return domain.NewValidationError(fmt.Sprintf("invalid time %q", clock))
	}
	if w.Quantum > 0 && time.Duration(t.Minute())*time.Minute%w.Quantum != 0 {
		return domain.NewValidationError(fmt.Sprintf("time %q is not a multiple of %s", clock, w.Quantum))
	}
	if clock < w.Opening || clock > w.Closing {
		return domain.NewValidationError(fmt.Sprintf("time %q is outside %s-%s", clock, w.Opening, w.Closing))
	}
	return nil
}

// CheckLeadTime rejects modifications of a meeting that starts within the lead time.
func (w OperatingWindow) CheckLeadTime(date, start string, now time.Time) error {
	startAt, err := models.ParseClock(date, start, w.Location)
	if err != nil {
		return domain.NewValidationError("invalid meeting start", err)
	}
	if now.After(startAt.Add(-w.LeadTime)) {
		return domain.NewConflictError(
			fmt.Sprintf("meeting can no longer be modified within %s of its start", w.LeadTime),
		).WithCode(constants.StatusMeetingCannotBeDelete)
	}
	return nil
}

// bufferedWindow widens [start, end] by the host buffer on both sides, clamped
// to the day.
func bufferedWindow(start, end string) (string, string, error) {
	s, err := time.Parse(constants.ClockLayout, start)
	if err != nil {
		return "", "", domain.NewValidationError(fmt.Sprintf("invalid time %q", start), err)
	}
	e, err := time.Parse(constants.ClockLayout, end)
	if err != nil {
		return "", "", domain.NewValidationError(fmt.Sprintf("invalid time %q", end), err)
	}

	from := s.Add(-constants.HostBuffer)
	if from.Day() != s.Day() {
		from = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	}
	to := e.Add(constants.HostBuffer)
	if to.Day() != e.Day() {
		to = time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 0, 0, time.UTC)
	}
	return from.Format(constants.ClockLayout), to.Format(constants.ClockLayout), nil
}

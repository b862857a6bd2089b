// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package platform

import (
	"time"
)

// RecordingCandidate is one downloadable recording file listed by a vendor.
type RecordingCandidate struct {
	ID    string
	Start time.Time
	Size  int64
	URL   string
}

// RecordingCriteria filters recording candidates for one meeting.
type RecordingCriteria struct {
	// Start is the scheduled start. The zero value disables the start check.
	Start     time.Time
	Tolerance time.Duration
	MinSize   int64
}

func (c RecordingCriteria) matches(candidate RecordingCandidate) bool {
	if candidate.Size < c.MinSize {
		return false
	}
	if c.Start.IsZero() {
		return true
	}
	drift := candidate.Start.Sub(c.Start)
	if drift < 0 {
		drift = -drift
	}
	return drift <= c.Tolerance
}

// SelectRecording returns the largest candidate meeting the criteria.
func SelectRecording(candidates []RecordingCandidate, criteria RecordingCriteria) (RecordingCandidate, bool) {
	var (
		best  RecordingCandidate
		found bool
	)
	for _, candidate := range candidates {
		if !criteria.matches(candidate) {
			continue
		}
		if !found || candidate.Size > best.Size {
			best, found = candidate, true
		}
	}
	return best, found
}

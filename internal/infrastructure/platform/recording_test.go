// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelectRecording(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	candidates := []RecordingCandidate{
		{ID: "early", Start: start.Add(-45 * time.Minute), Size: 900},
		{ID: "small", Start: start, Size: 10},
		{ID: "ok", Start: start.Add(5 * time.Minute), Size: 400},
		{ID: "largest", Start: start.Add(-20 * time.Minute), Size: 600},
		{ID: "late", Start: start.Add(31 * time.Minute), Size: 1000},
	}

	tests := []struct {
		name     string
		criteria RecordingCriteria
		wantID   string
		wantOK   bool
	}{
		{
			name:     "largest within tolerance",
			criteria: RecordingCriteria{Start: start, Tolerance: 30 * time.Minute, MinSize: 100},
			wantID:   "largest", wantOK: true,
		},
		{
			name:     "no start check",
			criteria: RecordingCriteria{MinSize: 100},
			wantID:   "late", wantOK: true,
		},
		{
			name:     "nothing large enough",
			criteria: RecordingCriteria{Start: start, Tolerance: 30 * time.Minute, MinSize: 5000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectRecording(candidates, tt.criteria)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package video reads technical metadata of downloaded recordings.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
)

// DefaultInspectTimeout bounds one metadata read.
const DefaultInspectTimeout = time.Minute

type inspectResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Inspector reads video metadata with ffmpeg.
type Inspector struct {
	timeout time.Duration
	run     func(path string, timeout time.Duration) (string, error)
}

var _ domain.VideoInspector = (*Inspector)(nil)

// NewInspector creates a inspector whose runs are bounded by timeout.
func NewInspector(timeout time.Duration) *Inspector {
	if timeout <= 0 {
		timeout = DefaultInspectTimeout
	}
	return &Inspector{
		timeout: timeout,
		run: func(path string, timeout time.Duration) (string, error) {
			return ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{})
		},
	}
}

// Duration returns the container duration of the video at path.
func (p *Inspector) Duration(ctx context.Context, path string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}

	output, err := p.run(path, timeout)
	if err != nil {
		return 0, fmt.Errorf("inspect %s: %w", path, err)
	}

	var result inspectResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		return 0, fmt.Errorf("decode metadata of %s: %w", path, err)
	}
	seconds, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("metadata of %s has no duration %q", path, result.Format.Duration)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

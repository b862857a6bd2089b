// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package zoom

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/platform"
)

const recordingsPageSize = 50

type recordingFile struct {
	ID            string `json:"id"`
	FileExtension string `json:"file_extension"`
	FileSize      int64  `json:"file_size"`
	DownloadURL   string `json:"download_url"`
}

type recordedMeeting struct {
	ID             int64           `json:"id"`
	TotalSize      int64           `json:"total_size"`
	RecordingFiles []recordingFile `json:"recording_files"`
}

type recordingsResponse struct {
	Meetings []recordedMeeting `json:"meetings"`
}

// GetVideo finds the largest MP4 of the largest recording set of the meeting
// and downloads it. An empty path means no qualifying recording exists yet.
func (c *Client) GetVideo(ctx context.Context, action domain.Action) (string, error) {
	a, ok := action.(VideoAction)
	if !ok {
		return "", mismatch("VideoAction", action)
	}
	mid, err := strconv.ParseInt(a.MID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("zoom: invalid meeting id %q: %w", a.MID, err)
	}

	query := url.Values{
		"from":      []string{c.now().Add(-c.config.RecordingLookback).In(c.config.Location).Format("2006-01-02")},
		"page_size": []string{strconv.Itoa(recordingsPageSize)},
	}
	var listing recordingsResponse
	if _, err := c.doRequest(ctx, http.MethodGet, "/users/"+url.PathEscape(a.HostID)+"/recordings", query, nil, &listing); err != nil {
		return "", err
	}

	var recorded *recordedMeeting
	for i := range listing.Meetings {
		m := &listing.Meetings[i]
		if m.ID == mid && (recorded == nil || m.TotalSize > recorded.TotalSize) {
			recorded = m
		}
	}
	if recorded == nil {
		slog.InfoContext(ctx, "no zoom recordings yet", "mid", a.MID)
		return "", nil
	}

	var candidates []platform.RecordingCandidate
	for _, f := range recorded.RecordingFiles {
		if strings.EqualFold(f.FileExtension, "mp4") {
			candidates = append(candidates, platform.RecordingCandidate{ID: f.ID, Size: f.FileSize, URL: f.DownloadURL})
		}
	}
	best, ok := platform.SelectRecording(candidates, platform.RecordingCriteria{MinSize: c.config.MinRecordingSize})
	if !ok {
		slog.InfoContext(ctx, "zoom recording too small or missing", "mid", a.MID, "files", len(recorded.RecordingFiles))
		return "", nil
	}

	token, err := c.tokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("zoom: fetch download token: %w", err)
	}
	header := http.Header{"Authorization": []string{token.Type() + " " + token.AccessToken}}

	slog.InfoContext(ctx, "downloading zoom recording", "mid", a.MID, "size", best.Size)
	return c.downloader.Download(ctx, best.URL, header, a.Community, a.MID)
}

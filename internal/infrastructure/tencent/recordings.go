// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package tencent

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/platform"
)

const (
	recordsPageSize = 20
	// maxRecordPages bounds the listing when the vendor keeps answering pages
	maxRecordPages = 100
	// recordStateReady marks a recording that finished transcoding
	recordStateReady = 3
)

type recordMeeting struct {
	MeetingID      string `json:"meeting_id"`
	UserID         string `json:"userid"`
	State          int    `json:"state"`
	MediaStartTime int64  `json:"media_start_time"`
	RecordFiles    []struct {
		RecordFileID string `json:"record_file_id"`
		RecordSize   int64  `json:"record_size"`
	} `json:"record_files"`
}

type recordsResponse struct {
	RecordMeetings []recordMeeting `json:"record_meetings"`
}

type addressResponse struct {
	DownloadAddress string `json:"download_address"`
}

// GetVideo lists the corporate recordings of the lookback window, keeps the
// finished recordings of the meeting whose start lies within the tolerance
// and downloads the largest one.
func (c *Client) GetVideo(ctx context.Context, action domain.Action) (string, error) {
	a, ok := action.(VideoAction)
	if !ok {
		return "", mismatch("VideoAction", action)
	}
	start, err := models.ParseClock(a.Date, a.Start, c.config.Location)
	if err != nil {
		return "", fmt.Errorf("tencent: invalid start: %w", err)
	}

	records, err := c.listRecords(ctx, a.HostID)
	if err != nil {
		return "", err
	}

	owners := make(map[string]string)
	var candidates []platform.RecordingCandidate
	for _, record := range records {
		if record.MeetingID != a.MMID || record.State != recordStateReady || len(record.RecordFiles) == 0 {
			continue
		}
		file := record.RecordFiles[0]
		owners[file.RecordFileID] = record.UserID
		candidates = append(candidates, platform.RecordingCandidate{
			ID:    file.RecordFileID,
			Start: time.UnixMilli(record.MediaStartTime),
			Size:  file.RecordSize,
		})
	}

	best, ok := platform.SelectRecording(candidates, platform.RecordingCriteria{
		Start:     start,
		Tolerance: c.config.StartTolerance,
		MinSize:   c.config.MinRecordingSize,
	})
	if !ok {
		slog.InfoContext(ctx, "no qualifying tencent recording", "mid", a.MID, "candidates", len(candidates))
		return "", nil
	}

	uri := "/v1/addresses/" + url.PathEscape(best.ID) + "?userid=" + url.QueryEscape(owners[best.ID])
	var address addressResponse
	if _, err := c.doRequest(ctx, a.HostID, http.MethodGet, uri, nil, &address); err != nil {
		return "", err
	}
	if address.DownloadAddress == "" {
		slog.WarnContext(ctx, "tencent returned an empty download address", "mid", a.MID)
		return "", nil
	}

	slog.InfoContext(ctx, "downloading tencent recording", "mid", a.MID, "size", best.Size)
	return c.downloader.Download(ctx, address.DownloadAddress, nil, a.Community, a.MID)
}

func (c *Client) listRecords(ctx context.Context, hostID string) ([]recordMeeting, error) {
	end := c.now()
	begin := end.Add(-c.config.RecordingLookback)

	var records []recordMeeting
	for page := 1; page <= maxRecordPages; page++ {
		uri := fmt.Sprintf("/v1/corp/records?start_time=%d&end_time=%d&page_size=%d&page=%d",
			begin.Unix(), end.Unix(), recordsPageSize, page)
		var listing recordsResponse
		if _, err := c.doRequest(ctx, hostID, http.MethodGet, uri, nil, &listing); err != nil {
			return nil, err
		}
		if len(listing.RecordMeetings) == 0 {
			break
		}
		records = append(records, listing.RecordMeetings...)
	}
	return records, nil
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package welink

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
)

const (
	recordFilesPath  = "/v1/mmc/management/record/files"
	downloadURLsPath = "/v1/mmc/management/record/downloadurls"

	recordFilesLimit = 100
)

type recordFile struct {
	ConfID    string `json:"confID"`
	ConfUUID  string `json:"confUUID"`
	StartTime string `json:"startTime"`
	// RcdTime is the recorded length in seconds
	RcdTime int64 `json:"rcdTime"`
}

type recordFilesResponse struct {
	Count int          `json:"count"`
	Data  []recordFile `json:"data"`
}

type downloadURLsResponse struct {
	RecordURLs []struct {
		URLs []struct {
			FileType string `json:"fileType"`
			URL      string `json:"url"`
			Token    string `json:"token"`
		} `json:"urls"`
	} `json:"recordUrls"`
}

// GetVideo downloads the latest recording overlapping the scheduled window.
// WeLink reports no file sizes, so the last usable stream wins. An empty path
// means no recording exists yet.
func (c *Client) GetVideo(ctx context.Context, action domain.Action) (string, error) {
	a, ok := action.(VideoAction)
	if !ok {
		return "", mismatch("VideoAction", action)
	}
	startAt, endAt, err := c.window(a.Date, a.Start, a.End)
	if err != nil {
		return "", err
	}

	token, _, err := c.proxyToken(ctx, a.HostID)
	if err != nil {
		return "", err
	}

	now := c.now()
	query := url.Values{
		"startDate": []string{strconv.FormatInt(now.Add(-c.config.RecordingLookback).UnixMilli(), 10)},
		"endDate":   []string{strconv.FormatInt(now.UnixMilli(), 10)},
		"limit":     []string{strconv.Itoa(recordFilesLimit)},
	}
	var files recordFilesResponse
	if _, err := c.send(ctx, token, http.MethodGet, recordFilesPath, query, nil, &files); err != nil {
		return "", err
	}

	type held struct {
		uuid  string
		start time.Time
	}
	var matches []held
	for _, f := range files.Data {
		if f.ConfID != a.MID {
			continue
		}
		recStart, err := time.ParseInLocation(wireLayout, f.StartTime, time.UTC)
		if err != nil {
			slog.WarnContext(ctx, "skipping welink recording with bad start", "mid", a.MID, "start", f.StartTime)
			continue
		}
		recEnd := recStart.Add(time.Duration(f.RcdTime) * time.Second)
		if recStart.Before(endAt) && recEnd.After(startAt) {
			matches = append(matches, held{uuid: f.ConfUUID, start: recStart})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].start.Before(matches[j].start) })

	var target, auth string
	for _, m := range matches {
		var urls downloadURLsResponse
		q := url.Values{"confUUID": []string{m.uuid}}
		if _, err := c.send(ctx, token, http.MethodGet, downloadURLsPath, q, nil, &urls); err != nil {
			return "", err
		}
		if len(urls.RecordURLs) == 0 {
			continue
		}
		for _, u := range urls.RecordURLs[0].URLs {
			if u.FileType == "hd" || u.FileType == "aux" {
				target, auth = u.URL, u.Token
			}
		}
	}
	if target == "" {
		slog.InfoContext(ctx, "no welink recordings yet", "mid", a.MID, "files", files.Count)
		return "", nil
	}

	slog.InfoContext(ctx, "downloading welink recording", "mid", a.MID)
	return c.downloader.Download(ctx, target, http.Header{"Authorization": []string{auth}}, a.Community, a.MID)
}

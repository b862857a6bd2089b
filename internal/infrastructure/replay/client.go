// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package replay publishes recordings to the public video host.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/platform"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
)

const (
	hostName   = "replay"
	videosPath = "/videos"
	// maxPages stops listing a misbehaving host that never returns an empty page.
	maxPages = 1000
	// uploadTimeout bounds a whole video upload.
	uploadTimeout = 2 * time.Hour
)

// Config holds the replay host account.
type Config struct {
	APIURL string
	Token  string
	// URLPrefix is prepended to a video id to form its public replay URL.
	URLPrefix string
	// Category is the host category recordings are filed under.
	Category int
}

// Client is the replay host API client.
type Client struct {
	httpClient *http.Client
	config     Config
}

var _ domain.ReplayHost = (*Client)(nil)

// NewClient creates a replay host client.
func NewClient(config Config) *Client {
	return &Client{
		httpClient: platform.NewHTTPClient(uploadTimeout),
		config:     config,
	}
}

type uploadResponse struct {
	ID string `json:"id"`
}

type video struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type listResponse struct {
	Videos []video `json:"videos"`
}

const stateProcessed = "processed"

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := strings.TrimRight(c.config.APIURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	return req, nil
}

// Upload submits the video with its cover and returns the host video id.
// The multipart body is streamed so recordings are never held in memory.
func (c *Client) Upload(ctx context.Context, upload domain.ReplayUpload) (string, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(c.writeUpload(writer, upload))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, videosPath, nil, pr)
	if err != nil {
		_ = pr.Close()
		return "", domain.NewInternalError("failed to build replay upload request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		_ = pr.Close()
		return "", domain.NewUnavailableError("replay upload failed", err)
	}
	body, err := platform.ReadResponse(hostName, resp)
	if err != nil {
		return "", err
	}

	var result uploadResponse
	if err := json.Unmarshal(body, &result); err != nil || result.ID == "" {
		slog.ErrorContext(ctx, "unexpected replay upload result", "body", string(body))
		return "", domain.NewInternalError("replay upload returned no video id", err)
	}
	slog.InfoContext(ctx, "video uploaded to replay host", "replay_id", result.ID)
	return result.ID, nil
}

func (c *Client) writeUpload(writer *multipart.Writer, upload domain.ReplayUpload) error {
	fields := [][2]string{
		{"title", upload.Title},
		{"description", upload.Description},
		{"tags", strings.Join(upload.Tags, ", ")},
		{"category", strconv.Itoa(c.config.Category)},
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return err
		}
	}
	if err := writeFile(writer, "video", upload.VideoPath); err != nil {
		return err
	}
	if upload.CoverPath != "" {
		if err := writeFile(writer, "cover", upload.CoverPath); err != nil {
			return err
		}
	}
	return writer.Close()
}

func writeFile(writer *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

// ListProcessedVideos pages through the account's videos and returns the ids
// the host finished processing.
func (c *Client) ListProcessedVideos(ctx context.Context) ([]string, error) {
	var ids []string
	seen := make(map[string]struct{})
	for page := 1; page <= maxPages; page++ {
		req, err := c.newRequest(ctx, http.MethodGet, videosPath, url.Values{"page": {strconv.Itoa(page)}}, nil)
		if err != nil {
			return nil, domain.NewInternalError("failed to build replay list request", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, domain.NewUnavailableError("replay list failed", err)
		}
		body, err := platform.ReadResponse(hostName, resp)
		if err != nil {
			slog.ErrorContext(ctx, "failed to list replay videos", logging.ErrKey, err, "page", page)
			return nil, err
		}

		var result listResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, domain.NewInternalError(fmt.Sprintf("failed to decode replay list page %d", page), err)
		}
		if len(result.Videos) == 0 {
			return ids, nil
		}
		for _, v := range result.Videos {
			if v.ID == "" || v.State != stateProcessed {
				continue
			}
			if _, ok := seen[v.ID]; ok {
				continue
			}
			seen[v.ID] = struct{}{}
			ids = append(ids, v.ID)
		}
	}
	return ids, nil
}

// ReplayURL returns the public URL of video id.
func (c *Client) ReplayURL(id string) string {
	return c.config.URLPrefix + id
}

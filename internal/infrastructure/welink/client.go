// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package welink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/platform"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

// BaseURL is the base URL of the WeLink meeting API
const BaseURL = "https://api.meeting.huaweicloud.com"

// wireLayout is the UTC layout WeLink uses for conference times
const wireLayout = "2006-01-02 15:04"

// HostAccount is the workplace account owning one virtual meeting room.
type HostAccount struct {
	Account  string
	Password string
}

// Config holds the WeLink configuration of one community
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Hosts maps a virtual meeting room id of the pool to its account
	Hosts             map[string]HostAccount
	Location          *time.Location
	RecordingLookback time.Duration
}

// Client authenticates with a proxy token per operation. It never retries.
type Client struct {
	httpClient *http.Client
	config     Config
	downloader *platform.Downloader
	now        func() time.Time
}

var _ domain.VendorClient = (*Client)(nil)

// NewClient creates a WeLink client
func NewClient(config Config, downloader *platform.Downloader) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.RecordingLookback == 0 {
		config.RecordingLookback = constants.RecordingLookback
	}
	if downloader == nil {
		downloader = platform.NewDownloader(nil, "", 0)
	}
	return &Client{
		httpClient: platform.NewHTTPClient(config.Timeout),
		config:     config,
		downloader: downloader,
		now:        time.Now,
	}
}

// Platform returns the platform identifier
func (c *Client) Platform() string {
	return models.PlatformWelink
}

type proxyTokenRequest struct {
	AuthServerType string `json:"authServerType"`
	AuthType       string `json:"authType"`
	ClientType     int    `json:"clientType"`
	Account        string `json:"account"`
	Password       string `json:"pwd"`
}

// proxyToken exchanges the host account for a session token.
func (c *Client) proxyToken(ctx context.Context, hostID string) (string, int, error) {
	account, ok := c.config.Hosts[hostID]
	if !ok {
		return "", 0, fmt.Errorf("welink: no account for host %q", hostID)
	}

	request := proxyTokenRequest{
		AuthServerType: "workplace",
		AuthType:       "AccountAndPwd",
		ClientType:     72,
		Account:        account.Account,
		Password:       account.Password,
	}
	var token struct {
		AccessToken string `json:"accessToken"`
	}
	status, err := c.send(ctx, "", http.MethodPost, "/v1/usg/acs/auth/proxy", nil, request, &token)
	if err != nil {
		return "", status, err
	}
	if token.AccessToken == "" {
		return "", status, fmt.Errorf("welink: empty proxy token")
	}
	return token.AccessToken, status, nil
}

// doRequest obtains a proxy token for hostID and sends one request with it.
func (c *Client) doRequest(ctx context.Context, hostID, method, path string, query url.Values, body, out any) (int, error) {
	token, status, err := c.proxyToken(ctx, hostID)
	if err != nil {
		return status, err
	}
	return c.send(ctx, token, method, path, query, body, out)
}

// send performs one request and decodes a 2xx JSON answer into out. It
// returns the HTTP status, or 0 when no answer was received.
func (c *Client) send(ctx context.Context, token, method, path string, query url.Values, body, out any) (int, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	if token != "" {
		req.Header.Set("X-Access-Token", token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "WeLink request failed", "method", method, "path", path, logging.ErrKey, err)
		return 0, fmt.Errorf("welink request %s %s: %w", method, path, err)
	}

	status := resp.StatusCode
	data, err := platform.ReadResponse(models.PlatformWelink, resp)
	if err != nil {
		slog.ErrorContext(ctx, "WeLink error response",
			"method", method,
			"path", path,
			"status", status,
			"body", string(data),
			logging.ErrKey, err)
		return status, err
	}
	slog.DebugContext(ctx, "WeLink request completed",
		"method", method,
		"path", path,
		"status", status,
		"duration", time.Since(started).String(),
	)

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return status, fmt.Errorf("failed to decode welink response: %w", err)
		}
	}
	return status, nil
}

// window returns the meeting's local start and end.
func (c *Client) window(date, start, end string) (time.Time, time.Time, error) {
	startAt, err := models.ParseClock(date, start, c.config.Location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("welink: invalid start: %w", err)
	}
	endAt, err := models.ParseClock(date, end, c.config.Location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("welink: invalid end: %w", err)
	}
	return startAt, endAt, nil
}

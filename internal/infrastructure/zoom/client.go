// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package zoom

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

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/platform"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

const (
	// BaseURL is the base URL for Zoom API
	BaseURL = "https://api.zoom.us/v2"
	// AuthURL is the OAuth token endpoint
	AuthURL = "https://zoom.us/oauth/token"
)

// Config holds the configuration for the Zoom client of one community
type Config struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	// Optional: override base URL for testing
	BaseURL string
	// Optional: override auth URL for testing
	AuthURL string
	// Optional: override timeout for HTTP requests
	Timeout time.Duration
	// Location is the timezone meeting dates and clocks are expressed in
	Location *time.Location
	// MinRecordingSize discards recordings smaller than this many bytes
	MinRecordingSize int64
	// RecordingLookback is how far back recordings are listed
	RecordingLookback time.Duration
}

// Client is a Zoom server-to-server OAuth client implementing domain.VendorClient.
// It never retries; failed calls surface the vendor status to the caller.
type Client struct {
	apiClient   *http.Client
	config      Config
	tokenSource oauth2.TokenSource
	downloader  *platform.Downloader
	now         func() time.Time
}

var _ domain.VendorClient = (*Client)(nil)

// NewClient creates a new Zoom API client
func NewClient(config Config, downloader *platform.Downloader) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.AuthURL == "" {
		config.AuthURL = AuthURL
	}
	if config.Timeout == 0 {
		config.Timeout = platform.DefaultClientTimeout
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.MinRecordingSize == 0 {
		config.MinRecordingSize = constants.DefaultMinRecordingSize
	}
	if config.RecordingLookback == 0 {
		config.RecordingLookback = constants.RecordingLookback
	}
	if downloader == nil {
		downloader = platform.NewDownloader(nil, "", 0)
	}

	// Zoom Server-to-Server OAuth requires specific grant_type and account_id
	oauthConfig := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     config.AuthURL,
		EndpointParams: url.Values{
			"grant_type": []string{"account_credentials"},
			"account_id": []string{config.AccountID},
		},
		AuthStyle: oauth2.AuthStyleInParams,
	}

	httpClient := platform.NewHTTPClient(config.Timeout)
	// The token endpoint is called through the traced client as well; the
	// returned source caches the token until it expires.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	tokenSource := oauthConfig.TokenSource(tokenCtx)

	return &Client{
		apiClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: &oauth2.Transport{Base: httpClient.Transport, Source: tokenSource},
		},
		config:      config,
		tokenSource: tokenSource,
		downloader:  downloader,
		now:         time.Now,
	}
}

// Platform returns the platform identifier
func (c *Client) Platform() string {
	return models.PlatformZoom
}

// doRequest performs one authenticated request and decodes a 2xx JSON answer into out.
// It returns the HTTP status of the call, or 0 when no answer was received.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body, out any) (int, error) {
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
		req.Header.Set("Content-Type", "application/json")
	}

	slog.DebugContext(ctx, "making Zoom API request", "method", method, "path", path)

	started := time.Now()
	resp, err := c.apiClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "Zoom API request failed",
			"method", method,
			"path", path,
			"duration", time.Since(started).String(),
			logging.ErrKey, err)
		return 0, fmt.Errorf("zoom request %s %s: %w", method, path, err)
	}

	status := resp.StatusCode
	data, err := platform.ReadResponse(models.PlatformZoom, resp)
	if err != nil {
		slog.ErrorContext(ctx, "Zoom API error response",
			"method", method,
			"path", path,
			"status", status,
			"duration", time.Since(started).String(),
			"body", string(data),
			logging.ErrKey, parseErrorResponse(data))
		return status, err
	}

	slog.InfoContext(ctx, "Zoom API request completed",
		"method", method,
		"path", path,
		"status", status,
		"duration", time.Since(started).String(),
	)

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return status, fmt.Errorf("failed to decode zoom response: %w", err)
		}
	}
	return status, nil
}

// parseErrorResponse attempts to parse a Zoom API error response
func parseErrorResponse(body []byte) error {
	var errResp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("zoom API error (code %d): %s", errResp.Code, errResp.Message)
	}
	return fmt.Errorf("zoom API error: %s", string(body))
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package tencent

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/platform"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

// BaseURL is the base URL of the Tencent Meeting REST API
const BaseURL = "https://api.meeting.qq.com"

// HostCredentials are the enterprise application credentials bound to one host account.
type HostCredentials struct {
	AppID     string
	SDKID     string
	SecretID  string
	SecretKey string
	// HostKey lets attendees claim the host role.
	HostKey string
}

// Config holds the Tencent Meeting configuration of one community
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Hosts maps a host id of the community pool to its credentials
	Hosts             map[string]HostCredentials
	Location          *time.Location
	MinRecordingSize  int64
	RecordingLookback time.Duration
	StartTolerance    time.Duration
}

// Client signs every request with the host's HMAC-SHA256 secret. It never retries.
type Client struct {
	httpClient *http.Client
	config     Config
	downloader *platform.Downloader
	now        func() time.Time
}

var _ domain.VendorClient = (*Client)(nil)

// NewClient creates a Tencent Meeting client
func NewClient(config Config, downloader *platform.Downloader) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
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
	if config.StartTolerance == 0 {
		config.StartTolerance = constants.RecordingStartTolerance
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
	return models.PlatformTencent
}

func (c *Client) credentials(hostID string) (HostCredentials, error) {
	creds, ok := c.config.Hosts[hostID]
	if !ok {
		return HostCredentials{}, fmt.Errorf("tencent: no credentials for host %q", hostID)
	}
	return creds, nil
}

// sign returns base64(hex(HMAC-SHA256(secret, method\nheaders\nuri\nbody))).
func sign(creds HostCredentials, method, uri, body, nonce, timestamp string) string {
	headerString := "X-TC-Key=" + creds.SecretID + "&X-TC-Nonce=" + nonce + "&X-TC-Timestamp=" + timestamp
	mac := hmac.New(sha256.New, []byte(creds.SecretKey))
	mac.Write([]byte(method + "\n" + headerString + "\n" + uri + "\n" + body))
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(mac.Sum(nil))))
}

func newNonce() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// doRequest sends one signed request for hostID. uri is the path plus query
// and is part of the signature. It returns the HTTP status, or 0 when no
// answer was received.
func (c *Client) doRequest(ctx context.Context, hostID, method, uri string, body, out any) (int, error) {
	creds, err := c.credentials(hostID)
	if err != nil {
		return 0, err
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	nonce, err := newNonce()
	if err != nil {
		return 0, fmt.Errorf("tencent: generate nonce: %w", err)
	}
	timestamp := strconv.FormatInt(c.now().Unix(), 10)

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+uri, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-TC-Key", creds.SecretID)
	req.Header.Set("X-TC-Nonce", nonce)
	req.Header.Set("X-TC-Timestamp", timestamp)
	req.Header.Set("X-TC-Signature", sign(creds, method, uri, string(payload), nonce, timestamp))
	req.Header.Set("AppId", creds.AppID)
	req.Header.Set("SdkId", creds.SDKID)
	req.Header.Set("X-TC-Registered", "1")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "Tencent Meeting request failed", "method", method, "uri", uri, logging.ErrKey, err)
		return 0, fmt.Errorf("tencent request %s %s: %w", method, uri, err)
	}

	status := resp.StatusCode
	data, err := platform.ReadResponse(models.PlatformTencent, resp)
	if err != nil {
		slog.ErrorContext(ctx, "Tencent Meeting error response",
			"method", method,
			"uri", uri,
			"status", status,
			"body", string(data),
			logging.ErrKey, err)
		return status, err
	}
	slog.InfoContext(ctx, "Tencent Meeting request completed",
		"method", method,
		"uri", uri,
		"status", status,
		"duration", time.Since(started).String(),
	)

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return status, fmt.Errorf("failed to decode tencent response: %w", err)
		}
	}
	return status, nil
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package platform

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
)

// DefaultClientTimeout bounds every vendor HTTP request.
const DefaultClientTimeout = 30 * time.Second

// maxBodySize caps how much of a vendor answer is read into memory.
const maxBodySize = 8 << 20

// NewHTTPClient returns an HTTP client with a traced transport.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// ReadResponse drains and closes resp. A non-2xx answer is returned as a
// vendor error carrying the raw status and body.
func ReadResponse(platform string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", platform, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, domain.NewVendorError(platform, resp.StatusCode, string(body))
	}
	return body, nil
}

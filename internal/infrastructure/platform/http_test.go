// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package platform

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestReadResponse(t *testing.T) {
	body, err := ReadResponse("zoom", response(http.StatusCreated, `{"id":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(body))

	_, err = ReadResponse("zoom", response(http.StatusTooManyRequests, `{"code":429}`))
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeVendor, domain.GetErrorType(err))

	var vendorErr *domain.VendorError
	require.True(t, errors.As(err, &vendorErr))
	assert.Equal(t, http.StatusTooManyRequests, vendorErr.Status)
	assert.Equal(t, `{"code":429}`, vendorErr.Body)
}

func TestNewHTTPClient(t *testing.T) {
	assert.Equal(t, DefaultClientTimeout, NewHTTPClient(0).Timeout)
	assert.NotNil(t, NewHTTPClient(0).Transport)
}

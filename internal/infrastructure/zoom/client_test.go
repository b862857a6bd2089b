// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package zoom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/platform"
)

var shanghai = time.FixedZone("CST", 8*3600)

// newTestClient serves the OAuth token endpoint and delegates every other
// request to api.
func newTestClient(t *testing.T, api http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "account_credentials", r.PostForm.Get("grant_type"))
			assert.Equal(t, "acct", r.PostForm.Get("account_id"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token": "test-token", "token_type": "Bearer", "expires_in": 3600}`))
			return
		}
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		api(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{
		AccountID:        "acct",
		ClientID:         "id",
		ClientSecret:     "secret",
		BaseURL:          server.URL + "/v2",
		AuthURL:          server.URL + "/oauth/token",
		Location:         shanghai,
		MinRecordingSize: 100,
	}, platform.NewDownloader(server.Client(), t.TempDir(), 0))
	client.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, shanghai) }
	return client
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{AccountID: "a", ClientID: "b", ClientSecret: "c"}, nil)
	assert.Equal(t, BaseURL, client.config.BaseURL)
	assert.Equal(t, AuthURL, client.config.AuthURL)
	assert.Equal(t, platform.DefaultClientTimeout, client.config.Timeout)
	assert.Equal(t, time.UTC, client.config.Location)
	assert.Equal(t, models.PlatformZoom, client.Platform())
}

func TestClient_Create(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/users/host-a/meetings", r.URL.Path)

		var body MeetingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Kernel SIG weekly", body.Topic)
		assert.Equal(t, "2026-03-05T02:00:00Z", body.StartTime)
		assert.Equal(t, 90, body.Duration)
		assert.Equal(t, MeetingTypeScheduled, body.Type)
		assert.NotEmpty(t, body.Password)
		assert.LessOrEqual(t, len(body.Password), 10)
		assert.Equal(t, "cloud", body.Settings.AutoRecording)
		assert.True(t, body.Settings.JoinBeforeHost)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 81234567890, "host_id": "zoom-user", "join_url": "https://zoom.us/j/81234567890", "start_url": "https://zoom.us/s/1"}`))
	})

	action := CreateAction{Date: "2026-03-05", Start: "10:00", End: "11:30", Topic: "Kernel SIG weekly", HostID: "host-a", IsRecord: true}
	status, result, err := client.Create(context.Background(), action)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, &domain.MeetingResult{HostID: "zoom-user", MID: "81234567890", JoinURL: "https://zoom.us/j/81234567890"}, result)
}

func TestClient_UpdateAndDelete(t *testing.T) {
	tests := []struct {
		name       string
		action     domain.Action
		call       func(*Client, context.Context, domain.Action) (int, error)
		status     int
		response   string
		wantMethod string
		wantStatus int
		wantErr    bool
	}{
		{
			name:       "update",
			action:     UpdateAction{MID: "81234", Date: "2026-03-05", Start: "07:00", End: "08:00", Topic: "t"},
			call:       (*Client).Update,
			status:     http.StatusNoContent,
			wantMethod: http.MethodPatch,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "delete",
			action:     DeleteAction{MID: "81234"},
			call:       (*Client).Delete,
			status:     http.StatusNoContent,
			wantMethod: http.MethodDelete,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "delete unknown meeting",
			action:     DeleteAction{MID: "81234"},
			call:       (*Client).Delete,
			status:     http.StatusNotFound,
			response:   `{"code": 3001, "message": "Meeting does not exist"}`,
			wantMethod: http.MethodDelete,
			wantStatus: http.StatusNotFound,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				assert.Equal(t, tt.wantMethod, r.Method)
				assert.Equal(t, "/v2/meetings/81234", r.URL.Path)
				if r.Method == http.MethodPatch {
					var body MeetingRequest
					require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
					assert.Equal(t, "2026-03-04T23:00:00Z", body.StartTime)
					assert.Equal(t, "none", body.Settings.AutoRecording)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.response))
			})

			status, err := tt.call(client, context.Background(), tt.action)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, 1, calls, "vendor clients never retry")
			if tt.wantErr {
				require.Error(t, err)
				var vendorErr *domain.VendorError
				require.True(t, errors.As(err, &vendorErr))
				assert.Contains(t, vendorErr.Body, "Meeting does not exist")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClient_GetParticipants(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/past_meetings/81234/participants", r.URL.Path)
		assert.Equal(t, "300", r.URL.Query().Get("page_size"))
		_, _ = w.Write([]byte(`{"total_records": 2, "participants": [
			{"name": "alice", "join_time": "2026-03-01T02:00:00Z", "leave_time": "2026-03-01T03:00:00Z"},
			{"name": "bob"}]}`))
	})

	status, result, err := client.GetParticipants(context.Background(), ParticipantsAction{MID: "81234"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Participants, 2)
	assert.Equal(t, "alice", result.Participants[0].Name)
	assert.Equal(t, "2026-03-01T02:00:00Z", result.Participants[0].JoinTime)
}

func TestClient_GetVideo(t *testing.T) {
	var baseURL string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/users/host-a/recordings":
			assert.Equal(t, "2026-02-23", r.URL.Query().Get("from"))
			_, _ = fmt.Fprintf(w, `{"meetings": [
				{"id": 81234, "total_size": 300, "recording_files": [
					{"id": "small-set", "file_extension": "MP4", "file_size": 300, "download_url": "%[1]s/rec/small-set"}]},
				{"id": 81234, "total_size": 900, "recording_files": [
					{"id": "audio", "file_extension": "M4A", "file_size": 500, "download_url": "%[1]s/rec/audio"},
					{"id": "speaker", "file_extension": "MP4", "file_size": 150, "download_url": "%[1]s/rec/speaker"},
					{"id": "gallery", "file_extension": "MP4", "file_size": 250, "download_url": "%[1]s/rec/gallery"}]},
				{"id": 99999, "total_size": 5000, "recording_files": []}]}`, baseURL)
		case "/rec/gallery":
			_, _ = w.Write([]byte("gallery-video"))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	baseURL = client.config.BaseURL[:len(client.config.BaseURL)-len("/v2")]

	action := VideoAction{MID: "81234", HostID: "host-a", Community: "openeuler", Date: "2026-03-01", Start: "10:00"}
	path, err := client.GetVideo(context.Background(), action)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gallery-video", string(data))
	assert.Contains(t, path, "openeuler")
}

func TestClient_GetVideoNoRecording(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meetings": [{"id": 81234, "total_size": 50, "recording_files": [
			{"id": "tiny", "file_extension": "MP4", "file_size": 50, "download_url": "http://unused"}]}]}`))
	})

	path, err := client.GetVideo(context.Background(), VideoAction{MID: "81234", HostID: "host-a", Community: "openeuler"})
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = client.GetVideo(context.Background(), VideoAction{MID: "4242", HostID: "host-a", Community: "openeuler"})
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestClient_ActionMismatch(t *testing.T) {
	client := NewClient(Config{}, nil)
	ctx := context.Background()

	_, _, err := client.Create(ctx, DeleteAction{MID: "1"})
	assert.ErrorIs(t, err, domain.ErrActionMismatch)
	_, err = client.Update(ctx, CreateAction{})
	assert.ErrorIs(t, err, domain.ErrActionMismatch)
	_, err = client.GetVideo(ctx, ParticipantsAction{})
	assert.ErrorIs(t, err, domain.ErrActionMismatch)
}

func TestClient_NewAction(t *testing.T) {
	client := NewClient(Config{}, nil)
	meeting := &models.Meeting{
		Community: "openeuler", MID: "81234", HostID: "host-a", Topic: "t",
		Date: "2026-03-05", Start: "10:00", End: "11:00", IsRecord: true,
	}

	for _, op := range []domain.Operation{
		domain.OperationCreate, domain.OperationUpdate, domain.OperationDelete,
		domain.OperationGetParticipants, domain.OperationGetVideo,
	} {
		action, err := client.NewAction(op, meeting)
		require.NoError(t, err)
		assert.Equal(t, op, action.Operation())
		assert.Equal(t, models.PlatformZoom, action.Platform())
	}

	action, _ := client.NewAction(domain.OperationGetVideo, meeting)
	assert.Equal(t, VideoAction{MID: "81234", HostID: "host-a", Community: "openeuler", Date: "2026-03-05", Start: "10:00"}, action)

	_, err := client.NewAction("rename", meeting)
	assert.Error(t, err)
}

func TestParseErrorResponse(t *testing.T) {
	assert.EqualError(t, parseErrorResponse([]byte(`{"code": 124, "message": "Invalid access token."}`)),
		"zoom API error (code 124): Invalid access token.")
	assert.EqualError(t, parseErrorResponse([]byte(`bad gateway`)), "zoom API error: bad gateway")
}

func TestNewPasscode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := newPasscode()
		require.NoError(t, err)
		assert.NotEmpty(t, code)
		assert.LessOrEqual(t, len(code), 10)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 45)
}

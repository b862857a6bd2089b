// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/service"
)

func meeting(id, date, start, end string) *models.Meeting {
	return &models.Meeting{
		ID:        id,
		Community: "openeuler",
		Platform:  models.PlatformZoom,
		GroupName: "Infra",
		Date:      date,
		Start:     start,
		End:       end,
		HostID:    "host-a",
		MID:       "mid-" + id,
		Sequence:  1,
	}
}

func seed(t *testing.T, repo *NatsMeetingRepository, meetings ...*models.Meeting) {
	t.Helper()
	for _, m := range meetings {
		require.NoError(t, repo.Create(context.Background(), m))
	}
}

func ids(meetings []*models.Meeting) []string {
	out := make([]string, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, m.ID)
	}
	return out
}

func TestNatsMeetingRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	kv := newMockNatsKeyValue()
	repo := NewNatsMeetingRepository(kv)

	m := meeting("m1", "2026-03-05", "10:00", "11:00")
	require.NoError(t, repo.Create(ctx, m))
	assert.Contains(t, kv.entries, "meeting/m1")

	got, revision, err := repo.GetWithRevision(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, m, got)
	assert.NotZero(t, revision)

	_, err = repo.Get(ctx, "nope")
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))

	err = repo.Create(ctx, &models.Meeting{})
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestNatsMeetingRepository_UpdateAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsMeetingRepository(newMockNatsKeyValue())
	seed(t, repo, meeting("m1", "2026-03-05", "10:00", "11:00"))

	m, revision, err := repo.GetWithRevision(ctx, "m1")
	require.NoError(t, err)
	m.Topic = "renamed"
	m.Sequence = 2
	require.NoError(t, repo.Update(ctx, m, revision))

	// the revision read before the update is stale now
	err = repo.SoftDelete(ctx, m, revision)
	assert.Equal(t, domain.ErrorTypeConflict, domain.GetErrorType(err))

	m, revision, err = repo.GetWithRevision(ctx, "m1")
	require.NoError(t, err)
	require.NoError(t, repo.SoftDelete(ctx, m, revision))

	stored, err := repo.Get(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, stored.IsDelete)
	assert.Equal(t, "renamed", stored.Topic)

	listed, err := repo.List(ctx, models.ListMeetingsFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestNatsMeetingRepository_ListOverlapping(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsMeetingRepository(newMockNatsKeyValue())

	deleted := meeting("deleted", "2026-03-05", "10:00", "11:00")
	deleted.IsDelete = true
	otherPlatform := meeting("tencent", "2026-03-05", "10:00", "11:00")
	otherPlatform.Platform = models.PlatformTencent
	seed(t, repo,
		meeting("overlap", "2026-03-05", "10:30", "11:30"),
		meeting("touching", "2026-03-05", "08:00", "09:30"),
		meeting("after", "2026-03-05", "12:00", "13:00"),
		meeting("other-day", "2026-03-06", "10:00", "11:00"),
		meeting("self", "2026-03-05", "10:00", "11:00"),
		deleted,
		otherPlatform,
	)

	// window 10:00-11:00 widened by the booking buffer
	got, err := repo.ListOverlapping(ctx, models.OverlapQuery{
		Community: "openeuler",
		Platform:  models.PlatformZoom,
		Date:      "2026-03-05",
		Start:     "09:30",
		End:       "11:30",
		ExcludeID: "self",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"overlap"}, ids(got))
}

func TestNatsMeetingRepository_ListByUploadStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsMeetingRepository(newMockNatsKeyValue())

	recorded := func(id, date string, status models.UploadStatus) *models.Meeting {
		m := meeting(id, date, "10:00", "11:00")
		m.IsRecord = true
		m.UploadStatus = status
		return m
	}
	notRecorded := meeting("plain", "2026-03-01", "10:00", "11:00")
	elsewhere := recorded("mindspore", "2026-03-01", models.UploadStatusInit)
	elsewhere.Community = "mindspore"
	seed(t, repo,
		recorded("later", "2026-03-03", models.UploadStatusInit),
		recorded("earlier", "2026-03-01", models.UploadStatusUploadedToStorage),
		recorded("published", "2026-03-02", models.UploadStatusUploadedToReplayHost),
		recorded("done", "2026-03-02", models.UploadStatusVerifiedComplete),
		notRecorded,
		elsewhere,
	)

	got, err := repo.ListByUploadStatus(ctx, "openeuler", models.UploadStatusInit, models.UploadStatusUploadedToStorage)
	require.NoError(t, err)
	assert.Equal(t, []string{"earlier", "later"}, ids(got))

	got, err = repo.ListByUploadStatus(ctx, "openeuler", models.UploadStatusUploadedToReplayHost)
	require.NoError(t, err)
	assert.Equal(t, []string{"published"}, ids(got))
}

func TestNatsMeetingRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsMeetingRepository(newMockNatsKeyValue())

	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	at := func(m *models.Meeting, created, updated time.Duration) *models.Meeting {
		c, u := t0.Add(created), t0.Add(updated)
		m.CreatedAt, m.UpdatedAt = &c, &u
		return m
	}
	other := at(meeting("d", "2026-03-09", "10:00", "11:00"), 4*time.Hour, 4*time.Hour)
	other.Community = "mindspore"
	seed(t, repo,
		at(meeting("a", "2026-03-05", "14:00", "15:00"), 3*time.Hour, 5*time.Hour),
		at(meeting("b", "2026-03-05", "09:00", "10:00"), 1*time.Hour, 6*time.Hour),
		at(meeting("c", "2026-03-07", "10:00", "11:00"), 2*time.Hour, 2*time.Hour),
		other,
	)

	tests := []struct {
		name   string
		filter models.ListMeetingsFilter
		want   []string
	}{
		{name: "default newest date first", filter: models.ListMeetingsFilter{}, want: []string{"d", "c", "a", "b"}},
		{name: "date ascending", filter: models.ListMeetingsFilter{OrderType: models.OrderAsc}, want: []string{"b", "a", "c", "d"}},
		{name: "create time", filter: models.ListMeetingsFilter{OrderBy: models.OrderByCreateTime, OrderType: models.OrderAsc}, want: []string{"b", "c", "a", "d"}},
		{name: "update time desc", filter: models.ListMeetingsFilter{OrderBy: models.OrderByUpdateTime}, want: []string{"b", "a", "d", "c"}},
		{name: "by community", filter: models.ListMeetingsFilter{Community: "openeuler"}, want: []string{"c", "a", "b"}},
		{name: "by mid", filter: models.ListMeetingsFilter{MID: "mid-a"}, want: []string{"a"}},
		{name: "by id", filter: models.ListMeetingsFilter{ID: "c"}, want: []string{"c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestNatsMeetingRepository_AdvanceUploadStatus(t *testing.T) {
	ctx := context.Background()
	kv := newMockNatsKeyValue()
	repo := NewNatsMeetingRepository(kv)
	m := meeting("m1", "2026-03-05", "10:00", "11:00")
	m.IsRecord = true
	seed(t, repo, m)

	require.NoError(t, repo.AdvanceUploadStatus(ctx, "m1", models.UploadStatusUploadedToStorage, ""))
	require.NoError(t, repo.AdvanceUploadStatus(ctx, "m1", models.UploadStatusUploadedToReplayHost, "https://replay.example/v/abc"))

	stored, err := repo.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusUploadedToReplayHost, stored.UploadStatus)
	assert.Equal(t, "https://replay.example/v/abc", stored.ReplayURL)
	assert.NotNil(t, stored.UpdatedAt)

	err = repo.AdvanceUploadStatus(ctx, "m1", models.UploadStatusUploadedToStorage, "")
	assert.True(t, errors.Is(err, domain.ErrStatusRegression))
	assert.Equal(t, domain.ErrorTypeConflict, domain.GetErrorType(err))

	err = repo.AdvanceUploadStatus(ctx, "missing", models.UploadStatusUploadedToStorage, "")
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
}

func TestNatsMeetingRepository_UnreadableBooking(t *testing.T) {
	ctx := context.Background()
	kv := newMockNatsKeyValue()
	repo := NewNatsMeetingRepository(kv)

	booked := meeting("m1", "2026-03-05", "10:00", "11:00")
	other := meeting("m2", "2026-03-05", "15:00", "16:00")
	other.HostID = "host-b"
	seed(t, repo, booked, other)
	kv.keyErrors = map[string]error{"meeting/m1": errors.New("nats: timeout")}

	query := models.OverlapQuery{
		Community: "openeuler",
		Platform:  models.PlatformZoom,
		Date:      "2026-03-05",
		Start:     "09:30",
		End:       "11:30",
	}
	_, err := repo.ListOverlapping(ctx, query)
	assert.Equal(t, domain.ErrorTypeInternal, domain.GetErrorType(err))

	// host-a holds the unreadable booking and must not be handed out
	allocator := service.NewHostAllocator(repo, service.ServiceConfig{
		Communities: map[string]service.CommunityConfig{
			"openeuler": {HostPools: map[string][]string{models.PlatformZoom: {"host-a", "host-b"}}},
		},
	})
	hosts, err := allocator.FindAvailableHosts(ctx, "openeuler", models.PlatformZoom, "2026-03-05", "10:00", "11:00", "")
	require.Error(t, err)
	assert.Nil(t, hosts)

	// plain listings stay available
	listed, err := repo.List(ctx, models.ListMeetingsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, ids(listed))
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// NatsMeetingRepository is the NATS KV store repository for meetings.
// Deleted meetings keep their entry with IsDelete set.
type NatsMeetingRepository struct {
	*NatsBaseRepository[models.Meeting]
	keyBuilder *KeyBuilder
}

var _ domain.MeetingRepository = (*NatsMeetingRepository)(nil)

// NewNatsMeetingRepository creates a new NATS KV store repository for meetings.
func NewNatsMeetingRepository(kvStore INatsKeyValue) *NatsMeetingRepository {
	return &NatsMeetingRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Meeting](kvStore, "meeting"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

func (r *NatsMeetingRepository) key(id string) string {
	return r.keyBuilder.EntityKey(KeyPrefixMeeting, id)
}

// Create stores a new meeting.
func (r *NatsMeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	if meeting == nil || meeting.ID == "" {
		return domain.NewValidationError("meeting id is required")
	}
	return r.NatsBaseRepository.Create(ctx, r.key(meeting.ID), meeting)
}

// Get retrieves a meeting by id, deleted or not.
func (r *NatsMeetingRepository) Get(ctx context.Context, id string) (*models.Meeting, error) {
	return r.NatsBaseRepository.Get(ctx, r.key(id))
}

// GetWithRevision retrieves a meeting with its revision by id.
func (r *NatsMeetingRepository) GetWithRevision(ctx context.Context, id string) (*models.Meeting, uint64, error) {
	return r.NatsBaseRepository.GetWithRevision(ctx, r.key(id))
}

// Update replaces a meeting if it was not modified since revision.
func (r *NatsMeetingRepository) Update(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	return r.NatsBaseRepository.Update(ctx, r.key(meeting.ID), meeting, revision)
}

// SoftDelete stores meeting flagged as deleted.
func (r *NatsMeetingRepository) SoftDelete(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	deleted := *meeting
	deleted.IsDelete = true
	return r.NatsBaseRepository.Update(ctx, r.key(meeting.ID), &deleted, revision)
}

// listLive returns the non-deleted meetings accepted by keep. Unless
// skipUnreadable is set, one unreadable meeting fails the whole listing.
func (r *NatsMeetingRepository) listLive(ctx context.Context, skipUnreadable bool, keep func(*models.Meeting) bool) ([]*models.Meeting, error) {
	prefix := r.keyBuilder.EntityPrefix(KeyPrefixMeeting)
	list := r.ListEntities
	if skipUnreadable {
		list = r.ListReadableEntities
	}
	all, err := list(ctx, prefix)
	if err != nil {
		return nil, err
	}

	meetings := make([]*models.Meeting, 0, len(all))
	for _, m := range all {
		if m.IsDelete || !keep(m) {
			continue
		}
		meetings = append(meetings, m)
	}
	return meetings, nil
}

// ListOverlapping returns the bookings on the query's slot whose interval
// overlaps [Start, End). HH:MM clocks order lexically. A booking that cannot
// be read fails the query instead of freeing its host.
func (r *NatsMeetingRepository) ListOverlapping(ctx context.Context, q models.OverlapQuery) ([]*models.Meeting, error) {
	return r.listLive(ctx, false, func(m *models.Meeting) bool {
		return m.ID != q.ExcludeID &&
			m.Community == q.Community &&
			m.Platform == q.Platform &&
			m.Date == q.Date &&
			m.End > q.Start &&
			m.Start < q.End
	})
}

// ListByUploadStatus returns the recorded meetings of a community in one of statuses.
func (r *NatsMeetingRepository) ListByUploadStatus(ctx context.Context, community string, statuses ...models.UploadStatus) ([]*models.Meeting, error) {
	meetings, err := r.listLive(ctx, true, func(m *models.Meeting) bool {
		return m.IsRecord && m.Community == community && slices.Contains(statuses, m.UploadStatus)
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(meetings, func(a, b *models.Meeting) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.Start, b.Start))
	})
	return meetings, nil
}

// List returns the meetings matching filter, by default newest date first.
func (r *NatsMeetingRepository) List(ctx context.Context, filter models.ListMeetingsFilter) ([]*models.Meeting, error) {
	meetings, err := r.listLive(ctx, true, func(m *models.Meeting) bool {
		return (filter.Community == "" || m.Community == filter.Community) &&
			(filter.MID == "" || m.MID == filter.MID) &&
			(filter.ID == "" || m.ID == filter.ID)
	})
	if err != nil {
		return nil, err
	}

	compare := func(a, b *models.Meeting) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.Start, b.Start))
	}
	switch filter.OrderBy {
	case models.OrderByCreateTime:
		compare = func(a, b *models.Meeting) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	case models.OrderByUpdateTime:
		compare = func(a, b *models.Meeting) int { return compareTime(a.UpdatedAt, b.UpdatedAt) }
	}
	if filter.OrderType != models.OrderAsc {
		asc := compare
		compare = func(a, b *models.Meeting) int { return asc(b, a) }
	}
	slices.SortStableFunc(meetings, compare)
	return meetings, nil
}

// AdvanceUploadStatus moves a meeting forward to status, setting replayURL when given.
func (r *NatsMeetingRepository) AdvanceUploadStatus(ctx context.Context, id string, status models.UploadStatus, replayURL string) error {
	meeting, revision, err := r.GetWithRevision(ctx, id)
	if err != nil {
		return err
	}

	previous := meeting.UploadStatus
	if err := meeting.AdvanceUploadStatus(status); err != nil {
		return domain.NewConflictError(fmt.Sprintf("meeting %s upload status", id), domain.ErrStatusRegression, err)
	}
	if replayURL != "" {
		meeting.ReplayURL = replayURL
	}
	now := time.Now().UTC()
	meeting.UpdatedAt = &now

	if err := r.Update(ctx, meeting, revision); err != nil {
		return err
	}
	slog.DebugContext(ctx, "advanced upload status", "meeting_id", id, "from", previous.String(), "to", status.String())
	return nil
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"slices"
	"sync"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// memoryRepository is an in-memory MeetingRepository with the same overlap
// and revision semantics as the key-value store.
type memoryRepository struct {
	mu        sync.Mutex
	meetings  map[string]models.Meeting
	revisions map[string]uint64
}

func newMemoryRepository(meetings ...*models.Meeting) *memoryRepository {
	r := &memoryRepository{
		meetings:  make(map[string]models.Meeting),
		revisions: make(map[string]uint64),
	}
	for _, m := range meetings {
		r.meetings[m.ID] = *m
		r.revisions[m.ID] = 1
	}
	return r
}

func (r *memoryRepository) Create(_ context.Context, meeting *models.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[meeting.ID]; ok {
		return domain.NewConflictError("meeting already exists")
	}
	r.meetings[meeting.ID] = *meeting
	r.revisions[meeting.ID] = 1
	return nil
}

func (r *memoryRepository) Get(ctx context.Context, id string) (*models.Meeting, error) {
	m, _, err := r.GetWithRevision(ctx, id)
	return m, err
}

func (r *memoryRepository) GetWithRevision(_ context.Context, id string) (*models.Meeting, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return nil, 0, domain.NewNotFoundError("meeting not found")
	}
	return &m, r.revisions[id], nil
}

func (r *memoryRepository) Update(_ context.Context, meeting *models.Meeting, revision uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revisions[meeting.ID] != revision {
		return domain.NewConflictError("revision mismatch")
	}
	r.meetings[meeting.ID] = *meeting
	r.revisions[meeting.ID]++
	return nil
}

func (r *memoryRepository) SoftDelete(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	deleted := *meeting
	deleted.IsDelete = true
	return r.Update(ctx, &deleted, revision)
}

func (r *memoryRepository) ListOverlapping(_ context.Context, q models.OverlapQuery) ([]*models.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Meeting
	for _, m := range r.meetings {
		if m.IsDelete || m.ID == q.ExcludeID || m.Community != q.Community || m.Platform != q.Platform || m.Date != q.Date {
			continue
		}
		if m.End > q.Start && m.Start < q.End {
			out = append(out, &m)
		}
	}
	return out, nil
}

func (r *memoryRepository) ListByUploadStatus(_ context.Context, community string, statuses ...models.UploadStatus) ([]*models.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Meeting
	for _, m := range r.meetings {
		if m.IsDelete || !m.IsRecord || m.Community != community || !slices.Contains(statuses, m.UploadStatus) {
			continue
		}
		out = append(out, &m)
	}
	return out, nil
}

func (r *memoryRepository) List(_ context.Context, _ models.ListMeetingsFilter) ([]*models.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Meeting
	for _, m := range r.meetings {
		if !m.IsDelete {
			out = append(out, &m)
		}
	}
	return out, nil
}

func (r *memoryRepository) AdvanceUploadStatus(_ context.Context, id string, status models.UploadStatus, replayURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return domain.NewNotFoundError("meeting not found")
	}
	if err := m.AdvanceUploadStatus(status); err != nil {
		return err
	}
	if replayURL != "" {
		m.ReplayURL = replayURL
	}
	r.meetings[id] = m
	r.revisions[id]++
	return nil
}

func (r *memoryRepository) stored(id string) models.Meeting {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meetings[id]
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// MeetingRepository defines the interface for meeting storage operations.
// Deleted meetings stay in storage flagged with IsDelete and are excluded from
// every listing and overlap query.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *models.Meeting) error
	Get(ctx context.Context, id string) (*models.Meeting, error)
	GetWithRevision(ctx context.Context, id string) (*models.Meeting, uint64, error)
	Update(ctx context.Context, meeting *models.Meeting, revision uint64) error
	SoftDelete(ctx context.Context, meeting *models.Meeting, revision uint64) error

	// ListOverlapping returns the non-deleted meetings on the query's
	// community, platform and date whose interval overlaps [Start, End).
	ListOverlapping(ctx context.Context, query models.OverlapQuery) ([]*models.Meeting, error)

	// ListByUploadStatus returns the non-deleted meetings of a community that
	// requested recording and are in one of the given stages.
	ListByUploadStatus(ctx context.Context, community string, statuses ...models.UploadStatus) ([]*models.Meeting, error)

	List(ctx context.Context, filter models.ListMeetingsFilter) ([]*models.Meeting, error)

	// AdvanceUploadStatus moves a meeting to the given stage, optionally
	// recording its replay URL. A non-forward move is rejected.
	AdvanceUploadStatus(ctx context.Context, id string, status models.UploadStatus, replayURL string) error
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// ObjectInfo describes an object held by the object storage.
type ObjectInfo struct {
	Key      string
	Size     int64
	Metadata map[string]string
}

// ObjectStorage is the durable store recordings are archived to.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, key, filePath string, metadata map[string]string) error
	GetObjectMetadata(ctx context.Context, bucket, key string) (*ObjectInfo, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// DownloadURL returns the public attachment URL of key.
	DownloadURL(bucket, key string) string
}

// ReplayUpload is the metadata of a replay host submission.
type ReplayUpload struct {
	Title       string
	Description string
	Tags        []string
	VideoPath   string
	CoverPath   string
}

// ReplayHost is the public video host recordings are published to.
type ReplayHost interface {
	Upload(ctx context.Context, upload ReplayUpload) (string, error)

	// ListProcessedVideos returns the ids the host finished processing.
	ListProcessedVideos(ctx context.Context) ([]string, error)

	ReplayURL(id string) string
}

// CoverRenderer produces the cover image of a recording.
type CoverRenderer interface {
	Render(ctx context.Context, meeting *models.Meeting, outputDir string) (string, error)
}

// VideoInspector reads technical metadata of a local video file.
type VideoInspector interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

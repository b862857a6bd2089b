// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// MockObjectStorage implements ObjectStorage for testing
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, bucket, key, filePath string, metadata map[string]string) error {
	args := m.Called(ctx, bucket, key, filePath, metadata)
	return args.Error(0)
}

func (m *MockObjectStorage) GetObjectMetadata(ctx context.Context, bucket, key string) (*domain.ObjectInfo, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ObjectInfo), args.Error(1)
}

func (m *MockObjectStorage) ListObjects(ctx context.Context, bucket, prefix string) ([]domain.ObjectInfo, error) {
	args := m.Called(ctx, bucket, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ObjectInfo), args.Error(1)
}

func (m *MockObjectStorage) DownloadURL(bucket, key string) string {
	args := m.Called(bucket, key)
	return args.String(0)
}

// MockReplayHost implements ReplayHost for testing
type MockReplayHost struct {
	mock.Mock
}

func (m *MockReplayHost) Upload(ctx context.Context, upload domain.ReplayUpload) (string, error) {
	args := m.Called(ctx, upload)
	return args.String(0), args.Error(1)
}

func (m *MockReplayHost) ListProcessedVideos(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockReplayHost) ReplayURL(id string) string {
	args := m.Called(id)
	return args.String(0)
}

// MockCoverRenderer implements CoverRenderer for testing
type MockCoverRenderer struct {
	mock.Mock
}

func (m *MockCoverRenderer) Render(ctx context.Context, meeting *models.Meeting, outputDir string) (string, error) {
	args := m.Called(ctx, meeting, outputDir)
	return args.String(0), args.Error(1)
}

// MockVideoInspector implements VideoInspector for testing
type MockVideoInspector struct {
	mock.Mock
}

func (m *MockVideoInspector) Duration(ctx context.Context, path string) (time.Duration, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(time.Duration), args.Error(1)
}

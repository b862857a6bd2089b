// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// MockVendorClient implements VendorClient for testing
type MockVendorClient struct {
	mock.Mock
}

func (m *MockVendorClient) Platform() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockVendorClient) NewAction(op domain.Operation, meeting *models.Meeting) (domain.Action, error) {
	args := m.Called(op, meeting)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Action), args.Error(1)
}

func (m *MockVendorClient) Create(ctx context.Context, action domain.Action) (int, *domain.MeetingResult, error) {
	args := m.Called(ctx, action)
	if args.Get(1) == nil {
		return args.Int(0), nil, args.Error(2)
	}
	return args.Int(0), args.Get(1).(*domain.MeetingResult), args.Error(2)
}

func (m *MockVendorClient) Update(ctx context.Context, action domain.Action) (int, error) {
	args := m.Called(ctx, action)
	return args.Int(0), args.Error(1)
}

func (m *MockVendorClient) Delete(ctx context.Context, action domain.Action) (int, error) {
	args := m.Called(ctx, action)
	return args.Int(0), args.Error(1)
}

func (m *MockVendorClient) GetParticipants(ctx context.Context, action domain.Action) (int, *models.Participants, error) {
	args := m.Called(ctx, action)
	if args.Get(1) == nil {
		return args.Int(0), nil, args.Error(2)
	}
	return args.Int(0), args.Get(1).(*models.Participants), args.Error(2)
}

func (m *MockVendorClient) GetVideo(ctx context.Context, action domain.Action) (string, error) {
	args := m.Called(ctx, action)
	return args.String(0), args.Error(1)
}

// MockAction is a minimal Action for dispatch tests
type MockAction struct {
	PlatformName string
	Op           domain.Operation
}

func (a MockAction) Platform() string { return a.PlatformName }

func (a MockAction) Operation() domain.Operation { return a.Op }

// MockPlatformRegistry implements PlatformRegistry for testing
type MockPlatformRegistry struct {
	mock.Mock
}

func (m *MockPlatformRegistry) Register(community string, client domain.VendorClient) {
	m.Called(community, client)
}

func (m *MockPlatformRegistry) Client(community, platform string) (domain.VendorClient, error) {
	args := m.Called(community, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.VendorClient), args.Error(1)
}

func (m *MockPlatformRegistry) Dispatch(ctx context.Context, community, platform string, action domain.Action) (*domain.DispatchResult, error) {
	args := m.Called(ctx, community, platform, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DispatchResult), args.Error(1)
}

func (m *MockPlatformRegistry) Invoke(ctx context.Context, op domain.Operation, meeting *models.Meeting) (*domain.DispatchResult, error) {
	args := m.Called(ctx, op, meeting)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DispatchResult), args.Error(1)
}

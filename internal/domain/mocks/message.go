// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// MockMessage is a request with a fixed subject and payload. HasReply and
// Respond go through the mock.
type MockMessage struct {
	mock.Mock
	data    []byte
	subject string
}

func (m *MockMessage) Subject() string {
	return m.subject
}

func (m *MockMessage) Data() []byte {
	return m.data
}

func (m *MockMessage) HasReply() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockMessage) Respond(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

// NewMockMessage returns a message carrying data on subject.
func NewMockMessage(data []byte, subject string) *MockMessage {
	return &MockMessage{
		data:    data,
		subject: subject,
	}
}

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Channel() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockNotifier) Notify(ctx context.Context, action models.MessageAction, meeting *models.Meeting) error {
	args := m.Called(ctx, action, meeting)
	return args.Error(0)
}

// MockNotificationQueue implements NotificationQueue for testing
type MockNotificationQueue struct {
	mock.Mock
}

func (m *MockNotificationQueue) Enqueue(ctx context.Context, job models.NotificationJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

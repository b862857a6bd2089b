// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/service"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

type handlerFixture struct {
	handler  *MeetingHandler
	repo     *mocks.MockMeetingRepository
	registry *mocks.MockPlatformRegistry
	queue    *mocks.MockNotificationQueue
	config   service.ServiceConfig
}

func setupHandlerForTesting() *handlerFixture {
	config := service.ServiceConfig{
		Window: service.DefaultOperatingWindow(),
		Communities: map[string]service.CommunityConfig{
			"openeuler": {HostPools: map[string][]string{models.PlatformZoom: {"host-a"}}},
		},
	}
	f := &handlerFixture{
		repo:     &mocks.MockMeetingRepository{},
		registry: &mocks.MockPlatformRegistry{},
		queue:    &mocks.MockNotificationQueue{},
		config:   config,
	}
	f.handler = NewMeetingHandler(service.NewMeetingService(f.repo, f.registry, f.queue, config))
	return f
}

// call sends payload on subject and decodes the reply envelope.
func (f *handlerFixture) call(t *testing.T, subject string, payload any) Response {
	t.Helper()
	var data []byte
	switch p := payload.(type) {
	case nil:
	case string:
		data = []byte(p)
	default:
		var err error
		data, err = json.Marshal(p)
		require.NoError(t, err)
	}

	msg := mocks.NewMockMessage(data, subject)
	var reply []byte
	msg.On("HasReply").Return(true)
	msg.On("Respond", mock.Anything).Run(func(args mock.Arguments) {
		reply = args.Get(0).([]byte)
	}).Return(nil).Once()

	f.handler.HandleMessage(context.Background(), msg)
	msg.AssertExpectations(t)

	var response Response
	require.NoError(t, json.Unmarshal(reply, &response))
	return response
}

func storedMeeting() *models.Meeting {
	return &models.Meeting{
		ID: "m-1", Community: "openeuler", Platform: models.PlatformZoom, Topic: "Kernel weekly",
		Date: "2026-03-05", Start: "10:00", End: "11:00", HostID: "host-a", MID: "81234", Sequence: 1,
	}
}

func TestMeetingHandler_HandlerReady(t *testing.T) {
	assert.True(t, setupHandlerForTesting().handler.HandlerReady())
	assert.False(t, NewMeetingHandler(nil).HandlerReady())
}

func TestMeetingHandler_Create(t *testing.T) {
	f := setupHandlerForTesting()
	date := time.Now().In(f.config.Window.Location).AddDate(0, 0, 3).Format(constants.DateLayout)

	f.repo.On("ListOverlapping", mock.Anything, mock.Anything).Return([]*models.Meeting{}, nil)
	f.registry.On("Invoke", mock.Anything, domain.OperationCreate, mock.Anything).
		Return(&domain.DispatchResult{Status: 201, Meeting: &domain.MeetingResult{
			HostID: "host-a", MID: "81234", JoinURL: "https://zoom.us/j/81234",
		}}, nil).Once()
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(job models.NotificationJob) bool {
		return job.Action == models.ActionCreateMeeting
	})).Return(nil).Once()

	response := f.call(t, models.MeetingCreateSubject, models.CreateMeetingRequest{
		Sponsor: "alice", GroupName: "Kernel", Community: "openeuler", Topic: "Kernel weekly",
		Platform: models.PlatformZoom, Date: date, Start: "10:00", End: "11:00",
	})
	assert.Equal(t, constants.StatusSuccess, response.Code)
	assert.Equal(t, "success", response.Msg)

	data, ok := response.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "81234", data["mid"])
	assert.Equal(t, "host-a", data["host_id"])
	f.repo.AssertExpectations(t)
	f.queue.AssertExpectations(t)
}

func TestMeetingHandler_CreateFormValues(t *testing.T) {
	tests := []struct {
		name       string
		isRecord   any
		wantCode   int
		wantRecord bool
	}{
		{name: "string flag", isRecord: "1", wantCode: constants.StatusSuccess, wantRecord: true},
		{name: "string false", isRecord: "false", wantCode: constants.StatusSuccess},
		{name: "number flag", isRecord: 1, wantCode: constants.StatusSuccess, wantRecord: true},
		{name: "unparsable flag", isRecord: "maybe", wantCode: constants.StatusParameterError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupHandlerForTesting()
			date := time.Now().In(f.config.Window.Location).AddDate(0, 0, 3).Format(constants.DateLayout)

			var created *models.Meeting
			f.repo.On("ListOverlapping", mock.Anything, mock.Anything).Return([]*models.Meeting{}, nil).Maybe()
			f.registry.On("Invoke", mock.Anything, domain.OperationCreate, mock.Anything).
				Return(&domain.DispatchResult{Status: 201, Meeting: &domain.MeetingResult{
					HostID: "host-a", MID: "81234", JoinURL: "https://zoom.us/j/81234",
				}}, nil).Maybe()
			f.repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				created = args.Get(1).(*models.Meeting)
			}).Return(nil).Maybe()
			f.queue.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Maybe()

			response := f.call(t, models.MeetingCreateSubject, map[string]any{
				"sponsor": "alice", "group_name": "Kernel", "community": "openeuler",
				"topic": "Kernel weekly", "platform": models.PlatformZoom,
				"date": date, "start": "10:00", "end": "11:00", "is_record": tt.isRecord,
			})
			assert.Equal(t, tt.wantCode, response.Code)
			if tt.wantCode != constants.StatusSuccess {
				f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NotNil(t, created)
			assert.Equal(t, tt.wantRecord, created.IsRecord)
		})
	}
}

func TestMeetingHandler_Get(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		setup    func(f *handlerFixture)
		wantCode int
	}{
		{
			name:    "found",
			payload: MeetingIDRequest{ID: "m-1"},
			setup: func(f *handlerFixture) {
				f.repo.On("GetWithRevision", mock.Anything, "m-1").Return(storedMeeting(), uint64(3), nil)
			},
			wantCode: constants.StatusSuccess,
		},
		{
			name:    "deleted",
			payload: MeetingIDRequest{ID: "m-1"},
			setup: func(f *handlerFixture) {
				deleted := storedMeeting()
				deleted.IsDelete = true
				f.repo.On("GetWithRevision", mock.Anything, "m-1").Return(deleted, uint64(3), nil)
			},
			wantCode: constants.StatusMeetingNotExist,
		},
		{
			name:    "missing",
			payload: MeetingIDRequest{ID: "m-2"},
			setup: func(f *handlerFixture) {
				f.repo.On("GetWithRevision", mock.Anything, "m-2").
					Return(nil, uint64(0), domain.NewNotFoundError("meeting not found"))
			},
			wantCode: constants.StatusMeetingNotExist,
		},
		{
			name:     "malformed payload",
			payload:  "{not json",
			setup:    func(*handlerFixture) {},
			wantCode: constants.StatusParameterError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupHandlerForTesting()
			tt.setup(f)
			response := f.call(t, models.MeetingGetSubject, tt.payload)
			assert.Equal(t, tt.wantCode, response.Code)
			if tt.wantCode == constants.StatusSuccess {
				assert.Equal(t, "m-1", response.Data.(map[string]any)["id"])
			} else {
				assert.Nil(t, response.Data)
				assert.NotEmpty(t, response.Msg)
			}
		})
	}
}

func TestMeetingHandler_List(t *testing.T) {
	f := setupHandlerForTesting()
	f.repo.On("List", mock.Anything, models.ListMeetingsFilter{}).Return([]*models.Meeting(nil), nil).Once()
	f.repo.On("List", mock.Anything, models.ListMeetingsFilter{Community: "openeuler", OrderBy: models.OrderByCreateTime}).
		Return([]*models.Meeting{storedMeeting()}, nil).Once()

	response := f.call(t, models.MeetingListSubject, nil)
	assert.Equal(t, constants.StatusSuccess, response.Code)
	assert.Equal(t, []any{}, response.Data)

	response = f.call(t, models.MeetingListSubject, models.ListMeetingsFilter{Community: "openeuler", OrderBy: models.OrderByCreateTime})
	assert.Equal(t, constants.StatusSuccess, response.Code)
	assert.Len(t, response.Data, 1)

	response = f.call(t, models.MeetingListSubject, models.ListMeetingsFilter{OrderBy: "topic"})
	assert.Equal(t, constants.StatusParameterError, response.Code)
	f.repo.AssertExpectations(t)
}

func TestMeetingHandler_Participants(t *testing.T) {
	f := setupHandlerForTesting()
	meeting := storedMeeting()
	f.repo.On("GetWithRevision", mock.Anything, "m-1").Return(meeting, uint64(3), nil)
	f.registry.On("Invoke", mock.Anything, domain.OperationGetParticipants, meeting).
		Return(&domain.DispatchResult{Status: 200, Participants: &models.Participants{
			Total: 1, Participants: []models.Participant{{Name: "alice"}},
		}}, nil).Once()

	response := f.call(t, models.MeetingParticipantsSubject, MeetingIDRequest{ID: "m-1"})
	assert.Equal(t, constants.StatusSuccess, response.Code)
	data := response.Data.(map[string]any)
	assert.EqualValues(t, 1, data["total_records"])
}

func TestMeetingHandler_DeleteVendorFailure(t *testing.T) {
	f := setupHandlerForTesting()
	meeting := storedMeeting()
	meeting.Date = time.Now().In(f.config.Window.Location).AddDate(0, 0, 3).Format(constants.DateLayout)
	f.repo.On("GetWithRevision", mock.Anything, "m-1").Return(meeting, uint64(3), nil)
	f.registry.On("Invoke", mock.Anything, domain.OperationDelete, mock.Anything).
		Return(&domain.DispatchResult{Status: 404}, domain.NewVendorError(models.PlatformZoom, 404, `{"code":3001}`)).Once()

	response := f.call(t, models.MeetingDeleteSubject, MeetingIDRequest{ID: "m-1"})
	assert.Equal(t, constants.StatusMeetingFailedDelete, response.Code)
	assert.Contains(t, response.Msg, `{"code":3001}`)
	f.repo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestMeetingHandler_UnknownSubject(t *testing.T) {
	f := setupHandlerForTesting()
	response := f.call(t, "lfx.meeting-platform.meeting.rename", nil)
	assert.Equal(t, constants.StatusParameterError, response.Code)
	assert.Contains(t, response.Msg, "unknown subject")
}

func TestMeetingHandler_NoReply(t *testing.T) {
	f := setupHandlerForTesting()
	f.repo.On("GetWithRevision", mock.Anything, "m-1").Return(storedMeeting(), uint64(3), nil)

	msg := mocks.NewMockMessage([]byte(`{"id":"m-1"}`), models.MeetingGetSubject)
	msg.On("HasReply").Return(false)
	f.handler.HandleMessage(context.Background(), msg)
	msg.AssertNotCalled(t, "Respond", mock.Anything)
}

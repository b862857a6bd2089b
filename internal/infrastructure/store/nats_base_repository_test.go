// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
)

// TestEntity for testing the base repository
type TestEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestNatsBaseRepository_IsReady(t *testing.T) {
	assert.True(t, NewNatsBaseRepository[TestEntity](newMockNatsKeyValue(), "test").IsReady())
	assert.False(t, NewNatsBaseRepository[TestEntity](nil, "test").IsReady())
}

func TestNatsBaseRepository_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		setup    func(kv *mockNatsKeyValue)
		nilStore bool
		wantType domain.ErrorType
		wantErr  bool
	}{
		{
			name: "successful get",
			setup: func(kv *mockNatsKeyValue) {
				data, _ := json.Marshal(TestEntity{ID: "test-1", Name: "Test Entity"})
				_, _ = kv.Put(ctx, "test-key", data)
			},
		},
		{
			name:     "not found",
			setup:    func(kv *mockNatsKeyValue) {},
			wantErr:  true,
			wantType: domain.ErrorTypeNotFound,
		},
		{
			name:     "store failure",
			setup:    func(kv *mockNatsKeyValue) { kv.getError = errors.New("connection lost") },
			wantErr:  true,
			wantType: domain.ErrorTypeInternal,
		},
		{
			name: "corrupt entry",
			setup: func(kv *mockNatsKeyValue) {
				_, _ = kv.Put(ctx, "test-key", []byte("{"))
			},
			wantErr:  true,
			wantType: domain.ErrorTypeInternal,
		},
		{
			name:     "repository not ready",
			setup:    func(kv *mockNatsKeyValue) {},
			nilStore: true,
			wantErr:  true,
			wantType: domain.ErrorTypeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newMockNatsKeyValue()
			tt.setup(kv)
			repo := NewNatsBaseRepository[TestEntity](kv, "test")
			if tt.nilStore {
				repo = NewNatsBaseRepository[TestEntity](nil, "test")
			}

			result, revision, err := repo.GetWithRevision(ctx, "test-key")
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, result)
				assert.Equal(t, tt.wantType, domain.GetErrorType(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &TestEntity{ID: "test-1", Name: "Test Entity"}, result)
			assert.Equal(t, uint64(1), revision)
		})
	}
}

func TestNatsBaseRepository_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	kv := newMockNatsKeyValue()
	repo := NewNatsBaseRepository[TestEntity](kv, "test")

	require.NoError(t, repo.Create(ctx, "k", &TestEntity{ID: "1", Name: "first"}))
	_, revision, err := repo.GetWithRevision(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, "k", &TestEntity{ID: "1", Name: "second"}, revision))
	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Name)

	// a stale revision is a conflict
	err = repo.Update(ctx, "k", &TestEntity{ID: "1", Name: "third"}, revision)
	assert.Equal(t, domain.ErrorTypeConflict, domain.GetErrorType(err))

	err = repo.Update(ctx, "missing", &TestEntity{}, 1)
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))

	kv.putError = errors.New("disk full")
	err = repo.Create(ctx, "k2", &TestEntity{ID: "2"})
	assert.Equal(t, domain.ErrorTypeInternal, domain.GetErrorType(err))
}

func TestNatsBaseRepository_ListEntities(t *testing.T) {
	ctx := context.Background()
	kv := newMockNatsKeyValue()
	repo := NewNatsBaseRepository[TestEntity](kv, "test")

	entities, err := repo.ListEntities(ctx, "a/")
	require.NoError(t, err)
	assert.Empty(t, entities)

	require.NoError(t, repo.Create(ctx, "a/1", &TestEntity{ID: "1"}))
	require.NoError(t, repo.Create(ctx, "a/2", &TestEntity{ID: "2"}))
	require.NoError(t, repo.Create(ctx, "b/3", &TestEntity{ID: "3"}))

	entities, err = repo.ListEntities(ctx, "a/")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "1", entities[0].ID)
	assert.Equal(t, "2", entities[1].ID)

	_, _ = kv.Put(ctx, "a/broken", []byte("not json"))

	_, err = repo.ListEntities(ctx, "a/")
	assert.Equal(t, domain.ErrorTypeInternal, domain.GetErrorType(err))

	entities, err = repo.ListReadableEntities(ctx, "a/")
	require.NoError(t, err)
	assert.Len(t, entities, 2)

	keys, err := repo.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 4)

	kv.listError = errors.New("timeout")
	_, err = repo.ListKeys(ctx, "")
	assert.Equal(t, domain.ErrorTypeInternal, domain.GetErrorType(err))
}

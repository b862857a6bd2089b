// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// kvEntry is a stored value and the stream sequence that wrote it.
type kvEntry struct {
	key      string
	value    []byte
	revision uint64
}

func (e *kvEntry) Bucket() string                  { return KVStoreNameMeetings }
func (e *kvEntry) Key() string                     { return e.key }
func (e *kvEntry) Value() []byte                   { return e.value }
func (e *kvEntry) Revision() uint64                { return e.revision }
func (e *kvEntry) Created() time.Time              { return time.Time{} }
func (e *kvEntry) Delta() uint64                   { return 0 }
func (e *kvEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }

type keyList []string

func (l keyList) Keys() <-chan string {
	ch := make(chan string, len(l))
	for _, key := range l {
		ch <- key
	}
	close(ch)
	return ch
}

func (l keyList) Stop() error { return nil }

// mockNatsKeyValue is an in-memory INatsKeyValue. Like the server, every
// write takes the next bucket sequence as its revision.
type mockNatsKeyValue struct {
	mu       sync.Mutex
	entries  map[string]*kvEntry
	sequence uint64

	putError    error
	getError    error
	keyErrors   map[string]error
	listError   error
	updateError error
}

func newMockNatsKeyValue() *mockNatsKeyValue {
	return &mockNatsKeyValue{entries: make(map[string]*kvEntry)}
}

func (m *mockNatsKeyValue) write(key string, data []byte) uint64 {
	m.sequence++
	m.entries[key] = &kvEntry{key: key, value: data, revision: m.sequence}
	return m.sequence
}

func (m *mockNatsKeyValue) ListKeys(context.Context, ...jetstream.WatchOpt) (jetstream.KeyLister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	if len(m.entries) == 0 {
		return nil, jetstream.ErrNoKeysFound
	}
	keys := make(keyList, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *mockNatsKeyValue) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	if err, ok := m.keyErrors[key]; ok {
		return nil, err
	}
	entry, ok := m.entries[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return entry, nil
}

func (m *mockNatsKeyValue) Put(_ context.Context, key string, data []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putError != nil {
		return 0, m.putError
	}
	return m.write(key, data), nil
}

func (m *mockNatsKeyValue) Update(_ context.Context, key string, data []byte, revision uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateError != nil {
		return 0, m.updateError
	}
	entry, ok := m.entries[key]
	if !ok {
		return 0, jetstream.ErrKeyNotFound
	}
	if entry.revision != revision {
		return 0, errors.New("nats: wrong last sequence: 7")
	}
	return m.write(key, data), nil
}

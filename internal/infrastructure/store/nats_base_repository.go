// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
)

// NATS Key-Value store bucket names
const (
	KVStoreNameMeetings = "meeting-platform-meetings"
)

// tracerName is the instrumentation name for the store package.
const tracerName = "github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/store"

// INatsKeyValue is the subset of jetstream.KeyValue the repositories use.
type INatsKeyValue interface {
	ListKeys(context.Context, ...jetstream.WatchOpt) (jetstream.KeyLister, error)
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(context.Context, string, []byte) (uint64, error)
	Update(context.Context, string, []byte, uint64) (uint64, error)
}

// NatsBaseRepository provides the JSON entity operations shared by the KV repositories
type NatsBaseRepository[T any] struct {
	kvStore    INatsKeyValue
	entityName string // Used in error messages (e.g., "meeting")
}

// NewNatsBaseRepository creates a new base repository for NATS KV operations
func NewNatsBaseRepository[T any](kvStore INatsKeyValue, entityName string) *NatsBaseRepository[T] {
	return &NatsBaseRepository[T]{
		kvStore:    kvStore,
		entityName: entityName,
	}
}

// IsReady checks if the repository is ready for use
func (r *NatsBaseRepository[T]) IsReady() bool {
	return r.kvStore != nil
}

func (r *NatsBaseRepository[T]) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{
		attribute.String("db.system", "nats"),
		attribute.String("db.operation", operation),
		attribute.String("db.nats.entity", r.entityName),
	}, attrs...)
	return otel.Tracer(tracerName).Start(ctx, "nats.kv."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// fail marks span as failed and returns err.
func fail(span trace.Span, err error, status string) error {
	if status == "" {
		status = err.Error()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}

func (r *NatsBaseRepository[T]) unavailable() error {
	return domain.NewUnavailableError(fmt.Sprintf("%s repository is not available", r.entityName))
}

// writeError maps a KV write failure onto a domain error. Revision
// mismatches surface from the server as "wrong last sequence".
func (r *NatsBaseRepository[T]) writeError(ctx context.Context, span trace.Span, operation, key string, err error) error {
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return fail(span, domain.NewNotFoundError(fmt.Sprintf("%s not found", r.entityName), err), "not found")
	}
	if strings.Contains(err.Error(), "wrong last sequence") {
		return fail(span, domain.NewConflictError(fmt.Sprintf("%s has been modified", r.entityName), err), "conflict")
	}
	slog.ErrorContext(ctx, fmt.Sprintf("error during %s of %s in NATS KV", operation, r.entityName),
		logging.ErrKey, err, "key", key)
	return fail(span, domain.NewInternalError(fmt.Sprintf("failed to %s %s in store", operation, r.entityName), err), "")
}

// GetWithRevision retrieves an entity with its revision from NATS KV store
func (r *NatsBaseRepository[T]) GetWithRevision(ctx context.Context, key string) (*T, uint64, error) {
	ctx, span := r.startSpan(ctx, "get", attribute.String("db.nats.key", key))
	defer span.End()

	if !r.IsReady() {
		return nil, 0, fail(span, r.unavailable(), "")
	}

	entry, err := r.kvStore.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, fail(span, domain.NewNotFoundError(
				fmt.Sprintf("%s with key '%s' not found", r.entityName, key), err), "not found")
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error getting %s from NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		return nil, 0, fail(span, domain.NewInternalError(
			fmt.Sprintf("failed to retrieve %s from store", r.entityName), err), "")
	}

	var entity T
	if err := json.Unmarshal(entry.Value(), &entity); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error unmarshaling %s", r.entityName), logging.ErrKey, err, "key", key)
		return nil, 0, fail(span, domain.NewInternalError(
			fmt.Sprintf("failed to unmarshal %s data", r.entityName), err), "")
	}

	span.SetStatus(codes.Ok, "")
	return &entity, entry.Revision(), nil
}

// Get retrieves and unmarshals an entity from NATS KV store
func (r *NatsBaseRepository[T]) Get(ctx context.Context, key string) (*T, error) {
	entity, _, err := r.GetWithRevision(ctx, key)
	return entity, err
}

// Create stores a new entity under key
func (r *NatsBaseRepository[T]) Create(ctx context.Context, key string, entity *T) error {
	ctx, span := r.startSpan(ctx, "put", attribute.String("db.nats.key", key))
	defer span.End()

	if !r.IsReady() {
		return fail(span, r.unavailable(), "")
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fail(span, domain.NewInternalError(fmt.Sprintf("failed to marshal %s", r.entityName), err), "")
	}
	if _, err := r.kvStore.Put(ctx, key, data); err != nil {
		return r.writeError(ctx, span, "create", key, err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Update replaces the entity under key if its revision is still revision
func (r *NatsBaseRepository[T]) Update(ctx context.Context, key string, entity *T, revision uint64) error {
	ctx, span := r.startSpan(ctx, "update",
		attribute.String("db.nats.key", key),
		attribute.Int64("db.nats.revision", int64(revision)),
	)
	defer span.End()

	if !r.IsReady() {
		return fail(span, r.unavailable(), "")
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fail(span, domain.NewInternalError(fmt.Sprintf("failed to marshal %s", r.entityName), err), "")
	}
	if _, err := r.kvStore.Update(ctx, key, data, revision); err != nil {
		return r.writeError(ctx, span, "update", key, err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListKeys lists the keys starting with prefix. An empty prefix lists every key.
func (r *NatsBaseRepository[T]) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := r.startSpan(ctx, "list_keys", attribute.String("db.nats.prefix", prefix))
	defer span.End()

	if !r.IsReady() {
		return nil, fail(span, r.unavailable(), "")
	}

	lister, err := r.kvStore.ListKeys(ctx)
	if err != nil {
		// An empty bucket has no keys to list.
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			span.SetStatus(codes.Ok, "")
			return nil, nil
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error listing %s keys from NATS KV", r.entityName), logging.ErrKey, err)
		return nil, fail(span, domain.NewInternalError(
			fmt.Sprintf("failed to list %s keys from store", r.entityName), err), "")
	}

	var keys []string
	for key := range lister.Keys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	span.SetAttributes(attribute.Int("db.nats.keys_count", len(keys)))
	span.SetStatus(codes.Ok, "")
	return keys, nil
}

// ListEntities loads every entity whose key starts with prefix. It fails on
// the first entry that cannot be read, so callers never see a partial set.
// Keys removed after listing are skipped.
func (r *NatsBaseRepository[T]) ListEntities(ctx context.Context, prefix string) ([]*T, error) {
	return r.listEntities(ctx, prefix, false)
}

// ListReadableEntities is ListEntities for best-effort listings: entries that
// cannot be read are logged and skipped.
func (r *NatsBaseRepository[T]) ListReadableEntities(ctx context.Context, prefix string) ([]*T, error) {
	return r.listEntities(ctx, prefix, true)
}

func (r *NatsBaseRepository[T]) listEntities(ctx context.Context, prefix string, skipUnreadable bool) ([]*T, error) {
	keys, err := r.ListKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	entities := make([]*T, 0, len(keys))
	for _, key := range keys {
		entity, err := r.Get(ctx, key)
		switch {
		case err == nil:
			entities = append(entities, entity)
		case domain.GetErrorType(err) == domain.ErrorTypeNotFound:
			slog.DebugContext(ctx, fmt.Sprintf("%s removed while listing", r.entityName), "key", key)
		case skipUnreadable:
			slog.WarnContext(ctx, fmt.Sprintf("failed to get %s, skipping", r.entityName),
				"key", key, logging.ErrKey, err)
		default:
			return nil, err
		}
	}

	return entities, nil
}

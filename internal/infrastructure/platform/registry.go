// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/metrics"
)

const tracerName = "github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/platform"

// Registry implements the PlatformRegistry interface. Clients are bound per
// community and keyed by the platform they report.
type Registry struct {
	clients map[string]map[string]domain.VendorClient
	mu      sync.RWMutex
}

// NewRegistry creates an empty platform registry
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]map[string]domain.VendorClient),
	}
}

// Register binds client to community under client.Platform().
func (r *Registry) Register(community string, client domain.VendorClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byPlatform, ok := r.clients[community]
	if !ok {
		byPlatform = make(map[string]domain.VendorClient)
		r.clients[community] = byPlatform
	}
	byPlatform[client.Platform()] = client
}

// Client returns the client registered for community and platform.
func (r *Registry) Client(community, platform string) (domain.VendorClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[community][platform]
	if !ok {
		return nil, domain.NewValidationError(
			fmt.Sprintf("%s is not configured for %s", platform, community), domain.ErrPlatformNotConfigured)
	}
	return client, nil
}

// Dispatch resolves the client and invokes the operation named by action.
// A mismatched action fails before any vendor I/O.
func (r *Registry) Dispatch(ctx context.Context, community, platform string, action domain.Action) (*domain.DispatchResult, error) {
	if action == nil {
		return nil, domain.NewInternalError("nil action", domain.ErrActionMismatch)
	}
	op := action.Operation()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "platform.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("meeting.community", community),
			attribute.String("meeting.platform", platform),
			attribute.String("meeting.operation", string(op)),
		),
	)
	defer span.End()

	result, err := r.dispatch(ctx, community, platform, action)
	if err != nil {
		metrics.RecordDispatch(platform, string(op), metrics.OutcomeFailure)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "vendor dispatch failed",
			"community", community, "platform", platform, "operation", op, logging.ErrKey, err)
		return result, err
	}

	metrics.RecordDispatch(platform, string(op), metrics.OutcomeSuccess)
	span.SetAttributes(attribute.Int("http.response.status_code", result.Status))
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (r *Registry) dispatch(ctx context.Context, community, platform string, action domain.Action) (*domain.DispatchResult, error) {
	client, err := r.Client(community, platform)
	if err != nil {
		return nil, err
	}
	if action.Platform() != client.Platform() {
		return nil, domain.NewInternalError(
			fmt.Sprintf("%s action sent to %s client", action.Platform(), client.Platform()), domain.ErrActionMismatch)
	}

	result := &domain.DispatchResult{}
	switch action.Operation() {
	case domain.OperationCreate:
		result.Status, result.Meeting, err = client.Create(ctx, action)
	case domain.OperationUpdate:
		result.Status, err = client.Update(ctx, action)
	case domain.OperationDelete:
		result.Status, err = client.Delete(ctx, action)
	case domain.OperationGetParticipants:
		result.Status, result.Participants, err = client.GetParticipants(ctx, action)
	case domain.OperationGetVideo:
		result.VideoPath, err = client.GetVideo(ctx, action)
	default:
		return nil, domain.NewInternalError(
			fmt.Sprintf("unknown operation %q", action.Operation()), domain.ErrActionMismatch)
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

// Invoke builds the action variant the meeting's vendor expects for op and dispatches it.
func (r *Registry) Invoke(ctx context.Context, op domain.Operation, meeting *models.Meeting) (*domain.DispatchResult, error) {
	client, err := r.Client(meeting.Community, meeting.Platform)
	if err != nil {
		return nil, err
	}
	action, err := client.NewAction(op, meeting)
	if err != nil {
		return nil, domain.NewInternalError(fmt.Sprintf("cannot build %s action", op), err)
	}
	if action.Operation() != op {
		return nil, domain.NewInternalError(
			fmt.Sprintf("%s client built a %s action for %s", client.Platform(), action.Operation(), op), domain.ErrActionMismatch)
	}
	return r.Dispatch(ctx, meeting.Community, meeting.Platform, action)
}

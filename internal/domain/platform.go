// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

// Operation is one of the five vendor operation kinds.
type Operation string

const (
	OperationCreate          Operation = "create"
	OperationUpdate          Operation = "update"
	OperationDelete          Operation = "delete"
	OperationGetParticipants Operation = "get_participants"
	OperationGetVideo        Operation = "get_video"
)

// Action is an immutable, vendor specific payload for one operation.
// Every vendor package declares one concrete variant per operation kind.
type Action interface {
	Platform() string
	Operation() Operation
}

// MeetingResult is the normalized create and update answer of a vendor.
type MeetingResult struct {
	HostID  string `json:"host_id"`
	MID     string `json:"mid"`
	MMID    string `json:"m_mid,omitempty"`
	JoinURL string `json:"join_url"`
}

// VendorClient is a conferencing vendor bound to one community's credentials.
// Clients return the raw HTTP status of the vendor call alongside the result
// and never retry.
type VendorClient interface {
	// Platform returns the stable lowercase platform identifier.
	Platform() string

	// NewAction builds the variant this vendor expects for op.
	NewAction(op Operation, meeting *models.Meeting) (Action, error)

	Create(ctx context.Context, action Action) (int, *MeetingResult, error)
	Update(ctx context.Context, action Action) (int, error)
	Delete(ctx context.Context, action Action) (int, error)
	GetParticipants(ctx context.Context, action Action) (int, *models.Participants, error)

	// GetVideo discovers the recording of a meeting, downloads it and
	// returns the local path. An empty path means no recording qualified.
	GetVideo(ctx context.Context, action Action) (string, error)
}

// DispatchResult carries whichever result the dispatched operation produced.
type DispatchResult struct {
	Status       int
	Meeting      *MeetingResult
	Participants *models.Participants
	VideoPath    string
}

// PlatformRegistry resolves vendor clients and dispatches actions to them.
type PlatformRegistry interface {
	// Register binds a client to a community. The platform comes from the client.
	Register(community string, client VendorClient)

	// Client returns the client for a community and platform pair.
	Client(community, platform string) (VendorClient, error)

	// Dispatch validates action against the resolved client and invokes it.
	Dispatch(ctx context.Context, community, platform string, action Action) (*DispatchResult, error)

	// Invoke builds the vendor's action variant for op from meeting and dispatches it.
	Invoke(ctx context.Context, op Operation, meeting *models.Meeting) (*DispatchResult, error)
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/metrics"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

// HostAllocator finds host accounts that are free for a booking window.
type HostAllocator struct {
	MeetingRepository domain.MeetingRepository
	Config            ServiceConfig
}

// NewHostAllocator creates a new HostAllocator.
func NewHostAllocator(meetingRepository domain.MeetingRepository, config ServiceConfig) *HostAllocator {
	return &HostAllocator{
		MeetingRepository: meetingRepository,
		Config:            config,
	}
}

// FindAvailableHosts returns the sorted hosts of the community's platform pool
// that have no booking overlapping [start-buffer, end+buffer) on date.
// The meeting identified by excludeID is ignored.
func (a *HostAllocator) FindAvailableHosts(ctx context.Context, community, platform, date, start, end, excludeID string) ([]string, error) {
	pool := a.Config.HostPool(community, platform)
	if len(pool) == 0 {
		return nil, domain.NewValidationError("no hosts configured for " + community + "/" + platform)
	}

	searchStart, searchEnd, err := bufferedWindow(start, end)
	if err != nil {
		return nil, err
	}

	booked, err := a.MeetingRepository.ListOverlapping(ctx, models.OverlapQuery{
		Community: community,
		Platform:  platform,
		Date:      date,
		Start:     searchStart,
		End:       searchEnd,
		ExcludeID: excludeID,
	})
	if err != nil {
		return nil, err
	}

	committed := mapset.NewSet[string]()
	for _, m := range booked {
		committed.Add(m.HostID)
	}
	available := mapset.NewSet(pool...).Difference(committed)

	if available.Cardinality() == 0 {
		slog.WarnContext(ctx, "no host available",
			"community", community,
			"platform", platform,
			"date", date,
			"start", start,
			"end", end,
			"booked", len(booked),
		)
		metrics.RecordHostConflict(community, platform)
		return nil, domain.NewConflictError("no host available for the requested window").
			WithCode(constants.StatusMeetingDateConflict)
	}

	hosts := available.ToSlice()
	sort.Strings(hosts)
	return hosts, nil
}

// PickHost chooses one host uniformly at random.
func PickHost(hosts []string) (string, error) {
	if len(hosts) == 0 {
		return "", domain.NewConflictError("no host available").WithCode(constants.StatusMeetingDateConflict)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(hosts))))
	if err != nil {
		return "", domain.NewInternalError("failed to pick host", err)
	}
	return hosts[n.Int64()], nil
}

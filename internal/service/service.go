// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

type Service interface {
	ServiceReady() bool
}

// OperatingWindow bounds when meetings can be booked and modified.
type OperatingWindow struct {
	Location       *time.Location
	Opening        string // HH:MM
	Closing        string // HH:MM
	Quantum        time.Duration
	MaxAdvanceDays int
	// LeadTime is how long before start a meeting stops accepting updates and deletes.
	LeadTime time.Duration
}

// DefaultOperatingWindow returns 08:00-22:00 in 15 minute steps, 60 days ahead
// and a 60 minute lead time.
func DefaultOperatingWindow() OperatingWindow {
	loc, err := time.LoadLocation(constants.DefaultTimezone)
	if err != nil {
		loc = time.FixedZone("UTC+8", 8*60*60)
	}
	return OperatingWindow{
		Location:       loc,
		Opening:        constants.DefaultOpeningTime,
		Closing:        constants.DefaultClosingTime,
		Quantum:        constants.DefaultQuantum,
		MaxAdvanceDays: constants.DefaultMaxAdvanceDays,
		LeadTime:       constants.DefaultLeadTime,
	}
}

// CommunityConfig is the per-community booking configuration.
type CommunityConfig struct {
	// HostPools maps a platform identifier to its host accounts.
	HostPools map[string][]string
	// EtherpadPrefix is the required prefix of etherpad links, if any.
	EtherpadPrefix string
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	Window      OperatingWindow
	Communities map[string]CommunityConfig
}

// HostPool returns the configured hosts of a community and platform.
func (c ServiceConfig) HostPool(community, platform string) []string {
	cc, ok := c.Communities[community]
	if !ok {
		return nil
	}
	return cc.HostPools[platform]
}

// CommunityNames returns the configured communities.
func (c ServiceConfig) CommunityNames() []string {
	names := make([]string, 0, len(c.Communities))
	for name := range c.Communities {
		names = append(names, name)
	}
	return names
}

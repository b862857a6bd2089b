// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

var (
	urlPattern    = regexp.MustCompile(`(?i)(https?://|www\.)`)
	markupPattern = regexp.MustCompile(`<[^>]*>`)
)

// meetingFields is the subset of a request that is validated the same way on
// create and update.
type meetingFields struct {
	Sponsor   string
	GroupName string
	Community string
	Platform  string
	Topic     string
	Agenda    string
	Etherpad  string
	EmailList string
}

func (s *MeetingService) validateFields(f meetingFields) error {
	community, ok := s.Config.Communities[f.Community]
	if !ok {
		return domain.NewValidationError(fmt.Sprintf("community %q is not configured", f.Community))
	}
	if len(community.HostPools[f.Platform]) == 0 {
		return domain.NewValidationError(fmt.Sprintf("platform %q is not configured for %s", f.Platform, f.Community))
	}

	if err := checkLength("sponsor", f.Sponsor, 1, constants.MaxSponsorLength); err != nil {
		return err
	}
	if err := checkLength("group_name", f.GroupName, 1, constants.MaxGroupNameLength); err != nil {
		return err
	}
	if err := checkLength("topic", f.Topic, 1, constants.MaxTopicLength); err != nil {
		return err
	}
	if urlPattern.MatchString(f.Topic) || markupPattern.MatchString(f.Topic) || strings.ContainsAny(f.Topic, "\r\n") {
		return domain.NewValidationError("topic must be plain text")
	}
	if err := checkLength("agenda", f.Agenda, 0, constants.MaxAgendaLength); err != nil {
		return err
	}

	if f.Etherpad != "" {
		u, err := url.Parse(f.Etherpad)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return domain.NewValidationError("etherpad must be an https link")
		}
		if community.EtherpadPrefix != "" && !strings.HasPrefix(f.Etherpad, community.EtherpadPrefix) {
			return domain.NewValidationError(fmt.Sprintf("etherpad must start with %s", community.EtherpadPrefix))
		}
	}

	if len(f.EmailList) > constants.MaxEmailListLength {
		return domain.NewValidationError(fmt.Sprintf("email_list exceeds %d characters", constants.MaxEmailListLength))
	}
	for _, addr := range (&models.Meeting{EmailList: f.EmailList}).Recipients() {
		if len(addr) > constants.MaxEmailLength {
			return domain.NewValidationError(fmt.Sprintf("email %q exceeds %d characters", addr, constants.MaxEmailLength))
		}
		parsed, err := mail.ParseAddress(addr)
		if err != nil || parsed.Address != addr {
			return domain.NewValidationError(fmt.Sprintf("invalid email %q", addr))
		}
	}
	return nil
}

func checkLength(field, value string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(value)
	if n < minLen {
		return domain.NewValidationError(field + " is required")
	}
	if n > maxLen {
		return domain.NewValidationError(fmt.Sprintf("%s exceeds %d characters", field, maxLen))
	}
	return nil
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/service"
)

const testConfigYAML = `
nats:
  url: nats://nats.example:4222
operating_window:
  lead_time: 30m
smtp:
  host: smtp.example.org
  from: meeting@openeuler.org
communities:
  openeuler:
    etherpad_prefix: https://etherpad.openeuler.org/p/
    portal:
      en: https://www.openeuler.org/en/
      zh: https://www.openeuler.org/zh/
    zoom:
      account_id: acc
      client_id: cid
      client_secret: secret
      hosts: [host-b, host-a]
    tencent:
      hosts:
        t2: {app_id: "2", sdk_id: s, secret_id: i, secret_key: k}
        t1: {app_id: "1", sdk_id: s, secret_id: i, secret_key: k}
    recording:
      bucket: openeuler-records
      replay:
        api_url: https://replay.example.org/api
        url_prefix: https://replay.example.org/v/
  mindspore:
    welink:
      hosts:
        room-1: {account: a, password: p}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "Asia/Shanghai", cfg.OperatingWindow.Timezone)
	assert.Equal(t, "08:00", cfg.OperatingWindow.Opening)
	assert.Equal(t, "22:00", cfg.OperatingWindow.Closing)
	assert.Equal(t, 15*time.Minute, cfg.OperatingWindow.Quantum)
	assert.Equal(t, 60, cfg.OperatingWindow.MaxAdvanceDays)
	assert.Equal(t, 60*time.Minute, cfg.OperatingWindow.LeadTime)
	assert.Equal(t, queueJetStream, cfg.Notifications.Queue)
	assert.Equal(t, time.Hour, cfg.Recordings.Interval)
	assert.Empty(t, cfg.Communities)
	assert.False(t, cfg.hasRecordings())
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "nats://nats.example:4222", cfg.NATS.URL)
	assert.Equal(t, 30*time.Minute, cfg.OperatingWindow.LeadTime)
	assert.Equal(t, 25, cfg.SMTP.Port)
	require.Contains(t, cfg.Communities, "openeuler")

	openeuler := cfg.Communities["openeuler"]
	require.NotNil(t, openeuler.Zoom)
	assert.Equal(t, []string{"host-b", "host-a"}, openeuler.Zoom.Hosts)
	require.NotNil(t, openeuler.Tencent)
	assert.Equal(t, "1", openeuler.Tencent.Hosts["t1"].AppID)
	assert.Nil(t, openeuler.Welink)
	assert.Equal(t, "openeuler-records", openeuler.Recording.Bucket)
	assert.Equal(t, "https://replay.example.org/v/", openeuler.Recording.Replay.URLPrefix)
	assert.True(t, cfg.hasRecordings())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NATS_URL", "nats://env:4222")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("LEAD_TIME", "45m")
	t.Setenv("NOTIFICATION_QUEUE", queueMemory)
	t.Setenv("MEETING_PLATFORM_COMMUNITIES__OPENEULER__ZOOM__CLIENT_SECRET", "from-env")

	cfg, err := Load(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 45*time.Minute, cfg.OperatingWindow.LeadTime)
	assert.Equal(t, queueMemory, cfg.Notifications.Queue)
	require.NotNil(t, cfg.Communities["openeuler"].Zoom)
	assert.Equal(t, "from-env", cfg.Communities["openeuler"].Zoom.ClientSecret)
	assert.Equal(t, "cid", cfg.Communities["openeuler"].Zoom.ClientID)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name:  "missing file",
			setup: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.yaml") },
		},
		{
			name: "invalid smtp port",
			setup: func(t *testing.T) string {
				t.Setenv("SMTP_PORT", "twenty-five")
				return ""
			},
		},
		{
			name: "invalid lead time",
			setup: func(t *testing.T) string {
				t.Setenv("LEAD_TIME", "soon")
				return ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.setup(t))
			assert.Error(t, err)
		})
	}
}

func TestServiceConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfigYAML))
	require.NoError(t, err)
	window, err := operatingWindow(cfg.OperatingWindow)
	require.NoError(t, err)

	sc := serviceConfig(cfg, window, setupPlatformRegistry(cfg, window.Location))
	assert.Equal(t, 30*time.Minute, sc.Window.LeadTime)
	assert.Equal(t, "Asia/Shanghai", sc.Window.Location.String())
	assert.Equal(t, []string{"host-b", "host-a"}, sc.HostPool("openeuler", models.PlatformZoom))
	assert.Equal(t, []string{"t1", "t2"}, sc.HostPool("openeuler", models.PlatformTencent))
	assert.Empty(t, sc.HostPool("openeuler", models.PlatformWelink))
	assert.Equal(t, []string{"room-1"}, sc.HostPool("mindspore", models.PlatformWelink))
	assert.Equal(t, "https://etherpad.openeuler.org/p/", sc.Communities["openeuler"].EtherpadPrefix)
}

func TestServiceConfig_UnregisteredPlatformHasNoPool(t *testing.T) {
	cfg, err := Load(writeConfig(t, strings.Replace(testConfigYAML, "client_secret: secret", "client_secret: \"\"", 1)))
	require.NoError(t, err)
	require.NotNil(t, cfg.Communities["openeuler"].Zoom)
	require.Empty(t, cfg.Communities["openeuler"].Zoom.ClientSecret)
	window, err := operatingWindow(cfg.OperatingWindow)
	require.NoError(t, err)

	registry := setupPlatformRegistry(cfg, window.Location)
	sc := serviceConfig(cfg, window, registry)

	_, err = registry.Client("openeuler", models.PlatformZoom)
	assert.Error(t, err)
	assert.Empty(t, sc.HostPool("openeuler", models.PlatformZoom))
	assert.Equal(t, []string{"t1", "t2"}, sc.HostPool("openeuler", models.PlatformTencent))

	// allocation now rejects the booking as a validation failure
	allocator := service.NewHostAllocator(&mocks.MockMeetingRepository{}, sc)
	_, err = allocator.FindAvailableHosts(context.Background(), "openeuler", models.PlatformZoom, "2026-03-05", "10:00", "11:00", "")
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestOperatingWindow_InvalidTimezone(t *testing.T) {
	_, err := operatingWindow(OperatingWindowConfig{Timezone: "Mars/Olympus"})
	assert.Error(t, err)
}

func TestSetupPlatformRegistry(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	registry := setupPlatformRegistry(cfg, time.UTC)

	for _, tc := range []struct{ community, platform string }{
		{"openeuler", models.PlatformZoom},
		{"openeuler", models.PlatformTencent},
		{"mindspore", models.PlatformWelink},
	} {
		client, err := registry.Client(tc.community, tc.platform)
		require.NoError(t, err, "%s/%s", tc.community, tc.platform)
		assert.Equal(t, tc.platform, client.Platform())
	}

	_, err = registry.Client("mindspore", models.PlatformZoom)
	assert.Error(t, err)
}

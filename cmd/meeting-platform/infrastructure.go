// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/cover"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/email"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/platform"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/queue"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/replay"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/storage"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/tencent"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/video"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/welink"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/zoom"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/service"
)

const (
	queueJetStream = "jetstream"
	queueMemory    = "memory"

	// downloadTimeout bounds a whole recording download.
	downloadTimeout = 2 * time.Hour
)

// notificationQueue is a queue the serve command can both fill and drain.
type notificationQueue interface {
	domain.NotificationQueue
	Consume(ctx context.Context, handler domain.NotificationJobHandler) error
}

// setupNATS connects to the NATS server.
func setupNATS(config NATSConfig) (*nats.Conn, error) {
	slog.With("nats_url", config.URL).Info("attempting to connect to NATS")

	natsConn, err := nats.Connect(
		config.URL,
		nats.Name("lfx-v2-meeting-platform"),
		nats.Timeout(config.Timeout),
		nats.MaxReconnects(config.MaxReconnect),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.With(logging.ErrKey, err).Warn("disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.With("nats_url", nc.ConnectedUrl()).Info("reconnected to NATS")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			if sub != nil {
				slog.With(logging.ErrKey, err, "subject", sub.Subject, "queue", sub.Queue).Error("async NATS error")
				return
			}
			slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			slog.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.With("nats_url", config.URL).Info("NATS connection established")
	return natsConn, nil
}

// getKeyValueStore returns the meetings bucket, creating it on first start.
func getKeyValueStore(ctx context.Context, js jetstream.JetStream) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, store.KVStoreNameMeetings)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("failed to get key-value store %s: %w", store.KVStoreNameMeetings, err)
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      store.KVStoreNameMeetings,
		Description: "meetings booked by the meeting platform",
		History:     5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create key-value store %s: %w", store.KVStoreNameMeetings, err)
	}
	slog.With("bucket", store.KVStoreNameMeetings).Info("created key-value store")
	return kv, nil
}

// operatingWindow builds the booking rules from config.
func operatingWindow(config OperatingWindowConfig) (service.OperatingWindow, error) {
	loc, err := config.location()
	if err != nil {
		return service.OperatingWindow{}, err
	}
	return service.OperatingWindow{
		Location:       loc,
		Opening:        config.Opening,
		Closing:        config.Closing,
		Quantum:        config.Quantum,
		MaxAdvanceDays: config.MaxAdvanceDays,
		LeadTime:       config.LeadTime,
	}, nil
}

// serviceConfig derives the host pools of every community from its vendor
// accounts. A platform only gets a pool when registry holds its client, so a
// booking is never allocated a host it cannot be dispatched to.
func serviceConfig(config *Config, window service.OperatingWindow, registry *platform.Registry) service.ServiceConfig {
	communities := make(map[string]service.CommunityConfig, len(config.Communities))
	for name, community := range config.Communities {
		pools := make(map[string][]string)
		addPool := func(platformName string, hosts []string) {
			if len(hosts) == 0 {
				return
			}
			if _, err := registry.Client(name, platformName); err != nil {
				slog.Warn("host pool ignored, platform client not registered",
					"community", name, "platform", platformName, "hosts", len(hosts))
				return
			}
			pools[platformName] = hosts
		}
		if community.Zoom != nil {
			addPool(models.PlatformZoom, community.Zoom.Hosts)
		}
		if community.Tencent != nil {
			addPool(models.PlatformTencent, sortedKeys(community.Tencent.Hosts))
		}
		if community.Welink != nil {
			addPool(models.PlatformWelink, sortedKeys(community.Welink.Hosts))
		}
		communities[name] = service.CommunityConfig{
			HostPools:      pools,
			EtherpadPrefix: community.EtherpadPrefix,
		}
	}
	return service.ServiceConfig{Window: window, Communities: communities}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// setupPlatformRegistry registers one vendor client per community and platform.
func setupPlatformRegistry(config *Config, loc *time.Location) *platform.Registry {
	downloader := platform.NewDownloader(
		platform.NewHTTPClient(downloadTimeout),
		config.Recordings.TempDir,
		config.Recordings.DownloadRate,
	)

	registry := platform.NewRegistry()
	for name, community := range config.Communities {
		if zc := community.Zoom; zc != nil {
			if zc.AccountID == "" || zc.ClientID == "" || zc.ClientSecret == "" {
				slog.Warn("Zoom integration not configured - missing credentials",
					"community", name,
					"has_account_id", zc.AccountID != "",
					"has_client_id", zc.ClientID != "",
					"has_client_secret", zc.ClientSecret != "")
			} else {
				registry.Register(name, zoom.NewClient(zoom.Config{
					AccountID:    zc.AccountID,
					ClientID:     zc.ClientID,
					ClientSecret: zc.ClientSecret,
					Location:     loc,
				}, downloader))
				slog.Info("Zoom integration configured", "community", name, "hosts", len(zc.Hosts))
			}
		}

		if tc := community.Tencent; tc != nil && len(tc.Hosts) > 0 {
			hosts := make(map[string]tencent.HostCredentials, len(tc.Hosts))
			for id, host := range tc.Hosts {
				hosts[id] = tencent.HostCredentials{
					AppID:     host.AppID,
					SDKID:     host.SDKID,
					SecretID:  host.SecretID,
					SecretKey: host.SecretKey,
					HostKey:   host.HostKey,
				}
			}
			registry.Register(name, tencent.NewClient(tencent.Config{Hosts: hosts, Location: loc}, downloader))
			slog.Info("Tencent Meeting integration configured", "community", name, "hosts", len(hosts))
		}

		if wc := community.Welink; wc != nil && len(wc.Hosts) > 0 {
			hosts := make(map[string]welink.HostAccount, len(wc.Hosts))
			for id, host := range wc.Hosts {
				hosts[id] = welink.HostAccount{Account: host.Account, Password: host.Password}
			}
			registry.Register(name, welink.NewClient(welink.Config{Hosts: hosts, Location: loc}, downloader))
			slog.Info("WeLink integration configured", "community", name, "hosts", len(hosts))
		}
	}
	return registry
}

// setupNotifiers returns the email channel, or its no-op stand-in when SMTP
// is not configured, followed by the event bus.
func setupNotifiers(config *Config, natsConn *nats.Conn, loc *time.Location) ([]domain.Notifier, error) {
	var emailNotifier domain.Notifier
	if config.SMTP.Host == "" {
		slog.Warn("SMTP not configured - meeting emails are logged only")
		emailNotifier = email.NewNoOpNotifier()
	} else {
		portals := make(map[string]email.Portal, len(config.Communities))
		for name, community := range config.Communities {
			portals[name] = email.Portal{EN: community.Portal.EN, ZH: community.Portal.ZH}
		}
		notifier, err := email.NewSMTPNotifier(email.SMTPConfig{
			Host:     config.SMTP.Host,
			Port:     config.SMTP.Port,
			From:     config.SMTP.From,
			Username: config.SMTP.Username,
			Password: config.SMTP.Password,
			Location: loc,
			Portals:  portals,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up email notifier: %w", err)
		}
		slog.Info("SMTP email notifier configured", "host", config.SMTP.Host, "port", config.SMTP.Port)
		emailNotifier = notifier
	}

	return []domain.Notifier{emailNotifier, messaging.NewEventPublisher(natsConn)}, nil
}

// setupNotificationQueue returns the durable JetStream queue, or the
// in-process queue for single-instance deployments.
func setupNotificationQueue(ctx context.Context, config NotificationsConfig, js jetstream.JetStream) (notificationQueue, error) {
	switch config.Queue {
	case queueMemory:
		slog.Info("using in-memory notification queue", "capacity", config.Capacity)
		return queue.NewMemoryQueue(config.Capacity), nil
	case queueJetStream:
		q := messaging.NewJetStreamQueue(js)
		if err := q.Setup(ctx); err != nil {
			return nil, err
		}
		slog.Info("using JetStream notification queue", "stream", q.Stream, "consumer", q.Consumer)
		return q, nil
	}
	return nil, fmt.Errorf("unknown notification queue %q", config.Queue)
}

// setupRecordingPipeline binds every community with a bucket to the shared
// object storage and its own replay host.
func setupRecordingPipeline(
	config *Config,
	repo domain.MeetingRepository,
	registry domain.PlatformRegistry,
	window service.OperatingWindow,
) (*service.RecordingPipeline, error) {
	objectStorage, err := storage.NewS3Storage(storage.Config{
		Endpoint:  config.Storage.Endpoint,
		Region:    config.Storage.Region,
		AccessKey: config.Storage.AccessKey,
		SecretKey: config.Storage.SecretKey,
		PathStyle: config.Storage.PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up object storage: %w", err)
	}

	targets := make(map[string]service.RecordingTarget)
	for name, community := range config.Communities {
		if community.Recording.Bucket == "" {
			continue
		}
		rc := community.Recording.Replay
		targets[name] = service.RecordingTarget{
			Storage: objectStorage,
			Bucket:  community.Recording.Bucket,
			Replay: replay.NewClient(replay.Config{
				APIURL:    rc.APIURL,
				Token:     rc.Token,
				URLPrefix: rc.URLPrefix,
				Category:  rc.Category,
			}),
		}
		slog.Info("recording archival configured", "community", name, "bucket", community.Recording.Bucket)
	}

	renderer := cover.NewRenderer(cover.Config{
		BackgroundDir: config.Recordings.CoverBackgroundDir,
		Rasterizer:    config.Recordings.Rasterizer,
	})
	inspector := video.NewInspector(config.Recordings.InspectTimeout)

	return service.NewRecordingPipeline(repo, registry, renderer, inspector, targets, window), nil
}

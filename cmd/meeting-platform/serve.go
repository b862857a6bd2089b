// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/metrics"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/service"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/retry"
)

// gracefulShutdownSeconds should be higher than the NATS client request timeout.
const gracefulShutdownSeconds = 25

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve meeting requests over NATS and deliver notifications",
		Long: `Serve subscribes to the meeting request subjects, books meetings on the
vendors, and runs the notification worker. Health checks and Prometheus metrics are
served over HTTP.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := Load(cfgFile)
	if err != nil {
		return err
	}
	window, err := operatingWindow(cfg.OperatingWindow)
	if err != nil {
		return err
	}

	natsConn, err := setupNATS(cfg.NATS)
	if err != nil {
		return err
	}
	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	kv, err := getKeyValueStore(ctx, js)
	if err != nil {
		natsConn.Close()
		return err
	}

	notifiers, err := setupNotifiers(cfg, natsConn, window.Location)
	if err != nil {
		natsConn.Close()
		return err
	}
	notifications, err := setupNotificationQueue(ctx, cfg.Notifications, js)
	if err != nil {
		natsConn.Close()
		return err
	}

	registry := setupPlatformRegistry(cfg, window.Location)
	meetingService := service.NewMeetingService(
		store.NewNatsMeetingRepository(kv),
		registry,
		notifications,
		serviceConfig(cfg, window, registry),
	)
	meetingHandler := handlers.NewMeetingHandler(meetingService)
	worker := service.NewNotificationWorker(retry.Default, notifiers...)

	metrics.Register(prometheus.DefaultRegisterer)

	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	gracefulCloseWG := sync.WaitGroup{}
	gracefulCloseWG.Add(1)
	go func() {
		defer gracefulCloseWG.Done()
		if err := notifications.Consume(workerCtx, worker.HandleJob); err != nil {
			slog.With(logging.ErrKey, err).Error("notification worker stopped", logging.PriorityCritical())
		}
	}()

	httpServer := setupHTTPServer(cfg.HTTP, func() bool {
		return natsConn.IsConnected() && meetingHandler.HandlerReady()
	}, &gracefulCloseWG)

	subscription, err := natsConn.QueueSubscribe(models.MeetingPlatformSubjects, models.MeetingPlatformAPIQueue, func(msg *nats.Msg) {
		meetingHandler.HandleMessage(workerCtx, messaging.NewNatsMessage(msg))
	})
	if err != nil {
		stopWorker()
		natsConn.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", models.MeetingPlatformSubjects, err)
	}
	slog.With("subject", models.MeetingPlatformSubjects, "queue", models.MeetingPlatformAPIQueue).Info("subscribed to meeting requests")

	// Blocks until SIGINT or SIGTERM is received.
	<-ctx.Done()

	gracefulShutdown(httpServer, natsConn, subscription, &gracefulCloseWG, stopWorker)
	return nil
}

// gracefulShutdown stops taking requests, lets in-flight ones finish and
// drains the NATS connection.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, subscription *nats.Subscription, gracefulCloseWG *sync.WaitGroup, stopWorker context.CancelFunc) {
	slog.Info("graceful shutdown started")
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer cancel()

	if err := subscription.Drain(); err != nil {
		slog.With(logging.ErrKey, err).Error("error draining meeting request subscription")
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.With(logging.ErrKey, err).Error("http shutdown error")
	}
	stopWorker()

	done := make(chan struct{})
	go func() {
		gracefulCloseWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("graceful shutdown timed out waiting for workers")
	}

	if err := natsConn.Drain(); err != nil {
		slog.With(logging.ErrKey, err).Error("error draining NATS connection")
	}
	slog.Info("graceful shutdown complete")
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/service"
)

var (
	recordingsOnce     bool
	recordingsInterval time.Duration
)

func newRecordingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "Archive meeting recordings to object storage and the replay host",
		Long: `Recordings runs the recording pipeline for every community with a recording
bucket: each recorded meeting is downloaded from its vendor, uploaded to object
storage and published on the replay host. A run resumes every meeting at its
last completed stage.`,
		Args: cobra.NoArgs,
		RunE: runRecordings,
	}

	cmd.Flags().BoolVar(&recordingsOnce, "once", false, "run a single batch and exit")
	cmd.Flags().DurationVar(&recordingsInterval, "interval", 0, "time between batches (default from config)")

	return cmd
}

func runRecordings(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := Load(cfgFile)
	if err != nil {
		return err
	}
	if !cfg.hasRecordings() {
		return errors.New("no community has a recording bucket configured")
	}
	window, err := operatingWindow(cfg.OperatingWindow)
	if err != nil {
		return err
	}

	natsConn, err := setupNATS(cfg.NATS)
	if err != nil {
		return err
	}
	defer func() {
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
		}
	}()

	js, err := jetstream.New(natsConn)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	kv, err := getKeyValueStore(ctx, js)
	if err != nil {
		return err
	}

	pipeline, err := setupRecordingPipeline(cfg, store.NewNatsMeetingRepository(kv), setupPlatformRegistry(cfg, window.Location), window)
	if err != nil {
		return err
	}

	if recordingsOnce {
		return pipeline.Run(ctx)
	}

	interval := recordingsInterval
	if interval <= 0 {
		interval = cfg.Recordings.Interval
	}
	return runPeriodically(ctx, interval, pipeline)
}

// runPeriodically runs a batch right away and then every interval until ctx
// is done. A failed batch is logged and retried on the next tick.
func runPeriodically(ctx context.Context, interval time.Duration, pipeline *service.RecordingPipeline) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := pipeline.Run(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "recording batch failed", logging.ErrKey, err)
		}
		slog.InfoContext(ctx, "recording batch finished", "next_run", time.Now().Add(interval))

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

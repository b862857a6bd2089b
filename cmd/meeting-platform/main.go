// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the meeting platform: it books meetings on the conferencing
// vendors over NATS request/reply and archives their recordings.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/utils"
)

// Global flags.
var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "meeting-platform",
	Short: "Meeting booking and recording archival service",
	Long: `meeting-platform books meetings on Zoom, Tencent Meeting and WeLink for the
configured communities, notifies attendees and archives recordings to object
storage and the replay host.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// LOG_LEVEL is read by logging.InitStructureLogConfig
		if debug {
			if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
				return err
			}
		}
		logging.InitStructureLogConfig()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("CONFIG_FILE"), "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newRecordingsCommand())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry SDK")
		os.Exit(1)
	}

	err = rootCmd.ExecuteContext(ctx)
	if shutdownErr := shutdownOTel(context.Background()); shutdownErr != nil {
		slog.With(logging.ErrKey, shutdownErr).Error("error shutting down OpenTelemetry SDK")
	}
	if err != nil {
		slog.With(logging.ErrKey, err).Error("command failed")
		os.Exit(1)
	}
}

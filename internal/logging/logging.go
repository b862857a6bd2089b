// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package logging configures the process-wide slog logger and carries
// request-scoped log attributes in contexts.
package logging

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"slices"
	"strconv"

	slogotel "github.com/remychantenay/slog-otel"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey string

// ErrKey is the attribute key of logged errors.
const ErrKey = "error"

const (
	slogFields      ctxKey = "slog_fields"
	logLevelDefault        = slog.LevelDebug

	priorityCritical = "critical"

	// rotation of LOG_FILE
	logFileMaxSizeMB  = 100
	logFileMaxBackups = 5
	logFileMaxAgeDays = 30
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// contextHandler adds the attributes stored by AppendCtx to every record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

// AppendCtx returns a copy of parent whose log records carry attr. Contexts
// derived from the same parent never see each other's attributes.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	attrs, _ := parent.Value(slogFields).([]slog.Attr)
	return context.WithValue(parent, slogFields, append(slices.Clip(attrs), attr))
}

// InitStructureLogConfig installs the default JSON logger, configured by
// LOG_LEVEL, LOG_ADD_SOURCE and LOG_FILE, and returns its base handler.
func InitStructureLogConfig() slog.Handler {
	logOptions := &slog.HandlerOptions{Level: logLevelDefault}
	if level, ok := logLevels[os.Getenv("LOG_LEVEL")]; ok {
		logOptions.Level = level
	}

	addSource := os.Getenv("LOG_ADD_SOURCE")
	logOptions.AddSource = addSource == "true" || addSource == "t" || addSource == "1"

	logFile := os.Getenv("LOG_FILE")
	h := slog.NewJSONHandler(logWriter(logFile), logOptions)
	log.SetFlags(log.Llongfile)
	slog.SetDefault(slog.New(contextHandler{slogotel.OtelHandler{Next: h}}))

	slog.Info("log config",
		"logLevel", logOptions.Level,
		"addSource", logOptions.AddSource,
		"logFile", logFile,
	)

	return h
}

// logWriter returns stdout, or stdout plus a size-rotated file when path is set.
func logWriter(path string) io.Writer {
	if path == "" {
		return os.Stdout
	}

	maxSize := logFileMaxSizeMB
	if v, err := strconv.Atoi(os.Getenv("LOG_FILE_MAX_SIZE_MB")); err == nil && v > 0 {
		maxSize = v
	}

	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: logFileMaxBackups,
		MaxAge:     logFileMaxAgeDays,
		Compress:   true,
	})
}

// Priority creates a slog.Attr for error priority classification
func Priority(level string) slog.Attr {
	return slog.String("priority", level)
}

// PriorityCritical marks errors that must be escalated to the team.
func PriorityCritical() slog.Attr {
	return Priority(priorityCritical)
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/middleware"
)

// readiness reports whether the process can serve requests.
type readiness func() bool

// newHTTPMux serves the health checks and the Prometheus metrics.
func newHTTPMux(ready readiness) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK\n"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !ready() {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("OK\n"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(config HTTPConfig, ready readiness, gracefulCloseWG *sync.WaitGroup) *http.Server {
	var addr string
	if config.Bind == "*" {
		addr = ":" + config.Port
	} else {
		addr = config.Bind + ":" + config.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(middleware.RequestLoggerMiddleware()(newHTTPMux(ready)), "meeting-platform"),
		ReadHeaderTimeout: 3 * time.Second,
	}

	gracefulCloseWG.Add(1)
	go func() {
		defer gracefulCloseWG.Done()
		slog.With("addr", addr).Debug("starting http server, listening on port " + config.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
		}
	}()

	return httpServer
}

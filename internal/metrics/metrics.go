// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package metrics holds the Prometheus collectors of the meeting platform.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meeting_platform"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

var (
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_dispatch_total",
			Help:      "Count of vendor operations dispatched, by platform, operation and outcome.",
		},
		[]string{"platform", "operation", "outcome"},
	)
	pipelineStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recording_stage_total",
			Help:      "Count of recording pipeline stage runs, by community, stage and outcome.",
		},
		[]string{"community", "stage", "outcome"},
	)
	notificationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_total",
			Help:      "Count of notification deliveries, by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)
	hostConflictTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "host_conflict_total",
			Help:      "Count of bookings rejected because no host was free.",
		},
		[]string{"community", "platform"},
	)
)

var registerMetrics sync.Once

// Register all metrics with reg.
func Register(reg prometheus.Registerer) {
	registerMetrics.Do(func() {
		reg.MustRegister(dispatchTotal)
		reg.MustRegister(pipelineStageTotal)
		reg.MustRegister(notificationTotal)
		reg.MustRegister(hostConflictTotal)
	})
}

// RecordDispatch counts one vendor operation.
func RecordDispatch(platform, operation, outcome string) {
	dispatchTotal.WithLabelValues(platform, operation, outcome).Inc()
}

// RecordStage counts one recording pipeline stage run.
func RecordStage(community, stage, outcome string) {
	pipelineStageTotal.WithLabelValues(community, stage, outcome).Inc()
}

// RecordNotification counts one notification delivery.
func RecordNotification(channel, outcome string) {
	notificationTotal.WithLabelValues(channel, outcome).Inc()
}

// RecordHostConflict counts one rejected booking.
func RecordHostConflict(community, platform string) {
	hostConflictTotal.WithLabelValues(community, platform).Inc()
}

// Copyright (C) 2026 Photon Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the relay.
//
// Metrics cover the two relay operations (provision, append) and the
// outbound platform calls they make. Exposed on /metrics; all metric
// operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "photon"
	relaySubsystem   = "relay"
)

// RelayMetrics holds all Prometheus metrics for the relay service.
// Initialize once at startup via InitMetrics().
type RelayMetrics struct {
	// RequestsTotal counts relay requests.
	// Labels: operation (create_binding, append_note), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// PlatformCallDuration measures outbound document-platform call latency.
	// Labels: call (create_page, append_block)
	PlatformCallDuration *prometheus.HistogramVec

	// NotebooksProvisionedTotal counts documents created on the platform.
	NotebooksProvisionedTotal prometheus.Counter

	// ErrorsTotal counts failures by taxonomy class.
	// Labels: operation, error_code (invalid_request, no_binding,
	// provisioning_failed, relay_failed)
	ErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
var DefaultMetrics *RelayMetrics

// InitMetrics creates and registers all relay metrics. Call once at
// startup before serving traffic.
func InitMetrics() *RelayMetrics {
	m := &RelayMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: relaySubsystem,
			Name:      "requests_total",
			Help:      "Relay requests by operation and status.",
		}, []string{"operation", "status"}),

		PlatformCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: relaySubsystem,
			Name:      "platform_call_duration_seconds",
			Help:      "Latency of outbound document-platform calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"call"}),

		NotebooksProvisionedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: relaySubsystem,
			Name:      "notebooks_provisioned_total",
			Help:      "Notebook documents created on the platform.",
		}),

		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: relaySubsystem,
			Name:      "errors_total",
			Help:      "Relay failures by operation and error class.",
		}, []string{"operation", "error_code"}),
	}
	DefaultMetrics = m
	return m
}

// RecordRequest increments the request counter. Nil-safe so handlers
// can run in tests without metrics initialized.
func (m *RelayMetrics) RecordRequest(operation, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordError increments the taxonomy error counter. Nil-safe.
func (m *RelayMetrics) RecordError(operation, errorCode string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(operation, errorCode).Inc()
}

// RecordProvisioned increments the provisioned-notebook counter. Nil-safe.
func (m *RelayMetrics) RecordProvisioned() {
	if m == nil {
		return
	}
	m.NotebooksProvisionedTotal.Inc()
}

// ObservePlatformCall records the duration of one outbound platform
// call. Nil-safe.
func (m *RelayMetrics) ObservePlatformCall(call string, seconds float64) {
	if m == nil {
		return
	}
	m.PlatformCallDuration.WithLabelValues(call).Observe(seconds)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability holds the Prometheus metrics of the gateway.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// -----------------------------------------------------------------------------
// Label sanitizing (cardinality protection)
// -----------------------------------------------------------------------------

var knownResources = map[string]bool{
	"leads":     true,
	"users":     true,
	"sites":     true,
	"buildings": true,
	"units":     true,
	"owners":    true,
}

var knownClasses = map[string]bool{
	"success":    true,
	"network":    true,
	"server":     true,
	"auth":       true,
	"validation": true,
	"other":      true,
}

func sanitize(known map[string]bool, v string) string {
	if known[v] {
		return v
	}
	return "unknown"
}

// -----------------------------------------------------------------------------
// Gateway metrics
// -----------------------------------------------------------------------------

// GatewayMetrics records request outcomes and connectivity state.
//
// All methods are safe on a nil receiver, so components can run without
// metrics.
type GatewayMetrics struct {
	// requestsTotal labels: method, class.
	requestsTotal *prometheus.CounterVec

	// fallbackServedTotal labels: resource, kind ("read" or "write").
	fallbackServedTotal *prometheus.CounterVec

	// requestDurationSeconds labels: method.
	requestDurationSeconds *prometheus.HistogramVec

	backendReachable prometheus.Gauge
	fallbackActive   prometheus.Gauge

	// authTeardownsTotal counts 401-triggered session clears.
	authTeardownsTotal prometheus.Counter
}

// NewGatewayMetrics registers the gateway collectors with reg.
//
// # Inputs
//
//   - reg: Registry to register with. Tests pass prometheus.NewRegistry()
//     so that runs stay isolated.
//
// # Outputs
//
//   - *GatewayMetrics: Ready to record. Panics on duplicate registration,
//     like promauto.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	factory := promauto.With(reg)
	m := &GatewayMetrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "crm",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total gateway requests by method and outcome class",
			},
			[]string{"method", "class"},
		),
		fallbackServedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "crm",
				Subsystem: "gateway",
				Name:      "fallback_served_total",
				Help:      "Total responses served from fallback data by resource and kind",
			},
			[]string{"resource", "kind"},
		),
		requestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "crm",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Backend round-trip duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
			},
			[]string{"method"},
		),
		backendReachable: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "crm",
			Subsystem: "gateway",
			Name:      "backend_reachable",
			Help:      "1 when the last completed request reached the backend",
		}),
		fallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "crm",
			Subsystem: "gateway",
			Name:      "fallback_active",
			Help:      "1 while responses are served from fallback data",
		}),
		authTeardownsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "gateway",
			Name:      "auth_teardowns_total",
			Help:      "Total session clears triggered by 401 responses",
		}),
	}
	m.backendReachable.Set(1)
	return m
}

// RecordRequest counts one request and its round-trip time.
func (m *GatewayMetrics) RecordRequest(method, class string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, sanitize(knownClasses, class)).Inc()
	m.requestDurationSeconds.WithLabelValues(method).Observe(d.Seconds())
}

// RecordFallback counts one substituted response. kind is "read" or "write".
func (m *GatewayMetrics) RecordFallback(resource, kind string) {
	if m == nil {
		return
	}
	if kind != "read" {
		kind = "write"
	}
	m.fallbackServedTotal.WithLabelValues(sanitize(knownResources, resource), kind).Inc()
}

// RecordAuthTeardown counts one 401-triggered logout.
func (m *GatewayMetrics) RecordAuthTeardown() {
	if m == nil {
		return
	}
	m.authTeardownsTotal.Inc()
}

// SetConnectivity mirrors the tracker flags into gauges.
func (m *GatewayMetrics) SetConnectivity(reachable, usingFallback bool) {
	if m == nil {
		return
	}
	m.backendReachable.Set(boolToFloat(reachable))
	m.fallbackActive.Set(boolToFloat(usingFallback))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGatewayMetrics_RecordRequest(t *testing.T) {
	m := NewGatewayMetrics(prometheus.NewRegistry())

	m.RecordRequest("GET", "success", 10*time.Millisecond)
	m.RecordRequest("GET", "success", 20*time.Millisecond)
	m.RecordRequest("POST", "bogus-class", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "unknown")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDurationSeconds))
}

func TestGatewayMetrics_RecordFallback(t *testing.T) {
	m := NewGatewayMetrics(prometheus.NewRegistry())

	m.RecordFallback("leads", "read")
	m.RecordFallback("leads", "something")
	m.RecordFallback("reports", "read")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbackServedTotal.WithLabelValues("leads", "read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbackServedTotal.WithLabelValues("leads", "write")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbackServedTotal.WithLabelValues("unknown", "read")))
}

func TestGatewayMetrics_Connectivity(t *testing.T) {
	m := NewGatewayMetrics(prometheus.NewRegistry())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendReachable))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.fallbackActive))

	m.SetConnectivity(false, true)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.backendReachable))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbackActive))

	m.RecordAuthTeardown()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authTeardownsTotal))
}

func TestGatewayMetrics_NilSafe(t *testing.T) {
	var m *GatewayMetrics
	assert.NotPanics(t, func() {
		m.RecordRequest("GET", "success", time.Millisecond)
		m.RecordFallback("leads", "read")
		m.RecordAuthTeardown()
		m.SetConnectivity(true, false)
	})
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realestatecrm/crmgateway/internal/api"
	"github.com/realestatecrm/crmgateway/internal/connectivity"
	"github.com/realestatecrm/crmgateway/internal/models"
)

type fakeProber struct {
	up    atomic.Bool
	calls atomic.Int32
}

func (f *fakeProber) report(down string) api.HealthReport {
	f.calls.Add(1)
	if f.up.Load() {
		return api.HealthReport{HealthStatus: models.HealthStatus{Status: "UP"}, HTTPStatus: http.StatusOK}
	}
	return api.HealthReport{
		HealthStatus: models.HealthStatus{Status: api.HealthStatusDown, Message: down},
		HTTPStatus:   http.StatusServiceUnavailable,
	}
}

func (f *fakeProber) Check(context.Context) api.HealthReport {
	return f.report("Server is unreachable")
}

func (f *fakeProber) CheckProperties(context.Context) api.HealthReport {
	return f.report("Property service is unreachable")
}

func TestMonitor_ProbeOnceDrivesTracker(t *testing.T) {
	prober := &fakeProber{}
	tracker := connectivity.NewTracker()
	mon := NewMonitor(prober, tracker, Config{})

	report := mon.ProbeOnce(context.Background())
	assert.False(t, report.Healthy())
	assert.Equal(t, "Property service is unreachable", report.Properties.Message)
	assert.True(t, tracker.UsingFallback())
	assert.Equal(t, int32(2), prober.calls.Load())

	prober.up.Store(true)
	report = mon.ProbeOnce(context.Background())
	assert.True(t, report.Healthy())
	assert.False(t, tracker.UsingFallback())
	assert.True(t, tracker.Reachable())
}

// splitProber fails /health at once and answers /properties/health only
// after the main health check has returned.
type splitProber struct {
	serverDone chan struct{}
	propsErr   error
}

func (p *splitProber) Check(context.Context) api.HealthReport {
	defer close(p.serverDone)
	return api.HealthReport{
		HealthStatus: models.HealthStatus{Status: api.HealthStatusDown, Message: "Server is unreachable"},
		HTTPStatus:   http.StatusServiceUnavailable,
	}
}

func (p *splitProber) CheckProperties(ctx context.Context) api.HealthReport {
	<-p.serverDone
	p.propsErr = ctx.Err()
	return api.HealthReport{HealthStatus: models.HealthStatus{Status: "UP"}, HTTPStatus: http.StatusOK}
}

func TestMonitor_FailedServerCheckDoesNotCancelProperties(t *testing.T) {
	prober := &splitProber{serverDone: make(chan struct{})}
	tracker := connectivity.NewTracker()
	mon := NewMonitor(prober, tracker, Config{})

	report := mon.ProbeOnce(context.Background())

	assert.False(t, report.Healthy())
	assert.True(t, report.Properties.Up())
	assert.NoError(t, prober.propsErr)
	assert.True(t, tracker.UsingFallback())
}

func TestMonitor_CancelledRoundRecordsNothing(t *testing.T) {
	prober := &fakeProber{}
	tracker := connectivity.NewTracker()
	mon := NewMonitor(prober, tracker, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mon.ProbeOnce(ctx)
	assert.False(t, tracker.UsingFallback())
}

func TestMonitor_RunReportsUntilCancelled(t *testing.T) {
	prober := &fakeProber{}
	prober.up.Store(true)

	var mu sync.Mutex
	var reports []Report
	mon := NewMonitor(prober, connectivity.NewTracker(), Config{
		Interval: 5 * time.Millisecond,
		OnReport: func(r Report) {
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reports) >= 3
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewMonitor_Defaults(t *testing.T) {
	mon := NewMonitor(&fakeProber{}, connectivity.NewTracker(), Config{})
	assert.Equal(t, DefaultInterval, mon.interval)
}

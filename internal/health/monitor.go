// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package health periodically probes the backend and feeds the outcome into
// the connectivity tracker, so fallback mode ends without waiting for the
// next user request.
package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/realestatecrm/crmgateway/internal/api"
	"github.com/realestatecrm/crmgateway/pkg/logging"
)

// DefaultInterval is the probe period when none is configured.
const DefaultInterval = 30 * time.Second

// Prober runs the individual probes. *api.HealthService implements it.
type Prober interface {
	Check(ctx context.Context) api.HealthReport
	CheckProperties(ctx context.Context) api.HealthReport
}

// Recorder receives the probe verdict. *connectivity.Tracker implements it.
type Recorder interface {
	RecordSuccess()
	RecordFailure()
}

// Report is the outcome of one probe round.
type Report struct {
	Server     api.HealthReport
	Properties api.HealthReport
	At         time.Time
}

// Healthy reports whether the main health endpoint answered UP.
func (r Report) Healthy() bool { return r.Server.Up() }

// Config configures a Monitor.
type Config struct {
	// Interval defaults to DefaultInterval.
	Interval time.Duration

	// OnReport is called after every round. Optional.
	OnReport func(Report)

	Logger *logging.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Monitor probes both health endpoints on a fixed period.
//
// # Description
//
// Each round runs /health and /properties/health concurrently. Only the
// main endpoint decides connectivity: UP records a success on the
// tracker, anything else records a failure.
//
// # Thread Safety
//
// ProbeOnce may be called concurrently with Run.
type Monitor struct {
	prober   Prober
	recorder Recorder
	interval time.Duration
	onReport func(Report)
	logger   *logging.Logger
	now      func() time.Time
}

// NewMonitor creates a Monitor.
//
// # Example
//
//	mon := health.NewMonitor(client.Health, gw.Tracker(), health.Config{Interval: 15 * time.Second})
//	go mon.Run(ctx)
func NewMonitor(prober Prober, recorder Recorder, cfg Config) *Monitor {
	m := &Monitor{
		prober:   prober,
		recorder: recorder,
		interval: cfg.Interval,
		onReport: cfg.OnReport,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.logger == nil {
		m.logger = logging.Nop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.logger = m.logger.With("component", "health_monitor")
	return m
}

// ProbeOnce runs a single round and records the verdict.
//
// The two checks are independent: a failing /health does not cancel
// /properties/health, so each report reflects its own endpoint. Only ctx
// cancels them.
func (m *Monitor) ProbeOnce(ctx context.Context) Report {
	var report Report

	var g errgroup.Group
	g.Go(func() error {
		report.Server = m.prober.Check(ctx)
		return nil
	})
	g.Go(func() error {
		report.Properties = m.prober.CheckProperties(ctx)
		return nil
	})
	_ = g.Wait() // failures are carried in each HealthReport
	report.At = m.now()

	if ctx.Err() != nil {
		return report
	}

	if report.Healthy() {
		m.recorder.RecordSuccess()
	} else {
		m.recorder.RecordFailure()
		m.logger.Warn("backend health probe failed",
			"status", report.Server.Status,
			"http_status", report.Server.HTTPStatus,
			"message", report.Server.Message)
	}
	if !report.Properties.Up() {
		m.logger.Info("property service unhealthy", "message", report.Properties.Message)
	}

	if m.onReport != nil {
		m.onReport(report)
	}
	return report
}

// Run probes immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Debug("health monitor started", "interval", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.ProbeOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("health monitor stopped")
			return nil
		case <-ticker.C:
			m.ProbeOnce(ctx)
		}
	}
}

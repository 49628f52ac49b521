// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/realestatecrm/crmgateway/internal/api"
	"github.com/realestatecrm/crmgateway/internal/health"
	"github.com/realestatecrm/crmgateway/internal/retry"
)

// errBackendDown is returned by health when the main endpoint is not UP.
var errBackendDown = errors.New("backend is down")

func (a *app) newMonitor(interval time.Duration, onReport func(health.Report)) *health.Monitor {
	return health.NewMonitor(a.api.Health, a.gateway.Tracker(), health.Config{
		Interval: interval,
		OnReport: onReport,
		Logger:   a.logger,
	})
}

// =============================================================================
// status
// =============================================================================

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the backend and show connectivity and session state",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			a.api.Health.CheckServerHealth(ctx)
			st := a.gateway.Status()
			state := a.session.Restore()

			a.printer.Title("CRM client status")
			a.printer.KeyValues([][2]string{
				{"api base", st.BaseURL},
				{"dev mode", strconv.FormatBool(st.Dev)},
				{"reachable", strconv.FormatBool(st.Reachable)},
				{"fallback", strconv.FormatBool(st.UsingFallback)},
				{"failures", strconv.Itoa(st.ConsecutiveFailures)},
				{"last success", formatTime(st.LastSuccess)},
				{"signed in", strconv.FormatBool(state.Authenticated)},
				{"role", string(state.Role)},
			})
			return nil
		}),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}

// =============================================================================
// health
// =============================================================================

func newHealthCmd(opts *rootOptions) *cobra.Command {
	var attempts int
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the backend and property service health endpoints",
		Long: `Probes /health and /properties/health concurrently. With --retry the
main endpoint is probed up to N times before giving up.

Examples:
  crmctl health
  crmctl health --retry 5 --retry-delay 2s`,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			mon := a.newMonitor(0, nil)

			var report health.Report
			_, err := retry.Do(ctx, retry.Policy{
				MaxAttempts: attempts,
				Delay:       delay,
				OnRetry: func(attempt int, err error, wait time.Duration) {
					a.printer.Warning(fmt.Sprintf("Attempt %d failed, retrying in %s", attempt, wait))
				},
			}, func(ctx context.Context) (bool, error) {
				report = mon.ProbeOnce(ctx)
				if !report.Healthy() {
					return false, errBackendDown
				}
				return true, nil
			})
			if ctx.Err() != nil {
				return ctx.Err()
			}

			a.printer.Table([]string{"ENDPOINT", "STATUS", "HTTP", "MESSAGE"}, [][]string{
				healthRow(api.HealthPath, report.Server),
				healthRow(api.PropertiesHealthPath, report.Properties),
			})
			if err != nil {
				return err
			}
			a.printer.Success("Backend is healthy")
			return nil
		}),
	}
	cmd.Flags().IntVar(&attempts, "retry", 1, "number of attempts")
	cmd.Flags().DurationVar(&delay, "retry-delay", retry.DefaultDelay, "base delay between attempts")
	return cmd
}

func healthRow(path string, r api.HealthReport) []string {
	return []string{path, r.Status, strconv.Itoa(r.HTTPStatus), r.Message}
}

// =============================================================================
// watch
// =============================================================================

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Probe backend health periodically until interrupted",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if interval <= 0 {
				interval = a.cfg.HealthInterval
			}
			mon := a.newMonitor(interval, func(r health.Report) {
				line := fmt.Sprintf("%s  server=%s properties=%s",
					r.At.Local().Format(time.TimeOnly), r.Server.Status, r.Properties.Status)
				if r.Healthy() {
					a.printer.Success(line)
				} else {
					a.printer.Warning(line)
				}
			})
			return mon.Run(ctx)
		}),
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "probe period (default from config)")
	return cmd
}

// =============================================================================
// config
// =============================================================================

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: withApp(opts, func(_ context.Context, a *app, _ []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = a.printer.Writer().Write(data)
			return err
		}),
	}
}

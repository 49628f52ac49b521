// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/realestatecrm/crmgateway/internal/models"
	"github.com/realestatecrm/crmgateway/internal/transport"
)

// Health probe paths.
const (
	HealthPath           = "/health"
	PropertiesHealthPath = "/properties/health"
)

// HealthStatusDown is reported when a probe fails.
const HealthStatusDown = "DOWN"

// HealthReport is the outcome of one probe.
type HealthReport struct {
	models.HealthStatus
	HTTPStatus int
	StatusText string
}

// Up reports whether the probe reached a healthy backend.
func (r HealthReport) Up() bool {
	return r.HTTPStatus < 400 && r.Status != HealthStatusDown
}

// HealthService probes the backend.
type HealthService struct{ c *Client }

// Check probes /health. It never fails: an unreachable backend is
// reported as DOWN with status 503.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	return s.probe(ctx, HealthPath, "Server is unreachable")
}

// CheckProperties probes /properties/health the same way.
func (s *HealthService) CheckProperties(ctx context.Context) HealthReport {
	return s.probe(ctx, PropertiesHealthPath, "Property service is unreachable")
}

// CheckServerHealth probes /health and sets both connectivity flags from
// the outcome: success clears fallback mode, any failure enables it.
func (s *HealthService) CheckServerHealth(ctx context.Context) bool {
	_, err := s.c.gw.Do(ctx, &transport.Request{Method: http.MethodGet, Path: HealthPath, NoFallback: true})
	tracker := s.c.gw.Tracker()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			tracker.RecordFailure()
		}
		return false
	}
	tracker.RecordSuccess()
	return true
}

func (s *HealthService) probe(ctx context.Context, path, downMessage string) HealthReport {
	resp, err := s.c.gw.Do(ctx, &transport.Request{Method: http.MethodGet, Path: path, NoFallback: true})
	if err != nil {
		return HealthReport{
			HealthStatus: models.HealthStatus{Status: HealthStatusDown, Message: downMessage},
			HTTPStatus:   http.StatusServiceUnavailable,
			StatusText:   "Service Unavailable",
		}
	}

	report := HealthReport{HTTPStatus: resp.Status, StatusText: resp.StatusText}
	if err := resp.Decode(&report.HealthStatus); err != nil || report.Status == "" {
		report.Status = "UP"
	}
	return report
}

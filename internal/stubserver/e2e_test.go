// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stubserver_test

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realestatecrm/crmgateway/internal/api"
	"github.com/realestatecrm/crmgateway/internal/fallback"
	"github.com/realestatecrm/crmgateway/internal/gateway"
	"github.com/realestatecrm/crmgateway/internal/models"
	"github.com/realestatecrm/crmgateway/internal/session"
	"github.com/realestatecrm/crmgateway/internal/stubserver"
	"github.com/realestatecrm/crmgateway/internal/transport"
)

type stack struct {
	stub      *stubserver.Server
	api       *api.Client
	session   *session.Session
	store     *session.MemoryStore
	redirects *atomic.Int32
}

func newStack(t *testing.T, opts stubserver.Options) *stack {
	t.Helper()
	stub := stubserver.New(opts)
	httpSrv := httptest.NewServer(stub.Handler())
	t.Cleanup(httpSrv.Close)

	store := session.NewMemoryStore()
	sess := session.New(store, nil)
	redirects := &atomic.Int32{}

	gw, err := gateway.New(gateway.Options{
		Sender:    transport.New(transport.Config{BaseURL: httpSrv.URL + stubserver.APIPrefix, Timeout: 2 * time.Second}),
		Session:   sess,
		Navigator: gateway.NavigatorFunc(func() { redirects.Add(1) }),
	})
	require.NoError(t, err)

	return &stack{stub: stub, api: api.New(gw, sess), session: sess, store: store, redirects: redirects}
}

func TestEndToEnd_OutageAndRecovery(t *testing.T) {
	s := newStack(t, stubserver.Options{})
	ctx := context.Background()
	tracker := s.api.Gateway().Tracker()

	created, err := s.api.Leads.Create(ctx, models.CreateLeadRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, transport.SourceBackend, created.Source)
	assert.Equal(t, models.LeadStatusNew, created.Value.Status)

	online, err := s.api.Leads.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, online.Value, 3)

	s.stub.SetDown(true)

	offline, err := s.api.Leads.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, transport.SourceFallback, offline.Source)
	assert.Equal(t, s.api.Gateway().Dataset().Leads(), offline.Value)
	assert.True(t, tracker.UsingFallback())

	sim, err := s.api.Owners.Create(ctx, models.CreateOwnerRequest{
		Name: "Acme", ContactPerson: "Abebe", Email: "abebe@example.com", Phone: "+251900000000",
	})
	require.NoError(t, err)
	assert.Equal(t, transport.SourceSimulated, sim.Source)
	assert.Equal(t, "Acme", sim.Value.Name)

	report := s.api.Health.Check(ctx)
	assert.Equal(t, api.HealthStatusDown, report.Status)

	s.stub.SetDown(false)
	assert.True(t, s.api.Health.CheckServerHealth(ctx))
	assert.False(t, tracker.UsingFallback())

	owners, err := s.api.Owners.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, transport.SourceBackend, owners.Source)
	assert.Len(t, owners.Value, 2, "simulated writes never reach the backend")
}

func TestEndToEnd_BackendValidation(t *testing.T) {
	s := newStack(t, stubserver.Options{})
	ctx := context.Background()

	_, err := s.api.Buildings.Create(ctx, models.CreateBuildingRequest{
		Name: "Tower C", FloorCount: 4, TotalAreaSqm: 900, SiteID: "no-such-site",
	})
	var verr *gateway.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Site not found", verr.Message)
	assert.False(t, s.api.Gateway().Tracker().UsingFallback())

	_, err = s.api.Leads.Assign(ctx, fallback.MockID(401), "nobody")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "User not found", verr.Message)

	assigned, err := s.api.Leads.Assign(ctx, fallback.MockID(401), fallback.MockID(503))
	require.NoError(t, err)
	assert.Equal(t, fallback.MockID(503), assigned.Value.AssignedTo)
}

func TestEndToEnd_AuthTeardown(t *testing.T) {
	s := newStack(t, stubserver.Options{RequireAuth: true})
	ctx := context.Background()

	_, err := s.api.Auth.Login(ctx, models.LoginRequest{Username: "sales1", Password: stubserver.DefaultPassword})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSales, s.session.Role())

	_, err = s.api.Units.GetAll(ctx, models.UnitFilter{Type: models.UnitTypeOffice})
	require.NoError(t, err)

	s.stub.RevokeTokens()
	_, err = s.api.Leads.GetAll(ctx)
	var authErr *gateway.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 0, s.store.Keys())
	assert.Equal(t, int32(1), s.redirects.Load())
	assert.False(t, s.api.Gateway().Tracker().UsingFallback())
}

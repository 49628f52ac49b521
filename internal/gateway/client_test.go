// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realestatecrm/crmgateway/internal/fallback"
	"github.com/realestatecrm/crmgateway/internal/models"
	"github.com/realestatecrm/crmgateway/internal/observability"
	"github.com/realestatecrm/crmgateway/internal/session"
	"github.com/realestatecrm/crmgateway/internal/transport"
	"github.com/realestatecrm/crmgateway/pkg/logging"
)

// =============================================================================
// Test helpers
// =============================================================================

// fakeSender answers every request with the next scripted outcome and
// records what it was sent.
type fakeSender struct {
	mu       sync.Mutex
	outcomes []func(*transport.Request) (*transport.Response, error)
	requests []*transport.Request
}

func (f *fakeSender) Send(_ context.Context, req *transport.Request) (*transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.outcomes) == 0 {
		return ok(`{}`)(req)
	}
	next := f.outcomes[0]
	if len(f.outcomes) > 1 {
		f.outcomes = f.outcomes[1:]
	}
	return next(req)
}

func (f *fakeSender) last() *transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func ok(body string) func(*transport.Request) (*transport.Response, error) {
	return func(*transport.Request) (*transport.Response, error) {
		return &transport.Response{Status: 200, StatusText: "OK", Data: json.RawMessage(body), Source: transport.SourceBackend}, nil
	}
}

func refused() func(*transport.Request) (*transport.Response, error) {
	return func(req *transport.Request) (*transport.Response, error) {
		return nil, &transport.Error{Kind: transport.KindNetwork, Code: transport.CodeConnRefused, Method: req.Method, Path: req.Path}
	}
}

func status(code int, body string) func(*transport.Request) (*transport.Response, error) {
	return func(req *transport.Request) (*transport.Response, error) {
		kind := transport.KindHTTP4xx
		if code >= 500 {
			kind = transport.KindHTTP5xx
		}
		var raw json.RawMessage
		if body != "" {
			raw = json.RawMessage(body)
		}
		return nil, &transport.Error{Kind: kind, Status: code, Body: raw, Method: req.Method, Path: req.Path}
	}
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, sender *fakeSender, mutate func(*Options)) *Client {
	t.Helper()
	opts := Options{
		Sender:  sender,
		Dataset: fallback.NewDataset(testNow),
		Now:     func() time.Time { return testNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

// =============================================================================
// Fallback reads and writes
// =============================================================================

func TestDo_FallbackReadReturnsFullCollection(t *testing.T) {
	dataset := fallback.NewDataset(testNow)
	paths := []string{"/leads", "/users", "/properties/sites", "/properties/buildings", "/properties/units", "/properties/owners"}

	for _, failure := range map[string]func(*transport.Request) (*transport.Response, error){
		"network": refused(),
		"server":  status(503, `{"error":"down"}`),
	} {
		for _, path := range paths {
			sender := &fakeSender{outcomes: []func(*transport.Request) (*transport.Response, error){failure}}
			c := newTestClient(t, sender, func(o *Options) { o.Dataset = dataset })

			resp, err := c.Do(context.Background(), &transport.Request{Path: path})
			require.NoError(t, err, path)
			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, StatusTextMockData, resp.StatusText)
			assert.Equal(t, transport.SourceFallback, resp.Source)
			assert.JSONEq(t, string(dataset.Resolve(path, nil)), string(resp.Data), path)
			assert.True(t, c.Tracker().UsingFallback())
			assert.False(t, c.Tracker().Reachable())
		}
	}
}

func TestDo_FallbackSingleRead(t *testing.T) {
	sender := &fakeSender{outcomes: []func(*transport.Request) (*transport.Response, error){refused()}}
	c := newTestClient(t, sender, nil)

	resp, err := c.Do(context.Background(), &transport.Request{Path: "/leads/" + fallback.MockID(401)})
	require.NoError(t, err)
	var lead models.Lead
	require.NoError(t, resp.Decode(&lead))
	assert.Equal(t, fallback.MockID(401), lead.ID)

	resp, err = c.Do(context.Background(), &transport.Request{Path: "/properties/owners/does-not-exist"})
	require.NoError(t, err)
	assert.Equal(t, "null", string(resp.Data))
}

func TestDo_FailedPostIsSynthesized(t *testing.T) {
	sender := &fakeSender{outcomes: []func(*transport.Request) (*transport.Response, error){status(502, "")}}
	c := newTestClient(t, sender, nil)

	resp, err := c.Do(context.Background(), &transport.Request{
		Method: http.MethodPost,
		Path:   "/leads",
		Body:   models.CreateLeadRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusTextSimulated, resp.StatusText)
	assert.Equal(t, transport.SourceSimulated, resp.Source)

	var env map[string]any
	require.NoError(t, resp.Decode(&env))
	assert.NotEmpty(t, env["id"])
	assert.NotEmpty(t, env["createdAt"])
	assert.Equal(t, true, env["success"])
	assert.Equal(t, "Ada", env["firstName"])
}

func TestDo_NoFallbackRequestReturnsError(t *testing.T) {
	sender := &fakeSender{outcomes: []func(*transport.Request) (*transport.Response, error){refused()}}
	c := newTestClient(t, sender, nil)

	_, err := c.Do(context.Background(), &transport.Request{Path: "/health", NoFallback: true})
	require.Error(t, err)
	assert.Equal(t, ClassNetwork, Classify(err))
	assert.True(t, c.Tracker().UsingFallback())
}

// =============================================================================
// Validation, auth, other
// =============================================================================

func TestDo_ValidationNeverFaked(t *testing.T) {
	for _, inFallback := range []bool{false, true} {
		sender := &fakeSender{outcomes: []func(*transport.Request) (*transport.Response, error){
			status(400, `{"message":"Name is required"}`),
		}}
		c := newTestClient(t, sender, nil)
		c.Tracker().SetFallbackMode(inFallback)

		_, err := c.Do(context.Background(), &transport.Request{Method: http.MethodPost, Path: "/properties/sites", Body: map[string]string{}})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Name is required", verr.Error())
		assert.Equal(t, inFallback, c.Tracker().UsingFallback(), "validation must not change connectivity")
	}
}

func TestDo_UnauthorizedClearsSessionEachTime(t *testing.T) {
	store := session.NewMemoryStore()
	sess := session.New(store, nil)

	redirects := 0
	sender := &fakeSender{outcomes: []func(*transport.Request) (*transport.Response, error){status(401, "")}}
	c := newTestClient(t, sender, func(o *Options) {
		o.Session = sess
		o.Navigator = NavigatorFunc(func() { redirects++ })
	})

	for i := 1; i <= 2; i++ {
		for _, key := range session.AllKeys {
			require.NoError(t, store.Set(key, "value-"+key))
		}

		_, err := c.Do(context.Background(), &transport.Request{Path: "/leads"})
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, 0, store.Keys(), "attempt %d", i)
		assert.Equal(t, i, redirects)
	}
	assert.False(t, c.Tracker().UsingFallback())
}

func TestDo_OtherErrorsPropagateUnchanged(t *testing.T) {
	notFound := &transport.Error{Kind: transport.KindHTTP4xx, Status: 404, Method: "GET", Path: "/leads/x"}
	sender := &fakeSender{outcomes: []func(*transport.Request) (*transport.Response, error){
		func(*transport.Request) (*transport.Response, error) { return nil, notFound },
	}}
	c := newTestClient(t, sender, nil)

	_, err := c.Do(context.Background(), &transport.Request{Path: "/leads/x"})
	assert.Same(t, notFound, err)
	assert.True(t, c.Tracker().Reachable())
	assert.False(t, c.Tracker().UsingFallback())
}

func TestDo_RecoveryAfterFailures(t *testing.T) {
	sender := &fakeSender{outcomes: []func(*transport.Request) (*transport.Response, error){
		refused(), status(500, ""), ok(`[]`),
	}}
	c := newTestClient(t, sender, nil)

	for i := 0; i < 2; i++ {
		_, err := c.Do(context.Background(), &transport.Request{Path: "/leads"})
		require.NoError(t, err)
	}
	assert.True(t, c.Tracker().UsingFallback())

	resp, err := c.Do(context.Background(), &transport.Request{Path: "/leads"})
	require.NoError(t, err)
	assert.Equal(t, transport.SourceBackend, resp.Source)

	snap := c.Tracker().Snapshot()
	assert.True(t, snap.Reachable)
	assert.False(t, snap.UsingFallback)
	assert.False(t, c.Status().UsingFallback)
}

// =============================================================================
// Request preparation
// =============================================================================

func TestDo_AttachesBearerToken(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Set(session.KeyToken, "legacy-token"))
	sender := &fakeSender{}
	c := newTestClient(t, sender, func(o *Options) { o.Session = session.New(store, nil) })

	_, err := c.Do(context.Background(), &transport.Request{Path: "/leads"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer legacy-token", sender.last().Header.Get("Authorization"))

	require.NoError(t, store.Delete(session.KeyToken))
	_, err = c.Do(context.Background(), &transport.Request{Path: "/leads"})
	require.NoError(t, err)
	assert.Empty(t, sender.last().Header.Get("Authorization"))
}

func TestDo_DevCacheBusting(t *testing.T) {
	sender := &fakeSender{}
	c := newTestClient(t, sender, func(o *Options) { o.Dev = true })
	ctx := context.Background()

	original := &transport.Request{Path: "/leads", Query: url.Values{"page": {"1"}}}
	_, err := c.Do(ctx, original)
	require.NoError(t, err)
	first := sender.last().Query
	assert.Equal(t, "1", first.Get("page"))
	require.NotEmpty(t, first.Get(cacheBustParam))
	assert.Empty(t, original.Query.Get(cacheBustParam), "caller's request must not be modified")

	_, err = c.Do(ctx, &transport.Request{Path: "/leads"})
	require.NoError(t, err)
	second := sender.last().Query.Get(cacheBustParam)

	a, _ := strconv.ParseInt(first.Get(cacheBustParam), 10, 64)
	b, _ := strconv.ParseInt(second, 10, 64)
	assert.Greater(t, b, a, "cache-bust values must increase even with a frozen clock")

	_, err = c.Do(ctx, &transport.Request{Path: "/properties/units"})
	require.NoError(t, err)
	assert.Empty(t, sender.last().Query.Get(cacheBustParam))

	_, err = c.Do(ctx, &transport.Request{Method: http.MethodPost, Path: "/leads"})
	require.NoError(t, err)
	assert.Empty(t, sender.last().Query.Get(cacheBustParam))
}

func TestDo_NoCacheBustingOutsideDev(t *testing.T) {
	sender := &fakeSender{}
	c := newTestClient(t, sender, nil)
	_, err := c.Do(context.Background(), &transport.Request{Path: "/leads"})
	require.NoError(t, err)
	assert.Empty(t, sender.last().Query.Get(cacheBustParam))
}

// =============================================================================
// Observability
// =============================================================================

func TestDo_RecordsMetricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewGatewayMetrics(reg)
	exporter := logging.NewBufferedExporter()
	logger := logging.New(logging.Config{Quiet: true, Exporter: exporter, Level: logging.LevelDebug})

	sender := &fakeSender{outcomes: []func(*transport.Request) (*transport.Response, error){refused(), ok(`[]`)}}
	c := newTestClient(t, sender, func(o *Options) {
		o.Metrics = metrics
		o.Logger = logger
	})

	_, err := c.Do(context.Background(), &transport.Request{Path: "/leads"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, gathered(t, reg, "crm_gateway_backend_reachable"))
	assert.Equal(t, 1.0, gathered(t, reg, "crm_gateway_fallback_active"))

	_, err = c.Do(context.Background(), &transport.Request{Path: "/leads"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, gathered(t, reg, "crm_gateway_fallback_served_total"))
	assert.Equal(t, 2.0, gathered(t, reg, "crm_gateway_requests_total"))
	assert.Equal(t, 1.0, gathered(t, reg, "crm_gateway_backend_reachable"))
	assert.Equal(t, 0.0, gathered(t, reg, "crm_gateway_fallback_active"))

	require.Eventually(t, func() bool {
		for _, msg := range exporter.Messages() {
			if msg == "Server connectivity issue, enabling fallback mode" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

// gathered sums every series of a counter or gauge family.
func gathered(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue() + m.GetGauge().GetValue()
		}
	}
	return total
}

func TestNew_RequiresSender(t *testing.T) {
	_, err := New(Options{})
	assert.True(t, errors.Is(err, ErrNoSender))
}

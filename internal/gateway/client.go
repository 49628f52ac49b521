// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gateway is the resilient request layer between the typed CRM
// façades and the HTTP transport.
//
// Every request passes through Client.Do, which:
//
//   - attaches the bearer token from the session
//   - adds a cache-busting "_t" parameter to dev-mode reads
//   - classifies failures and applies the per-class policy
//
// # Failure Policy
//
//	network / 5xx  → record failure; GET answered from fallback data,
//	                 writes answered with a synthesized envelope
//	401            → clear session, redirect to login, return *AuthError
//	400            → return *ValidationError with the extracted message
//	anything else  → returned unchanged
//
// A 400 is never answered with fallback data, whatever the connectivity
// state.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/realestatecrm/crmgateway/internal/connectivity"
	"github.com/realestatecrm/crmgateway/internal/fallback"
	"github.com/realestatecrm/crmgateway/internal/observability"
	"github.com/realestatecrm/crmgateway/internal/transport"
	"github.com/realestatecrm/crmgateway/pkg/logging"
)

var tracer = otel.Tracer("crm.gateway")

// Status texts of substituted responses.
const (
	StatusTextMockData  = "OK (Mock Data)"
	StatusTextSimulated = "OK (Simulated)"
	StatusTextFallback  = "OK (Fallback)"
)

// cacheBustParam is the query parameter added to dev-mode reads.
const cacheBustParam = "_t"

// Sender performs a single HTTP exchange. *transport.Client implements it.
type Sender interface {
	Send(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// TokenSource provides the bearer token and clears auth state on 401.
// *session.Session implements it.
type TokenSource interface {
	Token() string
	Clear() error
}

// Navigator moves the user to the login entry point.
type Navigator interface {
	RedirectToLogin()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

// RedirectToLogin calls f.
func (f NavigatorFunc) RedirectToLogin() { f() }

// Options configures a Client.
type Options struct {
	// Sender is required.
	Sender Sender

	// Tracker defaults to a fresh tracker.
	Tracker *connectivity.Tracker

	// Session is optional; without it no token is sent and 401 clears
	// nothing.
	Session TokenSource

	// Navigator is optional.
	Navigator Navigator

	// Dataset defaults to fallback.NewDataset(time.Now()).
	Dataset *fallback.Dataset

	// Dev enables cache-busting on reads.
	Dev bool

	// BaseURL is reported by Status only.
	BaseURL string

	Logger  *logging.Logger
	Metrics *observability.GatewayMetrics

	// Now defaults to time.Now.
	Now func() time.Time
}

// Client applies auth, connectivity tracking and fallback policy around a
// Sender.
//
// # Thread Safety
//
// Client is safe for concurrent use. Concurrent requests update the
// tracker in completion order; see connectivity.Tracker.
type Client struct {
	sender    Sender
	tracker   *connectivity.Tracker
	session   TokenSource
	navigator Navigator
	dataset   *fallback.Dataset
	dev       bool
	baseURL   string
	logger    *logging.Logger
	metrics   *observability.GatewayMetrics
	now       func() time.Time

	lastBust atomic.Int64
}

// New creates a Client.
//
// # Inputs
//
//   - opts: Sender is required; everything else has a default.
//
// # Outputs
//
//   - *Client: Ready to use.
//   - error: ErrNoSender when opts.Sender is nil.
//
// # Example
//
//	client, err := gateway.New(gateway.Options{
//	    Sender:  transport.New(transport.Config{BaseURL: cfg.APIBase}),
//	    Session: sess,
//	    Dev:     cfg.Dev,
//	})
func New(opts Options) (*Client, error) {
	if opts.Sender == nil {
		return nil, ErrNoSender
	}
	c := &Client{
		sender:    opts.Sender,
		tracker:   opts.Tracker,
		session:   opts.Session,
		navigator: opts.Navigator,
		dataset:   opts.Dataset,
		dev:       opts.Dev,
		baseURL:   opts.BaseURL,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.tracker == nil {
		c.tracker = connectivity.NewTracker()
	}
	if c.dataset == nil {
		c.dataset = fallback.NewDataset(c.now())
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}
	c.logger = c.logger.With("component", "gateway")
	return c, nil
}

// Tracker returns the connectivity tracker.
func (c *Client) Tracker() *connectivity.Tracker { return c.tracker }

// Dataset returns the fallback dataset.
func (c *Client) Dataset() *fallback.Dataset { return c.dataset }

// Status is a diagnostic summary of the client.
type Status struct {
	BaseURL             string
	Dev                 bool
	Reachable           bool
	UsingFallback       bool
	ConsecutiveFailures int
	LastSuccess         time.Time
	LastFailure         time.Time
}

// Status reports the current connectivity picture.
func (c *Client) Status() Status {
	snap := c.tracker.Snapshot()
	return Status{
		BaseURL:             c.baseURL,
		Dev:                 c.dev,
		Reachable:           snap.Reachable,
		UsingFallback:       snap.UsingFallback,
		ConsecutiveFailures: snap.ConsecutiveFailures,
		LastSuccess:         snap.LastSuccess,
		LastFailure:         snap.LastFailure,
	}
}

// Do sends req through the interceptor chain.
//
// # Description
//
// Success records the backend reachable and returns the response as-is.
// Failures are classified and handled per the package policy. A request
// with NoFallback updates connectivity but returns its error instead of
// substitute data.
//
// # Inputs
//
//   - ctx: Context for cancellation and tracing.
//   - req: The request. It is not modified.
//
// # Outputs
//
//   - *transport.Response: Backend response, or a substitute whose Source
//     is SourceFallback or SourceSimulated.
//   - error: *AuthError, *ValidationError, or the original error.
func (c *Client) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	prepared := c.prepare(req)
	method := prepared.Method

	ctx, span := tracer.Start(ctx, "gateway.Do",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("crm.path", req.Path),
		),
	)
	defer span.End()

	c.logger.Debug("request", "method", method, "path", req.Path,
		"token_present", prepared.Header.Get("Authorization") != "")

	start := c.now()
	resp, err := c.sender.Send(ctx, prepared)
	elapsed := c.now().Sub(start)

	if err == nil {
		c.tracker.RecordSuccess()
		c.metrics.SetConnectivity(true, false)
		c.metrics.RecordRequest(method, "success", elapsed)
		span.SetAttributes(attribute.Int("http.status_code", resp.Status))
		c.logger.Debug("response", "method", method, "path", req.Path, "status", resp.Status)
		return resp, nil
	}

	class := Classify(err)
	c.metrics.RecordRequest(method, class.String(), elapsed)
	span.SetAttributes(attribute.String("crm.error_class", class.String()))

	switch class {
	case ClassNetwork, ClassServer:
		return c.handleConnectivityFailure(span, prepared, err)
	case ClassAuth:
		c.handleUnauthorized(req)
		span.SetStatus(codes.Error, "unauthorized")
		return nil, &AuthError{Err: err}
	case ClassValidation:
		verr := validationFromTransport(err)
		c.logger.Info("request rejected by validation", "method", method, "path", req.Path, "message", verr.Message)
		span.SetStatus(codes.Error, "validation")
		return nil, verr
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
}

func (c *Client) handleConnectivityFailure(span trace.Span, req *transport.Request, err error) (*transport.Response, error) {
	c.tracker.RecordFailure()
	c.metrics.SetConnectivity(false, true)
	c.logger.Warn("Server connectivity issue, enabling fallback mode",
		"method", req.Method, "path", req.Path, "error", err)

	if req.NoFallback {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resource := ""
	if route, ok := fallback.Match(req.Path); ok {
		resource = string(route.Resource)
	}

	if req.IsRead() {
		c.metrics.RecordFallback(resource, "read")
		span.SetAttributes(attribute.String("crm.source", string(transport.SourceFallback)))
		return &transport.Response{
			Status:     http.StatusOK,
			StatusText: StatusTextMockData,
			Header:     http.Header{},
			Data:       c.dataset.Resolve(req.Path, req.Query),
			Source:     transport.SourceFallback,
		}, nil
	}

	c.metrics.RecordFallback(resource, "write")
	span.SetAttributes(attribute.String("crm.source", string(transport.SourceSimulated)))
	return c.simulatedResponse(req), nil
}

func (c *Client) simulatedResponse(req *transport.Request) *transport.Response {
	return &transport.Response{
		Status:     http.StatusOK,
		StatusText: StatusTextSimulated,
		Header:     http.Header{},
		Data:       fallback.Synthesize(req.Method, req.Path, bodyJSON(req.Body), c.now()),
		Source:     transport.SourceSimulated,
	}
}

func (c *Client) handleUnauthorized(req *transport.Request) {
	c.logger.Warn("unauthorized, clearing session", "path", req.Path)
	if c.session != nil {
		if err := c.session.Clear(); err != nil {
			c.logger.Error("clearing session failed", "error", err)
		}
	}
	if c.navigator != nil {
		c.navigator.RedirectToLogin()
	}
	c.metrics.RecordAuthTeardown()
}

// prepare returns a copy of req with auth and cache-busting applied.
func (c *Client) prepare(req *transport.Request) *transport.Request {
	out := *req
	if out.Method == "" {
		out.Method = http.MethodGet
	}
	out.Header = req.Header.Clone()
	if out.Header == nil {
		out.Header = http.Header{}
	}

	if c.session != nil {
		if token := c.session.Token(); token != "" {
			out.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if c.dev && out.IsRead() && !strings.Contains(out.Path, "/properties/") {
		query := url.Values{}
		for k, v := range req.Query {
			query[k] = append([]string(nil), v...)
		}
		query.Set(cacheBustParam, strconv.FormatInt(c.nextCacheBust(), 10))
		out.Query = query
	}
	return &out
}

// nextCacheBust returns the current time in milliseconds, bumped so that
// it strictly increases across calls.
func (c *Client) nextCacheBust() int64 {
	for {
		last := c.lastBust.Load()
		next := c.now().UnixMilli()
		if next <= last {
			next = last + 1
		}
		if c.lastBust.CompareAndSwap(last, next) {
			return next
		}
	}
}

func validationFromTransport(err error) *ValidationError {
	verr := &ValidationError{Err: err}
	if te, ok := transport.AsError(err); ok {
		verr.Message, verr.Fields = ExtractMessage(te.Body)
	}
	return verr
}

// bodyJSON encodes a request body for echoing into a synthesized envelope.
func bodyJSON(body any) json.RawMessage {
	switch b := body.(type) {
	case nil:
		return nil
	case json.RawMessage:
		return b
	case []byte:
		return b
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil
		}
		return data
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package transport performs JSON HTTP calls against the CRM backend.
//
// It knows nothing about auth, fallback data or connectivity state; those
// live in the gateway package, which wraps a transport Client.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8080/api/v1"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes = 10 << 20
)

// Source records where a Response came from.
type Source string

const (
	SourceBackend   Source = "backend"
	SourceFallback  Source = "fallback"
	SourceSimulated Source = "simulated"
)

// Request describes one outgoing call.
type Request struct {
	// Method is the HTTP verb. Empty means GET.
	Method string

	// Path is relative to the base URL and starts with "/".
	Path string

	// Body is JSON-encoded unless it is already json.RawMessage or []byte.
	Body any

	// Query is appended to the URL.
	Query url.Values

	// Header is merged over the default JSON headers.
	Header http.Header

	// NoFallback marks requests whose failure must never be replaced by
	// fallback data. Health probes set it.
	NoFallback bool
}

// IsRead reports whether the request is a GET.
func (r *Request) IsRead() bool {
	return r.Method == "" || r.Method == http.MethodGet
}

// Response is a successful call.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Data       json.RawMessage
	Source     Source
}

// Decode unmarshals Data into v. A nil or empty Data leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Config configures a Client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// RateLimit is the sustained requests per second. Zero disables limiting.
	RateLimit float64

	// Burst is the limiter bucket size. Defaults to 1 when RateLimit is set.
	Burst int

	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// HTTPClient overrides the underlying client. Its Timeout is left alone.
	HTTPClient *http.Client
}

// Client sends JSON requests to one backend.
//
// # Thread Safety
//
// Client is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxBodyBytes int64
}

// New creates a Client.
//
// # Inputs
//
//   - cfg: Client configuration. Zero fields take defaults.
//
// # Example
//
//	client := transport.New(transport.Config{BaseURL: "http://localhost:8080/api/v1"})
//	resp, err := client.Send(ctx, &transport.Request{Path: "/leads"})
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		baseURL:      base,
		httpClient:   httpClient,
		maxBodyBytes: maxBody,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send performs the request.
//
// # Description
//
// Encodes the body, applies the rate limiter, performs the call and reads
// the response. Any status below 400 is a success. Failures are *Error,
// except caller cancellation which returns the context error.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - req: The request. Path must be relative to the base URL.
//
// # Outputs
//
//   - *Response: The decoded response with Source set to SourceBackend.
//   - error: *Error on network, timeout and HTTP failures.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := encodeBody(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, req.Path, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(req), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyDoError(ctx, method, req.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, classifyDoError(ctx, method, req.Path, err)
	}
	data := normalizeBody(raw)

	if resp.StatusCode >= 400 {
		kind := KindHTTP4xx
		if resp.StatusCode >= 500 {
			kind = KindHTTP5xx
		}
		return nil, &Error{
			Kind:   kind,
			Status: resp.StatusCode,
			Body:   data,
			Method: method,
			Path:   req.Path,
		}
	}

	return &Response{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Header:     resp.Header,
		Data:       data,
		Source:     SourceBackend,
	}, nil
}

func (c *Client) buildURL(req *Request) string {
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(req.Query) == 0 {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + req.Query.Encode()
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(body)
	}
}

// normalizeBody returns raw when it is JSON, nil when it is empty, and a
// JSON string otherwise.
func normalizeBody(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, err := json.Marshal(string(raw))
	if err != nil {
		return nil
	}
	return quoted
}

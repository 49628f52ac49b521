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
	"errors"
	"fmt"
	"net/http"

	"github.com/realestatecrm/crmgateway/internal/transport"
)

// Result is a decoded response together with its origin.
type Result[T any] struct {
	Value      T
	Status     int
	StatusText string
	Source     transport.Source
}

// WithFallback performs a read and decodes it into T.
//
// # Description
//
// On top of the interceptor's own substitution, a read that still fails
// resolves to fallbackValue when fallback mode is active or the failure
// was a truncated transfer. Auth and validation failures are never
// swallowed here.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - c: The gateway client.
//   - req: A read request.
//   - fallbackValue: Returned when the read fails in fallback mode.
//
// # Outputs
//
//   - Result[T]: The decoded value and where it came from.
//   - error: The read error when no fallback applies.
//
// # Example
//
//	res, err := gateway.WithFallback(ctx, client, &transport.Request{Path: "/leads"}, dataset.Leads())
func WithFallback[T any](ctx context.Context, c *Client, req *transport.Request, fallbackValue T) (Result[T], error) {
	resp, err := c.Do(ctx, req)
	if err == nil {
		var out T
		if err = resp.Decode(&out); err == nil {
			return Result[T]{Value: out, Status: resp.Status, StatusText: resp.StatusText, Source: resp.Source}, nil
		}
	}

	if swallowable(err) && (c.tracker.UsingFallback() || hasCode(err, transport.CodeIncompleteChunked)) {
		c.logger.Warn("using fallback data", "path", req.Path, "error", err)
		return Result[T]{
			Value:      fallbackValue,
			Status:     http.StatusOK,
			StatusText: StatusTextFallback,
			Source:     transport.SourceFallback,
		}, nil
	}
	return Result[T]{}, err
}

// Mutation performs a write and decodes the response into T.
//
// # Description
//
// A *ValidationError without a message gets defaultMessage. Other
// failures resolve to a synthesized envelope when fallback mode is active
// or the failure was a truncated transfer; auth failures never do.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - c: The gateway client.
//   - req: A write request.
//   - defaultMessage: Message for validation failures without one.
//
// # Outputs
//
//   - Result[T]: The decoded response or synthesized envelope.
//   - error: *ValidationError, *AuthError, or the original error.
func Mutation[T any](ctx context.Context, c *Client, req *transport.Request, defaultMessage string) (Result[T], error) {
	resp, err := c.Do(ctx, req)
	if err == nil {
		var out T
		if err := resp.Decode(&out); err != nil {
			return Result[T]{}, err
		}
		return Result[T]{Value: out, Status: resp.Status, StatusText: resp.StatusText, Source: resp.Source}, nil
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		if verr.Message == "" {
			verr.Message = defaultMessage
		}
		return Result[T]{}, verr
	}

	if swallowable(err) && (c.tracker.UsingFallback() || hasCode(err, transport.CodeIncompleteChunked)) {
		c.logger.Warn("Server offline, simulating success", "method", req.Method, "path", req.Path)
		sim := c.simulatedResponse(c.prepare(req))
		var out T
		if err := sim.Decode(&out); err != nil {
			return Result[T]{}, fmt.Errorf("decode simulated response: %w", err)
		}
		return Result[T]{Value: out, Status: sim.Status, StatusText: sim.StatusText, Source: sim.Source}, nil
	}
	return Result[T]{}, err
}

// swallowable reports whether err may be replaced by local data.
func swallowable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch Classify(err) {
	case ClassAuth, ClassValidation:
		return false
	default:
		return true
	}
}

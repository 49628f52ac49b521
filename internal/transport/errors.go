// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Kind discriminates transport failures.
type Kind int

const (
	// KindNetwork means no usable HTTP response was received.
	KindNetwork Kind = iota

	// KindTimeout means the request exceeded the configured timeout.
	KindTimeout

	// KindHTTP4xx means the backend answered with a 4xx status.
	KindHTTP4xx

	// KindHTTP5xx means the backend answered with a 5xx status.
	KindHTTP5xx
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NETWORK"
	case KindTimeout:
		return "TIMEOUT"
	case KindHTTP4xx:
		return "HTTP_4XX"
	case KindHTTP5xx:
		return "HTTP_5XX"
	default:
		return "UNKNOWN"
	}
}

// Wire-level failure codes. They keep the names browser clients report so
// that logs from both clients read the same.
const (
	CodeConnRefused       = "ECONNREFUSED"
	CodeNetwork           = "ERR_NETWORK"
	CodeNetworkError      = "NETWORK_ERROR"
	CodeIncompleteChunked = "ERR_INCOMPLETE_CHUNKED_ENCODING"
	CodeTimeout           = "ETIMEDOUT"
)

// Error is a failed Send.
//
// For HTTP kinds, Status and Body are set. Body is always valid JSON: a
// non-JSON response body is carried as a JSON string.
type Error struct {
	Kind   Kind
	Code   string
	Status int
	Body   json.RawMessage
	Method string
	Path   string
	Err    error
}

// Error implements error.
func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP4xx, KindHTTP5xx:
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s %s: %s (%s): %v", e.Method, e.Path, e.Kind, e.Code, e.Err)
		}
		return fmt.Sprintf("%s %s: %s (%s)", e.Method, e.Path, e.Kind, e.Code)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// classifyDoError maps an http.Client.Do or body read failure to a
// transport error. Caller cancellation is returned as-is so it is never
// mistaken for an unreachable backend.
func classifyDoError(ctx context.Context, method, path string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	te := &Error{Kind: KindNetwork, Code: CodeNetwork, Method: method, Path: path, Err: err}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		te.Kind = KindTimeout
		te.Code = CodeTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		te.Code = CodeConnRefused
	case errors.Is(err, io.ErrUnexpectedEOF):
		te.Code = CodeIncompleteChunked
	}
	return te
}

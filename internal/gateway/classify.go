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
	"errors"
	"net/http"

	"github.com/realestatecrm/crmgateway/internal/transport"
)

// ErrorClass is the policy bucket of a failed request.
type ErrorClass int

const (
	// ClassNetwork covers refused connections, truncated transfers,
	// generic network failures and timeouts.
	ClassNetwork ErrorClass = iota

	// ClassServer is any status >= 500.
	ClassServer

	// ClassAuth is status 401.
	ClassAuth

	// ClassValidation is status 400.
	ClassValidation

	// ClassOther is everything else, including caller cancellation.
	ClassOther
)

// String returns the lower-case class name used in logs and metrics.
func (c ErrorClass) String() string {
	switch c {
	case ClassNetwork:
		return "network"
	case ClassServer:
		return "server"
	case ClassAuth:
		return "auth"
	case ClassValidation:
		return "validation"
	default:
		return "other"
	}
}

// Fallback reports whether the class switches the gateway to fallback data.
func (c ErrorClass) Fallback() bool {
	return c == ClassNetwork || c == ClassServer
}

// networkCodes are wire-level codes that mean "no usable response".
var networkCodes = map[string]bool{
	transport.CodeIncompleteChunked: true,
	transport.CodeNetwork:           true,
	transport.CodeNetworkError:      true,
	transport.CodeConnRefused:       true,
	transport.CodeTimeout:           true,
}

// Classify maps an error from a Sender onto its ErrorClass.
//
// # Description
//
// Connectivity signals are checked before any status: an error carrying a
// network code is ClassNetwork even if a status is also set. Then >= 500,
// 401 and 400 are checked, in that order. Errors already produced by the
// gateway keep their class.
//
// # Inputs
//
//   - err: A non-nil error.
//
// # Outputs
//
//   - ErrorClass: The policy bucket. Non-transport errors are ClassOther.
func Classify(err error) ErrorClass {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ClassValidation
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ClassAuth
	}

	te, ok := transport.AsError(err)
	if !ok {
		return ClassOther
	}

	switch {
	case te.Kind == transport.KindNetwork, te.Kind == transport.KindTimeout, networkCodes[te.Code]:
		return ClassNetwork
	case te.Status >= http.StatusInternalServerError:
		return ClassServer
	case te.Status == http.StatusUnauthorized:
		return ClassAuth
	case te.Status == http.StatusBadRequest:
		return ClassValidation
	default:
		return ClassOther
	}
}

// hasCode reports whether err carries the given wire-level code.
func hasCode(err error, code string) bool {
	te, ok := transport.AsError(err)
	return ok && te.Code == code
}

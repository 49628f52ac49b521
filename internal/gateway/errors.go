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
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// DefaultValidationMessage is used when a 400 body yields no message.
const DefaultValidationMessage = "Invalid request data"

// ValidationError is a rejected write: a 400 from the backend or a DTO
// that failed client-side validation. It is never replaced by fallback
// data.
type ValidationError struct {
	// Message is the most specific human-readable message available.
	Message string

	// Fields maps field names to messages when the body was a field map
	// or the error came from client-side validation.
	Fields map[string]string

	// Err is the underlying transport error, nil for client-side checks.
	Err error
}

// Error returns Message, or DefaultValidationMessage when empty.
func (e *ValidationError) Error() string {
	if e.Message == "" {
		return DefaultValidationMessage
	}
	return e.Message
}

// Unwrap returns the transport error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// AuthError is returned for a 401. By the time the caller sees it, the
// session has been cleared and the navigator told to show login.
type AuthError struct {
	Err error
}

// Error implements error.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return "authentication required: " + e.Err.Error()
	}
	return "authentication required"
}

// Unwrap returns the transport error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// ErrNoSender is returned by New when Options.Sender is nil.
var ErrNoSender = errors.New("gateway: sender is required")

// ExtractMessage pulls the most specific message out of a 400 body.
//
// # Description
//
// Precedence:
//
//  1. a JSON string body is the message
//  2. a non-empty string "message" field
//  3. a non-empty string "error" field
//  4. every string-valued top-level field, in document order, joined
//     with ", "; these are also returned as fields
//
// # Inputs
//
//   - body: The response body as JSON. May be empty.
//
// # Outputs
//
//   - string: The message, or "" when nothing usable was found.
//   - map[string]string: Field messages for case 4, else nil.
//
// # Example
//
//	msg, _ := ExtractMessage([]byte(`{"field1":"bad","field2":"also bad"}`))
//	// msg == "bad, also bad"
func ExtractMessage(body json.RawMessage) (string, map[string]string) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s, nil
	}

	keys, values, ok := stringFields(body)
	if !ok {
		return "", nil
	}
	if msg := values["message"]; msg != "" {
		return msg, nil
	}
	if msg := values["error"]; msg != "" {
		return msg, nil
	}
	if len(keys) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, values[k])
	}
	return strings.Join(parts, ", "), values
}

// stringFields walks a top-level JSON object and returns its string-valued
// fields, keeping document order. ok is false when body is not an object.
func stringFields(body []byte) (keys []string, values map[string]string, ok bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, false
	}
	if delim, isDelim := tok.(json.Delim); !isDelim || delim != '{' {
		return nil, nil, false
	}

	values = make(map[string]string)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, false
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, false
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = v
	}
	return keys, values, true
}

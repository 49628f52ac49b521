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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/realestatecrm/crmgateway/internal/transport"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"refused", &transport.Error{Kind: transport.KindNetwork, Code: transport.CodeConnRefused}, ClassNetwork},
		{"timeout", &transport.Error{Kind: transport.KindTimeout, Code: transport.CodeTimeout}, ClassNetwork},
		{"truncated", &transport.Error{Kind: transport.KindNetwork, Code: transport.CodeIncompleteChunked}, ClassNetwork},
		{"network code beats 400", &transport.Error{Kind: transport.KindHTTP4xx, Status: 400, Code: transport.CodeIncompleteChunked}, ClassNetwork},
		{"500", &transport.Error{Kind: transport.KindHTTP5xx, Status: 500}, ClassServer},
		{"503", &transport.Error{Kind: transport.KindHTTP5xx, Status: 503}, ClassServer},
		{"401", &transport.Error{Kind: transport.KindHTTP4xx, Status: 401}, ClassAuth},
		{"400", &transport.Error{Kind: transport.KindHTTP4xx, Status: 400}, ClassValidation},
		{"403", &transport.Error{Kind: transport.KindHTTP4xx, Status: 403}, ClassOther},
		{"404", &transport.Error{Kind: transport.KindHTTP4xx, Status: 404}, ClassOther},
		{"409", &transport.Error{Kind: transport.KindHTTP4xx, Status: 409}, ClassOther},
		{"wrapped 503", fmt.Errorf("list: %w", &transport.Error{Kind: transport.KindHTTP5xx, Status: 503}), ClassServer},
		{"cancelled", context.Canceled, ClassOther},
		{"plain", errors.New("boom"), ClassOther},
		{"validation error", &ValidationError{Message: "x"}, ClassValidation},
		{"auth error", &AuthError{}, ClassAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "network", ClassNetwork.String())
	assert.Equal(t, "server", ClassServer.String())
	assert.Equal(t, "auth", ClassAuth.String())
	assert.Equal(t, "validation", ClassValidation.String())
	assert.Equal(t, "other", ClassOther.String())
	assert.True(t, ClassNetwork.Fallback())
	assert.True(t, ClassServer.Fallback())
	assert.False(t, ClassValidation.Fallback())
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantMsg    string
		wantFields map[string]string
	}{
		{"empty", ``, "", nil},
		{"string body", `"Invalid status value: FOO"`, "Invalid status value: FOO", nil},
		{"message wins", `{"message":"Name is required","error":"Bad Request"}`, "Name is required", nil},
		{"error when no message", `{"error":"Bad Request","status":400}`, "Bad Request", nil},
		{"empty message falls through", `{"message":"","error":"Bad"}`, "Bad", nil},
		{"non-string message ignored", `{"message":{"x":1},"error":"Bad"}`, "Bad", nil},
		{
			"field map in document order",
			`{"field1":"bad","count":3,"field2":"also bad"}`,
			"bad, also bad",
			map[string]string{"field1": "bad", "field2": "also bad"},
		},
		{"no strings", `{"count":3}`, "", nil},
		{"empty object", `{}`, "", nil},
		{"array", `["a"]`, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, fields := ExtractMessage(json.RawMessage(tt.body))
			assert.Equal(t, tt.wantMsg, msg)
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidationError_DefaultMessage(t *testing.T) {
	assert.Equal(t, DefaultValidationMessage, (&ValidationError{}).Error())
	assert.Equal(t, "Name is required", (&ValidationError{Message: "Name is required"}).Error())
}

func TestAuthError_Unwrap(t *testing.T) {
	inner := &transport.Error{Kind: transport.KindHTTP4xx, Status: 401}
	err := &AuthError{Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "authentication required")
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/realestatecrm/crmgateway/internal/gateway"
)

// requestValidate checks request DTOs before they are sent.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire name so messages match backend field maps.
	requestValidate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
}

// validateRequest runs the DTO's validate tags.
//
// # Outputs
//
//   - error: nil, or *gateway.ValidationError whose Fields maps wire field
//     names to messages and whose Message joins them in field order.
func validateRequest(req any) error {
	err := requestValidate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &gateway.ValidationError{Message: err.Error(), Err: err}
	}

	fields := make(map[string]string, len(fieldErrs))
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := fieldMessage(fe)
		if _, dup := fields[fe.Field()]; !dup {
			messages = append(messages, msg)
		}
		fields[fe.Field()] = msg
	}
	return &gateway.ValidationError{
		Message: strings.Join(messages, ", "),
		Fields:  fields,
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// requireID rejects an empty path identifier before it becomes "/leads/".
func requireID(name, id string) error {
	if strings.TrimSpace(id) == "" {
		return &gateway.ValidationError{
			Message: name + " is required",
			Fields:  map[string]string{name: name + " is required"},
		}
	}
	return nil
}

// IsValidUUID reports whether id is a canonical 36-character RFC 4122
// UUID of version 1 through 5.
//
// # Example
//
//	api.IsValidUUID("550e8400-e29b-41d4-a716-446655440000") // true
//	api.IsValidUUID("not-a-uuid")                           // false
func IsValidUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	if v := parsed.Version(); v < 1 || v > 5 {
		return false
	}
	return parsed.Variant() == uuid.RFC4122
}

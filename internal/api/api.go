// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package api provides typed façades over the CRM backend endpoints.
//
// Reads go through gateway.WithFallback with the matching slice of the
// fallback dataset; writes go through gateway.Mutation with a per-call
// default message. Create and update DTOs are validated locally first, and
// a local failure surfaces as the same *gateway.ValidationError a backend
// 400 would produce.
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/realestatecrm/crmgateway/internal/fallback"
	"github.com/realestatecrm/crmgateway/internal/gateway"
	"github.com/realestatecrm/crmgateway/internal/models"
	"github.com/realestatecrm/crmgateway/internal/transport"
)

// SessionWriter persists and clears authentication state.
// *session.Session implements it.
type SessionWriter interface {
	Login(token string, role models.Role, user *models.User) error
	Clear() error
}

// Client groups the endpoint façades around one gateway.
//
// # Thread Safety
//
// Safe for concurrent use; all state lives in the gateway and session.
type Client struct {
	Auth      *AuthService
	Users     *UserService
	Leads     *LeadService
	Sites     *SiteService
	Buildings *BuildingService
	Units     *UnitService
	Owners    *OwnerService
	Health    *HealthService

	gw *gateway.Client
}

// New builds the façades.
//
// # Inputs
//
//   - gw: The gateway every call goes through.
//   - sess: Optional. When set, Auth.Login stores the returned token and
//     Auth.Logout clears it.
func New(gw *gateway.Client, sess SessionWriter) *Client {
	c := &Client{gw: gw}
	c.Auth = &AuthService{c: c, session: sess}
	c.Users = &UserService{c: c}
	c.Leads = &LeadService{c: c}
	c.Sites = &SiteService{c: c}
	c.Buildings = &BuildingService{c: c}
	c.Units = &UnitService{c: c}
	c.Owners = &OwnerService{c: c}
	c.Health = &HealthService{c: c}
	return c
}

// Gateway returns the underlying gateway.
func (c *Client) Gateway() *gateway.Client { return c.gw }

func (c *Client) dataset() *fallback.Dataset { return c.gw.Dataset() }

func read[T any](ctx context.Context, c *Client, path string, query url.Values, fallbackValue T) (gateway.Result[T], error) {
	return gateway.WithFallback(ctx, c.gw, &transport.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	}, fallbackValue)
}

func write[T any](ctx context.Context, c *Client, method, path string, body any, defaultMessage string) (gateway.Result[T], error) {
	return gateway.Mutation[T](ctx, c.gw, &transport.Request{
		Method: method,
		Path:   path,
		Body:   body,
	}, defaultMessage)
}

// validatedWrite checks body before sending it.
func validatedWrite[T any](ctx context.Context, c *Client, method, path string, body any, defaultMessage string) (gateway.Result[T], error) {
	if err := validateRequest(body); err != nil {
		return gateway.Result[T]{}, err
	}
	return write[T](ctx, c, method, path, body, defaultMessage)
}

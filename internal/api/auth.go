// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/realestatecrm/crmgateway/internal/gateway"
	"github.com/realestatecrm/crmgateway/internal/models"
)

// AuthService covers /auth and self-registration.
type AuthService struct {
	c       *Client
	session SessionWriter
}

// Login posts credentials to /auth/login.
//
// # Description
//
// When a session is configured and the backend returns a token, the
// token, role and a minimal user profile are persisted. A simulated
// response carries no token and leaves the session untouched.
//
// # Outputs
//
//   - gateway.Result[models.LoginResponse]: Token, expiry and role.
//   - error: *gateway.ValidationError for bad credentials input or a 400,
//     or the transport error.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (gateway.Result[models.LoginResponse], error) {
	res, err := validatedWrite[models.LoginResponse](ctx, s.c, http.MethodPost, "/auth/login", req, "Failed to login")
	if err != nil {
		return res, err
	}
	if s.session != nil && res.Value.AccessToken != "" {
		if err := s.session.Login(res.Value.AccessToken, res.Value.Role, nil); err != nil {
			return res, fmt.Errorf("store session: %w", err)
		}
	}
	return res, nil
}

// Register posts a new account to /users/register.
func (s *AuthService) Register(ctx context.Context, req models.RegisterUserRequest) (gateway.Result[models.User], error) {
	return validatedWrite[models.User](ctx, s.c, http.MethodPost, "/users/register", req, "Failed to register user")
}

// Logout posts to /auth/logout and clears the local session whatever the
// backend answered.
func (s *AuthService) Logout(ctx context.Context) error {
	_, err := write[models.MutationResult](ctx, s.c, http.MethodPost, "/auth/logout", nil, "Failed to logout")
	if s.session != nil {
		if clearErr := s.session.Clear(); clearErr != nil && err == nil {
			err = fmt.Errorf("clear session: %w", clearErr)
		}
	}
	return err
}

// Refresh exchanges the current token at /auth/refresh.
func (s *AuthService) Refresh(ctx context.Context) (gateway.Result[models.LoginResponse], error) {
	return write[models.LoginResponse](ctx, s.c, http.MethodPost, "/auth/refresh", nil, "Failed to refresh token")
}

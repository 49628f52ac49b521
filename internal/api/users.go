// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/realestatecrm/crmgateway/internal/gateway"
	"github.com/realestatecrm/crmgateway/internal/models"
)

// ===== Users =====

// UserService covers /users.
type UserService struct{ c *Client }

// Register posts to /users/register.
func (s *UserService) Register(ctx context.Context, req models.RegisterUserRequest) (gateway.Result[models.User], error) {
	return validatedWrite[models.User](ctx, s.c, http.MethodPost, "/users/register", req, "Failed to register user")
}

// Create posts to /users.
func (s *UserService) Create(ctx context.Context, req models.RegisterUserRequest) (gateway.Result[models.User], error) {
	return validatedWrite[models.User](ctx, s.c, http.MethodPost, "/users", req, "Failed to create user")
}

// GetAll lists users, falling back to the canned users.
func (s *UserService) GetAll(ctx context.Context) (gateway.Result[[]models.User], error) {
	return read(ctx, s.c, "/users", nil, s.c.dataset().Users())
}

// GetByID fetches one user; the fallback is nil when the id is unknown.
func (s *UserService) GetByID(ctx context.Context, id string) (gateway.Result[*models.User], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[*models.User]{}, err
	}
	return read(ctx, s.c, "/users/"+url.PathEscape(id), nil, s.c.dataset().User(id))
}

// Update puts the changed fields to /users/{id}.
func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest) (gateway.Result[models.User], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.User]{}, err
	}
	return validatedWrite[models.User](ctx, s.c, http.MethodPut, "/users/"+url.PathEscape(id), req, "Failed to update user")
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id string) (gateway.Result[models.MutationResult], error) {
	if err := requireID("id", id); err != nil {
		return gateway.Result[models.MutationResult]{}, err
	}
	return write[models.MutationResult](ctx, s.c, http.MethodDelete, "/users/"+url.PathEscape(id), nil, "Failed to delete user")
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session persists client-side auth state: the bearer token, the
// user's role and a cached user profile.
//
// Each value is written under two keys, a primary and a legacy one, so
// that state written by older clients keeps working. Clearing always
// removes all five keys together.
package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/realestatecrm/crmgateway/internal/models"
	"github.com/realestatecrm/crmgateway/pkg/logging"
)

// Persisted keys.
const (
	KeyAccessToken = "accessToken"
	KeyToken       = "token"
	KeyUserData    = "userData"
	KeyUser        = "user"
	KeyUserRole    = "userRole"
)

// AllKeys lists every key Clear removes.
var AllKeys = []string{KeyAccessToken, KeyToken, KeyUserData, KeyUser, KeyUserRole}

// State is the restored auth state.
type State struct {
	Authenticated bool
	Role          models.Role
	User          *models.User
}

// Session reads and writes auth state through a Store.
//
// # Thread Safety
//
// Session is as safe for concurrent use as its Store. Both provided
// stores are.
type Session struct {
	store  Store
	logger *logging.Logger
}

// New wraps store. A nil logger discards output.
func New(store Store, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Session{store: store, logger: logger.With("component", "session")}
}

// Token returns the bearer token, preferring the primary key. An empty
// string means no token is stored.
func (s *Session) Token() string {
	for _, key := range []string{KeyAccessToken, KeyToken} {
		v, err := s.store.Get(key)
		if err == nil && v != "" {
			return v
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("reading token failed", "key", key, "error", err)
		}
	}
	return ""
}

// Login stores the token, role and user profile.
//
// # Description
//
// Writes the token under both token keys and the profile under both user
// keys. A nil user is replaced by a placeholder profile carrying the role.
// When the given user has no role, role is filled in.
//
// # Inputs
//
//   - token: Bearer token. Must not be empty.
//   - role: The role reported by the backend at login.
//   - user: Optional profile.
//
// # Outputs
//
//   - error: Non-nil if any write fails; state is cleared in that case.
func (s *Session) Login(token string, role models.Role, user *models.User) error {
	if token == "" {
		return errors.New("session: empty token")
	}

	profile := models.User{
		ID:        "temp-id",
		Username:  "user",
		Email:     "user@example.com",
		FirstName: "User",
		LastName:  "Account",
		Role:      role,
	}
	if user != nil {
		profile = *user
		if profile.Role == "" {
			profile.Role = role
		}
	}
	encoded, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}

	writes := [][2]string{
		{KeyAccessToken, token},
		{KeyToken, token},
		{KeyUserRole, string(role)},
		{KeyUserData, string(encoded)},
		{KeyUser, string(encoded)},
	}
	for _, w := range writes {
		if err := s.store.Set(w[0], w[1]); err != nil {
			_ = s.Clear()
			return fmt.Errorf("store %s: %w", w[0], err)
		}
	}

	s.logger.Info("session stored", "role", role, "username", profile.Username)
	return nil
}

// Clear removes all five keys. Clearing an empty session is not an error.
func (s *Session) Clear() error {
	if err := s.store.Delete(AllKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Role returns the stored role, falling back to the cached profile's role.
func (s *Session) Role() models.Role {
	if v, err := s.store.Get(KeyUserRole); err == nil && v != "" {
		return models.Role(v)
	}
	if u, err := s.User(); err == nil && u != nil {
		return u.Role
	}
	return ""
}

// User returns the cached profile, or nil when none is stored.
func (s *Session) User() (*models.User, error) {
	for _, key := range []string{KeyUserData, KeyUser} {
		v, err := s.store.Get(key)
		if errors.Is(err, ErrNotFound) || (err == nil && v == "") {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		var u models.User
		if err := json.Unmarshal([]byte(v), &u); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return &u, nil
	}
	return nil, nil
}

// Restore rebuilds State from storage.
//
// # Description
//
// No token means unauthenticated, and any leftover keys are cleared. A
// corrupted profile clears everything too. A profile without a stored role
// writes the profile's role back to the role key.
func (s *Session) Restore() State {
	token := s.Token()
	if token == "" {
		_ = s.Clear()
		return State{}
	}

	state := State{Authenticated: true}
	user, err := s.User()
	if err != nil {
		s.logger.Warn("discarding corrupted session", "error", err)
		_ = s.Clear()
		return State{}
	}

	storedRole, _ := s.store.Get(KeyUserRole)
	state.Role = models.Role(storedRole)
	if user != nil {
		state.User = user
		if user.Role != "" {
			state.Role = user.Role
			if storedRole == "" {
				_ = s.store.Set(KeyUserRole, string(user.Role))
			}
		}
	}
	return state
}

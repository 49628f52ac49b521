// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/realestatecrm/crmgateway/internal/models"
	"github.com/realestatecrm/crmgateway/internal/transport"
	"github.com/realestatecrm/crmgateway/pkg/ux"
)

// promptCredentials asks for the missing username and password. It is a
// variable so tests can replace the interactive form.
var promptCredentials = func(username, password *string) error {
	fields := []huh.Field{}
	if *username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(username).
			Validate(notBlank("username")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(notBlank("password")))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func notBlank(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long: `Signs in to the CRM backend. Missing credentials are prompted for
when running in a terminal; otherwise pass --username and --password or set
CRM_PASSWORD.`,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if password == "" {
				password = os.Getenv("CRM_PASSWORD")
			}
			if (username == "" || password == "") && a.printer.Level() != ux.LevelMachine && ux.IsTerminal(os.Stdin) {
				if err := promptCredentials(&username, &password); err != nil {
					return err
				}
			}

			res, err := a.api.Auth.Login(ctx, models.LoginRequest{Username: username, Password: password})
			if err != nil {
				return err
			}
			if res.Source != transport.SourceBackend || res.Value.AccessToken == "" {
				a.printer.Warning("Backend unreachable; login was simulated and no session was stored")
				return nil
			}
			a.printer.Success(fmt.Sprintf("Signed in as %s (%s)", username, res.Value.Role))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prefer CRM_PASSWORD or the prompt)")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if err := a.api.Auth.Logout(ctx); err != nil {
				a.logger.Warn("backend logout failed", "error", err)
			}
			a.printer.Success("Signed out")
			return nil
		}),
	}
}

var errNotSignedIn = errors.New("not signed in")

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: withApp(opts, func(_ context.Context, a *app, _ []string) error {
			state := a.session.Restore()
			if !state.Authenticated {
				return errNotSignedIn
			}
			pairs := [][2]string{{"role", string(state.Role)}}
			if state.User != nil {
				pairs = append(pairs, [2]string{"username", state.User.Username})
			}
			a.printer.KeyValues(pairs)
			return nil
		}),
	}
}

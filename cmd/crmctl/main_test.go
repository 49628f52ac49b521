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
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realestatecrm/crmgateway/internal/config"
	"github.com/realestatecrm/crmgateway/internal/gateway"
	"github.com/realestatecrm/crmgateway/internal/stubserver"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// cli runs crmctl commands against one config and session directory.
type cli struct {
	t          *testing.T
	configPath string
	apiBase    string
}

func newCLI(t *testing.T, apiBase string) *cli {
	t.Helper()
	t.Setenv(config.EnvAPIBase, "")
	t.Setenv(config.EnvDev, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "crm.yaml")
	body := "api_base: " + apiBase + "\n" +
		"session_dir: " + filepath.Join(dir, "session") + "\n" +
		"request_timeout: 2s\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return &cli{t: t, configPath: path, apiBase: apiBase}
}

func (c *cli) run(args ...string) (stdout, stderr string, err error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(append([]string{"--config", c.configPath, "--output", "machine"}, args...))
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func newStub(t *testing.T, opts stubserver.Options) (*stubserver.Server, string) {
	t.Helper()
	stub := stubserver.New(opts)
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)
	return stub, srv.URL + stubserver.APIPrefix
}

func TestLeadsList_Online(t *testing.T) {
	_, base := newStub(t, stubserver.Options{})
	c := newCLI(t, base)

	out, errOut, err := c.run("leads", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ID\tNAME\tEMAIL\tSTATUS\tCOMPANY\tASSIGNED\n")
	assert.Contains(t, out, "nur king\tnur.king@example.com\tNEW")
	assert.Empty(t, errOut)
}

func TestLeadsList_OfflineShowsSampleDataAndBanner(t *testing.T) {
	stub, base := newStub(t, stubserver.Options{})
	stub.SetDown(true)
	c := newCLI(t, base)

	out, errOut, err := c.run("leads", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "nur king")
	assert.Contains(t, out, "(sample data)")
	assert.Contains(t, errOut, "WARN: offline mode")
}

func TestLeadsCreate_OfflineIsSimulated(t *testing.T) {
	stub, base := newStub(t, stubserver.Options{})
	stub.SetDown(true)
	c := newCLI(t, base)

	_, errOut, err := c.run("leads", "create", "--first-name", "Ada", "--last-name", "Lovelace", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, errOut, "simulated, not saved")
}

func TestLeadsCreate_ValidationError(t *testing.T) {
	_, base := newStub(t, stubserver.Options{})
	c := newCLI(t, base)

	_, errOut, err := c.run("leads", "create", "--first-name", "Ada")
	var vErr *gateway.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, errOut, "ERROR: lastName is required")
	assert.Contains(t, vErr.Fields, "email")
}

func TestLeadsGet_NotFoundFromBackend(t *testing.T) {
	_, base := newStub(t, stubserver.Options{})
	c := newCLI(t, base)

	_, errOut, err := c.run("leads", "get", "does-not-exist")
	require.Error(t, err)
	assert.Contains(t, errOut, "(HTTP 404)")
}

func TestUnitsList_Filter(t *testing.T) {
	_, base := newStub(t, stubserver.Options{})
	c := newCLI(t, base)

	out, _, err := c.run("units", "list", "--status", "AVAILABLE")
	require.NoError(t, err)
	assert.NotContains(t, out, "\tLEASED\t")
	assert.NotContains(t, out, "\tSOLD\t")
}

func TestLoginWhoamiLogout(t *testing.T) {
	_, base := newStub(t, stubserver.Options{RequireAuth: true})
	c := newCLI(t, base)

	out, _, err := c.run("login", "--username", "admin", "--password", stubserver.DefaultPassword)
	require.NoError(t, err)
	assert.Contains(t, out, "OK: Signed in as admin (ADMIN)")

	out, _, err = c.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "role\tADMIN")

	// The stored token authorizes later invocations.
	_, _, err = c.run("users", "list")
	require.NoError(t, err)

	_, _, err = c.run("logout")
	require.NoError(t, err)

	_, _, err = c.run("whoami")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestLogin_BadPassword(t *testing.T) {
	_, base := newStub(t, stubserver.Options{})
	c := newCLI(t, base)

	_, errOut, err := c.run("login", "--username", "admin", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, errOut, "Invalid username or password")
}

func TestUnauthorizedClearsSessionAndWarns(t *testing.T) {
	stub, base := newStub(t, stubserver.Options{RequireAuth: true})
	c := newCLI(t, base)

	_, _, err := c.run("login", "--username", "admin", "--password", stubserver.DefaultPassword)
	require.NoError(t, err)
	stub.RevokeTokens()

	_, errOut, err := c.run("leads", "list")
	require.Error(t, err)
	assert.Contains(t, errOut, "Session expired")

	_, _, err = c.run("whoami")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestHealth(t *testing.T) {
	stub, base := newStub(t, stubserver.Options{})
	c := newCLI(t, base)

	out, _, err := c.run("health")
	require.NoError(t, err)
	assert.Contains(t, out, "/health\tUP\t200")
	assert.Contains(t, out, "OK: Backend is healthy")

	stub.SetDown(true)
	out, errOut, err := c.run("health", "--retry", "2", "--retry-delay", "1ms")
	assert.ErrorIs(t, err, errBackendDown)
	assert.Contains(t, out, "/health\tDOWN\t503")
	assert.Contains(t, errOut, "Attempt 1 failed")
}

func TestStatus_Offline(t *testing.T) {
	c := newCLI(t, "http://127.0.0.1:1/api/v1")

	out, errOut, err := c.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "reachable\tfalse")
	assert.Contains(t, out, "fallback\ttrue")
	assert.Contains(t, errOut, "WARN: offline mode")
}

func TestConfig_FlagOverridesFile(t *testing.T) {
	c := newCLI(t, "http://example.invalid/api/v1")

	out, _, err := c.run("--api-base", "http://localhost:9999/api/v1/", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "api_base: http://localhost:9999/api/v1\n")
}

func TestTraceFlagWritesSpans(t *testing.T) {
	_, base := newStub(t, stubserver.Options{})
	c := newCLI(t, base)

	_, errOut, err := c.run("--trace", "sites", "list")
	require.NoError(t, err)
	assert.Contains(t, errOut, "\"Name\"")
}

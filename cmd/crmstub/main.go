// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command crmstub serves an in-memory CRM backend for local development.
//
// Sending SIGUSR1 toggles the simulated outage so the client's fallback
// path can be exercised by hand.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/realestatecrm/crmgateway/internal/stubserver"
	"github.com/realestatecrm/crmgateway/internal/telemetry"
	"github.com/realestatecrm/crmgateway/pkg/logging"
)

type options struct {
	addr        string
	password    string
	down        bool
	requireAuth bool
	trace       bool
	logLevel    string
	logJSON     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "crmstub",
		Short:        "Run a local stand-in for the CRM backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", ":8080", "listen address")
	f.StringVar(&opts.password, "password", stubserver.DefaultPassword, "password accepted for every seeded user")
	f.BoolVar(&opts.down, "down", false, "start in outage mode (503 everywhere)")
	f.BoolVar(&opts.requireAuth, "require-auth", false, "require a bearer token on protected routes")
	f.BoolVar(&opts.trace, "trace", false, "print OpenTelemetry spans to stderr")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level")
	f.BoolVar(&opts.logJSON, "log-json", false, "log as JSON")
	return cmd
}

func run(ctx context.Context, opts *options) error {
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(opts.logLevel),
		Service: "crmstub",
		JSON:    opts.logJSON,
	})
	defer logger.Close()

	if opts.trace {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:    "crmstub",
			ServiceVersion: "dev",
			TraceExporter:  telemetry.ExporterStdout,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown(context.Background())
	}

	gin.SetMode(gin.ReleaseMode)
	srv := stubserver.New(stubserver.Options{
		Password:    opts.password,
		RequireAuth: opts.requireAuth,
		Logger:      logger,
	})
	if opts.down {
		srv.SetDown(true)
	}

	toggle := make(chan os.Signal, 1)
	signal.Notify(toggle, syscall.SIGUSR1)
	defer signal.Stop(toggle)
	go func() {
		down := opts.down
		for {
			select {
			case <-ctx.Done():
				return
			case <-toggle:
				down = !down
				srv.SetDown(down)
			}
		}
	}()

	return srv.Run(ctx, opts.addr)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

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
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/realestatecrm/crmgateway/internal/api"
	"github.com/realestatecrm/crmgateway/internal/config"
	"github.com/realestatecrm/crmgateway/internal/connectivity"
	"github.com/realestatecrm/crmgateway/internal/gateway"
	"github.com/realestatecrm/crmgateway/internal/observability"
	"github.com/realestatecrm/crmgateway/internal/session"
	"github.com/realestatecrm/crmgateway/internal/telemetry"
	"github.com/realestatecrm/crmgateway/internal/transport"
	"github.com/realestatecrm/crmgateway/pkg/logging"
	"github.com/realestatecrm/crmgateway/pkg/ux"
)

// =============================================================================
// GLOBAL OPTIONS
// =============================================================================

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	apiBase    string
	dev        bool
	trace      bool
	output     string
	logLevel   string

	stdout io.Writer
	stderr io.Writer
}

// app is the per-invocation wiring: config, session, gateway and API.
type app struct {
	cfg      config.Config
	logger   *logging.Logger
	store    session.Store
	session  *session.Session
	gateway  *gateway.Client
	api      *api.Client
	printer  *ux.Printer
	registry *prometheus.Registry

	shutdownTrace func(context.Context) error
}

// newRootCmd builds the command tree writing to stdout and stderr.
//
// # Description
//
// Every subcommand receives a fully wired *app through withApp. The app is
// built after flag parsing and torn down when the command returns.
//
// # Example
//
//	crmctl leads list
//	crmctl --api-base http://localhost:8080/api/v1 health --retry 3
//	crmctl --output machine units list --status AVAILABLE
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "crmctl",
		Short: "Terminal client for the real-estate CRM",
		Long: `crmctl manages leads, users and property inventory in the CRM.

When the backend cannot be reached, read commands show sample data and
write commands are simulated. An offline banner is printed whenever this
happens.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.crm/crm.yaml)")
	flags.StringVar(&opts.apiBase, "api-base", "", "backend base URL, overrides config and "+config.EnvAPIBase)
	flags.BoolVar(&opts.dev, "dev", false, "enable development mode (cache-busting reads)")
	flags.BoolVar(&opts.trace, "trace", false, "print OpenTelemetry spans to stderr")
	flags.StringVarP(&opts.output, "output", "o", "", "output level: full, minimal or machine")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newStatusCmd(opts),
		newHealthCmd(opts),
		newWatchCmd(opts),
		newLeadsCmd(opts),
		newUsersCmd(opts),
		newSitesCmd(opts),
		newBuildingsCmd(opts),
		newUnitsCmd(opts),
		newOwnersCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// withApp adapts fn into a cobra RunE that builds and closes the app,
// prints any error, and shows the offline banner after the command.
func withApp(opts *rootOptions, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := opts.build()
		if err != nil {
			ux.NewPrinter(opts.stdout, opts.stderr, opts.level()).Error(err.Error())
			return err
		}
		defer a.close()

		err = fn(cmd.Context(), a, args)
		a.printer.OfflineBanner(a.connectivity())
		if err != nil {
			a.reportError(err)
		}
		return err
	}
}

func (o *rootOptions) level() ux.Level {
	if o.output != "" {
		return ux.ParseLevel(o.output)
	}
	if f, ok := o.stdout.(*os.File); ok {
		return ux.DetectLevel(f)
	}
	return ux.LevelMachine
}

// build loads config and wires the stack for one invocation.
func (o *rootOptions) build() (*app, error) {
	cfg, created, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.apiBase != "" {
		cfg.APIBase = o.apiBase
	}
	if o.dev {
		cfg.Dev = true
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	cfg = cfg.Validated()

	a := &app{
		cfg:      cfg,
		printer:  ux.NewPrinter(o.stdout, o.stderr, o.level()),
		registry: prometheus.NewRegistry(),
	}
	a.logger = logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Log.Level),
		LogDir:  cfg.Log.Dir,
		Service: "crmctl",
		JSON:    cfg.Log.JSON,
		Quiet:   cfg.Log.Dir == "" && o.logLevel == "",
	})
	if created {
		a.logger.Info("created default config", "path", o.configPath)
	}

	a.shutdownTrace = func(context.Context) error { return nil }
	if o.trace {
		shutdown, err := telemetry.Init(context.Background(), telemetry.Config{
			ServiceName:    "crmctl",
			ServiceVersion: "dev",
			TraceExporter:  telemetry.ExporterStdout,
			Writer:         o.stderr,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		a.shutdownTrace = shutdown
	}

	if cfg.SessionDir == "" {
		a.store = session.NewMemoryStore()
	} else {
		store, err := session.OpenBadgerStore(session.BadgerConfig{
			Path:   logging.ExpandPath(cfg.SessionDir),
			Logger: a.logger.Slog(),
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.store = store
	}
	a.session = session.New(a.store, a.logger)

	metrics := observability.NewGatewayMetrics(a.registry)
	tracker := connectivity.NewTracker()
	tracker.OnChange(func(from, to connectivity.Mode) {
		a.logger.Info("connectivity changed", "from", from.String(), "to", to.String())
	})

	gw, err := gateway.New(gateway.Options{
		Sender:  transport.New(cfg.TransportConfig()),
		Tracker: tracker,
		Session: a.session,
		Navigator: gateway.NavigatorFunc(func() {
			a.printer.Warning("Session expired. Run `crmctl login` to sign in again.")
		}),
		Dev:     cfg.Dev,
		BaseURL: cfg.APIBase,
		Logger:  a.logger,
		Metrics: metrics,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.gateway = gw
	a.api = api.New(gw, a.session)
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close session store", "error", err)
		}
	}
	if a.shutdownTrace != nil {
		_ = a.shutdownTrace(context.Background())
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func (a *app) connectivity() ux.Connectivity {
	if a.gateway == nil {
		return ux.Connectivity{}
	}
	st := a.gateway.Status()
	return ux.Connectivity{
		BaseURL:       st.BaseURL,
		Reachable:     st.Reachable,
		UsingFallback: st.UsingFallback,
		LastFailure:   st.LastFailure,
	}
}

// reportError prints err in the most useful form for its type.
func (a *app) reportError(err error) {
	var vErr *gateway.ValidationError
	var authErr *gateway.AuthError
	switch {
	case errors.As(err, &vErr):
		a.printer.Error(vErr.Message)
		keys := make([]string, 0, len(vErr.Fields))
		for k := range vErr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			a.printer.Info(fmt.Sprintf("%s: %s", k, vErr.Fields[k]))
		}
	case errors.As(err, &authErr):
		msg := "Not signed in or session expired"
		if tErr, ok := transport.AsError(err); ok {
			if m, _ := gateway.ExtractMessage(tErr.Body); m != "" {
				msg = m
			}
		}
		a.printer.Error(msg)
	default:
		if tErr, ok := transport.AsError(err); ok && tErr.Status > 0 {
			msg, _ := gateway.ExtractMessage(tErr.Body)
			if msg == "" {
				msg = strings.TrimSpace(tErr.Error())
			}
			a.printer.Error(fmt.Sprintf("%s (HTTP %d)", msg, tErr.Status))
			return
		}
		a.printer.Error(err.Error())
	}
}

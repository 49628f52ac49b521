// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/realestatecrm/crmgateway/internal/transport"
)

// Environment variables that override the file.
const (
	EnvAPIBase = "VITE_API_BASE"
	EnvDev     = "CRM_DEV"
)

// MinRequestTimeout is the floor Validated applies to RequestTimeout.
const MinRequestTimeout = time.Second

// Config is the client configuration stored in ~/.crm/crm.yaml.
type Config struct {
	// APIBase is the backend base URL including /api/v1.
	APIBase string `yaml:"api_base"`

	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Dev enables cache-busting on reads.
	Dev bool `yaml:"dev"`

	// SessionDir holds the persistent session store. Empty keeps the
	// session in memory.
	SessionDir string `yaml:"session_dir"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	// HealthInterval is the background probe period; zero disables it.
	HealthInterval time.Duration `yaml:"health_interval"`

	Log LogConfig `yaml:"log"`
}

// LogConfig selects log level and destination.
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir,omitempty"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() Config {
	return Config{
		APIBase:        transport.DefaultBaseURL,
		RequestTimeout: transport.DefaultTimeout,
		SessionDir:     "~/.crm/session",
		HealthInterval: 30 * time.Second,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.crm/crm.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".crm", "crm.yaml"), nil
}

// Load reads the config at path, creating it with defaults when missing,
// then applies environment overrides.
//
// # Inputs
//
//   - path: Config file path. Empty uses DefaultPath.
//
// # Outputs
//
//   - Config: File values over defaults, with env overrides applied.
//   - bool: True when the file was created by this call.
//   - error: Read, parse, or create failure.
func Load(path string) (Config, bool, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, false, err
		}
		path = p
	}

	created := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return Config{}, false, err
		}
		created = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, created, fmt.Errorf("failed to read the config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, created, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, created, nil
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIBase); ok && strings.TrimSpace(v) != "" {
		c.APIBase = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvDev); ok {
		if dev, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.Dev = dev
		}
	}
}

// Validated returns a copy with empty or out-of-range fields replaced by
// defaults.
func (c Config) Validated() Config {
	out := c
	if strings.TrimSpace(out.APIBase) == "" {
		out.APIBase = transport.DefaultBaseURL
	}
	out.APIBase = strings.TrimRight(out.APIBase, "/")
	if out.RequestTimeout <= 0 {
		out.RequestTimeout = transport.DefaultTimeout
	} else if out.RequestTimeout < MinRequestTimeout {
		out.RequestTimeout = MinRequestTimeout
	}
	if out.RateLimitRPS < 0 {
		out.RateLimitRPS = 0
	}
	if out.RateLimitRPS > 0 && out.RateLimitBurst <= 0 {
		out.RateLimitBurst = 1
	}
	if out.HealthInterval < 0 {
		out.HealthInterval = 0
	}
	if out.Log.Level == "" {
		out.Log.Level = "info"
	}
	return out
}

// TransportConfig maps the config onto the HTTP client settings.
func (c Config) TransportConfig() transport.Config {
	return transport.Config{
		BaseURL:   c.APIBase,
		Timeout:   c.RequestTimeout,
		RateLimit: c.RateLimitRPS,
		Burst:     c.RateLimitBurst,
	}
}

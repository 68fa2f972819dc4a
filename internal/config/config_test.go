// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults failed validation: %v", err)
	}
	if cfg.Server.Port != 28777 {
		t.Errorf("default server port = %d, want 28777", cfg.Server.Port)
	}
	if cfg.Server.Delimiter != "\r\n" {
		t.Errorf("default delimiter = %q, want CRLF", cfg.Server.Delimiter)
	}
	if cfg.Server.PingInterval != 2*time.Second {
		t.Errorf("default ping interval = %v, want 2s", cfg.Server.PingInterval)
	}
	if cfg.Harvester.PollInterval != time.Second {
		t.Errorf("default poll interval = %v, want 1s", cfg.Harvester.PollInterval)
	}
	if cfg.Harvester.BackoffCap != 0 {
		t.Errorf("default backoff cap = %v, want unbounded", cfg.Harvester.BackoffCap)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("LOGTIDE_SERVER_PORT", "12345")
	t.Setenv("LOGTIDE_SERVER_PING_INTERVAL", "500ms")
	t.Setenv("LOGTIDE_LOGGING_LEVEL", "debug")
	t.Setenv("LOGTIDE_SERVER_RESTRICT_IPS", "10.0.0.1, 10.0.0.2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 12345 {
		t.Errorf("port = %d, want 12345", cfg.Server.Port)
	}
	if cfg.Server.PingInterval != 500*time.Millisecond {
		t.Errorf("ping interval = %v, want 500ms", cfg.Server.PingInterval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if want := []string{"10.0.0.1", "10.0.0.2"}; !reflect.DeepEqual(cfg.Server.RestrictIPs, want) {
		t.Errorf("restrict_ips = %v, want %v", cfg.Server.RestrictIPs, want)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 29999
harvester:
  node_name: web01
  server_host: logs.internal
  streams:
    access:
      - /var/log/nginx/access.log
    errors:
      - /var/log/nginx/error.log
      - /var/log/app/error.log
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 29999 {
		t.Errorf("port = %d, want 29999", cfg.Server.Port)
	}
	if cfg.Harvester.NodeName != "web01" {
		t.Errorf("node_name = %q, want web01", cfg.Harvester.NodeName)
	}
	if got := cfg.Harvester.Addr(); got != "logs.internal:28777" {
		t.Errorf("harvester addr = %q", got)
	}
	if len(cfg.Harvester.Streams["errors"]) != 2 {
		t.Errorf("errors stream paths = %v", cfg.Harvester.Streams["errors"])
	}
	if err := cfg.ValidateHarvester(); err != nil {
		t.Errorf("harvester validation: %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 29999\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOGTIDE_SERVER_PORT", "30000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 30000 {
		t.Errorf("port = %d, want env override 30000", cfg.Server.Port)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 0 },
			want:   "Port",
		},
		{
			name:   "empty delimiter",
			mutate: func(c *Config) { c.Server.Delimiter = "" },
			want:   "Delimiter",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "loud" },
			want:   "Level",
		},
		{
			name:   "tls cert without key",
			mutate: func(c *Config) { c.Server.TLSCert = "/etc/logtide/cert.pem" },
			want:   "TLSKey",
		},
		{
			name:   "bad restrict ip",
			mutate: func(c *Config) { c.Server.RestrictIPs = []string{"not-an-ip"} },
			want:   "RestrictIPs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}

func TestValidateHarvesterRequirements(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateHarvester(); err == nil {
		t.Error("expected error for missing node name")
	}

	cfg.Harvester.NodeName = "web01"
	if err := cfg.ValidateHarvester(); err == nil {
		t.Error("expected error for empty streams")
	}

	cfg.Harvester.Streams = map[string][]string{"app": {}}
	if err := cfg.ValidateHarvester(); err == nil {
		t.Error("expected error for stream without paths")
	}

	cfg.Harvester.Streams = map[string][]string{"app": {"/var/log/app.log"}}
	if err := cfg.ValidateHarvester(); err != nil {
		t.Errorf("valid harvester config rejected: %v", err)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"LOGTIDE_SERVER_PORT", "server.port"},
		{"LOGTIDE_SERVER_PING_INTERVAL", "server.ping_interval"},
		{"LOGTIDE_HARVESTER_NODE_NAME", "harvester.node_name"},
		{"LOGTIDE_NATS_URL", "nats.url"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

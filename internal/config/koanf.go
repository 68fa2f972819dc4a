// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/logtide/internal/protocol"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/logtide/config.yaml",
	"/etc/logtide/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "LOGTIDE_CONFIG"

// envPrefix namespaces Logtide's environment variables.
const envPrefix = "LOGTIDE_"

// Default returns the built-in defaults, applied before file and
// environment layers.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         28777,
			Delimiter:    protocol.DefaultDelimiter,
			PingInterval: 2 * time.Second,
		},
		Harvester: HarvesterConfig{
			Streams:      map[string][]string{},
			ServerHost:   "127.0.0.1",
			ServerPort:   28777,
			Delimiter:    protocol.DefaultDelimiter,
			PollInterval: time.Second,
			DialTimeout:  5 * time.Second,
			KeepAlive:    30 * time.Second,
			BackoffCap:   0, // unbounded doubling unless capped
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9123",
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "logtide",
			MaxReconnects: -1, // retry forever
			ReconnectWait: 2 * time.Second,
		},
	}
}

// Load assembles configuration from defaults, an optional YAML file, and
// LOGTIDE_* environment variables, then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first config file that exists, honoring the
// LOGTIDE_CONFIG override.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps environment variable names to config paths. The first
// underscore separates the section from the field:
//
//	LOGTIDE_SERVER_PORT          -> server.port
//	LOGTIDE_SERVER_PING_INTERVAL -> server.ping_interval
//	LOGTIDE_HARVESTER_NODE_NAME  -> harvester.node_name
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// sliceConfigPaths lists fields parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"server.restrict_ips",
}

// processSliceFields converts comma-separated strings to slices for known
// slice fields; YAML-sourced values are already slices and pass through.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

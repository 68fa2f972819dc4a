// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

// Package config loads and validates configuration for both binaries.
// Sources are layered: built-in defaults, then an optional YAML file,
// then environment variables (highest priority).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration shared by the server and harvester
// binaries; each binary reads its own sections.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Harvester HarvesterConfig `koanf:"harvester"`
	Logging   LoggingConfig   `koanf:"logging"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	NATS      NATSConfig      `koanf:"nats"`
}

// ServerConfig configures the aggregator's TCP protocol engine. The TLS
// and restriction fields are consumed by the fronting relay/HTTP layer;
// the protocol engine itself does not terminate TLS or filter peers.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port" validate:"min=1,max=65535"`
	Delimiter    string        `koanf:"delimiter" validate:"required"`
	PingInterval time.Duration `koanf:"ping_interval" validate:"gt=0"`

	TLSCert        string   `koanf:"tls_cert" validate:"required_with=TLSKey"`
	TLSKey         string   `koanf:"tls_key" validate:"required_with=TLSCert"`
	RestrictIPs    []string `koanf:"restrict_ips" validate:"dive,ip|cidr"`
	RestrictOrigin string   `koanf:"restrict_origin"`
}

// Addr returns the engine's listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// HarvesterConfig configures one harvester process.
type HarvesterConfig struct {
	// NodeName is this harvester's node identity.
	NodeName string `koanf:"node_name"`

	// Streams maps stream name to the file paths that feed it.
	Streams map[string][]string `koanf:"streams"`

	ServerHost string `koanf:"server_host" validate:"required"`
	ServerPort int    `koanf:"server_port" validate:"min=1,max=65535"`

	Delimiter    string        `koanf:"delimiter" validate:"required"`
	PollInterval time.Duration `koanf:"poll_interval" validate:"gt=0"`
	DialTimeout  time.Duration `koanf:"dial_timeout" validate:"gt=0"`
	KeepAlive    time.Duration `koanf:"keep_alive" validate:"gt=0"`

	// BackoffCap bounds the exponential reconnect delay. Zero leaves it
	// unbounded.
	BackoffCap time.Duration `koanf:"backoff_cap" validate:"min=0"`
}

// Addr returns the aggregator address the harvester dials.
func (h HarvesterConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.ServerHost, h.ServerPort)
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig configures the server's operational HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr" validate:"required_if=Enabled true"`
}

// NATSConfig configures the optional event bridge (build tag "nats").
type NATSConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url" validate:"required_if=Enabled true"`
	SubjectPrefix string        `koanf:"subject_prefix"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// use a single validator instance; it caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the sections both binaries depend on. Field errors are
// collapsed into one readable message.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return translateValidationErr(err)
	}
	return nil
}

// ValidateHarvester applies the extra requirements of the harvester
// binary: a node identity and at least one stream with at least one path.
func (c *Config) ValidateHarvester() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Harvester.NodeName == "" {
		return fmt.Errorf("harvester.node_name is required")
	}
	if len(c.Harvester.Streams) == 0 {
		return fmt.Errorf("harvester.streams must configure at least one stream")
	}
	for stream, paths := range c.Harvester.Streams {
		if stream == "" {
			return fmt.Errorf("harvester.streams contains an empty stream name")
		}
		if len(paths) == 0 {
			return fmt.Errorf("harvester.streams.%s has no file paths", stream)
		}
	}
	return nil
}

// translateValidationErr renders validator's field errors as one message.
func translateValidationErr(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(parts, "; "))
}

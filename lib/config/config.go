// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/wirelog/wirelog/connections"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the client configuration.
type Config struct {
	// Environment identifies the deployment type (development,
	// staging, production).
	Environment Environment `yaml:"environment"`

	// AppName identifies this application in emitted packets.
	AppName string `yaml:"app_name"`

	// HostName overrides the OS host name in emitted packets.
	// Empty means use the OS host name.
	HostName string `yaml:"host_name"`

	// Connections is the connections string naming the transports and
	// their options, for example:
	//
	//	file(filename=${HOME}/logs/app.sil, rotate=daily)
	Connections string `yaml:"connections"`

	// Enabled gates logging as a whole. Nil means enabled.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains fields that can be overridden per environment.
type Overrides struct {
	AppName     string `yaml:"app_name,omitempty"`
	HostName    string `yaml:"host_name,omitempty"`
	Connections string `yaml:"connections,omitempty"`
	Enabled     *bool  `yaml:"enabled,omitempty"`
}

// Default returns the default configuration. The defaults exist to
// give every field a sensible zero value, not as a fallback; the
// config file is required.
func Default() *Config {
	return &Config{
		Environment: Development,
		Connections: "file(filename=log.sil)",
	}
}

// IsEnabled reports whether logging is switched on.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Load loads configuration from the WIRELOG_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit
// path. There are no fallbacks: if WIRELOG_CONFIG is not set, Load
// fails.
func Load() (*Config, error) {
	path := os.Getenv("WIRELOG_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("WIRELOG_CONFIG environment variable not set; " +
			"set it to the path of your wirelog.yaml config file")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment
// variables do not override config values; the only expansion
// performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// applyEnvironmentOverrides applies the section matching
// c.Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}
	if overrides.AppName != "" {
		c.AppName = overrides.AppName
	}
	if overrides.HostName != "" {
		c.HostName = overrides.HostName
	}
	if overrides.Connections != "" {
		c.Connections = overrides.Connections
	}
	if overrides.Enabled != nil {
		c.Enabled = overrides.Enabled
	}
}

// variablePattern matches ${VAR} references in the connections string.
var variablePattern = regexp.MustCompile(`\$\{(\w+)\}`)

// expandVariables expands ${HOME} and similar references in the
// connections string. Unknown variables are left untouched so a
// missing expansion is visible rather than silently empty.
func (c *Config) expandVariables() {
	c.Connections = variablePattern.ReplaceAllStringFunc(c.Connections, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

// Validate checks the configuration for problems a client would only
// hit later: an unparsable connections string or an unknown
// environment.
func (c *Config) Validate() error {
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if _, err := connections.Parse(c.Connections); err != nil {
		return fmt.Errorf("connections: %w", err)
	}
	return nil
}

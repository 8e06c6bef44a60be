// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the gatherd service configuration.
//
// Configuration is a single YAML file specified by the GATHER_CONFIG
// environment variable or the --config flag. There are no fallbacks or
// automatic discovery; a missing file is an error, not a default.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/gather/lib/calendar"
)

// EnvVar names the environment variable consulted when no --config
// flag is given.
const EnvVar = "GATHER_CONFIG"

// Config is the full gatherd configuration.
type Config struct {
	// Homeserver is the Matrix homeserver URL.
	Homeserver string `yaml:"homeserver"`

	// UserID is the bot account's fully-qualified Matrix user ID.
	// Checked against whoami at startup.
	UserID string `yaml:"user_id"`

	// AccessToken authenticates the bot's Matrix account.
	AccessToken string `yaml:"access_token"`

	// DatabasePath is the SQLite event store location.
	DatabasePath string `yaml:"database_path"`

	// Prefix is the invocation word commands must start with.
	Prefix string `yaml:"prefix"`

	// VIPs are display names whose yes/no confirmations get
	// decorated replies.
	VIPs []string `yaml:"vips"`

	// VIPYesPrefixes and VIPNoSuffixes are the decoration pools. The
	// classic sets are used when omitted.
	VIPYesPrefixes []string `yaml:"vip_yes_prefixes"`
	VIPNoSuffixes  []string `yaml:"vip_no_suffixes"`

	// Contributors and Testers feed the credits command.
	Contributors []string `yaml:"contributors"`
	Testers      []string `yaml:"testers"`

	// Calendar configures the Google Calendar bridge. When omitted,
	// calendar sync is disabled and "add to calendar" explains why.
	Calendar *calendar.GoogleConfig `yaml:"calendar,omitempty"`
}

// defaultVIPYesPrefixes decorate a VIP's yes.
var defaultVIPYesPrefixes = []string{
	"GET EXCITED!! ",
	"AWWW YISS!! ",
	"YASSSSS HENNY! ",
	"OMG OMG OMG ",
	"HYPE HYPE HYPE HYPE HYPE ",
	"WOW THIS IS AWESOME: ",
	"YEAAAAAAHHH!!!! :tada: ",
}

// defaultVIPNoSuffixes commiserate a VIP's no.
var defaultVIPNoSuffixes = []string{
	" :confounded:",
	" Bummer!",
	" Oh no!!",
}

// Path resolves the config file location from the flag value, falling
// back to the GATHER_CONFIG environment variable.
func Path(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("config: no --config flag and %s is not set", EnvVar)
}

// Load reads, parses, validates, and defaults a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills the optional fields.
func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = "rsvp"
	}
	if len(c.VIPYesPrefixes) == 0 {
		c.VIPYesPrefixes = defaultVIPYesPrefixes
	}
	if len(c.VIPNoSuffixes) == 0 {
		c.VIPNoSuffixes = defaultVIPNoSuffixes
	}
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if c.Homeserver == "" {
		return fmt.Errorf("homeserver is required")
	}
	if c.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("access_token is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	return nil
}

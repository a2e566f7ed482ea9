// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the forumctl configuration file.
type Config struct {
	Endpoint     string `toml:"endpoint"`
	Token        string `toml:"token"`
	StateFile    string `toml:"state_file"`
	ValkeyAddr   string `toml:"valkey_addr,omitempty"` // host:port; overrides state_file
	ValkeyDB     int    `toml:"valkey_db,omitempty"`
	PollInterval string `toml:"poll_interval"`
	Ceiling      string `toml:"ceiling"`
	Timeout      string `toml:"timeout,omitempty"`
}

// NewConfig returns a config with defaults for the given token and data
// directory.
func NewConfig(token, baseDir string) *Config {
	return &Config{
		Endpoint:     "http://localhost:8080",
		Token:        token,
		StateFile:    filepath.Join(baseDir, "submissions.json"),
		PollInterval: "30s",
		Ceiling:      "10m",
	}
}

// durations parses the duration fields. Empty fields yield zero, which
// the tracker and client replace with their defaults.
func (c *Config) durations() (poll, ceiling, timeout time.Duration, err error) {
	parse := func(name, v string) time.Duration {
		if v == "" {
			return 0
		}
		d, perr := time.ParseDuration(v)
		if perr != nil || d <= 0 {
			err = errors.Join(err, fmt.Errorf("%s: invalid duration %q", name, v))
			return 0
		}
		return d
	}
	poll = parse("poll_interval", c.PollInterval)
	ceiling = parse("ceiling", c.Ceiling)
	timeout = parse("timeout", c.Timeout)
	return poll, ceiling, timeout, err
}

// Validate checks the fields every command needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Endpoint == "" {
		errs = append(errs, errors.New("endpoint is required"))
	}
	if c.Token == "" {
		errs = append(errs, errors.New("token is required"))
	}
	if c.StateFile == "" && c.ValkeyAddr == "" {
		errs = append(errs, errors.New("state_file or valkey_addr is required"))
	}
	if _, _, _, err := c.durations(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ReadConfig decodes a Config from r.
func ReadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// ReadConfigFile reads and validates the config at path.
func ReadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := ReadConfig(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// InitConfig writes cfg to path, refusing to overwrite an existing file.
func InitConfig(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The token is the identity; keep it private.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// defaultPaths returns the config path and data directory, checking
// FORUMCTL_CONFIG and FORUMCTL_HOME first.
func defaultPaths() (configPath, baseDir string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	configPath = os.Getenv("FORUMCTL_CONFIG")
	if configPath == "" {
		configPath = filepath.Join(home, ".config", "forumctl.toml")
	}
	baseDir = os.Getenv("FORUMCTL_HOME")
	if baseDir == "" {
		baseDir = filepath.Join(home, ".local", "share", "forumctl")
	}
	return configPath, baseDir, nil
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitAndReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "forumctl.toml")

	cfg := NewConfig("token-123", dir)
	if err := InitConfig(path, cfg); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config mode: got %v, want 0600", info.Mode().Perm())
	}

	got, err := ReadConfigFile(path)
	if err != nil {
		t.Fatalf("ReadConfigFile: %v", err)
	}
	if got.Token != "token-123" || got.Endpoint != cfg.Endpoint {
		t.Errorf("unexpected config: %+v", got)
	}
	if got.StateFile != filepath.Join(dir, "submissions.json") {
		t.Errorf("state file: got %q", got.StateFile)
	}

	if err := InitConfig(path, cfg); err == nil {
		t.Error("expected an error when the config already exists")
	}
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(strings.NewReader(`
endpoint = "https://api.example.com"
token = "abc"
valkey_addr = "localhost:6379"
valkey_db = 2
poll_interval = "5s"
ceiling = "2m"
`))
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	poll, ceiling, timeout, err := cfg.durations()
	if err != nil {
		t.Fatal(err)
	}
	if poll != 5*time.Second || ceiling != 2*time.Minute || timeout != 0 {
		t.Errorf("durations: got %v %v %v", poll, ceiling, timeout)
	}
	if cfg.ValkeyDB != 2 {
		t.Errorf("valkey db: got %d", cfg.ValkeyDB)
	}

	if _, err := ReadConfig(strings.NewReader("endpoint = ")); err == nil {
		t.Error("expected a decode error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing endpoint", Config{Token: "t", StateFile: "s"}, "endpoint is required"},
		{"missing token", Config{Endpoint: "e", StateFile: "s"}, "token is required"},
		{"missing store", Config{Endpoint: "e", Token: "t"}, "state_file or valkey_addr"},
		{"bad duration", Config{Endpoint: "e", Token: "t", StateFile: "s", Ceiling: "soon"}, "ceiling"},
		{"negative duration", Config{Endpoint: "e", Token: "t", StateFile: "s", PollInterval: "-1s"}, "poll_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Push.MaxReconnectAttempts != 5 {
		t.Errorf("expected max_reconnect_attempts=5, got %d", cfg.Push.MaxReconnectAttempts)
	}
	if cfg.Push.ReconnectDelay.Std() != time.Second {
		t.Errorf("expected reconnect_delay=1s, got %v", cfg.Push.ReconnectDelay.Std())
	}
	if cfg.Session.Expiry.Std() != 7*24*time.Hour {
		t.Errorf("expected expiry=168h, got %v", cfg.Session.Expiry.Std())
	}
	if cfg.Session.AutosaveInterval.Std() != 30*time.Second {
		t.Errorf("expected autosave_interval=30s, got %v", cfg.Session.AutosaveInterval.Std())
	}
}

func TestLoad_WithoutVariableUsesDefaults(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	t.Setenv("CHATDESK_SERVER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.URL != "http://localhost:5000" {
		t.Errorf("expected expanded default server url, got %s", cfg.Server.URL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults failed validation: %v", err)
	}
}

func TestLoad_WithVariable(t *testing.T) {
	path := writeConfig(t, "chatdesk.yaml", `
server:
  url: https://chat.example.com
push:
  reconnect_delay: 2s
  max_reconnect_attempts: 3
`)
	t.Setenv(EnvironmentVariable, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.URL != "https://chat.example.com" {
		t.Errorf("expected server url from file, got %s", cfg.Server.URL)
	}
	if cfg.Push.ReconnectDelay.Std() != 2*time.Second || cfg.Push.MaxReconnectAttempts != 3 {
		t.Errorf("push = %+v", cfg.Push)
	}
	// Unset keys keep their defaults.
	if cfg.Push.HeartbeatInterval.Std() != 30*time.Second {
		t.Errorf("expected default heartbeat, got %v", cfg.Push.HeartbeatInterval.Std())
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	path := writeConfig(t, "chatdesk.jsonc", `{
  // Staging backend.
  "server": {"url": "https://staging.example.com"},
  "session": {
    "expiry": "48h",
    "autosave_interval": 10, // bare integers are seconds
  },
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Server.URL != "https://staging.example.com" {
		t.Errorf("expected server url from jsonc, got %s", cfg.Server.URL)
	}
	if cfg.Session.Expiry.Std() != 48*time.Hour {
		t.Errorf("expected expiry=48h, got %v", cfg.Session.Expiry.Std())
	}
	if cfg.Session.AutosaveInterval.Std() != 10*time.Second {
		t.Errorf("expected autosave_interval=10s, got %v", cfg.Session.AutosaveInterval.Std())
	}
}

func TestLoadFile_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "chatdesk.yaml", "push:\n  reconnect_delay: soon\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "chatdesk.yaml", `
environment: production
server:
  url: http://localhost:5000
log:
  level: debug
production:
  server:
    url: https://chat.example.com
  push:
    max_reconnect_attempts: 8
  session:
    encrypt_credentials: true
  log:
    level: error
development:
  server:
    url: http://dev.invalid
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Server.URL != "https://chat.example.com" {
		t.Errorf("expected production url, got %s", cfg.Server.URL)
	}
	if cfg.Push.MaxReconnectAttempts != 8 {
		t.Errorf("expected max_reconnect_attempts=8, got %d", cfg.Push.MaxReconnectAttempts)
	}
	if !cfg.Session.EncryptCredentials {
		t.Error("expected encrypt_credentials from production override")
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected log level error, got %s", cfg.Log.Level)
	}
	// Non-overridden values survive.
	if cfg.Push.ReconnectDelay.Std() != time.Second {
		t.Errorf("expected default reconnect delay, got %v", cfg.Push.ReconnectDelay.Std())
	}
}

func TestProductionWithoutSectionLogsLess(t *testing.T) {
	path := writeConfig(t, "chatdesk.yaml", "environment: production\nserver:\n  url: https://chat.example.com\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("expected warn level in production, got %v", cfg.SlogLevel())
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("CHATDESK_TEST_HOST", "chat.internal")
	t.Setenv("CHATDESK_TEST_EMPTY", "")
	path := writeConfig(t, "chatdesk.yaml", `
server:
  url: https://${CHATDESK_TEST_HOST}
paths:
  downloads: ${CHATDESK_TEST_EMPTY:-/tmp/fallback}/files
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Server.URL != "https://chat.internal" {
		t.Errorf("expected expanded url, got %s", cfg.Server.URL)
	}
	if cfg.Paths.Downloads != "/tmp/fallback/files" {
		t.Errorf("expected default applied for empty variable, got %s", cfg.Paths.Downloads)
	}
}

func TestPushURL(t *testing.T) {
	tests := []struct {
		server    string
		websocket string
		want      string
	}{
		{"https://chat.example.com", "", "wss://chat.example.com/ws"},
		{"http://localhost:5000/", "", "ws://localhost:5000/ws"},
		{"https://chat.example.com/backend?x=1", "", "wss://chat.example.com/backend/ws"},
		{"https://chat.example.com", "wss://push.example.com/socket", "wss://push.example.com/socket"},
	}
	for _, test := range tests {
		cfg := Default()
		cfg.Server.URL = test.server
		cfg.Server.WebSocketURL = test.websocket
		got, err := cfg.PushURL()
		if err != nil {
			t.Errorf("PushURL(%q): %v", test.server, err)
			continue
		}
		if got != test.want {
			t.Errorf("PushURL(%q) = %q, want %q", test.server, got, test.want)
		}
	}

	cfg := Default()
	cfg.Server.URL = "ftp://example.com"
	if _, err := cfg.PushURL(); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.URL = "https://chat.example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.Environment = "staging"
	cfg.Server.URL = "chat.example.com"
	cfg.Push.MaxReconnectAttempts = 0
	cfg.Push.ReconnectDelay = 0
	cfg.Session.Expiry = -1
	cfg.Log.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, fragment := range []string{
		"invalid environment",
		"server.url",
		"max_reconnect_attempts",
		"reconnect_delay",
		"session.expiry",
		"log.level",
	} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q does not mention %s", err, fragment)
		}
	}
}

func TestEnsurePaths(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Paths = PathsConfig{
		Session:     filepath.Join(root, "state", "session.json"),
		Credentials: filepath.Join(root, "state", "credentials.json"),
		ChatCache:   filepath.Join(root, "cache", "chats.cbor.zst"),
		Downloads:   filepath.Join(root, "downloads"),
	}
	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	for _, directory := range []string{"state", "cache", "downloads"} {
		info, err := os.Stat(filepath.Join(root, directory))
		if err != nil {
			t.Fatalf("stat %s: %v", directory, err)
		}
		if info.Mode().Perm() != 0700 {
			t.Errorf("%s mode = %v, want 0700", directory, info.Mode().Perm())
		}
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/chatdesk/lib/config"
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
	"github.com/bureau-foundation/chatdesk/lib/session"
	"github.com/bureau-foundation/chatdesk/lib/testutil"
)

// writeConfig points CHATDESK_CONFIG at a file whose paths all live
// in a temporary directory, and returns the loaded configuration.
func writeConfig(t *testing.T, serverURL string, extra string) *config.Config {
	t.Helper()
	directory := t.TempDir()
	path := filepath.Join(directory, "chatdesk.yaml")
	content := fmt.Sprintf(`server:
  url: %s
paths:
  session: %s
  credentials: %s
  chat_cache: %s
  downloads: %s
%s`,
		serverURL,
		filepath.Join(directory, "state", "session.json"),
		filepath.Join(directory, "state", "credentials.json"),
		filepath.Join(directory, "cache", "chats.cbor.zst"),
		filepath.Join(directory, "downloads"),
		extra,
	)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvironmentVariable, path)
	t.Setenv(passphraseVariable, "")

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return cfg
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var commandErr *commandError
	if !errors.As(err, &commandErr) {
		t.Fatalf("error %v (%T) is not a commandError", err, err)
	}
	return commandErr.ExitCode()
}

func TestUnknownCommand(t *testing.T) {
	err := run([]string{"frobnicate"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := exitCode(t, err); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(err.Error(), "chatdesk --help") {
		t.Errorf("error %q carries no hint", err)
	}
}

func TestUnknownFlag(t *testing.T) {
	if code := exitCode(t, run([]string{"--bogus"})); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
}

func TestVersionRejectsArguments(t *testing.T) {
	if code := exitCode(t, run([]string{"version", "extra"})); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
}

func TestInvalidConfiguration(t *testing.T) {
	writeConfig(t, "http://localhost:5000", "push:\n  max_reconnect_attempts: -1\n")
	err := run([]string{"logout"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := exitCode(t, err); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(err.Error(), "max_reconnect_attempts") {
		t.Errorf("error %q does not name the bad key", err)
	}
}

func TestExplicitConfigFlag(t *testing.T) {
	cfg := writeConfig(t, "http://localhost:5000", "")
	path := os.Getenv(config.EnvironmentVariable)
	t.Setenv(config.EnvironmentVariable, "")

	loaded, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if loaded.Paths.Credentials != cfg.Paths.Credentials {
		t.Errorf("credentials path = %q, want %q", loaded.Paths.Credentials, cfg.Paths.Credentials)
	}
	if _, err := os.Stat(filepath.Dir(cfg.Paths.Session)); err != nil {
		t.Errorf("session directory not created: %v", err)
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config file accepted")
	}
}

func TestLoginRequiresUser(t *testing.T) {
	writeConfig(t, "http://localhost:5000", "")
	err := run([]string{"login"})
	if code := exitCode(t, err); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
}

func loginServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/login" {
			http.NotFound(writer, request)
			return
		}
		var body struct {
			UID      string `json:"uid"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil || body.Password != "hunter2" {
			testutil.WriteJSON(writer, http.StatusUnauthorized, map[string]any{"success": false, "message": "bad credentials"})
			return
		}
		testutil.WriteEnvelope(writer, http.StatusOK, map[string]any{
			"token": "issued-token",
			"user":  map[string]any{"id": 7, "uid": body.UID, "name": "Ana Lima", "role": "agent"},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLoginSavesCredentials(t *testing.T) {
	server := loginServer(t)
	cfg := writeConfig(t, server.URL, "")
	passwordFile := filepath.Join(t.TempDir(), "password")
	if err := os.WriteFile(passwordFile, []byte("hunter2\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := run([]string{"login", "ana", "--password-file", passwordFile}); err != nil {
		t.Fatalf("login: %v", err)
	}

	credentials, err := loadCredentials(cfg)
	if err != nil {
		t.Fatalf("loadCredentials: %v", err)
	}
	if credentials.Token != "issued-token" || credentials.User.ID != 7 || credentials.Server != server.URL {
		t.Errorf("credentials = %+v", credentials)
	}
	info, err := os.Stat(cfg.Paths.Credentials)
	if err != nil {
		t.Fatal(err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("credentials mode = %o, want 600", mode)
	}
}

func TestLoginRejected(t *testing.T) {
	server := loginServer(t)
	cfg := writeConfig(t, server.URL, "")
	passwordFile := filepath.Join(t.TempDir(), "password")
	if err := os.WriteFile(passwordFile, []byte("wrong"), 0600); err != nil {
		t.Fatal(err)
	}

	err := run([]string{"login", "ana", "--password-file", passwordFile})
	if code := exitCode(t, err); code != exitFailure {
		t.Errorf("exit code = %d, want %d", code, exitFailure)
	}
	if _, err := os.Stat(cfg.Paths.Credentials); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("credentials written after a rejected login: %v", err)
	}
}

func TestLogout(t *testing.T) {
	cfg := writeConfig(t, "http://localhost:5000", "")
	store := session.CredentialStore{Path: cfg.Paths.Credentials}
	if err := store.Save(session.Credentials{Server: cfg.Server.URL, Token: "t"}); err != nil {
		t.Fatal(err)
	}
	session.NewStore(session.StoreConfig{Path: cfg.Paths.Session}).Save(session.Data{SelectedChatUUID: "a"})

	if err := run([]string{"logout"}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, session.ErrNoCredentials) {
		t.Errorf("credentials after logout: %v", err)
	}
	if snapshot := session.NewStore(session.StoreConfig{Path: cfg.Paths.Session}).Load(); snapshot != nil {
		t.Errorf("session after logout: %+v", snapshot)
	}
	// Signing out twice is fine.
	if err := run([]string{"logout"}); err != nil {
		t.Errorf("second logout: %v", err)
	}
}

func TestRunWithoutCredentials(t *testing.T) {
	writeConfig(t, "http://localhost:5000", "")
	err := run(nil)
	if code := exitCode(t, err); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(err.Error(), "chatdesk login") {
		t.Errorf("error %q does not say how to sign in", err)
	}
}

func TestLoadCredentialsServerMismatch(t *testing.T) {
	cfg := writeConfig(t, "http://localhost:5000", "")
	store := session.CredentialStore{Path: cfg.Paths.Credentials}
	if err := store.Save(session.Credentials{Server: "https://other.example.com", Token: "t"}); err != nil {
		t.Fatal(err)
	}
	_, err := loadCredentials(cfg)
	if code := exitCode(t, err); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
}

func TestLoadCredentialsSealed(t *testing.T) {
	cfg := writeConfig(t, "http://localhost:5000", "")
	store := session.CredentialStore{Path: cfg.Paths.Credentials, Passphrase: "correct horse", WorkFactor: 10}
	saved := session.Credentials{Server: cfg.Server.URL, Token: "sealed-token", User: chat.User{ID: 3}}
	if err := store.Save(saved); err != nil {
		t.Fatal(err)
	}

	t.Setenv(passphraseVariable, "correct horse")
	credentials, err := loadCredentials(cfg)
	if err != nil {
		t.Fatalf("loadCredentials: %v", err)
	}
	if credentials.Token != "sealed-token" {
		t.Errorf("token = %q", credentials.Token)
	}

	t.Setenv(passphraseVariable, "wrong")
	if _, err := loadCredentials(cfg); err == nil || !strings.Contains(err.Error(), "wrong passphrase") {
		t.Errorf("wrong passphrase error = %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	saved := chat.User{ID: 1, Name: "Saved"}
	logger := slog.New(slog.DiscardHandler)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.Header.Get("Authorization") {
		case "Bearer good":
			testutil.WriteEnvelope(writer, http.StatusOK, map[string]any{"id": 1, "name": "Fresh"})
		case "Bearer expired":
			testutil.WriteJSON(writer, http.StatusUnauthorized, map[string]any{"success": false})
		default:
			testutil.WriteJSON(writer, http.StatusInternalServerError, map[string]any{"success": false})
		}
	}))
	t.Cleanup(server.Close)
	cfg := writeConfig(t, server.URL, "")
	client, err := newAPIClient(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}

	user, err := currentUser(client.SessionFromToken("good"), saved, logger)
	if err != nil || user.Name != "Fresh" {
		t.Errorf("fresh user = %+v, %v", user, err)
	}
	user, err = currentUser(client.SessionFromToken("broken"), saved, logger)
	if err != nil || user.Name != "Saved" {
		t.Errorf("fallback user = %+v, %v", user, err)
	}
	if _, err := currentUser(client.SessionFromToken("expired"), saved, logger); err == nil {
		t.Error("expired token accepted")
	}
}

func TestPushInterval(t *testing.T) {
	if got := pushInterval(0); got >= 0 {
		t.Errorf("zero maps to %v, want disabled", got)
	}
	if got := pushInterval(config.Duration(5 * time.Second)); got != 5*time.Second {
		t.Errorf("5s maps to %v", got)
	}
}

func TestCommandErrorHint(t *testing.T) {
	err := failure("broken: %w", os.ErrPermission).WithHint("Fix it.")
	if err.Error() != "broken: permission denied\n\nFix it." {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("wrapped error lost")
	}
	if plain := usageError("bad"); strings.Contains(plain.Error(), "\n") {
		t.Errorf("hintless error = %q", plain.Error())
	}
}

func TestReadSecretFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("s3cret\r\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if value, err := readPassword(path); err != nil || value != "s3cret" {
		t.Errorf("readPassword = %q, %v", value, err)
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := readSecretFile(empty); err == nil {
		t.Error("empty secret file accepted")
	}
}

func TestTeeHandler(t *testing.T) {
	var debug, warn bytes.Buffer
	handler := tee(
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(handler).With("component", "push")

	logger.Debug("probe")
	logger.Warn("reconnecting", "attempt", 2)

	if !strings.Contains(debug.String(), "probe") || !strings.Contains(debug.String(), "reconnecting") {
		t.Errorf("debug handler got %q", debug.String())
	}
	if strings.Contains(warn.String(), "probe") {
		t.Errorf("warn handler got a debug record: %q", warn.String())
	}
	if !strings.Contains(warn.String(), "component=push") || !strings.Contains(warn.String(), "attempt=2") {
		t.Errorf("warn handler got %q", warn.String())
	}
	if handler.Enabled(context.Background(), slog.LevelDebug-4) {
		t.Error("enabled below every handler's level")
	}
}

func TestLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatdesk.log")
	handler, closeFile, err := openLogFile(path)
	if err != nil {
		t.Fatal(err)
	}
	slog.New(handler).Debug("written", "chat", "a")
	if err := closeFile(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log line %q: %v", data, err)
	}
	if record["msg"] != "written" || record["chat"] != "a" {
		t.Errorf("record = %v", record)
	}
}

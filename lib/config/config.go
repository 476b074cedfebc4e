// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads chatdesk client configuration.
//
// The file is named by the --config flag or the CHATDESK_CONFIG
// environment variable. Without either, [Default] is used unchanged.
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas; anything else is read as YAML. Both formats share
// the same keys.
//
// A file may carry development and production sections whose values
// override the base when [Config].Environment matches. After
// overrides, ${VAR} and ${VAR:-default} patterns in the server URLs
// and paths are expanded from the process environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load consults.
const EnvironmentVariable = "CHATDESK_CONFIG"

// Environment selects which override section applies.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the complete client configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Server  ServerConfig  `yaml:"server"`
	Push    PushConfig    `yaml:"push"`
	Session SessionConfig `yaml:"session"`
	Paths   PathsConfig   `yaml:"paths"`
	Log     LogConfig     `yaml:"log"`

	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the per-environment replacements. Only non-zero
// fields replace base values.
type Overrides struct {
	Server  *ServerConfig  `yaml:"server,omitempty"`
	Push    *PushConfig    `yaml:"push,omitempty"`
	Session *SessionConfig `yaml:"session,omitempty"`
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// ServerConfig locates the backend.
type ServerConfig struct {
	// URL is the REST base, e.g. https://chat.example.com. The /api
	// prefix is added by the client.
	URL string `yaml:"url"`

	// WebSocketURL is the push endpoint. Empty derives it from URL
	// (see PushURL).
	WebSocketURL string `yaml:"websocket_url"`
}

// PushConfig tunes the push connection.
type PushConfig struct {
	// MaxReconnectAttempts is the number of consecutive abnormal
	// closures after which the client gives up.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts"`

	// ReconnectDelay is the base of the linear backoff: attempt n
	// waits n times this.
	ReconnectDelay Duration `yaml:"reconnect_delay"`

	// HeartbeatInterval spaces application-level pings. Zero
	// disables them.
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`

	// TypingInterval is the minimum spacing between typing
	// notifications for one conversation.
	TypingInterval Duration `yaml:"typing_interval"`
}

// SessionConfig tunes session persistence.
type SessionConfig struct {
	// Expiry bounds how old a snapshot without a selected
	// conversation may be and still restore.
	Expiry Duration `yaml:"expiry"`

	// AutosaveInterval spaces periodic snapshot writes while a
	// conversation is selected.
	AutosaveInterval Duration `yaml:"autosave_interval"`

	// EncryptCredentials seals the stored token with a passphrase.
	EncryptCredentials bool `yaml:"encrypt_credentials"`
}

// PathsConfig locates files the client writes.
type PathsConfig struct {
	Session     string `yaml:"session"`
	Credentials string `yaml:"credentials"`
	ChatCache   string `yaml:"chat_cache"`
	Downloads   string `yaml:"downloads"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Output is a file receiving JSON log records. Empty keeps logs
	// in the status bar only.
	Output string `yaml:"output"`
}

// Duration is a time.Duration written as a Go duration string
// ("1s", "7d" is not accepted; use "168h").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler. Bare integers are
// seconds.
func (duration *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got %v", node.Tag)
	}
	if node.Tag == "!!int" {
		var seconds int64
		if err := node.Decode(&seconds); err != nil {
			return err
		}
		*duration = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*duration = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (duration Duration) MarshalYAML() (any, error) {
	return time.Duration(duration).String(), nil
}

// Std returns the value as a time.Duration.
func (duration Duration) Std() time.Duration {
	return time.Duration(duration)
}

// Default returns the built-in configuration. Paths follow the XDG
// base directories.
func Default() *Config {
	configRoot, err := os.UserConfigDir()
	if err != nil {
		configRoot = filepath.Join(os.TempDir(), "chatdesk-config")
	}
	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		cacheRoot = filepath.Join(os.TempDir(), "chatdesk-cache")
	}
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Environment: Development,
		Server: ServerConfig{
			URL: "${CHATDESK_SERVER:-http://localhost:5000}",
		},
		Push: PushConfig{
			MaxReconnectAttempts: 5,
			ReconnectDelay:       Duration(time.Second),
			HeartbeatInterval:    Duration(30 * time.Second),
			TypingInterval:       Duration(2 * time.Second),
		},
		Session: SessionConfig{
			Expiry:           Duration(7 * 24 * time.Hour),
			AutosaveInterval: Duration(30 * time.Second),
		},
		Paths: PathsConfig{
			Session:     filepath.Join(configRoot, "chatdesk", "session.json"),
			Credentials: filepath.Join(configRoot, "chatdesk", "credentials.json"),
			ChatCache:   filepath.Join(cacheRoot, "chatdesk", "chats.cbor.zst"),
			Downloads:   filepath.Join(homeDir, "Downloads", "chatdesk"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the file named by CHATDESK_CONFIG, or returns the
// expanded defaults when the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		cfg := Default()
		cfg.applyEnvironmentOverrides()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("config: loading %s: %w", path, err)
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// Plain JSON is a subset of YAML, so one set of tags serves
		// both formats once comments are stripped.
		data = jsonc.ToJSON(data)
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			// Production without an explicit section logs less.
			overrides = &Overrides{Log: &LogConfig{Level: "warn"}}
		}
	}
	if overrides == nil {
		return
	}

	if server := overrides.Server; server != nil {
		overrideString(&c.Server.URL, server.URL)
		overrideString(&c.Server.WebSocketURL, server.WebSocketURL)
	}
	if push := overrides.Push; push != nil {
		if push.MaxReconnectAttempts != 0 {
			c.Push.MaxReconnectAttempts = push.MaxReconnectAttempts
		}
		overrideDuration(&c.Push.ReconnectDelay, push.ReconnectDelay)
		overrideDuration(&c.Push.HeartbeatInterval, push.HeartbeatInterval)
		overrideDuration(&c.Push.TypingInterval, push.TypingInterval)
	}
	if session := overrides.Session; session != nil {
		overrideDuration(&c.Session.Expiry, session.Expiry)
		overrideDuration(&c.Session.AutosaveInterval, session.AutosaveInterval)
		// Bools always apply from a present section.
		c.Session.EncryptCredentials = session.EncryptCredentials
	}
	if paths := overrides.Paths; paths != nil {
		overrideString(&c.Paths.Session, paths.Session)
		overrideString(&c.Paths.Credentials, paths.Credentials)
		overrideString(&c.Paths.ChatCache, paths.ChatCache)
		overrideString(&c.Paths.Downloads, paths.Downloads)
	}
	if log := overrides.Log; log != nil {
		overrideString(&c.Log.Level, log.Level)
		overrideString(&c.Log.Output, log.Output)
	}
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func overrideDuration(target *Duration, value Duration) {
	if value != 0 {
		*target = value
	}
}

func (c *Config) expandVariables() {
	for _, field := range []*string{
		&c.Server.URL,
		&c.Server.WebSocketURL,
		&c.Paths.Session,
		&c.Paths.Credentials,
		&c.Paths.ChatCache,
		&c.Paths.Downloads,
		&c.Log.Output,
	} {
		*field = expandVars(*field)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default} with the environment
// value, or the default when the variable is unset or empty.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// PushURL returns the WebSocket endpoint: WebSocketURL when set,
// otherwise the server URL with its scheme mapped to ws/wss and the
// path set to /ws.
func (c *Config) PushURL() (string, error) {
	if c.Server.WebSocketURL != "" {
		return c.Server.WebSocketURL, nil
	}
	parsed, err := url.Parse(c.Server.URL)
	if err != nil {
		return "", fmt.Errorf("config: server.url: %w", err)
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	case "http":
		parsed.Scheme = "ws"
	default:
		return "", fmt.Errorf("config: server.url has unsupported scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/ws"
	parsed.RawQuery = ""
	return parsed.String(), nil
}

// SlogLevel maps Log.Level to a slog.Level. Unknown values map to
// info; Validate rejects them first.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}

	if c.Server.URL == "" {
		errs = append(errs, errors.New("server.url is required"))
	} else if parsed, err := url.Parse(c.Server.URL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("server.url must be an absolute http(s) URL, got %q", c.Server.URL))
	}
	if c.Server.WebSocketURL != "" {
		if parsed, err := url.Parse(c.Server.WebSocketURL); err != nil || (parsed.Scheme != "ws" && parsed.Scheme != "wss") {
			errs = append(errs, fmt.Errorf("server.websocket_url must be a ws(s) URL, got %q", c.Server.WebSocketURL))
		}
	}

	if c.Push.MaxReconnectAttempts < 1 {
		errs = append(errs, errors.New("push.max_reconnect_attempts must be at least 1"))
	}
	if c.Push.ReconnectDelay <= 0 {
		errs = append(errs, errors.New("push.reconnect_delay must be positive"))
	}
	if c.Push.HeartbeatInterval < 0 {
		errs = append(errs, errors.New("push.heartbeat_interval must not be negative"))
	}
	if c.Push.TypingInterval < 0 {
		errs = append(errs, errors.New("push.typing_interval must not be negative"))
	}

	if c.Session.Expiry <= 0 {
		errs = append(errs, errors.New("session.expiry must be positive"))
	}
	if c.Session.AutosaveInterval <= 0 {
		errs = append(errs, errors.New("session.autosave_interval must be positive"))
	}

	if c.Paths.Session == "" {
		errs = append(errs, errors.New("paths.session is required"))
	}
	if c.Paths.Credentials == "" {
		errs = append(errs, errors.New("paths.credentials is required"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the parent directories of every configured file
// and the downloads directory, private to the user.
func (c *Config) EnsurePaths() error {
	directories := []string{c.Paths.Downloads}
	for _, file := range []string{c.Paths.Session, c.Paths.Credentials, c.Paths.ChatCache, c.Log.Output} {
		if file != "" {
			directories = append(directories, filepath.Dir(file))
		}
	}
	for _, directory := range directories {
		if directory == "" {
			continue
		}
		if err := os.MkdirAll(directory, 0700); err != nil {
			return fmt.Errorf("config: creating %s: %w", directory, err)
		}
	}
	return nil
}

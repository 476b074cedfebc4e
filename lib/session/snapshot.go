// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session persists what the client needs across restarts: the
// single-slot session snapshot (selected conversation, page, last
// activity), the sign-in credentials, and a cache of the last good
// conversation list.
//
// The snapshot is best-effort state. Write failures are logged, and a
// snapshot that cannot be parsed or carries another version is
// deleted and treated as absent.
package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/chatdesk/lib/clock"
)

const (
	// Version is the snapshot schema version this client reads and
	// writes.
	Version = "1.0"

	// DefaultExpiry is how long a snapshot without a selected
	// conversation stays restorable.
	DefaultExpiry = 7 * 24 * time.Hour
)

// Data is the persisted session content. Timestamps are unix
// milliseconds.
type Data struct {
	SelectedChatUUID    string `json:"selectedChatUuid,omitempty"`
	CurrentPage         string `json:"currentPage,omitempty"`
	LastActiveTimestamp int64  `json:"lastActiveTimestamp,omitempty"`
}

// Snapshot is the on-disk envelope.
type Snapshot struct {
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
	Data      Data   `json:"data"`
}

// StoreConfig configures a Store.
type StoreConfig struct {
	Path string
	// Version defaults to the package Version.
	Version string
	// Expiry defaults to DefaultExpiry.
	Expiry time.Duration
	Clock  clock.Clock
	Logger *slog.Logger
}

// Store is the single snapshot slot. Last writer wins.
type Store struct {
	path    string
	version string
	expiry  time.Duration
	clock   clock.Clock
	logger  *slog.Logger
}

// NewStore returns a Store for config.Path.
func NewStore(config StoreConfig) *Store {
	store := &Store{
		path:    config.Path,
		version: config.Version,
		expiry:  config.Expiry,
		clock:   config.Clock,
		logger:  config.Logger,
	}
	if store.version == "" {
		store.version = Version
	}
	if store.expiry <= 0 {
		store.expiry = DefaultExpiry
	}
	if store.clock == nil {
		store.clock = clock.Real()
	}
	if store.logger == nil {
		store.logger = slog.Default()
	}
	return store
}

// Path returns the snapshot file path.
func (store *Store) Path() string {
	return store.path
}

// Save overwrites the slot with data, stamped with the current time.
func (store *Store) Save(data Data) {
	snapshot := Snapshot{
		Version:   store.version,
		Timestamp: store.clock.Now().UnixMilli(),
		Data:      data,
	}
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		store.logger.Warn("encoding session snapshot", "error", err)
		return
	}
	if err := writeFileAtomic(store.path, encoded, 0600); err != nil {
		store.logger.Warn("saving session snapshot", "path", store.path, "error", err)
		return
	}
	store.logger.Debug("session snapshot saved", "selected", data.SelectedChatUUID, "page", data.CurrentPage)
}

// Load returns the stored snapshot, or nil when there is none. A
// snapshot that does not parse, or whose version differs, is cleared.
func (store *Store) Load() *Snapshot {
	content, err := os.ReadFile(store.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			store.logger.Warn("reading session snapshot", "path", store.path, "error", err)
		}
		return nil
	}

	var snapshot Snapshot
	if err := json.Unmarshal(content, &snapshot); err != nil {
		store.logger.Debug("discarding unparseable session snapshot", "error", err)
		store.Clear()
		return nil
	}
	if snapshot.Version != store.version {
		store.logger.Debug("discarding session snapshot from another version",
			"stored", snapshot.Version,
			"expected", store.version,
		)
		store.Clear()
		return nil
	}
	return &snapshot
}

// ShouldRestore reports whether the stored snapshot should be applied
// at startup.
func (store *Store) ShouldRestore() bool {
	_, ok := store.Restorable()
	return ok
}

// Restorable loads the snapshot and reports whether it should be
// applied. A snapshot naming a selected conversation is restorable at
// any age; otherwise it must be younger than the expiry window,
// measured from its last activity (or, failing that, from when it
// was written).
func (store *Store) Restorable() (*Snapshot, bool) {
	snapshot := store.Load()
	if snapshot == nil {
		return nil, false
	}
	if snapshot.Data.SelectedChatUUID != "" {
		return snapshot, true
	}
	activity := snapshot.Data.LastActiveTimestamp
	if activity == 0 {
		activity = snapshot.Timestamp
	}
	age := store.clock.Now().Sub(time.UnixMilli(activity))
	return snapshot, age < store.expiry
}

// Clear empties the slot.
func (store *Store) Clear() {
	if err := os.Remove(store.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		store.logger.Warn("clearing session snapshot", "path", store.path, "error", err)
	}
}

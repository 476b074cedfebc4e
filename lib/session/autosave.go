// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"sync"
	"time"
)

// DefaultAutosaveInterval is the period of snapshot writes while a
// conversation is selected.
const DefaultAutosaveInterval = 30 * time.Second

// Autosaver keeps the snapshot current. It writes immediately when
// the selection changes, periodically while a conversation is
// selected, and on Flush.
type Autosaver struct {
	store    *Store
	interval time.Duration

	mu      sync.Mutex
	current Data
}

// NewAutosaver returns an Autosaver writing to store. A non-positive
// interval selects DefaultAutosaveInterval.
func NewAutosaver(store *Store, interval time.Duration) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	return &Autosaver{store: store, interval: interval}
}

// Update records the current selection and page. A change of
// selection is written at once.
func (autosaver *Autosaver) Update(selectedUUID, page string) {
	autosaver.mu.Lock()
	changed := autosaver.current.SelectedChatUUID != selectedUUID
	autosaver.current.SelectedChatUUID = selectedUUID
	autosaver.current.CurrentPage = page
	autosaver.mu.Unlock()

	if changed {
		autosaver.Flush()
	}
}

// Flush writes the current data stamped with the current time. Call
// it on exit.
func (autosaver *Autosaver) Flush() {
	autosaver.mu.Lock()
	autosaver.current.LastActiveTimestamp = autosaver.store.clock.Now().UnixMilli()
	data := autosaver.current
	autosaver.mu.Unlock()

	autosaver.store.Save(data)
}

// Run writes the snapshot every interval while a conversation is
// selected, until ctx is done. It flushes once more before returning.
func (autosaver *Autosaver) Run(ctx context.Context) error {
	ticker := autosaver.store.clock.NewTicker(autosaver.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			autosaver.mu.Lock()
			selected := autosaver.current.SelectedChatUUID != ""
			autosaver.mu.Unlock()
			if selected {
				autosaver.Flush()
			}
		case <-ctx.Done():
			autosaver.Flush()
			return nil
		}
	}
}

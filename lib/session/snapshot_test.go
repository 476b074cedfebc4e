// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/chatdesk/lib/clock"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, fake *clock.FakeClock) *Store {
	t.Helper()
	return NewStore(StoreConfig{
		Path:   filepath.Join(t.TempDir(), "state", "session.json"),
		Expiry: 7 * 24 * time.Hour,
		Clock:  fake,
		Logger: discardLogger(),
	})
}

func writeSnapshot(t *testing.T, store *Store, snapshot Snapshot) {
	t.Helper()
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path(), encoded, 0600); err != nil {
		t.Fatal(err)
	}
}

func TestSaveLoad(t *testing.T) {
	fake := clock.Fake(epoch)
	store := newTestStore(t, fake)

	data := Data{SelectedChatUUID: "c1", CurrentPage: "chats", LastActiveTimestamp: epoch.UnixMilli()}
	store.Save(data)

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("mode = %o, want 600", mode)
	}

	snapshot := store.Load()
	if snapshot == nil {
		t.Fatal("Load returned nil")
	}
	if snapshot.Version != Version || snapshot.Timestamp != epoch.UnixMilli() || snapshot.Data != data {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t, clock.Fake(epoch))
	if snapshot := store.Load(); snapshot != nil {
		t.Errorf("Load = %+v, want nil", snapshot)
	}
	if store.ShouldRestore() {
		t.Error("ShouldRestore with no snapshot")
	}
}

func TestVersionMismatchClearsSlot(t *testing.T) {
	store := newTestStore(t, clock.Fake(epoch))
	writeSnapshot(t, store, Snapshot{Version: "0.9", Timestamp: epoch.UnixMilli(), Data: Data{SelectedChatUUID: "x"}})

	if snapshot := store.Load(); snapshot != nil {
		t.Errorf("Load = %+v, want nil", snapshot)
	}
	if _, err := os.Stat(store.Path()); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("slot not cleared: %v", err)
	}
	if snapshot := store.Load(); snapshot != nil {
		t.Errorf("second Load = %+v, want nil", snapshot)
	}
}

func TestCorruptSnapshotClearsSlot(t *testing.T) {
	store := newTestStore(t, clock.Fake(epoch))
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path(), []byte(`{"version": "1.0", "data": `), 0600); err != nil {
		t.Fatal(err)
	}
	if snapshot := store.Load(); snapshot != nil {
		t.Errorf("Load = %+v, want nil", snapshot)
	}
	if _, err := os.Stat(store.Path()); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("slot not cleared: %v", err)
	}
}

func TestShouldRestore(t *testing.T) {
	now := epoch
	tests := []struct {
		name     string
		snapshot Snapshot
		want     bool
	}{
		{
			// A selected conversation short-circuits the age check.
			name: "old snapshot with selection",
			snapshot: Snapshot{Version: "1.0", Timestamp: now.Add(-8 * 24 * time.Hour).UnixMilli(),
				Data: Data{SelectedChatUUID: "x"}},
			want: true,
		},
		{
			name: "expired without selection",
			snapshot: Snapshot{Version: "1.0", Timestamp: now.UnixMilli(),
				Data: Data{CurrentPage: "queue", LastActiveTimestamp: now.Add(-8 * 24 * time.Hour).UnixMilli()}},
			want: false,
		},
		{
			name: "recent without selection",
			snapshot: Snapshot{Version: "1.0", Timestamp: now.UnixMilli(),
				Data: Data{CurrentPage: "queue", LastActiveTimestamp: now.Add(-24 * time.Hour).UnixMilli()}},
			want: true,
		},
		{
			name:     "falls back to envelope timestamp",
			snapshot: Snapshot{Version: "1.0", Timestamp: now.Add(-8 * 24 * time.Hour).UnixMilli()},
			want:     false,
		},
		{
			name: "just inside the window",
			snapshot: Snapshot{Version: "1.0",
				Data: Data{LastActiveTimestamp: now.Add(-7*24*time.Hour + time.Second).UnixMilli()}},
			want: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := newTestStore(t, clock.Fake(now))
			writeSnapshot(t, store, test.snapshot)
			if got := store.ShouldRestore(); got != test.want {
				t.Errorf("ShouldRestore() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestSaveFailureIsNotFatal(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatal(err)
	}
	store := NewStore(StoreConfig{Path: filepath.Join(blocker, "session.json"), Logger: discardLogger()})
	store.Save(Data{SelectedChatUUID: "c1"})
	if snapshot := store.Load(); snapshot != nil {
		t.Errorf("Load = %+v", snapshot)
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t, clock.Fake(epoch))
	store.Save(Data{SelectedChatUUID: "c1"})
	store.Clear()
	store.Clear()
	if snapshot := store.Load(); snapshot != nil {
		t.Errorf("Load after Clear = %+v", snapshot)
	}
}

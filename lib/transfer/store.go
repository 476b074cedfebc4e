// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transfer tracks file transfers: uploads reported by the
// server over the push channel and attachment downloads started by
// the user. [Store] is the single owner of the progress map;
// [Downloader] writes attachments to disk through it.
package transfer

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/chatdesk/lib/clock"
)

// Status is the lifecycle stage of a transfer.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Transfer is the progress of one upload or download. Total is zero
// when the size is unknown.
type Transfer struct {
	Key       string
	Name      string
	Done      int64
	Total     int64
	Status    Status
	Err       string
	UpdatedAt time.Time
	// Path is where a finished download was written.
	Path string
}

// Fraction returns completion in [0, 1], or -1 when the total is
// unknown.
func (transfer Transfer) Fraction() float64 {
	if transfer.Status == StatusCompleted {
		return 1
	}
	if transfer.Total <= 0 {
		return -1
	}
	fraction := float64(transfer.Done) / float64(transfer.Total)
	return min(max(fraction, 0), 1)
}

// Finished reports whether the transfer completed or failed.
func (transfer Transfer) Finished() bool {
	return transfer.Status == StatusCompleted || transfer.Status == StatusFailed
}

// Store holds transfers keyed by URL, server path, or upload id.
// Subscribers receive every change without blocking the writer: a
// subscriber whose buffer is full misses the change and should read
// Snapshot.
type Store struct {
	clock clock.Clock

	mu          sync.Mutex
	transfers   map[string]Transfer
	subscribers map[uint64]chan Transfer
	nextID      uint64
}

// NewStore returns an empty Store. A nil clock uses clock.Real().
func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	return &Store{
		clock:       clk,
		transfers:   make(map[string]Transfer),
		subscribers: make(map[uint64]chan Transfer),
	}
}

// Update records progress for key, creating the entry if needed. A
// negative total keeps the previously known total.
func (store *Store) Update(key, name string, done, total int64) Transfer {
	return store.modify(key, func(transfer *Transfer) {
		if name != "" {
			transfer.Name = name
		}
		transfer.Done = done
		if total >= 0 {
			transfer.Total = total
		}
		transfer.Status = StatusActive
		transfer.Err = ""
	})
}

// Complete marks key finished. path is where the file landed, if
// anywhere.
func (store *Store) Complete(key, path string) Transfer {
	return store.modify(key, func(transfer *Transfer) {
		if transfer.Total > 0 {
			transfer.Done = transfer.Total
		}
		transfer.Status = StatusCompleted
		transfer.Path = path
		transfer.Err = ""
	})
}

// Fail marks key failed with err.
func (store *Store) Fail(key string, err error) Transfer {
	if err == nil {
		err = errors.New("transfer failed")
	}
	return store.modify(key, func(transfer *Transfer) {
		transfer.Status = StatusFailed
		transfer.Err = err.Error()
	})
}

// Remove forgets key.
func (store *Store) Remove(key string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.transfers, key)
}

// Get returns the transfer for key.
func (store *Store) Get(key string) (Transfer, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	transfer, ok := store.transfers[key]
	return transfer, ok
}

// Snapshot returns every transfer, most recently updated first.
func (store *Store) Snapshot() []Transfer {
	store.mu.Lock()
	transfers := make([]Transfer, 0, len(store.transfers))
	for _, transfer := range store.transfers {
		transfers = append(transfers, transfer)
	}
	store.mu.Unlock()

	slices.SortFunc(transfers, func(a, b Transfer) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return transfers
}

// Subscribe returns a channel of changes and a func that unsubscribes
// and closes it.
func (store *Store) Subscribe() (<-chan Transfer, func()) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.nextID++
	id := store.nextID
	channel := make(chan Transfer, 32)
	store.subscribers[id] = channel

	var once sync.Once
	return channel, func() {
		once.Do(func() {
			store.mu.Lock()
			defer store.mu.Unlock()
			delete(store.subscribers, id)
			close(channel)
		})
	}
}

func (store *Store) modify(key string, change func(*Transfer)) Transfer {
	store.mu.Lock()
	defer store.mu.Unlock()

	transfer, ok := store.transfers[key]
	if !ok {
		transfer = Transfer{Key: key}
	}
	change(&transfer)
	transfer.UpdatedAt = store.clock.Now()
	store.transfers[key] = transfer

	// Sends never block, so delivering under the lock is safe and
	// keeps per-subscriber order equal to update order.
	for _, channel := range store.subscribers {
		select {
		case channel <- transfer:
		default:
		}
	}
	return transfer
}

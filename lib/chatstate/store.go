// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"slices"
	"sync"
)

// Observer is called after each dispatch with the states before and
// after the action.
type Observer func(previous, next State, action Action)

type transition struct {
	previous State
	next     State
	action   Action
}

// Store owns the current State. Dispatch is safe for concurrent use;
// actions are reduced one at a time, in the order their Dispatch
// calls acquire the store.
//
// Observers run without the store's lock held and see transitions in
// dispatch order. An observer may Dispatch: the nested action is
// reduced immediately, and its transition is delivered after the
// current round of observers finishes.
type Store struct {
	mu        sync.Mutex
	state     State
	observers []observerEntry
	nextID    uint64

	// subscribers receive a coalesced "something changed" signal.
	subscribers map[uint64]chan struct{}

	pending  []transition
	draining bool
}

type observerEntry struct {
	id       uint64
	observer Observer
}

// NewStore returns a Store holding initial.
func NewStore(initial State) *Store {
	if initial.Page == "" {
		initial.Page = PageChats
	}
	return &Store{
		state:       initial,
		subscribers: make(map[uint64]chan struct{}),
	}
}

// State returns the current state.
func (store *Store) State() State {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state
}

// Dispatch reduces action into the current state and returns the
// result.
func (store *Store) Dispatch(action Action) State {
	store.mu.Lock()
	previous := store.state
	next := Reduce(previous, action)
	store.state = next
	store.pending = append(store.pending, transition{previous: previous, next: next, action: action})
	for _, channel := range store.subscribers {
		select {
		case channel <- struct{}{}:
		default:
		}
	}
	if store.draining {
		store.mu.Unlock()
		return next
	}
	store.draining = true
	store.drainLocked()
	return next
}

// drainLocked delivers pending transitions until none remain. Called
// with the lock held; returns with it released.
func (store *Store) drainLocked() {
	for len(store.pending) > 0 {
		batch := store.pending
		store.pending = nil
		observers := make([]Observer, len(store.observers))
		for i, entry := range store.observers {
			observers[i] = entry.observer
		}
		store.mu.Unlock()

		for _, item := range batch {
			for _, observer := range observers {
				observer(item.previous, item.next, item.action)
			}
		}

		store.mu.Lock()
	}
	store.draining = false
	store.mu.Unlock()
}

// Observe registers an observer and returns a func that removes it.
func (store *Store) Observe(observer Observer) func() {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.nextID++
	id := store.nextID
	store.observers = append(store.observers, observerEntry{id: id, observer: observer})
	return func() {
		store.mu.Lock()
		defer store.mu.Unlock()
		store.observers = slices.DeleteFunc(store.observers, func(entry observerEntry) bool {
			return entry.id == id
		})
	}
}

// Subscribe returns a channel that receives a value after state
// changes. Signals coalesce: a slow reader sees one pending signal,
// not one per dispatch, and should read State afresh. The returned
// func unsubscribes.
func (store *Store) Subscribe() (<-chan struct{}, func()) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.nextID++
	id := store.nextID
	channel := make(chan struct{}, 1)
	store.subscribers[id] = channel
	return channel, func() {
		store.mu.Lock()
		defer store.mu.Unlock()
		delete(store.subscribers, id)
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"sync"
	"time"
)

// registry holds listeners in registration order. Emit takes a
// snapshot first, so a listener may unsubscribe itself (or register
// another) while being called.
type registry[F any] struct {
	mu      sync.Mutex
	next    uint64
	entries []registryEntry[F]
}

type registryEntry[F any] struct {
	id       uint64
	listener F
}

func (r *registry[F]) add(listener F) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := r.next
	r.entries = append(r.entries, registryEntry[F]{id: id, listener: listener})

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *registry[F]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, entry := range r.entries {
		if entry.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

func (r *registry[F]) snapshot() []F {
	r.mu.Lock()
	defer r.mu.Unlock()
	listeners := make([]F, len(r.entries))
	for i, entry := range r.entries {
		listeners[i] = entry.listener
	}
	return listeners
}

// Disconnect describes the end of one connection.
type Disconnect struct {
	// Code is the WebSocket close code; 1006 when the connection
	// dropped without a close frame.
	Code   int
	Reason string
	Err    error
	// Clean is true for a normal closure or a local Close. Clean
	// disconnects are not followed by a reconnect.
	Clean bool
}

// OnConnect registers f to run after every successful open. The
// returned func unregisters it.
func (c *Client) OnConnect(f func()) func() { return c.connectListeners.add(f) }

// OnDisconnect registers f to run when an open connection ends.
func (c *Client) OnDisconnect(f func(Disconnect)) func() { return c.disconnectListeners.add(f) }

// OnMessage registers f to receive every decoded event, in arrival
// order, on the read goroutine.
func (c *Client) OnMessage(f func(Event)) func() { return c.messageListeners.add(f) }

// OnError registers f to receive dial and transport errors.
func (c *Client) OnError(f func(error)) func() { return c.errorListeners.add(f) }

// OnGiveUp registers f to run once reconnection is abandoned. It
// receives the number of consecutive failures.
func (c *Client) OnGiveUp(f func(failures int)) func() { return c.giveUpListeners.add(f) }

// OnReconnecting registers f to run when a reconnect is scheduled.
func (c *Client) OnReconnecting(f func(attempt int, delay time.Duration)) func() {
	return c.reconnectingListeners.add(f)
}

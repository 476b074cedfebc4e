// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the timers the client schedules: push
// reconnect delays, the session autosave interval, and the expiry of
// the "new message" highlight. Production code uses Real; tests use
// Fake and move time forward explicitly with Advance.
//
// Code that needs time holds a Clock field instead of calling the
// time package:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	client := push.New(push.Config{Clock: fake, ...})
//	fake.WaitForTimers(1)      // reconnect delay registered
//	fake.Advance(time.Second)  // reconnect fires now
package clock

import "time"

// Clock is the subset of the time package the client depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After delivers the current time on the returned channel once d
	// has elapsed. A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc calls f once d has elapsed. The returned Timer can
	// cancel the call. A non-positive d calls f right away.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker delivers ticks every d. Panics if d is not positive.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stop  func() bool
	reset func(time.Duration) bool
}

// Stop cancels the call. Reports whether the timer was still pending.
func (timer *Timer) Stop() bool { return timer.stop() }

// Reset reschedules the call for d from now. Reports whether the
// timer was pending before the reset.
func (timer *Timer) Reset(d time.Duration) bool { return timer.reset(d) }

// Ticker delivers periodic ticks on C. Like time.Ticker, C holds one
// tick and a slow reader misses ticks instead of queueing them.
type Ticker struct {
	C <-chan time.Time

	stop  func()
	reset func(time.Duration)
}

// Stop ends tick delivery. C is not closed.
func (ticker *Ticker) Stop() { ticker.stop() }

// Reset changes the interval and restarts the cycle from now.
func (ticker *Ticker) Reset(d time.Duration) { ticker.reset(d) }

// Real returns the Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)
	return &Timer{stop: timer.Stop, reset: timer.Reset}
}

func (realClock) NewTicker(d time.Duration) *Ticker {
	ticker := time.NewTicker(d)
	return &Ticker{C: ticker.C, stop: ticker.Stop, reset: ticker.Reset}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a Clock whose time only moves when Advance is called.
// Safe for concurrent use.
//
// AfterFunc callbacks run synchronously inside Advance, in deadline
// order, without the clock's lock held: a callback may schedule new
// timers, but must not call Advance.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeTimer
	changed *sync.Cond
}

type fakeTimer struct {
	deadline time.Time
	channel  chan time.Time // After and NewTicker
	callback func()         // AfterFunc
	interval time.Duration  // non-zero for tickers
	stopped  bool
	fired    bool
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{now: initial}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// Now returns the fake time.
func (clock *FakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

// After implements Clock.
func (clock *FakeClock) After(d time.Duration) <-chan time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- clock.now
		return channel
	}
	clock.addLocked(&fakeTimer{deadline: clock.now.Add(d), channel: channel})
	return channel
}

// AfterFunc implements Clock. A non-positive d runs f before
// AfterFunc returns.
func (clock *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stop:  func() bool { return false },
			reset: func(time.Duration) bool { return false },
		}
	}

	clock.mu.Lock()
	timer := &fakeTimer{deadline: clock.now.Add(d), callback: f}
	clock.addLocked(timer)
	clock.mu.Unlock()

	return &Timer{
		stop: func() bool {
			clock.mu.Lock()
			defer clock.mu.Unlock()
			if timer.stopped || timer.fired {
				return false
			}
			timer.stopped = true
			clock.changed.Broadcast()
			return true
		},
		reset: func(d time.Duration) bool {
			clock.mu.Lock()
			defer clock.mu.Unlock()
			active := !timer.stopped && !timer.fired
			timer.deadline = clock.now.Add(d)
			timer.stopped = false
			timer.fired = false
			if !active {
				clock.addLocked(timer)
			}
			return active
		},
	}
}

// NewTicker implements Clock.
func (clock *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: NewTicker interval must be positive")
	}

	clock.mu.Lock()
	defer clock.mu.Unlock()

	channel := make(chan time.Time, 1)
	timer := &fakeTimer{deadline: clock.now.Add(d), channel: channel, interval: d}
	clock.addLocked(timer)

	return &Ticker{
		C: channel,
		stop: func() {
			clock.mu.Lock()
			defer clock.mu.Unlock()
			timer.stopped = true
			clock.changed.Broadcast()
		},
		reset: func(d time.Duration) {
			clock.mu.Lock()
			defer clock.mu.Unlock()
			wasStopped := timer.stopped
			timer.interval = d
			timer.deadline = clock.now.Add(d)
			timer.stopped = false
			if wasStopped {
				clock.addLocked(timer)
			}
		},
	}
}

// Advance moves time forward by d and fires every timer whose deadline
// is reached, earliest first. A ticker spanning several intervals
// fires once per interval; ticks that do not fit its channel are
// dropped.
func (clock *FakeClock) Advance(d time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(d)
	target := clock.now
	clock.mu.Unlock()

	for {
		due := clock.collectDue(target)
		if len(due) == 0 {
			return
		}
		for _, timer := range due {
			if timer.callback != nil {
				timer.callback()
				continue
			}
			select {
			case timer.channel <- target:
			default:
			}
		}
	}
}

// collectDue removes due timers from the pending list (re-arming
// tickers) and returns them sorted by deadline.
func (clock *FakeClock) collectDue(target time.Time) []*fakeTimer {
	clock.mu.Lock()
	defer clock.mu.Unlock()

	var due, remaining []*fakeTimer
	for _, timer := range clock.pending {
		switch {
		case timer.stopped:
		case timer.deadline.After(target):
			remaining = append(remaining, timer)
		default:
			due = append(due, timer)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, timer := range due {
		if timer.interval > 0 {
			timer.deadline = timer.deadline.Add(timer.interval)
			remaining = append(remaining, timer)
		} else {
			timer.fired = true
		}
	}
	clock.pending = remaining
	return due
}

// WaitForTimers blocks until at least n timers are pending. Tests call
// it before Advance so a goroutine that is about to schedule a timer
// has done so.
func (clock *FakeClock) WaitForTimers(n int) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	for clock.pendingLocked() < n {
		clock.changed.Wait()
	}
}

// PendingCount returns the number of timers that have neither fired
// nor been stopped.
func (clock *FakeClock) PendingCount() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.pendingLocked()
}

func (clock *FakeClock) pendingLocked() int {
	count := 0
	for _, timer := range clock.pending {
		if !timer.stopped {
			count++
		}
	}
	return count
}

func (clock *FakeClock) addLocked(timer *fakeTimer) {
	for _, existing := range clock.pending {
		if existing == timer {
			clock.changed.Broadcast()
			return
		}
	}
	clock.pending = append(clock.pending, timer)
	clock.changed.Broadcast()
}

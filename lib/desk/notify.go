// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package desk

import (
	"fmt"
	"time"
)

// Level is the severity of a Notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (level Level) String() string {
	switch level {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(level))
	}
}

// Notification is a transient message for the user.
type Notification struct {
	Level Level
	Text  string
	At    time.Time
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f.
func (f NotifierFunc) Notify(notification Notification) { f(notification) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

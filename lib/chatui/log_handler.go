// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/chatdesk/lib/desk"
)

// logRecordMsg delivers a log record to the status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// notificationMsg delivers a desk notification to the status bar.
type notificationMsg struct {
	notification desk.Notification
}

// programRef is shared by a handler and every handler derived from it
// so one SetProgram call reaches them all.
type programRef = atomic.Pointer[tea.Program]

// TUILogHandler is a slog.Handler that shows records at or above its
// level in the status bar. Records are dropped until SetProgram is
// called. While the TUI owns the terminal, this replaces writing logs
// to stderr.
type TUILogHandler struct {
	level   slog.Level
	program *programRef
	attrs   []slog.Attr
	group   string
}

// NewTUILogHandler returns a handler for records at or above level.
func NewTUILogHandler(level slog.Level) *TUILogHandler {
	return &TUILogHandler{level: level, program: &programRef{}}
}

// SetProgram starts delivery to program.
func (handler *TUILogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

func (handler *TUILogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level
}

// Handle sends "message (key=value, ...)" to the program.
func (handler *TUILogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}
	program.Send(logRecordMsg{Summary: handler.summarize(record), Level: record.Level})
	return nil
}

func (handler *TUILogHandler) summarize(record slog.Record) string {
	var parts []string
	add := func(attr slog.Attr) {
		key := attr.Key
		if handler.group != "" {
			key = handler.group + "." + key
		}
		parts = append(parts, fmt.Sprintf("%s=%s", key, attr.Value))
	}
	for _, attr := range handler.attrs {
		add(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		add(attr)
		return true
	})
	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (handler *TUILogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *handler
	derived.attrs = append(append([]slog.Attr(nil), handler.attrs...), attrs...)
	return &derived
}

func (handler *TUILogHandler) WithGroup(name string) slog.Handler {
	derived := *handler
	if derived.group != "" {
		name = derived.group + "." + name
	}
	derived.group = name
	return &derived
}

// Notifier forwards desk notifications to the program. Notifications
// sent before SetProgram are dropped.
type Notifier struct {
	program programRef
}

// SetProgram starts delivery to program.
func (notifier *Notifier) SetProgram(program *tea.Program) {
	notifier.program.Store(program)
}

// Notify implements desk.Notifier.
func (notifier *Notifier) Notify(notification desk.Notification) {
	if program := notifier.program.Load(); program != nil {
		// Send blocks until the program reads it; never block the
		// desk's dispatching goroutine.
		go program.Send(notificationMsg{notification: notification})
	}
}

var _ desk.Notifier = (*Notifier)(nil)

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatui is the terminal interface of the chat client.
//
// [Model] is a bubbletea model over a [Controller] (in production a
// *desk.Desk). It never mutates client state itself: keys become
// controller operations, and the model re-renders whenever the
// controller's chatstate.Store signals a change. The left pane lists
// conversations with fuzzy filtering; the right pane shows the
// selected conversation's messages with markdown rendering, replies,
// reactions, and attachment downloads. A second page lists the ticket
// queue.
//
// Logging and notifications reach the status bar through
// [TUILogHandler] and [Notifier], which forward to the running
// tea.Program once SetProgram is called.
package chatui

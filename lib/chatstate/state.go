// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatstate holds the client's single in-memory state tree
// and the pure reducer that advances it.
//
// Every change goes through [Reduce]: REST responses, push events,
// and user interactions are all expressed as [Action] values, so the
// two data sources converge on one state without special cases.
// [Store] serializes dispatch for concurrent callers and notifies
// observers, which is where side effects (fetches, persistence) live.
//
// States are values. Reduce never modifies the slices or maps of its
// input; it copies whatever it changes. Holders of a State may share
// it freely but must treat it as read-only.
package chatstate

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
)

const (
	// FreshWindow is how long a newly arrived message keeps its
	// highlight.
	FreshWindow = 3 * time.Second

	// TypingWindow is how long a typing indicator stays visible
	// after the last notification.
	TypingWindow = 5 * time.Second
)

// Page identifies the top-level view.
type Page string

const (
	PageChats Page = "chats"
	PageQueue Page = "queue"
)

// ConnectionStatus is the push connection state shown in the status
// bar.
type ConnectionStatus int

const (
	Disconnected ConnectionStatus = iota
	Connecting
	Connected
	Reconnecting
)

func (status ConnectionStatus) String() string {
	switch status {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("ConnectionStatus(%d)", int(status))
	}
}

// Connection is the push connection indicator. Attempt is the
// pending reconnect attempt while Reconnecting; GaveUp is set once
// reconnection was abandoned.
type Connection struct {
	Status  ConnectionStatus
	Attempt int
	GaveUp  bool
}

// TypingUser is the most recent typing notification for a
// conversation.
type TypingUser struct {
	UserName string
	At       time.Time
}

// State is the whole client state.
type State struct {
	Chats []chat.Conversation
	// Selected is a copy of the selected entry of Chats, or nil.
	Selected *chat.Conversation
	// Messages belong to Selected. Message ids are unique.
	Messages []chat.Message
	Page     Page

	LoadingChats    bool
	LoadingMessages bool
	ReplyDraft      *chat.ReplyReference
	// Deleting holds ids of messages with a delete request in flight.
	Deleting map[string]bool
	// Fresh maps recently arrived message ids to their arrival time.
	Fresh map[string]time.Time
	// Typing is keyed by conversation uuid.
	Typing map[string]TypingUser

	Connection Connection
}

// SelectedUUID returns the selected conversation's uuid, or "".
func (state State) SelectedUUID() string {
	if state.Selected == nil {
		return ""
	}
	return state.Selected.UUID
}

// ChatIndex returns the position of the conversation with uuid in
// Chats, or -1.
func (state State) ChatIndex(uuid string) int {
	if uuid == "" {
		return -1
	}
	for i := range state.Chats {
		if state.Chats[i].UUID == uuid {
			return i
		}
	}
	return -1
}

// Chat returns the conversation with uuid.
func (state State) Chat(uuid string) (chat.Conversation, bool) {
	if index := state.ChatIndex(uuid); index >= 0 {
		return state.Chats[index], true
	}
	return chat.Conversation{}, false
}

// MessageIndex returns the position of the message with id in
// Messages, or -1.
func (state State) MessageIndex(messageID string) int {
	if messageID == "" {
		return -1
	}
	for i := range state.Messages {
		if state.Messages[i].MessageID == messageID {
			return i
		}
	}
	return -1
}

// Message returns the loaded message with id.
func (state State) Message(messageID string) (chat.Message, bool) {
	if index := state.MessageIndex(messageID); index >= 0 {
		return state.Messages[index], true
	}
	return chat.Message{}, false
}

// IsFresh reports whether the message still carries its arrival
// highlight.
func (state State) IsFresh(messageID string) bool {
	_, ok := state.Fresh[messageID]
	return ok
}

// IsDeleting reports whether a delete request for the message is in
// flight.
func (state State) IsDeleting(messageID string) bool {
	return state.Deleting[messageID]
}

// TypingIn returns who is typing in the conversation, if anyone.
func (state State) TypingIn(uuid string) (TypingUser, bool) {
	typing, ok := state.Typing[uuid]
	return typing, ok
}

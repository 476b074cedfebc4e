// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"time"

	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
)

// Action is an input to [Reduce]. The set of actions is closed.
type Action interface {
	isAction()
}

// SetChats replaces the conversation list. A selection whose uuid is
// missing from the new list is cleared along with its messages.
type SetChats struct {
	Chats []chat.Conversation
}

// SelectChat selects the listed conversation with UUID, or clears the
// selection when UUID is empty or unknown. Messages and per-chat
// transients are reset either way.
type SelectChat struct {
	UUID string
}

// UpdateChat replaces the listed conversation with the same uuid.
type UpdateChat struct {
	Chat chat.Conversation
}

// AddChat appends a conversation. A conversation whose uuid is
// already listed is updated in place instead.
type AddChat struct {
	Chat chat.Conversation
}

// RemoveChat drops a conversation by UUID, or by ID when UUID is
// empty.
type RemoveChat struct {
	UUID string
	ID   int
}

// SetMessages replaces the message list. It applies only while
// ChatUUID is still selected.
type SetMessages struct {
	ChatUUID string
	Messages []chat.Message
}

// AddMessage appends a message to the selected conversation unless a
// message with the same id is already loaded. At marks the arrival
// for the fresh highlight; zero skips the highlight.
type AddMessage struct {
	ChatUUID string
	Message  chat.Message
	At       time.Time
}

// UpdateMessage replaces the loaded message with the same id.
type UpdateMessage struct {
	Message chat.Message
}

// RemoveMessage drops a loaded message.
type RemoveMessage struct {
	MessageID string
}

// MarkDeleting sets or clears the in-flight deletion marker.
type MarkDeleting struct {
	MessageID string
	Deleting  bool
}

// SetReplyDraft sets the message being replied to; nil clears it.
type SetReplyDraft struct {
	Reply *chat.ReplyReference
}

// SetReactions replaces a loaded message's reactions.
type SetReactions struct {
	MessageID string
	Reactions chat.Reactions
}

// ExpireFresh drops fresh highlights older than FreshWindow and
// typing indicators older than TypingWindow, measured from Now.
type ExpireFresh struct {
	Now time.Time
}

// LoadTarget names a loading flag.
type LoadTarget int

const (
	LoadChats LoadTarget = iota
	LoadMessages
)

// SetLoading sets one loading flag.
type SetLoading struct {
	Target  LoadTarget
	Loading bool
}

// SetPage switches the top-level view.
type SetPage struct {
	Page Page
}

// RestoreSession applies a persisted snapshot: the page, and the
// selection when UUID is listed. Messages are cleared for refetch.
type RestoreSession struct {
	Page Page
	UUID string
}

// SetConnection updates the push connection indicator.
type SetConnection struct {
	Connection Connection
}

// SetTyping records a typing notification.
type SetTyping struct {
	ChatUUID string
	UserName string
	At       time.Time
}

func (SetChats) isAction()       {}
func (SelectChat) isAction()     {}
func (UpdateChat) isAction()     {}
func (AddChat) isAction()        {}
func (RemoveChat) isAction()     {}
func (SetMessages) isAction()    {}
func (AddMessage) isAction()     {}
func (UpdateMessage) isAction()  {}
func (RemoveMessage) isAction()  {}
func (MarkDeleting) isAction()   {}
func (SetReplyDraft) isAction()  {}
func (SetReactions) isAction()   {}
func (ExpireFresh) isAction()    {}
func (SetLoading) isAction()     {}
func (SetPage) isAction()        {}
func (RestoreSession) isAction() {}
func (SetConnection) isAction()  {}
func (SetTyping) isAction()      {}

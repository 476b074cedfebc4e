// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"

	"github.com/bureau-foundation/chatdesk/lib/chatstate"
	"github.com/bureau-foundation/chatdesk/lib/desk"
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
	"github.com/bureau-foundation/chatdesk/lib/transfer"
	"github.com/bureau-foundation/chatdesk/messaging"
)

// Controller is what the model drives. *desk.Desk implements it.
// Operations report their own failures through the desk's notifier,
// so the model ignores returned errors except to stop.
type Controller interface {
	Store() *chatstate.Store
	Transfers() *transfer.Store

	Select(uuid string)
	SetPage(page chatstate.Page)
	Refresh(ctx context.Context) error
	Reconnect(ctx context.Context) error

	CreateChat(ctx context.Context, request messaging.CreateChatRequest) (*chat.Conversation, error)
	UpdateRequestType(ctx context.Context, uuid, requestType string) error
	UpdateStatus(ctx context.Context, uuid string, status chat.QueueStatus) error
	DeleteChat(ctx context.Context, uuid string) error
	AssignToMe(ctx context.Context, uuid string) (*chat.Queue, error)
	Queue(ctx context.Context) ([]chat.Queue, error)
	AssignQueue(ctx context.Context, queueID int) (*chat.Queue, error)

	Send(ctx context.Context, content string, attachments []string) (*chat.Message, error)
	Edit(ctx context.Context, messageID, content string) (*chat.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
	React(ctx context.Context, messageID, emoji string) error
	SetReply(messageID string) error
	Search(ctx context.Context, query string) (*messaging.SearchResult, error)
	Download(ctx context.Context, attachment string) (string, error)
	Typing()
}

var _ Controller = (*desk.Desk)(nil)

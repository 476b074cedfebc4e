// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
)

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	UID      string `json:"uid"`
	Password string `json:"password"`
}

// LoginResponse is the data of a successful login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  chat.User `json:"user"`
}

// CreateChatRequest is the body of POST /api/chats.
type CreateChatRequest struct {
	Name         string `json:"name"`
	RequestType  string `json:"requestType"`
	CustomerID   string `json:"customerId,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
	Description  string `json:"description,omitempty"`
}

// UpdateChatRequest is the body of PATCH /api/chats/{uuid}. Empty
// fields are left unchanged by the server.
type UpdateChatRequest struct {
	RequestType string           `json:"requestType,omitempty"`
	Status      chat.QueueStatus `json:"status,omitempty"`
}

// SendMessageRequest is the body of POST /api/chats/{uuid}/messages.
// The server rejects a request with neither content nor attachments.
type SendMessageRequest struct {
	Content     string               `json:"content"`
	Attachments []string             `json:"attachments,omitempty"`
	ReplyTo     *chat.ReplyReference `json:"replyTo,omitempty"`
}

// EditMessageRequest is the body of PUT /api/messages/{messageId}.
type EditMessageRequest struct {
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

type statusRequest struct {
	Status chat.QueueStatus `json:"status"`
}

// SearchResult is the response of a message search within one
// conversation.
type SearchResult struct {
	Messages []chat.Message `json:"messages"`
	Count    int            `json:"count"`
	Query    string         `json:"query"`
}

// ProgressFunc receives cumulative bytes transferred and the expected
// total (-1 when the server did not say).
type ProgressFunc func(done, total int64)

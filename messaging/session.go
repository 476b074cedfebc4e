// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bureau-foundation/chatdesk/lib/netutil"
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
)

// Session is the set of authenticated operations. *DirectSession is
// the production implementation; tests substitute fakes.
type Session interface {
	// Token returns the bearer token, for components (the push
	// client) that authenticate separately.
	Token() string

	// Me validates the token and returns the signed-in user.
	Me(ctx context.Context) (*chat.User, error)

	ListChats(ctx context.Context) ([]chat.Conversation, error)
	GetChat(ctx context.Context, chatUUID string) (*chat.Conversation, error)
	CreateChat(ctx context.Context, request CreateChatRequest) (*chat.Conversation, error)
	UpdateChat(ctx context.Context, chatUUID string, request UpdateChatRequest) (*chat.Conversation, error)
	UpdateChatStatus(ctx context.Context, chatUUID string, status chat.QueueStatus) (*chat.Conversation, error)
	DeleteChat(ctx context.Context, chatUUID string) error

	ChatMessages(ctx context.Context, chatUUID string) ([]chat.Message, error)
	SendMessage(ctx context.Context, chatUUID string, request SendMessageRequest) (*chat.Message, error)
	EditMessage(ctx context.Context, messageID string, request EditMessageRequest) (*chat.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error

	// ToggleReaction flips the signed-in user's reaction. The
	// returned set is nil when the server acknowledged without one.
	ToggleReaction(ctx context.Context, messageID, emoji string) (chat.Reactions, error)

	SearchMessages(ctx context.Context, chatUUID, query string) (*SearchResult, error)

	ChatQueue(ctx context.Context, chatUUID string) (*chat.Queue, error)
	AssignChatQueue(ctx context.Context, chatUUID string) (*chat.Queue, error)
	AssignQueue(ctx context.Context, queueID int) (*chat.Queue, error)
	ListQueue(ctx context.Context) ([]chat.Queue, error)

	// Download streams a stored file into destination and returns the
	// byte count. progress may be nil.
	Download(ctx context.Context, path string, destination io.Writer, progress ProgressFunc) (int64, error)
}

// DirectSession talks to the server with a bearer token.
type DirectSession struct {
	client *Client
	token  string
}

var _ Session = (*DirectSession)(nil)

// Token returns the bearer token.
func (s *DirectSession) Token() string {
	return s.token
}

// Client returns the unauthenticated client the session was made from.
func (s *DirectSession) Client() *Client {
	return s.client
}

func (s *DirectSession) do(ctx context.Context, method, path string, body any, query ...url.Values) ([]byte, error) {
	return s.client.doRequest(ctx, method, path, s.token, body, query...)
}

// Me returns the signed-in user.
func (s *DirectSession) Me(ctx context.Context) (*chat.User, error) {
	body, err := s.do(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: me: %w", err)
	}
	return decodeEntity[chat.User](body, "me")
}

// ListChats returns every conversation visible to the user.
func (s *DirectSession) ListChats(ctx context.Context) ([]chat.Conversation, error) {
	body, err := s.do(ctx, http.MethodGet, "/api/chats", nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: list chats: %w", err)
	}
	chats, ok := decodeList[chat.Conversation](body, "chats", "threads")
	if !ok {
		s.client.logger.Warn("chat list response was not a list; treating as empty")
	}
	return chats, nil
}

// GetChat fetches one conversation.
func (s *DirectSession) GetChat(ctx context.Context, chatUUID string) (*chat.Conversation, error) {
	body, err := s.do(ctx, http.MethodGet, chatPath(chatUUID), nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get chat %s: %w", chatUUID, err)
	}
	return decodeEntity[chat.Conversation](body, "get chat")
}

// CreateChat creates a conversation.
func (s *DirectSession) CreateChat(ctx context.Context, request CreateChatRequest) (*chat.Conversation, error) {
	if request.Name == "" {
		return nil, fmt.Errorf("messaging: chat name is required")
	}
	body, err := s.do(ctx, http.MethodPost, "/api/chats", request)
	if err != nil {
		return nil, fmt.Errorf("messaging: create chat: %w", err)
	}
	return decodeEntity[chat.Conversation](body, "create chat")
}

// UpdateChat patches a conversation's request type and/or status.
func (s *DirectSession) UpdateChat(ctx context.Context, chatUUID string, request UpdateChatRequest) (*chat.Conversation, error) {
	body, err := s.do(ctx, http.MethodPatch, chatPath(chatUUID), request)
	if err != nil {
		return nil, fmt.Errorf("messaging: update chat %s: %w", chatUUID, err)
	}
	return decodeEntity[chat.Conversation](body, "update chat")
}

// UpdateChatStatus sets the queue status of a conversation.
func (s *DirectSession) UpdateChatStatus(ctx context.Context, chatUUID string, status chat.QueueStatus) (*chat.Conversation, error) {
	if _, err := chat.ParseQueueStatus(string(status)); err != nil {
		return nil, fmt.Errorf("messaging: update chat status: %w", err)
	}
	body, err := s.do(ctx, http.MethodPatch, chatPath(chatUUID)+"/status", statusRequest{Status: status})
	if err != nil {
		return nil, fmt.Errorf("messaging: update chat %s status: %w", chatUUID, err)
	}
	return decodeEntity[chat.Conversation](body, "update chat status")
}

// DeleteChat deletes a conversation.
func (s *DirectSession) DeleteChat(ctx context.Context, chatUUID string) error {
	if _, err := s.do(ctx, http.MethodDelete, chatPath(chatUUID), nil); err != nil {
		return fmt.Errorf("messaging: delete chat %s: %w", chatUUID, err)
	}
	return nil
}

// ChatMessages returns the full history of a conversation.
func (s *DirectSession) ChatMessages(ctx context.Context, chatUUID string) ([]chat.Message, error) {
	body, err := s.do(ctx, http.MethodGet, chatPath(chatUUID)+"/messages", nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: messages for %s: %w", chatUUID, err)
	}
	messages, ok := decodeList[chat.Message](body, "messages")
	if !ok {
		s.client.logger.Warn("message list response was not a list; treating as empty", "chat_uuid", chatUUID)
	}
	return messages, nil
}

// SendMessage posts a message to a conversation.
func (s *DirectSession) SendMessage(ctx context.Context, chatUUID string, request SendMessageRequest) (*chat.Message, error) {
	if request.Content == "" && len(request.Attachments) == 0 {
		return nil, fmt.Errorf("messaging: message content or attachments are required")
	}
	body, err := s.do(ctx, http.MethodPost, chatPath(chatUUID)+"/messages", request)
	if err != nil {
		return nil, fmt.Errorf("messaging: send message to %s: %w", chatUUID, err)
	}
	return decodeEntity[chat.Message](body, "send message")
}

// EditMessage replaces a message's content.
func (s *DirectSession) EditMessage(ctx context.Context, messageID string, request EditMessageRequest) (*chat.Message, error) {
	if request.Content == "" && len(request.Attachments) == 0 {
		return nil, fmt.Errorf("messaging: message content or attachments are required")
	}
	body, err := s.do(ctx, http.MethodPut, messagePath(messageID), request)
	if err != nil {
		return nil, fmt.Errorf("messaging: edit message %s: %w", messageID, err)
	}
	return decodeEntity[chat.Message](body, "edit message")
}

// DeleteMessage deletes a message.
func (s *DirectSession) DeleteMessage(ctx context.Context, messageID string) error {
	if _, err := s.do(ctx, http.MethodDelete, messagePath(messageID), nil); err != nil {
		return fmt.Errorf("messaging: delete message %s: %w", messageID, err)
	}
	return nil
}

// ToggleReaction flips the user's reaction on a message.
func (s *DirectSession) ToggleReaction(ctx context.Context, messageID, emoji string) (chat.Reactions, error) {
	if emoji == "" {
		return nil, fmt.Errorf("messaging: emoji is required")
	}
	body, err := s.do(ctx, http.MethodPost, messagePath(messageID)+"/reactions", reactionRequest{Emoji: emoji})
	if err != nil {
		return nil, fmt.Errorf("messaging: react to %s: %w", messageID, err)
	}

	raw := unwrapEnvelope(body, "reactions")
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}
	if raw[0] == '{' {
		// A bare {success, message} acknowledgement unwraps to itself.
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, nil
		}
		if _, acknowledgement := fields["success"]; acknowledgement {
			return nil, nil
		}
	}
	var reactions chat.Reactions
	if err := json.Unmarshal(raw, &reactions); err != nil {
		return nil, nil
	}
	return reactions, nil
}

// SearchMessages runs a text search within a conversation.
func (s *DirectSession) SearchMessages(ctx context.Context, chatUUID, query string) (*SearchResult, error) {
	body, err := s.do(ctx, http.MethodGet, chatPath(chatUUID)+"/messages/search", nil, url.Values{"q": {query}})
	if err != nil {
		return nil, fmt.Errorf("messaging: search %s: %w", chatUUID, err)
	}
	raw := unwrapEnvelope(body)
	result := &SearchResult{Query: query}
	if len(raw) > 0 && raw[0] == '[' {
		result.Messages, _ = decodeList[chat.Message](raw)
	} else if err := json.Unmarshal(raw, result); err != nil {
		s.client.logger.Warn("search response malformed; treating as empty", "chat_uuid", chatUUID, "error", err)
		result = &SearchResult{Query: query}
	}
	if result.Messages == nil {
		result.Messages = []chat.Message{}
	}
	if result.Count == 0 {
		result.Count = len(result.Messages)
	}
	return result, nil
}

// ChatQueue returns the queue entry linked to a conversation.
func (s *DirectSession) ChatQueue(ctx context.Context, chatUUID string) (*chat.Queue, error) {
	body, err := s.do(ctx, http.MethodGet, chatPath(chatUUID)+"/queue", nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: queue for %s: %w", chatUUID, err)
	}
	return decodeEntity[chat.Queue](body, "chat queue")
}

// AssignChatQueue assigns the conversation's queue entry to the user.
func (s *DirectSession) AssignChatQueue(ctx context.Context, chatUUID string) (*chat.Queue, error) {
	body, err := s.do(ctx, http.MethodPost, chatPath(chatUUID)+"/assign-queue", nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: assign queue for %s: %w", chatUUID, err)
	}
	return decodeEntity[chat.Queue](body, "assign chat queue")
}

// AssignQueue assigns a queue entry to the user by id.
func (s *DirectSession) AssignQueue(ctx context.Context, queueID int) (*chat.Queue, error) {
	body, err := s.do(ctx, http.MethodPost, "/api/queue/"+strconv.Itoa(queueID)+"/assign", nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: assign queue %d: %w", queueID, err)
	}
	return decodeEntity[chat.Queue](body, "assign queue")
}

// ListQueue returns the work queue.
func (s *DirectSession) ListQueue(ctx context.Context) ([]chat.Queue, error) {
	body, err := s.do(ctx, http.MethodGet, "/api/queue", nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: list queue: %w", err)
	}
	entries, ok := decodeList[chat.Queue](body, "queue", "queues")
	if !ok {
		s.client.logger.Warn("queue list response was not a list; treating as empty")
	}
	return entries, nil
}

// Download streams GET /api/files/download?path= into destination.
// The body is not size-limited.
func (s *DirectSession) Download(ctx context.Context, path string, destination io.Writer, progress ProgressFunc) (int64, error) {
	if path == "" {
		return 0, fmt.Errorf("messaging: download path is required")
	}
	const endpoint = "/api/files/download"
	response, err := s.client.send(ctx, http.MethodGet, endpoint, s.token, nil, url.Values{"path": {path}})
	if err != nil {
		return 0, fmt.Errorf("messaging: download %s: %w", path, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		body, _ := netutil.ReadResponse(response.Body)
		return 0, fmt.Errorf("messaging: download %s: %w", path, s.client.apiError(http.MethodGet, endpoint, response.StatusCode, body))
	}

	written, err := io.Copy(destination, &progressReader{
		reader:   response.Body,
		total:    response.ContentLength,
		progress: progress,
	})
	if err != nil {
		return written, fmt.Errorf("messaging: download %s: %w", path, err)
	}
	return written, nil
}

type progressReader struct {
	reader   io.Reader
	done     int64
	total    int64
	progress ProgressFunc
}

func (reader *progressReader) Read(buffer []byte) (int, error) {
	count, err := reader.reader.Read(buffer)
	if count > 0 {
		reader.done += int64(count)
		if reader.progress != nil {
			reader.progress(reader.done, reader.total)
		}
	}
	return count, err
}

// decodeEntity decodes a single-entity response. operation names the
// call in the error.
func decodeEntity[T any](body []byte, operation string) (*T, error) {
	raw := unwrapEnvelope(body)
	if len(raw) == 0 || isNull(raw) {
		return nil, fmt.Errorf("messaging: %s: empty response", operation)
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("messaging: %s: failed to parse response: %w", operation, err)
	}
	return &value, nil
}

func chatPath(chatUUID string) string {
	return "/api/chats/" + url.PathEscape(chatUUID)
}

func messagePath(messageID string) string {
	return "/api/messages/" + url.PathEscape(messageID)
}

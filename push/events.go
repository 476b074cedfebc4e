// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
)

// Frame is the wire envelope of every push message in both
// directions.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event type names as they appear in Frame.Type.
const (
	TypeChatCreated       = "chat_created"
	TypeChatUpdated       = "chat_updated"
	TypeChatDeleted       = "chat_deleted"
	TypeChatStatusUpdated = "chat_status_updated"
	TypeChatMessage       = "chat_message"
	TypeMessageDeleted    = "message_deleted"
	TypeMessageUpdated    = "message_updated"
	TypeMessageReaction   = "message_reaction"
	TypeQueueUpdate       = "queue_update"
	TypeQueueAssigned     = "queue_assigned"
	TypeUploadProgress    = "upload_progress"
	TypeImageUploaded     = "image_uploaded"
	TypeUserJoined        = "user_joined"
	TypeUserLeft          = "user_left"
	TypeStatusUpdate      = "status_update"
	TypeTyping            = "typing"
	TypePong              = "pong"

	// TypePing is sent by the client only.
	TypePing = "ping"
)

// Event is a decoded push frame. The set of implementations is closed;
// consumers type-switch over it.
type Event interface {
	// Type returns the wire type name.
	Type() string
	isEvent()
}

// ChatCreated announces a new conversation.
type ChatCreated struct {
	Chat      chat.Conversation `json:"chat"`
	CreatedBy string            `json:"createdBy"`
}

// ChatUpdated carries the full conversation after an edit.
type ChatUpdated struct {
	Chat      chat.Conversation `json:"chat"`
	UpdatedBy string            `json:"updatedBy"`
	Field     string            `json:"field"`
	NewValue  json.RawMessage   `json:"newValue"`
}

// ChatStatusUpdated carries the conversation after a queue status
// change. Older servers send only ChatUUID and Status.
type ChatStatusUpdated struct {
	Chat      *chat.Conversation `json:"chat"`
	ChatUUID  string             `json:"chatUuid"`
	UpdatedBy string             `json:"updatedBy"`
	OldStatus chat.QueueStatus   `json:"oldStatus"`
	NewStatus chat.QueueStatus   `json:"newStatus"`
	Status    chat.QueueStatus   `json:"status"`
}

// Target returns the uuid of the affected conversation.
func (event ChatStatusUpdated) Target() string {
	if event.Chat != nil && event.Chat.UUID != "" {
		return event.Chat.UUID
	}
	return event.ChatUUID
}

// EffectiveStatus returns the new status from whichever field the
// server filled.
func (event ChatStatusUpdated) EffectiveStatus() chat.QueueStatus {
	switch {
	case event.NewStatus != "":
		return event.NewStatus
	case event.Status != "":
		return event.Status
	case event.Chat != nil:
		return event.Chat.EffectiveStatus()
	default:
		return ""
	}
}

// ChatDeleted announces a removed conversation.
type ChatDeleted struct {
	ChatUUID  string `json:"chatUuid"`
	ChatID    int    `json:"chatId"`
	ChatName  string `json:"chatName"`
	DeletedBy string `json:"deletedBy"`
}

// ChatMessage is a new message in a conversation.
type ChatMessage struct {
	ChatUUID string       `json:"chatUuid"`
	Message  chat.Message `json:"message"`
}

// MessageUpdated carries an edited message.
type MessageUpdated struct {
	ChatUUID string       `json:"chatUuid"`
	Message  chat.Message `json:"message"`
}

// MessageDeleted announces a removed message.
type MessageDeleted struct {
	MessageID string `json:"messageId"`
	ChannelID string `json:"channelId"`
	ChatUUID  string `json:"chatUuid"`
}

// MessageReaction carries a message's new reaction set.
type MessageReaction struct {
	ChatUUID  string         `json:"chatUuid"`
	MessageID string         `json:"messageId"`
	Reactions chat.Reactions `json:"reactions"`
}

// QueueUpdate carries a changed queue entry.
type QueueUpdate struct {
	Queue chat.Queue
}

// QueueAssigned announces that a queue entry was taken by a user.
type QueueAssigned struct {
	Queue    chat.Queue `json:"queue"`
	ChatUUID string     `json:"chatUuid"`
}

// Target returns the uuid of the linked conversation, if known.
func (event QueueAssigned) Target() string {
	if event.ChatUUID != "" {
		return event.ChatUUID
	}
	return string(event.Queue.ChatUUID)
}

// UploadProgress reports server-side progress of a file upload.
type UploadProgress struct {
	UploadID   string  `json:"uploadId"`
	Filename   string  `json:"filename"`
	Progress   float64 `json:"progress"`
	BytesRead  int64   `json:"bytesRead"`
	TotalBytes int64   `json:"totalBytes"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
}

// ImageUploaded announces a finished image upload.
type ImageUploaded struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	User     string `json:"user"`
}

// UserJoined is sent on connect (a welcome) and when another user
// connects.
type UserJoined struct {
	UserID  int    `json:"userId"`
	Message string `json:"message"`
}

// UserLeft announces a disconnected user.
type UserLeft struct {
	UserID int `json:"userId"`
}

// StatusUpdate is an opaque server status broadcast.
type StatusUpdate struct {
	Data json.RawMessage
}

// Typing reports that a user is composing in a conversation.
type Typing struct {
	ChatUUID string `json:"chatUuid"`
	UserID   int    `json:"userId"`
	UserName string `json:"userName"`
}

// Pong answers a ping. Timestamp echoes the ping's data.
type Pong struct {
	Timestamp int64 `json:"timestamp"`
}

func (ChatCreated) Type() string       { return TypeChatCreated }
func (ChatUpdated) Type() string       { return TypeChatUpdated }
func (ChatStatusUpdated) Type() string { return TypeChatStatusUpdated }
func (ChatDeleted) Type() string       { return TypeChatDeleted }
func (ChatMessage) Type() string       { return TypeChatMessage }
func (MessageUpdated) Type() string    { return TypeMessageUpdated }
func (MessageDeleted) Type() string    { return TypeMessageDeleted }
func (MessageReaction) Type() string   { return TypeMessageReaction }
func (QueueUpdate) Type() string       { return TypeQueueUpdate }
func (QueueAssigned) Type() string     { return TypeQueueAssigned }
func (UploadProgress) Type() string    { return TypeUploadProgress }
func (ImageUploaded) Type() string     { return TypeImageUploaded }
func (UserJoined) Type() string        { return TypeUserJoined }
func (UserLeft) Type() string          { return TypeUserLeft }
func (StatusUpdate) Type() string      { return TypeStatusUpdate }
func (Typing) Type() string            { return TypeTyping }
func (Pong) Type() string              { return TypePong }

func (ChatCreated) isEvent()       {}
func (ChatUpdated) isEvent()       {}
func (ChatStatusUpdated) isEvent() {}
func (ChatDeleted) isEvent()       {}
func (ChatMessage) isEvent()       {}
func (MessageUpdated) isEvent()    {}
func (MessageDeleted) isEvent()    {}
func (MessageReaction) isEvent()   {}
func (QueueUpdate) isEvent()       {}
func (QueueAssigned) isEvent()     {}
func (UploadProgress) isEvent()    {}
func (ImageUploaded) isEvent()     {}
func (UserJoined) isEvent()        {}
func (UserLeft) isEvent()          {}
func (StatusUpdate) isEvent()      {}
func (Typing) isEvent()            {}
func (Pong) isEvent()              {}

// UnknownTypeError is returned by DecodeFrame for a well-formed frame
// whose type has no Event implementation.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("push: unknown event type %q", e.Type)
}

// DecodeFrame parses one text frame into an Event.
func DecodeFrame(data []byte) (Event, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("push: malformed frame: %w", err)
	}
	if frame.Type == "" {
		return nil, fmt.Errorf("push: frame has no type")
	}

	switch frame.Type {
	case TypeChatCreated:
		return decodeData[ChatCreated](frame)
	case TypeChatUpdated:
		return decodeData[ChatUpdated](frame)
	case TypeChatStatusUpdated:
		return decodeData[ChatStatusUpdated](frame)
	case TypeChatDeleted:
		return decodeData[ChatDeleted](frame)
	case TypeChatMessage:
		return decodeData[ChatMessage](frame)
	case TypeMessageUpdated:
		return decodeData[MessageUpdated](frame)
	case TypeMessageDeleted:
		return decodeData[MessageDeleted](frame)
	case TypeMessageReaction:
		return decodeData[MessageReaction](frame)
	case TypeQueueUpdate:
		// The server sends the queue entry itself, or wrapped as
		// {queue: ...} by newer handlers.
		var wrapped struct {
			Queue *chat.Queue `json:"queue"`
		}
		if err := json.Unmarshal(frame.Data, &wrapped); err == nil && wrapped.Queue != nil {
			return QueueUpdate{Queue: *wrapped.Queue}, nil
		}
		queue, err := decodeData[chat.Queue](frame)
		if err != nil {
			return nil, err
		}
		return QueueUpdate{Queue: queue}, nil
	case TypeQueueAssigned:
		return decodeData[QueueAssigned](frame)
	case TypeUploadProgress:
		return decodeData[UploadProgress](frame)
	case TypeImageUploaded:
		return decodeData[ImageUploaded](frame)
	case TypeUserJoined:
		return decodeData[UserJoined](frame)
	case TypeUserLeft:
		return decodeData[UserLeft](frame)
	case TypeStatusUpdate:
		return StatusUpdate{Data: frame.Data}, nil
	case TypeTyping:
		return decodeData[Typing](frame)
	case TypePong:
		return decodeData[Pong](frame)
	default:
		return nil, &UnknownTypeError{Type: frame.Type}
	}
}

func decodeData[T any](frame Frame) (T, error) {
	var value T
	data := bytes.TrimSpace(frame.Data)
	if len(data) == 0 || string(data) == "null" {
		return value, nil
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("push: malformed %s data: %w", frame.Type, err)
	}
	return value, nil
}

// EncodeFrame builds a wire frame for an outgoing message.
func EncodeFrame(frameType string, data any) ([]byte, error) {
	frame := struct {
		Type string `json:"type"`
		Data any    `json:"data,omitempty"`
	}{Type: frameType, Data: data}
	return json.Marshal(frame)
}

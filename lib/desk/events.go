// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package desk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/chatdesk/lib/chatstate"
	"github.com/bureau-foundation/chatdesk/push"
)

func (desk *Desk) subscribePush() {
	desk.store.Dispatch(chatstate.SetConnection{Connection: chatstate.Connection{Status: chatstate.Connecting}})
	desk.addUnsubscriber(desk.push.OnConnect(desk.handleConnect))
	desk.addUnsubscriber(desk.push.OnDisconnect(desk.handleDisconnect))
	desk.addUnsubscriber(desk.push.OnMessage(desk.HandleEvent))
	desk.addUnsubscriber(desk.push.OnReconnecting(desk.handleReconnecting))
	desk.addUnsubscriber(desk.push.OnGiveUp(desk.handleGiveUp))
}

func (desk *Desk) handleConnect() {
	desk.store.Dispatch(chatstate.SetConnection{Connection: chatstate.Connection{Status: chatstate.Connected}})
	if !desk.connectedOnce.CompareAndSwap(false, true) {
		// Events sent while disconnected are lost; resynchronize.
		desk.logger.Info("push reconnected, resynchronizing")
		desk.spawn(func(ctx context.Context) {
			if desk.Refresh(ctx) == nil && desk.State().SelectedUUID() != "" {
				desk.ReloadMessages(ctx)
			}
		})
	}
}

func (desk *Desk) handleDisconnect(disconnect push.Disconnect) {
	desk.store.Dispatch(chatstate.SetConnection{Connection: chatstate.Connection{Status: chatstate.Disconnected}})
}

func (desk *Desk) handleReconnecting(attempt int, delay time.Duration) {
	desk.store.Dispatch(chatstate.SetConnection{Connection: chatstate.Connection{
		Status:  chatstate.Reconnecting,
		Attempt: attempt,
	}})
}

func (desk *Desk) handleGiveUp(failures int) {
	desk.store.Dispatch(chatstate.SetConnection{Connection: chatstate.Connection{
		Status:  chatstate.Disconnected,
		Attempt: failures,
		GaveUp:  true,
	}})
	desk.notify(LevelError, fmt.Sprintf("Live updates stopped after %d failed attempts; press ctrl+r to reconnect", failures))
}

// Reconnect restarts the push client after it gave up.
func (desk *Desk) Reconnect(ctx context.Context) error {
	if desk.push == nil {
		return nil
	}
	desk.store.Dispatch(chatstate.SetConnection{Connection: chatstate.Connection{Status: chatstate.Connecting}})
	return desk.push.Connect(ctx)
}

// HandleEvent applies one push event to the state.
func (desk *Desk) HandleEvent(event push.Event) {
	now := desk.clock.Now()
	switch event := event.(type) {
	case push.ChatCreated:
		desk.store.Dispatch(chatstate.AddChat{Chat: event.Chat})

	case push.ChatUpdated:
		desk.store.Dispatch(chatstate.UpdateChat{Chat: event.Chat})

	case push.ChatStatusUpdated:
		status := event.EffectiveStatus()
		if event.Chat != nil && event.Chat.UUID != "" {
			updated := *event.Chat
			if status != "" && updated.EffectiveStatus() != status {
				updated = updated.WithQueueStatus(status)
			}
			desk.store.Dispatch(chatstate.UpdateChat{Chat: updated})
			return
		}
		if current, ok := desk.State().Chat(event.Target()); ok && status != "" {
			desk.store.Dispatch(chatstate.UpdateChat{Chat: current.WithQueueStatus(status)})
		}

	case push.ChatDeleted:
		wasSelected := event.ChatUUID != "" && desk.State().SelectedUUID() == event.ChatUUID
		desk.store.Dispatch(chatstate.RemoveChat{UUID: event.ChatUUID, ID: event.ChatID})
		if wasSelected {
			name := event.ChatName
			if name == "" {
				name = "This chat"
			}
			desk.notify(LevelWarning, name+" was deleted")
		}

	case push.ChatMessage:
		desk.store.Dispatch(chatstate.AddMessage{ChatUUID: event.ChatUUID, Message: event.Message, At: now})

	case push.MessageUpdated:
		desk.store.Dispatch(chatstate.UpdateMessage{Message: event.Message})

	case push.MessageDeleted:
		desk.store.Dispatch(chatstate.RemoveMessage{MessageID: event.MessageID})

	case push.MessageReaction:
		desk.store.Dispatch(chatstate.SetReactions{MessageID: event.MessageID, Reactions: event.Reactions})

	case push.QueueUpdate:
		desk.applyQueue(string(event.Queue.ChatUUID), event.Queue)

	case push.QueueAssigned:
		desk.applyQueue(event.Target(), event.Queue)
		if assignee := string(event.Queue.AssignedToName); assignee != "" {
			desk.notify(LevelInfo, fmt.Sprintf("Ticket #%d assigned to %s", event.Queue.ID, assignee))
		}

	case push.UploadProgress:
		switch {
		case event.Error != "" || event.Status == "error" || event.Status == "failed":
			reason := event.Error
			if reason == "" {
				reason = "upload failed"
			}
			desk.transfers.Fail(event.UploadID, errors.New(reason))
		case event.Status == "completed" || event.Status == "complete":
			desk.transfers.Update(event.UploadID, event.Filename, event.BytesRead, event.TotalBytes)
			desk.transfers.Complete(event.UploadID, "")
		default:
			desk.transfers.Update(event.UploadID, event.Filename, event.BytesRead, event.TotalBytes)
		}

	case push.ImageUploaded:
		desk.transfers.Update(event.URL, event.Filename, event.Size, event.Size)
		desk.transfers.Complete(event.URL, "")

	case push.Typing:
		if desk.user != nil && event.UserID == desk.user.ID {
			return
		}
		desk.store.Dispatch(chatstate.SetTyping{ChatUUID: event.ChatUUID, UserName: event.UserName, At: now})

	case push.UserJoined:
		desk.logger.Debug("user joined", "user_id", event.UserID, "message", event.Message)

	case push.UserLeft:
		desk.logger.Debug("user left", "user_id", event.UserID)

	case push.StatusUpdate:
		desk.logger.Debug("server status update", "data", string(event.Data))

	case push.Pong:
		desk.logger.Debug("pong", "latency", now.Sub(time.UnixMilli(event.Timestamp)))

	default:
		desk.logger.Warn("unhandled push event", "type", event.Type())
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package desk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/chatdesk/lib/chatstate"
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
	"github.com/bureau-foundation/chatdesk/messaging"
)

var (
	// ErrNoSelection is returned by operations on the selected
	// conversation when none is selected.
	ErrNoSelection = errors.New("desk: no conversation selected")

	// ErrEmptyMessage is returned by Send and Edit for a message with
	// neither text nor attachments.
	ErrEmptyMessage = errors.New("desk: message is empty")

	// ErrUnknownMessage is returned for a message id that is not
	// loaded.
	ErrUnknownMessage = errors.New("desk: message not loaded")
)

// Select selects the conversation with uuid, or clears the selection
// when uuid is empty. Its messages load in the background.
func (desk *Desk) Select(uuid string) {
	desk.store.Dispatch(chatstate.SelectChat{UUID: uuid})
}

// SetPage switches the top-level view.
func (desk *Desk) SetPage(page chatstate.Page) {
	desk.store.Dispatch(chatstate.SetPage{Page: page})
}

// Refresh refetches the conversation list.
func (desk *Desk) Refresh(ctx context.Context) error {
	desk.store.Dispatch(chatstate.SetLoading{Target: chatstate.LoadChats, Loading: true})
	chats, err := desk.api.ListChats(ctx)
	if err != nil {
		desk.store.Dispatch(chatstate.SetLoading{Target: chatstate.LoadChats, Loading: false})
		desk.fail("Couldn't refresh chats", err)
		return err
	}
	desk.store.Dispatch(chatstate.SetChats{Chats: chats})
	return nil
}

// ReloadMessages refetches the selected conversation's messages.
func (desk *Desk) ReloadMessages(ctx context.Context) error {
	uuid := desk.State().SelectedUUID()
	if uuid == "" {
		return ErrNoSelection
	}
	desk.store.Dispatch(chatstate.SetLoading{Target: chatstate.LoadMessages, Loading: true})
	messages, err := desk.api.ChatMessages(ctx, uuid)
	if err != nil {
		desk.store.Dispatch(chatstate.SetLoading{Target: chatstate.LoadMessages, Loading: false})
		desk.fail("Couldn't load messages", err)
		return err
	}
	desk.store.Dispatch(chatstate.SetMessages{ChatUUID: uuid, Messages: messages})
	return nil
}

// CreateChat creates a conversation and selects it.
func (desk *Desk) CreateChat(ctx context.Context, request messaging.CreateChatRequest) (*chat.Conversation, error) {
	request.Name = strings.TrimSpace(request.Name)
	if request.Name == "" {
		return nil, errors.New("desk: chat name is required")
	}
	created, err := desk.api.CreateChat(ctx, request)
	if err != nil {
		desk.fail("Couldn't create chat", err)
		return nil, err
	}
	desk.store.Dispatch(chatstate.AddChat{Chat: *created})
	desk.store.Dispatch(chatstate.SelectChat{UUID: created.UUID})
	desk.notify(LevelSuccess, fmt.Sprintf("Created %q", created.DisplayName()))
	return created, nil
}

// UpdateRequestType changes a conversation's request type.
func (desk *Desk) UpdateRequestType(ctx context.Context, uuid, requestType string) error {
	updated, err := desk.api.UpdateChat(ctx, uuid, messaging.UpdateChatRequest{RequestType: requestType})
	if err != nil {
		desk.fail("Couldn't update request type", err)
		return err
	}
	desk.applyChat(uuid, updated, func(conversation chat.Conversation) chat.Conversation {
		return conversation.WithMetadataField("requestType", requestType)
	})
	return nil
}

// UpdateStatus moves a conversation's queue entry to status.
func (desk *Desk) UpdateStatus(ctx context.Context, uuid string, status chat.QueueStatus) error {
	updated, err := desk.api.UpdateChatStatus(ctx, uuid, status)
	if err != nil {
		desk.fail("Couldn't change status", err)
		return err
	}
	desk.applyChat(uuid, updated, func(conversation chat.Conversation) chat.Conversation {
		return conversation.WithQueueStatus(status)
	})
	desk.notify(LevelSuccess, "Status set to "+status.Label())
	return nil
}

// DeleteChat deletes a conversation. Its selection, if any, is
// cleared.
func (desk *Desk) DeleteChat(ctx context.Context, uuid string) error {
	if err := desk.api.DeleteChat(ctx, uuid); err != nil {
		desk.fail("Couldn't delete chat", err)
		return err
	}
	desk.store.Dispatch(chatstate.RemoveChat{UUID: uuid})
	return nil
}

// Send posts a message to the selected conversation, replying to the
// current reply draft if one is set. The draft is cleared on success.
func (desk *Desk) Send(ctx context.Context, content string, attachments []string) (*chat.Message, error) {
	state := desk.State()
	uuid := state.SelectedUUID()
	if uuid == "" {
		return nil, ErrNoSelection
	}
	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return nil, ErrEmptyMessage
	}

	sent, err := desk.api.SendMessage(ctx, uuid, messaging.SendMessageRequest{
		Content:     content,
		Attachments: attachments,
		ReplyTo:     state.ReplyDraft,
	})
	if err != nil {
		desk.fail("Couldn't send message", err)
		return nil, err
	}
	// The push echo of this message carries the same id and is
	// dropped by the reducer.
	desk.store.Dispatch(chatstate.AddMessage{ChatUUID: uuid, Message: *sent, At: desk.clock.Now()})
	if state.ReplyDraft != nil {
		desk.store.Dispatch(chatstate.SetReplyDraft{})
	}
	return sent, nil
}

// Edit replaces a loaded message's text, keeping its attachments.
func (desk *Desk) Edit(ctx context.Context, messageID, content string) (*chat.Message, error) {
	original, ok := desk.State().Message(messageID)
	if !ok {
		return nil, ErrUnknownMessage
	}
	content = strings.TrimSpace(content)
	if content == "" && len(original.Attachments) == 0 {
		return nil, ErrEmptyMessage
	}
	edited, err := desk.api.EditMessage(ctx, messageID, messaging.EditMessageRequest{
		Content:     content,
		Attachments: original.Attachments,
	})
	if err != nil {
		desk.fail("Couldn't edit message", err)
		return nil, err
	}
	desk.store.Dispatch(chatstate.UpdateMessage{Message: *edited})
	return edited, nil
}

// DeleteMessage deletes a loaded message. The message is marked as
// deleting while the request is in flight.
func (desk *Desk) DeleteMessage(ctx context.Context, messageID string) error {
	if _, ok := desk.State().Message(messageID); !ok {
		return ErrUnknownMessage
	}
	desk.store.Dispatch(chatstate.MarkDeleting{MessageID: messageID, Deleting: true})
	if err := desk.api.DeleteMessage(ctx, messageID); err != nil {
		desk.store.Dispatch(chatstate.MarkDeleting{MessageID: messageID, Deleting: false})
		desk.fail("Couldn't delete message", err)
		return err
	}
	desk.store.Dispatch(chatstate.RemoveMessage{MessageID: messageID})
	return nil
}

// React toggles the signed-in user's emoji reaction on a message.
func (desk *Desk) React(ctx context.Context, messageID, emoji string) error {
	message, ok := desk.State().Message(messageID)
	if !ok {
		return ErrUnknownMessage
	}
	reactions, err := desk.api.ToggleReaction(ctx, messageID, emoji)
	if err != nil {
		desk.fail("Couldn't react", err)
		return err
	}
	if reactions == nil {
		// The server acknowledged without returning the new set.
		reactions = message.Reactions.Toggle(emoji)
	}
	desk.store.Dispatch(chatstate.SetReactions{MessageID: messageID, Reactions: reactions})
	return nil
}

// Search finds messages in the selected conversation.
func (desk *Desk) Search(ctx context.Context, query string) (*messaging.SearchResult, error) {
	uuid := desk.State().SelectedUUID()
	if uuid == "" {
		return nil, ErrNoSelection
	}
	result, err := desk.api.SearchMessages(ctx, uuid, strings.TrimSpace(query))
	if err != nil {
		desk.fail("Search failed", err)
		return nil, err
	}
	return result, nil
}

// AssignToMe takes the queue entry linked to a conversation.
func (desk *Desk) AssignToMe(ctx context.Context, uuid string) (*chat.Queue, error) {
	queue, err := desk.api.AssignChatQueue(ctx, uuid)
	if err != nil {
		desk.fail("Couldn't take the ticket", err)
		return nil, err
	}
	desk.applyQueue(uuid, *queue)
	desk.notify(LevelSuccess, "Ticket assigned to you")
	return queue, nil
}

// Queue lists the work queue.
func (desk *Desk) Queue(ctx context.Context) ([]chat.Queue, error) {
	entries, err := desk.api.ListQueue(ctx)
	if err != nil {
		desk.fail("Couldn't load the queue", err)
		return nil, err
	}
	return entries, nil
}

// AssignQueue takes a queue entry by id.
func (desk *Desk) AssignQueue(ctx context.Context, queueID int) (*chat.Queue, error) {
	queue, err := desk.api.AssignQueue(ctx, queueID)
	if err != nil {
		desk.fail("Couldn't take the ticket", err)
		return nil, err
	}
	desk.applyQueue(string(queue.ChatUUID), *queue)
	return queue, nil
}

// SetReply starts a reply to a loaded message; an empty id cancels the
// reply.
func (desk *Desk) SetReply(messageID string) error {
	if messageID == "" {
		desk.store.Dispatch(chatstate.SetReplyDraft{})
		return nil
	}
	message, ok := desk.State().Message(messageID)
	if !ok {
		return ErrUnknownMessage
	}
	desk.store.Dispatch(chatstate.SetReplyDraft{Reply: chat.ReplyTo(message)})
	return nil
}

// Download saves an attachment and returns the local path.
func (desk *Desk) Download(ctx context.Context, attachment string) (string, error) {
	if desk.downloader == nil {
		return "", errors.New("desk: downloads are not configured")
	}
	path, err := desk.downloader.Download(ctx, attachment)
	if err != nil {
		desk.fail("Download failed", err)
		return "", err
	}
	desk.notify(LevelSuccess, "Saved "+path)
	return path, nil
}

// Typing tells other participants the user is composing in the
// selected conversation. Calls are rate limited by the push client.
func (desk *Desk) Typing() {
	uuid := desk.State().SelectedUUID()
	if desk.push == nil || uuid == "" {
		return
	}
	if _, err := desk.push.SendTyping(uuid); err != nil {
		desk.logger.Debug("typing notification not sent", "error", err)
	}
}

// applyChat stores the server's copy of a conversation when the
// response carried one, and otherwise patches the listed copy.
func (desk *Desk) applyChat(uuid string, updated *chat.Conversation, patch func(chat.Conversation) chat.Conversation) {
	if updated != nil && updated.UUID != "" {
		desk.store.Dispatch(chatstate.UpdateChat{Chat: *updated})
		return
	}
	if current, ok := desk.State().Chat(uuid); ok {
		desk.store.Dispatch(chatstate.UpdateChat{Chat: patch(current)})
	}
}

// applyQueue copies a queue entry's status onto its conversation.
func (desk *Desk) applyQueue(uuid string, queue chat.Queue) {
	state := desk.State()
	current, ok := state.Chat(uuid)
	if !ok {
		current, ok = chatForQueue(state.Chats, queue.ID)
	}
	if !ok || queue.Status == "" {
		return
	}
	updated := current.WithQueueStatus(queue.Status).WithMetadataField("queueId", queue.ID)
	desk.store.Dispatch(chatstate.UpdateChat{Chat: updated})
}

func chatForQueue(chats []chat.Conversation, queueID int) (chat.Conversation, bool) {
	if queueID == 0 {
		return chat.Conversation{}, false
	}
	for _, conversation := range chats {
		if conversation.ParsedMetadata().QueueID == int64(queueID) || int(conversation.QueueID) == queueID {
			return conversation, true
		}
	}
	return chat.Conversation{}, false
}

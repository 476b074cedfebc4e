// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"maps"
	"slices"
	"time"

	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
)

// Reduce returns the state that results from applying action to
// state. It is total: actions that do not apply (unknown ids, a stale
// conversation) return state unchanged.
func Reduce(state State, action Action) State {
	switch action := action.(type) {
	case SetChats:
		return setChats(state, action)
	case SelectChat:
		return selectChat(state, action.UUID)
	case UpdateChat:
		return updateChat(state, action.Chat)
	case AddChat:
		return addChat(state, action.Chat)
	case RemoveChat:
		return removeChat(state, action)
	case SetMessages:
		return setMessages(state, action)
	case AddMessage:
		return addMessage(state, action)
	case UpdateMessage:
		return updateMessage(state, action.Message)
	case RemoveMessage:
		return removeMessage(state, action.MessageID)
	case MarkDeleting:
		return markDeleting(state, action)
	case SetReplyDraft:
		state.ReplyDraft = cloneReply(action.Reply)
		return state
	case SetReactions:
		return setReactions(state, action)
	case ExpireFresh:
		return expireFresh(state, action)
	case SetLoading:
		switch action.Target {
		case LoadChats:
			state.LoadingChats = action.Loading
		case LoadMessages:
			state.LoadingMessages = action.Loading
		}
		return state
	case SetPage:
		state.Page = action.Page
		return state
	case RestoreSession:
		return restoreSession(state, action)
	case SetConnection:
		state.Connection = action.Connection
		return state
	case SetTyping:
		if action.ChatUUID == "" {
			return state
		}
		state.Typing = maps.Clone(state.Typing)
		if state.Typing == nil {
			state.Typing = make(map[string]TypingUser)
		}
		state.Typing[action.ChatUUID] = TypingUser{UserName: action.UserName, At: action.At}
		return state
	default:
		return state
	}
}

func setChats(state State, action SetChats) State {
	state.Chats = slices.Clone(action.Chats)
	if state.Chats == nil {
		state.Chats = []chat.Conversation{}
	}
	state.LoadingChats = false

	if state.Selected == nil {
		return state
	}
	index := state.ChatIndex(state.Selected.UUID)
	if index < 0 {
		return clearSelection(state)
	}
	state.Selected = conversationPointer(state.Chats[index])
	return state
}

func selectChat(state State, uuid string) State {
	state = clearSelection(state)
	if index := state.ChatIndex(uuid); index >= 0 {
		state.Selected = conversationPointer(state.Chats[index])
		state.LoadingMessages = true
	}
	return state
}

// clearSelection drops the selection and everything scoped to it.
func clearSelection(state State) State {
	state.Selected = nil
	state.Messages = []chat.Message{}
	state.LoadingMessages = false
	state.ReplyDraft = nil
	state.Deleting = nil
	state.Fresh = nil
	return state
}

func updateChat(state State, updated chat.Conversation) State {
	index := state.ChatIndex(updated.UUID)
	if index < 0 {
		return state
	}
	state.Chats = slices.Clone(state.Chats)
	state.Chats[index] = updated
	if state.SelectedUUID() == updated.UUID {
		state.Selected = conversationPointer(updated)
	}
	return state
}

func addChat(state State, added chat.Conversation) State {
	if added.UUID == "" {
		return state
	}
	if state.ChatIndex(added.UUID) >= 0 {
		return updateChat(state, added)
	}
	chats := make([]chat.Conversation, 0, len(state.Chats)+1)
	chats = append(chats, state.Chats...)
	state.Chats = append(chats, added)
	return state
}

func removeChat(state State, action RemoveChat) State {
	matches := func(conversation chat.Conversation) bool {
		if action.UUID != "" {
			return conversation.UUID == action.UUID
		}
		return action.ID != 0 && conversation.ID == action.ID
	}

	var removed []chat.Conversation
	kept := make([]chat.Conversation, 0, len(state.Chats))
	for _, conversation := range state.Chats {
		if matches(conversation) {
			removed = append(removed, conversation)
			continue
		}
		kept = append(kept, conversation)
	}
	if len(removed) == 0 {
		return state
	}
	state.Chats = kept

	if state.Selected != nil && matches(*state.Selected) {
		state = clearSelection(state)
	}
	return state
}

func setMessages(state State, action SetMessages) State {
	if action.ChatUUID == "" || action.ChatUUID != state.SelectedUUID() {
		return state
	}
	seen := make(map[string]bool, len(action.Messages))
	messages := make([]chat.Message, 0, len(action.Messages))
	for _, message := range action.Messages {
		if message.MessageID != "" {
			if seen[message.MessageID] {
				continue
			}
			seen[message.MessageID] = true
		}
		messages = append(messages, message)
	}
	state.Messages = messages
	state.LoadingMessages = false
	return state
}

func addMessage(state State, action AddMessage) State {
	if action.ChatUUID == "" || action.ChatUUID != state.SelectedUUID() {
		return state
	}
	if action.Message.MessageID == "" || state.MessageIndex(action.Message.MessageID) >= 0 {
		return state
	}
	messages := make([]chat.Message, 0, len(state.Messages)+1)
	messages = append(messages, state.Messages...)
	state.Messages = append(messages, action.Message)

	if !action.At.IsZero() {
		state.Fresh = maps.Clone(state.Fresh)
		if state.Fresh == nil {
			state.Fresh = make(map[string]time.Time)
		}
		state.Fresh[action.Message.MessageID] = action.At
	}
	return state
}

func updateMessage(state State, updated chat.Message) State {
	index := state.MessageIndex(updated.MessageID)
	if index < 0 {
		return state
	}
	state.Messages = slices.Clone(state.Messages)
	state.Messages[index] = updated
	return state
}

func removeMessage(state State, messageID string) State {
	index := state.MessageIndex(messageID)
	if index < 0 {
		return state
	}
	state.Messages = slices.Delete(slices.Clone(state.Messages), index, index+1)
	if _, ok := state.Deleting[messageID]; ok {
		state.Deleting = maps.Clone(state.Deleting)
		delete(state.Deleting, messageID)
	}
	if _, ok := state.Fresh[messageID]; ok {
		state.Fresh = maps.Clone(state.Fresh)
		delete(state.Fresh, messageID)
	}
	if state.ReplyDraft != nil && state.ReplyDraft.MessageID == messageID {
		state.ReplyDraft = nil
	}
	return state
}

func markDeleting(state State, action MarkDeleting) State {
	if action.MessageID == "" || state.Deleting[action.MessageID] == action.Deleting {
		return state
	}
	state.Deleting = maps.Clone(state.Deleting)
	if action.Deleting {
		if state.Deleting == nil {
			state.Deleting = make(map[string]bool)
		}
		state.Deleting[action.MessageID] = true
	} else {
		delete(state.Deleting, action.MessageID)
	}
	return state
}

func setReactions(state State, action SetReactions) State {
	index := state.MessageIndex(action.MessageID)
	if index < 0 {
		return state
	}
	state.Messages = slices.Clone(state.Messages)
	state.Messages[index].Reactions = maps.Clone(action.Reactions)
	return state
}

func expireFresh(state State, action ExpireFresh) State {
	freshExpired := func(_ string, at time.Time) bool {
		return action.Now.Sub(at) >= FreshWindow
	}
	if anyEntry(state.Fresh, freshExpired) {
		state.Fresh = maps.Clone(state.Fresh)
		maps.DeleteFunc(state.Fresh, freshExpired)
	}

	typingExpired := func(_ string, typing TypingUser) bool {
		return action.Now.Sub(typing.At) >= TypingWindow
	}
	if anyEntry(state.Typing, typingExpired) {
		state.Typing = maps.Clone(state.Typing)
		maps.DeleteFunc(state.Typing, typingExpired)
	}
	return state
}

func restoreSession(state State, action RestoreSession) State {
	if action.Page != "" {
		state.Page = action.Page
	}
	return selectChat(state, action.UUID)
}

func anyEntry[K comparable, V any](m map[K]V, predicate func(K, V) bool) bool {
	for key, value := range m {
		if predicate(key, value) {
			return true
		}
	}
	return false
}

func conversationPointer(conversation chat.Conversation) *chat.Conversation {
	return &conversation
}

func cloneReply(reply *chat.ReplyReference) *chat.ReplyReference {
	if reply == nil {
		return nil
	}
	copied := *reply
	return &copied
}

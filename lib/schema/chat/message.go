// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Message is one entry in a conversation's history. The parent
// conversation is implied by the fetch or push context; ChannelID is
// informational only.
type Message struct {
	ID        int    `json:"id,omitempty"`
	MessageID string `json:"messageId"`
	ChannelID string `json:"channelId,omitempty"`

	Content  string `json:"content"`
	UserID   int    `json:"userId"`
	UserName string `json:"userName"`
	UserRole string `json:"userRole,omitempty"`

	Attachments Attachments    `json:"attachments,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Status      OptionalString `json:"status,omitempty"`
	Reactions   Reactions      `json:"reactions,omitempty"`
	CustomerID  OptionalString `json:"customerId,omitempty"`

	// ReplyTo is a snapshot of the message being replied to, taken
	// when the reply was written. It is not refreshed when the
	// target is edited or deleted.
	ReplyTo *ReplyReference `json:"replyTo,omitempty"`

	EditedAt  OptionalTime `json:"editedAt"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Edited reports whether the message has been edited since creation.
func (message Message) Edited() bool {
	return message.EditedAt.Valid
}

// ReplyReference is the denormalized target of a reply.
type ReplyReference struct {
	MessageID string `json:"messageId"`
	UserName  string `json:"userName"`
	Content   string `json:"content"`
}

// ReplyTo builds a reply reference pointing at message, truncating
// the quoted content to a preview.
func ReplyTo(message Message) *ReplyReference {
	preview := message.Content
	const maxPreview = 120
	if runes := []rune(preview); len(runes) > maxPreview {
		preview = string(runes[:maxPreview]) + "…"
	}
	return &ReplyReference{
		MessageID: message.MessageID,
		UserName:  message.UserName,
		Content:   preview,
	}
}

// Reaction is the aggregate for one emoji on one message. Active is
// true when the signed-in user is among the reactors.
type Reaction struct {
	Count  int  `json:"count"`
	Active bool `json:"active"`
}

// Reactions maps an emoji to its aggregate.
type Reactions map[string]Reaction

// UnmarshalJSON implements json.Unmarshaler. The reactions column is
// jsonb, so it may arrive base64-encoded. Each entry may be a
// {count, active} object, a bare count, or a list of reacting user
// IDs. Unrecognized shapes decode to no reactions.
func (reactions *Reactions) UnmarshalJSON(data []byte) error {
	var blob Blob
	if err := blob.UnmarshalJSON(data); err != nil {
		return err
	}
	if len(blob) == 0 {
		*reactions = nil
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		*reactions = nil
		return nil
	}
	result := make(Reactions, len(raw))
	for emoji, entry := range raw {
		entry = bytes.TrimSpace(entry)
		if len(entry) == 0 {
			continue
		}
		switch entry[0] {
		case '{':
			var reaction Reaction
			if err := json.Unmarshal(entry, &reaction); err == nil {
				result[emoji] = reaction
			}
		case '[':
			var reactors []json.RawMessage
			if err := json.Unmarshal(entry, &reactors); err == nil {
				result[emoji] = Reaction{Count: len(reactors)}
			}
		default:
			if count, err := strconv.Atoi(string(entry)); err == nil {
				result[emoji] = Reaction{Count: count}
			}
		}
	}
	*reactions = result
	return nil
}

// Emojis returns the emojis with a positive count, sorted for stable
// display.
func (reactions Reactions) Emojis() []string {
	emojis := make([]string, 0, len(reactions))
	for emoji, reaction := range reactions {
		if reaction.Count > 0 {
			emojis = append(emojis, emoji)
		}
	}
	sort.Strings(emojis)
	return emojis
}

// Toggle returns a copy with the signed-in user's reaction for emoji
// flipped. Used to render the local result of a reaction toggle when
// the server acknowledges without returning the new set.
func (reactions Reactions) Toggle(emoji string) Reactions {
	result := make(Reactions, len(reactions)+1)
	for key, value := range reactions {
		result[key] = value
	}
	current := result[emoji]
	if current.Active {
		current.Active = false
		current.Count--
	} else {
		current.Active = true
		current.Count++
	}
	if current.Count <= 0 {
		delete(result, emoji)
	} else {
		result[emoji] = current
	}
	return result
}

// QueueCard is the parsed form of the system message the server posts
// when a queue entry is accepted. Its wire form is
// "[QUEUE_ACCEPTED|queueId|userName|picture|customerName]jobName".
type QueueCard struct {
	QueueID      int
	UserName     string
	Picture      string
	CustomerName string
	JobName      string
}

const queueCardPrefix = "[QUEUE_ACCEPTED|"

// ParseQueueCard extracts a QueueCard from message content. The
// second result is false for ordinary messages.
func ParseQueueCard(content string) (QueueCard, bool) {
	if !strings.HasPrefix(content, queueCardPrefix) {
		return QueueCard{}, false
	}
	closing := strings.IndexByte(content, ']')
	if closing < 0 {
		return QueueCard{}, false
	}
	fields := strings.Split(content[len(queueCardPrefix):closing], "|")
	if len(fields) != 4 {
		return QueueCard{}, false
	}
	queueID, err := strconv.Atoi(fields[0])
	if err != nil {
		return QueueCard{}, false
	}
	return QueueCard{
		QueueID:      queueID,
		UserName:     fields[1],
		Picture:      fields[2],
		CustomerName: fields[3],
		JobName:      content[closing+1:],
	}, true
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"encoding/json"
	"strconv"
	"time"
)

// Conversation is a named channel of messages. The server and push
// events call it a "chat"; older endpoints call it a "thread".
type Conversation struct {
	// ID is the database surrogate key. Used only for local list
	// operations.
	ID int `json:"id"`

	// UUID is the stable external identifier. All server addressing
	// and push correlation uses it. Immutable.
	UUID string `json:"uuid"`

	// UniqueID is an optional human-readable identifier.
	UniqueID string `json:"uniqueId,omitempty"`

	// Name is the display name. Current servers send ChannelName
	// instead; DisplayName resolves between them.
	Name        string `json:"name,omitempty"`
	ChannelID   string `json:"channelId,omitempty"`
	ChannelName string `json:"channelName,omitempty"`
	ChannelType string `json:"channelType,omitempty"`

	ChatCategory string         `json:"chatCategory,omitempty"`
	Description  OptionalString `json:"description,omitempty"`
	JobID        OptionalString `json:"jobId,omitempty"`
	QueueID      OptionalInt    `json:"queueId,omitempty"`
	CustomerID   OptionalString `json:"customerId,omitempty"`

	// Status mirrors the linked queue entry's status.
	Status QueueStatus `json:"status,omitempty"`

	// Metadata is an opaque JSON object. Parse it with
	// ParsedMetadata; everything outside that subset is carried
	// through untouched.
	Metadata Blob `json:"metadata,omitempty"`

	IsArchived    Flag      `json:"isArchived"`
	CreatedByID   int       `json:"createdById"`
	CreatedByName string    `json:"createdByName"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DisplayName returns the best available label for the conversation.
func (conversation Conversation) DisplayName() string {
	switch {
	case conversation.Name != "":
		return conversation.Name
	case conversation.ChannelName != "":
		return conversation.ChannelName
	case conversation.UniqueID != "":
		return conversation.UniqueID
	default:
		return conversation.UUID
	}
}

// Creator returns the creator's display name, preferring the column
// over the copy in metadata.
func (conversation Conversation) Creator() string {
	if conversation.CreatedByName != "" {
		return conversation.CreatedByName
	}
	return conversation.ParsedMetadata().CreatedByName
}

// EffectiveStatus returns the queue status: the metadata copy when
// present (push updates patch it first), else the Status column.
func (conversation Conversation) EffectiveStatus() QueueStatus {
	if status := conversation.ParsedMetadata().QueueStatus; status != "" {
		return status
	}
	return conversation.Status
}

// Archived reports whether either the column or metadata marks the
// conversation archived.
func (conversation Conversation) Archived() bool {
	return bool(conversation.IsArchived) || conversation.ParsedMetadata().Archived
}

// Metadata is the subset of the conversation metadata blob the client
// interprets.
type Metadata struct {
	QueueID       int64
	QueueStatus   QueueStatus
	RequestType   string
	Archived      bool
	CreatedByName string
}

// ParsedMetadata decodes the interpreted subset of Metadata. Missing
// or malformed metadata yields the zero value. Numeric fields accept
// numbers or numeric strings, since different writers disagree.
func (conversation Conversation) ParsedMetadata() Metadata {
	fields := conversation.metadataFields()
	var metadata Metadata

	switch value := fields["queueId"].(type) {
	case float64:
		metadata.QueueID = int64(value)
	case string:
		metadata.QueueID, _ = strconv.ParseInt(value, 10, 64)
	}
	if value, ok := fields["queueStatus"].(string); ok {
		if status, err := ParseQueueStatus(value); err == nil {
			metadata.QueueStatus = status
		}
	}
	if value, ok := fields["requestType"].(string); ok {
		metadata.RequestType = value
	}
	switch value := fields["archived"].(type) {
	case bool:
		metadata.Archived = value
	case float64:
		metadata.Archived = value != 0
	case string:
		metadata.Archived = value == "true" || value == "1"
	}
	if value, ok := fields["createdByName"].(string); ok {
		metadata.CreatedByName = value
	}
	return metadata
}

// RequestType returns the request-type tag from metadata.
func (conversation Conversation) RequestType() string {
	return conversation.ParsedMetadata().RequestType
}

// WithMetadataField returns a copy of the conversation with one
// metadata key set, preserving every other key.
func (conversation Conversation) WithMetadataField(key string, value any) Conversation {
	fields := conversation.metadataFields()
	if fields == nil {
		fields = make(map[string]any)
	}
	fields[key] = value
	encoded, err := json.Marshal(fields)
	if err != nil {
		return conversation
	}
	conversation.Metadata = Blob(encoded)
	return conversation
}

// WithQueueStatus returns a copy with the queue status applied to both
// the Status column and the metadata copy.
func (conversation Conversation) WithQueueStatus(status QueueStatus) Conversation {
	conversation.Status = status
	return conversation.WithMetadataField("queueStatus", string(status))
}

func (conversation Conversation) metadataFields() map[string]any {
	if len(conversation.Metadata) == 0 {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(conversation.Metadata, &fields); err != nil {
		return nil
	}
	return fields
}

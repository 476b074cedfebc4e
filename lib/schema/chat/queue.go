// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"fmt"
	"strings"
	"time"
)

// QueueStatus is the work status of a conversation's queue entry.
// The set is closed: the server rejects anything else. Transitions
// between statuses are not constrained client-side; the server is the
// only authority on which moves are legal.
type QueueStatus string

const (
	StatusPending       QueueStatus = "PENDING"
	StatusAccepted      QueueStatus = "ACCEPTED"
	StatusWaitDimension QueueStatus = "WAIT_DIMENSION"
	StatusWaitFeedback  QueueStatus = "WAIT_FEEDBACK"
	StatusWaitQA        QueueStatus = "WAIT_QA"
	StatusHold          QueueStatus = "HOLD"
	StatusCompleted     QueueStatus = "COMPLETED"
	StatusCancel        QueueStatus = "CANCEL"
)

// QueueStatuses lists every status in workflow order.
var QueueStatuses = []QueueStatus{
	StatusPending,
	StatusAccepted,
	StatusWaitDimension,
	StatusWaitFeedback,
	StatusWaitQA,
	StatusHold,
	StatusCompleted,
	StatusCancel,
}

// ParseQueueStatus normalizes s (case-insensitive, surrounding space
// ignored) to a member of the enumeration.
func ParseQueueStatus(s string) (QueueStatus, error) {
	candidate := QueueStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, status := range QueueStatuses {
		if candidate == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("chat: unknown queue status %q", s)
}

// Label returns a human-readable form, e.g. "Wait QA".
func (status QueueStatus) Label() string {
	switch status {
	case StatusPending:
		return "Pending"
	case StatusAccepted:
		return "Accepted"
	case StatusWaitDimension:
		return "Wait dimension"
	case StatusWaitFeedback:
		return "Wait feedback"
	case StatusWaitQA:
		return "Wait QA"
	case StatusHold:
		return "Hold"
	case StatusCompleted:
		return "Completed"
	case StatusCancel:
		return "Cancelled"
	case "":
		return "No status"
	default:
		return string(status)
	}
}

// Terminal reports whether the status ends the queue entry's work.
func (status QueueStatus) Terminal() bool {
	return status == StatusCompleted || status == StatusCancel
}

// Queue is a work-queue entry linked to a conversation through the
// conversation metadata's queueId.
type Queue struct {
	ID             int            `json:"id"`
	QueueNo        OptionalString `json:"queueNo"`
	JobName        string         `json:"jobName"`
	RequestType    string         `json:"requestType"`
	Priority       string         `json:"priority"`
	Status         QueueStatus    `json:"status"`
	AssignedToID   OptionalInt    `json:"assignedToId"`
	AssignedToName OptionalString `json:"assignedToName"`
	CustomerID     OptionalString `json:"customerId"`
	CustomerName   OptionalString `json:"customerName"`
	ChatUUID       OptionalString `json:"chatUuid"`
	Notes          OptionalString `json:"notes"`
	CreatedByName  OptionalString `json:"createdByName"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

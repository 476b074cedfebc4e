// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response (or a 2xx response whose envelope
// says success:false). Callers extract it with errors.As:
//
//	var apiErr *APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound { ... }
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Message is the user-facing classification of StatusCode.
	Message string

	// ServerMessage is the error text the server sent, if any.
	ServerMessage string

	Method string
	Path   string
}

func (e *APIError) Error() string {
	if e.ServerMessage != "" {
		return fmt.Sprintf("messaging: %s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, e.Message, e.ServerMessage)
	}
	return fmt.Sprintf("messaging: %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// ClassifyStatus maps an HTTP status to the short message shown to
// the user.
func ClassifyStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid input"
	case http.StatusUnauthorized:
		return "Not signed in or session expired"
	case http.StatusForbidden:
		return "You do not have permission"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusMethodNotAllowed:
		return "Operation not supported"
	default:
		return "Request failed"
	}
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}
	return false
}

// IsUnauthorized reports whether err means the token is missing,
// expired, or revoked.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// UserMessage returns a short description of err suitable for a
// notification. API errors use their classification, with the
// server's text appended when present; cancellations and transport
// failures get fixed wording.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		if apiErr.ServerMessage != "" && apiErr.ServerMessage != apiErr.Message {
			return apiErr.Message + ": " + apiErr.ServerMessage
		}
		return apiErr.Message
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out"
	default:
		return "Network error"
	}
}

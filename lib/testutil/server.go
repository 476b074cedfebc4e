// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns "prefix-N" with N increasing across the test
// binary, for message and conversation identifiers that must not
// collide between subtests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}

// WriteEnvelope writes the backend's success envelope,
// {"success": true, "data": data}, with the given status.
func WriteEnvelope(writer http.ResponseWriter, status int, data any) {
	WriteJSON(writer, status, map[string]any{"success": true, "data": data})
}

// WriteJSON writes value as a JSON response body with the given status.
func WriteJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(value)
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"encoding/json"
	"strings"
)

// unwrapEnvelope strips the response envelope. A top-level object
// with a "data" key yields that value, recursively; otherwise the
// first of listKeys present in the object is returned. Anything else
// is returned as-is.
func unwrapEnvelope(body []byte, listKeys ...string) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return trimmed
	}
	if data, ok := fields["data"]; ok {
		return unwrapEnvelope(data, listKeys...)
	}
	for _, key := range listKeys {
		if value, ok := fields[key]; ok {
			return bytes.TrimSpace(value)
		}
	}
	return trimmed
}

// decodeList decodes a list response. Any body that does not contain
// a JSON array (after unwrapping) yields an empty list and ok=false.
func decodeList[T any](body []byte, listKeys ...string) ([]T, bool) {
	raw := unwrapEnvelope(body, listKeys...)
	if len(raw) == 0 || raw[0] != '[' {
		return []T{}, isNull(raw)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return []T{}, false
	}
	if items == nil {
		items = []T{}
	}
	return items, true
}

func isNull(raw []byte) bool {
	return string(raw) == "null"
}

// envelopeFailure reports a 2xx envelope that nonetheless says
// success:false, returning the server's message.
func envelopeFailure(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var envelope struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return "", false
	}
	if envelope.Success == nil || *envelope.Success {
		return "", false
	}
	return serverMessage(trimmed), true
}

// serverMessage extracts the human-readable text from an error body:
// the "error" or "message" field of a JSON object, or the trimmed body
// itself when it is not JSON.
func serverMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	var fields struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &fields) == nil {
		var text string
		if json.Unmarshal(fields.Error, &text) == nil && text != "" {
			return text
		}
		return fields.Message
	}
	return strings.TrimSpace(string(trimmed))
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var jsonNull = []byte("null")

// isNull reports whether data is empty or the JSON literal null.
func isNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull)
}

// OptionalString is a nullable string column. It decodes a bare JSON
// string, null, or the {"String": "...", "Valid": bool} object that
// database/sql.NullString produces. Absent and invalid values decode
// to the empty string.
type OptionalString string

// UnmarshalJSON implements json.Unmarshaler.
func (value *OptionalString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		*value = ""
		return nil
	}
	switch data[0] {
	case '"':
		var decoded string
		if err := json.Unmarshal(data, &decoded); err != nil {
			return err
		}
		*value = OptionalString(decoded)
		return nil
	case '{':
		var wrapped struct {
			String string `json:"String"`
			Valid  bool   `json:"Valid"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		if !wrapped.Valid {
			*value = ""
			return nil
		}
		*value = OptionalString(wrapped.String)
		return nil
	default:
		// Numbers and booleans show up in hand-written fixtures; keep
		// their literal text.
		*value = OptionalString(data)
		return nil
	}
}

// String returns the value as a plain string.
func (value OptionalString) String() string { return string(value) }

// OptionalInt is a nullable integer column. Zero means absent: every
// nullable integer the backend emits is a positive database key.
type OptionalInt int64

// UnmarshalJSON implements json.Unmarshaler. Accepts a number, a
// numeric string, null, or the {"Int64": n, "Valid": bool} object
// produced by database/sql.NullInt64.
func (value *OptionalInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		*value = 0
		return nil
	}
	switch data[0] {
	case '{':
		var wrapped struct {
			Int64 int64 `json:"Int64"`
			Valid bool  `json:"Valid"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		if !wrapped.Valid {
			*value = 0
			return nil
		}
		*value = OptionalInt(wrapped.Int64)
		return nil
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		if text == "" {
			*value = 0
			return nil
		}
		parsed, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return fmt.Errorf("chat: invalid integer %q: %w", text, err)
		}
		*value = OptionalInt(parsed)
		return nil
	default:
		var number json.Number
		if err := json.Unmarshal(data, &number); err != nil {
			return err
		}
		parsed, err := number.Int64()
		if err != nil {
			return fmt.Errorf("chat: invalid integer %s: %w", number, err)
		}
		*value = OptionalInt(parsed)
		return nil
	}
}

// OptionalTime is a nullable timestamp column.
type OptionalTime struct {
	Time  time.Time
	Valid bool
}

// SomeTime returns a valid OptionalTime holding t.
func SomeTime(t time.Time) OptionalTime {
	return OptionalTime{Time: t, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler. Accepts an RFC 3339
// string, null, or the {"Time": "...", "Valid": bool} object produced
// by database/sql.NullTime.
func (value *OptionalTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		*value = OptionalTime{}
		return nil
	}
	if data[0] == '{' {
		var wrapped struct {
			Time  time.Time `json:"Time"`
			Valid bool      `json:"Valid"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		*value = OptionalTime{Time: wrapped.Time, Valid: wrapped.Valid}
		return nil
	}
	var parsed time.Time
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	*value = OptionalTime{Time: parsed, Valid: !parsed.IsZero()}
	return nil
}

// MarshalJSON implements json.Marshaler. Invalid values encode as null.
func (value OptionalTime) MarshalJSON() ([]byte, error) {
	if !value.Valid {
		return jsonNull, nil
	}
	return json.Marshal(value.Time)
}

// Flag is a boolean column the backend stores as an integer. Decodes
// from 0/1, true/false, or their string forms.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (flag *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		*flag = false
		return nil
	}
	text := strings.Trim(string(data), `"`)
	switch strings.ToLower(text) {
	case "", "0", "false":
		*flag = false
	case "1", "true":
		*flag = true
	default:
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("chat: invalid flag %s", data)
		}
		*flag = parsed != 0
	}
	return nil
}

// Blob is a jsonb column. The backend holds these as byte slices, so
// encoding/json emits them as base64 strings; older endpoints and the
// push server forward the raw JSON object instead. Blob accepts both
// and always holds the decoded JSON text. A value that is neither
// valid base64-of-JSON nor JSON decodes to nil rather than failing the
// enclosing object.
type Blob []byte

// UnmarshalJSON implements json.Unmarshaler.
func (blob *Blob) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		*blob = nil
		return nil
	}
	if data[0] != '"' {
		*blob = append(Blob(nil), data...)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	if text == "" {
		*blob = nil
		return nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(text); err == nil && json.Valid(decoded) {
		*blob = Blob(decoded)
		return nil
	}
	if json.Valid([]byte(text)) {
		*blob = Blob(text)
		return nil
	}
	*blob = nil
	return nil
}

// MarshalJSON implements json.Marshaler. The blob is emitted as its
// raw JSON text, not base64.
func (blob Blob) MarshalJSON() ([]byte, error) {
	if len(blob) == 0 || !json.Valid(blob) {
		return jsonNull, nil
	}
	return []byte(blob), nil
}

// Attachments is a list of attachment references (URLs or server
// paths). Decodes a JSON array, null, or a Postgres array literal
// such as {a.png,"b c.png"} carried in a string.
type Attachments []string

// UnmarshalJSON implements json.Unmarshaler.
func (attachments *Attachments) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		*attachments = nil
		return nil
	}
	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*attachments = list
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("chat: attachments must be an array or string: %w", err)
	}
	*attachments = parseArrayLiteral(text)
	return nil
}

// parseArrayLiteral splits a Postgres text[] literal. A string that
// is itself a JSON array is decoded as one.
func parseArrayLiteral(text string) Attachments {
	text = strings.TrimSpace(text)
	if text == "" || text == "{}" {
		return nil
	}
	if strings.HasPrefix(text, "[") {
		var list []string
		if err := json.Unmarshal([]byte(text), &list); err == nil {
			return list
		}
	}
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return Attachments{text}
	}
	body := text[1 : len(text)-1]

	var result Attachments
	var current strings.Builder
	inQuotes := false
	escaped := false
	for _, character := range body {
		switch {
		case escaped:
			current.WriteRune(character)
			escaped = false
		case character == '\\':
			escaped = true
		case character == '"':
			inQuotes = !inQuotes
		case character == ',' && !inQuotes:
			result = append(result, current.String())
			current.Reset()
		default:
			current.WriteRune(character)
		}
	}
	result = append(result, current.String())
	return result
}

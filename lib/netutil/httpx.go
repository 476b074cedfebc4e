// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small HTTP and WebSocket helpers shared by the
// REST and push clients.
//
// ReadResponse bounds JSON response reads at MaxResponseSize.
// Attachment downloads stream with io.Copy instead.
//
// CloseCode and IsExpectedCloseError classify how a connection ended,
// which decides whether the push client reconnects.
package netutil

import (
	"errors"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON API response reads: 64 MB. A long
// conversation history is a few megabytes; the bound exists only so a
// misbehaving server cannot exhaust memory.
const MaxResponseSize int64 = 64 << 20

// ErrResponseTooLarge reports a response body longer than
// MaxResponseSize.
var ErrResponseTooLarge = errors.New("netutil: response body too large")

// ReadResponse reads a JSON API response body up to MaxResponseSize.
// A longer body fails with ErrResponseTooLarge; the first
// MaxResponseSize bytes are returned alongside the error.
func ReadResponse(body io.Reader) ([]byte, error) {
	return readBounded(body, MaxResponseSize)
}

func readBounded(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return data, err
	}
	if int64(len(data)) > limit {
		return data[:limit], fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, limit)
	}
	return data, nil
}

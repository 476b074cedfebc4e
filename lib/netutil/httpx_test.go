// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/gorilla/websocket"
)

type failReader struct{}

func (failReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("simulated read failure")
}

func TestReadResponse(t *testing.T) {
	t.Run("normal body", func(t *testing.T) {
		data, err := ReadResponse(strings.NewReader(`{"success":true}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"success":true}` {
			t.Fatalf("got %q", data)
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		if _, err := ReadResponse(failReader{}); err == nil {
			t.Fatal("expected error from failing reader")
		}
	})
}

func TestReadResponseIsBounded(t *testing.T) {
	data, err := readBounded(io.LimitReader(zeros{}, 16), 16)
	if err != nil {
		t.Fatalf("body at the limit: %v", err)
	}
	if len(data) != 16 {
		t.Fatalf("read %d bytes, want 16", len(data))
	}

	data, err = readBounded(io.LimitReader(zeros{}, 17), 16)
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("body past the limit: err = %v, want ErrResponseTooLarge", err)
	}
	if len(data) != 16 {
		t.Errorf("returned %d bytes, want the first 16", len(data))
	}
}

type zeros struct{}

func (zeros) Read(buffer []byte) (int, error) {
	clear(buffer)
	return len(buffer), nil
}

func TestCloseClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		code  int
		clean bool
	}{
		{"normal closure", &websocket.CloseError{Code: websocket.CloseNormalClosure}, 1000, true},
		{"wrapped normal closure", fmt.Errorf("push: read: %w", &websocket.CloseError{Code: 1000}), 1000, true},
		{"going away", &websocket.CloseError{Code: websocket.CloseGoingAway}, 1001, false},
		{"reset without frame", syscall.ECONNRESET, 1006, false},
		{"unexpected EOF", io.ErrUnexpectedEOF, 1006, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := CloseCode(test.err); got != test.code {
				t.Errorf("CloseCode = %d, want %d", got, test.code)
			}
			if got := IsCleanClose(test.err); got != test.clean {
				t.Errorf("IsCleanClose = %v, want %v", got, test.clean)
			}
		})
	}
}

func TestIsExpectedCloseError(t *testing.T) {
	for _, err := range []error{io.EOF, net.ErrClosed, syscall.EPIPE, fmt.Errorf("wrapped: %w", syscall.ECONNRESET)} {
		if !IsExpectedCloseError(err) {
			t.Errorf("IsExpectedCloseError(%v) = false", err)
		}
	}
	for _, err := range []error{nil, errors.New("boom"), syscall.ETIMEDOUT} {
		if IsExpectedCloseError(err) {
			t.Errorf("IsExpectedCloseError(%v) = true", err)
		}
	}
}

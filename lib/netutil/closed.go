// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/gorilla/websocket"
)

// IsExpectedCloseError reports whether err is ordinary teardown noise:
// EOF, a closed connection, a broken pipe, or a reset. A read loop
// that sees one of these after Close was called should not log it as
// a failure.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}

// CloseCode returns the WebSocket close code carried by err. Errors
// without a close frame (dial failures, resets, timeouts) report
// websocket.CloseAbnormalClosure (1006), matching what a browser
// reports for a connection that dropped without a handshake.
func CloseCode(err error) int {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code
	}
	return websocket.CloseAbnormalClosure
}

// IsCleanClose reports whether err is a normal-closure (1000) close
// frame. Only a clean close suppresses reconnection.
func IsCleanClose(err error) bool {
	return CloseCode(err) == websocket.CloseNormalClosure
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package push maintains the WebSocket connection to the chat backend
// and turns its frames into typed events.
//
// Every frame, inbound or outbound, is a JSON object {type, data}.
// [DecodeFrame] maps the type discriminator onto one of a closed set
// of [Event] structs; consumers type-switch over the result. Frames
// with unknown types are logged and dropped by [Client].
//
// The client reconnects on its own after an abnormal closure, waiting
// failures × ReconnectDelay before each attempt. After
// MaxReconnectAttempts consecutive failures it stops and fires the
// give-up listeners once. A normal closure (code 1000) or a call to
// [Client.Close] ends the connection for good.
package push

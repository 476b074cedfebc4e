// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is the REST client for the chat backend.
//
// [Client] is unauthenticated: it holds the server base URL and HTTP
// transport and performs [Client.Login]. Login (or
// [Client.SessionFromToken] for a stored token) yields a
// [DirectSession], which implements [Session]: every chat, message,
// queue, and file operation the client performs. Code that only needs
// the operations should depend on the Session interface so tests can
// substitute a fake.
//
// Every request carries the bearer token and a fresh X-Request-ID, and
// is attempted exactly once. Response bodies are normalized across the
// envelope shapes the backend has used over time: {data: ...},
// {success, data}, {chats: ...}, {threads: ...}, {messages: ...}, and
// bare values. List endpoints answer a malformed body with an empty
// list; single-entity endpoints return an error.
//
// Non-2xx responses become [*APIError] carrying both the server's
// message and a short user-facing classification of the status code.
// [IsStatus] and [UserMessage] cover the common checks.
package messaging

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat defines the wire types exchanged with the chat backend:
// conversations (the server calls them chats), messages, queue
// entries, and users.
//
// The backend serializes several columns in database-driver shapes
// rather than plain JSON: nullable columns arrive either bare or as
// {"String": ..., "Valid": ...} wrappers, jsonb columns arrive as
// base64-encoded byte strings, and array columns may arrive as
// Postgres array literals. The Optional*, Blob, Flag, and Attachments
// types absorb those variations at decode time so the rest of the
// client works with ordinary Go values.
//
// A conversation's UUID is its only server-facing identity. The
// numeric ID is a local list key and is never used to address the
// server.
package chat

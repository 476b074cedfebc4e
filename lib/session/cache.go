// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/bureau-foundation/chatdesk/lib/codec"
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
)

const chatCacheFormat = 1

type chatCacheFile struct {
	Format  int                 `json:"format"`
	Server  string              `json:"server"`
	SavedAt time.Time           `json:"savedAt"`
	Chats   []chat.Conversation `json:"chats"`
}

// ChatCache holds the last conversation list fetched from a server,
// so the sidebar has content while the live list loads. The file is
// CBOR, zstd-compressed.
type ChatCache struct {
	Path string
}

// Save replaces the cached list for server.
func (cache ChatCache) Save(server string, chats []chat.Conversation, savedAt time.Time) error {
	encoded, err := codec.MarshalCompressed(chatCacheFile{
		Format:  chatCacheFormat,
		Server:  server,
		SavedAt: savedAt,
		Chats:   chats,
	})
	if err != nil {
		return fmt.Errorf("session: encoding chat cache: %w", err)
	}
	if err := writeFileAtomic(cache.Path, encoded, 0600); err != nil {
		return fmt.Errorf("session: saving chat cache: %w", err)
	}
	return nil
}

// Load returns the cached list for server. A missing cache, one
// written for another server, or one in an older format yields nil
// without error.
func (cache ChatCache) Load(server string) ([]chat.Conversation, error) {
	content, err := os.ReadFile(cache.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: reading chat cache: %w", err)
	}

	var file chatCacheFile
	if err := codec.UnmarshalCompressed(content, &file); err != nil {
		return nil, fmt.Errorf("session: decoding chat cache %s: %w", cache.Path, err)
	}
	if file.Format != chatCacheFormat || file.Server != server {
		return nil, nil
	}
	return file.Chats, nil
}

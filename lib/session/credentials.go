// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
	"github.com/bureau-foundation/chatdesk/lib/sealed"
)

// ErrNoCredentials is returned by LoadCredentials when nobody is
// signed in.
var ErrNoCredentials = errors.New("session: not signed in")

// ErrPassphraseRequired is returned by LoadCredentials for an
// encrypted credentials file when no passphrase was given.
var ErrPassphraseRequired = errors.New("session: credentials are encrypted; a passphrase is required")

// Credentials is a saved sign-in.
type Credentials struct {
	Server  string    `json:"server"`
	Token   string    `json:"token"`
	User    chat.User `json:"user"`
	SavedAt time.Time `json:"savedAt"`
}

// CredentialStore reads and writes the credentials file. With a
// Passphrase the file is age-encrypted (scrypt); without one it is
// plain JSON. The file is always mode 0600.
type CredentialStore struct {
	Path       string
	Passphrase string
	// WorkFactor is the scrypt work factor; zero uses age's default.
	WorkFactor int
}

// Save writes credentials.
func (store CredentialStore) Save(credentials Credentials) error {
	encoded, err := json.MarshalIndent(credentials, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encoding credentials: %w", err)
	}
	if store.Passphrase != "" {
		encoded, err = sealed.Seal(encoded, store.Passphrase, store.WorkFactor)
		if err != nil {
			return fmt.Errorf("session: encrypting credentials: %w", err)
		}
	}
	if err := writeFileAtomic(store.Path, encoded, 0600); err != nil {
		return fmt.Errorf("session: saving credentials: %w", err)
	}
	return nil
}

// Load reads credentials. It returns ErrNoCredentials when the file
// does not exist and ErrPassphraseRequired when it is encrypted and
// no passphrase is set.
func (store CredentialStore) Load() (*Credentials, error) {
	content, err := os.ReadFile(store.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("session: reading credentials: %w", err)
	}

	if sealed.IsSealed(content) {
		if store.Passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		content, err = sealed.Open(content, store.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("session: decrypting credentials: %w", err)
		}
	}

	var credentials Credentials
	if err := json.Unmarshal(content, &credentials); err != nil {
		return nil, fmt.Errorf("session: parsing credentials %s: %w", store.Path, err)
	}
	if credentials.Token == "" {
		return nil, ErrNoCredentials
	}
	return &credentials, nil
}

// Delete removes the credentials file. Deleting absent credentials is
// not an error.
func (store CredentialStore) Delete() error {
	if err := os.Remove(store.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: removing credentials: %w", err)
	}
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

// User is an account on the chat backend.
type User struct {
	ID             int            `json:"id"`
	UID            string         `json:"uid"`
	Name           string         `json:"name"`
	Nickname       OptionalString `json:"nickname,omitempty"`
	ProfilePicture OptionalString `json:"profilePicture,omitempty"`
	Role           string         `json:"role"`
}

// DisplayName prefers the nickname, then the name, then the login UID.
func (user User) DisplayName() string {
	switch {
	case user.Nickname != "":
		return string(user.Nickname)
	case user.Name != "":
		return user.Name
	default:
		return user.UID
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the key bindings of the chat client. Bindings that act
// on a message apply to the message under the cursor in the message
// pane.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	FocusToggle key.Binding
	Open        key.Binding
	Escape      key.Binding

	PageChats key.Binding
	PageQueue key.Binding

	Compose key.Binding
	Filter  key.Binding
	Search  key.Binding

	Reply    key.Binding
	Edit     key.Binding
	Delete   key.Binding
	React    key.Binding
	Download key.Binding

	NewChat     key.Binding
	RequestType key.Binding
	Status      key.Binding
	AssignToMe  key.Binding
	DeleteChat  key.Binding

	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap pairs vim-style keys with arrows and page keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	FocusToggle: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "switch pane"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "open"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
	PageChats: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "chats"),
	),
	PageQueue: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "queue"),
	),
	Compose: key.NewBinding(
		key.WithKeys("i", "c"),
		key.WithHelp("i", "write"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Search: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "search"),
	),
	Reply: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reply"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	React: key.NewBinding(
		key.WithKeys("+"),
		key.WithHelp("+", "react"),
	),
	Download: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "save attachment"),
	),
	NewChat: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new chat"),
	),
	RequestType: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "request type"),
	),
	Status: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "status"),
	),
	AssignToMe: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "take"),
	),
	DeleteChat: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "delete chat"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("C-r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

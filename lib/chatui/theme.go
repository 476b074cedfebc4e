// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/chatdesk/lib/chatstate"
	"github.com/bureau-foundation/chatdesk/lib/desk"
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
)

// Theme is the color palette of the chat client. All colors are ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Queue status colors.
	StatusPending  lipgloss.Color
	StatusActive   lipgloss.Color
	StatusWaiting  lipgloss.Color
	StatusHold     lipgloss.Color
	StatusComplete lipgloss.Color
	StatusCancel   lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	AuthorForeground lipgloss.Color
	OwnForeground    lipgloss.Color

	// FreshBackground tints messages that just arrived.
	FreshBackground lipgloss.Color

	SearchHighlightBackground lipgloss.Color
	LinkForeground            lipgloss.Color

	OverlayForeground lipgloss.Color
	OverlayBackground lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

// StatusColor returns the color for a queue status, FaintText for an
// unknown one.
func (theme Theme) StatusColor(status chat.QueueStatus) lipgloss.Color {
	switch status {
	case chat.StatusPending:
		return theme.StatusPending
	case chat.StatusAccepted:
		return theme.StatusActive
	case chat.StatusWaitDimension, chat.StatusWaitFeedback, chat.StatusWaitQA:
		return theme.StatusWaiting
	case chat.StatusHold:
		return theme.StatusHold
	case chat.StatusCompleted:
		return theme.StatusComplete
	case chat.StatusCancel:
		return theme.StatusCancel
	default:
		return theme.FaintText
	}
}

// ConnectionColor returns the indicator color for a push connection
// state.
func (theme Theme) ConnectionColor(connection chatstate.Connection) lipgloss.Color {
	switch {
	case connection.Status == chatstate.Connected:
		return theme.Success
	case connection.GaveUp:
		return theme.Error
	case connection.Status == chatstate.Disconnected:
		return theme.FaintText
	default:
		return theme.Warning
	}
}

// LevelColor returns the status bar color for a notification level.
func (theme Theme) LevelColor(level desk.Level) lipgloss.Color {
	switch level {
	case desk.LevelSuccess:
		return theme.Success
	case desk.LevelWarning:
		return theme.Warning
	case desk.LevelError:
		return theme.Error
	default:
		return theme.NormalText
	}
}

// DefaultTheme is the built-in scheme for dark 256-color terminals.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusPending:  lipgloss.Color("75"),  // blue
	StatusActive:   lipgloss.Color("114"), // green
	StatusWaiting:  lipgloss.Color("220"), // amber
	StatusHold:     lipgloss.Color("141"), // light purple
	StatusComplete: lipgloss.Color("245"), // gray
	StatusCancel:   lipgloss.Color("196"), // red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	AuthorForeground: lipgloss.Color("117"),
	OwnForeground:    lipgloss.Color("150"),

	FreshBackground: lipgloss.Color("58"),

	SearchHighlightBackground: lipgloss.Color("58"),
	LinkForeground:            lipgloss.Color("75"),

	OverlayForeground: lipgloss.Color("252"),
	OverlayBackground: lipgloss.Color("237"),

	Success: lipgloss.Color("114"),
	Warning: lipgloss.Color("220"),
	Error:   lipgloss.Color("196"),
}

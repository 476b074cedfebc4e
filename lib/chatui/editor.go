// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// lineEditor is a single-line rune buffer with a cursor. It handles
// editing keys only; enter and escape are left to the caller.
type lineEditor struct {
	buffer []rune
	cursor int
}

func (editor *lineEditor) Value() string { return string(editor.buffer) }

func (editor *lineEditor) Empty() bool { return len(editor.buffer) == 0 }

// Set replaces the content and moves the cursor to the end.
func (editor *lineEditor) Set(value string) {
	editor.buffer = []rune(value)
	editor.cursor = len(editor.buffer)
}

func (editor *lineEditor) Reset() {
	editor.buffer = nil
	editor.cursor = 0
}

// HandleKey applies an editing key and reports whether the content
// changed.
func (editor *lineEditor) HandleKey(message tea.KeyMsg) bool {
	switch message.Type {
	case tea.KeyBackspace:
		if editor.cursor == 0 {
			return false
		}
		editor.buffer = append(editor.buffer[:editor.cursor-1], editor.buffer[editor.cursor:]...)
		editor.cursor--
		return true

	case tea.KeyDelete:
		if editor.cursor >= len(editor.buffer) {
			return false
		}
		editor.buffer = append(editor.buffer[:editor.cursor], editor.buffer[editor.cursor+1:]...)
		return true

	case tea.KeyCtrlW:
		if editor.cursor == 0 {
			return false
		}
		start := editor.cursor
		for start > 0 && editor.buffer[start-1] == ' ' {
			start--
		}
		for start > 0 && editor.buffer[start-1] != ' ' {
			start--
		}
		editor.buffer = append(editor.buffer[:start], editor.buffer[editor.cursor:]...)
		editor.cursor = start
		return true

	case tea.KeyCtrlU:
		if editor.cursor == 0 {
			return false
		}
		editor.buffer = append([]rune(nil), editor.buffer[editor.cursor:]...)
		editor.cursor = 0
		return true

	case tea.KeyLeft:
		if editor.cursor > 0 {
			editor.cursor--
		}
	case tea.KeyRight:
		if editor.cursor < len(editor.buffer) {
			editor.cursor++
		}
	case tea.KeyHome, tea.KeyCtrlA:
		editor.cursor = 0
	case tea.KeyEnd, tea.KeyCtrlE:
		editor.cursor = len(editor.buffer)

	case tea.KeyRunes, tea.KeySpace:
		runes := message.Runes
		if message.Type == tea.KeySpace {
			runes = []rune{' '}
		}
		for _, character := range runes {
			editor.buffer = append(editor.buffer, 0)
			copy(editor.buffer[editor.cursor+1:], editor.buffer[editor.cursor:])
			editor.buffer[editor.cursor] = character
			editor.cursor++
		}
		return len(runes) > 0
	}
	return false
}

// View renders prompt and content with a block cursor, keeping the
// cursor inside width by scrolling the text horizontally.
func (editor *lineEditor) View(theme Theme, prompt string, width int, focused bool) string {
	promptStyle := lipgloss.NewStyle().Foreground(theme.FaintText)
	textStyle := lipgloss.NewStyle().Foreground(theme.NormalText)

	before := string(editor.buffer[:editor.cursor])
	after := string(editor.buffer[editor.cursor:])

	available := width - ansi.StringWidth(prompt) - 1
	if available < 1 {
		available = 1
	}
	if ansi.StringWidth(before) > available {
		before = ansi.TruncateLeft(before, ansi.StringWidth(before)-available, "")
	}

	cursor := ""
	if focused {
		cursor = lipgloss.NewStyle().Foreground(theme.HeaderForeground).Bold(true).Render("▎")
	}
	line := promptStyle.Render(prompt) + textStyle.Render(before) + cursor + textStyle.Render(after)
	return ansi.Truncate(line, width, "")
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// DropdownOption is one choice in a dropdown.
type DropdownOption struct {
	Label string
	Value string
}

// dropdownField names what a dropdown changes.
type dropdownField int

const (
	fieldStatus dropdownField = iota
	fieldReaction
)

// DropdownOverlay is a floating menu anchored at a screen position.
// While open it takes all keyboard input.
type DropdownOverlay struct {
	Options []DropdownOption
	Cursor  int
	AnchorX int
	AnchorY int
	Field   dropdownField
	// Target is the conversation uuid or message id being changed.
	Target string
}

func (dropdown *DropdownOverlay) MoveUp() {
	dropdown.Cursor--
	if dropdown.Cursor < 0 {
		dropdown.Cursor = len(dropdown.Options) - 1
	}
}

func (dropdown *DropdownOverlay) MoveDown() {
	dropdown.Cursor++
	if dropdown.Cursor >= len(dropdown.Options) {
		dropdown.Cursor = 0
	}
}

// Selected returns the highlighted option.
func (dropdown *DropdownOverlay) Selected() DropdownOption {
	return dropdown.Options[dropdown.Cursor]
}

// Width is the rendered width in columns: a marker column, the widest
// label, and one column of padding per side.
func (dropdown *DropdownOverlay) Width() int {
	widest := 0
	for _, option := range dropdown.Options {
		widest = max(widest, ansi.StringWidth(option.Label))
	}
	return 3 + widest + 2
}

// Render returns the dropdown's lines, all of equal visible width.
func (dropdown *DropdownOverlay) Render(theme Theme) []string {
	width := dropdown.Width()
	normal := lipgloss.NewStyle().Background(theme.OverlayBackground).Foreground(theme.OverlayForeground)
	selected := lipgloss.NewStyle().Background(theme.SelectedBackground).Foreground(theme.SelectedForeground)

	lines := make([]string, 0, len(dropdown.Options))
	for index, option := range dropdown.Options {
		style, marker := normal, " "
		if index == dropdown.Cursor {
			style, marker = selected, ">"
		}
		content := " " + marker + " " + option.Label
		padding := max(width-ansi.StringWidth(content), 0)
		lines = append(lines, style.Render(content+strings.Repeat(" ", padding)))
	}
	return lines
}

// SpliceOverlay draws overlay lines over view with their top-left
// corner at (anchorX, anchorY), preserving escape sequences on both
// sides.
func SpliceOverlay(view string, overlayLines []string, anchorX, anchorY int) string {
	if len(overlayLines) == 0 {
		return view
	}
	viewLines := strings.Split(view, "\n")
	overlayWidth := ansi.StringWidth(overlayLines[0])

	for index, overlayLine := range overlayLines {
		row := anchorY + index
		if row < 0 || row >= len(viewLines) {
			continue
		}
		line := viewLines[row]
		var result strings.Builder
		if anchorX > 0 {
			prefix := ansi.Truncate(line, anchorX, "")
			result.WriteString(prefix)
			if gap := anchorX - ansi.StringWidth(prefix); gap > 0 {
				result.WriteString(strings.Repeat(" ", gap))
			}
		}
		result.WriteString("\x1b[0m")
		result.WriteString(overlayLine)
		result.WriteString("\x1b[0m")
		if suffixStart := anchorX + overlayWidth; suffixStart < ansi.StringWidth(line) {
			result.WriteString(ansi.TruncateLeft(line, suffixStart, ""))
		}
		viewLines[row] = result.String()
	}
	return strings.Join(viewLines, "\n")
}

// RenderScrollbar draws a one-column scrollbar of height rows whose
// thumb shows the visible window within total lines.
func RenderScrollbar(theme Theme, height, total, visible, offset int, focused bool) string {
	if height <= 0 {
		return ""
	}
	thumbColor := theme.BorderColor
	if focused {
		thumbColor = theme.StatusWaiting
	}
	track := lipgloss.NewStyle().Foreground(theme.BorderColor).Render("│")
	thumb := lipgloss.NewStyle().Foreground(thumbColor).Render("┃")

	lines := make([]string, height)
	if total <= visible || total <= 0 {
		for index := range lines {
			lines[index] = thumb
		}
		return strings.Join(lines, "\n")
	}

	thumbSize := max(height*visible/total, 1)
	thumbOffset := 0
	if scrollable, trackRange := total-visible, height-thumbSize; scrollable > 0 && trackRange > 0 {
		thumbOffset = min(offset*trackRange/scrollable, trackRange)
	}
	for index := range lines {
		if index >= thumbOffset && index < thumbOffset+thumbSize {
			lines[index] = thumb
		} else {
			lines[index] = track
		}
	}
	return strings.Join(lines, "\n")
}

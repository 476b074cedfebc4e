// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/chatdesk/lib/chatstate"
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
	"github.com/bureau-foundation/chatdesk/lib/transfer"
)

// Layout: a header row, the content area, a separator, the composer
// (chats page only), and the status bar.
const (
	headerHeight    = 1
	separatorHeight = 1
	statusHeight    = 1
)

func (model Model) composerHeight() int {
	if model.state.Page == chatstate.PageQueue {
		return 0
	}
	if model.editingID != "" || model.state.ReplyDraft != nil {
		return 2
	}
	return 1
}

// contentHeight is the number of rows shared by the list and message
// panes.
func (model Model) contentHeight() int {
	return max(model.height-headerHeight-separatorHeight-statusHeight-model.composerHeight(), 1)
}

func (model Model) listWidth() int {
	if model.width < 60 {
		return max(model.width/2, 1)
	}
	return clamp(model.width/3, 24, 48)
}

// messagePaneWidth excludes the divider column.
func (model Model) messagePaneWidth() int {
	return max(model.width-model.listWidth()-1, 1)
}

// layout resizes the message viewport and rerenders its content.
func (model *Model) layout() {
	// One column for the scrollbar, one row for the pane title.
	model.viewport.Width = max(model.messagePaneWidth()-1, 1)
	model.viewport.Height = max(model.contentHeight()-1, 1)
	model.ensureListVisible()
	model.renderMessages()
}

// renderMessages rebuilds the viewport content and keeps the message
// cursor in view.
func (model *Model) renderMessages() {
	if !model.ready {
		return
	}
	messages := model.displayed()
	cursor := model.cursorIndex()
	width := model.viewport.Width

	model.messageStarts = model.messageStarts[:0]
	var lines []string
	for index, message := range messages {
		model.messageStarts = append(model.messageStarts, len(lines))
		block := model.renderMessage(message, width, index == cursor && model.focus != FocusList)
		lines = append(lines, strings.Split(block, "\n")...)
		lines = append(lines, "")
	}
	model.viewport.SetContent(strings.Join(lines, "\n"))

	switch {
	case model.followTail:
		model.viewport.GotoBottom()
	case cursor >= 0:
		start := model.messageStarts[cursor]
		end := len(lines)
		if cursor+1 < len(model.messageStarts) {
			end = model.messageStarts[cursor+1]
		}
		if start < model.viewport.YOffset {
			model.viewport.SetYOffset(start)
		} else if end > model.viewport.YOffset+model.viewport.Height {
			model.viewport.SetYOffset(min(start, end-model.viewport.Height))
		}
	}
}

// renderMessage renders one message with a one-column gutter that
// marks the cursor.
func (model Model) renderMessage(message chat.Message, width int, cursor bool) string {
	theme := model.theme
	bodyWidth := max(width-2, 10)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.AuthorForeground)
	if model.user != nil && message.UserID == model.user.ID {
		authorStyle = authorStyle.Foreground(theme.OwnForeground)
	}
	header := authorStyle.Render(message.UserName) + " " + faint.Render(formatTimestamp(message.CreatedAt))
	if message.Edited() {
		header += faint.Render(" (edited)")
	}
	if model.state.IsDeleting(message.MessageID) {
		header += lipgloss.NewStyle().Foreground(theme.Warning).Render(" deleting…")
	}
	if model.state.IsFresh(message.MessageID) {
		header = lipgloss.NewStyle().Background(theme.FreshBackground).Render(header)
	}

	lines := []string{header}
	if message.ReplyTo != nil {
		quote := "↪ " + message.ReplyTo.UserName + ": " + strings.ReplaceAll(message.ReplyTo.Content, "\n", " ")
		lines = append(lines, faint.Render(ansi.Truncate(quote, bodyWidth, "…")))
	}

	if card, ok := chat.ParseQueueCard(message.Content); ok {
		text := fmt.Sprintf("✔ Ticket #%d accepted by %s", card.QueueID, card.UserName)
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.StatusActive).Render(text))
		if details := joinNonEmpty(" · ", card.CustomerName, card.JobName); details != "" {
			lines = append(lines, faint.Render("  "+details))
		}
	} else if body := renderMarkdown(message.Content, theme, bodyWidth); body != "" {
		lines = append(lines, strings.Split(body, "\n")...)
	}

	for _, attachment := range message.Attachments {
		lines = append(lines, model.renderAttachment(attachment, bodyWidth))
	}

	if emojis := message.Reactions.Emojis(); len(emojis) > 0 {
		var parts []string
		for _, emoji := range emojis {
			reaction := message.Reactions[emoji]
			part := fmt.Sprintf("%s %d", emoji, reaction.Count)
			if reaction.Active {
				part = lipgloss.NewStyle().Background(theme.SelectedBackground).Render(part)
			}
			parts = append(parts, part)
		}
		lines = append(lines, strings.Join(parts, "  "))
	}

	gutter := " "
	if cursor {
		gutter = lipgloss.NewStyle().Foreground(theme.HeaderForeground).Render("▌")
	}
	for index, line := range lines {
		lines[index] = gutter + " " + line
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderAttachment(attachment string, width int) string {
	_, name := transfer.AttachmentPath(attachment)
	if name == "" {
		name = attachment
	}
	text := "📎 " + name
	style := lipgloss.NewStyle().Foreground(model.theme.LinkForeground)
	for _, current := range model.transfers {
		if current.Key != attachment {
			continue
		}
		switch current.Status {
		case transfer.StatusActive:
			text += fmt.Sprintf(" ↓ %d%%", int(current.Fraction()*100))
		case transfer.StatusCompleted:
			text += " ✓ " + current.Path
		case transfer.StatusFailed:
			text += " ✗ failed"
			style = style.Foreground(model.theme.Error)
		}
	}
	return style.Render(ansi.Truncate(text, width, "…"))
}

func formatTimestamp(at time.Time) string {
	if at.IsZero() {
		return ""
	}
	local := at.Local()
	if now := time.Now(); local.Year() == now.Year() && local.YearDay() == now.YearDay() {
		return local.Format("15:04")
	}
	return local.Format("Jan 2 15:04")
}

func joinNonEmpty(separator string, values ...string) string {
	return strings.Join(slices.DeleteFunc(values, func(value string) bool {
		return strings.TrimSpace(value) == ""
	}), separator)
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	sections := []string{model.renderHeader()}
	if model.state.Page == chatstate.PageQueue {
		sections = append(sections, model.renderQueuePage())
	} else {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
			model.renderListPane(), model.renderDivider(), model.renderMessagePane()))
	}
	sections = append(sections, lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width)))
	if model.state.Page != chatstate.PageQueue {
		sections = append(sections, model.renderComposer())
	}
	sections = append(sections, model.renderStatusBar())

	output := strings.Join(sections, "\n")
	if model.dropdown != nil {
		output = SpliceOverlay(output, model.dropdown.Render(model.theme),
			model.dropdown.AnchorX, model.dropdown.AnchorY)
	}
	return output
}

// renderHeader shows the page tabs and connection state. An active
// prompt replaces the tabs.
func (model Model) renderHeader() string {
	theme := model.theme
	var left string
	switch model.focus {
	case FocusFilter:
		left = model.filter.View(theme, "Filter: ", model.width/2, true)
	case FocusSearch:
		left = model.search.View(theme, "Search messages: ", model.width/2, true)
	case FocusNewChat:
		left = model.newChat.View(theme, "New chat name: ", model.width/2, true)
	case FocusRequestType:
		prompt := "Request type (optional): "
		if model.requestTarget != "" {
			prompt = "Request type: "
		}
		left = model.requestType.View(theme, prompt, model.width/2, true)
	default:
		active := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Background(theme.SelectedBackground)
		inactive := lipgloss.NewStyle().Foreground(theme.FaintText)
		tabs := []struct {
			page  chatstate.Page
			label string
		}{
			{chatstate.PageChats, " 1 Chats "},
			{chatstate.PageQueue, " 2 Queue "},
		}
		for _, tab := range tabs {
			if model.state.Page == tab.page {
				left += active.Render(tab.label)
			} else {
				left += inactive.Render(tab.label)
			}
		}
		if !model.filter.Empty() {
			left += lipgloss.NewStyle().Foreground(theme.Warning).Render("  filter: " + model.filter.Value())
		}
	}

	connection := model.state.Connection
	label := connection.Status.String()
	switch {
	case connection.GaveUp:
		label = "offline, C-r to retry"
	case connection.Status == chatstate.Reconnecting:
		label = fmt.Sprintf("reconnecting (attempt %d)", connection.Attempt)
	}
	right := lipgloss.NewStyle().Foreground(theme.ConnectionColor(connection)).Render("● " + label)
	if model.state.LoadingChats {
		right = lipgloss.NewStyle().Foreground(theme.FaintText).Render("loading… ") + right
	}
	if model.user != nil {
		right += lipgloss.NewStyle().Foreground(theme.FaintText).Render("  " + model.user.DisplayName())
	}

	gap := max(model.width-ansi.StringWidth(left)-ansi.StringWidth(right), 1)
	return ansi.Truncate(left+strings.Repeat(" ", gap)+right, model.width, "")
}

func (model Model) renderListPane() string {
	theme := model.theme
	width := model.listWidth()
	height := model.contentHeight()

	rows := make([]string, 0, height)
	switch {
	case len(model.matches) == 0 && model.state.LoadingChats:
		rows = append(rows, lipgloss.NewStyle().Foreground(theme.FaintText).Render(" Loading chats…"))
	case len(model.matches) == 0 && !model.filter.Empty():
		rows = append(rows, lipgloss.NewStyle().Foreground(theme.FaintText).Render(" No matches"))
	case len(model.matches) == 0:
		rows = append(rows, lipgloss.NewStyle().Foreground(theme.FaintText).Render(" No chats. Press n to start one."))
	}

	end := min(model.listOffset+height, len(model.matches))
	for position := model.listOffset; position < end; position++ {
		match := model.matches[position]
		rows = append(rows, model.renderListRow(model.state.Chats[match.Index], match.Positions, width, position == model.listCursor))
	}
	for len(rows) < height {
		rows = append(rows, "")
	}
	return lipgloss.NewStyle().Width(width).MaxWidth(width).Render(strings.Join(rows[:height], "\n"))
}

func (model Model) renderListRow(conversation chat.Conversation, positions []int, width int, cursor bool) string {
	theme := model.theme
	status := conversation.EffectiveStatus()
	base := lipgloss.NewStyle().Foreground(theme.NormalText)
	if conversation.UUID == model.state.SelectedUUID() {
		base = base.Bold(true).Foreground(theme.HeaderForeground)
	}
	if cursor && model.focus == FocusList {
		base = base.Background(theme.SelectedBackground)
	}

	marker := " "
	if cursor {
		marker = "▌"
	}
	prefix := base.Render(marker) + base.Foreground(theme.StatusColor(status)).Render("● ")

	suffix := ""
	if _, typing := model.state.TypingIn(conversation.UUID); typing {
		suffix = base.Foreground(theme.FaintText).Render(" ✎")
	}

	nameWidth := max(width-ansi.StringWidth(prefix)-ansi.StringWidth(suffix), 1)
	name := highlightPositions(conversation.DisplayName(), positions, base,
		base.Background(theme.SearchHighlightBackground))
	name = ansi.Truncate(name, nameWidth, "…")
	padding := max(nameWidth-ansi.StringWidth(name), 0)
	return prefix + name + base.Render(strings.Repeat(" ", padding)) + suffix
}

// highlightPositions styles the runes of text at positions with
// highlight and the rest with base.
func highlightPositions(text string, positions []int, base, highlight lipgloss.Style) string {
	if len(positions) == 0 {
		return base.Render(text)
	}
	var builder strings.Builder
	next := 0
	for index, character := range []rune(text) {
		if next < len(positions) && positions[next] == index {
			builder.WriteString(highlight.Render(string(character)))
			next++
			continue
		}
		builder.WriteString(base.Render(string(character)))
	}
	return builder.String()
}

func (model Model) renderDivider() string {
	style := lipgloss.NewStyle().Foreground(model.theme.BorderColor)
	lines := make([]string, model.contentHeight())
	for index := range lines {
		lines[index] = style.Render("│")
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderMessagePane() string {
	theme := model.theme
	width := model.messagePaneWidth()
	height := model.contentHeight()
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	pane := lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height)

	selected := model.state.Selected
	if selected == nil {
		return pane.Render(faint.Render(" Select a chat with Enter"))
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render(" " + selected.DisplayName())
	status := selected.EffectiveStatus()
	title += "  " + lipgloss.NewStyle().Foreground(theme.StatusColor(status)).Render(status.Label())
	if requestType := selected.RequestType(); requestType != "" {
		title += faint.Render("  " + requestType)
	}
	switch {
	case model.searchResult != nil:
		title += lipgloss.NewStyle().Foreground(theme.Warning).Render(fmt.Sprintf(
			"  search %q: %d results (Esc to close)", model.searchResult.Query, model.searchResult.Count))
	case model.state.LoadingMessages:
		title += faint.Render("  loading…")
	}
	if typing, ok := model.state.TypingIn(selected.UUID); ok {
		title += faint.Italic(true).Render("  " + typing.UserName + " is typing…")
	}
	title = ansi.Truncate(title, width, "…")

	body := model.viewport.View()
	if len(model.displayed()) == 0 && !model.state.LoadingMessages {
		empty := " No messages yet"
		if model.searchResult != nil {
			empty = " Nothing found"
		}
		body = faint.Render(empty)
	}
	body = lipgloss.NewStyle().Width(model.viewport.Width).Height(model.viewport.Height).
		MaxHeight(model.viewport.Height).Render(body)
	scrollbar := RenderScrollbar(theme, model.viewport.Height, model.viewport.TotalLineCount(),
		model.viewport.Height, model.viewport.YOffset, model.focus == FocusMessages)

	return pane.Render(title + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, body, scrollbar))
}

func (model Model) renderComposer() string {
	theme := model.theme
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	var lines []string

	switch {
	case model.editingID != "":
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.Warning).Render("Editing message (Esc to cancel)"))
	case model.state.ReplyDraft != nil:
		reply := model.state.ReplyDraft
		banner := "↪ Replying to " + reply.UserName + ": " + strings.ReplaceAll(reply.Content, "\n", " ")
		lines = append(lines, faint.Render(ansi.Truncate(banner, model.width, "…")))
	}

	if model.state.Selected == nil {
		lines = append(lines, faint.Render("Select a chat to write a message"))
	} else {
		lines = append(lines, model.composer.View(theme, "> ", model.width, model.focus == FocusComposer))
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderStatusBar() string {
	theme := model.theme
	var left string
	switch {
	case model.confirm != nil:
		left = lipgloss.NewStyle().Bold(true).Foreground(theme.Warning).Render(model.confirm.prompt)
	case model.status != "":
		left = lipgloss.NewStyle().Foreground(theme.LevelColor(model.statusLevel)).Render(model.status)
	default:
		left = model.renderHelp()
	}

	var active []string
	for _, current := range model.transfers {
		if current.Status == transfer.StatusActive {
			active = append(active, fmt.Sprintf("↓ %s %d%%", current.Name, int(current.Fraction()*100)))
		}
	}
	right := lipgloss.NewStyle().Foreground(theme.FaintText).Render(strings.Join(active, "  "))

	gap := max(model.width-ansi.StringWidth(left)-ansi.StringWidth(right), 1)
	return ansi.Truncate(left+strings.Repeat(" ", gap)+right, model.width, "")
}

// renderHelp lists the bindings that apply to the focused region.
func (model Model) renderHelp() string {
	keys := model.keys
	var bindings []key.Binding
	switch {
	case model.state.Page == chatstate.PageQueue:
		bindings = []key.Binding{keys.Up, keys.Down, keys.Open, keys.PageChats, keys.Refresh, keys.Quit}
	case model.focus == FocusList:
		bindings = []key.Binding{keys.Open, keys.Filter, keys.NewChat, keys.RequestType, keys.Status, keys.AssignToMe,
			keys.DeleteChat, keys.FocusToggle, keys.PageQueue, keys.Quit}
	case model.focus == FocusMessages:
		bindings = []key.Binding{keys.Compose, keys.Reply, keys.Edit, keys.Delete, keys.React,
			keys.Download, keys.Search, keys.FocusToggle, keys.Quit}
	case model.focus == FocusComposer:
		return lipgloss.NewStyle().Foreground(model.theme.HelpText).Render("Enter send  Esc leave")
	case model.focus == FocusDropdown:
		bindings = []key.Binding{keys.Up, keys.Down, keys.Open, keys.Escape}
	default:
		return lipgloss.NewStyle().Foreground(model.theme.HelpText).Render("Enter confirm  Esc cancel")
	}

	keyStyle := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	descriptionStyle := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, keyStyle.Render(help.Key)+" "+descriptionStyle.Render(help.Desc))
	}
	return strings.Join(parts, "  ")
}

func (model Model) renderQueuePage() string {
	theme := model.theme
	height := model.contentHeight() + model.composerHeight()
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	rows := []string{lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render(
		fmt.Sprintf(" %-7s %-16s %-24s %-16s %-18s %s", "Ticket", "Status", "Job", "Request", "Customer", "Assigned"))}
	switch {
	case len(model.queue) == 0 && model.queueLoading:
		rows = append(rows, faint.Render(" Loading queue…"))
	case len(model.queue) == 0:
		rows = append(rows, faint.Render(" The queue is empty"))
	}

	visible := max(height-1, 1)
	offset := 0
	if model.queueCursor >= visible {
		offset = model.queueCursor - visible + 1
	}
	for index := offset; index < min(offset+visible, len(model.queue)); index++ {
		entry := model.queue[index]
		assigned := entry.AssignedToName.String()
		if assigned == "" {
			assigned = "unassigned"
		}
		line := fmt.Sprintf(" #%-6d %-16s %-24s %-16s %-18s %s",
			entry.ID,
			ansi.Truncate(entry.Status.Label(), 16, "…"),
			ansi.Truncate(entry.JobName, 24, "…"),
			ansi.Truncate(entry.RequestType, 16, "…"),
			ansi.Truncate(entry.CustomerName.String(), 18, "…"),
			assigned)
		style := lipgloss.NewStyle().Foreground(theme.StatusColor(entry.Status))
		if index == model.queueCursor {
			style = style.Background(theme.SelectedBackground).Bold(true)
		}
		rows = append(rows, style.Render(ansi.Truncate(line, model.width, "…")))
	}
	for len(rows) < height {
		rows = append(rows, "")
	}
	return strings.Join(rows[:height], "\n")
}

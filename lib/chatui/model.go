// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/chatdesk/lib/chatstate"
	"github.com/bureau-foundation/chatdesk/lib/desk"
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
	"github.com/bureau-foundation/chatdesk/lib/transfer"
	"github.com/bureau-foundation/chatdesk/messaging"
)

// FocusRegion identifies what receives keyboard input.
type FocusRegion int

const (
	// FocusList means navigation keys move the conversation cursor.
	FocusList FocusRegion = iota
	// FocusMessages means navigation keys move the message cursor.
	FocusMessages
	// FocusComposer means keystrokes edit the outgoing message.
	FocusComposer
	// FocusFilter means keystrokes edit the conversation filter.
	FocusFilter
	// FocusSearch means keystrokes edit a message search query.
	FocusSearch
	// FocusNewChat means keystrokes edit the name of a new chat.
	FocusNewChat
	// FocusRequestType means keystrokes edit a request type: the
	// second step of creating a chat, or a change to an existing one.
	FocusRequestType
	// FocusDropdown means a dropdown overlay takes all input until
	// an option is chosen or it is dismissed.
	FocusDropdown
)

// statusFadeDelay is how long a notification stays in the status bar.
const statusFadeDelay = 4 * time.Second

// reactionChoices are offered by the reaction dropdown.
var reactionChoices = []string{"👍", "❤️", "😂", "🎉", "👀", "✅"}

// stateChangedMsg signals that the store advanced.
type stateChangedMsg struct{}

// transferMsg signals that a transfer progressed.
type transferMsg struct{}

// statusFadeMsg clears the status bar unless a newer notice replaced
// the one that scheduled it.
type statusFadeMsg struct {
	sequence int
}

type searchResultMsg struct {
	result *messaging.SearchResult
}

type queueLoadedMsg struct {
	entries []chat.Queue
	failed  bool
}

// sendFailedMsg returns unsent text to the composer.
type sendFailedMsg struct {
	content   string
	editingID string
}

// confirmation is a pending destructive action awaiting "y".
type confirmation struct {
	prompt string
	run    tea.Cmd
}

// Model is the bubbletea model of the chat client. It renders the
// controller's state and turns keys into controller operations.
type Model struct {
	controller Controller
	theme      Theme
	keys       KeyMap
	user       *chat.User

	changes         <-chan struct{}
	transferUpdates <-chan transfer.Transfer
	release         []func()

	state     chatstate.State
	transfers []transfer.Transfer

	width  int
	height int
	ready  bool

	focus      FocusRegion
	priorFocus FocusRegion

	// matches are the conversations passing the filter; listCursor
	// indexes into it.
	matches    []chatMatch
	listCursor int
	listOffset int
	slab       *util.Slab

	// The message cursor is tracked by id so it survives inserts.
	// followTail keeps it on the newest message as messages arrive.
	messageCursorID string
	followTail      bool
	messageStarts   []int
	viewport        viewport.Model

	composer  lineEditor
	filter    lineEditor
	search    lineEditor
	newChat   lineEditor
	editingID string

	// requestTarget is the chat whose request type is being edited;
	// empty while creating pendingName.
	requestType   lineEditor
	requestTarget string
	pendingName   string

	searchResult *messaging.SearchResult

	dropdown *DropdownOverlay
	confirm  *confirmation

	queue        []chat.Queue
	queueCursor  int
	queueLoading bool

	status         string
	statusLevel    desk.Level
	statusSequence int
}

// NewModel returns a model driving controller on behalf of user, who
// may be nil when unknown. Call Release after the program exits.
func NewModel(controller Controller, user *chat.User) Model {
	changes, unsubscribeChanges := controller.Store().Subscribe()
	transfers, unsubscribeTransfers := controller.Transfers().Subscribe()
	model := Model{
		controller:      controller,
		theme:           DefaultTheme,
		keys:            DefaultKeyMap,
		user:            user,
		changes:         changes,
		transferUpdates: transfers,
		release:         []func(){unsubscribeChanges, unsubscribeTransfers},
		state:           controller.Store().State(),
		followTail:      true,
		slab:            util.MakeSlab(16*1024, 2048),
	}
	model.rebuildMatches(model.state.SelectedUUID())
	return model
}

// Release unsubscribes from the controller's stores.
func (model Model) Release() {
	for _, release := range model.release {
		release()
	}
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	commands := []tea.Cmd{
		listenForChanges(model.changes),
		listenForTransfers(model.transferUpdates),
	}
	if model.state.Page == chatstate.PageQueue {
		commands = append(commands, model.loadQueue())
	}
	return tea.Batch(commands...)
}

func listenForChanges(channel <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-channel; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

func listenForTransfers(channel <-chan transfer.Transfer) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-channel; !ok {
			return nil
		}
		return transferMsg{}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.layout()

	case stateChangedMsg:
		cmd := model.sync()
		return model, tea.Batch(cmd, listenForChanges(model.changes))

	case transferMsg:
		model.transfers = model.controller.Transfers().Snapshot()
		model.renderMessages()
		return model, listenForTransfers(model.transferUpdates)

	case notificationMsg:
		return model, model.setStatus(message.notification.Text, message.notification.Level)

	case logRecordMsg:
		level := desk.LevelInfo
		switch {
		case message.Level >= slog.LevelError:
			level = desk.LevelError
		case message.Level >= slog.LevelWarn:
			level = desk.LevelWarning
		}
		return model, model.setStatus(message.Summary, level)

	case statusFadeMsg:
		if message.sequence == model.statusSequence {
			model.status = ""
		}

	case searchResultMsg:
		model.searchResult = message.result
		model.messageCursorID = ""
		model.followTail = false
		if message.result != nil && len(message.result.Messages) > 0 {
			model.messageCursorID = message.result.Messages[0].MessageID
		}
		model.renderMessages()
		model.viewport.GotoTop()

	case queueLoadedMsg:
		model.queueLoading = false
		if !message.failed {
			model.queue = message.entries
		}
		model.queueCursor = clamp(model.queueCursor, 0, len(model.queue)-1)

	case sendFailedMsg:
		if model.composer.Empty() {
			model.composer.Set(message.content)
			model.editingID = message.editingID
			model.layout()
		}
	}
	return model, nil
}

// sync adopts the store's current state.
func (model *Model) sync() tea.Cmd {
	return model.applyState(model.controller.Store().State())
}

func (model *Model) applyState(next chatstate.State) tea.Cmd {
	previous := model.state
	keep := model.cursorUUID()
	model.state = next

	if keep == "" || next.ChatIndex(keep) < 0 {
		keep = next.SelectedUUID()
	}
	model.rebuildMatches(keep)

	if next.SelectedUUID() != previous.SelectedUUID() {
		model.messageCursorID = ""
		model.followTail = true
		model.searchResult = nil
		model.editingID = ""
	}
	model.layout()

	if next.Page == chatstate.PageQueue && previous.Page != chatstate.PageQueue {
		return model.loadQueue()
	}
	return nil
}

func (model *Model) setStatus(text string, level desk.Level) tea.Cmd {
	model.statusSequence++
	model.status = text
	model.statusLevel = level
	sequence := model.statusSequence
	return tea.Tick(statusFadeDelay, func(time.Time) tea.Msg {
		return statusFadeMsg{sequence: sequence}
	})
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.confirm != nil {
		pending := model.confirm
		model.confirm = nil
		if message.String() == "y" {
			return model, pending.run
		}
		return model, nil
	}

	switch model.focus {
	case FocusFilter:
		return model.handleFilterKeys(message)
	case FocusSearch:
		return model.handleSearchKeys(message)
	case FocusNewChat:
		return model.handleNewChatKeys(message)
	case FocusRequestType:
		return model.handleRequestTypeKeys(message)
	case FocusComposer:
		return model.handleComposerKeys(message)
	case FocusDropdown:
		return model.handleDropdownKeys(message)
	}

	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.PageChats):
		model.controller.SetPage(chatstate.PageChats)
		return model, model.sync()

	case key.Matches(message, model.keys.PageQueue):
		model.controller.SetPage(chatstate.PageQueue)
		return model, model.sync()

	case key.Matches(message, model.keys.Refresh):
		return model, model.refresh()
	}

	if model.state.Page == chatstate.PageQueue {
		return model.handleQueueKeys(message)
	}

	switch {
	case key.Matches(message, model.keys.FocusToggle):
		if model.focus == FocusList {
			model.focus = FocusMessages
		} else {
			model.focus = FocusList
		}
		model.renderMessages()
		return model, nil

	case key.Matches(message, model.keys.NewChat):
		model.priorFocus = model.focus
		model.focus = FocusNewChat
		model.newChat.Reset()
		return model, nil

	case key.Matches(message, model.keys.Filter):
		model.priorFocus = model.focus
		model.focus = FocusFilter
		return model, nil

	case key.Matches(message, model.keys.Compose):
		if model.state.Selected != nil {
			model.focus = FocusComposer
			model.layout()
		}
		return model, nil

	case key.Matches(message, model.keys.Search):
		if model.state.Selected != nil {
			model.priorFocus = model.focus
			model.focus = FocusSearch
			model.search.Reset()
		}
		return model, nil
	}

	if model.focus == FocusList {
		return model.handleListKeys(message)
	}
	return model.handleMessageKeys(message)
}

func (model Model) handleListKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := max(model.contentHeight()/2, 1)
	switch {
	case key.Matches(message, model.keys.Up):
		model.moveListCursor(-1)
	case key.Matches(message, model.keys.Down):
		model.moveListCursor(1)
	case key.Matches(message, model.keys.PageUp):
		model.moveListCursor(-page)
	case key.Matches(message, model.keys.PageDown):
		model.moveListCursor(page)
	case key.Matches(message, model.keys.Home):
		model.moveListCursor(-len(model.matches))
	case key.Matches(message, model.keys.End):
		model.moveListCursor(len(model.matches))

	case key.Matches(message, model.keys.Open):
		if uuid := model.cursorUUID(); uuid != "" {
			model.controller.Select(uuid)
			model.focus = FocusMessages
			return model, model.sync()
		}

	case key.Matches(message, model.keys.Escape):
		if !model.filter.Empty() {
			model.filter.Reset()
			model.rebuildMatches(model.cursorUUID())
		}

	case key.Matches(message, model.keys.RequestType):
		conversation, ok := model.cursorChat()
		if !ok {
			break
		}
		model.requestTarget = conversation.UUID
		model.requestType.Set(conversation.RequestType())
		model.priorFocus = model.focus
		model.focus = FocusRequestType

	case key.Matches(message, model.keys.Status):
		conversation, ok := model.cursorChat()
		if !ok {
			break
		}
		options := make([]DropdownOption, len(chat.QueueStatuses))
		for index, status := range chat.QueueStatuses {
			options[index] = DropdownOption{Label: status.Label(), Value: string(status)}
		}
		model.openDropdown(fieldStatus, conversation.UUID, options, string(conversation.EffectiveStatus()))

	case key.Matches(message, model.keys.AssignToMe):
		if uuid := model.cursorUUID(); uuid != "" {
			return model, model.run(func(ctx context.Context) error {
				_, err := model.controller.AssignToMe(ctx, uuid)
				return err
			})
		}

	case key.Matches(message, model.keys.DeleteChat):
		conversation, ok := model.cursorChat()
		if !ok {
			break
		}
		uuid := conversation.UUID
		model.confirm = &confirmation{
			prompt: "Delete " + conversation.DisplayName() + "? (y/n)",
			run: model.run(func(ctx context.Context) error {
				return model.controller.DeleteChat(ctx, uuid)
			}),
		}
	}
	return model, nil
}

func (model Model) handleMessageKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.moveMessageCursor(-1)
	case key.Matches(message, model.keys.Down):
		model.moveMessageCursor(1)
	case key.Matches(message, model.keys.PageUp):
		model.followTail = false
		model.viewport.HalfViewUp()
	case key.Matches(message, model.keys.PageDown):
		model.viewport.HalfViewDown()
	case key.Matches(message, model.keys.Home):
		model.moveMessageCursor(-len(model.displayed()))
	case key.Matches(message, model.keys.End):
		model.moveMessageCursor(len(model.displayed()))

	case key.Matches(message, model.keys.Escape):
		switch {
		case model.searchResult != nil:
			model.searchResult = nil
			model.messageCursorID = ""
			model.followTail = true
			model.renderMessages()
		case model.state.ReplyDraft != nil:
			model.controller.SetReply("")
			return model, model.sync()
		default:
			model.focus = FocusList
			model.renderMessages()
		}
		return model, nil
	}

	target, ok := model.cursorMessage()
	if !ok {
		return model, nil
	}

	switch {
	case key.Matches(message, model.keys.Open):
		// In search results, jump to the match in the conversation.
		if model.searchResult != nil {
			model.searchResult = nil
			model.messageCursorID = target.MessageID
			model.followTail = false
			model.renderMessages()
		}

	case key.Matches(message, model.keys.Reply):
		if err := model.controller.SetReply(target.MessageID); err != nil {
			return model, model.setStatus(localErrorText(err), desk.LevelWarning)
		}
		model.focus = FocusComposer
		return model, model.sync()

	case key.Matches(message, model.keys.Edit):
		if !model.isOwn(target) {
			return model, model.setStatus("Only your own messages can be edited", desk.LevelWarning)
		}
		model.editingID = target.MessageID
		model.composer.Set(target.Content)
		model.focus = FocusComposer
		model.layout()

	case key.Matches(message, model.keys.Delete):
		if !model.isOwn(target) {
			return model, model.setStatus("Only your own messages can be deleted", desk.LevelWarning)
		}
		messageID := target.MessageID
		model.confirm = &confirmation{
			prompt: "Delete this message? (y/n)",
			run: model.run(func(ctx context.Context) error {
				return model.controller.DeleteMessage(ctx, messageID)
			}),
		}

	case key.Matches(message, model.keys.React):
		options := make([]DropdownOption, len(reactionChoices))
		for index, emoji := range reactionChoices {
			label := emoji
			if reaction, ok := target.Reactions[emoji]; ok && reaction.Active {
				label += "  (remove)"
			}
			options[index] = DropdownOption{Label: label, Value: emoji}
		}
		model.openDropdown(fieldReaction, target.MessageID, options, "")

	case key.Matches(message, model.keys.Download):
		if len(target.Attachments) == 0 {
			return model, model.setStatus("No attachments on this message", desk.LevelInfo)
		}
		var commands []tea.Cmd
		for _, attachment := range target.Attachments {
			commands = append(commands, model.run(func(ctx context.Context) error {
				_, err := model.controller.Download(ctx, attachment)
				return err
			}))
		}
		return model, tea.Batch(commands...)
	}
	return model, nil
}

func (model Model) handleQueueKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.queueCursor = clamp(model.queueCursor-1, 0, len(model.queue)-1)
	case key.Matches(message, model.keys.Down):
		model.queueCursor = clamp(model.queueCursor+1, 0, len(model.queue)-1)
	case key.Matches(message, model.keys.Home):
		model.queueCursor = 0
	case key.Matches(message, model.keys.End):
		model.queueCursor = max(len(model.queue)-1, 0)

	case key.Matches(message, model.keys.Escape):
		model.controller.SetPage(chatstate.PageChats)
		return model, model.sync()

	case key.Matches(message, model.keys.Open), key.Matches(message, model.keys.AssignToMe):
		if model.queueCursor >= len(model.queue) {
			break
		}
		queueID := model.queue[model.queueCursor].ID
		controller := model.controller
		model.queueLoading = true
		return model, func() tea.Msg {
			// The desk reports a failed assignment; reload either way.
			controller.AssignQueue(context.Background(), queueID)
			entries, err := controller.Queue(context.Background())
			if err != nil {
				return queueLoadedMsg{failed: true}
			}
			return queueLoadedMsg{entries: entries}
		}
	}
	return model, nil
}

func (model Model) handleComposerKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		if model.editingID != "" {
			model.editingID = ""
			model.composer.Reset()
		}
		model.focus = FocusMessages
		model.layout()
		return model, nil

	case tea.KeyEnter:
		content := model.composer.Value()
		if strings.TrimSpace(content) == "" {
			return model, nil
		}
		editingID := model.editingID
		model.composer.Reset()
		model.editingID = ""
		model.followTail = editingID == ""
		model.layout()
		return model, func() tea.Msg {
			var err error
			if editingID != "" {
				_, err = model.controller.Edit(context.Background(), editingID, content)
			} else {
				_, err = model.controller.Send(context.Background(), content, nil)
			}
			if err != nil {
				return sendFailedMsg{content: content, editingID: editingID}
			}
			return nil
		}
	}

	if model.composer.HandleKey(message) && model.editingID == "" {
		return model, func() tea.Msg {
			model.controller.Typing()
			return nil
		}
	}
	return model, nil
}

func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.filter.Reset()
		model.focus = FocusList
		model.rebuildMatches(model.cursorUUID())
	case tea.KeyEnter:
		model.focus = FocusList
	default:
		if model.filter.HandleKey(message) {
			model.rebuildMatches("")
			model.listCursor = 0
			model.listOffset = 0
		}
	}
	return model, nil
}

func (model Model) handleSearchKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.search.Reset()
		model.focus = model.priorFocus
	case tea.KeyEnter:
		query := strings.TrimSpace(model.search.Value())
		model.search.Reset()
		model.focus = FocusMessages
		if query == "" {
			return model, nil
		}
		return model, func() tea.Msg {
			result, err := model.controller.Search(context.Background(), query)
			if err != nil {
				return localErrorMsg(err)
			}
			return searchResultMsg{result: result}
		}
	default:
		model.search.HandleKey(message)
	}
	return model, nil
}

func (model Model) handleNewChatKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.newChat.Reset()
		model.focus = model.priorFocus
	case tea.KeyEnter:
		name := strings.TrimSpace(model.newChat.Value())
		model.newChat.Reset()
		if name == "" {
			model.focus = model.priorFocus
			return model, nil
		}
		model.pendingName = name
		model.requestTarget = ""
		model.requestType.Reset()
		model.focus = FocusRequestType
	default:
		model.newChat.HandleKey(message)
	}
	return model, nil
}

func (model Model) handleRequestTypeKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.requestType.Reset()
		model.pendingName = ""
		model.requestTarget = ""
		model.focus = model.priorFocus
	case tea.KeyEnter:
		requestType := strings.TrimSpace(model.requestType.Value())
		name, target := model.pendingName, model.requestTarget
		model.requestType.Reset()
		model.pendingName = ""
		model.requestTarget = ""

		if target == "" {
			model.focus = FocusMessages
			return model, model.run(func(ctx context.Context) error {
				_, err := model.controller.CreateChat(ctx, messaging.CreateChatRequest{Name: name, RequestType: requestType})
				return err
			})
		}
		model.focus = model.priorFocus
		if conversation, ok := model.state.Chat(target); !ok || requestType == "" || requestType == conversation.RequestType() {
			return model, nil
		}
		return model, model.run(func(ctx context.Context) error {
			return model.controller.UpdateRequestType(ctx, target, requestType)
		})
	default:
		model.requestType.HandleKey(message)
	}
	return model, nil
}

func (model Model) handleDropdownKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	dropdown := model.dropdown
	if dropdown == nil {
		model.focus = model.priorFocus
		return model, nil
	}
	switch {
	case key.Matches(message, model.keys.Up):
		dropdown.MoveUp()
	case key.Matches(message, model.keys.Down):
		dropdown.MoveDown()
	case key.Matches(message, model.keys.Escape):
		model.dismissDropdown()
	case key.Matches(message, model.keys.Open):
		selected, target, field := dropdown.Selected(), dropdown.Target, dropdown.Field
		model.dismissDropdown()
		switch field {
		case fieldStatus:
			return model, model.run(func(ctx context.Context) error {
				return model.controller.UpdateStatus(ctx, target, chat.QueueStatus(selected.Value))
			})
		case fieldReaction:
			return model, model.run(func(ctx context.Context) error {
				return model.controller.React(ctx, target, selected.Value)
			})
		}
	}
	return model, nil
}

// openDropdown shows options next to the focused cursor, highlighting
// the option whose value is current.
func (model *Model) openDropdown(field dropdownField, target string, options []DropdownOption, current string) {
	dropdown := &DropdownOverlay{Options: options, Field: field, Target: target}
	for index, option := range options {
		if option.Value == current {
			dropdown.Cursor = index
		}
	}
	contentTop := 1
	switch field {
	case fieldStatus:
		dropdown.AnchorX = min(4, model.listWidth()-1)
		dropdown.AnchorY = contentTop + model.listCursor - model.listOffset + 1
	case fieldReaction:
		dropdown.AnchorX = model.listWidth() + 3
		dropdown.AnchorY = contentTop + 1 + model.cursorLine() - model.viewport.YOffset + 1
	}
	// Keep the menu on screen.
	dropdown.AnchorY = clamp(dropdown.AnchorY, contentTop, max(model.height-len(options)-1, contentTop))
	dropdown.AnchorX = clamp(dropdown.AnchorX, 0, max(model.width-dropdown.Width(), 0))
	model.dropdown = dropdown
	model.priorFocus = model.focus
	model.focus = FocusDropdown
}

func (model *Model) dismissDropdown() {
	model.dropdown = nil
	model.focus = model.priorFocus
}

// run performs a controller operation off the update loop. The desk
// reports server failures itself; only local refusals are surfaced
// here.
func (model Model) run(operation func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := operation(context.Background()); err != nil {
			return localErrorMsg(err)
		}
		return nil
	}
}

// localErrorMsg turns a refusal the desk does not announce into a
// status bar notice, and anything else into nothing.
func localErrorMsg(err error) tea.Msg {
	text := localErrorText(err)
	if text == "" {
		return nil
	}
	return notificationMsg{notification: desk.Notification{Level: desk.LevelWarning, Text: text}}
}

func localErrorText(err error) string {
	switch {
	case errors.Is(err, desk.ErrNoSelection):
		return "Select a chat first"
	case errors.Is(err, desk.ErrEmptyMessage):
		return "Message is empty"
	case errors.Is(err, desk.ErrUnknownMessage):
		return "That message is no longer loaded"
	default:
		return ""
	}
}

func (model Model) refresh() tea.Cmd {
	commands := []tea.Cmd{model.run(model.controller.Refresh)}
	if connection := model.state.Connection; connection.GaveUp || connection.Status == chatstate.Disconnected {
		commands = append(commands, model.run(model.controller.Reconnect))
	}
	if model.state.Page == chatstate.PageQueue {
		commands = append(commands, model.loadQueue())
	}
	return tea.Batch(commands...)
}

func (model *Model) loadQueue() tea.Cmd {
	model.queueLoading = true
	controller := model.controller
	return func() tea.Msg {
		entries, err := controller.Queue(context.Background())
		if err != nil {
			return queueLoadedMsg{failed: true}
		}
		return queueLoadedMsg{entries: entries}
	}
}

func (model Model) isOwn(message chat.Message) bool {
	return model.user == nil || message.UserID == model.user.ID
}

// rebuildMatches refilters the conversation list, keeping the cursor
// on the conversation with uuid keep when it still matches.
func (model *Model) rebuildMatches(keep string) {
	model.matches = filterChats(model.state.Chats, model.filter.Value(), model.slab)
	if keep != "" {
		for index, match := range model.matches {
			if model.state.Chats[match.Index].UUID == keep {
				model.listCursor = index
				break
			}
		}
	}
	model.listCursor = clamp(model.listCursor, 0, len(model.matches)-1)
	model.ensureListVisible()
}

func (model Model) cursorChat() (chat.Conversation, bool) {
	if model.listCursor < 0 || model.listCursor >= len(model.matches) {
		return chat.Conversation{}, false
	}
	index := model.matches[model.listCursor].Index
	if index >= len(model.state.Chats) {
		return chat.Conversation{}, false
	}
	return model.state.Chats[index], true
}

func (model Model) cursorUUID() string {
	conversation, ok := model.cursorChat()
	if !ok {
		return ""
	}
	return conversation.UUID
}

func (model *Model) moveListCursor(delta int) {
	model.listCursor = clamp(model.listCursor+delta, 0, len(model.matches)-1)
	model.ensureListVisible()
}

func (model *Model) ensureListVisible() {
	visible := max(model.contentHeight(), 1)
	if model.listCursor < model.listOffset {
		model.listOffset = model.listCursor
	}
	if model.listCursor >= model.listOffset+visible {
		model.listOffset = model.listCursor - visible + 1
	}
	model.listOffset = clamp(model.listOffset, 0, max(len(model.matches)-visible, 0))
}

// displayed returns the messages the message pane shows: search
// results while a search is open, the conversation otherwise.
func (model Model) displayed() []chat.Message {
	if model.searchResult != nil {
		return model.searchResult.Messages
	}
	return model.state.Messages
}

// cursorIndex returns the position of the message cursor within the
// displayed messages, or -1 when there are none.
func (model Model) cursorIndex() int {
	messages := model.displayed()
	if len(messages) == 0 {
		return -1
	}
	if model.followTail && model.searchResult == nil {
		return len(messages) - 1
	}
	for index := range messages {
		if messages[index].MessageID == model.messageCursorID {
			return index
		}
	}
	return len(messages) - 1
}

func (model Model) cursorMessage() (chat.Message, bool) {
	index := model.cursorIndex()
	if index < 0 {
		return chat.Message{}, false
	}
	return model.displayed()[index], true
}

func (model *Model) moveMessageCursor(delta int) {
	messages := model.displayed()
	if len(messages) == 0 {
		return
	}
	index := clamp(model.cursorIndex()+delta, 0, len(messages)-1)
	model.messageCursorID = messages[index].MessageID
	model.followTail = model.searchResult == nil && index == len(messages)-1
	model.renderMessages()
}

// cursorLine is the first content line of the cursor message.
func (model Model) cursorLine() int {
	index := model.cursorIndex()
	if index < 0 || index >= len(model.messageStarts) {
		return 0
	}
	return model.messageStarts[index]
}

func clamp(value, low, high int) int {
	if high < low {
		return low
	}
	return max(low, min(value, high))
}

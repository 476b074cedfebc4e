// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/chatdesk/lib/chatstate"
	"github.com/bureau-foundation/chatdesk/lib/clock"
	"github.com/bureau-foundation/chatdesk/lib/desk"
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
	"github.com/bureau-foundation/chatdesk/lib/transfer"
	"github.com/bureau-foundation/chatdesk/messaging"
)

// fakeController applies selection, page, and reply changes to a real
// store and records every other call.
type fakeController struct {
	store     *chatstate.Store
	transfers *transfer.Store

	mu     sync.Mutex
	calls  []string
	queue  []chat.Queue
	result *messaging.SearchResult
}

func (controller *fakeController) record(format string, args ...any) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	controller.calls = append(controller.calls, fmt.Sprintf(format, args...))
}

func (controller *fakeController) called(call string) bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return slices.Contains(controller.calls, call)
}

func (controller *fakeController) Store() *chatstate.Store     { return controller.store }
func (controller *fakeController) Transfers() *transfer.Store { return controller.transfers }

func (controller *fakeController) Select(uuid string) {
	controller.record("Select %s", uuid)
	controller.store.Dispatch(chatstate.SelectChat{UUID: uuid})
}

func (controller *fakeController) SetPage(page chatstate.Page) {
	controller.store.Dispatch(chatstate.SetPage{Page: page})
}

func (controller *fakeController) Refresh(context.Context) error {
	controller.record("Refresh")
	return nil
}

func (controller *fakeController) Reconnect(context.Context) error {
	controller.record("Reconnect")
	return nil
}

func (controller *fakeController) CreateChat(_ context.Context, request messaging.CreateChatRequest) (*chat.Conversation, error) {
	controller.record("CreateChat %s [%s]", request.Name, request.RequestType)
	return &chat.Conversation{UUID: "created", Name: request.Name}, nil
}

func (controller *fakeController) UpdateRequestType(_ context.Context, uuid, requestType string) error {
	controller.record("UpdateRequestType %s %s", uuid, requestType)
	return nil
}

func (controller *fakeController) UpdateStatus(_ context.Context, uuid string, status chat.QueueStatus) error {
	controller.record("UpdateStatus %s %s", uuid, status)
	return nil
}

func (controller *fakeController) DeleteChat(_ context.Context, uuid string) error {
	controller.record("DeleteChat %s", uuid)
	return nil
}

func (controller *fakeController) AssignToMe(_ context.Context, uuid string) (*chat.Queue, error) {
	controller.record("AssignToMe %s", uuid)
	return &chat.Queue{}, nil
}

func (controller *fakeController) Queue(context.Context) ([]chat.Queue, error) {
	controller.record("Queue")
	return controller.queue, nil
}

func (controller *fakeController) AssignQueue(_ context.Context, queueID int) (*chat.Queue, error) {
	controller.record("AssignQueue %d", queueID)
	return &chat.Queue{ID: queueID}, nil
}

func (controller *fakeController) Send(_ context.Context, content string, _ []string) (*chat.Message, error) {
	controller.record("Send %s", content)
	if content == "fail" {
		return nil, errors.New("network down")
	}
	return &chat.Message{MessageID: "sent", Content: content}, nil
}

func (controller *fakeController) Edit(_ context.Context, messageID, content string) (*chat.Message, error) {
	controller.record("Edit %s %s", messageID, content)
	return &chat.Message{MessageID: messageID, Content: content}, nil
}

func (controller *fakeController) DeleteMessage(_ context.Context, messageID string) error {
	controller.record("DeleteMessage %s", messageID)
	return nil
}

func (controller *fakeController) React(_ context.Context, messageID, emoji string) error {
	controller.record("React %s %s", messageID, emoji)
	return nil
}

func (controller *fakeController) SetReply(messageID string) error {
	if messageID == "" {
		controller.store.Dispatch(chatstate.SetReplyDraft{})
		return nil
	}
	message, ok := controller.store.State().Message(messageID)
	if !ok {
		return desk.ErrUnknownMessage
	}
	controller.store.Dispatch(chatstate.SetReplyDraft{Reply: chat.ReplyTo(message)})
	return nil
}

func (controller *fakeController) Search(_ context.Context, query string) (*messaging.SearchResult, error) {
	controller.record("Search %s", query)
	return controller.result, nil
}

func (controller *fakeController) Download(_ context.Context, attachment string) (string, error) {
	controller.record("Download %s", attachment)
	return "/tmp/" + attachment, nil
}

func (controller *fakeController) Typing() {
	controller.record("Typing")
}

var testUser = &chat.User{ID: 1, Name: "Ana"}

func testController() *fakeController {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return &fakeController{
		store: chatstate.NewStore(chatstate.State{
			Page: chatstate.PageChats,
			Chats: []chat.Conversation{
				{ID: 1, UUID: "a", Name: "Printer support"},
				{ID: 2, UUID: "b", Name: "Billing question"},
				{ID: 3, UUID: "c", Name: "Onboarding"},
			},
			Connection: chatstate.Connection{Status: chatstate.Connected},
		}),
		transfers: transfer.NewStore(clock.Fake(created)),
	}
}

// withMessages selects conversation a and loads two messages, the
// second written by the test user.
func withMessages(controller *fakeController) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	controller.store.Dispatch(chatstate.SelectChat{UUID: "a"})
	controller.store.Dispatch(chatstate.SetMessages{ChatUUID: "a", Messages: []chat.Message{
		{MessageID: "m1", UserID: 2, UserName: "Ben", Content: "The printer is jammed", CreatedAt: created},
		{MessageID: "m2", UserID: 1, UserName: "Ana", Content: "Try reseating the tray", CreatedAt: created.Add(time.Minute)},
	}})
}

func sizedModel(t *testing.T, controller *fakeController) Model {
	t.Helper()
	model := NewModel(controller, testUser)
	t.Cleanup(model.Release)
	return update(t, model, tea.WindowSizeMsg{Width: 120, Height: 30})
}

// update applies message and returns the model, discarding commands.
func update(t *testing.T, model Model, message tea.Msg) Model {
	t.Helper()
	updated, _ := updateCmd(t, model, message)
	return updated
}

func updateCmd(t *testing.T, model Model, message tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := model.Update(message)
	result, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", updated)
	}
	return result, cmd
}

func runes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

// typeText sends text one rune at a time, running any commands.
func typeText(t *testing.T, model Model, text string) Model {
	t.Helper()
	for _, character := range text {
		var cmd tea.Cmd
		model, cmd = updateCmd(t, model, runes(string(character)))
		if cmd != nil {
			cmd()
		}
	}
	return model
}

// runCmd executes cmd and feeds its message back into the model.
func runCmd(t *testing.T, model Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if message := cmd(); message != nil {
		model = update(t, model, message)
	}
	return model
}

func visible(model Model) string {
	return ansi.Strip(model.View())
}

func TestModelView(t *testing.T) {
	controller := testController()
	withMessages(controller)
	model := sizedModel(t, controller)

	view := visible(model)
	for _, want := range []string{
		"1 Chats", "2 Queue", "connected", "Ana",
		"Printer support", "Billing question", "Onboarding",
		"The printer is jammed", "Try reseating the tray",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if lines := strings.Split(model.View(), "\n"); len(lines) != 30 {
		t.Errorf("view has %d lines, want 30", len(lines))
	}
}

func TestModelNotReady(t *testing.T) {
	model := NewModel(testController(), nil)
	defer model.Release()
	if view := model.View(); view != "Loading..." {
		t.Errorf("View before sizing = %q", view)
	}
}

func TestModelQuit(t *testing.T) {
	model := sizedModel(t, testController())
	_, cmd := updateCmd(t, model, runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestModelOpenChat(t *testing.T) {
	controller := testController()
	model := sizedModel(t, controller)

	model = update(t, model, runes("j"))
	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})

	if !controller.called("Select b") {
		t.Fatalf("calls = %v, want Select b", controller.calls)
	}
	if got := model.state.SelectedUUID(); got != "b" {
		t.Errorf("selected = %q, want b", got)
	}
	if model.focus != FocusMessages {
		t.Errorf("focus = %v, want FocusMessages", model.focus)
	}
}

func TestModelFollowsStoreChanges(t *testing.T) {
	controller := testController()
	model := sizedModel(t, controller)

	controller.store.Dispatch(chatstate.AddChat{Chat: chat.Conversation{ID: 4, UUID: "d", Name: "Late arrival"}})
	model = update(t, model, stateChangedMsg{})

	if !strings.Contains(visible(model), "Late arrival") {
		t.Error("new conversation not shown after a state change")
	}
}

func TestModelFilter(t *testing.T) {
	model := sizedModel(t, testController())

	model = update(t, model, runes("/"))
	if model.focus != FocusFilter {
		t.Fatalf("focus = %v, want FocusFilter", model.focus)
	}
	model = typeText(t, model, "bill")
	if len(model.matches) != 1 {
		t.Fatalf("%d matches for %q, want 1", len(model.matches), "bill")
	}
	if conversation, _ := model.cursorChat(); conversation.UUID != "b" {
		t.Errorf("cursor on %q, want b", conversation.UUID)
	}

	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	if model.focus != FocusList || model.filter.Value() != "bill" {
		t.Errorf("enter: focus %v filter %q", model.focus, model.filter.Value())
	}

	model = update(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	if len(model.matches) != 3 {
		t.Errorf("%d matches after clearing, want 3", len(model.matches))
	}
}

func TestModelComposeSend(t *testing.T) {
	controller := testController()
	withMessages(controller)
	model := sizedModel(t, controller)

	model = update(t, model, tea.KeyMsg{Type: tea.KeyTab})
	model = update(t, model, runes("i"))
	if model.focus != FocusComposer {
		t.Fatalf("focus = %v, want FocusComposer", model.focus)
	}
	model = typeText(t, model, "hello")
	if !controller.called("Typing") {
		t.Error("typing was not announced")
	}

	model, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	if !model.composer.Empty() {
		t.Errorf("composer = %q after send", model.composer.Value())
	}
	runCmd(t, model, cmd)
	if !controller.called("Send hello") {
		t.Errorf("calls = %v, want Send hello", controller.calls)
	}
}

func TestModelSendFailureRestoresText(t *testing.T) {
	controller := testController()
	withMessages(controller)
	model := sizedModel(t, controller)

	model = update(t, model, tea.KeyMsg{Type: tea.KeyTab})
	model = update(t, model, runes("i"))
	model = typeText(t, model, "fail")
	model, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	model = runCmd(t, model, cmd)

	if got := model.composer.Value(); got != "fail" {
		t.Errorf("composer = %q after failed send, want the text back", got)
	}
}

func TestModelReplyAndEdit(t *testing.T) {
	controller := testController()
	withMessages(controller)
	model := sizedModel(t, controller)
	model = update(t, model, tea.KeyMsg{Type: tea.KeyTab})

	// The cursor starts on the newest message; move to Ben's.
	model = update(t, model, runes("k"))
	model = update(t, model, runes("r"))
	if draft := model.state.ReplyDraft; draft == nil || draft.MessageID != "m1" {
		t.Fatalf("reply draft = %+v, want m1", draft)
	}
	if !strings.Contains(visible(model), "Replying to Ben") {
		t.Error("reply banner not shown")
	}

	model = update(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	model = update(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	if model.state.ReplyDraft != nil {
		t.Error("escape did not clear the reply draft")
	}

	// Ben's message is not ours to edit.
	model = update(t, model, runes("e"))
	if model.editingID != "" {
		t.Error("editing someone else's message")
	}

	model = update(t, model, runes("j"))
	model = update(t, model, runes("e"))
	if model.editingID != "m2" || model.composer.Value() != "Try reseating the tray" {
		t.Fatalf("editing %q with %q", model.editingID, model.composer.Value())
	}
	model = typeText(t, model, "!")
	model, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, model, cmd)
	if !controller.called("Edit m2 Try reseating the tray!") {
		t.Errorf("calls = %v", controller.calls)
	}
}

func TestModelDeleteMessageConfirms(t *testing.T) {
	controller := testController()
	withMessages(controller)
	model := sizedModel(t, controller)
	model = update(t, model, tea.KeyMsg{Type: tea.KeyTab})

	model = update(t, model, runes("d"))
	if !strings.Contains(visible(model), "Delete this message? (y/n)") {
		t.Fatal("no confirmation prompt")
	}
	model = update(t, model, runes("n"))
	if model.confirm != nil {
		t.Fatal("n did not cancel")
	}

	model = update(t, model, runes("d"))
	model, cmd := updateCmd(t, model, runes("y"))
	runCmd(t, model, cmd)
	if !controller.called("DeleteMessage m2") {
		t.Errorf("calls = %v, want DeleteMessage m2", controller.calls)
	}
}

func TestModelStatusDropdown(t *testing.T) {
	controller := testController()
	model := sizedModel(t, controller)

	model = update(t, model, runes("s"))
	if model.focus != FocusDropdown || model.dropdown == nil {
		t.Fatal("s did not open the status dropdown")
	}
	if len(model.dropdown.Options) != len(chat.QueueStatuses) {
		t.Errorf("%d options, want %d", len(model.dropdown.Options), len(chat.QueueStatuses))
	}
	if !strings.Contains(visible(model), chat.StatusWaitQA.Label()) {
		t.Error("dropdown not drawn")
	}

	model = update(t, model, runes("j"))
	want := model.dropdown.Selected().Value
	model, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	if model.dropdown != nil || model.focus != FocusList {
		t.Error("dropdown still open after selection")
	}
	runCmd(t, model, cmd)
	if !controller.called("UpdateStatus a " + want) {
		t.Errorf("calls = %v, want UpdateStatus a %s", controller.calls, want)
	}
}

func TestModelReactionDropdown(t *testing.T) {
	controller := testController()
	withMessages(controller)
	model := sizedModel(t, controller)
	model = update(t, model, tea.KeyMsg{Type: tea.KeyTab})

	model = update(t, model, runes("+"))
	if model.dropdown == nil || model.dropdown.Field != fieldReaction {
		t.Fatal("+ did not open the reaction dropdown")
	}
	model, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, model, cmd)
	if !controller.called("React m2 " + reactionChoices[0]) {
		t.Errorf("calls = %v", controller.calls)
	}
}

func TestModelDeleteChatConfirms(t *testing.T) {
	controller := testController()
	model := sizedModel(t, controller)

	model = update(t, model, runes("D"))
	if !strings.Contains(visible(model), "Delete Printer support? (y/n)") {
		t.Fatal("no confirmation prompt")
	}
	model, cmd := updateCmd(t, model, runes("y"))
	runCmd(t, model, cmd)
	if !controller.called("DeleteChat a") {
		t.Errorf("calls = %v", controller.calls)
	}
}

func TestModelNewChat(t *testing.T) {
	controller := testController()
	model := sizedModel(t, controller)

	model = update(t, model, runes("n"))
	model = typeText(t, model, "Roof leak")
	if !strings.Contains(visible(model), "New chat name: Roof leak") {
		t.Error("new chat prompt not shown in the header")
	}
	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	if len(controller.calls) != 0 {
		t.Fatalf("created before the request type step: %v", controller.calls)
	}
	model = typeText(t, model, "repair")
	if !strings.Contains(visible(model), "Request type (optional): repair") {
		t.Error("request type prompt not shown in the header")
	}
	model, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, model, cmd)
	if !controller.called("CreateChat Roof leak [repair]") {
		t.Errorf("calls = %v", controller.calls)
	}
}

func TestModelNewChatWithoutRequestType(t *testing.T) {
	controller := testController()
	model := sizedModel(t, controller)

	model = update(t, model, runes("n"))
	model = typeText(t, model, "Roof leak")
	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	model, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, model, cmd)
	if !controller.called("CreateChat Roof leak []") {
		t.Errorf("calls = %v", controller.calls)
	}
}

func TestModelEditRequestType(t *testing.T) {
	controller := testController()
	tagged := chat.Conversation{ID: 2, UUID: "b", Name: "Billing question"}.WithMetadataField("requestType", "billing")
	controller.store.Dispatch(chatstate.UpdateChat{Chat: tagged})
	model := sizedModel(t, controller)

	model = update(t, model, runes("j"))
	model = update(t, model, runes("t"))
	if model.focus != FocusRequestType {
		t.Fatalf("focus = %v, want the request type prompt", model.focus)
	}
	if got := model.requestType.Value(); got != "billing" {
		t.Errorf("prompt starts with %q, want the current type", got)
	}

	// Confirming the unchanged value sends nothing.
	model, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || model.focus != FocusList {
		t.Fatalf("unchanged type: cmd %v, focus %v", cmd != nil, model.focus)
	}

	model = update(t, model, runes("t"))
	model.requestType.Set("refund")
	model, cmd = updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, model, cmd)
	if !controller.called("UpdateRequestType b refund") {
		t.Errorf("calls = %v", controller.calls)
	}

	model = update(t, model, runes("t"))
	model = update(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	if model.focus != FocusList || !model.requestType.Empty() {
		t.Errorf("escape left focus %v, value %q", model.focus, model.requestType.Value())
	}
}

func TestModelSearch(t *testing.T) {
	controller := testController()
	withMessages(controller)
	controller.result = &messaging.SearchResult{
		Query:    "jam",
		Count:    1,
		Messages: []chat.Message{{MessageID: "m1", UserName: "Ben", Content: "The printer is jammed"}},
	}
	model := sizedModel(t, controller)
	model = update(t, model, tea.KeyMsg{Type: tea.KeyTab})

	model = update(t, model, runes("?"))
	model = typeText(t, model, "jam")
	model, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	model = runCmd(t, model, cmd)

	if !controller.called("Search jam") {
		t.Fatalf("calls = %v", controller.calls)
	}
	view := visible(model)
	if !strings.Contains(view, `search "jam": 1 results`) || strings.Contains(view, "Try reseating") {
		t.Errorf("search results not shown:\n%s", view)
	}

	// Enter jumps to the match in the conversation.
	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	if model.searchResult != nil {
		t.Fatal("enter did not close the search")
	}
	if message, _ := model.cursorMessage(); message.MessageID != "m1" {
		t.Errorf("cursor on %q, want m1", message.MessageID)
	}
}

func TestModelQueuePage(t *testing.T) {
	controller := testController()
	controller.queue = []chat.Queue{
		{ID: 7, Status: chat.StatusPending, JobName: "Fix roof"},
		{ID: 8, Status: chat.StatusHold, JobName: "Paint fence", AssignedToName: "Ana"},
	}
	model := sizedModel(t, controller)

	model, cmd := updateCmd(t, model, runes("2"))
	if model.state.Page != chatstate.PageQueue {
		t.Fatalf("page = %q, want queue", model.state.Page)
	}
	model = runCmd(t, model, cmd)
	view := visible(model)
	for _, want := range []string{"#7", "Fix roof", "unassigned", "#8", "Paint fence"} {
		if !strings.Contains(view, want) {
			t.Errorf("queue page missing %q:\n%s", want, view)
		}
	}

	model = update(t, model, runes("j"))
	model, cmd = updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, model, cmd)
	if !controller.called("AssignQueue 8") {
		t.Errorf("calls = %v, want AssignQueue 8", controller.calls)
	}

	model = update(t, model, runes("1"))
	if model.state.Page != chatstate.PageChats {
		t.Errorf("page = %q after 1", model.state.Page)
	}
}

func TestModelRefreshReconnectsAfterGiveUp(t *testing.T) {
	controller := testController()
	controller.store.Dispatch(chatstate.SetConnection{Connection: chatstate.Connection{
		Status: chatstate.Disconnected, GaveUp: true,
	}})
	model := sizedModel(t, controller)
	if !strings.Contains(visible(model), "offline, C-r to retry") {
		t.Error("gave-up state not shown")
	}

	_, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyCtrlR})
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatal("refresh did not batch")
	}
	for _, command := range batch {
		command()
	}
	if !controller.called("Refresh") || !controller.called("Reconnect") {
		t.Errorf("calls = %v, want Refresh and Reconnect", controller.calls)
	}
}

func TestModelNotifications(t *testing.T) {
	model := sizedModel(t, testController())

	model, cmd := updateCmd(t, model, notificationMsg{notification: desk.Notification{
		Level: desk.LevelSuccess, Text: "Created \"Roof leak\"",
	}})
	if cmd == nil {
		t.Fatal("notification scheduled no fade")
	}
	if !strings.Contains(visible(model), `Created "Roof leak"`) {
		t.Fatal("notification not shown")
	}

	stale := model.statusSequence
	model = update(t, model, logRecordMsg{Summary: "reconnect failed", Level: 8})
	model = update(t, model, statusFadeMsg{sequence: stale})
	if model.status != "reconnect failed" || model.statusLevel != desk.LevelError {
		t.Errorf("status = %q level %v, want the newer notice kept", model.status, model.statusLevel)
	}
	model = update(t, model, statusFadeMsg{sequence: model.statusSequence})
	if model.status != "" {
		t.Errorf("status = %q after fade", model.status)
	}
}

func TestModelTransferProgress(t *testing.T) {
	controller := testController()
	withMessages(controller)
	controller.store.Dispatch(chatstate.UpdateMessage{Message: chat.Message{
		MessageID: "m2", UserID: 1, UserName: "Ana", Content: "See attached",
		Attachments: chat.Attachments{"/uploads/manual.pdf"},
	}})
	model := sizedModel(t, controller)
	model = update(t, model, tea.KeyMsg{Type: tea.KeyTab})

	model, cmd := updateCmd(t, model, runes("o"))
	if cmd == nil {
		t.Fatal("o returned no command")
	}
	if batch, ok := cmd().(tea.BatchMsg); ok {
		for _, command := range batch {
			command()
		}
	}
	if !controller.called("Download /uploads/manual.pdf") {
		t.Errorf("calls = %v", controller.calls)
	}

	controller.transfers.Update("/uploads/manual.pdf", "manual.pdf", 50, 100)
	model = update(t, model, transferMsg{})
	view := visible(model)
	if !strings.Contains(view, "↓ manual.pdf 50%") {
		t.Errorf("transfer progress not shown:\n%s", view)
	}
}

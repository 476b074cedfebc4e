// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package desk is the client's coordinator. A [Desk] owns the state
// store and connects it to the REST session, the push client, and the
// persisted session snapshot.
//
// Data flows one way. REST responses and push events become
// chatstate actions; store observers run the side effects (loading
// the messages of a newly selected conversation, saving the snapshot,
// refreshing the chat cache). Operations apply state only after the
// server confirms. Failures are logged and reported to the Notifier,
// never returned as panics.
package desk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/chatdesk/lib/chatstate"
	"github.com/bureau-foundation/chatdesk/lib/clock"
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
	"github.com/bureau-foundation/chatdesk/lib/session"
	"github.com/bureau-foundation/chatdesk/lib/transfer"
	"github.com/bureau-foundation/chatdesk/messaging"
	"github.com/bureau-foundation/chatdesk/push"
)

// PushClient is the part of *push.Client the desk uses.
type PushClient interface {
	Connect(ctx context.Context) error
	Close() error
	SendTyping(chatUUID string) (bool, error)
	OnConnect(func()) func()
	OnDisconnect(func(push.Disconnect)) func()
	OnMessage(func(push.Event)) func()
	OnGiveUp(func(failures int)) func()
	OnReconnecting(func(attempt int, delay time.Duration)) func()
}

var _ PushClient = (*push.Client)(nil)

// Options configures a Desk. API is required; everything else is
// optional and its feature is skipped when nil.
type Options struct {
	API  messaging.Session
	Push PushClient
	// Server identifies the backend for the chat cache.
	Server string
	// User is the signed-in user. Their own typing notifications are
	// ignored.
	User *chat.User

	Session    *session.Store
	Autosaver  *session.Autosaver
	Cache      *session.ChatCache
	Transfers  *transfer.Store
	Downloader *transfer.Downloader

	Notifier Notifier
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Desk coordinates the client. Create with New, then Start.
type Desk struct {
	api        messaging.Session
	push       PushClient
	server     string
	user       *chat.User
	session    *session.Store
	autosaver  *session.Autosaver
	cache      *session.ChatCache
	transfers  *transfer.Store
	downloader *transfer.Downloader
	notifier   Notifier
	clock      clock.Clock
	logger     *slog.Logger

	store *chatstate.Store

	// lifetime bounds background effects; cancelled by Close.
	lifetime context.Context
	cancel   context.CancelFunc
	// effects tracks short-lived work started by observers; background
	// tracks the autosaver.
	effects    sync.WaitGroup
	background sync.WaitGroup

	connectedOnce atomic.Bool
	closeOnce     sync.Once

	mu            sync.Mutex
	closed        bool
	unsubscribers []func()
}

// New validates options and builds a Desk with an empty state.
func New(options Options) (*Desk, error) {
	if options.API == nil {
		return nil, fmt.Errorf("desk: API session is required")
	}
	desk := &Desk{
		api:        options.API,
		push:       options.Push,
		server:     options.Server,
		user:       options.User,
		session:    options.Session,
		autosaver:  options.Autosaver,
		cache:      options.Cache,
		transfers:  options.Transfers,
		downloader: options.Downloader,
		notifier:   options.Notifier,
		clock:      options.Clock,
		logger:     options.Logger,
		store:      chatstate.NewStore(chatstate.State{}),
	}
	if desk.notifier == nil {
		desk.notifier = discardNotifier{}
	}
	if desk.clock == nil {
		desk.clock = clock.Real()
	}
	if desk.logger == nil {
		desk.logger = slog.Default()
	}
	if desk.transfers == nil {
		desk.transfers = transfer.NewStore(desk.clock)
	}
	desk.lifetime, desk.cancel = context.WithCancel(context.Background())
	return desk, nil
}

// Store returns the state store. Views subscribe to it.
func (desk *Desk) Store() *chatstate.Store { return desk.store }

// State returns the current state.
func (desk *Desk) State() chatstate.State { return desk.store.State() }

// Transfers returns the transfer progress store.
func (desk *Desk) Transfers() *transfer.Store { return desk.transfers }

// Start shows cached chats, then fetches the live list while the push
// client connects, and finally restores the saved session. It returns
// an error only when the server rejects the credentials.
func (desk *Desk) Start(ctx context.Context) error {
	desk.loadCache()
	desk.store.Dispatch(chatstate.SetLoading{Target: chatstate.LoadChats, Loading: true})

	desk.addUnsubscriber(desk.store.Observe(desk.runEffects))
	if desk.push != nil {
		desk.subscribePush()
	}

	group, groupContext := errgroup.WithContext(ctx)
	group.Go(func() error {
		chats, err := desk.api.ListChats(groupContext)
		if err != nil {
			desk.store.Dispatch(chatstate.SetLoading{Target: chatstate.LoadChats, Loading: false})
			if messaging.IsUnauthorized(err) {
				return fmt.Errorf("desk: loading chats: %w", err)
			}
			desk.fail("Couldn't load chats", err)
			return nil
		}
		desk.store.Dispatch(chatstate.SetChats{Chats: chats})
		return nil
	})
	if desk.push != nil {
		group.Go(func() error {
			// A failed dial schedules its own reconnect; the status bar
			// follows through the connection listeners.
			if err := desk.push.Connect(groupContext); err != nil {
				desk.logger.Info("initial push connect failed", "error", err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	desk.restoreSession()

	if desk.autosaver != nil {
		desk.spawnOn(&desk.background, func(ctx context.Context) { desk.autosaver.Run(ctx) })
	}
	return nil
}

// Close disconnects push, stops background work, and writes the final
// session snapshot.
func (desk *Desk) Close() error {
	var err error
	desk.closeOnce.Do(func() {
		desk.mu.Lock()
		desk.closed = true
		unsubscribers := desk.unsubscribers
		desk.unsubscribers = nil
		desk.mu.Unlock()
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}

		if desk.push != nil {
			err = desk.push.Close()
		}
		desk.cancel()
		desk.effects.Wait()
		desk.background.Wait()
	})
	return err
}

// Wait blocks until the effects started so far have finished. The
// autosaver is not waited for.
func (desk *Desk) Wait() {
	desk.effects.Wait()
}

func (desk *Desk) addUnsubscriber(unsubscribe func()) {
	desk.mu.Lock()
	closed := desk.closed
	if !closed {
		desk.unsubscribers = append(desk.unsubscribers, unsubscribe)
	}
	desk.mu.Unlock()
	if closed {
		unsubscribe()
	}
}

func (desk *Desk) loadCache() {
	if desk.cache == nil {
		return
	}
	chats, err := desk.cache.Load(desk.server)
	if err != nil {
		desk.logger.Info("ignoring unreadable chat cache", "error", err)
		return
	}
	if len(chats) > 0 {
		desk.store.Dispatch(chatstate.SetChats{Chats: chats})
		desk.logger.Debug("showing cached chats", "count", len(chats))
	}
}

func (desk *Desk) restoreSession() {
	if desk.session == nil {
		return
	}
	snapshot, ok := desk.session.Restorable()
	if !ok {
		return
	}
	page := chatstate.Page(snapshot.Data.CurrentPage)
	uuid := snapshot.Data.SelectedChatUUID
	if uuid != "" && desk.State().ChatIndex(uuid) >= 0 {
		desk.store.Dispatch(chatstate.RestoreSession{Page: page, UUID: uuid})
		desk.logger.Info("restored session", "chat", uuid, "page", page)
		return
	}
	if page != "" {
		desk.store.Dispatch(chatstate.SetPage{Page: page})
	}
}

// runEffects is the store observer that performs side effects.
func (desk *Desk) runEffects(previous, next chatstate.State, action chatstate.Action) {
	selectionChanged := previous.SelectedUUID() != next.SelectedUUID()
	if selectionChanged && next.SelectedUUID() != "" {
		desk.spawn(func(ctx context.Context) { desk.loadMessages(ctx, next.SelectedUUID()) })
	}
	if desk.autosaver != nil && (selectionChanged || previous.Page != next.Page) {
		desk.autosaver.Update(next.SelectedUUID(), string(next.Page))
	}
	if desk.cache != nil && chatListChanged(previous.Chats, next.Chats) {
		chats := next.Chats
		desk.spawn(func(context.Context) { desk.saveCache(chats) })
	}

	switch action := action.(type) {
	case chatstate.AddMessage:
		if next.IsFresh(action.Message.MessageID) {
			desk.scheduleExpiry(chatstate.FreshWindow)
		}
	case chatstate.SetTyping:
		desk.scheduleExpiry(chatstate.TypingWindow)
	}
}

func (desk *Desk) loadMessages(ctx context.Context, chatUUID string) {
	messages, err := desk.api.ChatMessages(ctx, chatUUID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		desk.fail("Couldn't load messages", err)
		messages = []chat.Message{}
	}
	desk.store.Dispatch(chatstate.SetMessages{ChatUUID: chatUUID, Messages: messages})
}

func (desk *Desk) saveCache(chats []chat.Conversation) {
	if err := desk.cache.Save(desk.server, chats, desk.clock.Now()); err != nil {
		desk.logger.Info("chat cache not saved", "error", err)
	}
}

func (desk *Desk) scheduleExpiry(after time.Duration) {
	desk.clock.AfterFunc(after, func() {
		if desk.lifetime.Err() != nil {
			return
		}
		desk.store.Dispatch(chatstate.ExpireFresh{Now: desk.clock.Now()})
	})
}

// spawn runs f in a tracked goroutine bounded by the desk's lifetime.
func (desk *Desk) spawn(f func(ctx context.Context)) {
	desk.spawnOn(&desk.effects, f)
}

func (desk *Desk) spawnOn(group *sync.WaitGroup, f func(ctx context.Context)) {
	desk.mu.Lock()
	defer desk.mu.Unlock()
	if desk.closed {
		return
	}
	group.Add(1)
	go func() {
		defer group.Done()
		f(desk.lifetime)
	}()
}

// fail reports err to the user as "operation: cause" and logs it.
func (desk *Desk) fail(operation string, err error) {
	text := operation + ": " + messaging.UserMessage(err)
	desk.logger.Info("operation failed", "operation", operation, "error", err)
	desk.notify(LevelError, text)
}

func (desk *Desk) notify(level Level, text string) {
	desk.notifier.Notify(Notification{Level: level, Text: text, At: desk.clock.Now()})
}

// chatListChanged reports whether Reduce produced a new chat slice.
// Reduce copies on every change, so identity is enough.
func chatListChanged(previous, next []chat.Conversation) bool {
	if len(previous) != len(next) {
		return true
	}
	return len(next) > 0 && &previous[0] != &next[0]
}

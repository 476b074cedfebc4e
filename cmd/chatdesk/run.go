// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/chatdesk/lib/chatui"
	"github.com/bureau-foundation/chatdesk/lib/clock"
	"github.com/bureau-foundation/chatdesk/lib/config"
	"github.com/bureau-foundation/chatdesk/lib/desk"
	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
	"github.com/bureau-foundation/chatdesk/lib/session"
	"github.com/bureau-foundation/chatdesk/lib/transfer"
	"github.com/bureau-foundation/chatdesk/lib/version"
	"github.com/bureau-foundation/chatdesk/messaging"
	"github.com/bureau-foundation/chatdesk/push"
)

// runDesk opens the interactive desk. Background logging goes to the
// status bar through a TUILogHandler, and additionally to a JSON file
// when --log-output (or log.output) is set: writing to stderr would
// corrupt the alt screen.
func runDesk(cfg *config.Config, args []string) error {
	logOutput := cfg.Log.Output

	flagSet := pflag.NewFlagSet("chatdesk run", pflag.ContinueOnError)
	flagSet.StringVar(&logOutput, "log-output", logOutput, "also write JSON log records to this file")
	if err := flagSet.Parse(args); err != nil {
		return usageError("%v", err)
	}
	if flagSet.NArg() > 0 {
		return usageError("unexpected argument: %s", flagSet.Arg(0))
	}

	credentials, err := loadCredentials(cfg)
	if err != nil {
		return err
	}

	tuiHandler := chatui.NewTUILogHandler(cfg.SlogLevel())
	var handler slog.Handler = tuiHandler
	if logOutput != "" {
		fileHandler, closeFile, err := openLogFile(logOutput)
		if err != nil {
			return usageError("cannot open log file %s: %w", logOutput, err)
		}
		defer closeFile()
		handler = tee(tuiHandler, fileHandler)
	}
	logger := slog.New(handler)

	client, err := newAPIClient(cfg, logger.With("component", "api"))
	if err != nil {
		return err
	}
	defer client.CloseIdleConnections()
	api := client.SessionFromToken(credentials.Token)

	user, err := currentUser(api, credentials.User, logger)
	if err != nil {
		return err
	}

	pushURL, err := cfg.PushURL()
	if err != nil {
		return usageError("%w", err)
	}
	pushClient, err := push.New(push.Config{
		URL:                  pushURL,
		Token:                credentials.Token,
		UserAgent:            version.UserAgent(),
		Logger:               logger.With("component", "push"),
		MaxReconnectAttempts: cfg.Push.MaxReconnectAttempts,
		ReconnectDelay:       cfg.Push.ReconnectDelay.Std(),
		HeartbeatInterval:    pushInterval(cfg.Push.HeartbeatInterval),
		TypingInterval:       pushInterval(cfg.Push.TypingInterval),
	})
	if err != nil {
		return failure("%w", err)
	}

	store := session.NewStore(session.StoreConfig{
		Path:   cfg.Paths.Session,
		Expiry: cfg.Session.Expiry.Std(),
		Logger: logger.With("component", "session"),
	})
	var cache *session.ChatCache
	if cfg.Paths.ChatCache != "" {
		cache = &session.ChatCache{Path: cfg.Paths.ChatCache}
	}
	transfers := transfer.NewStore(clock.Real())
	notifier := &chatui.Notifier{}

	controller, err := desk.New(desk.Options{
		API:        api,
		Push:       pushClient,
		Server:     cfg.Server.URL,
		User:       &user,
		Session:    store,
		Autosaver:  session.NewAutosaver(store, cfg.Session.AutosaveInterval.Std()),
		Cache:      cache,
		Transfers:  transfers,
		Downloader: transfer.NewDownloader(api, transfers, cfg.Paths.Downloads, logger.With("component", "transfer")),
		Notifier:   notifier,
		Logger:     logger,
	})
	if err != nil {
		return failure("%w", err)
	}

	model := chatui.NewModel(controller, &user)
	defer model.Release()
	program := tea.NewProgram(model, tea.WithAltScreen())
	tuiHandler.SetProgram(program)
	notifier.SetProgram(program)

	startContext, cancelStart := context.WithCancel(context.Background())
	started := make(chan error, 1)
	go func() {
		err := controller.Start(startContext)
		if err != nil {
			program.Quit()
		}
		started <- err
	}()

	_, runErr := program.Run()
	cancelStart()
	startErr := <-started
	controller.Close()

	if startErr != nil {
		if messaging.IsUnauthorized(startErr) {
			return failure("%s rejected the saved session", cfg.Server.URL).WithHint(loginHint)
		}
		return failure("%w", startErr)
	}
	if runErr != nil {
		return failure("terminal: %w", runErr)
	}
	return nil
}

// currentUser refreshes the signed-in user from the server. A
// rejected token ends the run; any other failure falls back to the
// user saved at login.
func currentUser(api messaging.Session, saved chat.User, logger *slog.Logger) (chat.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	user, err := api.Me(ctx)
	switch {
	case messaging.IsUnauthorized(err):
		return chat.User{}, failure("the saved session has expired").WithHint(loginHint)
	case err != nil:
		logger.Warn("using saved profile", "error", err)
		return saved, nil
	}
	return *user, nil
}

// pushInterval maps a configured interval to the push client's
// convention, where zero selects the default and negative disables.
func pushInterval(interval config.Duration) time.Duration {
	if interval == 0 {
		return -1
	}
	return interval.Std()
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/chatdesk/lib/config"
	"github.com/bureau-foundation/chatdesk/lib/sealed"
	"github.com/bureau-foundation/chatdesk/lib/session"
	"github.com/bureau-foundation/chatdesk/lib/version"
	"github.com/bureau-foundation/chatdesk/messaging"
)

const loginHint = "Run 'chatdesk login <user>' to sign in."

// newAPIClient returns a REST client for the configured server.
func newAPIClient(cfg *config.Config, logger *slog.Logger) (*messaging.Client, error) {
	client, err := messaging.NewClient(messaging.ClientConfig{
		BaseURL:   cfg.Server.URL,
		Logger:    logger,
		UserAgent: version.UserAgent(),
	})
	if err != nil {
		return nil, failure("creating client: %w", err)
	}
	return client, nil
}

func runLogin(cfg *config.Config, args []string) error {
	var passwordFile string
	var encrypt bool

	flagSet := pflag.NewFlagSet("chatdesk login", pflag.ContinueOnError)
	flagSet.StringVar(&passwordFile, "password-file", "", "read the password from this file instead of prompting (- prompts)")
	flagSet.BoolVar(&encrypt, "encrypt", cfg.Session.EncryptCredentials, "seal the saved token with a passphrase (from $"+passphraseVariable+" or a prompt)")
	if err := flagSet.Parse(args); err != nil {
		return usageError("%v", err)
	}
	if flagSet.NArg() != 1 {
		return usageError("login takes exactly one argument, the user name").
			WithHint("Usage: chatdesk login <user> [--password-file PATH] [--encrypt]")
	}
	uid := flagSet.Arg(0)

	password, err := readPassword(passwordFile)
	if err != nil {
		return err
	}

	store := session.CredentialStore{Path: cfg.Paths.Credentials}
	if encrypt {
		if store.Passphrase, err = newPassphrase(); err != nil {
			return err
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client, err := newAPIClient(cfg, logger)
	if err != nil {
		return err
	}
	defer client.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, response, err := client.Login(ctx, uid, password)
	if err != nil {
		if messaging.IsUnauthorized(err) {
			return failure("%s rejected the user name or password", cfg.Server.URL)
		}
		return failure("login failed: %s", messaging.UserMessage(err))
	}

	if err := store.Save(session.Credentials{
		Server:  cfg.Server.URL,
		Token:   response.Token,
		User:    response.User,
		SavedAt: time.Now(),
	}); err != nil {
		return failure("%w", err)
	}

	fmt.Fprintf(os.Stderr, "Signed in as %s\n", response.User.DisplayName())
	fmt.Fprintf(os.Stderr, "Credentials saved to %s\n", cfg.Paths.Credentials)
	return nil
}

func runLogout(cfg *config.Config, args []string) error {
	flagSet := pflag.NewFlagSet("chatdesk logout", pflag.ContinueOnError)
	if err := flagSet.Parse(args); err != nil {
		return usageError("%v", err)
	}
	if flagSet.NArg() > 0 {
		return usageError("unexpected argument: %s", flagSet.Arg(0))
	}

	if err := (session.CredentialStore{Path: cfg.Paths.Credentials}).Delete(); err != nil {
		return failure("%w", err)
	}
	session.NewStore(session.StoreConfig{Path: cfg.Paths.Session}).Clear()
	fmt.Fprintln(os.Stderr, "Signed out")
	return nil
}

// loadCredentials reads the saved sign-in for cfg's server, prompting
// for the passphrase when the file is sealed and the environment does
// not supply one.
func loadCredentials(cfg *config.Config) (*session.Credentials, error) {
	store := session.CredentialStore{
		Path:       cfg.Paths.Credentials,
		Passphrase: os.Getenv(passphraseVariable),
	}
	credentials, err := store.Load()
	if errors.Is(err, session.ErrPassphraseRequired) {
		if store.Passphrase, err = promptSecret("Passphrase: "); err != nil {
			return nil, err
		}
		credentials, err = store.Load()
	}
	switch {
	case errors.Is(err, session.ErrNoCredentials):
		return nil, usageError("not signed in").WithHint(loginHint)
	case errors.Is(err, sealed.ErrWrongPassphrase):
		return nil, failure("wrong passphrase for %s", cfg.Paths.Credentials)
	case err != nil:
		return nil, failure("%w", err)
	}
	if credentials.Server != cfg.Server.URL {
		return nil, usageError("saved credentials are for %s, not %s", credentials.Server, cfg.Server.URL).
			WithHint(loginHint)
	}
	return credentials, nil
}

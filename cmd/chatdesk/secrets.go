// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// passphraseVariable supplies the credentials passphrase without a
// prompt.
const passphraseVariable = "CHATDESK_PASSPHRASE"

// promptSecret reads a line from the terminal with echo disabled. The
// prompt goes to stderr.
func promptSecret(prompt string) (string, error) {
	descriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(descriptor) {
		return "", usageError("no terminal available to prompt for %s", strings.TrimSuffix(strings.ToLower(prompt), ": "))
	}
	fmt.Fprint(os.Stderr, prompt)
	value, err := term.ReadPassword(descriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", failure("reading %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return string(value), nil
}

// readSecretFile returns the file's content without trailing line
// endings. An empty result is an error.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", failure("reading %s: %w", path, err)
	}
	value := strings.TrimRight(string(data), "\r\n")
	if value == "" {
		return "", usageError("file %s is empty", path)
	}
	return value, nil
}

// readPassword reads from passwordFile, or prompts when it is empty
// or "-".
func readPassword(passwordFile string) (string, error) {
	if passwordFile != "" && passwordFile != "-" {
		return readSecretFile(passwordFile)
	}
	password, err := promptSecret("Password: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", usageError("password is empty")
	}
	return password, nil
}

// newPassphrase returns the passphrase for sealing credentials: the
// environment value, or one typed twice.
func newPassphrase() (string, error) {
	if passphrase := os.Getenv(passphraseVariable); passphrase != "" {
		return passphrase, nil
	}
	passphrase, err := promptSecret("Passphrase: ")
	if err != nil {
		return "", err
	}
	if passphrase == "" {
		return "", usageError("passphrase is empty")
	}
	confirmation, err := promptSecret("Repeat passphrase: ")
	if err != nil {
		return "", err
	}
	if confirmation != passphrase {
		return "", usageError("passphrases do not match")
	}
	return passphrase, nil
}

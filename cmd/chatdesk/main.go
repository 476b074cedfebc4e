// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// chatdesk is a terminal client for the chat and ticketing backend.
//
// "chatdesk login <user>" signs in and saves the token; "chatdesk"
// (or "chatdesk run") opens the interactive desk using the saved
// credentials; "chatdesk logout" forgets them along with the saved
// session.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/chatdesk/lib/config"
	"github.com/bureau-foundation/chatdesk/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "chatdesk: %v\n", err)
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(exitFailure)
	}
}

func run(args []string) error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("chatdesk", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	// Flags after the command name belong to the command.
	flagSet.SetInterspersed(false)
	flagSet.StringVarP(&configPath, "config", "c", "", "configuration file (default: $"+config.EnvironmentVariable+")")
	flagSet.BoolVar(&showVersion, "version", false, "print version information")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return usageError("%v", err).WithHint("Run 'chatdesk --help' for usage.")
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		version.Fprint(os.Stdout, "chatdesk")
		return nil
	}

	command, rest := "run", flagSet.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	var handler func(*config.Config, []string) error
	switch command {
	case "help":
		printHelp(flagSet)
		return nil
	case "version":
		if len(rest) > 0 {
			return usageError("unexpected argument: %s", rest[0])
		}
		version.Fprint(os.Stdout, "chatdesk")
		return nil
	case "run":
		handler = runDesk
	case "login":
		handler = runLogin
	case "logout":
		handler = runLogout
	default:
		return usageError("unknown command %q", command).WithHint("Run 'chatdesk --help' for the list of commands.")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	return handler(cfg, rest)
}

// loadConfig reads, validates, and prepares the configuration: the
// file at path when given, otherwise whatever CHATDESK_CONFIG names.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, usageError("%w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageError("invalid configuration:\n%w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, failure("%w", err)
	}
	return cfg, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `chatdesk: terminal client for chats and support tickets.

Usage:
  chatdesk [flags] [command] [command flags]

Commands:
  run       open the desk (default)
  login     sign in and save credentials
  logout    forget saved credentials and session
  version   print version information

Examples:
  # Sign in, prompting for the password
  chatdesk login ana

  # Sign in against another server, sealing the token with a passphrase
  CHATDESK_SERVER=https://chat.example.com chatdesk login ana --encrypt

  # Open the desk with a specific configuration and a debug log
  chatdesk --config ~/chatdesk.yaml run --log-output /tmp/chatdesk.log

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

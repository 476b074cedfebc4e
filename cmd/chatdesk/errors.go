// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "fmt"

// Exit codes. Usage errors are distinguished so scripts can tell a
// bad invocation from a failed one.
const (
	exitFailure = 1
	exitUsage   = 2
)

// commandError is an error with an exit code and an optional hint
// printed after a blank line.
type commandError struct {
	Code int
	Err  error
	Hint string
}

func (e *commandError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *commandError) Unwrap() error { return e.Err }

// ExitCode is checked by main.
func (e *commandError) ExitCode() int { return e.Code }

// WithHint sets the hint and returns the receiver.
func (e *commandError) WithHint(hint string) *commandError {
	e.Hint = hint
	return e
}

// usageError reports a bad invocation: unknown command, wrong
// argument count, invalid flags or configuration.
func usageError(format string, args ...any) *commandError {
	return &commandError{Code: exitUsage, Err: fmt.Errorf(format, args...)}
}

// failure reports an operation that could not complete.
func failure(format string, args ...any) *commandError {
	return &commandError{Code: exitFailure, Err: fmt.Errorf(format, args...)}
}

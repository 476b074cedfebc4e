// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// openLogFile opens path for appending and returns a debug-level JSON
// handler over it along with the file's closer.
func openLogFile(path string) (slog.Handler, func() error, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}
	return slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}), file.Close, nil
}

// teeHandler passes every record to each of its handlers that accepts
// the record's level. Handler errors are joined; one failing handler
// does not keep the record from the others.
type teeHandler struct {
	handlers []slog.Handler
}

func tee(handlers ...slog.Handler) slog.Handler {
	return teeHandler{handlers: handlers}
}

func (tee teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range tee.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (tee teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range tee.handlers {
		if handler.Enabled(ctx, record.Level) {
			errs = append(errs, handler.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (tee teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return tee.derive(func(handler slog.Handler) slog.Handler { return handler.WithAttrs(attrs) })
}

func (tee teeHandler) WithGroup(name string) slog.Handler {
	return tee.derive(func(handler slog.Handler) slog.Handler { return handler.WithGroup(name) })
}

func (tee teeHandler) derive(transform func(slog.Handler) slog.Handler) teeHandler {
	derived := make([]slog.Handler, len(tee.handlers))
	for index, handler := range tee.handlers {
		derived[index] = transform(handler)
	}
	return teeHandler{handlers: derived}
}

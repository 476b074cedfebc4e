// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/chatdesk/messaging"
)

// Source streams a stored file by its server path.
type Source interface {
	Download(ctx context.Context, path string, destination io.Writer, progress messaging.ProgressFunc) (int64, error)
}

// Downloader saves attachments into a directory, reporting progress to
// a Store keyed by the attachment reference.
type Downloader struct {
	source    Source
	store     *Store
	directory string
	logger    *slog.Logger
}

// NewDownloader returns a Downloader writing into directory.
func NewDownloader(source Source, store *Store, directory string, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{source: source, store: store, directory: directory, logger: logger}
}

// Download fetches attachment and returns the written file's path.
// An existing file of the same name is never overwritten; a numbered
// name is chosen instead.
func (downloader *Downloader) Download(ctx context.Context, attachment string) (string, error) {
	serverPath, name := AttachmentPath(attachment)
	if serverPath == "" {
		return "", fmt.Errorf("transfer: attachment %q has no path", attachment)
	}
	downloader.store.Update(attachment, name, 0, -1)

	written, err := downloader.fetch(ctx, attachment, serverPath, name)
	if err != nil {
		downloader.store.Fail(attachment, err)
		downloader.logger.Warn("download failed", "attachment", attachment, "error", err)
		return "", err
	}
	downloader.store.Complete(attachment, written)
	downloader.logger.Info("download complete", "attachment", attachment, "path", written)
	return written, nil
}

func (downloader *Downloader) fetch(ctx context.Context, key, serverPath, name string) (string, error) {
	if err := os.MkdirAll(downloader.directory, 0700); err != nil {
		return "", fmt.Errorf("transfer: creating %s: %w", downloader.directory, err)
	}

	temporary, err := os.CreateTemp(downloader.directory, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("transfer: creating temporary file: %w", err)
	}
	temporaryPath := temporary.Name()

	_, err = downloader.source.Download(ctx, serverPath, temporary, func(done, total int64) {
		downloader.store.Update(key, "", done, total)
	})
	if closeErr := temporary.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("transfer: closing %s: %w", temporaryPath, closeErr)
	}
	if err != nil {
		os.Remove(temporaryPath)
		return "", err
	}

	destination, err := claimName(downloader.directory, name)
	if err != nil {
		os.Remove(temporaryPath)
		return "", err
	}
	if err := os.Rename(temporaryPath, destination); err != nil {
		os.Remove(temporaryPath)
		os.Remove(destination)
		return "", fmt.Errorf("transfer: moving download into place: %w", err)
	}
	return destination, nil
}

// claimName creates an empty file for name in directory, numbering it
// ("report (1).pdf") when the name is taken, and returns its path.
func claimName(directory, name string) (string, error) {
	extension := filepath.Ext(name)
	stem := strings.TrimSuffix(name, extension)
	for attempt := 0; attempt < 1000; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, attempt, extension)
		}
		candidatePath := filepath.Join(directory, candidate)
		file, err := os.OpenFile(candidatePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			file.Close()
			return candidatePath, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("transfer: creating %s: %w", candidatePath, err)
		}
	}
	return "", fmt.Errorf("transfer: no free file name for %s in %s", name, directory)
}

// AttachmentPath splits an attachment reference (an absolute URL or a
// server path) into the path to request and a safe local file name.
func AttachmentPath(attachment string) (serverPath, name string) {
	attachment = strings.TrimSpace(attachment)
	if attachment == "" {
		return "", ""
	}
	serverPath = attachment
	if parsed, err := url.Parse(attachment); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		serverPath = parsed.Path
		if queryPath := parsed.Query().Get("path"); queryPath != "" {
			serverPath = queryPath
		}
	}

	name = path.Base(serverPath)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." || name == "/" {
		name = "download"
	}
	return serverPath, name
}

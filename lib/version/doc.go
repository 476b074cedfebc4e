// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version describes the running chatdesk build.
//
// Release builds stamp the variables at link time:
//
//	go build -ldflags "-X github.com/bureau-foundation/chatdesk/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/chatdesk
//
// Other builds fall back to the VCS settings recorded in the binary.
// [UserAgent] labels REST and push requests.
package version

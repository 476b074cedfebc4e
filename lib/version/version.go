// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set with -ldflags -X. Empty values are filled from the build
// information the Go toolchain embeds, when present.
var (
	GitCommit = ""
	GitDirty  = ""
	BuildTime = ""
	Version   = "0.1.0-dev"
)

// Build describes the running binary.
type Build struct {
	Version string
	Commit  string
	Dirty   bool
	Time    string
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Current returns the build description. Linker-set values win over
// the embedded VCS settings.
func Current() Build {
	build := Build{
		Version: Version,
		Commit:  GitCommit,
		Dirty:   GitDirty == "true",
		Time:    BuildTime,
	}
	if info, ok := readBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if build.Commit == "" {
					build.Commit = setting.Value
				}
			case "vcs.time":
				if build.Time == "" {
					build.Time = setting.Value
				}
			case "vcs.modified":
				if GitDirty == "" {
					build.Dirty = setting.Value == "true"
				}
			}
		}
	}
	if len(build.Commit) > 7 {
		build.Commit = build.Commit[:7]
	}
	if build.Commit == "" {
		build.Commit = "unknown"
	}
	if build.Time == "" {
		build.Time = "unknown"
	}
	return build
}

// String formats the build for --version output, e.g.
// "0.1.0-dev (abc1234-dirty, 2026-03-01T09:00:00Z)".
func (build Build) String() string {
	commit := build.Commit
	if build.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", build.Version, commit, build.Time)
}

// Fprint writes the program name, build, Go version, and platform.
func Fprint(w io.Writer, program string) {
	fmt.Fprintf(w, "%s %s\n  Go: %s\n  Platform: %s/%s\n",
		program, Current(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies the client on REST and push requests, e.g.
// "chatdesk/0.1.0-dev (abc1234)".
func UserAgent() string {
	build := Current()
	return fmt.Sprintf("chatdesk/%s (%s)", strings.TrimPrefix(build.Version, "v"), build.Commit)
}

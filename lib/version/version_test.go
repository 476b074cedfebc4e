// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"
)

// stamp overrides the linker variables and the embedded build info
// for one test.
func stamp(t *testing.T, commit, dirty, buildTime string, settings ...debug.BuildSetting) {
	t.Helper()
	savedCommit, savedDirty, savedTime, savedRead := GitCommit, GitDirty, BuildTime, readBuildInfo
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime, readBuildInfo = savedCommit, savedDirty, savedTime, savedRead
	})
	GitCommit, GitDirty, BuildTime = commit, dirty, buildTime
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: settings}, len(settings) > 0
	}
}

func TestLinkerValuesWin(t *testing.T) {
	stamp(t, "abc1234", "true", "2026-03-01T09:00:00Z",
		debug.BuildSetting{Key: "vcs.revision", Value: "ffffffffffffffff"},
		debug.BuildSetting{Key: "vcs.modified", Value: "false"},
	)
	want := Version + " (abc1234-dirty, 2026-03-01T09:00:00Z)"
	if got := Current().String(); got != want {
		t.Errorf("Current() = %q, want %q", got, want)
	}
}

func TestBuildInfoFallback(t *testing.T) {
	stamp(t, "", "", "",
		debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef"},
		debug.BuildSetting{Key: "vcs.time", Value: "2026-02-01T00:00:00Z"},
		debug.BuildSetting{Key: "vcs.modified", Value: "true"},
	)
	build := Current()
	if build.Commit != "0123456" || !build.Dirty || build.Time != "2026-02-01T00:00:00Z" {
		t.Errorf("Current() = %+v", build)
	}
}

func TestUnknownBuild(t *testing.T) {
	stamp(t, "", "", "")
	if got := Current().String(); got != Version+" (unknown, unknown)" {
		t.Errorf("Current() = %q", got)
	}
}

func TestFprint(t *testing.T) {
	var buffer bytes.Buffer
	Fprint(&buffer, "chatdesk")
	if !strings.HasPrefix(buffer.String(), "chatdesk "+Version) {
		t.Errorf("Fprint wrote %q", buffer.String())
	}
	if !strings.Contains(buffer.String(), "Platform: ") {
		t.Errorf("Fprint wrote %q", buffer.String())
	}
}

func TestUserAgent(t *testing.T) {
	stamp(t, "abc1234", "false", "")
	if agent := UserAgent(); agent != "chatdesk/"+strings.TrimPrefix(Version, "v")+" (abc1234)" {
		t.Errorf("UserAgent() = %q", agent)
	}
}

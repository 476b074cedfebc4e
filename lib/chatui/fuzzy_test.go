// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"testing"

	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
)

func TestFuzzyMatch(t *testing.T) {
	result := fuzzyMatch("Printer Support", []rune("prsu"), nil)
	if result.Score <= 0 {
		t.Fatal("expected a match")
	}
	if len(result.Positions) != 4 {
		t.Fatalf("positions = %v, want 4", result.Positions)
	}
	for index := 1; index < len(result.Positions); index++ {
		if result.Positions[index] <= result.Positions[index-1] {
			t.Errorf("positions not ascending: %v", result.Positions)
		}
	}

	if miss := fuzzyMatch("Billing", []rune("xyz"), nil); miss.Score != 0 {
		t.Errorf("unexpected match: %+v", miss)
	}
	if empty := fuzzyMatch("Billing", nil, nil); empty.Score != 0 {
		t.Errorf("empty pattern matched: %+v", empty)
	}
}

func TestFilterChats(t *testing.T) {
	chats := []chat.Conversation{
		{UUID: "a", Name: "Printer support", CreatedByName: "Bill"},
		{UUID: "b", Name: "Billing question"},
		{UUID: "c", Name: "Onboarding"},
	}

	all := filterChats(chats, "  ", nil)
	if len(all) != 3 || all[0].Index != 0 || all[2].Index != 2 {
		t.Fatalf("empty query = %+v, want every chat in order", all)
	}

	matches := filterChats(chats, "bill", nil)
	if len(matches) != 2 {
		t.Fatalf("matches = %+v, want 2", matches)
	}
	// A name match outranks a creator match.
	if matches[0].Index != 1 {
		t.Errorf("best match is %d, want the name match", matches[0].Index)
	}
	if len(matches[0].Positions) == 0 {
		t.Error("name match has no highlight positions")
	}
	if len(matches[1].Positions) != 0 {
		t.Error("creator match should not highlight the name")
	}

	if none := filterChats(chats, "zzz", nil); len(none) != 0 {
		t.Errorf("matches = %+v, want none", none)
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"slices"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
)

// FuzzyResult is one fzf match: a positive Score on a match, and the
// matched rune positions in ascending order.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// fuzzyMatch scores text against a lowercase pattern,
// case-insensitively. slab may be nil.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}
	chars := util.ToChars([]byte(strings.ToLower(text)))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, pattern, true, slab)
	if result.Score <= 0 {
		return FuzzyResult{}
	}
	var sorted []int
	if positions != nil {
		sorted = slices.Clone(*positions)
		slices.Sort(sorted)
	}
	return FuzzyResult{Score: result.Score, Positions: sorted}
}

// chatMatch is a conversation that passed the filter, with the
// positions matched in its display name for highlighting.
type chatMatch struct {
	Index     int
	Score     int
	Positions []int
}

// filterChats returns the conversations matching query, best first.
// A conversation matches on its name, creator, request type, or
// status label; name matches outrank the others. An empty query
// returns every conversation in list order.
func filterChats(chats []chat.Conversation, query string, slab *util.Slab) []chatMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		matches := make([]chatMatch, len(chats))
		for index := range chats {
			matches[index] = chatMatch{Index: index}
		}
		return matches
	}

	pattern := []rune(strings.ToLower(query))
	var matches []chatMatch
	for index, conversation := range chats {
		name := fuzzyMatch(conversation.DisplayName(), pattern, slab)
		best := chatMatch{Index: index, Score: name.Score * 2, Positions: name.Positions}
		for _, field := range []string{
			conversation.Creator(),
			conversation.RequestType(),
			conversation.EffectiveStatus().Label(),
		} {
			if other := fuzzyMatch(field, pattern, slab); other.Score > best.Score {
				best = chatMatch{Index: index, Score: other.Score}
			}
		}
		if best.Score > 0 {
			matches = append(matches, best)
		}
	}
	slices.SortStableFunc(matches, func(a, b chatMatch) int {
		return b.Score - a.Score
	})
	return matches
}

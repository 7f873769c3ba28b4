// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/mikhailtal/oreacle-bot/internal/phrasebook"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// MatchMine scores the text against the tracked facility's alias set.
//
// A canonical primary alias (facility name or permit code) yields
// TARGET_MATCH; a regional alias without a primary yields POSSIBLE_MATCH;
// neither yields NO_MATCH. When a primary alias of a different facility
// appears alongside ours the result degrades to POSSIBLE_MATCH — ambiguity
// lowers the match, it never resolves upward.
func MatchMine(text string, pb *phrasebook.Phrasebook) types.MineMatch {
	lower := strings.ToLower(text)

	primary := containsAnyFold(text, lower, pb.PrimaryAliases())
	if primary {
		if containsAnyFold(text, lower, pb.ConflictAliases) {
			return types.MatchPossible
		}
		return types.MatchTarget
	}

	if containsAnyFold(text, lower, pb.GeoAliases) {
		return types.MatchPossible
	}
	return types.MatchNone
}

// weakerMatch returns the more cautious of two match strengths.
func weakerMatch(a, b types.MineMatch) types.MineMatch {
	rank := map[types.MineMatch]int{
		types.MatchNone:     0,
		types.MatchPossible: 1,
		types.MatchTarget:   2,
	}
	if rank[a] <= rank[b] {
		return a
	}
	return b
}

// containsAnyFold matches Latin terms case-insensitively against the
// pre-lowered text and CJK terms literally.
func containsAnyFold(text, lowerText string, terms []string) bool {
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(lowerText, strings.ToLower(term)) || strings.Contains(text, term) {
			return true
		}
	}
	return false
}

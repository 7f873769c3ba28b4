// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prefilter decides whether a document is worth expensive
// analysis. The filter is pure and local: a boolean AND of an entity
// clause and an action clause, each satisfiable by any term in its
// phrasebook category. False negatives are tolerated (sources are
// re-scanned every cycle); false positives are caught by the decision
// gate.
package prefilter

import (
	"strings"

	"github.com/mikhailtal/oreacle-bot/internal/phrasebook"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// IsRelevant reports whether the document text mentions both the tracked
// entity (or its region or facility) and a license-action or
// resumption/suspension term. A document matching only one clause is
// rejected.
func IsRelevant(doc types.Document, pb *phrasebook.Phrasebook) bool {
	text := strings.ToLower(doc.RawText)

	if !anyTermPresent(text, pb.EntityAliases()) {
		return false
	}
	return anyTermPresent(text, pb.ActionTerms())
}

// FuzzyMineMatch reports whether the text contains a near-miss rendering
// of the facility name together with mining context. Used as a permissive
// backup when the strict boolean filter rejects a title.
func FuzzyMineMatch(text string, pb *phrasebook.Phrasebook) bool {
	lower := strings.ToLower(text)

	for _, alias := range pb.MineAliases {
		if strings.Contains(lower, strings.ToLower(alias)) {
			return true
		}
	}

	if !containsAny(lower, pb.MiningContext) {
		return false
	}
	// Typo variants only count inside mining context.
	return containsAny(text, pb.MineTypos)
}

// Relevant combines the strict boolean filter with the fuzzy backup.
func Relevant(doc types.Document, pb *phrasebook.Phrasebook) bool {
	if IsRelevant(doc, pb) {
		return true
	}
	return FuzzyMineMatch(doc.RawText, pb)
}

func anyTermPresent(lowerText string, categories [][]string) bool {
	for _, terms := range categories {
		if containsAny(lowerText, terms) {
			return true
		}
	}
	return false
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(term)) || strings.Contains(text, term) {
			return true
		}
	}
	return false
}

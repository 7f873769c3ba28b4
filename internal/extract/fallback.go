// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/mikhailtal/oreacle-bot/internal/phrasebook"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// yesPatterns and noPatterns match explicit license-action clauses in
// simplified Chinese. The fallback is extractive: only a literal match
// produces a label.
var yesPatterns = []*regexp.Regexp{
	regexp.MustCompile(`许可(证)?(延续|续期|换发)`),
	regexp.MustCompile(`恢复(生产|开采|采矿)`),
	regexp.MustCompile(`准予(生产|开采)`),
}

var noPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(仅|只|限)勘(探|查)`),
	regexp.MustCompile(`责令停产|暂停开采|停止生产`),
	regexp.MustCompile(`行政处罚|吊销采矿许可证`),
}

// FallbackBackend is the deterministic extraction variant used when no
// analyzer credential is configured. Its confidence never exceeds the
// configured ceiling, reflecting its lower reliability.
type FallbackBackend struct {
	maxConfidence float64
}

// NewFallbackBackend builds the pattern-matching extractor.
func NewFallbackBackend(maxConfidence float64) *FallbackBackend {
	if maxConfidence <= 0 || maxConfidence > 1 {
		maxConfidence = 0.5
	}
	return &FallbackBackend{maxConfidence: maxConfidence}
}

// Name returns the backend identifier.
func (b *FallbackBackend) Name() string { return "fallback" }

// Extract labels the document from literal pattern matches against the
// phrasebook. Evidence carries the matched substrings themselves.
func (b *FallbackBackend) Extract(_ context.Context, doc types.Document, pb *phrasebook.Phrasebook) (types.Extraction, error) {
	text := doc.RawText
	match := MatchMine(text, pb)

	if match == types.MatchNone {
		return types.Extraction{
			MineMatch:     types.MatchNone,
			ProposedLabel: types.LabelIrrelevant,
			Confidence:    b.maxConfidence,
			KeyTermsZH:    []string{},
			KeyTermsEN:    []string{},
			Evidence:      []types.Evidence{},
			RiskFlags:     []string{},
		}, nil
	}

	yesHits := patternHits(text, yesPatterns, pb.YesZH)
	noHits := patternHits(text, noPatterns, pb.NoZH)
	enYes := termHits(text, pb.YesEN)
	enNo := termHits(text, pb.NoEN)

	label := types.LabelAmbiguous
	confidence := 0.3
	var evidenceTerms []string
	switch {
	// A suspension clause alongside a renewal clause is contradictory;
	// stay ambiguous rather than picking a side.
	case (len(yesHits) > 0 || len(enYes) > 0) && (len(noHits) > 0 || len(enNo) > 0):
		label = types.LabelAmbiguous
		evidenceTerms = concat(yesHits, enYes, noHits, enNo)
	case len(yesHits) > 0 || len(enYes) > 0:
		label = types.LabelYes
		confidence = b.maxConfidence
		evidenceTerms = concat(yesHits, enYes)
	case len(noHits) > 0 || len(enNo) > 0:
		label = types.LabelNo
		confidence = b.maxConfidence
		evidenceTerms = concat(noHits, enNo)
	}
	if confidence > b.maxConfidence {
		confidence = b.maxConfidence
	}

	evidence := make([]types.Evidence, 0, len(evidenceTerms))
	for _, term := range evidenceTerms {
		evidence = append(evidence, types.Evidence{
			ExactQuote:   term,
			LocationHint: "pattern match in raw_text",
		})
	}

	return types.Extraction{
		MineMatch:     match,
		ProposedLabel: label,
		Confidence:    confidence,
		KeyTermsZH:    uniq(append(yesHits, noHits...)),
		KeyTermsEN:    uniq(append(enYes, enNo...)),
		Evidence:      evidence,
		RiskFlags:     termHits(text, pb.RiskTerms),
	}, nil
}

// patternHits collects the literal substrings matched by the compiled
// patterns plus any phrasebook terms present verbatim.
func patternHits(text string, patterns []*regexp.Regexp, terms []string) []string {
	var hits []string
	for _, p := range patterns {
		if m := p.FindString(text); m != "" {
			hits = append(hits, m)
		}
	}
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			hits = append(hits, term)
		}
	}
	return uniq(hits)
}

func termHits(text string, terms []string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			hits = append(hits, term)
		}
	}
	return hits
}

func concat(slices ...[]string) []string {
	var out []string
	for _, s := range slices {
		out = append(out, s...)
	}
	return uniq(out)
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

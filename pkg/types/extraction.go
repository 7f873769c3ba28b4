// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// MineMatch is the discrete match strength between a document and the
// tracked facility.
type MineMatch string

const (
	MatchTarget   MineMatch = "TARGET_MATCH"
	MatchPossible MineMatch = "POSSIBLE_MATCH"
	MatchNone     MineMatch = "NO_MATCH"
)

// Label classifies what a document claims about the tracked condition.
type Label string

const (
	LabelYes        Label = "YES_CONDITION"
	LabelNo         Label = "NO_CONDITION"
	LabelAmbiguous  Label = "AMBIGUOUS"
	LabelIrrelevant Label = "IRRELEVANT"
)

// ValidLabels is the accepted set of Label values.
var ValidLabels = map[Label]bool{
	LabelYes:        true,
	LabelNo:         true,
	LabelAmbiguous:  true,
	LabelIrrelevant: true,
}

// ValidMatches is the accepted set of MineMatch values.
var ValidMatches = map[MineMatch]bool{
	MatchTarget:   true,
	MatchPossible: true,
	MatchNone:     true,
}

// Evidence is one verbatim quote supporting an extraction claim.
// ExactQuote must be a non-empty substring of the analyzed text.
type Evidence struct {
	ExactQuote      string `json:"exact_quote" yaml:"exact_quote"`
	TranslatedQuote string `json:"translated_quote" yaml:"translated_quote"`
	LocationHint    string `json:"location_hint" yaml:"location_hint"`
}

// Extraction is the normalized result both extraction backends produce.
// It is created fresh per document and never mutated afterwards.
type Extraction struct {
	MineMatch     MineMatch  `json:"mine_match" yaml:"mine_match"`
	ProposedLabel Label      `json:"proposed_label" yaml:"proposed_label"`
	Confidence    float64    `json:"confidence" yaml:"confidence"`
	Authority     string     `json:"authority,omitempty" yaml:"authority,omitempty"`
	KeyTermsZH    []string   `json:"key_terms_zh" yaml:"key_terms_zh"`
	KeyTermsEN    []string   `json:"key_terms_en" yaml:"key_terms_en"`
	Evidence      []Evidence `json:"evidence" yaml:"evidence"`
	RiskFlags     []string   `json:"risk_flags" yaml:"risk_flags"`
}

// HasEvidence reports whether at least one evidence quote is non-blank.
func (x Extraction) HasEvidence() bool {
	for _, e := range x.Evidence {
		if strings.TrimSpace(e.ExactQuote) != "" {
			return true
		}
	}
	return false
}

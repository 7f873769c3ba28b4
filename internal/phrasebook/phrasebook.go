// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package phrasebook holds the domain term and alias sets the pipeline
// matches against. A Phrasebook is loaded once at startup and treated as
// read-only context by every consumer.
package phrasebook

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Phrasebook is the immutable lookup of entity aliases and license-action
// terms. Alias matching is case-insensitive for Latin terms and literal
// for Chinese terms.
type Phrasebook struct {
	// CompanyAliases name the listed company (primary entity clause).
	CompanyAliases []string `yaml:"company_aliases"`

	// MineAliases are canonical primary names of the tracked facility.
	// Presence of any of these yields a TARGET_MATCH.
	MineAliases []string `yaml:"mine_aliases"`

	// GeoAliases are secondary regional hints. Presence without a primary
	// alias yields only a POSSIBLE_MATCH.
	GeoAliases []string `yaml:"geo_aliases"`

	// ConflictAliases are primary names of other facilities. A conflicting
	// primary alongside ours degrades the match to POSSIBLE_MATCH.
	ConflictAliases []string `yaml:"conflict_aliases"`

	// FacilityCodes are permit or facility identifiers counted as primary
	// aliases.
	FacilityCodes []string `yaml:"facility_codes"`

	// MineTypos are near-miss renderings of the facility name accepted
	// only when mining context is also present.
	MineTypos []string `yaml:"mine_typos"`

	// MiningContext are terms establishing mining context for the typo
	// check.
	MiningContext []string `yaml:"mining_context"`

	// YesZH/YesEN are license-renewal and resumption phrases.
	YesZH []string `yaml:"yes_zh"`
	YesEN []string `yaml:"yes_en"`

	// NoZH/NoEN are suspension and exploration-only phrases.
	NoZH []string `yaml:"no_zh"`
	NoEN []string `yaml:"no_en"`

	// TraditionalZH carries traditional-script action variants.
	TraditionalZH []string `yaml:"traditional_zh"`

	// RiskTerms flag hazardous qualifiers (exploration-only permits,
	// unclear drafting) for the decision gate.
	RiskTerms []string `yaml:"risk_terms"`
}

// EntityAliases returns every alias satisfying the entity clause of the
// relevance prefilter.
func (p *Phrasebook) EntityAliases() [][]string {
	return [][]string{p.CompanyAliases, p.MineAliases, p.GeoAliases, p.FacilityCodes}
}

// ActionTerms returns every term satisfying the action clause of the
// relevance prefilter.
func (p *Phrasebook) ActionTerms() [][]string {
	return [][]string{p.YesZH, p.YesEN, p.NoZH, p.NoEN, p.TraditionalZH}
}

// PrimaryAliases returns the alias sets that count as a primary facility
// match.
func (p *Phrasebook) PrimaryAliases() []string {
	out := make([]string, 0, len(p.MineAliases)+len(p.FacilityCodes))
	out = append(out, p.MineAliases...)
	out = append(out, p.FacilityCodes...)
	return out
}

// Load reads a Phrasebook from a YAML file. Empty required sections are
// rejected so a misplaced file cannot silently disable the prefilter.
func Load(path string) (*Phrasebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading phrasebook %s: %w", path, err)
	}

	var pb Phrasebook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("parsing phrasebook %s: %w", path, err)
	}

	if err := pb.validate(); err != nil {
		return nil, fmt.Errorf("phrasebook %s: %w", path, err)
	}
	return &pb, nil
}

func (p *Phrasebook) validate() error {
	if len(p.MineAliases) == 0 {
		return fmt.Errorf("mine_aliases must not be empty")
	}
	if len(p.YesZH) == 0 && len(p.YesEN) == 0 {
		return fmt.Errorf("at least one of yes_zh, yes_en must be set")
	}
	if len(p.NoZH) == 0 && len(p.NoEN) == 0 {
		return fmt.Errorf("at least one of no_zh, no_en must be set")
	}
	return nil
}

// Default returns the built-in phrasebook for the Jianxiawo lithium mine
// (Yichun, Jiangxi) and its operator.
func Default() *Phrasebook {
	return &Phrasebook{
		CompanyAliases: []string{"宁德时代", "CATL", "Contemporary Amperex"},
		MineAliases:    []string{"枧下窝", "Jianxiawo", "jianxia wo", "jian xia wo"},
		GeoAliases:     []string{"宜春", "宜丰", "奉新", "袁州", "江西", "Yichun", "Jiangxi"},
		ConflictAliases: []string{
			"化山瓷石矿", "狮子岭", "白水洞",
		},
		FacilityCodes: []string{"C3600002010087120143692"},
		MineTypos:     []string{"建夏沃", "建夏窝", "涧下窝"},
		MiningContext: []string{"采矿", "矿", "锂", "云母", "mining", "mine", "lithium"},
		YesZH: []string{
			"采矿许可证恢复", "恢复生产", "恢复开采", "核发采矿许可证",
			"许可证延续", "延续", "续期", "换发", "准予生产", "准予开采", "复产",
		},
		YesEN: []string{
			"mining license renewed", "resume production", "resumption of mining",
			"license renewal", "permit renewal",
		},
		NoZH: []string{
			"仅限勘探", "探矿权", "暂停生产", "停止生产", "责令停产",
			"暂停开采", "行政处罚", "吊销采矿许可证",
		},
		NoEN: []string{
			"exploration only", "exploration permit", "suspend production",
			"halt production",
		},
		TraditionalZH: []string{"採礦許可證", "恢復生產", "延續", "續期"},
		RiskTerms: []string{
			"勘探", "exploration", "拟", "草案", "征求意见", "公示期",
		},
	}
}

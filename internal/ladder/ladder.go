// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ladder checks temporal monotonicity across related markets:
// P(event by earlier date) must not exceed P(event by later date).
package ladder

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mikhailtal/oreacle-bot/internal/manifold"
)

// DefaultMinViolation is the smallest probability gap worth flagging.
const DefaultMinViolation = 0.05

var (
	isoDeadlineRe   = regexp.MustCompile(`(?i)by\s+(\d{4}-\d{2}-\d{2})`)
	monthDeadlineRe = regexp.MustCompile(`(?i)by\s+([A-Za-z]+)\s+(\d{1,2}),?\s+(\d{4})`)
	beforeRe        = regexp.MustCompile(`(?i)before\s+([A-Za-z]+)\s+(\d{1,2}),?\s+(\d{4})`)
	dateClauseRe    = regexp.MustCompile(`(?i)\s*(by|before)\s+[^?]+`)
)

// Violation is a pair of markets where the earlier deadline trades above
// the later one.
type Violation struct {
	Earlier manifold.Market
	Later   manifold.Market
}

// Size is the probability gap of the violation.
func (v Violation) Size() float64 {
	return v.Earlier.Probability - v.Later.Probability
}

func (v Violation) String() string {
	return fmt.Sprintf("monotonicity violation: %q (%.1f%%) > %q (%.1f%%), gap %.1f%%",
		v.Earlier.Question, v.Earlier.Probability*100,
		v.Later.Question, v.Later.Probability*100,
		v.Size()*100)
}

// Deadline extracts the resolution deadline from a market question.
// Recognized forms:
//
//	"... by 2026-12-31?"
//	"... by December 31, 2026?"
//	"... before January 1, 2027?"  (treated as the preceding day)
//
// The second return value is false when no deadline is found.
func Deadline(question string) (time.Time, bool) {
	if m := isoDeadlineRe.FindStringSubmatch(question); m != nil {
		if t, err := time.Parse("2006-01-02", m[1]); err == nil {
			return t, true
		}
	}
	if m := monthDeadlineRe.FindStringSubmatch(question); m != nil {
		if t, ok := parseMonthDate(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := beforeRe.FindStringSubmatch(question); m != nil {
		if t, ok := parseMonthDate(m[1], m[2], m[3]); ok {
			return t.AddDate(0, 0, -1), true
		}
	}
	return time.Time{}, false
}

func parseMonthDate(month, day, year string) (time.Time, bool) {
	raw := fmt.Sprintf("%s %s, %s", month, day, year)
	for _, layout := range []string{"January 2, 2006", "Jan 2, 2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BaseQuestion strips the deadline clause so markets that differ only in
// date group together.
func BaseQuestion(question string) string {
	return strings.TrimSpace(dateClauseRe.ReplaceAllString(question, ""))
}

// Checker detects monotonicity violations across a set of markets.
type Checker struct {
	minViolation float64
}

// NewChecker builds a checker. Non-positive minViolation falls back to
// the default.
func NewChecker(minViolation float64) *Checker {
	if minViolation <= 0 {
		minViolation = DefaultMinViolation
	}
	return &Checker{minViolation: minViolation}
}

// Check groups markets by base question and reports every pair where an
// earlier deadline trades more than minViolation above a later one.
// Markets without a recognizable deadline are ignored.
func (c *Checker) Check(markets []manifold.Market) []Violation {
	groups := map[string][]manifold.Market{}
	for _, m := range markets {
		if _, ok := Deadline(m.Question); !ok {
			continue
		}
		base := BaseQuestion(m.Question)
		groups[base] = append(groups[base], m)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var violations []Violation
	for _, k := range keys {
		violations = append(violations, c.checkGroup(groups[k])...)
	}
	return violations
}

func (c *Checker) checkGroup(markets []manifold.Market) []Violation {
	type dated struct {
		market   manifold.Market
		deadline time.Time
	}
	ordered := make([]dated, 0, len(markets))
	for _, m := range markets {
		d, _ := Deadline(m.Question)
		ordered = append(ordered, dated{market: m, deadline: d})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].deadline.Before(ordered[j].deadline)
	})

	var violations []Violation
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			earlier, later := ordered[i].market, ordered[j].market
			if earlier.Probability > later.Probability+c.minViolation {
				violations = append(violations, Violation{Earlier: earlier, Later: later})
			}
		}
	}
	return violations
}

// ViolationComment renders a markdown comment for posting to the earlier
// (overpriced) market.
func ViolationComment(v Violation) string {
	var b strings.Builder
	b.WriteString("**Monotonicity Violation Detected**\n\n")
	b.WriteString("Earlier deadline has higher probability than later deadline:\n")
	fmt.Fprintf(&b, "- **Earlier**: %s → **%.1f%%**\n", v.Earlier.Question, v.Earlier.Probability*100)
	fmt.Fprintf(&b, "- **Later**: %s → **%.1f%%**\n\n", v.Later.Question, v.Later.Probability*100)
	fmt.Fprintf(&b, "**Violation size**: %.1f%%\n\n", v.Size()*100)
	b.WriteString("P(event by earlier date) should never exceed P(event by later date).\n\n")
	b.WriteString("*Automated analysis by Oreacle Bot*")
	return b.String()
}

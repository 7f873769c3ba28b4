// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decide turns one extraction into an action authorization
// through a sequence of conservative gates. Every gate can only restrict
// the authorized action, never expand it: a missed trade costs nothing,
// a wrong trade costs capital.
package decide

import (
	"fmt"

	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// Decide evaluates the gates in order, short-circuiting on the first
// terminal failure and appending one reason per gate to the trace. It is
// a pure function of the extraction and configuration.
func Decide(x types.Extraction, cfg types.GateConfig) types.Decision {
	d := types.Decision{
		FinalLabel:       x.ProposedLabel,
		AuthorizedAction: types.ActionNone,
	}

	// Gate 1: no facility match means nothing here concerns us.
	if x.MineMatch == types.MatchNone {
		d.FinalLabel = types.LabelIrrelevant
		d.Reasons = append(d.Reasons, "gate 1: no facility match, label forced IRRELEVANT, no action")
		return d
	}
	d.Reasons = append(d.Reasons, fmt.Sprintf("gate 1: facility match %s", x.MineMatch))

	if x.ProposedLabel == types.LabelIrrelevant {
		d.Reasons = append(d.Reasons, "proposed label IRRELEVANT, no action")
		return d
	}

	// From here on a comment is allowed; the remaining gates decide
	// whether it can be upgraded to a trade.
	d.ActionAuthorized = true
	d.AuthorizedAction = types.ActionComment
	tradeable := true

	// Gate 2: a claim without a verbatim quote is not evidence. Downgrade
	// the label rather than trusting the extractor's assertion.
	if !x.HasEvidence() {
		d.FinalLabel = types.LabelAmbiguous
		tradeable = false
		d.Reasons = append(d.Reasons, "gate 2: no evidence quotes, label downgraded to AMBIGUOUS, comment only")
	} else {
		d.Reasons = append(d.Reasons, fmt.Sprintf("gate 2: %d evidence quote(s)", len(x.Evidence)))
	}

	// Gate 3: low confidence caps the action, the label stands.
	if x.Confidence < cfg.MinConfidence {
		tradeable = false
		d.Reasons = append(d.Reasons, fmt.Sprintf("gate 3: confidence %.2f below threshold %.2f, comment only", x.Confidence, cfg.MinConfidence))
	} else {
		d.Reasons = append(d.Reasons, fmt.Sprintf("gate 3: confidence %.2f meets threshold %.2f", x.Confidence, cfg.MinConfidence))
	}

	// Gate 4: a possible-but-unconfirmed facility match never trades,
	// regardless of confidence.
	if x.MineMatch == types.MatchPossible {
		tradeable = false
		d.Reasons = append(d.Reasons, "gate 4: facility match not confirmed, comment only")
	}

	// Gate 5: any risk flag caps the action.
	if len(x.RiskFlags) > 0 {
		tradeable = false
		d.Reasons = append(d.Reasons, fmt.Sprintf("gate 5: risk flags %v, comment only", x.RiskFlags))
	}

	// Gate 6: only an evidenced, confident, unambiguous YES or NO may
	// trade.
	if tradeable && (d.FinalLabel == types.LabelYes || d.FinalLabel == types.LabelNo) {
		d.AuthorizedAction = types.ActionCommentAndTrade
		d.Reasons = append(d.Reasons, fmt.Sprintf("gate 6: all gates passed, %s authorized for trade", d.FinalLabel))
	} else if tradeable {
		d.Reasons = append(d.Reasons, fmt.Sprintf("gate 6: label %s is not tradeable", d.FinalLabel))
	}

	return d
}

// ApplyCommentOnly clamps a trade authorization down to a comment. The
// clamp runs after gate evaluation as a global override, so the reason
// trace still records what the gates alone would have allowed.
func ApplyCommentOnly(d types.Decision, commentOnly bool) types.Decision {
	if !commentOnly || d.AuthorizedAction != types.ActionCommentAndTrade {
		return d
	}
	d.AuthorizedAction = types.ActionComment
	d.Reasons = append(d.Reasons, "comment-only mode: trade authorization clamped to comment")
	return d
}

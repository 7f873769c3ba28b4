// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ActionKind is the external action a decision authorizes.
type ActionKind string

const (
	ActionNone            ActionKind = "NONE"
	ActionComment         ActionKind = "COMMENT"
	ActionCommentAndTrade ActionKind = "COMMENT_AND_TRADE"
)

// Decision is the gate's verdict for one extraction. It is derived
// deterministically from the extraction plus configuration and is
// recomputable, so it is never persisted on its own.
type Decision struct {
	// FinalLabel is the label after conservative downgrades.
	FinalLabel Label `json:"final_label" yaml:"final_label"`

	// ActionAuthorized reports whether any external action may run.
	ActionAuthorized bool `json:"action_authorized" yaml:"action_authorized"`

	// AuthorizedAction is the strongest action the gates allow.
	AuthorizedAction ActionKind `json:"authorized_action" yaml:"authorized_action"`

	// Reasons is the human-auditable gate trace, in evaluation order.
	Reasons []string `json:"reasons" yaml:"reasons"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render produces the markdown comment published alongside each
// authorized action.
package render

import (
	"fmt"
	"strings"

	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// maxTermsShown bounds the key-term lists so comments stay readable.
const maxTermsShown = 5

// Comment renders a markdown summary of an extraction and the final
// verdict the gates settled on.
func Comment(doc types.Document, x types.Extraction, final types.Label) string {
	zh, en := "—", "—"
	if len(x.Evidence) > 0 {
		zh = x.Evidence[0].ExactQuote
		en = x.Evidence[0].TranslatedQuote
	}

	title := doc.Title
	if title == "" {
		title = "Regulatory Document"
	}
	authority := x.Authority
	if authority == "" {
		authority = "Unknown Authority"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Oreacle Analysis** — %s Confidence: %.1f%%\n\n", confidenceMarker(x.Confidence), x.Confidence*100)
	fmt.Fprintf(&b, "**Source**: [%s](%s)\n", title, doc.URL)
	fmt.Fprintf(&b, "**Authority**: %s\n", authority)
	fmt.Fprintf(&b, "**Mine Match**: %s\n\n", x.MineMatch)
	fmt.Fprintf(&b, "**Key Evidence** (ZH→EN):\n")
	fmt.Fprintf(&b, "> 中文: 「%s」\n", zh)
	fmt.Fprintf(&b, "> English: %s\n\n", en)
	fmt.Fprintf(&b, "**Verdict**: %s → **Final: %s**\n\n", x.ProposedLabel, final)
	fmt.Fprintf(&b, "**Terms Found**:\n")
	fmt.Fprintf(&b, "- ZH: %s\n", termList(x.KeyTermsZH))
	fmt.Fprintf(&b, "- EN: %s", termList(x.KeyTermsEN))

	if len(x.RiskFlags) > 0 {
		fmt.Fprintf(&b, "\n\n**Risk Flags**: %s", strings.Join(x.RiskFlags, ", "))
	}
	if len(x.Evidence) > 1 {
		fmt.Fprintf(&b, "\n\n**Additional Evidence**: %d more quotes available", len(x.Evidence)-1)
	}
	b.WriteString("\n\n*Automated analysis by Oreacle Bot*")

	return b.String()
}

func confidenceMarker(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "🟢"
	case confidence >= 0.6:
		return "🟡"
	default:
		return "🔴"
	}
}

func termList(terms []string) string {
	if len(terms) == 0 {
		return "None"
	}
	if len(terms) > maxTermsShown {
		terms = terms[:maxTermsShown]
	}
	return strings.Join(terms, ", ")
}

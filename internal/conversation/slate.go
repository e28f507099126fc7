package conversation

import (
	"fmt"
	"strings"

	"github.com/nkarpenko/slate/internal/model"
)

// FormatSlate renders an evidence slate as the grounding-message body.
// Sentence text is verbatim; each line carries its [sid:<id>] citation tag
// so generated answers can cite anchors the UI resolves for highlighting.
func FormatSlate(slate *model.EvidenceSlate) string {
	var sb strings.Builder

	sb.WriteString("Evidence sentences:\n")
	for _, s := range slate.Sentences {
		fmt.Fprintf(&sb, "[sid:%s] %s\n", s.ID, s.Text)
	}

	if len(slate.NumericFacts) > 0 {
		sb.WriteString("\nVerbatim numeric facts (quote exactly, never rephrase):\n")
		for _, f := range slate.NumericFacts {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	for _, t := range slate.Tables {
		fmt.Fprintf(&sb, "\nTable: %s\n", t.Caption)
		for _, row := range t.Rows {
			fmt.Fprintf(&sb, "| %s |\n", strings.Join(row, " | "))
		}
	}
	for _, f := range slate.Figures {
		fmt.Fprintf(&sb, "\nFigure: %s (%s)\n", f.Caption, f.AltText)
	}

	fmt.Fprintf(&sb, "\nEvidence confidence: %s\n", slate.Confidence)
	return sb.String()
}

// SlateMeta builds the metadata header for a slate grounding message.
func SlateMeta(slate *model.EvidenceSlate) map[string]string {
	return map[string]string{
		"sentences":  fmt.Sprintf("%d", len(slate.Sentences)),
		"confidence": string(slate.Confidence),
	}
}

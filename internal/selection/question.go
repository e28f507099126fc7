package selection

import (
	"fmt"
	"strings"

	"github.com/nkarpenko/slate/internal/model"
	"github.com/nkarpenko/slate/internal/segment"
)

// SynthesizeQuestion maps a raw selection to a question with a fixed,
// deterministic heuristic: short selections become a meaning question,
// numeric selections a numeric-explanation framing, everything else a
// generic explanation request.
func SynthesizeQuestion(selText string, cfg model.SelectionConfig) string {
	sel := strings.TrimSpace(selText)
	switch {
	case len(sel) < cfg.ShortSelectionLen:
		return fmt.Sprintf("What does %q mean?", sel)
	case segment.NumberPattern.MatchString(sel):
		return fmt.Sprintf("What do the numbers in %q represent?", sel)
	default:
		return fmt.Sprintf("Explain this passage: %q", sel)
	}
}

// followUpTemplates maps evidence rhetorical roles to suggested questions.
var followUpTemplates = map[model.RhetoricalRole]string{
	model.RoleDefinition: "Can you give a concrete example of this?",
	model.RoleClaim:      "What evidence supports this claim?",
	model.RoleEvidence:   "How was this evidence gathered?",
	model.RoleLimitation: "What are the exceptions or limitations here?",
	model.RoleContext:    "How does this relate to the rest of the article?",
}

var genericFollowUps = []string{
	"Can you summarize the surrounding section?",
	"What should I read next to understand this better?",
	"Are there any numbers here worth a closer look?",
}

// deriveFollowUps builds 3-5 follow-up questions from the rhetorical roles
// present in the pack's evidence, padding with generics when the roles are
// too uniform.
func deriveFollowUps(p *model.ContextPack) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(q string) {
		if len(out) < 5 && !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}

	for _, a := range p.Primary {
		add(followUpTemplates[a.Metadata.Role])
	}
	for _, a := range p.Neighbors {
		add(followUpTemplates[a.Metadata.Role])
	}
	for _, q := range genericFollowUps {
		if len(out) >= 3 {
			break
		}
		add(q)
	}
	return out
}

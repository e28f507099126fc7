package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Renderer writes ask results as JSON, Markdown, and a stdout summary.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the result as indented JSON.
func (r *Renderer) RenderJSON(res *AskResult, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report.
func (r *Renderer) RenderMarkdown(res *AskResult, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", res.Subject)
	if res.SourceURL != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", res.SourceURL)
	}
	fmt.Fprintf(&b, "**Q:** %s\n\n", res.Question)
	fmt.Fprintf(&b, "**A:** %s\n\n", res.Answer)
	if res.Partial {
		b.WriteString("_Generation was interrupted; this answer is partial._\n\n")
	}

	fmt.Fprintf(&b, "Confidence: %s (%d evidence sentences)\n\n", res.Pack.Confidence, res.Pack.EvidenceCount())

	if len(res.Slate.Sentences) > 0 {
		b.WriteString("## Evidence\n\n")
		for _, a := range res.Slate.Sentences {
			fmt.Fprintf(&b, "- `[sid:%s]` %s\n", a.ID, a.Text)
		}
		b.WriteString("\n")
	}

	if len(res.Pack.NumericFacts) > 0 {
		b.WriteString("## Numeric facts\n\n")
		for _, f := range res.Pack.NumericFacts {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	if len(res.Pack.Contradictions) > 0 {
		b.WriteString("## Possible contradictions\n\n")
		for _, c := range res.Pack.Contradictions {
			fmt.Fprintf(&b, "- **%s**\n", c.Concept)
			for _, s := range c.Statements {
				fmt.Fprintf(&b, "  - `[sid:%s]` %s\n", s.AnchorID, s.Text)
			}
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\nGenerated by slate at %s\n", res.AskedAt.Format("2006-01-02 15:04:05 UTC"))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderSummary prints a compact result to stdout.
func (r *Renderer) RenderSummary(res *AskResult) {
	fmt.Printf("\n%s\n", strings.Repeat("=", 60))
	fmt.Printf("Subject:    %s\n", res.Subject)
	fmt.Printf("Question:   %s\n", res.Question)
	fmt.Printf("Answer:     %s\n", res.Answer)
	fmt.Printf("Confidence: %s (%d evidence sentences, %d anchors)\n",
		res.Pack.Confidence, res.Pack.EvidenceCount(), res.AnchorCount)
	if len(res.Citations) > 0 {
		fmt.Printf("Citations:  %s\n", strings.Join(res.Citations, ", "))
	}
	if len(res.Pack.Contradictions) > 0 {
		fmt.Printf("⚠ %d possible contradiction(s) detected\n", len(res.Pack.Contradictions))
	}
	fmt.Printf("%s\n", strings.Repeat("=", 60))
}

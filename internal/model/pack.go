package model

import "time"

// Confidence grades how much in-document evidence backs an answer.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceFor maps a combined evidence-sentence count to a tier:
// high for >=5, medium for 2-4, low below 2.
func ConfidenceFor(evidenceCount int) Confidence {
	switch {
	case evidenceCount >= 5:
		return ConfidenceHigh
	case evidenceCount >= 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ConflictingStatement is one side of a flagged contradiction.
type ConflictingStatement struct {
	AnchorID string `json:"anchor_id"`
	Text     string `json:"text"`
}

// Contradiction flags a concept that multiple sentences address.
// Co-occurrence flagging only: false positives and negatives are expected.
type Contradiction struct {
	Concept    string                 `json:"concept"`
	Statements []ConflictingStatement `json:"statements"`
}

// ContextPack is the scored, bounded evidence bundle built for one question.
// Built fresh per question, immutable once constructed; a new question
// supersedes the pack rather than mutating it.
type ContextPack struct {
	Question string    `json:"question"`
	BuiltAt  time.Time `json:"built_at"`

	// Primary holds at most KPrimary viewport-anchored sentences, sorted by
	// descending relevance.
	Primary []SentenceAnchor `json:"primary"`

	// Neighbors holds at most KNeighbor sentences adjacent to primary
	// evidence, never overlapping Primary by ID.
	Neighbors []SentenceAnchor `json:"neighbors"`

	// SectionContext holds at most KSection one-sentence gists, one per
	// distinct section touched by primary evidence.
	SectionContext []SentenceAnchor `json:"section_context"`

	// NumericFacts are verbatim substrings (number+unit, dates, percentages)
	// preserved byte-for-byte from source text, deduplicated in first-seen
	// order. Never paraphrased.
	NumericFacts []string `json:"numeric_facts"`

	Confidence     Confidence      `json:"confidence"`
	Contradictions []Contradiction `json:"contradictions,omitempty"`
}

// EvidenceCount returns the combined primary+neighbor sentence count that
// the confidence tier derives from.
func (p *ContextPack) EvidenceCount() int {
	return len(p.Primary) + len(p.Neighbors)
}

// EmptyPack returns the defined empty ContextPack for a question against a
// container with no usable content: all lists empty, low confidence.
func EmptyPack(question string) *ContextPack {
	return &ContextPack{
		Question:     question,
		BuiltAt:      time.Now().UTC(),
		NumericFacts: []string{},
		Confidence:   ConfidenceLow,
	}
}

// Table is a structured table handed through the slate. Table structuring is
// delegated to a pluggable parser; the core only carries the result.
type Table struct {
	Caption string     `json:"caption,omitempty"`
	Rows    [][]string `json:"rows"`
}

// Figure is a referenced figure handed through the slate.
type Figure struct {
	Caption string `json:"caption,omitempty"`
	AltText string `json:"alt_text,omitempty"`
}

// EvidenceSlate is the flattened projection of a ContextPack handed to the
// generation step: primary followed by neighbor sentences in one ordered
// list, plus tables, figures, and facts. Pure projection, no extra scoring.
type EvidenceSlate struct {
	Sentences    []SentenceAnchor `json:"sentences"`
	Tables       []Table          `json:"tables"`
	Figures      []Figure         `json:"figures"`
	NumericFacts []string         `json:"numeric_facts"`
	Confidence   Confidence       `json:"confidence"`
}

package model

// CardKind distinguishes answer cards from error cards surfaced in the same
// slot. Exactly one card is active at a time either way.
type CardKind string

const (
	CardAnswer CardKind = "answer"
	CardError  CardKind = "error"
)

// NumericCard is an optional compact rendering for single-value or
// table-like selections.
type NumericCard struct {
	Value   string `json:"value"`
	Unit    string `json:"unit,omitempty"`
	Context string `json:"context,omitempty"`
}

// CardAnchorPos is where the card attaches in the laid-out document.
type CardAnchorPos struct {
	AnchorID string  `json:"anchor_id,omitempty"`
	Top      float64 `json:"top"`
	Left     float64 `json:"left"`
}

// InlineAnswerCard is the selection-first answer payload. The answer is at
// most two sentences by construction, not by display truncation. Citations
// are sentence-anchor IDs usable for hover-highlight lookup.
type InlineAnswerCard struct {
	Kind       CardKind      `json:"kind"`
	Question   string        `json:"question"`
	Answer     string        `json:"answer"`
	Citations  []string      `json:"citations,omitempty"`
	Confidence Confidence    `json:"confidence"`
	Anchor     CardAnchorPos `json:"anchor"`

	// FollowUps holds 3-5 suggested questions derived from the rhetorical
	// roles of the evidence sentences.
	FollowUps []string `json:"follow_ups,omitempty"`

	Numeric *NumericCard `json:"numeric,omitempty"`

	// Partial marks an answer cut short by a mid-stream generation failure.
	// The streamed prefix is preserved, never dropped.
	Partial bool `json:"partial,omitempty"`
}

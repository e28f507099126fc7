package model

// RangeRef is a stable descriptor for the span of document text backing a
// sentence. It holds a node path (child indices from the snapshot root) plus
// rune offsets into that node's text, and is resolved lazily against a
// document snapshot. The snapshot does not own document lifetime: resolution
// of a ref whose backing node was detached reports an invalid anchor, it
// never panics.
type RangeRef struct {
	Path  []int `json:"path"`
	Start int   `json:"start"`
	End   int   `json:"end"`
}

// RhetoricalRole classifies the function of a sentence in the article.
// It drives scoring and follow-up heuristics only; it is never truth-bearing.
type RhetoricalRole string

const (
	RoleDefinition RhetoricalRole = "definition"
	RoleClaim      RhetoricalRole = "claim"
	RoleEvidence   RhetoricalRole = "evidence"
	RoleLimitation RhetoricalRole = "limitation"
	RoleContext    RhetoricalRole = "context"
)

// Position holds where a sentence sits in the document.
type Position struct {
	// Viewport is true iff the sentence's bounding box was fully contained
	// in the viewport rectangle at segmentation time. Snapshot, not live.
	Viewport bool `json:"viewport"`

	// Prev and Next are the ordinal indices of the adjacent sentences,
	// -1 at document bounds.
	Prev int `json:"prev"`
	Next int `json:"next"`

	// Section increments on detected section breaks (heading-like text or a
	// vertical gap above the configured threshold).
	Section int `json:"section"`
}

// Metadata holds pattern-matched sentence properties.
type Metadata struct {
	HasNumbers bool           `json:"has_numbers"`
	HasUnits   bool           `json:"has_units"`
	HasDates   bool           `json:"has_dates"`
	Role       RhetoricalRole `json:"role"`
}

// SentenceAnchor is one segmented sentence: verbatim text, a weak reference
// back into the document, and derived metadata. Anchors are produced fresh by
// each segmentation pass; IDs are reproducible for the same document state.
type SentenceAnchor struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Range    RangeRef `json:"range"`
	Ordinal  int      `json:"ordinal"`
	Position Position `json:"position"`
	Metadata Metadata `json:"metadata"`

	// Rect is the sentence's bounding box in the layout model, kept for
	// card placement and section-gap detection.
	Rect Rect `json:"rect"`
}

// Rect is an axis-aligned bounding box in layout pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// Height returns the vertical extent of the rect.
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Viewport is the visible window over the laid-out document.
type Viewport struct {
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the rect is fully inside the viewport.
// Full containment, not intersection.
func (v Viewport) Contains(r Rect) bool {
	return r.Top >= v.Top && r.Bottom <= v.Top+v.Height &&
		r.Left >= 0 && r.Right <= v.Width
}

// Package segment walks a document snapshot and splits its text into
// sentence anchors with stable IDs and viewport/neighbor/section metadata.
package segment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/nkarpenko/slate/internal/dom"
	"github.com/nkarpenko/slate/internal/model"
)

// Logf receives diagnostics for sentences skipped during a pass.
type Logf func(format string, args ...interface{})

// Segmenter produces sentence anchors for one container. Each pass fully
// replaces the previous anchor set; callers never observe a half-rebuilt
// index. One segmenter owns one container's anchors and must not be shared
// across concurrently-segmented containers.
type Segmenter struct {
	cfg  model.SegmentConfig
	logf Logf

	anchors []model.SentenceAnchor
	byID    map[string]int
}

// NewSegmenter creates a segmenter. logf may be nil.
func NewSegmenter(cfg model.SegmentConfig, logf Logf) *Segmenter {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Segmenter{cfg: cfg, logf: logf}
}

// Segment re-indexes the snapshot against the given viewport and returns the
// fresh anchor set. An empty container yields an empty slice, not an error.
func (s *Segmenter) Segment(snap *dom.Snapshot, viewport model.Viewport) []model.SentenceAnchor {
	anchors := make([]model.SentenceAnchor, 0, len(snap.Blocks()))
	byID := make(map[string]int)

	for _, block := range snap.Blocks() {
		if len(strings.TrimSpace(block.Text)) < s.cfg.MinSentenceLen {
			continue
		}

		for _, span := range splitSentences(block.Text, s.cfg.MinSentenceLen) {
			origStart, origEnd, err := block.OrigSpan(span.start, span.end)
			if err != nil {
				s.logf("segment: skipping sentence %q: %v", span.text, err)
				continue
			}
			ref, err := snap.MakeRange(block, origStart, origEnd)
			if err != nil {
				s.logf("segment: skipping sentence %q: %v", span.text, err)
				continue
			}

			rect := snap.SpanRect(block, span.start, span.end)
			ordinal := len(anchors)
			anchor := model.SentenceAnchor{
				ID:      anchorID(span.text, ordinal),
				Text:    span.text,
				Range:   ref,
				Ordinal: ordinal,
				Rect:    rect,
				Position: model.Position{
					Viewport: viewport.Contains(rect),
					Prev:     -1,
					Next:     -1,
				},
				Metadata: BuildMetadata(span.text),
			}
			if _, dup := byID[anchor.ID]; dup {
				s.logf("segment: duplicate anchor id %s for %q", anchor.ID, span.text)
				continue
			}
			byID[anchor.ID] = ordinal
			anchors = append(anchors, anchor)
		}
	}

	assignNeighborsAndSections(anchors, snap, s.cfg.SectionGapPx)

	// Swap in the finished set so readers never see a partial rebuild.
	s.anchors = anchors
	s.byID = byID
	return anchors
}

// Anchors returns the current anchor set from the last pass.
func (s *Segmenter) Anchors() []model.SentenceAnchor {
	return s.anchors
}

// Anchor looks up an anchor by ID, for hover-highlight resolution.
func (s *Segmenter) Anchor(id string) (model.SentenceAnchor, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return model.SentenceAnchor{}, false
	}
	return s.anchors[idx], true
}

// anchorID derives a reproducible identifier from sentence text and ordinal
// position. Same text at the same position always hashes to the same ID.
func anchorID(text string, ordinal int) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("s%d-%s", ordinal, hex.EncodeToString(sum[:])[:8])
}

type sentenceSpan struct {
	text       string
	start, end int // rune offsets in the normalized block text
}

// splitSentences splits normalized text on terminal punctuation followed by
// whitespace or end-of-text. A trailing fragment below minLen merges into
// the previous sentence instead of being dropped; a final fragment meeting
// minLen is emitted even without terminal punctuation. A sentence with no
// punctuation at all comes back as one span, however long.
func splitSentences(text string, minLen int) []sentenceSpan {
	runes := []rune(text)
	var spans []sentenceSpan
	start := 0

	flush := func(end int) {
		raw := strings.TrimSpace(string(runes[start:end]))
		if raw == "" {
			start = end
			return
		}
		// Account for leading whitespace trimmed off the span.
		s := start
		for s < end && unicode.IsSpace(runes[s]) {
			s++
		}
		e := s + len([]rune(raw))

		if len(raw) < minLen {
			if len(spans) > 0 {
				// Merge the short fragment into the previous sentence.
				prev := &spans[len(spans)-1]
				prev.end = e
				prev.text = strings.TrimSpace(string(runes[prev.start:e]))
				start = end
			}
			// No previous sentence: leave start in place so the fragment
			// merges forward into the next candidate.
			return
		}

		spans = append(spans, sentenceSpan{text: raw, start: s, end: e})
		start = end
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '.' || r == '!' || r == '?' {
			atEnd := i == len(runes)-1
			followedBySpace := !atEnd && unicode.IsSpace(runes[i+1])
			if atEnd || followedBySpace {
				flush(i + 1)
			}
		}
	}
	if start < len(runes) {
		flush(len(runes))
	}
	return spans
}

// assignNeighborsAndSections is the second pass: prev/next ordinals clipped
// at document bounds, and section indices that increment on heading-like
// sentences or when the vertical gap between consecutive rects exceeds the
// threshold.
func assignNeighborsAndSections(anchors []model.SentenceAnchor, snap *dom.Snapshot, gapPx float64) {
	headings := headingSet(snap)
	section := 0
	for i := range anchors {
		if i > 0 {
			anchors[i].Position.Prev = i - 1
		}
		if i < len(anchors)-1 {
			anchors[i].Position.Next = i + 1
		}

		if i > 0 {
			gap := anchors[i].Rect.Top - anchors[i-1].Rect.Bottom
			if gap > gapPx || isHeadingLike(anchors[i], headings) {
				section++
			}
		}
		anchors[i].Position.Section = section
	}
}

// isHeadingLike reports whether a sentence reads as a section heading:
// either it came from a heading element, or it is short all-caps text.
func isHeadingLike(a model.SentenceAnchor, headings map[string]bool) bool {
	if headings[pathKey(a.Range.Path)] {
		return true
	}
	if len(a.Text) > 60 {
		return false
	}
	hasLetter := false
	for _, r := range a.Text {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func headingSet(snap *dom.Snapshot) map[string]bool {
	set := make(map[string]bool)
	for _, b := range snap.Blocks() {
		if b.Heading {
			set[pathKey(b.Path)] = true
		}
	}
	return set
}

func pathKey(path []int) string {
	var sb strings.Builder
	for i, p := range path {
		if i > 0 {
			sb.WriteByte('.')
		}
		fmt.Fprintf(&sb, "%d", p)
	}
	return sb.String()
}

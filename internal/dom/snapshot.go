// Package dom parses HTML into a document snapshot with a deterministic
// layout model, so sentence geometry and viewport containment are computable
// without a renderer. Sentence ranges are (node-path, offset) descriptors
// resolved lazily against the snapshot; a range whose backing node was
// detached resolves to a checked error, never a panic.
package dom

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/nkarpenko/slate/internal/model"
)

// ErrRangeInvalid reports that a range's backing node is gone or no longer
// covers the recorded offsets.
var ErrRangeInvalid = errors.New("range invalid: backing node detached or mutated")

// Block is one text-bearing leaf node under the container, laid out.
type Block struct {
	// Path holds child indices from the container root to the text node.
	Path []int

	// Text is the whitespace-normalized node text.
	Text string

	// Heading marks text inside h1-h6 elements.
	Heading bool

	Rect model.Rect

	// origOffsets maps each rune of Text back to its rune offset in the
	// original node data, so ranges address the unmodified document.
	origOffsets []int
	origLen     int
}

// OrigSpan converts a [start,end) rune span in the normalized text to the
// corresponding span in the original node data.
func (b *Block) OrigSpan(start, end int) (int, int, error) {
	if start < 0 || end > len(b.origOffsets) || start >= end {
		return 0, 0, fmt.Errorf("span [%d,%d) outside block of %d runes: %w", start, end, len(b.origOffsets), ErrRangeInvalid)
	}
	return b.origOffsets[start], b.origOffsets[end-1] + 1, nil
}

// Snapshot is a parsed document subtree plus computed geometry. One snapshot
// is owned by one segmenter; it is not safe to share across containers.
type Snapshot struct {
	container *html.Node
	blocks    []Block
	layout    model.LayoutConfig
	height    float64
}

// Parse parses an HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// NewSnapshot lays out the text content of container. An empty container
// yields a snapshot with no blocks, not an error.
func NewSnapshot(container *html.Node, layout model.LayoutConfig) *Snapshot {
	s := &Snapshot{container: container, layout: layout}
	if container != nil {
		s.collect(container, nil, false)
	}
	s.place()
	return s
}

// Blocks returns the laid-out text blocks in document order.
func (s *Snapshot) Blocks() []Block {
	return s.blocks
}

// Height returns the total laid-out document height in pixels.
func (s *Snapshot) Height() float64 {
	return s.height
}

// Layout returns the layout settings the snapshot was built with.
func (s *Snapshot) Layout() model.LayoutConfig {
	return s.layout
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"svg": true, "template": true,
}

var headingElements = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func (s *Snapshot) collect(n *html.Node, path []int, heading bool) {
	if n.Type == html.ElementNode {
		if skippedElements[n.Data] {
			return
		}
		if headingElements[n.Data] {
			heading = true
		}
	}

	if n.Type == html.TextNode {
		text, offsets := normalize(n.Data)
		if text != "" {
			s.blocks = append(s.blocks, Block{
				Path:        append([]int(nil), path...),
				Text:        text,
				Heading:     heading,
				origOffsets: offsets,
				origLen:     len([]rune(n.Data)),
			})
		}
		return
	}

	idx := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.collect(c, append(path, idx), heading)
		idx++
	}
}

// place assigns each block a rect by flowing blocks vertically: a block
// occupies ceil(runes/charsPerLine) lines, with a gap above it that widens
// for headings.
func (s *Snapshot) place() {
	cpl := s.layout.CharsPerLine
	if cpl <= 0 {
		cpl = 80
	}
	charW := s.layout.ViewportWidth / float64(cpl)

	y := 0.0
	for i := range s.blocks {
		b := &s.blocks[i]

		gap := s.layout.BlockGapPx
		if b.Heading {
			gap = s.layout.HeadingGapPx
		}
		if i > 0 {
			y += gap
		}

		runes := len([]rune(b.Text))
		lines := int(math.Ceil(float64(runes) / float64(cpl)))
		if lines < 1 {
			lines = 1
		}

		right := s.layout.ViewportWidth
		if lines == 1 {
			right = float64(runes) * charW
		}

		b.Rect = model.Rect{
			Top:    y,
			Bottom: y + float64(lines)*s.layout.LineHeightPx,
			Left:   0,
			Right:  right,
		}
		y = b.Rect.Bottom
	}
	s.height = y
}

// SpanRect computes the bounding rect of a [start,end) rune span within a
// block, in layout pixels.
func (s *Snapshot) SpanRect(b Block, start, end int) model.Rect {
	cpl := s.layout.CharsPerLine
	if cpl <= 0 {
		cpl = 80
	}
	charW := s.layout.ViewportWidth / float64(cpl)

	if end <= start {
		end = start + 1
	}
	startLine := start / cpl
	endLine := (end - 1) / cpl

	rect := model.Rect{
		Top:    b.Rect.Top + float64(startLine)*s.layout.LineHeightPx,
		Bottom: b.Rect.Top + float64(endLine+1)*s.layout.LineHeightPx,
	}
	if startLine == endLine {
		rect.Left = float64(start%cpl) * charW
		rect.Right = float64(((end-1)%cpl)+1) * charW
	} else {
		rect.Left = 0
		rect.Right = s.layout.ViewportWidth
	}
	return rect
}

// MakeRange builds a range descriptor for a span of a block's original node
// data, validating that the span currently resolves.
func (s *Snapshot) MakeRange(b Block, origStart, origEnd int) (model.RangeRef, error) {
	ref := model.RangeRef{Path: append([]int(nil), b.Path...), Start: origStart, End: origEnd}
	if _, err := s.Resolve(ref); err != nil {
		return model.RangeRef{}, err
	}
	return ref, nil
}

// Resolve walks the live tree to the range's text node and returns the
// verbatim original substring. Returns ErrRangeInvalid when the path no
// longer leads to a text node or the offsets no longer fit, which is the
// expected outcome after document mutation.
func (s *Snapshot) Resolve(ref model.RangeRef) (string, error) {
	if s.container == nil {
		return "", ErrRangeInvalid
	}
	n := s.container
	for _, idx := range ref.Path {
		c := n.FirstChild
		for i := 0; i < idx && c != nil; i++ {
			c = c.NextSibling
		}
		if c == nil {
			return "", ErrRangeInvalid
		}
		n = c
	}
	if n.Type != html.TextNode {
		return "", ErrRangeInvalid
	}
	runes := []rune(n.Data)
	if ref.Start < 0 || ref.End > len(runes) || ref.Start >= ref.End {
		return "", ErrRangeInvalid
	}
	return string(runes[ref.Start:ref.End]), nil
}

// normalize collapses whitespace runs to single spaces and trims, returning
// the normalized text and a per-rune map back to original rune offsets.
func normalize(data string) (string, []int) {
	var out strings.Builder
	var offsets []int
	pendingSpace := false
	started := false

	for i, r := range []rune(data) {
		if unicode.IsSpace(r) {
			if started {
				pendingSpace = true
			}
			continue
		}
		if pendingSpace {
			out.WriteRune(' ')
			offsets = append(offsets, i-1)
			pendingSpace = false
		}
		out.WriteRune(r)
		offsets = append(offsets, i)
		started = true
	}
	return out.String(), offsets
}

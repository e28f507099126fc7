package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/nkarpenko/slate/internal/dom"
	"github.com/nkarpenko/slate/internal/llm"
	"github.com/nkarpenko/slate/internal/model"
	"github.com/nkarpenko/slate/internal/segment"
	"github.com/nkarpenko/slate/internal/selection"
)

// SelectURL fetches an article and runs the selection flow on selText.
func (p *Pipeline) SelectURL(ctx context.Context, rawURL, selText string) (*model.InlineAnswerCard, error) {
	fetched, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return p.SelectHTML(ctx, fetched.HTML, siteProfile(fetched.FinalURL), selText)
}

// SelectHTML drives the selection state machine for selText: the selection
// anchors to the first sentence containing it, the activation gesture
// fires, and the resulting inline card is returned once open.
func (p *Pipeline) SelectHTML(ctx context.Context, htmlText, profile, selText string) (*model.InlineAnswerCard, error) {
	doc, err := dom.Parse(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	container := dom.FindContainer(doc, profile)
	if container == nil {
		return nil, fmt.Errorf("no readable content container found")
	}

	snap := dom.NewSnapshot(container, p.config.Layout)
	segmenter := segment.NewSegmenter(p.config.Segment, p.logf())
	segmenter.Segment(snap, p.config.Layout.Viewport())

	mgr := selection.NewManager(p.config.Selection, p.builder, segmenter, p.gen, llm.Settings{
		Model:       p.config.LLM.Model,
		MaxTokens:   p.config.LLM.MaxTokens,
		Temperature: p.config.LLM.Temperature,
	}, systemPrompt)

	cards := make(chan *model.InlineAnswerCard, 2)
	mgr.Notify = func(card *model.InlineAnswerCard) { cards <- card }

	sel := selection.SelectionChanged{Text: selText}
	if anchor, ok := anchorContaining(segmenter, selText); ok {
		sel.AnchorID = anchor.ID
		sel.Rect = anchor.Rect
	}
	mgr.Dispatch(ctx, sel)
	mgr.Dispatch(ctx, selection.Activate{})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case card := <-cards:
		return card, nil
	}
}

// anchorContaining finds the first anchor whose text contains the
// selection, preferring on-screen anchors.
func anchorContaining(src selection.AnchorSource, selText string) (model.SentenceAnchor, bool) {
	needle := strings.TrimSpace(selText)
	var offscreen *model.SentenceAnchor
	for _, a := range src.Anchors() {
		if !strings.Contains(a.Text, needle) {
			continue
		}
		if a.Position.Viewport {
			return a, true
		}
		if offscreen == nil {
			hit := a
			offscreen = &hit
		}
	}
	if offscreen != nil {
		return *offscreen, true
	}
	return model.SentenceAnchor{}, false
}

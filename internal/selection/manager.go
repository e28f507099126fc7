// Package selection orchestrates the selection-first answer flow as an
// explicit state machine: discrete input events enter through a single
// dispatch function, at most one inline answer card is active, and stale
// generation results are discarded by request token.
package selection

import (
	"context"
	"strings"
	"sync"

	"github.com/nkarpenko/slate/internal/conversation"
	"github.com/nkarpenko/slate/internal/llm"
	"github.com/nkarpenko/slate/internal/model"
	"github.com/nkarpenko/slate/internal/pack"
)

// State is the manager's position in the selection flow.
type State int

const (
	StateIdle State = iota
	StateSelectionPending
	StateAnswerGenerating
	StateCardVisible
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelectionPending:
		return "selection-pending"
	case StateAnswerGenerating:
		return "answer-generating"
	case StateCardVisible:
		return "card-visible"
	default:
		return "unknown"
	}
}

// Event is a discrete input to the state machine.
type Event interface{ isEvent() }

// SelectionChanged reports a non-collapsed text selection.
type SelectionChanged struct {
	Text     string
	AnchorID string
	Rect     model.Rect
}

// SelectionCleared reports the selection collapsing.
type SelectionCleared struct{}

// Activate is the activation gesture.
type Activate struct{}

// Escape is the escape key.
type Escape struct{}

// ClickOutside is a click outside the active card.
type ClickOutside struct{}

// generationFinished re-enters the machine when an async generation ends.
// It carries the question synthesized at launch time so a selection cleared
// mid-flight cannot blank the card.
type generationFinished struct {
	token    uint64
	question string
	answer   string
	err      error
}

func (SelectionChanged) isEvent()   {}
func (SelectionCleared) isEvent()   {}
func (Activate) isEvent()           {}
func (Escape) isEvent()             {}
func (ClickOutside) isEvent()       {}
func (generationFinished) isEvent() {}

// AnchorSource supplies the current anchor set and per-ID lookup.
type AnchorSource interface {
	Anchors() []model.SentenceAnchor
	Anchor(id string) (model.SentenceAnchor, bool)
}

// Manager runs the selection flow for one container.
type Manager struct {
	cfg     model.SelectionConfig
	builder *pack.Builder
	anchors AnchorSource

	// gen is optional; nil means extractive-only answering.
	gen         llm.Generator
	genSettings llm.Settings
	sysPrompt   string

	// Notify receives every opened card, including error cards. May be nil.
	Notify func(*model.InlineAnswerCard)

	mu        sync.Mutex
	state     State
	selection *SelectionChanged
	card      *model.InlineAnswerCard
	token     uint64
}

// NewManager creates a selection manager. gen may be nil for
// extractive-only operation.
func NewManager(cfg model.SelectionConfig, builder *pack.Builder, anchors AnchorSource, gen llm.Generator, genSettings llm.Settings, sysPrompt string) *Manager {
	return &Manager{
		cfg:         cfg,
		builder:     builder,
		anchors:     anchors,
		gen:         gen,
		genSettings: genSettings,
		sysPrompt:   sysPrompt,
	}
}

// State returns the current machine state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Card returns the active card, nil when none.
func (m *Manager) Card() *model.InlineAnswerCard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.card
}

// Dispatch feeds one event through the state machine.
func (m *Manager) Dispatch(ctx context.Context, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e := ev.(type) {
	case SelectionChanged:
		if len(strings.TrimSpace(e.Text)) < m.cfg.MinSelectionLen {
			return
		}
		sel := e
		m.selection = &sel
		// A new selection supersedes any visible card and any in-flight
		// generation; the stale result is discarded by token.
		if m.state == StateCardVisible || m.state == StateAnswerGenerating {
			m.closeCardLocked()
		}
		m.state = StateSelectionPending

	case SelectionCleared:
		m.selection = nil
		if m.state == StateSelectionPending {
			m.state = StateIdle
		}

	case Activate:
		if m.selection == nil {
			// Prompt-to-select sub-state: surface a message, loop to idle.
			m.openCardLocked(&model.InlineAnswerCard{
				Kind:   model.CardError,
				Answer: "Select some text first, then activate again.",
			})
			m.state = StateIdle
			return
		}
		m.startGenerationLocked(ctx)

	case Escape, ClickOutside:
		if m.state == StateCardVisible {
			m.closeCardLocked()
			m.state = StateIdle
		}

	case generationFinished:
		if e.token != m.token {
			// Superseded request; drop the result on the floor.
			return
		}
		if m.state != StateAnswerGenerating {
			return
		}
		m.finishGenerationLocked(e)
	}
}

// startGenerationLocked builds the pack and either answers extractively or
// launches the streaming generation.
func (m *Manager) startGenerationLocked(ctx context.Context) {
	m.state = StateAnswerGenerating
	m.token++
	token := m.token

	sel := *m.selection
	question := SynthesizeQuestion(sel.Text, m.cfg)
	p := m.builder.Build(question, m.anchors.Anchors())
	slate := pack.BuildEvidenceSlate(p, nil)

	if m.gen == nil {
		answer, citations := ExtractiveAnswer(p)
		if answer == "" {
			answer = "No evidence found on screen for this selection."
		}
		m.openCardLocked(m.assembleCard(question, answer, citations, p, sel, false))
		m.state = StateCardVisible
		return
	}

	prompt := m.buildGenPrompt(question, slate)
	go func() {
		var out strings.Builder
		err := m.gen.Generate(ctx, prompt, func(text string) {
			out.WriteString(text)
		}, m.genSettings)
		m.Dispatch(ctx, generationFinished{token: token, question: question, answer: out.String(), err: err})
	}()
}

func (m *Manager) finishGenerationLocked(e generationFinished) {
	sel := SelectionChanged{}
	if m.selection != nil {
		sel = *m.selection
	}
	question := e.question
	p := m.builder.Build(question, m.anchors.Anchors())

	if e.err != nil {
		if e.answer != "" {
			// Keep whatever streamed before the failure, flagged partial.
			card := m.assembleCard(question, e.answer, nil, p, sel, true)
			m.openCardLocked(card)
			m.state = StateCardVisible
			return
		}
		msg := "Answer generation failed. Try again."
		if llm.IsAuthError(e.err) {
			msg = "Authentication failed. Sign in again to continue."
		}
		m.openCardLocked(&model.InlineAnswerCard{
			Kind:     model.CardError,
			Question: question,
			Answer:   msg,
		})
		m.state = StateIdle
		return
	}

	answer := CapSentences(strings.TrimSpace(e.answer), 2)
	m.openCardLocked(m.assembleCard(question, answer, CitedIDs(answer), p, sel, false))
	m.state = StateCardVisible
}

func (m *Manager) assembleCard(question, answer string, citations []string, p *model.ContextPack, sel SelectionChanged, partial bool) *model.InlineAnswerCard {
	return &model.InlineAnswerCard{
		Kind:       model.CardAnswer,
		Question:   question,
		Answer:     answer,
		Citations:  citations,
		Confidence: p.Confidence,
		Anchor: model.CardAnchorPos{
			AnchorID: sel.AnchorID,
			Top:      sel.Rect.Bottom,
			Left:     sel.Rect.Left,
		},
		FollowUps: deriveFollowUps(p),
		Numeric:   numericCardFor(sel.Text, p),
		Partial:   partial,
	}
}

func (m *Manager) buildGenPrompt(question string, slate *model.EvidenceSlate) []model.Message {
	return []model.Message{
		{Role: model.RoleSystem, Content: m.sysPrompt},
		{Role: model.RoleSystem, Content: conversation.FormatSlate(slate)},
		{Role: model.RoleUser, Content: question + "\nAnswer in at most two sentences, citing evidence as [sid:<id>]."},
	}
}

// openCardLocked replaces the active card; opening a new card is an
// implicit close of the previous one, cards are never stacked.
func (m *Manager) openCardLocked(card *model.InlineAnswerCard) {
	m.card = card
	if m.Notify != nil {
		m.Notify(card)
	}
}

func (m *Manager) closeCardLocked() {
	m.card = nil
}

// CitedIDs pulls [sid:<id>] citations out of generated answer text.
func CitedIDs(answer string) []string {
	var ids []string
	rest := answer
	for {
		i := strings.Index(rest, "[sid:")
		if i < 0 {
			return ids
		}
		rest = rest[i+len("[sid:"):]
		j := strings.Index(rest, "]")
		if j < 0 {
			return ids
		}
		ids = append(ids, rest[:j])
		rest = rest[j+1:]
	}
}

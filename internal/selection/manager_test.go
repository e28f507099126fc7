package selection

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nkarpenko/slate/internal/llm"
	"github.com/nkarpenko/slate/internal/model"
	"github.com/nkarpenko/slate/internal/pack"
	"github.com/nkarpenko/slate/internal/segment"
)

func testSelectionConfig() model.SelectionConfig {
	return model.SelectionConfig{MinSelectionLen: 3, ShortSelectionLen: 20}
}

func testBuilder() *pack.Builder {
	return pack.NewBuilder(model.PackConfig{
		KPrimary: 5, KNeighbor: 3, KSection: 2,
		KeywordWeight: 2, NumericBonus: 3, UnitBonus: 2, RoleBonus: 2,
	}, model.RankConfig{K1: 1.2, B: 0.75})
}

type fakeAnchors struct {
	list []model.SentenceAnchor
}

func (f fakeAnchors) Anchors() []model.SentenceAnchor { return f.list }

func (f fakeAnchors) Anchor(id string) (model.SentenceAnchor, bool) {
	for _, a := range f.list {
		if a.ID == id {
			return a, true
		}
	}
	return model.SentenceAnchor{}, false
}

func testAnchors() fakeAnchors {
	mk := func(id, text string, ordinal int) model.SentenceAnchor {
		return model.SentenceAnchor{
			ID:      id,
			Text:    text,
			Ordinal: ordinal,
			Position: model.Position{
				Viewport: true,
				Prev:     ordinal - 1,
				Next:     ordinal + 1,
			},
			Metadata: segment.BuildMetadata(text),
		}
	}
	a := mk("s0-boil", "Water boils at 100°C at sea level.", 0)
	b := mk("s1-pres", "Higher pressure raises the boiling point considerably.", 1)
	b.Position.Next = -1
	return fakeAnchors{list: []model.SentenceAnchor{a, b}}
}

// fakeGen delegates Generate to a test-provided function.
type fakeGen struct {
	fn func(ctx context.Context, messages []model.Message, onChunk llm.ChunkFunc) error
}

func (g *fakeGen) Name() string                         { return "fake" }
func (g *fakeGen) IsAvailable(ctx context.Context) bool { return true }

func (g *fakeGen) Generate(ctx context.Context, messages []model.Message, onChunk llm.ChunkFunc, settings llm.Settings) error {
	return g.fn(ctx, messages, onChunk)
}

func streamingGen(chunks []string, err error) *fakeGen {
	return &fakeGen{fn: func(ctx context.Context, messages []model.Message, onChunk llm.ChunkFunc) error {
		for _, c := range chunks {
			onChunk(c)
		}
		return err
	}}
}

func newTestManager(gen llm.Generator) (*Manager, chan *model.InlineAnswerCard) {
	m := NewManager(testSelectionConfig(), testBuilder(), testAnchors(), gen, llm.Settings{}, "sys")
	cards := make(chan *model.InlineAnswerCard, 4)
	m.Notify = func(card *model.InlineAnswerCard) { cards <- card }
	return m, cards
}

func waitCard(t *testing.T, cards chan *model.InlineAnswerCard) *model.InlineAnswerCard {
	t.Helper()
	select {
	case card := <-cards:
		return card
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for card")
		return nil
	}
}

func TestDispatch_ExtractiveFlow(t *testing.T) {
	m, cards := newTestManager(nil)
	ctx := context.Background()

	m.Dispatch(ctx, SelectionChanged{Text: "boils at 100°C", AnchorID: "s0-boil"})
	if m.State() != StateSelectionPending {
		t.Fatalf("state = %s, want selection-pending", m.State())
	}

	m.Dispatch(ctx, Activate{})
	card := waitCard(t, cards)

	if m.State() != StateCardVisible {
		t.Errorf("state = %s, want card-visible", m.State())
	}
	if card.Kind != model.CardAnswer {
		t.Fatalf("card kind = %s, want answer", card.Kind)
	}
	if !strings.Contains(card.Answer, "[sid:") {
		t.Errorf("extractive answer missing citation: %q", card.Answer)
	}
	if len(card.FollowUps) < 3 || len(card.FollowUps) > 5 {
		t.Errorf("follow-ups = %d, want 3-5", len(card.FollowUps))
	}
}

func TestDispatch_ShortSelectionIgnored(t *testing.T) {
	m, _ := newTestManager(nil)
	m.Dispatch(context.Background(), SelectionChanged{Text: "ab"})
	if m.State() != StateIdle {
		t.Errorf("state = %s, want idle for sub-minimum selection", m.State())
	}
}

func TestDispatch_SelectionCleared(t *testing.T) {
	m, _ := newTestManager(nil)
	ctx := context.Background()
	m.Dispatch(ctx, SelectionChanged{Text: "boiling point"})
	m.Dispatch(ctx, SelectionCleared{})
	if m.State() != StateIdle {
		t.Errorf("state = %s, want idle after clear", m.State())
	}
}

func TestDispatch_ActivateWithoutSelection(t *testing.T) {
	m, cards := newTestManager(nil)
	m.Dispatch(context.Background(), Activate{})

	card := waitCard(t, cards)
	if card.Kind != model.CardError {
		t.Errorf("card kind = %s, want error prompt", card.Kind)
	}
	if m.State() != StateIdle {
		t.Errorf("state = %s, want idle", m.State())
	}
}

func TestDispatch_EscapeClosesCard(t *testing.T) {
	m, cards := newTestManager(nil)
	ctx := context.Background()

	m.Dispatch(ctx, SelectionChanged{Text: "boiling point"})
	m.Dispatch(ctx, Activate{})
	waitCard(t, cards)

	m.Dispatch(ctx, Escape{})
	if m.State() != StateIdle {
		t.Errorf("state = %s, want idle after escape", m.State())
	}
	if m.Card() != nil {
		t.Error("card should be closed")
	}
}

func TestDispatch_GeneratedAnswerCapped(t *testing.T) {
	gen := streamingGen([]string{
		"First sentence here. ",
		"Second sentence here. ",
		"Third sentence that must be dropped.",
	}, nil)
	m, cards := newTestManager(gen)
	ctx := context.Background()

	m.Dispatch(ctx, SelectionChanged{Text: "boiling point"})
	m.Dispatch(ctx, Activate{})
	card := waitCard(t, cards)

	if strings.Contains(card.Answer, "Third sentence") {
		t.Errorf("answer not capped at two sentences: %q", card.Answer)
	}
	if !strings.Contains(card.Answer, "Second sentence") {
		t.Errorf("answer lost its second sentence: %q", card.Answer)
	}
	if m.State() != StateCardVisible {
		t.Errorf("state = %s, want card-visible", m.State())
	}
}

func TestDispatch_PartialPreservedOnFailure(t *testing.T) {
	gen := streamingGen([]string{"Streamed prefix before the failure."}, errors.New("connection reset"))
	m, cards := newTestManager(gen)
	ctx := context.Background()

	m.Dispatch(ctx, SelectionChanged{Text: "boiling point"})
	m.Dispatch(ctx, Activate{})
	card := waitCard(t, cards)

	if !card.Partial {
		t.Error("card should be flagged partial")
	}
	if !strings.Contains(card.Answer, "Streamed prefix") {
		t.Errorf("streamed prefix dropped: %q", card.Answer)
	}
	if m.State() != StateCardVisible {
		t.Errorf("state = %s, want card-visible with partial answer", m.State())
	}
}

func TestDispatch_AuthErrorCard(t *testing.T) {
	gen := streamingGen(nil, fmt.Errorf("401: %w", llm.ErrAuth))
	m, cards := newTestManager(gen)
	ctx := context.Background()

	m.Dispatch(ctx, SelectionChanged{Text: "boiling point"})
	m.Dispatch(ctx, Activate{})
	card := waitCard(t, cards)

	if card.Kind != model.CardError {
		t.Fatalf("card kind = %s, want error", card.Kind)
	}
	if !strings.Contains(card.Answer, "Sign in") {
		t.Errorf("auth failure should prompt re-login, got %q", card.Answer)
	}
	if m.State() != StateIdle {
		t.Errorf("state = %s, want idle after error card", m.State())
	}
}

func TestDispatch_StaleGenerationDiscarded(t *testing.T) {
	gateA := make(chan struct{})
	gen := &fakeGen{fn: func(ctx context.Context, messages []model.Message, onChunk llm.ChunkFunc) error {
		question := messages[len(messages)-1].Content
		if strings.Contains(question, "boiling point") {
			<-gateA
			onChunk("Answer for the first selection.")
			return nil
		}
		onChunk("Answer for the second selection.")
		return nil
	}}
	m, cards := newTestManager(gen)
	ctx := context.Background()

	m.Dispatch(ctx, SelectionChanged{Text: "boiling point"})
	m.Dispatch(ctx, Activate{})

	// A second selection and activation supersede the in-flight request.
	m.Dispatch(ctx, SelectionChanged{Text: "100°C at sea level"})
	m.Dispatch(ctx, Activate{})

	card := waitCard(t, cards)
	if !strings.Contains(card.Answer, "second selection") {
		t.Fatalf("expected the superseding answer, got %q", card.Answer)
	}

	// Let the first generation finish; its result must be discarded.
	close(gateA)
	time.Sleep(100 * time.Millisecond)

	current := m.Card()
	if current == nil || !strings.Contains(current.Answer, "second selection") {
		t.Errorf("stale generation replaced the active card: %+v", current)
	}
	if m.State() != StateCardVisible {
		t.Errorf("state = %s, want card-visible", m.State())
	}
}

func TestDispatch_ClearMidGenerationKeepsQuestion(t *testing.T) {
	gate := make(chan struct{})
	gen := &fakeGen{fn: func(ctx context.Context, messages []model.Message, onChunk llm.ChunkFunc) error {
		<-gate
		onChunk("Water boils at sea level at this temperature.")
		return nil
	}}
	m, cards := newTestManager(gen)
	ctx := context.Background()

	m.Dispatch(ctx, SelectionChanged{Text: "boiling point"})
	m.Dispatch(ctx, Activate{})

	// The selection collapses while the answer is still streaming.
	m.Dispatch(ctx, SelectionCleared{})
	close(gate)

	card := waitCard(t, cards)
	want := SynthesizeQuestion("boiling point", testSelectionConfig())
	if card.Question != want {
		t.Errorf("card question = %q, want the question synthesized at launch %q", card.Question, want)
	}
	if strings.Contains(card.Question, `""`) {
		t.Errorf("question synthesized from empty selection: %q", card.Question)
	}
}

func TestSynthesizeQuestion(t *testing.T) {
	cfg := testSelectionConfig()
	tests := []struct {
		sel  string
		want string
	}{
		{"entropy", `What does "entropy" mean?`},
		{"reached 100°C at noon on the dot", `What do the numbers in "reached 100°C at noon on the dot" represent?`},
		{"a long passage of ordinary prose without figures", `Explain this passage: "a long passage of ordinary prose without figures"`},
	}
	for _, tt := range tests {
		if got := SynthesizeQuestion(tt.sel, cfg); got != tt.want {
			t.Errorf("SynthesizeQuestion(%q) = %q, want %q", tt.sel, got, tt.want)
		}
	}
}

func TestCapSentences(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want string
	}{
		{"One. Two. Three.", 2, "One. Two."},
		{"Only one sentence.", 2, "Only one sentence."},
		{"No terminal punctuation", 2, "No terminal punctuation"},
		{"Pi is 3.14 about. Next one. Third one.", 2, "Pi is 3.14 about. Next one."},
	}
	for _, tt := range tests {
		if got := CapSentences(tt.text, tt.n); got != tt.want {
			t.Errorf("CapSentences(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
		}
	}
}

func TestCitedIDs(t *testing.T) {
	got := CitedIDs("Water boils [sid:s0-abc]. Pressure matters [sid:s1-def].")
	want := []string{"s0-abc", "s1-def"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CitedIDs = %v, want %v", got, want)
	}
	if got := CitedIDs("no citations here"); got != nil {
		t.Errorf("CitedIDs = %v, want nil", got)
	}
}

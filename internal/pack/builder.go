// Package pack assembles a scored, bounded evidence bundle for one question
// from the current sentence anchors, and projects it into the slate handed
// to generation.
package pack

import (
	"sort"
	"strings"
	"time"

	"github.com/nkarpenko/slate/internal/model"
	"github.com/nkarpenko/slate/internal/rank"
	"github.com/nkarpenko/slate/internal/segment"
)

// Builder builds context packs. Packs are immutable once built; a new
// question produces a new pack.
type Builder struct {
	cfg     model.PackConfig
	rankCfg model.RankConfig
}

// NewBuilder creates a builder.
func NewBuilder(cfg model.PackConfig, rankCfg model.RankConfig) *Builder {
	return &Builder{cfg: cfg, rankCfg: rankCfg}
}

// Build assembles a pack for the question against the anchor set. No
// anchors means the defined empty pack with low confidence, never an error.
func (b *Builder) Build(question string, anchors []model.SentenceAnchor) *model.ContextPack {
	if len(anchors) == 0 {
		return model.EmptyPack(question)
	}

	primary := b.primaryEvidence(question, anchors)
	neighbors := b.neighborEvidence(primary, anchors)
	sections := b.sectionContext(primary, anchors)

	p := &model.ContextPack{
		Question:       question,
		BuiltAt:        time.Now().UTC(),
		Primary:        primary,
		Neighbors:      neighbors,
		SectionContext: sections,
		NumericFacts:   collectFacts(anchors),
	}
	p.Confidence = model.ConfidenceFor(p.EvidenceCount())
	p.Contradictions = detectContradictions(append(append([]model.SentenceAnchor{}, primary...), neighbors...))
	return p
}

// primaryEvidence restricts candidates to viewport-anchored sentences,
// scores them against the question, and takes the top KPrimary. When the
// keyword heuristic is uninformative for every candidate, BM25 over the
// same candidates supplies the ordering instead.
func (b *Builder) primaryEvidence(question string, anchors []model.SentenceAnchor) []model.SentenceAnchor {
	var candidates []model.SentenceAnchor
	for _, a := range anchors {
		if a.Position.Viewport {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	scores := make(map[string]float64, len(candidates))
	any := false
	for _, a := range candidates {
		s := b.relevance(question, a)
		scores[a.ID] = s
		if s > 0 {
			any = true
		}
	}

	if !any {
		ix := rank.NewIndex(b.rankCfg)
		ix.Build(candidates)
		for _, r := range ix.Search(question, 0) {
			scores[r.ID] = r.Score
			any = any || r.Score != 0
		}
	}

	ordered := append([]model.SentenceAnchor(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return scores[ordered[i].ID] > scores[ordered[j].ID]
	})

	if len(ordered) > b.cfg.KPrimary {
		ordered = ordered[:b.cfg.KPrimary]
	}
	return ordered
}

// relevance is the viewport-first scoring heuristic: keyword overlap plus
// numeric, unit, and rhetorical-role bonuses.
func (b *Builder) relevance(question string, a model.SentenceAnchor) float64 {
	lowerText := strings.ToLower(a.Text)
	score := 0.0

	for _, tok := range questionTokens(question) {
		if strings.Contains(lowerText, tok) {
			score += b.cfg.KeywordWeight
		}
	}

	if a.Metadata.HasNumbers && segment.NumberPattern.MatchString(question) {
		score += b.cfg.NumericBonus
	}
	if a.Metadata.HasUnits && segment.ContainsUnitToken(question) {
		score += b.cfg.UnitBonus
	}
	if roleMatchesIntent(a.Metadata.Role, question) {
		score += b.cfg.RoleBonus
	}
	return score
}

// questionTokens lowercases the question and keeps tokens longer than two
// characters.
func questionTokens(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	var tokens []string
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

var definitionIntents = []string{"what", "define", "definition", "meaning", " is "}
var evidenceIntents = []string{"how", "why", "evidence", "show", "prove"}

func roleMatchesIntent(role model.RhetoricalRole, question string) bool {
	lower := strings.ToLower(question)
	switch role {
	case model.RoleDefinition:
		for _, kw := range definitionIntents {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	case model.RoleEvidence:
		for _, kw := range evidenceIntents {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// neighborEvidence resolves the ±1 neighbor indices of the primary
// sentences back to anchors, excluding anything already in primary, capped
// at KNeighbor.
func (b *Builder) neighborEvidence(primary, anchors []model.SentenceAnchor) []model.SentenceAnchor {
	inPrimary := make(map[string]bool, len(primary))
	for _, p := range primary {
		inPrimary[p.ID] = true
	}

	seen := make(map[string]bool)
	var neighbors []model.SentenceAnchor
	for _, p := range primary {
		for _, idx := range []int{p.Position.Prev, p.Position.Next} {
			if idx < 0 || idx >= len(anchors) {
				continue
			}
			n := anchors[idx]
			if inPrimary[n.ID] || seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			neighbors = append(neighbors, n)
			if len(neighbors) == b.cfg.KNeighbor {
				return neighbors
			}
		}
	}
	return neighbors
}

// sectionContext emits the first sentence of each distinct section touched
// by primary evidence as that section's gist, capped at KSection.
func (b *Builder) sectionContext(primary, anchors []model.SentenceAnchor) []model.SentenceAnchor {
	seen := make(map[int]bool)
	var gists []model.SentenceAnchor
	for _, p := range primary {
		sec := p.Position.Section
		if seen[sec] {
			continue
		}
		seen[sec] = true
		for _, a := range anchors {
			if a.Position.Section == sec {
				gists = append(gists, a)
				break
			}
		}
		if len(gists) == b.cfg.KSection {
			break
		}
	}
	return gists
}

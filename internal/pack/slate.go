package pack

import "github.com/nkarpenko/slate/internal/model"

// StructureSource supplies structured tables and figures for the slate.
// Table/figure structuring is delegated to an external parser; the core
// only carries what it is handed.
type StructureSource interface {
	Tables() []model.Table
	Figures() []model.Figure
}

// BuildEvidenceSlate flattens a pack into the payload handed to generation:
// primary then neighbor sentences in one ordered list, plus tables, figures,
// facts, and confidence. Pure projection; no re-scoring, no filtering, no
// mutation of the input pack.
func BuildEvidenceSlate(p *model.ContextPack, structures StructureSource) *model.EvidenceSlate {
	sentences := make([]model.SentenceAnchor, 0, len(p.Primary)+len(p.Neighbors))
	sentences = append(sentences, p.Primary...)
	sentences = append(sentences, p.Neighbors...)

	tables := []model.Table{}
	figures := []model.Figure{}
	if structures != nil {
		if t := structures.Tables(); t != nil {
			tables = t
		}
		if f := structures.Figures(); f != nil {
			figures = f
		}
	}

	facts := make([]string, len(p.NumericFacts))
	copy(facts, p.NumericFacts)

	return &model.EvidenceSlate{
		Sentences:    sentences,
		Tables:       tables,
		Figures:      figures,
		NumericFacts: facts,
		Confidence:   p.Confidence,
	}
}

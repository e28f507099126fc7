package pack

import (
	"strings"

	"github.com/nkarpenko/slate/internal/model"
)

// conceptKeywords is the naive concept vocabulary for contradiction
// flagging. Co-occurrence only: when two or more evidence sentences touch
// the same concept they are flagged as a contradiction candidate. This may
// under- or over-report; it is not semantic contradiction detection.
var conceptKeywords = map[string][]string{
	"temperature": {"temperature", "°c", "°f", "celsius", "fahrenheit", "degrees"},
	"speed":       {"speed", "velocity", "km/h", "mph", "faster", "slower"},
	"size":        {"size", "length", "width", "height", "area", "larger", "smaller"},
	"time":        {"duration", "hours", "minutes", "years", "decades", "earlier", "later"},
	"cost":        {"cost", "price", "$", "€", "cheaper", "expensive"},
	"quantity":    {"amount", "count", "total", "number of"},
}

// detectContradictions groups evidence sentences by concept keyword and
// flags concepts addressed by at least two sentences. Absence of flags does
// not imply absence of real contradictions.
func detectContradictions(evidence []model.SentenceAnchor) []model.Contradiction {
	byConcept := make(map[string][]model.ConflictingStatement)
	for _, a := range evidence {
		lower := strings.ToLower(a.Text)
		for concept, kws := range conceptKeywords {
			for _, kw := range kws {
				if strings.Contains(lower, kw) {
					byConcept[concept] = append(byConcept[concept], model.ConflictingStatement{
						AnchorID: a.ID,
						Text:     a.Text,
					})
					break
				}
			}
		}
	}

	var out []model.Contradiction
	for _, concept := range []string{"temperature", "speed", "size", "time", "cost", "quantity"} {
		if stmts := byConcept[concept]; len(stmts) >= 2 {
			out = append(out, model.Contradiction{Concept: concept, Statements: stmts})
		}
	}
	return out
}

package selection

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nkarpenko/slate/internal/model"
	"github.com/nkarpenko/slate/internal/pack"
)

// ExtractiveAnswer composes a no-backend answer strictly from verbatim
// evidence: the leading evidence sentence, optionally prefixed by a count
// of detected numeric facts, hard-capped at two sentences. Nothing is
// summarized or paraphrased.
func ExtractiveAnswer(p *model.ContextPack) (string, []string) {
	if len(p.Primary) == 0 {
		return "", nil
	}

	lead := p.Primary[0]
	answer := lead.Text
	if n := len(p.NumericFacts); n > 0 {
		answer = fmt.Sprintf("Found %d numeric facts nearby. %s", n, answer)
	}

	answer = CapSentences(answer, 2)
	answer = fmt.Sprintf("%s [sid:%s]", answer, lead.ID)
	return answer, []string{lead.ID}
}

// CapSentences truncates text to at most n sentences by splitting on
// terminal punctuation. Capping by construction, not display truncation.
func CapSentences(text string, n int) string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			atEnd := i == len(runes)-1
			if atEnd || unicode.IsSpace(runes[i+1]) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
				if len(sentences) == n {
					return strings.Join(sentences, " ")
				}
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return strings.Join(sentences, " ")
}

// numericCardFor builds the compact numeric card when the selection itself
// is a single extractable value.
func numericCardFor(selText string, p *model.ContextPack) *model.NumericCard {
	facts := pack.ExtractFacts(selText)
	if len(facts) != 1 {
		return nil
	}
	card := &model.NumericCard{Value: facts[0]}
	if len(p.Primary) > 0 {
		card.Context = p.Primary[0].Text
	}
	return card
}

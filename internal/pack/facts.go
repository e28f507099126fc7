package pack

import (
	"sort"

	"github.com/nkarpenko/slate/internal/model"
	"github.com/nkarpenko/slate/internal/segment"
)

// ExtractFacts pulls verbatim numeric/date/percentage substrings out of a
// sentence, in source order. Every returned string is byte-for-byte a
// substring of text; nothing is paraphrased.
func ExtractFacts(text string) []string {
	type match struct {
		start int
		fact  string
	}
	var matches []match
	for _, re := range []interface {
		FindAllStringIndex(string, int) [][]int
	}{
		segment.NumberUnitPattern,
		segment.PercentPattern,
		segment.ISODatePattern,
		segment.MonthDatePattern,
	} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			matches = append(matches, match{start: loc[0], fact: text[loc[0]:loc[1]]})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	facts := make([]string, 0, len(matches))
	for _, m := range matches {
		facts = append(facts, m.fact)
	}
	return facts
}

// collectFacts scans every anchor flagged for numeric content and returns
// the deduplicated facts in first-seen order.
func collectFacts(anchors []model.SentenceAnchor) []string {
	seen := make(map[string]bool)
	facts := []string{}
	for _, a := range anchors {
		if !a.Metadata.HasNumbers && !a.Metadata.HasUnits && !a.Metadata.HasDates {
			continue
		}
		for _, f := range ExtractFacts(a.Text) {
			if !seen[f] {
				seen[f] = true
				facts = append(facts, f)
			}
		}
	}
	return facts
}

// Package rank implements a BM25 index over segmented sentences. It is the
// relevance fallback that keeps ranking functional when no embedding service
// is available: plain term statistics over the same sentence set.
package rank

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/nkarpenko/slate/internal/model"
)

// Result is one ranked sentence.
type Result struct {
	ID    string
	Text  string
	Score float64
}

type document struct {
	id    string
	text  string
	terms map[string]int
	len   int
}

// Index is a BM25 term-frequency index. Re-indexing fully replaces prior
// state; there is no incremental update.
type Index struct {
	k1, b  float64
	docs   []document
	df     map[string]int
	avgLen float64
}

// NewIndex creates an index with the given BM25 parameters.
func NewIndex(cfg model.RankConfig) *Index {
	return &Index{k1: cfg.K1, b: cfg.B, df: make(map[string]int)}
}

// Build indexes the anchor set, discarding any previous corpus.
func (ix *Index) Build(anchors []model.SentenceAnchor) {
	docs := make([]document, 0, len(anchors))
	df := make(map[string]int)
	totalLen := 0

	for _, a := range anchors {
		tokens := Tokenize(a.Text)
		terms := make(map[string]int, len(tokens))
		for _, t := range tokens {
			terms[t]++
		}
		for t := range terms {
			df[t]++
		}
		docs = append(docs, document{id: a.ID, text: a.Text, terms: terms, len: len(tokens)})
		totalLen += len(tokens)
	}

	ix.docs = docs
	ix.df = df
	ix.avgLen = 0
	if len(docs) > 0 {
		ix.avgLen = float64(totalLen) / float64(len(docs))
	}
}

// Search ranks the corpus against the query and returns up to limit results
// with positive scores, sorted descending. Ties keep original document
// order so output stays deterministic.
func (ix *Index) Search(query string, limit int) []Result {
	if len(ix.docs) == 0 {
		return nil
	}
	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	results := make([]Result, 0, len(ix.docs))
	for _, doc := range ix.docs {
		score, matched := ix.score(queryTerms, doc)
		if matched {
			results = append(results, Result{ID: doc.id, Text: doc.text, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// score sums per-term BM25 contributions over the query terms. A document
// is a match when it contains at least one query term.
func (ix *Index) score(queryTerms []string, doc document) (float64, bool) {
	score := 0.0
	matched := false
	for _, term := range queryTerms {
		tf := float64(doc.terms[term])
		if tf == 0 {
			continue
		}
		matched = true
		norm := (tf * (ix.k1 + 1)) / (tf + ix.k1*(1-ix.b+ix.b*float64(doc.len)/ix.avgLen))
		score += ix.idf(term) * norm
	}
	return score, matched
}

// idf computes ln((N-df+0.5)/(df+0.5)). Terms unseen in the corpus are
// clamped to zero so they contribute nothing, rather than a penalty that
// could invert ranking.
func (ix *Index) idf(term string) float64 {
	df := ix.df[term]
	if df == 0 {
		return 0
	}
	n := float64(len(ix.docs))
	return math.Log((n - float64(df) + 0.5) / (float64(df) + 0.5))
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "has": true,
	"have": true, "this": true, "that": true, "with": true, "from": true,
	"they": true, "will": true, "would": true, "there": true, "their": true,
	"what": true, "about": true, "which": true, "when": true, "were": true,
	"been": true, "more": true, "into": true, "than": true, "them": true,
}

// Tokenize lowercases, strips non-word characters, and drops short tokens
// and stopwords.
func Tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		tok := current.String()
		current.Reset()
		if len(tok) <= 2 || stopwords[tok] {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

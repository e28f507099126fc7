package rank

import (
	"reflect"
	"testing"

	"github.com/nkarpenko/slate/internal/model"
)

func testIndex(texts ...string) *Index {
	anchors := make([]model.SentenceAnchor, len(texts))
	for i, text := range texts {
		anchors[i] = model.SentenceAnchor{ID: ids(i), Text: text}
	}
	ix := NewIndex(model.RankConfig{K1: 1.2, B: 0.75})
	ix.Build(anchors)
	return ix
}

func ids(i int) string {
	return string(rune('a' + i))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"The cat sat on the mat.", []string{"cat", "sat", "mat"}},
		{"Boiling point: 100", []string{"boiling", "point", "100"}},
		{"a an to", nil},
		{"this that with from", nil},
		{"Self-driving cars", []string{"self", "driving", "cars"}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.text)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestSearch_RanksMatchingDocsFirst(t *testing.T) {
	ix := testIndex(
		"Dogs bark loudly at night.",
		"Rain fell over the valley.",
		"Snow covered every rooftop.",
		"The cat sat on the mat.",
		"The cat chased the cat next door.",
	)

	results := ix.Search("cat", 0)
	if len(results) != 2 {
		t.Fatalf("expected 2 matching docs, got %d", len(results))
	}
	// The doc mentioning cat twice scores higher.
	if results[0].ID != "e" {
		t.Errorf("top result = %s, want the double-cat doc", results[0].ID)
	}
}

func TestSearch_SmallCorpusDeterminism(t *testing.T) {
	// With df equal to N the idf goes negative, but docs containing a query
	// term are still returned in a deterministic order.
	ix := testIndex(
		"the cat sat",
		"the cat ran fast",
	)

	first := ix.Search("cat", 0)
	if len(first) != 2 {
		t.Fatalf("expected both docs, got %d", len(first))
	}
	for i := 0; i < 10; i++ {
		again := ix.Search("cat", 0)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("search order changed between runs: %v vs %v", first, again)
		}
	}
}

func TestSearch_UnseenTermContributesNothing(t *testing.T) {
	ix := testIndex(
		"the cat sat on the mat",
		"dogs bark loudly outside",
	)

	withUnseen := ix.Search("cat zebra", 0)
	without := ix.Search("cat", 0)
	if len(withUnseen) != len(without) {
		t.Fatalf("unseen term changed result count: %d vs %d", len(withUnseen), len(without))
	}
	for i := range withUnseen {
		if withUnseen[i].Score != without[i].Score {
			t.Errorf("unseen term changed score for %s: %v vs %v",
				withUnseen[i].ID, withUnseen[i].Score, without[i].Score)
		}
	}
}

func TestSearch_Limit(t *testing.T) {
	ix := testIndex(
		"water boils at high temperature",
		"water freezes at low temperature",
		"water evaporates in the sun",
	)
	results := ix.Search("water", 2)
	if len(results) != 2 {
		t.Errorf("limit 2 returned %d results", len(results))
	}
}

func TestSearch_EmptyCases(t *testing.T) {
	empty := NewIndex(model.RankConfig{K1: 1.2, B: 0.75})
	empty.Build(nil)
	if got := empty.Search("anything", 0); got != nil {
		t.Errorf("empty corpus returned %v", got)
	}

	ix := testIndex("some indexed sentence here")
	if got := ix.Search("", 0); got != nil {
		t.Errorf("empty query returned %v", got)
	}
	if got := ix.Search("the a an", 0); got != nil {
		t.Errorf("stopword-only query returned %v", got)
	}
}

func TestSearch_TieBreakKeepsDocumentOrder(t *testing.T) {
	ix := testIndex(
		"alpha shares common token",
		"beta shares common token",
	)
	results := ix.Search("common", 0)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("tie did not keep document order: %s, %s", results[0].ID, results[1].ID)
	}
}

func TestBuild_ReplacesCorpus(t *testing.T) {
	ix := testIndex("old corpus about trains")
	ix.Build([]model.SentenceAnchor{{ID: "x", Text: "new corpus about boats"}})

	if got := ix.Search("trains", 0); got != nil {
		t.Errorf("stale corpus still searchable: %v", got)
	}
	if got := ix.Search("boats", 0); len(got) != 1 {
		t.Errorf("rebuilt corpus not searchable: %v", got)
	}
}

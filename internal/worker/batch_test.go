package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nkarpenko/slate/internal/llm"
	"github.com/nkarpenko/slate/internal/pipeline"
)

// fakeAsker answers from a canned map, failing unknown URLs.
type fakeAsker struct{}

func (fakeAsker) AskURL(ctx context.Context, url, question string, onChunk llm.ChunkFunc) (*pipeline.AskResult, error) {
	if strings.Contains(url, "broken") {
		return nil, errors.New("fetch failed")
	}
	return &pipeline.AskResult{SourceURL: url, Question: question, Answer: "answer for " + url}, nil
}

func TestProcessURLs(t *testing.T) {
	b := NewBatchProcessor(fakeAsker{}, 3)
	urls := []string{
		"https://example.com/one",
		"https://example.com/broken",
		"https://example.com/two",
	}

	outcomes := b.ProcessURLs(context.Background(), urls, "what is this?")
	if len(outcomes) != len(urls) {
		t.Fatalf("outcomes = %d, want %d", len(outcomes), len(urls))
	}

	byURL := make(map[string]*AskOutcome)
	for _, o := range outcomes {
		byURL[o.URL] = o
	}
	if o := byURL["https://example.com/one"]; o.Err() != nil || o.Result.Answer == "" {
		t.Errorf("expected success for /one, got %+v", o)
	}
	if o := byURL["https://example.com/broken"]; o.Err() == nil {
		t.Error("expected failure for /broken")
	}
}

func TestProcessURLs_Empty(t *testing.T) {
	b := NewBatchProcessor(fakeAsker{}, 2)
	outcomes := b.ProcessURLs(context.Background(), nil, "q")
	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes, got %d", len(outcomes))
	}
}

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := strings.Join([]string{
		"https://example.com/a",
		"",
		"# a comment",
		"https://example.com/b",
		"https://example.com/a",
		"  https://example.com/c  ",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("urls = %v, want %v", urls, want)
	}
}

func TestReadURLsFromFile_Missing(t *testing.T) {
	if _, err := ReadURLsFromFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

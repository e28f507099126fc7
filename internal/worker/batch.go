package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nkarpenko/slate/internal/llm"
	"github.com/nkarpenko/slate/internal/pipeline"
)

// Asker answers one question against one article URL.
type Asker interface {
	AskURL(ctx context.Context, url, question string, onChunk llm.ChunkFunc) (*pipeline.AskResult, error)
}

// AskJob asks one question against one URL.
type AskJob struct {
	URL      string
	Question string
	Asker    Asker
}

// AskOutcome is the result of one batch ask.
type AskOutcome struct {
	URL    string
	Result *pipeline.AskResult
	Error  error
}

// Err returns the job error, nil on success.
func (o *AskOutcome) Err() error {
	return o.Error
}

// Execute runs the ask. Streaming output stays off in batch mode.
func (j *AskJob) Execute(ctx context.Context) Result {
	res, err := j.Asker.AskURL(ctx, j.URL, j.Question, nil)
	return &AskOutcome{URL: j.URL, Result: res, Error: err}
}

// BatchProcessor asks the same question across many URLs concurrently.
type BatchProcessor struct {
	asker       Asker
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(asker Asker, concurrency int) *BatchProcessor {
	return &BatchProcessor{asker: asker, concurrency: concurrency}
}

// ProcessURLs runs the question against every URL and returns one outcome
// per URL, in completion order.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string, question string) []*AskOutcome {
	if len(urls) == 0 {
		return []*AskOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()
	for _, url := range urls {
		pool.Submit(&AskJob{URL: url, Question: question, Asker: b.asker})
	}

	results := pool.Wait()
	outcomes := make([]*AskOutcome, len(results))
	for i, res := range results {
		outcomes[i] = res.(*AskOutcome)
	}
	return outcomes
}

// ProcessFile reads URLs from a file and runs the question against each.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path, question string) ([]*AskOutcome, error) {
	urls, err := ReadURLsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return b.ProcessURLs(ctx, urls, question), nil
}

// ReadURLsFromFile reads one URL per line, skipping blanks, comments, and
// duplicates.
func ReadURLsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return urls, nil
}

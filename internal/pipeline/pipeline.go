// Package pipeline wires fetching, segmentation, evidence packing, and
// answer generation into the end-to-end ask flow.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nkarpenko/slate/internal/cache"
	"github.com/nkarpenko/slate/internal/conversation"
	"github.com/nkarpenko/slate/internal/dom"
	"github.com/nkarpenko/slate/internal/llm"
	"github.com/nkarpenko/slate/internal/model"
	"github.com/nkarpenko/slate/internal/pack"
	"github.com/nkarpenko/slate/internal/segment"
	"github.com/nkarpenko/slate/internal/selection"
	"github.com/nkarpenko/slate/internal/util"
)

// systemPrompt instructs the generator to answer only from on-screen
// evidence and to cite it.
const systemPrompt = "You are a reading assistant. Answer using only the " +
	"evidence sentences provided, quote numeric values exactly as written, " +
	"and cite supporting sentences as [sid:<id>]. If the evidence does not " +
	"answer the question, say so."

// Pipeline runs the complete ask flow against one article at a time.
// It holds no per-article state, so one pipeline is safe to share across
// batch workers.
type Pipeline struct {
	fetcher  *Fetcher
	builder  *pack.Builder
	gen      llm.Generator
	renderer *Renderer
	config   *model.Config
}

// NewPipeline creates a pipeline from configuration.
func NewPipeline(cfg *model.Config) *Pipeline {
	var store cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			store = cache.NewLayered(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			store = cache.NewMemory(cfg.Cache.TTL, 10*time.Minute)
		}
	}

	limiter := util.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)

	var gen llm.Generator
	if cfg.LLM.Provider != "" {
		g, err := llm.NewGenerator(cfg.LLM)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			gen = g
		}
	}

	return &Pipeline{
		fetcher:  NewFetcher(cfg.HTTP, cfg.Cache, store, limiter),
		builder:  pack.NewBuilder(cfg.Pack, cfg.Rank),
		gen:      gen,
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		config:   cfg,
	}
}

// Generating reports whether a generation backend is configured; false
// means answers are extractive only.
func (p *Pipeline) Generating() bool {
	return p.gen != nil
}

// AskResult is the outcome of asking one question against one article.
type AskResult struct {
	Subject   string    `json:"subject"`
	SourceURL string    `json:"source_url,omitempty"`
	Question  string    `json:"question"`
	AskedAt   time.Time `json:"asked_at"`

	Answer    string   `json:"answer"`
	Citations []string `json:"citations,omitempty"`
	Generated bool     `json:"generated"`
	Partial   bool     `json:"partial,omitempty"`

	Pack        *model.ContextPack   `json:"pack"`
	Slate       *model.EvidenceSlate `json:"slate"`
	AnchorCount int                  `json:"anchor_count"`
	Cached      bool                 `json:"cached,omitempty"`
}

// AskURL fetches an article and answers the question against it. onChunk
// receives streamed answer text and may be nil.
func (p *Pipeline) AskURL(ctx context.Context, rawURL, question string, onChunk llm.ChunkFunc) (*AskResult, error) {
	fetched, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	res, err := p.AskHTML(ctx, fetched.HTML, siteProfile(fetched.FinalURL), question, onChunk)
	if err != nil {
		return nil, err
	}
	res.Subject = fetched.Subject
	res.SourceURL = fetched.FinalURL
	res.Cached = fetched.Cached
	return res, nil
}

// AskFile answers the question against a local HTML file.
func (p *Pipeline) AskFile(ctx context.Context, path, question string, onChunk llm.ChunkFunc) (*AskResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	res, err := p.AskHTML(ctx, string(raw), "", question, onChunk)
	if err != nil {
		return nil, err
	}
	res.Subject = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return res, nil
}

// AskHTML segments the document, assembles the evidence pack for the
// question, and produces a generated or extractive answer.
func (p *Pipeline) AskHTML(ctx context.Context, htmlText, profile, question string, onChunk llm.ChunkFunc) (*AskResult, error) {
	doc, err := dom.Parse(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	container := dom.FindContainer(doc, profile)
	if container == nil {
		return nil, fmt.Errorf("no readable content container found")
	}

	snap := dom.NewSnapshot(container, p.config.Layout)
	segmenter := segment.NewSegmenter(p.config.Segment, p.logf())
	anchors := segmenter.Segment(snap, p.config.Layout.Viewport())

	pk := p.builder.Build(question, anchors)
	slate := pack.BuildEvidenceSlate(pk, nil)

	res := &AskResult{
		Question:    question,
		AskedAt:     time.Now().UTC(),
		Pack:        pk,
		Slate:       slate,
		AnchorCount: len(anchors),
	}

	if p.gen == nil {
		answer, citations := selection.ExtractiveAnswer(pk)
		if answer == "" {
			answer = "No evidence found on screen for this question."
		}
		res.Answer = answer
		res.Citations = citations
		return res, nil
	}

	answer, partial, err := p.generate(ctx, question, slate, onChunk)
	if err != nil && !partial {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	res.Answer = answer
	res.Citations = selection.CitedIDs(answer)
	res.Generated = true
	res.Partial = partial
	return res, nil
}

// generate runs the streaming generation through a fresh conversation
// window. A non-empty accumulated answer survives a mid-stream failure
// as a partial result.
func (p *Pipeline) generate(ctx context.Context, question string, slate *model.EvidenceSlate, onChunk llm.ChunkFunc) (string, bool, error) {
	conv := conversation.NewManager(p.config.Conversation, systemPrompt)
	conv.SetModelTokens(p.config.LLM.ContextTokens)

	if err := conv.SetContext(model.ContextScreen, conversation.FormatSlate(slate), conversation.SlateMeta(slate)); err != nil {
		return "", false, err
	}
	conv.AddUserMessage(question + "\nAnswer in at most two sentences, citing evidence as [sid:<id>].")

	var out strings.Builder
	err := p.gen.Generate(ctx, conv.BuildPrompt(), func(text string) {
		out.WriteString(text)
		if onChunk != nil {
			onChunk(text)
		}
	}, llm.Settings{
		Model:       p.config.LLM.Model,
		MaxTokens:   p.config.LLM.MaxTokens,
		Temperature: p.config.LLM.Temperature,
	})

	answer := strings.TrimSpace(out.String())
	if err != nil {
		conv.MarkFailed(question)
		if answer != "" {
			return answer, true, err
		}
		if llm.IsAuthError(err) {
			return "", false, fmt.Errorf("authentication failed: %w", err)
		}
		return "", false, err
	}

	conv.AddAssistantMessage(answer)
	return answer, false, nil
}

// RenderResult writes the result to the configured outputs and prints the
// stdout summary.
func (p *Pipeline) RenderResult(res *AskResult, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(res, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(res, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(res)
	return nil
}

func (p *Pipeline) logf() segment.Logf {
	if !p.config.Output.Verbose {
		return nil
	}
	return func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nkarpenko/slate/internal/model"
	"github.com/nkarpenko/slate/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON      string
	outMD        string
	timeout      time.Duration
	userAgent    string
	maxBytes     int64
	noCache      bool
	noFooter     bool
	insecureTLS  bool
	noRobots     bool
	htmlFile     string
	viewportTop  float64
	viewportSize float64
	llmProvider  string
	llmModel     string
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <url> <question>",
	Short: "Ask a question about a web article",
	Long: `Ask fetches an article, segments it into sentence anchors, and answers
the question from the sentences visible in the configured viewport.

The answer cites its evidence as [sid:<id>] and quotes numeric values
verbatim. Without --llm-provider the answer is extractive.

Example:
  slate ask https://en.wikipedia.org/wiki/Water "what is the boiling point?"
  slate ask --file page.html "what does this define?"
  slate ask https://example.com "why?" --llm-provider openai --llm-model gpt-4o-mini
  slate ask https://example.com "what changed?" --viewport-top 1800`,
	Args: askArgs,
	RunE: runAsk,
}

func askArgs(cmd *cobra.Command, args []string) error {
	if htmlFile != "" {
		return cobra.ExactArgs(1)(cmd, args)
	}
	return cobra.ExactArgs(2)(cmd, args)
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	askCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	askCmd.Flags().StringVar(&htmlFile, "file", "", "read article from a local HTML file instead of a URL")
	askCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
	askCmd.Flags().StringVar(&userAgent, "ua", "Slate/0.1 (+https://github.com/nkarpenko/slate)", "HTTP User-Agent")
	askCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	askCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	askCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	askCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	askCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")

	askCmd.Flags().Float64Var(&viewportTop, "viewport-top", 0, "viewport scroll offset in pixels")
	askCmd.Flags().Float64Var(&viewportSize, "viewport-height", 900, "viewport height in pixels")

	askCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama); empty for extractive answers")
	askCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg)

	var onChunk func(string)
	if p.Generating() {
		onChunk = func(text string) { fmt.Print(text) }
	}

	var result *pipeline.AskResult
	if htmlFile != "" {
		question := args[0]
		if verbose {
			fmt.Fprintf(os.Stderr, "Reading: %s\n", htmlFile)
		}
		result, err = p.AskFile(ctx, htmlFile, question, onChunk)
	} else {
		url, question := args[0], args[1]
		if verbose {
			fmt.Fprintf(os.Stderr, "Fetching: %s\n", url)
		}
		result, err = p.AskURL(ctx, url, question, onChunk)
	}
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	if onChunk != nil {
		fmt.Println()
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Segmented %d sentence anchors\n", result.AnchorCount)
		fmt.Fprintf(os.Stderr, "✓ Packed %d evidence sentences (%s confidence)\n",
			result.Pack.EvidenceCount(), result.Pack.Confidence)
		if result.Cached {
			fmt.Fprintf(os.Stderr, "✓ Served from cache\n")
		}
	}

	if err := p.RenderResult(result, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// buildConfig assembles configuration from defaults, flags, and provider
// environment variables.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = timeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.HTTP.RespectRobots = !noRobots
	cfg.Cache.Enabled = !noCache
	cfg.Layout.ViewportTop = viewportTop
	cfg.Layout.ViewportHeight = viewportSize
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	if llmProvider == "" {
		return cfg, nil
	}

	cfg.LLM.Provider = llmProvider
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}

	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", llmProvider)
	}
	return cfg, nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nkarpenko/slate/internal/model"
	"github.com/nkarpenko/slate/internal/pipeline"
	"github.com/spf13/cobra"
)

// selectCmd represents the select command
var selectCmd = &cobra.Command{
	Use:   "select <url> <text>",
	Short: "Simulate selecting text on an article and get an inline answer card",
	Long: `Select runs the selection-first flow: the given text is treated as a
reader's selection, a question is synthesized from it, and the inline
answer card is printed.

Short selections become "what does X mean?" questions, numeric
selections a numeric explanation, everything else a passage
explanation.

Example:
  slate select https://en.wikipedia.org/wiki/Water "100°C"
  slate select --file page.html "boiling point"`,
	Args: selectArgs,
	RunE: runSelect,
}

func selectArgs(cmd *cobra.Command, args []string) error {
	if htmlFile != "" {
		return cobra.ExactArgs(1)(cmd, args)
	}
	return cobra.ExactArgs(2)(cmd, args)
}

func init() {
	rootCmd.AddCommand(selectCmd)

	selectCmd.Flags().StringVar(&htmlFile, "file", "", "read article from a local HTML file instead of a URL")
	selectCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
	selectCmd.Flags().Float64Var(&viewportTop, "viewport-top", 0, "viewport scroll offset in pixels")
	selectCmd.Flags().Float64Var(&viewportSize, "viewport-height", 900, "viewport height in pixels")
	selectCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama); empty for extractive answers")
	selectCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runSelect(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	p := pipeline.NewPipeline(cfg)

	var card *model.InlineAnswerCard
	if htmlFile != "" {
		raw, err := os.ReadFile(htmlFile)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		card, err = p.SelectHTML(ctx, string(raw), "", args[0])
		if err != nil {
			return fmt.Errorf("select failed: %w", err)
		}
	} else {
		card, err = p.SelectURL(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("select failed: %w", err)
		}
	}

	printCard(card)
	return nil
}

func printCard(card *model.InlineAnswerCard) {
	fmt.Printf("\n%s\n", strings.Repeat("-", 60))
	if card.Kind == model.CardError {
		fmt.Printf("Error: %s\n", card.Answer)
		fmt.Printf("%s\n", strings.Repeat("-", 60))
		return
	}

	fmt.Printf("Q: %s\n", card.Question)
	fmt.Printf("A: %s\n", card.Answer)
	if card.Partial {
		fmt.Printf("   (partial: generation was interrupted)\n")
	}
	fmt.Printf("Confidence: %s\n", card.Confidence)
	if card.Numeric != nil {
		fmt.Printf("Value: %s\n", card.Numeric.Value)
		if card.Numeric.Context != "" {
			fmt.Printf("Context: %s\n", card.Numeric.Context)
		}
	}
	if len(card.FollowUps) > 0 {
		fmt.Println("Follow-ups:")
		for _, q := range card.FollowUps {
			fmt.Printf("  - %s\n", q)
		}
	}
	fmt.Printf("%s\n", strings.Repeat("-", 60))
}

package llm

import (
	"fmt"
	"strings"

	"github.com/nkarpenko/slate/internal/model"
)

// NewGenerator creates a generator from configuration. An empty provider
// name disables generation (extractive-only answering) and returns nil.
func NewGenerator(config model.LLMConfig) (Generator, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIGenerator(config)

	case "anthropic", "claude":
		return NewAnthropicGenerator(config)

	case "ollama":
		return NewOllamaGenerator(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

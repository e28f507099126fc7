// Package llm provides the streaming text-generation collaborator consumed
// by the conversation layer. Providers stream incremental text through a
// chunk callback; failures are classified so callers can distinguish
// authentication problems (re-login prompt) from generic ones (retry).
package llm

import (
	"context"
	"errors"

	"github.com/nkarpenko/slate/internal/model"
)

// ErrAuth marks authentication failures. Callers check with errors.Is and
// surface a re-login prompt instead of a retry affordance.
var ErrAuth = errors.New("authentication failed")

// IsAuthError reports whether the generation failure is authentication-related.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// ChunkFunc receives incremental response text. It is invoked zero or more
// times before Generate returns.
type ChunkFunc func(text string)

// Settings are per-call generation parameters.
type Settings struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// Generator is the streaming text-generation contract. Generate delivers
// the full response through onChunk and returns once the stream ends; any
// text already delivered before a mid-stream failure stays delivered.
type Generator interface {
	// Name returns the provider name.
	Name() string

	// Generate streams a completion for the ordered message log.
	Generate(ctx context.Context, messages []model.Message, onChunk ChunkFunc, settings Settings) error

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

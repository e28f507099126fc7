// Package conversation maintains the running dialogue log, injects the
// current grounding context, and enforces a rolling context-window budget.
package conversation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nkarpenko/slate/internal/model"
)

// ErrEmptyContext reports that the requested context type has no content.
var ErrEmptyContext = errors.New("empty context")

// TruncationMarker is appended whenever context content is cut to fit the
// character budget. Overflow is never silently dropped.
const TruncationMarker = "\n[Content Truncated]"

// Manager holds the ordered message log plus the single current context.
// Setting a new context replaces, never merges, the previous one.
type Manager struct {
	cfg          model.ConversationConfig
	systemPrompt string

	history []model.Message

	ctxType    model.ContextType
	ctxContent string
	ctxMeta    map[string]string

	charBudget int

	// lastFailedUser is kept after a generation failure so the caller can
	// replay it manually. The core never retries on its own.
	lastFailedUser string
}

// NewManager creates a manager with the given system instructions.
func NewManager(cfg model.ConversationConfig, systemPrompt string) *Manager {
	m := &Manager{cfg: cfg, systemPrompt: systemPrompt}
	m.SetModelTokens(cfg.DefaultModelTokens)
	return m
}

// SetModelTokens recalculates the character budget for a model's context
// window: tokens * safeBuffer / tokensPerChar.
func (m *Manager) SetModelTokens(tokens int) {
	if tokens <= 0 {
		tokens = m.cfg.DefaultModelTokens
	}
	m.charBudget = int(float64(tokens) * m.cfg.SafeBuffer / m.cfg.TokensPerChar)
}

// CharBudget returns the current context character budget.
func (m *Manager) CharBudget() int {
	return m.charBudget
}

// AddUserMessage appends a user turn.
func (m *Manager) AddUserMessage(content string) {
	m.history = append(m.history, model.Message{Role: model.RoleUser, Content: content})
}

// AddAssistantMessage appends an assistant turn.
func (m *Manager) AddAssistantMessage(content string) {
	m.history = append(m.history, model.Message{Role: model.RoleAssistant, Content: content})
}

// SetContext replaces the current grounding context. Empty content is an
// error naming the missing context type, so the caller can surface a
// specific message rather than a generic failure.
func (m *Manager) SetContext(ctxType model.ContextType, content string, meta map[string]string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("no %s content available: %w", ctxType, ErrEmptyContext)
	}
	m.ctxType = ctxType
	m.ctxContent = content
	m.ctxMeta = meta
	return nil
}

// ContextType returns the active context type, empty if none set.
func (m *Manager) ContextType() model.ContextType {
	return m.ctxType
}

// BuildPrompt assembles the ordered message list: system instructions, one
// synthesized context message (metadata header plus verbatim content,
// truncated to the budget with an explicit marker), then the most recent
// conversation turns.
func (m *Manager) BuildPrompt() []model.Message {
	messages := []model.Message{
		{Role: model.RoleSystem, Content: m.systemPrompt},
	}

	if m.ctxContent != "" {
		messages = append(messages, model.Message{
			Role:    model.RoleSystem,
			Content: m.contextMessage(),
		})
	}

	recent := m.history
	if n := m.cfg.MaxRecentTurns; n > 0 && len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	messages = append(messages, recent...)
	return messages
}

func (m *Manager) contextMessage() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Context type: %s\n", m.ctxType)

	keys := make([]string, 0, len(m.ctxMeta))
	for k := range m.ctxMeta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, m.ctxMeta[k])
	}
	sb.WriteString("\n")

	content := m.ctxContent
	if m.charBudget > 0 && len(content) > m.charBudget {
		cut := m.charBudget
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut] + TruncationMarker
	}
	sb.WriteString(content)
	return sb.String()
}

// History returns the full stored dialogue (not budget-windowed).
func (m *Manager) History() []model.Message {
	return m.history
}

// MarkFailed records the user message whose generation failed, for manual
// replay by the caller.
func (m *Manager) MarkFailed(userMessage string) {
	m.lastFailedUser = userMessage
}

// LastFailed returns the most recent failed user message, if any.
func (m *Manager) LastFailed() (string, bool) {
	return m.lastFailedUser, m.lastFailedUser != ""
}

// Clear drops all user/assistant history and the grounding context but
// retains the system instructions.
func (m *Manager) Clear() {
	m.history = nil
	m.ctxType = ""
	m.ctxContent = ""
	m.ctxMeta = nil
	m.lastFailedUser = ""
}

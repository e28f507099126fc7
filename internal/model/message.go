package model

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation log handed to the generator.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ContextType names the single current grounding context of a conversation.
// Setting a new context replaces, never merges, the previous one.
type ContextType string

const (
	ContextScreen    ContextType = "screen"
	ContextArticle   ContextType = "article"
	ContextSelection ContextType = "selection"
	ContextTable     ContextType = "table"
	ContextFigure    ContextType = "figure"
)

package repositories

import "context"

// LargeLanguageModel abstracts any chat/LLM provider
type LargeLanguageModel interface {
	// Generate sends a single-turn conversation and returns the model's reply
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role defines the type of message sender
type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)

// SingleTurn builds the message list for a request without history
func SingleTurn(prompt string) []ChatMessage {
	return []ChatMessage{{Role: UserRole, Content: prompt}}
}

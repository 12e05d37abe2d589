package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain/repositories"
)

// MockLLM is a placeholder implementation for local runs without API keys
type MockLLM struct {
	logger *zap.Logger
}

// NewMockLLM creates a new mock chat completer
func NewMockLLM(logger *zap.Logger) repositories.LargeLanguageModel {
	return &MockLLM{logger: logger}
}

// Generate implements repositories.LargeLanguageModel
func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.logger.Info("Generating mock reply", zap.Int("promptLength", len(prompt)))
	if prompt == "" {
		return "Hello! What would you like to talk about today?", nil
	}
	return fmt.Sprintf("You said: %q. Tell me more!", prompt), nil
}

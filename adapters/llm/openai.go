package llm

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
)

// OpenAILLM completes chats against any OpenAI compatible
// /chat/completions endpoint
type OpenAILLM struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

var _ repositories.LargeLanguageModel = (*OpenAILLM)(nil)

// NewOpenAILLM creates a chat completer using client and a fixed model
func NewOpenAILLM(client *openai.Client, model string, logger *zap.Logger) *OpenAILLM {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAILLM{client: client, model: model, logger: logger}
}

// Generate implements repositories.LargeLanguageModel
func (o *OpenAILLM) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: toOpenAIMessages(repositories.SingleTurn(prompt)),
	})
	if err != nil {
		return "", domain.E(domain.KindCompletionUnavailable, "chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.Errorf(domain.KindCompletionUnavailable, "chat completion", "no choices returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	o.logger.Debug("Chat completion",
		zap.String("model", o.model),
		zap.Int("promptTokens", resp.Usage.PromptTokens),
		zap.Int("completionTokens", resp.Usage.CompletionTokens))
	return text, nil
}

func toOpenAIMessages(messages []repositories.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case repositories.AssistantRole:
			role = openai.ChatMessageRoleAssistant
		case repositories.SystemRole:
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}

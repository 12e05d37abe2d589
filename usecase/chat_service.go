package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
)

// ChatFallback is the reply of the chat endpoint when completion fails
const ChatFallback = "Sorry, I couldn't process your request."

const chatFallbackDetailFormat = "Sorry, I couldn't process your request: %s"

// ChatService handles single-turn conversation with the language model
type ChatService struct {
	llm      repositories.LargeLanguageModel
	timeout  time.Duration
	observer StageObserver
	logger   *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(llm repositories.LargeLanguageModel, timeout time.Duration, observer StageObserver, logger *zap.Logger) *ChatService {
	return &ChatService{
		llm:      llm,
		timeout:  timeout,
		observer: observerOrNop(observer),
		logger:   logger,
	}
}

// Reply sends text as a single user turn and returns the completion
func (s *ChatService) Reply(ctx context.Context, text string) (string, error) {
	start := time.Now()
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.llm.Generate(cctx, text)
	s.observer.ObserveStage(StageChat, time.Since(start), err)
	if err != nil {
		s.logger.Error("Chat completion failed", zap.Error(err))
		return "", domain.E(domain.KindCompletionUnavailable, "chat", err)
	}

	s.logger.Info("AI response generated", zap.Int("length", len(response)))
	return response, nil
}

// FallbackWithDetail is the reply spoken by voice chat when completion fails
func FallbackWithDetail(err error) string {
	return fmt.Sprintf(chatFallbackDetailFormat, domain.Detail(err))
}

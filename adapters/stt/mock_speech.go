package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
)

// wavHeaderSize is the size of the canonical WAV header; anything not
// beyond it carries no samples
const wavHeaderSize = 44

// MockSpeechToText is a placeholder implementation for speech recognition
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// TranscribeAudio implements repositories.SpeechToText
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	s.logger.Info("Processing speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	// Mock transcription based on audio size
	switch {
	case len(audioData) > 10000:
		return "Hello there, how are you? I want to tell you about my day.", nil
	case len(audioData) > 5000:
		return "Thanks for listening.", nil
	case len(audioData) > 1000:
		return "Hello!", nil
	case len(audioData) > wavHeaderSize:
		return "Hi", nil
	default:
		return "", domain.ErrUnintelligible
	}
}

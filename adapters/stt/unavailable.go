package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
)

// UnavailableSpeechToText stands in for a recognizer that could not be
// created. Every call fails with RecognitionUnavailable, so transcription
// requests report the recognizer as down while the rest of the API serves.
type UnavailableSpeechToText struct {
	cause  error
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*UnavailableSpeechToText)(nil)

// NewUnavailableSpeechToText creates a recognizer failing with cause
func NewUnavailableSpeechToText(cause error, logger *zap.Logger) *UnavailableSpeechToText {
	return &UnavailableSpeechToText{cause: cause, logger: logger}
}

// TranscribeAudio implements repositories.SpeechToText
func (u *UnavailableSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	u.logger.Debug("Speech recognizer unavailable", zap.Error(u.cause))
	return "", domain.E(domain.KindRecognitionUnavailable, "speech recognizer", u.cause)
}

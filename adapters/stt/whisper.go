package stt

import (
	"bytes"
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
)

// WhisperSpeechToText transcribes through an OpenAI compatible
// /audio/transcriptions endpoint
type WhisperSpeechToText struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*WhisperSpeechToText)(nil)

// NewWhisperSpeechToText creates a Whisper recognizer using client
func NewWhisperSpeechToText(client *openai.Client, model string, logger *zap.Logger) *WhisperSpeechToText {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperSpeechToText{client: client, model: model, logger: logger}
}

// TranscribeAudio implements repositories.SpeechToText
func (w *WhisperSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", domain.Errorf(domain.KindInputUnreadable, "whisper", "no audio data received")
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		Reader:   bytes.NewReader(audioData),
		FilePath: "audio.wav",
		Language: whisperLanguage(config.Language),
	})
	if err != nil {
		return "", domain.E(domain.KindRecognitionUnavailable, "whisper", err)
	}

	text := strings.TrimSpace(resp.Text)
	w.logger.Debug("Whisper result", zap.Int("transcriptLength", len(text)))
	if text == "" {
		return "", domain.ErrUnintelligible
	}
	return text, nil
}

// whisperLanguage reduces a BCP-47 tag such as en-US to its ISO-639-1 part
func whisperLanguage(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

package tts

import (
	"context"
	"io"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
)

// OpenAITTS synthesizes MP3 through the OpenAI /audio/speech endpoint
type OpenAITTS struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
	logger *zap.Logger
}

var _ repositories.TextToSpeech = (*OpenAITTS)(nil)

// NewOpenAITTS creates the adapter; empty model and voice select tts-1 and alloy
func NewOpenAITTS(client *openai.Client, model, voice string, logger *zap.Logger) *OpenAITTS {
	m := openai.SpeechModel(model)
	if model == "" {
		m = openai.TTSModel1
	}
	v := openai.SpeechVoice(voice)
	if voice == "" {
		v = openai.VoiceAlloy
	}
	return &OpenAITTS{client: client, model: m, voice: v, logger: logger}
}

// SynthesizeAudio implements repositories.TextToSpeech
func (o *OpenAITTS) SynthesizeAudio(ctx context.Context, text string, w io.Writer) error {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return domain.E(domain.KindSynthesisFailed, "openai speech", err)
	}
	defer resp.Close()

	n, err := io.Copy(w, resp)
	if err != nil {
		return domain.E(domain.KindSynthesisFailed, "openai speech", err)
	}
	o.logger.Debug("Received audio from OpenAI", zap.Int64("bytes", n), zap.String("voice", string(o.voice)))
	return nil
}

package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/internal/scratch"
)

// Pipeline stages of a voice chat round
const (
	PipelineTranscription = "transcription"
	PipelineSynthesis     = "synthesis"
)

// PipelineError reports the stage a voice chat round stopped at, together
// with whatever text was produced before it
type PipelineError struct {
	Stage      string
	Transcript string
	Response   string
	Err        error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("voice chat %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// VoiceChatService orchestrates the voice chat flow
type VoiceChatService struct {
	transcription *TranscriptionService
	chat          *ChatService
	synthesis     *SynthesisService
	logger        *zap.Logger
}

// NewVoiceChatService creates a new voice chat service
func NewVoiceChatService(
	transcription *TranscriptionService,
	chat *ChatService,
	synthesis *SynthesisService,
	logger *zap.Logger,
) *VoiceChatService {
	return &VoiceChatService{
		transcription: transcription,
		chat:          chat,
		synthesis:     synthesis,
		logger:        logger,
	}
}

// Run transcribes the upload, answers it and speaks the answer. A recognizer
// failure is answered as if the user had said the sentinel text, and a
// completion failure is spoken as a fallback. Other failures stop the round
// with a *PipelineError.
func (s *VoiceChatService) Run(ctx context.Context, scope *scratch.Scope, upload domain.AudioUpload) (*domain.VoiceChatResult, error) {
	result := &domain.VoiceChatResult{}

	transcript, err := s.transcription.Transcribe(ctx, scope, upload)
	switch {
	case err == nil:
	case IsRecognizerSentinel(err):
		transcript = SentinelText(err)
		s.logger.Warn("Recognition failed, continuing with sentinel text", zap.Error(err))
	default:
		return nil, &PipelineError{Stage: PipelineTranscription, Err: err}
	}
	result.Transcript = transcript

	response, err := s.chat.Reply(ctx, transcript)
	if err != nil {
		response = FallbackWithDetail(err)
	}
	result.Response = response

	path, err := s.synthesis.SynthesizeToFile(ctx, scope, response)
	if err != nil {
		return nil, &PipelineError{
			Stage:      PipelineSynthesis,
			Transcript: result.Transcript,
			Response:   result.Response,
			Err:        err,
		}
	}
	result.AudioPath = path

	s.logger.Info("Voice chat completed", zap.String("scope", scope.ID()))
	return result, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
	"github.com/satriahrh/voicechat/server/internal/scratch"
)

// UnintelligibleText is reported when the recognizer hears no speech
const UnintelligibleText = "Could not understand audio"

const (
	recognitionErrorFormat = "Error with speech recognition service: %s"
	audioErrorFormat       = "Error processing audio: %s"

	canonicalWAVName = "canonical.wav"
)

// TranscriptionService turns an uploaded recording into text
type TranscriptionService struct {
	speechToText repositories.SpeechToText
	transcoder   repositories.Transcoder
	language     string
	timeout      time.Duration
	observer     StageObserver
	logger       *zap.Logger
}

// TranscriptionConfig holds the settings of TranscriptionService
type TranscriptionConfig struct {
	Language string
	Timeout  time.Duration
}

// NewTranscriptionService creates a new transcription service
func NewTranscriptionService(
	stt repositories.SpeechToText,
	transcoder repositories.Transcoder,
	config TranscriptionConfig,
	observer StageObserver,
	logger *zap.Logger,
) *TranscriptionService {
	if config.Language == "" {
		config.Language = "en-US"
	}
	return &TranscriptionService{
		speechToText: stt,
		transcoder:   transcoder,
		language:     config.Language,
		timeout:      config.Timeout,
		observer:     observerOrNop(observer),
		logger:       logger,
	}
}

// Transcribe stores the upload in scope, converts it to canonical WAV and
// recognizes it. The upload and the WAV are removed before it returns.
func (s *TranscriptionService) Transcribe(ctx context.Context, scope *scratch.Scope, upload domain.AudioUpload) (string, error) {
	if upload.Content == nil {
		return "", domain.Errorf(domain.KindInputUnreadable, "read upload", "no audio received")
	}

	srcPath, size, err := scope.WriteFrom("upload-"+upload.Filename, kindReader{
		r:    upload.Content,
		kind: domain.KindInputUnreadable,
		op:   "read upload",
	})
	defer scope.Remove(srcPath)
	if err != nil {
		return "", domain.E(domain.KindLocalIO, "store upload", err)
	}
	s.logger.Debug("Stored upload",
		zap.String("scope", scope.ID()),
		zap.String("filename", upload.Filename),
		zap.Int64("size", size))

	wavPath := scope.Path(canonicalWAVName)
	defer scope.Remove(wavPath)

	start := time.Now()
	tctx, cancel := withTimeout(ctx, s.timeout)
	err = s.transcoder.ToWAV(tctx, srcPath, wavPath)
	cancel()
	s.observer.ObserveStage(StageTranscode, time.Since(start), err)
	if err != nil {
		return "", domain.E(domain.KindTranscodeFailed, "transcode", err)
	}

	audioData, err := os.ReadFile(wavPath)
	if err != nil {
		return "", domain.E(domain.KindLocalIO, "read wav", err)
	}

	start = time.Now()
	rctx, cancel := withTimeout(ctx, s.timeout)
	text, err := s.speechToText.TranscribeAudio(rctx, audioData, repositories.AudioConfig{
		SampleRate: s.transcoder.SampleRate(),
		Encoding:   "LINEAR16",
		Language:   s.language,
	})
	cancel()
	s.observer.ObserveStage(StageRecognize, time.Since(start), err)
	if err != nil {
		if errors.Is(err, domain.ErrUnintelligible) {
			return "", err
		}
		return "", domain.E(domain.KindRecognitionUnavailable, "recognize", err)
	}

	s.logger.Info("Transcription completed", zap.String("scope", scope.ID()), zap.Int("length", len(text)))
	return text, nil
}

// SentinelText renders a transcription failure as the text reported in
// place of a transcript
func SentinelText(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnintelligible):
		return UnintelligibleText
	case domain.KindOf(err) == domain.KindRecognitionUnavailable:
		return fmt.Sprintf(recognitionErrorFormat, domain.Detail(err))
	default:
		return fmt.Sprintf(audioErrorFormat, domain.Detail(err))
	}
}

// IsRecognizerSentinel reports whether err came from the recognizer itself,
// as opposed to reading or converting the upload
func IsRecognizerSentinel(err error) bool {
	return errors.Is(err, domain.ErrUnintelligible) || domain.KindOf(err) == domain.KindRecognitionUnavailable
}

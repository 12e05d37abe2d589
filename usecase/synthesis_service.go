package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
	"github.com/satriahrh/voicechat/server/internal/scratch"
)

// ResponseAudioName is the file name of synthesized audio, both inside the
// scratch scope and as offered to clients
const ResponseAudioName = "response.mp3"

// SynthesisService renders text as an MP3 file
type SynthesisService struct {
	textToSpeech repositories.TextToSpeech
	timeout      time.Duration
	observer     StageObserver
	logger       *zap.Logger
}

// NewSynthesisService creates a new synthesis service
func NewSynthesisService(tts repositories.TextToSpeech, timeout time.Duration, observer StageObserver, logger *zap.Logger) *SynthesisService {
	return &SynthesisService{
		textToSpeech: tts,
		timeout:      timeout,
		observer:     observerOrNop(observer),
		logger:       logger,
	}
}

// SynthesizeToFile writes the speech for text into scope and returns the
// file path. On failure no file is left behind.
func (s *SynthesisService) SynthesizeToFile(ctx context.Context, scope *scratch.Scope, text string) (string, error) {
	f, err := scope.Create(ResponseAudioName)
	if err != nil {
		return "", domain.E(domain.KindLocalIO, "create audio file", err)
	}
	path := f.Name()

	w := &kindWriter{w: f, kind: domain.KindLocalIO, op: "write audio file"}

	start := time.Now()
	sctx, cancel := withTimeout(ctx, s.timeout)
	err = s.textToSpeech.SynthesizeAudio(sctx, text, w)
	cancel()
	s.observer.ObserveStage(StageSynthesize, time.Since(start), err)

	if cerr := f.Close(); err == nil && cerr != nil {
		err = domain.E(domain.KindLocalIO, "close audio file", cerr)
	}
	if err == nil && w.n == 0 {
		err = domain.Errorf(domain.KindSynthesisFailed, "synthesize", "no audio produced")
	}
	if err != nil {
		scope.Remove(path)
		return "", domain.E(domain.KindSynthesisFailed, "synthesize", err)
	}

	s.logger.Info("TTS completed", zap.String("scope", scope.ID()), zap.Int64("audioSize", w.n))
	return path, nil
}

// Package transcode converts uploaded audio into the canonical WAV used for
// speech recognition.
package transcode

import (
	"os/exec"

	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain/repositories"
)

const (
	defaultFFmpegPath = "ffmpeg"
	defaultSampleRate = 16000
)

// Config selects the transcoder implementation
type Config struct {
	Backend    string // "auto", "ffmpeg" or "native"
	FFmpegPath string
	SampleRate int
}

// New builds the configured transcoder. "auto" uses ffmpeg when it can be
// found and the native decoder otherwise.
func New(config Config, logger *zap.Logger) repositories.Transcoder {
	switch config.Backend {
	case "ffmpeg":
		return NewFFmpegTranscoder(config.FFmpegPath, config.SampleRate, logger)
	case "native":
		return NewNativeTranscoder(config.SampleRate, logger)
	}

	path := config.FFmpegPath
	if path == "" {
		path = defaultFFmpegPath
	}
	if resolved, err := exec.LookPath(path); err == nil {
		logger.Info("Using ffmpeg transcoder", zap.String("path", resolved))
		return NewFFmpegTranscoder(resolved, config.SampleRate, logger)
	}
	logger.Warn("ffmpeg not found, only WAV and MP3 uploads can be converted",
		zap.String("ffmpegPath", path))
	return NewNativeTranscoder(config.SampleRate, logger)
}

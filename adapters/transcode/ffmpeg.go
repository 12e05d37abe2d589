package transcode

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
)

const maxStderr = 512

// FFmpegTranscoder shells out to ffmpeg, which decodes any container the
// local build supports
type FFmpegTranscoder struct {
	path       string
	sampleRate int
	logger     *zap.Logger
}

var _ repositories.Transcoder = (*FFmpegTranscoder)(nil)

// NewFFmpegTranscoder creates a transcoder running the ffmpeg binary at path
func NewFFmpegTranscoder(path string, sampleRate int, logger *zap.Logger) *FFmpegTranscoder {
	if path == "" {
		path = defaultFFmpegPath
	}
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	return &FFmpegTranscoder{path: path, sampleRate: sampleRate, logger: logger}
}

// SampleRate implements repositories.Transcoder
func (f *FFmpegTranscoder) SampleRate() int { return f.sampleRate }

// ToWAV implements repositories.Transcoder
func (f *FFmpegTranscoder) ToWAV(ctx context.Context, srcPath, dstPath string) error {
	cmd := exec.CommandContext(ctx, f.path, f.args(srcPath, dstPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Debug("Running ffmpeg", zap.String("src", srcPath), zap.String("dst", dstPath))

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return domain.Errorf(domain.KindTranscodeFailed, "transcode", "ffmpeg not found at %q", f.path)
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[len(msg)-maxStderr:]
		}
		if msg == "" {
			return domain.E(domain.KindTranscodeFailed, "transcode", err)
		}
		return domain.Errorf(domain.KindTranscodeFailed, "transcode", "%v: %s", err, msg)
	}
	return nil
}

func (f *FFmpegTranscoder) args(srcPath, dstPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", srcPath,
		"-ac", "1",
		"-ar", strconv.Itoa(f.sampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		dstPath,
	}
}

package transcode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
)

// NativeTranscoder converts WAV and MP3 uploads without external tools.
// Other containers need ffmpeg.
type NativeTranscoder struct {
	sampleRate int
	logger     *zap.Logger
}

var _ repositories.Transcoder = (*NativeTranscoder)(nil)

// NewNativeTranscoder creates a transcoder producing WAV at sampleRate
func NewNativeTranscoder(sampleRate int, logger *zap.Logger) *NativeTranscoder {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	return &NativeTranscoder{sampleRate: sampleRate, logger: logger}
}

// SampleRate implements repositories.Transcoder
func (n *NativeTranscoder) SampleRate() int { return n.sampleRate }

// ToWAV implements repositories.Transcoder
func (n *NativeTranscoder) ToWAV(ctx context.Context, srcPath, dstPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return domain.E(domain.KindLocalIO, "read upload", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.E(domain.KindTranscodeFailed, "transcode", err)
	}

	audio, container, err := decode(data)
	if err != nil {
		return domain.E(domain.KindTranscodeFailed, "decode "+container, err)
	}

	mono := downmix(audio.samples, audio.channels)
	out := resample(mono, audio.sampleRate, n.sampleRate)

	n.logger.Debug("Native transcode",
		zap.String("container", container),
		zap.Int("inputRate", audio.sampleRate),
		zap.Int("inputChannels", audio.channels),
		zap.Int("outputSamples", len(out)))

	f, err := os.OpenFile(dstPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return domain.E(domain.KindLocalIO, "create wav", err)
	}
	werr := encodeWAV(f, out, n.sampleRate)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return domain.E(domain.KindLocalIO, "write wav", werr)
	}
	return nil
}

// decode sniffs the container and decodes it to PCM
func decode(data []byte) (*pcm, string, error) {
	switch {
	case isWAV(data):
		audio, err := decodeWAV(data)
		return audio, "wav", err
	case isMP3(data):
		audio, err := decodeMP3(data)
		return audio, "mp3", err
	default:
		return nil, "upload", fmt.Errorf("unsupported audio container (install ffmpeg to accept it)")
	}
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

func isMP3(data []byte) bool {
	if len(data) >= 3 && string(data[0:3]) == "ID3" {
		return true
	}
	// MPEG audio frame sync: 11 set bits, layer bits non-zero
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 && data[1]&0x06 != 0
}

// decodeMP3 decodes to interleaved stereo, which is what go-mp3 always emits
func decodeMP3(data []byte) (*pcm, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no audio frames")
	}
	return &pcm{
		samples:    bytesToSamples(raw),
		sampleRate: dec.SampleRate(),
		channels:   2,
	}, nil
}

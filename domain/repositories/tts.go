package repositories

import (
	"context"
	"io"
)

// TextToSpeech renders text as MP3 audio
type TextToSpeech interface {
	SynthesizeAudio(ctx context.Context, text string, w io.Writer) error
}

package repositories

import "context"

// Transcoder converts uploaded audio of any container format into the
// canonical waveform the recognizers accept: PCM 16-bit LE, mono WAV.
type Transcoder interface {
	ToWAV(ctx context.Context, srcPath, dstPath string) error
	// SampleRate is the sample rate of the files ToWAV produces
	SampleRate() int
}

package usecase

import (
	"context"
	"io"
	"time"

	"github.com/satriahrh/voicechat/server/domain"
)

// Stage names reported to the StageObserver
const (
	StageTranscode  = "transcode"
	StageRecognize  = "recognize"
	StageChat       = "chat"
	StageSynthesize = "synthesize"
)

// StageObserver receives the outcome of every outbound call
type StageObserver interface {
	ObserveStage(stage string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, time.Duration, error) {}

func observerOrNop(o StageObserver) StageObserver {
	if o == nil {
		return nopObserver{}
	}
	return o
}

// withTimeout bounds an outbound call; zero means no bound beyond ctx
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// kindReader classifies read failures of the wrapped reader
type kindReader struct {
	r    io.Reader
	kind domain.Kind
	op   string
}

func (k kindReader) Read(p []byte) (int, error) {
	n, err := k.r.Read(p)
	if err != nil && err != io.EOF {
		err = domain.E(k.kind, k.op, err)
	}
	return n, err
}

// kindWriter classifies write failures of the wrapped writer
type kindWriter struct {
	w    io.Writer
	kind domain.Kind
	op   string
	n    int64
}

func (k *kindWriter) Write(p []byte) (int, error) {
	n, err := k.w.Write(p)
	k.n += int64(n)
	if err != nil {
		err = domain.E(k.kind, k.op, err)
	}
	return n, err
}

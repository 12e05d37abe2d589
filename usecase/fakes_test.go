package usecase

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voicechat/server/domain/repositories"
	"github.com/satriahrh/voicechat/server/internal/scratch"
)

type fakeTranscoder struct {
	err error
}

func (f *fakeTranscoder) ToWAV(ctx context.Context, srcPath, dstPath string) error {
	if f.err != nil {
		return f.err
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	return os.WriteFile(dstPath, append([]byte("WAV:"), data...), 0o600)
}

func (f *fakeTranscoder) SampleRate() int { return 16000 }

type fakeSTT struct {
	text string
	err  error

	gotData   []byte
	gotConfig repositories.AudioConfig
}

func (f *fakeSTT) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	f.gotData = audioData
	f.gotConfig = config
	return f.text, f.err
}

type fakeLLM struct {
	reply string
	err   error
	block bool

	mu     sync.Mutex
	prompt string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompt = prompt
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

type fakeTTS struct {
	audio string
	err   error

	mu   sync.Mutex
	text string
}

func (f *fakeTTS) SynthesizeAudio(ctx context.Context, text string, w io.Writer) error {
	f.mu.Lock()
	f.text = text
	f.mu.Unlock()
	if f.audio != "" {
		if _, err := io.WriteString(w, f.audio); err != nil {
			return err
		}
	}
	return f.err
}

type stageRecord struct {
	stage string
	err   error
}

type recordingObserver struct {
	mu     sync.Mutex
	stages []stageRecord
}

func (r *recordingObserver) ObserveStage(stage string, elapsed time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stageRecord{stage: stage, err: err})
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func setupScope(t *testing.T) *scratch.Scope {
	t.Helper()
	m, err := scratch.NewManager(t.TempDir(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create scratch manager: %v", err)
	}
	scope, err := m.Acquire()
	if err != nil {
		t.Fatalf("Failed to acquire scope: %v", err)
	}
	t.Cleanup(func() { scope.Release() })
	return scope
}

func assertScopeEmpty(t *testing.T, scope *scratch.Scope) {
	t.Helper()
	entries, err := os.ReadDir(scope.Dir())
	if err != nil {
		t.Fatalf("Failed to read scope: %v", err)
	}
	for _, e := range entries {
		t.Errorf("Unexpected leftover file %s", e.Name())
	}
}

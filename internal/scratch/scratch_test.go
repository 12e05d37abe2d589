package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"
)

func setupManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	return m
}

func TestScopeLifecycle(t *testing.T) {
	m := setupManager(t)

	scope, err := m.Acquire()
	if err != nil {
		t.Fatalf("Failed to acquire scope: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(scope.Dir()), dirPrefix) {
		t.Errorf("Expected scope dir to be prefixed with %q, got %s", dirPrefix, scope.Dir())
	}

	path, n, err := scope.WriteFrom("clip.m4a", strings.NewReader("audio-bytes"))
	if err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if n != int64(len("audio-bytes")) {
		t.Errorf("Expected %d bytes written, got %d", len("audio-bytes"), n)
	}
	if filepath.Dir(path) != scope.Dir() {
		t.Errorf("Expected file inside scope, got %s", path)
	}

	if err := scope.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(scope.Dir()); !os.IsNotExist(err) {
		t.Error("Scope directory should be gone after Release")
	}

	// Second release is a no-op
	if err := scope.Release(); err != nil {
		t.Errorf("Second Release should not fail, got %v", err)
	}
}

func TestScopesAreDistinctForSameName(t *testing.T) {
	m := setupManager(t)

	const workers = 16
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		paths = make(map[string]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scope, err := m.Acquire()
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer scope.Release()

			path, _, err := scope.WriteFrom("response.mp3", strings.NewReader("x"))
			if err != nil {
				t.Errorf("WriteFrom failed: %v", err)
				return
			}
			mu.Lock()
			paths[path] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(paths) != workers {
		t.Errorf("Expected %d distinct paths, got %d", workers, len(paths))
	}

	entries, err := os.ReadDir(m.Root())
	if err != nil {
		t.Fatalf("Failed to read root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty scratch root, found %d entries", len(entries))
	}
}

func TestScopeRemove(t *testing.T) {
	m := setupManager(t)
	scope, err := m.Acquire()
	if err != nil {
		t.Fatalf("Failed to acquire scope: %v", err)
	}
	defer scope.Release()

	path, _, err := scope.WriteFrom("in.wav", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("WriteFrom failed: %v", err)
	}

	scope.Remove(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("File should be removed")
	}

	// Removing a missing file is quiet
	scope.Remove(path)
	scope.Remove("")
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"recording.m4a":         "recording.m4a",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\voice.ogg`: "voice.ogg",
		"my voice (1).webm":     "my_voice__1_.webm",
		"":                      "upload",
		"..":                    "upload",
		".hidden":               "hidden",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voicechat/server/internal/config"
)

// setupEnv leaves only OPENAI_API_KEY set among the credentials the server reads
func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("STT_GOOGLE_API_KEY", "")
	t.Setenv("STT_GOOGLE_CREDENTIALS_FILE", "")
	t.Setenv("SCRATCH_DIR", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func silentWAV(t *testing.T) []byte {
	t.Helper()
	samples := make([]int16, 1600)
	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+2*len(samples)))
	buf.WriteString("WAVEfmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint32(16000))
	binary.Write(buf, binary.LittleEndian, uint32(32000))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(2*len(samples)))
	binary.Write(buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

func TestNewServerWithDefaults(t *testing.T) {
	setupEnv(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	e, cleanup, err := newServer(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("newServer failed: %v", err)
	}
	defer cleanup()

	for _, path := range []string{"/", "/health"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestNewServerWithoutRecognizerCredentials(t *testing.T) {
	setupEnv(t)
	t.Setenv("STT_GOOGLE_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	e, cleanup, err := newServer(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("newServer should keep serving without a recognizer: %v", err)
	}
	defer cleanup()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("audio", "clip.wav")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(silentWAV(t))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/speech-to-text", body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp struct {
		Text      string `json:"text"`
		ErrorKind string `json:"error_kind"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
	if !strings.HasPrefix(resp.Text, "Error with speech recognition service: ") {
		t.Errorf("Expected recognizer sentinel, got %q", resp.Text)
	}
	if resp.ErrorKind != "RecognitionUnavailable" {
		t.Errorf("Expected RecognitionUnavailable, got %q", resp.ErrorKind)
	}
}

package stt

import (
	"context"
	"errors"
	"net"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap/zaptest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
)

var _ repositories.SpeechToText = &GoogleSpeechToText{}

func TestTranscriptFromResponse(t *testing.T) {
	resp := &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{
				{Transcript: "hello there ", Confidence: 0.9},
				{Transcript: "hollow there", Confidence: 0.2},
			}},
			{Alternatives: nil},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "how are you"}}},
		},
	}
	if got := transcriptFromResponse(resp); got != "hello there how are you" {
		t.Errorf("Unexpected transcript %q", got)
	}

	if got := transcriptFromResponse(&speechpb.RecognizeResponse{}); got != "" {
		t.Errorf("Expected empty transcript, got %q", got)
	}
}

func TestRecognizeRequest(t *testing.T) {
	req, err := recognizeRequest([]byte("RIFF"), repositories.AudioConfig{SampleRate: 16000, Encoding: "LINEAR16"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	cfg := req.GetConfig()
	if cfg.GetEncoding() != speechpb.RecognitionConfig_LINEAR16 {
		t.Errorf("Expected LINEAR16, got %v", cfg.GetEncoding())
	}
	if cfg.GetSampleRateHertz() != 16000 {
		t.Errorf("Expected 16000 Hz, got %d", cfg.GetSampleRateHertz())
	}
	if cfg.GetLanguageCode() != "en-US" {
		t.Errorf("Expected default language en-US, got %s", cfg.GetLanguageCode())
	}
	if string(req.GetAudio().GetContent()) != "RIFF" {
		t.Error("Audio content not carried in request")
	}

	if _, err := recognizeRequest(nil, repositories.AudioConfig{}); err == nil {
		t.Error("Expected error for empty audio")
	}
	if _, err := recognizeRequest([]byte("x"), repositories.AudioConfig{Encoding: "AAC"}); err == nil {
		t.Error("Expected error for unsupported encoding")
	}
}

type fakeSpeechServer struct {
	speechpb.UnimplementedSpeechServer

	resp *speechpb.RecognizeResponse
	err  error
	got  *speechpb.RecognizeRequest
}

func (f *fakeSpeechServer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	f.got = req
	return f.resp, f.err
}

// setupGoogleSpeech serves fake on a local listener and connects a client to it
func setupGoogleSpeech(t *testing.T, fake *fakeSpeechServer) *GoogleSpeechToText {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	server := grpc.NewServer()
	speechpb.RegisterSpeechServer(server, fake)
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	g, err := newGoogleSpeechToText(context.Background(), zaptest.NewLogger(t),
		option.WithEndpoint(lis.Addr().String()),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestGoogleSpeechToText_TranscribeAudio(t *testing.T) {
	fake := &fakeSpeechServer{resp: &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "good morning"}}},
		},
	}}
	g := setupGoogleSpeech(t, fake)

	text, err := g.TranscribeAudio(context.Background(), []byte("RIFF"), repositories.AudioConfig{SampleRate: 16000, Language: "en-GB"})
	if err != nil {
		t.Fatalf("TranscribeAudio failed: %v", err)
	}
	if text != "good morning" {
		t.Errorf("Expected %q, got %q", "good morning", text)
	}
	if fake.got.GetConfig().GetLanguageCode() != "en-GB" {
		t.Errorf("Expected language en-GB, got %s", fake.got.GetConfig().GetLanguageCode())
	}
}

func TestGoogleSpeechToText_NoSpeech(t *testing.T) {
	g := setupGoogleSpeech(t, &fakeSpeechServer{resp: &speechpb.RecognizeResponse{}})

	_, err := g.TranscribeAudio(context.Background(), []byte("RIFF"), repositories.AudioConfig{SampleRate: 16000})
	if !errors.Is(err, domain.ErrUnintelligible) {
		t.Errorf("Expected ErrUnintelligible, got %v", err)
	}
}

func TestGoogleSpeechToText_RecognizeError(t *testing.T) {
	g := setupGoogleSpeech(t, &fakeSpeechServer{err: status.Error(codes.PermissionDenied, "API key not valid")})

	_, err := g.TranscribeAudio(context.Background(), []byte("RIFF"), repositories.AudioConfig{SampleRate: 16000})
	if domain.KindOf(err) != domain.KindRecognitionUnavailable {
		t.Errorf("Expected RecognitionUnavailable, got %v", err)
	}
}

func TestUnavailableSpeechToText(t *testing.T) {
	cause := errors.New("could not find default credentials")
	u := NewUnavailableSpeechToText(cause, zaptest.NewLogger(t))

	_, err := u.TranscribeAudio(context.Background(), []byte("RIFF"), repositories.AudioConfig{})
	if domain.KindOf(err) != domain.KindRecognitionUnavailable {
		t.Errorf("Expected RecognitionUnavailable, got %v", err)
	}
	if domain.Detail(err) != cause.Error() {
		t.Errorf("Expected cause in detail, got %q", domain.Detail(err))
	}
}

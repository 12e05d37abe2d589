package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/adapters/llm"
	"github.com/satriahrh/voicechat/server/adapters/stt"
	"github.com/satriahrh/voicechat/server/adapters/transcode"
	"github.com/satriahrh/voicechat/server/adapters/tts"
	"github.com/satriahrh/voicechat/server/domain/repositories"
	"github.com/satriahrh/voicechat/server/internal/api"
	"github.com/satriahrh/voicechat/server/internal/config"
	"github.com/satriahrh/voicechat/server/internal/metrics"
	"github.com/satriahrh/voicechat/server/internal/scratch"
	"github.com/satriahrh/voicechat/server/usecase"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	if src := cfg.Source(); src != "" {
		logger.Info("Loaded config file", zap.String("path", src))
	}

	e, cleanup, err := newServer(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize server", zap.Error(err))
	}
	defer cleanup()

	// Graceful shutdown
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("addr", addr),
		zap.String("stt", cfg.STT.Backend),
		zap.String("chat", cfg.Chat.Backend),
		zap.String("tts", cfg.TTS.Backend),
		zap.String("scratch", cfg.Scratch.Dir))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newServer builds the adapters, services and routes described by cfg.
// The returned cleanup closes the adapters holding connections.
func newServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*echo.Echo, func(), error) {
	m := metrics.NewMetrics()

	scratchManager, err := scratch.NewManager(cfg.Scratch.Dir, logger)
	if err != nil {
		return nil, nil, err
	}

	// Initialize adapters
	var openaiClient *openai.Client
	if cfg.UsesOpenAI() {
		oc := openai.DefaultConfig(cfg.OpenAI.APIKey)
		if cfg.OpenAI.BaseURL != "" {
			oc.BaseURL = cfg.OpenAI.BaseURL
		}
		openaiClient = openai.NewClientWithConfig(oc)
	}

	transcoder := transcode.New(transcode.Config{
		Backend:    cfg.Transcode.Backend,
		FFmpegPath: cfg.Transcode.FFmpegPath,
		SampleRate: cfg.Transcode.SampleRate,
	}, logger)

	speechToText, closeSTT, err := newSpeechToText(ctx, cfg, openaiClient, logger)
	if err != nil {
		logger.Warn("Speech recognizer unavailable, transcription requests will fail",
			zap.String("backend", cfg.STT.Backend),
			zap.Error(err))
		speechToText, closeSTT = stt.NewUnavailableSpeechToText(err, logger), func() {}
	}

	chatModel, err := newChatModel(ctx, cfg, openaiClient, logger)
	if err != nil {
		closeSTT()
		return nil, nil, err
	}

	textToSpeech, err := newTextToSpeech(cfg, openaiClient, logger)
	if err != nil {
		closeSTT()
		return nil, nil, err
	}

	// Initialize usecase services
	timeout := cfg.Server.BackendTimeout
	transcriptionService := usecase.NewTranscriptionService(speechToText, transcoder, usecase.TranscriptionConfig{
		Language: cfg.STT.Language,
		Timeout:  timeout,
	}, m, logger)
	chatService := usecase.NewChatService(chatModel, timeout, m, logger)
	synthesisService := usecase.NewSynthesisService(textToSpeech, timeout, m, logger)
	voiceChatService := usecase.NewVoiceChatService(transcriptionService, chatService, synthesisService, logger)

	// Initialize API routes
	e := api.NewEcho(cfg.Server.BodyLimit, logger)
	handler := api.NewHandler(scratchManager, transcriptionService, chatService, synthesisService, voiceChatService, logger)
	api.InitRoutes(e, handler, m)

	return e, closeSTT, nil
}

func newSpeechToText(ctx context.Context, cfg *config.Config, client *openai.Client, logger *zap.Logger) (repositories.SpeechToText, func(), error) {
	switch cfg.STT.Backend {
	case "whisper":
		return stt.NewWhisperSpeechToText(client, cfg.STT.Whisper.Model, logger), func() {}, nil
	case "mock":
		return stt.NewMockSpeechToText(logger), func() {}, nil
	default:
		g, err := stt.NewGoogleSpeechToText(ctx, stt.GoogleConfig{
			APIKey:          cfg.STT.Google.APIKey,
			CredentialsFile: cfg.STT.Google.CredentialsFile,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return g, func() {
			if err := g.Close(); err != nil {
				logger.Warn("Error closing speech client", zap.Error(err))
			}
		}, nil
	}
}

func newChatModel(ctx context.Context, cfg *config.Config, client *openai.Client, logger *zap.Logger) (repositories.LargeLanguageModel, error) {
	switch cfg.Chat.Backend {
	case "gemini":
		return llm.NewGeminiLLM(ctx, llm.GeminiConfig{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		}, logger)
	case "mock":
		return llm.NewMockLLM(logger), nil
	default:
		return llm.NewOpenAILLM(client, cfg.Chat.Model, logger), nil
	}
}

func newTextToSpeech(cfg *config.Config, client *openai.Client, logger *zap.Logger) (repositories.TextToSpeech, error) {
	switch cfg.TTS.Backend {
	case "elevenlabs":
		el := cfg.TTS.ElevenLabs
		return tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
			APIKey:       el.APIKey,
			APIBaseURL:   el.BaseURL,
			VoiceID:      el.VoiceID,
			ModelID:      el.ModelID,
			OutputFormat: el.OutputFormat,
			Stability:    el.Stability,
			Clarity:      el.Clarity,
		}, logger)
	case "openai":
		return tts.NewOpenAITTS(client, cfg.TTS.OpenAI.Model, cfg.TTS.OpenAI.Voice, logger), nil
	default:
		return tts.NewGoogleTranslateTTS(tts.GoogleTranslateConfig{
			BaseURL:  cfg.TTS.GTTS.BaseURL,
			TLD:      cfg.TTS.GTTS.TLD,
			Language: cfg.TTS.Language,
		}, logger), nil
	}
}

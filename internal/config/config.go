// Package config handles loading and validating the voice chat server
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration of the server
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Scratch   ScratchConfig   `mapstructure:"scratch"`
	Transcode TranscodeConfig `mapstructure:"transcode"`
	STT       STTConfig       `mapstructure:"stt"`
	Chat      ChatConfig      `mapstructure:"chat"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	TTS       TTSConfig       `mapstructure:"tts"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	source string
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	BodyLimit       string        `mapstructure:"body_limit"`      // e.g. "25M"
	BackendTimeout  time.Duration `mapstructure:"backend_timeout"` // 0 disables
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ScratchConfig locates the per-request scratch directories
type ScratchConfig struct {
	Dir string `mapstructure:"dir"`
}

// TranscodeConfig selects how uploads are converted to WAV
type TranscodeConfig struct {
	Backend    string `mapstructure:"backend"` // "auto", "ffmpeg" or "native"
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	SampleRate int    `mapstructure:"sample_rate"`
}

// STTConfig selects and configures the speech recognizer
type STTConfig struct {
	Backend  string          `mapstructure:"backend"` // "google", "whisper" or "mock"
	Language string          `mapstructure:"language"`
	Google   GoogleSTTConfig `mapstructure:"google"`
	Whisper  WhisperConfig   `mapstructure:"whisper"`
}

// GoogleSTTConfig holds Google Cloud Speech credentials
type GoogleSTTConfig struct {
	APIKey          string `mapstructure:"api_key"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// WhisperConfig configures transcription through the OpenAI API
type WhisperConfig struct {
	Model string `mapstructure:"model"`
}

// ChatConfig selects the chat completion backend
type ChatConfig struct {
	Backend string `mapstructure:"backend"` // "openai", "gemini" or "mock"
	Model   string `mapstructure:"model"`
}

// OpenAIConfig holds the settings shared by every OpenAI compatible backend
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig holds Gemini API settings
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// TTSConfig selects and configures the speech synthesizer
type TTSConfig struct {
	Backend    string           `mapstructure:"backend"` // "gtts", "elevenlabs" or "openai"
	Language   string           `mapstructure:"language"`
	GTTS       GTTSConfig       `mapstructure:"gtts"`
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	OpenAI     OpenAITTSConfig  `mapstructure:"openai"`
}

// GTTSConfig configures the Google Translate speech endpoint
type GTTSConfig struct {
	BaseURL string `mapstructure:"base_url"`
	TLD     string `mapstructure:"tld"`
}

// ElevenLabsConfig holds Eleven Labs settings
type ElevenLabsConfig struct {
	APIKey       string  `mapstructure:"api_key"`
	BaseURL      string  `mapstructure:"base_url"`
	VoiceID      string  `mapstructure:"voice_id"`
	ModelID      string  `mapstructure:"model_id"`
	OutputFormat string  `mapstructure:"output_format"`
	Stability    float64 `mapstructure:"stability"`
	Clarity      float64 `mapstructure:"clarity"`
}

// OpenAITTSConfig configures synthesis through the OpenAI API
type OpenAITTSConfig struct {
	Model string `mapstructure:"model"`
	Voice string `mapstructure:"voice"`
}

// LoggingConfig holds structured logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// envBindings maps config keys to the plain environment variables the
// server has always read, next to the derived A_B names
var envBindings = map[string]string{
	"server.port":            "PORT",
	"openai.api_key":         "OPENAI_API_KEY",
	"openai.base_url":        "OPENAI_BASE_URL",
	"gemini.api_key":         "GEMINI_API_KEY",
	"tts.elevenlabs.api_key": "ELEVEN_LABS_API_KEY",
	"stt.google.api_key":     "GOOGLE_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.body_limit", "25M")
	v.SetDefault("server.backend_timeout", "0s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("scratch.dir", filepath.Join(os.TempDir(), "voicechat"))
	v.SetDefault("transcode.backend", "auto")
	v.SetDefault("transcode.ffmpeg_path", "ffmpeg")
	v.SetDefault("transcode.sample_rate", 16000)
	v.SetDefault("stt.backend", "google")
	v.SetDefault("stt.language", "en-US")
	v.SetDefault("stt.google.api_key", "")
	v.SetDefault("stt.google.credentials_file", "")
	v.SetDefault("stt.whisper.model", "whisper-1")
	v.SetDefault("chat.backend", "openai")
	v.SetDefault("chat.model", "gpt-3.5-turbo")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("tts.backend", "gtts")
	v.SetDefault("tts.language", "en")
	v.SetDefault("tts.gtts.base_url", "")
	v.SetDefault("tts.gtts.tld", "com")
	v.SetDefault("tts.elevenlabs.api_key", "")
	v.SetDefault("tts.elevenlabs.base_url", "https://api.elevenlabs.io/v1")
	v.SetDefault("tts.elevenlabs.voice_id", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("tts.elevenlabs.model_id", "eleven_multilingual_v2")
	v.SetDefault("tts.elevenlabs.output_format", "mp3_44100_128")
	v.SetDefault("tts.elevenlabs.stability", 0.5)
	v.SetDefault("tts.elevenlabs.clarity", 0.75)
	v.SetDefault("tts.openai.model", "tts-1")
	v.SetDefault("tts.openai.voice", "alloy")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads the configuration from defaults, an optional YAML file and the
// environment, in increasing precedence. A .env file in the working
// directory is loaded into the environment first. If configFile is
// non-empty it is used directly; otherwise ./voicechat.yaml,
// ./configs/voicechat.yaml and /etc/voicechat/voicechat.yaml are searched.
func Load(configFile string) (*Config, error) {
	// Optional; variables already set in the environment win
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("voicechat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/voicechat")
	}

	// Environment variables: SERVER_PORT, CHAT_BACKEND, TTS_ELEVENLABS_VOICE_ID, etc.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		derived := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, derived, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.source = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Source returns the config file that was read, or "" when only defaults
// and the environment were used
func (c *Config) Source() string {
	return c.source
}

// Validate checks backend names and the credentials they need
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.BackendTimeout < 0 {
		add("server.backend_timeout must not be negative")
	}
	if c.Transcode.SampleRate <= 0 {
		add("transcode.sample_rate must be positive, got %d", c.Transcode.SampleRate)
	}

	switch c.Transcode.Backend {
	case "auto", "ffmpeg", "native":
	default:
		add("unknown transcode.backend %q", c.Transcode.Backend)
	}

	switch c.STT.Backend {
	case "google", "whisper", "mock":
	default:
		add("unknown stt.backend %q", c.STT.Backend)
	}

	switch c.Chat.Backend {
	case "openai", "mock":
	case "gemini":
		if c.Gemini.APIKey == "" {
			add("gemini.api_key (GEMINI_API_KEY) is required for chat.backend gemini")
		}
	default:
		add("unknown chat.backend %q", c.Chat.Backend)
	}

	switch c.TTS.Backend {
	case "gtts", "openai":
	case "elevenlabs":
		if c.TTS.ElevenLabs.APIKey == "" {
			add("tts.elevenlabs.api_key (ELEVEN_LABS_API_KEY) is required for tts.backend elevenlabs")
		}
	default:
		add("unknown tts.backend %q", c.TTS.Backend)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		add("unknown logging.format %q", c.Logging.Format)
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// UsesOpenAI reports whether any backend talks to the OpenAI API
func (c *Config) UsesOpenAI() bool {
	return c.STT.Backend == "whisper" || c.Chat.Backend == "openai" || c.TTS.Backend == "openai"
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the desktop client.
type Config struct {
	Engine  EngineConfig
	Org     OrgConfig
	Audio   AudioConfig
	Session SessionConfig
	Logging LoggingConfig
}

type EngineConfig struct {
	BaseURL string
	Timeout time.Duration
}

type OrgConfig struct {
	OrgID    string
	ClientID string
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type SessionConfig struct {
	ChunkSize int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load resolves configuration from .env files, environment variables, and
// sensible defaults.
func Load() (Config, error) {
	loadDefaultEnv()

	cfg := Config{
		Engine: EngineConfig{
			BaseURL: envOrDefault("CLINTEL_ENGINE_URL", "http://localhost:8000"),
			Timeout: time.Duration(envOrDefaultInt("CLINTEL_ENGINE_TIMEOUT_S", 120)) * time.Second,
		},
		Org: OrgConfig{
			OrgID:    envOrDefault("CLINTEL_ORG_ID", "default_org"),
			ClientID: envOrDefault("CLINTEL_CLIENT_ID", "client_123"),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("CLINTEL_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("CLINTEL_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("CLINTEL_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("CLINTEL_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("CLINTEL_CHANNELS", 1),
		},
		Session: SessionConfig{
			ChunkSize: envOrDefaultInt("CLINTEL_AUDIO_CHUNK_SIZE", 4096),
		},
		Logging: LoggingConfig{
			Level:  envOrDefault("CLINTEL_LOG_LEVEL", "info"),
			Format: envOrDefault("CLINTEL_LOG_FORMAT", "json"),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
	if cfg.Engine.Timeout <= 0 {
		cfg.Engine.Timeout = 120 * time.Second
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

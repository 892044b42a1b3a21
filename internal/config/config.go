package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// NATS (job queue)
	NATSURL     string
	NATSStream  string
	NATSSubject string
	NATSDurable string

	// Database
	DatabaseURL string

	// Object storage
	StorageURL           string
	StorageServiceKey    string
	StorageBucket        string
	StoragePublicBaseURL string // Optional override; empty = derive from StorageURL

	// TTS
	EndpointsFile string // YAML file with the ordered synthesis endpoint list
	Voice         string // Voice name, e.g. "US_MALE_1"
	ChunkLimit    int    // Max chunk size in bytes per synthesis request

	// Rendering
	RenderMode          string // "audio" = raw narration file, "video" = captioned video
	BackgroundVideoPath string // Required when RenderMode is "video"
	VideoOutputDir      string

	// OpenAI (used for Whisper caption timing in video mode)
	OpenAIKey string

	// Health endpoints
	HealthPort string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	chunkLimit, err := getEnvInt("TTS_CHUNK_LIMIT", 300)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		NATSURL:              getEnv("NATS_URL", "nats://localhost:4222"),
		NATSStream:           getEnv("NATS_STREAM", "VIDEOS"),
		NATSSubject:          getEnv("NATS_SUBJECT", "videos.generate"),
		NATSDurable:          getEnv("NATS_DURABLE", "processor"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		StorageURL:           getEnv("STORAGE_URL", ""),
		StorageServiceKey:    getEnv("STORAGE_SERVICE_KEY", ""),
		StorageBucket:        getEnv("STORAGE_BUCKET", "ctdroid-video-bucket"),
		StoragePublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
		EndpointsFile:        getEnv("TTS_ENDPOINTS_FILE", "config/endpoints.yaml"),
		Voice:                getEnv("TTS_VOICE", "US_MALE_1"),
		ChunkLimit:           chunkLimit,
		RenderMode:           getEnv("RENDER_MODE", "video"),
		BackgroundVideoPath:  getEnv("BACKGROUND_VIDEO_PATH", "assets/background.mp4"),
		VideoOutputDir:       getEnv("VIDEO_OUTPUT_DIR", "./videos"),
		OpenAIKey:            getEnv("OPENAI_API_KEY", ""),
		HealthPort:           getEnv("HEALTH_PORT", "8080"),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.StorageURL == "" || cfg.StorageServiceKey == "" {
		return nil, fmt.Errorf("STORAGE_URL and STORAGE_SERVICE_KEY are required")
	}

	if cfg.StorageBucket == "" {
		return nil, fmt.Errorf("STORAGE_BUCKET is required")
	}

	if cfg.ChunkLimit <= 0 {
		return nil, fmt.Errorf("TTS_CHUNK_LIMIT must be positive")
	}

	switch cfg.RenderMode {
	case "audio":
	case "video":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when RENDER_MODE=video")
		}
		if cfg.BackgroundVideoPath == "" {
			return nil, fmt.Errorf("BACKGROUND_VIDEO_PATH is required when RENDER_MODE=video")
		}
	default:
		return nil, fmt.Errorf("RENDER_MODE must be \"audio\" or \"video\", got %q", cfg.RenderMode)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return i, nil
}

// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultAddr      = "127.0.0.1:8000"
	DefaultTextModel = "gemini-2.5-flash"
	DefaultTTSModel  = "gemini-2.5-flash-preview-tts"
	DefaultAudioDir  = "static/audio"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultAllowedOrigins are the local frontend dev servers.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://localhost:5174",
	"http://localhost:5175",
}

var (
	// ErrMissingDatabaseURL is returned when DATABASE_URL is not set.
	ErrMissingDatabaseURL = errors.New("missing DATABASE_URL environment variable")

	// ErrMissingAPIKey is returned when GOOGLE_API_KEY is not set.
	ErrMissingAPIKey = errors.New("missing GOOGLE_API_KEY environment variable")

	// ErrMissingAuthConfig is returned when neither FIREBASE_PROJECT_ID nor
	// AUTH_HMAC_SECRET is set.
	ErrMissingAuthConfig = errors.New("missing FIREBASE_PROJECT_ID or AUTH_HMAC_SECRET environment variable")
)

// Config holds the service configuration.
type Config struct {
	Addr        string
	DatabaseURL string

	Gemini GeminiConfig
	Auth   AuthConfig
	Audio  AudioConfig

	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
}

// GeminiConfig holds generative model settings.
type GeminiConfig struct {
	APIKey    string
	TextModel string
	TTSModel  string
}

// AuthConfig selects how bearer credentials are verified.
type AuthConfig struct {
	FirebaseProjectID string
	HMACSecret        string
}

// AudioConfig selects where synthesized audio is stored.
type AudioConfig struct {
	Dir           string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	PublicBaseURL string

	// Static credentials for S3 compatible stores. Empty means the default
	// AWS credential chain.
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// UseS3 reports whether audio assets go to S3 instead of the local directory.
func (c AudioConfig) UseS3() bool {
	return c.S3Bucket != ""
}

// LoadDotEnv loads variables from a .env file in the working directory.
// A missing file is not an error.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads configuration from environment variables.
// Returns ErrMissingDatabaseURL, ErrMissingAPIKey or ErrMissingAuthConfig when
// required values are absent.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:        getEnv("ADDR", DefaultAddr),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Gemini: GeminiConfig{
			APIKey:    os.Getenv("GOOGLE_API_KEY"),
			TextModel: getEnv("GEMINI_TEXT_MODEL", DefaultTextModel),
			TTSModel:  getEnv("GEMINI_TTS_MODEL", DefaultTTSModel),
		},
		Auth: AuthConfig{
			FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
			HMACSecret:        os.Getenv("AUTH_HMAC_SECRET"),
		},
		Audio: AudioConfig{
			Dir:           getEnv("AUDIO_DIR", DefaultAudioDir),
			S3Bucket:      os.Getenv("AUDIO_S3_BUCKET"),
			S3Region:      os.Getenv("AUDIO_S3_REGION"),
			S3Endpoint:    os.Getenv("AUDIO_S3_ENDPOINT"),
			PublicBaseURL: os.Getenv("AUDIO_PUBLIC_BASE_URL"),

			S3AccessKeyID:     os.Getenv("AUDIO_S3_ACCESS_KEY_ID"),
			S3SecretAccessKey: os.Getenv("AUDIO_S3_SECRET_ACCESS_KEY"),
		},
		AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		LogLevel:       getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:      getEnv("LOG_FORMAT", DefaultLogFormat),
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultAllowedOrigins
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if cfg.Gemini.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Auth.FirebaseProjectID == "" && cfg.Auth.HMACSecret == "" {
		return nil, ErrMissingAuthConfig
	}

	return cfg, nil
}

// LoadDatabaseURL reads only DATABASE_URL, for commands that need nothing else.
func LoadDatabaseURL() (string, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", ErrMissingDatabaseURL
	}
	return url, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package config loads threatwatch configuration from the environment
// with an optional YAML overlay file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider identifies an embedding backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
	ProviderVoyage Provider = "voyage"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Embedding provider
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`
	OllamaHost     string   `yaml:"ollama_host"`
	OpenAIAPIKey   string   `yaml:"openai_api_key"`
	VoyageAPIKey   string   `yaml:"voyage_api_key"`

	// Query interpretation
	AssumedDurationSecs float64 `yaml:"assumed_duration_secs"`

	// Store introspection: soft capacity used for the fullness ratio.
	// Zero means fullness is reported as 0.
	CapacityHint int `yaml:"capacity_hint"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "surveillance"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "events"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		EmbedProvider:  Provider(getEnv("THREATWATCH_EMBED_PROVIDER", string(ProviderOllama))),
		EmbedModel:     getEnv("THREATWATCH_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("THREATWATCH_EMBED_DIMENSION", 384),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		VoyageAPIKey:   getEnv("VOYAGE_API_KEY", ""),

		AssumedDurationSecs: getEnvFloat("THREATWATCH_ASSUMED_DURATION", 60),
		CapacityHint:        getEnvInt("THREATWATCH_CAPACITY_HINT", 0),

		LogFile:  getEnv("THREATWATCH_LOG_FILE", "/tmp/threatwatch.log"),
		LogLevel: parseLogLevel(getEnv("THREATWATCH_LOG_LEVEL", "INFO")),
	}
}

// LoadFile overlays values from a YAML config file onto cfg. Only keys
// present in the file are overridden.
func LoadFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that required credentials are present for the
// configured providers. Failures here are fatal at startup.
func (c Config) Validate() error {
	if c.SurrealDBURL == "" {
		return fmt.Errorf("SURREALDB_URL is required")
	}
	switch c.EmbedProvider {
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("OLLAMA_HOST is required for the ollama embedding provider")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
	case ProviderVoyage:
		if c.VoyageAPIKey == "" {
			return fmt.Errorf("VOYAGE_API_KEY is required for the voyage embedding provider")
		}
	default:
		return fmt.Errorf("unknown embedding provider: %s", c.EmbedProvider)
	}
	if c.EmbedDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbedDimension)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Server contains HTTP listener settings.
type Server struct {
	Addr                   string `yaml:"addr" toml:"addr"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
}

// Redis contains settings for the Redis list backend.
type Redis struct {
	Address  string `yaml:"address" toml:"address"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	Key      string `yaml:"key" toml:"key"`
}

// Milvus contains settings for the Milvus backend.
type Milvus struct {
	Address    string `yaml:"address" toml:"address"`
	Collection string `yaml:"collection" toml:"collection"`
}

// Store selects and configures the knowledge store backend.
type Store struct {
	// Type is one of json, memory, sqlite, redis, milvus.
	Type string `yaml:"type" toml:"type"`
	// Path is the file for the json and sqlite backends.
	Path string `yaml:"path" toml:"path"`
	// IndexAnalyses stores a poem-analysis entry after every successful analysis.
	IndexAnalyses bool   `yaml:"index_analyses" toml:"index_analyses"`
	Redis         Redis  `yaml:"redis" toml:"redis"`
	Milvus        Milvus `yaml:"milvus" toml:"milvus"`
}

// Embedder configures the embedding provider.
type Embedder struct {
	// Provider is openai or hash.
	Provider  string `yaml:"provider" toml:"provider"`
	Model     string `yaml:"model" toml:"model"`
	Dimension int    `yaml:"dimension" toml:"dimension"`
	BaseURL   string `yaml:"base_url" toml:"base_url"`
}

// LLM configures the chat and analysis model.
type LLM struct {
	Model       string  `yaml:"model" toml:"model"`
	Temperature float32 `yaml:"temperature" toml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" toml:"max_tokens"`
	BaseURL     string  `yaml:"base_url" toml:"base_url"`
}

// Retrieval tunes context selection.
type Retrieval struct {
	TopK int `yaml:"top_k" toml:"top_k"`
	// MinScore drops entries scoring below it. Unset means no cutoff.
	MinScore *float64 `yaml:"min_score" toml:"min_score"`
}

// Speech configures text-to-speech voices.
type Speech struct {
	// TamilURL is the TTS service endpoint for Tamil. Empty disables Tamil speech.
	TamilURL string `yaml:"tamil_url" toml:"tamil_url"`
	// OpenAIModel and OpenAIVoice serve English through OpenAI.
	OpenAIModel string `yaml:"openai_model" toml:"openai_model"`
	OpenAIVoice string `yaml:"openai_voice" toml:"openai_voice"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Config encapsulates all configuration values for kural.
type Config struct {
	Server    Server    `yaml:"server" toml:"server"`
	Store     Store     `yaml:"store" toml:"store"`
	Embedder  Embedder  `yaml:"embedder" toml:"embedder"`
	LLM       LLM       `yaml:"llm" toml:"llm"`
	Retrieval Retrieval `yaml:"retrieval" toml:"retrieval"`
	Speech    Speech    `yaml:"speech" toml:"speech"`
	Log       Logging   `yaml:"log" toml:"log"`

	// OpenAIAPIKey only comes from the environment.
	OpenAIAPIKey string `yaml:"-" toml:"-"`
}

// Load builds the configuration: defaults, then the file at path (if any),
// then environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	default:
		return fmt.Errorf("parse config: unsupported extension %q (use .yaml, .yml or .toml)", filepath.Ext(path))
	}
	return nil
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Store      StoreConfig      `yaml:"store"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Whisper    WhisperConfig    `yaml:"whisper"`
	Drift      DriftConfig      `yaml:"drift"`
	Generation GenerationConfig `yaml:"generation"`
	Export     ExportConfig     `yaml:"export"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	Dir      string `yaml:"dir"`
	InMemory bool   `yaml:"in_memory"`
}

type OpenAIConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	EmbeddingModel     string `yaml:"embedding_model"`
	EmbeddingDimension int    `yaml:"embedding_dimension"`
	TranscriptionModel string `yaml:"transcription_model"`
}

type GeminiConfig struct {
	APIKeys []string `yaml:"api_keys"`
	Model   string   `yaml:"model"`
}

// WhisperConfig configures the transcription backend. With backend "whisper"
// a local whisper.cpp binary is used instead of the OpenAI API.
type WhisperConfig struct {
	Backend    string `yaml:"backend"` // "openai" or "whisper"
	BinaryPath string `yaml:"binary_path"`
	ModelPath  string `yaml:"model_path"`
	Language   string `yaml:"language"`
}

type DriftConfig struct {
	Threshold  float32 `yaml:"threshold"`
	WindowSize int     `yaml:"window_size"`
}

type GenerationConfig struct {
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads and validates a yaml config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Whisper.Backend == "" {
		c.Whisper.Backend = "openai"
	}
	switch c.Whisper.Backend {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key is required")
		}
	case "whisper":
		if c.Whisper.BinaryPath == "" {
			return fmt.Errorf("whisper.binary_path is required")
		}
		if c.Whisper.ModelPath == "" {
			return fmt.Errorf("whisper.model_path is required")
		}
		// embeddings still go through the OpenAI API
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key is required")
		}
	default:
		return fmt.Errorf("whisper.backend must be \"openai\" or \"whisper\", got %q", c.Whisper.Backend)
	}

	if len(c.Gemini.APIKeys) == 0 {
		return fmt.Errorf("gemini.api_keys is required")
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":5555"
	}
	if c.Store.Dir == "" && !c.Store.InMemory {
		c.Store.Dir = "data/meetings"
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.EmbeddingDimension == 0 {
		c.OpenAI.EmbeddingDimension = 768
	}
	if c.OpenAI.TranscriptionModel == "" {
		c.OpenAI.TranscriptionModel = "whisper-1"
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Drift.Threshold == 0 {
		c.Drift.Threshold = 0.8
	}
	if c.Drift.WindowSize == 0 {
		c.Drift.WindowSize = 100
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = 0.7
	}
	if c.Generation.MaxTokens == 0 {
		c.Generation.MaxTokens = 256
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "data/transcripts"
	}

	return nil
}

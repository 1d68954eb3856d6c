package main

import (
	"fmt"
	"os"
	"time"

	"github.com/zoobzio/ponder"
	"gopkg.in/yaml.v3"
)

// Config is the ponder CLI configuration file.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Agent     AgentConfig     `yaml:"agent"`
	Reduce    ReduceConfig    `yaml:"reduce"`
}

// LLMConfig configures the chat endpoint.
type LLMConfig struct {
	BaseURL         string `yaml:"base_url"`
	APIKey          string `yaml:"api_key"`
	ControllerModel string `yaml:"controller_model"`
	ReaderModel     string `yaml:"reader_model"` // defaults to controller_model
}

// EmbeddingConfig configures the embeddings endpoint used by the index.
type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url"` // defaults to llm.base_url
	APIKey     string `yaml:"api_key"`  // defaults to llm.api_key
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// DatabaseConfig configures the PostgreSQL connection behind the passage
// index and session memory.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// AgentConfig configures the reasoning loop.
type AgentConfig struct {
	MaxSteps        int           `yaml:"max_steps"`
	MaxStepFailures int           `yaml:"max_step_failures"`
	PeekCount       int           `yaml:"peek_count"`
	Attempts        int           `yaml:"attempts"` // controller call attempts per step
	Backoff         time.Duration `yaml:"backoff"`
}

// ReduceConfig configures map-reduce summarization.
type ReduceConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:         ponder.DefaultOpenAIBaseURL,
			ControllerModel: "gpt-4o-mini",
		},
		Embedding: EmbeddingConfig{
			Model:      ponder.ModelTextEmbedding3Small,
			Dimensions: ponder.DimensionsEmbedding3S,
		},
		Agent: AgentConfig{
			MaxSteps:        ponder.DefaultMaxSteps,
			MaxStepFailures: ponder.DefaultMaxStepFailures,
			PeekCount:       ponder.DefaultPeekCount,
			Attempts:        3,
			Backoff:         time.Second,
		},
		Reduce: ReduceConfig{
			Concurrency: 8,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied either way.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides. Secrets are
// expected to come from the environment rather than the file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("PONDER_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if url := os.Getenv("PONDER_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if url := os.Getenv("PONDER_DATABASE_URL"); url != "" {
		c.Database.URL = url
	}
}

// readerModel returns the model name used for summarization.
func (c *LLMConfig) readerModel() string {
	if c.ReaderModel != "" {
		return c.ReaderModel
	}
	return c.ControllerModel
}

// Package config loads application settings from the environment, with an
// optional YAML override for the persona weight table.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/medlexica/regagent/planner"
)

// Provider names accepted by REGAGENT_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Config holds every runtime setting for the service.
type Config struct {
	// Model provider selection and credentials.
	Provider        string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	ReasoningModel  string
	SynthesisModel  string

	// Pipeline tuning.
	CoverageThreshold   float64
	TopK                int
	EvidenceTokenBudget int
	WeightTablePath     string
	NamespaceMapPath    string

	// Corpus store.
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Conversation history.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTurns  int

	// Observability.
	TracePath string
	MongoURI  string
}

// Load reads configuration from REGAGENT_* environment variables, applying
// defaults for everything optional.
func Load() (*Config, error) {
	cfg := &Config{
		Provider:            envOr("REGAGENT_PROVIDER", ProviderGemini),
		GeminiAPIKey:        os.Getenv("REGAGENT_GEMINI_API_KEY"),
		OpenAIAPIKey:        os.Getenv("REGAGENT_OPENAI_API_KEY"),
		AnthropicAPIKey:     os.Getenv("REGAGENT_ANTHROPIC_API_KEY"),
		ReasoningModel:      os.Getenv("REGAGENT_REASONING_MODEL"),
		SynthesisModel:      os.Getenv("REGAGENT_SYNTHESIS_MODEL"),
		CoverageThreshold:   envFloatOr("REGAGENT_COVERAGE_THRESHOLD", planner.DefaultCoverageThreshold),
		TopK:                envIntOr("REGAGENT_TOP_K", 5),
		EvidenceTokenBudget: envIntOr("REGAGENT_EVIDENCE_TOKEN_BUDGET", 6000),
		WeightTablePath:     os.Getenv("REGAGENT_WEIGHT_TABLE"),
		NamespaceMapPath:    os.Getenv("REGAGENT_NAMESPACE_MAP"),
		PostgresHost:        envOr("REGAGENT_PG_HOST", "127.0.0.1"),
		PostgresPort:        envIntOr("REGAGENT_PG_PORT", 5432),
		PostgresUser:        envOr("REGAGENT_PG_USER", "postgres"),
		PostgresPassword:    os.Getenv("REGAGENT_PG_PASSWORD"),
		PostgresDB:          envOr("REGAGENT_PG_DB", "regagent"),
		PostgresSSLMode:     envOr("REGAGENT_PG_SSLMODE", "disable"),
		RedisAddr:           envOr("REGAGENT_REDIS_ADDR", "localhost:6379"),
		RedisPassword:       os.Getenv("REGAGENT_REDIS_PASSWORD"),
		RedisDB:             envIntOr("REGAGENT_REDIS_DB", 0),
		SessionTurns:        envIntOr("REGAGENT_SESSION_TURNS", 20),
		TracePath:           envOr("REGAGENT_TRACE_PATH", "trace_logs.jsonl"),
		MongoURI:            os.Getenv("REGAGENT_MONGO_URI"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	v := NewValidator()
	v.ValidateOneOf("provider", c.Provider, ProviderGemini, ProviderOpenAI, ProviderClaude)
	v.ValidateFloatRange("coverage_threshold", c.CoverageThreshold, 0, 1)
	v.RequirePositive("top_k", c.TopK)
	v.RequirePositive("evidence_token_budget", c.EvidenceTokenBudget)
	v.ValidatePort("pg_port", c.PostgresPort)
	v.ValidateRange("redis_db", c.RedisDB, 0, 15)
	v.RequirePositive("session_turns", c.SessionTurns)
	v.RequireNonEmpty("trace_path", c.TracePath)

	switch c.Provider {
	case ProviderGemini:
		v.RequireNonEmpty("gemini_api_key", c.GeminiAPIKey)
	case ProviderOpenAI:
		v.RequireNonEmpty("openai_api_key", c.OpenAIAPIKey)
	case ProviderClaude:
		v.RequireNonEmpty("anthropic_api_key", c.AnthropicAPIKey)
	}
	return v.Error()
}

// LoadWeightTable returns the persona weight table: the YAML file at path
// when set, the built-in defaults otherwise.
func LoadWeightTable(path string) (planner.WeightTable, error) {
	if path == "" {
		return planner.DefaultWeightTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weight table: %w", err)
	}
	var table planner.WeightTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse weight table: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("weight table %s is empty", path)
	}
	return table, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloatOr(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

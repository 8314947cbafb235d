package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"PB_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"PB_DB_MAX_CONNS" default:"8"`

	AnthropicAPIKey  string        `envconfig:"ANTHROPIC_API_KEY" default:""`
	LLMModel         string        `envconfig:"LLM_MODEL" default:"claude-haiku-4-5-20251001"`
	LLMMaxTokens     int64         `envconfig:"LLM_MAX_TOKENS" default:"1024"`
	LLMRetryAttempts int           `envconfig:"LLM_RETRY_ATTEMPTS" default:"3"`
	LLMRetryBaseWait time.Duration `envconfig:"LLM_RETRY_BASE_WAIT" default:"1s"`

	EmbeddingEndpoint       string        `envconfig:"EMBEDDING_ENDPOINT" default:"http://127.0.0.1:8844/embed"`
	EmbeddingRequestTimeout time.Duration `envconfig:"EMBEDDING_REQUEST_TIMEOUT" default:"45s"`
	EmbeddingMaxLength      int           `envconfig:"EMBEDDING_MAX_LENGTH" default:"512"`

	// MatchThreshold gates the ingestion-time catalog match; SimilarityThreshold
	// applies only to read-time similarity queries over the API.
	MatchThreshold      float64 `envconfig:"MATCH_THRESHOLD" default:"0.65"`
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.85"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("PB_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("PB_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("PB_DB_MIN_CONNS (%d) cannot exceed PB_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.LLMMaxTokens < 1 {
		return fmt.Errorf("LLM_MAX_TOKENS must be >= 1")
	}
	if c.LLMRetryAttempts < 1 {
		return fmt.Errorf("LLM_RETRY_ATTEMPTS must be >= 1")
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold >= 1 {
		return fmt.Errorf("MATCH_THRESHOLD must be in (0, 1)")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold >= 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1)")
	}
	return nil
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}

package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/mycelian/mycelian-journal/internal/localstate"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Prefix is the environment variable prefix, e.g. JOURNAL_SERVER_HTTP_PORT.
const Prefix = "JOURNAL_SERVER"

// Config holds the configuration for the journal service.
type Config struct {
	// Build target selects high-level environment: local, cloud-dev, cloud
	BuildTarget string      `envconfig:"BUILD_TARGET" default:"local"`
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Persistence
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Embeddings and retrieval
	EmbedProvider string `envconfig:"EMBED_PROVIDER" default:"local"`
	EmbedModel    string `envconfig:"EMBED_MODEL" default:"all-minilm"`
	OllamaURL     string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	VectorIndex   string `envconfig:"VECTOR_INDEX" default:"store"`
	ChromemPath   string `envconfig:"CHROMEM_PATH" default:""`

	// Generative-text backend
	LLMProvider   string        `envconfig:"LLM_PROVIDER" default:"disabled"`
	LLMBaseURL    string        `envconfig:"LLM_BASE_URL" default:"https://api.deepseek.com/v1"`
	LLMAPIKey     string        `envconfig:"LLM_API_KEY" default:""`
	LLMModel      string        `envconfig:"LLM_MODEL" default:"deepseek-chat"`
	LLMTimeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"20s"`
	LLMMaxRetries int           `envconfig:"LLM_MAX_RETRIES" default:"2"`
	LLMRatePerSec float64       `envconfig:"LLM_RATE_PER_SEC" default:"5"`

	// Health
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"10"`

	// Embedding backfill; zero interval disables the in-process worker
	BackfillIntervalSeconds int `envconfig:"BACKFILL_INTERVAL_SECONDS" default:"60"`
	BackfillBatchSize       int `envconfig:"BACKFILL_BATCH_SIZE" default:"100"`

	// API keys as key=userId pairs separated by commas; userId * grants every user.
	// Empty disables authentication.
	APIKeys string `envconfig:"API_KEYS" default:""`

	MaxContentBytes int `envconfig:"MAX_CONTENT_BYTES" default:"20000"`
}

// ResolveDefaults validates BuildTarget and the provider enums, then derives
// DBDriver and local paths when they are left on auto or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud-dev", "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	allowedEmbed := map[string]bool{"local": true, "ollama": true}
	if !allowedEmbed[c.EmbedProvider] {
		return fmt.Errorf("unsupported EMBED_PROVIDER: %s", c.EmbedProvider)
	}
	allowedIndex := map[string]bool{"store": true, "chromem": true}
	if !allowedIndex[c.VectorIndex] {
		return fmt.Errorf("unsupported VECTOR_INDEX: %s", c.VectorIndex)
	}
	allowedLLM := map[string]bool{"disabled": true, "openai": true}
	if !allowedLLM[c.LLMProvider] {
		return fmt.Errorf("unsupported LLM_PROVIDER: %s", c.LLMProvider)
	}

	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
	}
	if c.LLMProvider == "openai" && c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required when LLM_PROVIDER=openai")
	}

	if c.DBDriver == "sqlite" && c.SQLitePath == "" {
		p, err := localstate.DBPath()
		if err != nil {
			return fmt.Errorf("resolve sqlite path: %w", err)
		}
		c.SQLitePath = p
	}
	if c.VectorIndex == "chromem" && c.ChromemPath == "" {
		p, err := localstate.VectorsPath()
		if err != nil {
			return fmt.Errorf("resolve chromem path: %w", err)
		}
		c.ChromemPath = p
	}
	if c.MaxContentBytes <= 0 {
		c.MaxContentBytes = 20000
	}
	return nil
}

// New creates a new Config by parsing JOURNAL_SERVER_* environment variables.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Str("sqlite_path", cfg.SQLitePath).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Str("embed_provider", cfg.EmbedProvider).
		Str("embed_model", cfg.EmbedModel).
		Str("vector_index", cfg.VectorIndex).
		Str("llm_provider", cfg.LLMProvider).
		Str("llm_model", cfg.LLMModel).
		Int("backfill_interval_seconds", cfg.BackfillIntervalSeconds).
		Bool("auth_enabled", cfg.APIKeys != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting returns a self-contained config: sqlite, local embedder and
// no generative backend.
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		DBDriver:                  "sqlite",
		EmbedProvider:             "local",
		EmbedModel:                "all-minilm",
		VectorIndex:               "store",
		LLMProvider:               "disabled",
		LLMModel:                  "deepseek-chat",
		LLMTimeout:                5 * time.Second,
		LLMMaxRetries:             0,
		LLMRatePerSec:             100,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 2,
		BootstrapTimeoutSeconds:   5,
		BackfillIntervalSeconds:   0,
		BackfillBatchSize:         100,
		MaxContentBytes:           20000,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// HealthInterval returns the health evaluation interval as a duration.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalSeconds) * time.Second
}

// BackfillInterval returns the backfill poll interval; zero means disabled.
func (c *Config) BackfillInterval() time.Duration {
	if c.BackfillIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.BackfillIntervalSeconds) * time.Second
}

// BootstrapTimeout bounds startup work such as schema setup and provider warmup.
func (c *Config) BootstrapTimeout() time.Duration {
	if c.BootstrapTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.BootstrapTimeoutSeconds) * time.Second
}

// HealthProbeTimeout returns the per-probe timeout as a duration.
func (c *Config) HealthProbeTimeout() time.Duration {
	return time.Duration(c.HealthProbeTimeoutSeconds) * time.Second
}

package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/cloo-solutions/panelsearch/internal/domain"
)

const envPrefix = "PANEL"

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	// DatabaseURL is only needed by commands that touch the database; see RequireDatabase.
	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	DBMaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns        int32         `envconfig:"DB_MIN_CONNS" default:"1"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`

	ChunkMaxChars     int `envconfig:"CHUNK_MAX_CHARS" default:"800"`
	ChunkOverlapChars int `envconfig:"CHUNK_OVERLAP_CHARS" default:"160"`
	ChunkWorkers      int `envconfig:"CHUNK_WORKERS" default:"4"`

	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`
	OpenAIEmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	OpenAIChatModel      string `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-4o-mini"`
	EmbeddingDimensions  int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"panel-chunks"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Prefix    string `envconfig:"S3_PREFIX"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

// Load reads configuration from the environment, after loading .env from
// the working directory when present.
func Load() (*Config, error) {
	return LoadFrom()
}

// LoadFrom is Load with explicit env files. Unlike the implicit .env, a
// named file that cannot be read is an error. Variables already set in the
// environment win over file values.
func LoadFrom(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects chunk windows that cannot make progress.
func (c *Config) Validate() error {
	if c.ChunkMaxChars <= 0 || c.ChunkOverlapChars < 0 || c.ChunkOverlapChars >= c.ChunkMaxChars {
		return domain.NewDomainErrorWithCause(
			domain.ErrCodeValidation,
			domain.ErrInvalidChunkConfig.Message,
			fmt.Errorf("max_chars=%d overlap=%d", c.ChunkMaxChars, c.ChunkOverlapChars),
		)
	}
	if c.ChunkWorkers <= 0 {
		return domain.NewDomainErrorWithCause(
			domain.ErrCodeValidation,
			domain.ErrInvalidChunkConfig.Message,
			fmt.Errorf("workers=%d", c.ChunkWorkers),
		)
	}
	return nil
}

// RequireDatabase errors when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("required key %s_DATABASE_URL missing value", envPrefix)
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

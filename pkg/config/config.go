package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Extraction ExtractionConfig
	Pipeline   PipelineConfig
	Webhook    WebhookConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	BodyLimit       string   `envconfig:"BODY_LIMIT" default:"2M"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host          string `envconfig:"DB_HOST" default:"localhost"`
	Port          string `envconfig:"DB_PORT" default:"5432"`
	User          string `envconfig:"DB_USER" default:"postgres"`
	Password      string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name          string `envconfig:"DB_NAME" default:"handoff_assistant"`
	SSLMode       string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns      int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns      int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate   bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
	MigrationsDir string `envconfig:"DB_MIGRATIONS_DIR" default:"migrations"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled    bool          `envconfig:"REDIS_ENABLED" default:"true"`
	Host       string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port       string        `envconfig:"REDIS_PORT" default:"6379"`
	Password   string        `envconfig:"REDIS_PASSWORD"`
	DB         int           `envconfig:"REDIS_DB" default:"0"`
	HistoryTTL time.Duration `envconfig:"REDIS_HISTORY_TTL" default:"10m"`
}

// StorageConfig holds object storage configuration for handoff archives
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"handoff-archive"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// ExtractionConfig holds settings for the OpenAI-compatible extraction endpoint
type ExtractionConfig struct {
	BaseURL         string        `envconfig:"EXTRACTION_BASE_URL" default:"https://api.groq.com/openai/v1"`
	APIKey          string        `envconfig:"EXTRACTION_API_KEY"`
	Model           string        `envconfig:"EXTRACTION_MODEL" default:"llama-3.3-70b-versatile"`
	Temperature     float64       `envconfig:"EXTRACTION_TEMPERATURE" default:"0.1"`
	MaxTokens       int           `envconfig:"EXTRACTION_MAX_TOKENS" default:"4000"`
	RequestTimeout  time.Duration `envconfig:"EXTRACTION_REQUEST_TIMEOUT" default:"30s"`
	InitialInterval time.Duration `envconfig:"EXTRACTION_RETRY_INTERVAL" default:"2s"`
	MaxElapsed      time.Duration `envconfig:"EXTRACTION_MAX_ELAPSED" default:"40s"`
}

// PipelineConfig holds analysis pipeline settings
type PipelineConfig struct {
	ExtractionTimeout time.Duration `envconfig:"PIPELINE_EXTRACTION_TIMEOUT" default:"45s"`
	ContextLimit      int           `envconfig:"PIPELINE_CONTEXT_LIMIT" default:"2"`
	RulesFile         string        `envconfig:"PIPELINE_RULES_FILE"`
	NarrativeLocale   string        `envconfig:"PIPELINE_NARRATIVE_LOCALE" default:"en"`
	Workers           int           `envconfig:"PIPELINE_WORKERS" default:"2"`
	QueueSize         int           `envconfig:"PIPELINE_QUEUE_SIZE" default:"64"`
}

// WebhookConfig holds the shared secret for signed transcript deliveries
type WebhookConfig struct {
	Secret string `envconfig:"WEBHOOK_SECRET"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{}
	sections := []interface{}{
		&config.Server,
		&config.Database,
		&config.Redis,
		&config.Storage,
		&config.Extraction,
		&config.Pipeline,
		&config.Webhook,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Extraction.APIKey == "" {
		log.Printf("Warning: EXTRACTION_API_KEY is empty, handoffs will be analyzed without extraction")
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Pipeline.ContextLimit <= 0 {
		return fmt.Errorf("PIPELINE_CONTEXT_LIMIT must be positive")
	}
	if c.Pipeline.ExtractionTimeout <= 0 {
		return fmt.Errorf("PIPELINE_EXTRACTION_TIMEOUT must be positive")
	}
	if c.Pipeline.Workers <= 0 || c.Pipeline.QueueSize <= 0 {
		return fmt.Errorf("PIPELINE_WORKERS and PIPELINE_QUEUE_SIZE must be positive")
	}
	if c.Storage.Enabled && (c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "") {
		return fmt.Errorf("STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required when storage is enabled")
	}
	return nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

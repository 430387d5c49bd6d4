// Package config provides configuration management for the model ingestion service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the model ingestion service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Temporal contains Temporal workflow orchestration settings.
	Temporal TemporalConfig `mapstructure:"temporal"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// LLM contains LLM client settings for enrichment and spam checks.
	LLM LLMConfig `mapstructure:"llm"`
	// ObjectStore contains S3-compatible object store settings for backups.
	ObjectStore ObjectStoreConfig `mapstructure:"object_store"`
	// Qdrant contains Qdrant vector store settings.
	Qdrant QdrantConfig `mapstructure:"qdrant"`
	// Kafka contains Kafka publisher settings for domain events.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Registry contains origin registry API settings for spam checks.
	Registry RegistryConfig `mapstructure:"registry"`
	// Docs contains document conversion and chunking settings.
	Docs DocsConfig `mapstructure:"docs"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use environment variable in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	// Default is "require" for production security. Use "disable" only for local development.
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 50).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 10).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// TemporalConfig holds Temporal workflow configuration.
type TemporalConfig struct {
	// HostPort is the Temporal server address.
	HostPort string `mapstructure:"host_port"`
	// Namespace is the Temporal namespace.
	Namespace string `mapstructure:"namespace"`
	// IngestTaskQueue is the task queue for model ingestion workflows.
	IngestTaskQueue string `mapstructure:"ingest_task_queue"`
	// SpamCheckTaskQueue is the task queue for spam check workflows.
	SpamCheckTaskQueue string `mapstructure:"spam_check_task_queue"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// LLMConfig holds LLM client configuration. The chat and embedding endpoints
// are OpenAI-compatible; an Ollama deployment works by pointing both base
// URLs at it.
type LLMConfig struct {
	// APIKey is the LLM API key (loaded from MODELINGEST_LLM_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// BaseURL is the chat completion API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Model is the chat model used for enrichment and spam classification.
	Model string `mapstructure:"model"`
	// EmbeddingBaseURL is the embedding API base URL (default: BaseURL).
	EmbeddingBaseURL string `mapstructure:"embedding_base_url"`
	// EmbeddingModel is the model for embeddings.
	EmbeddingModel string `mapstructure:"embedding_model"`
	// Timeout is the timeout for LLM API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// Temperature is the LLM temperature setting.
	Temperature float64 `mapstructure:"temperature"`
}

// ObjectStoreConfig holds S3-compatible object store settings.
type ObjectStoreConfig struct {
	// Endpoint is the object store host:port.
	Endpoint string `mapstructure:"endpoint"`
	// AccessKey is the access key id (loaded from MODELINGEST_OBJECT_STORE_ACCESS_KEY env var).
	AccessKey string `mapstructure:"-"`
	// SecretKey is the secret access key (loaded from MODELINGEST_OBJECT_STORE_SECRET_KEY env var).
	SecretKey string `mapstructure:"-"`
	// Bucket is the bucket backups are written to.
	Bucket string `mapstructure:"bucket"`
	// UseSSL enables TLS for the object store connection.
	UseSSL bool `mapstructure:"use_ssl"`
	// Region is the bucket region, if the deployment cares.
	Region string `mapstructure:"region"`
}

// QdrantConfig holds Qdrant vector store settings.
type QdrantConfig struct {
	// Address is the Qdrant gRPC address.
	Address string `mapstructure:"address"`
	// VectorSize is the embedding dimension (must match the embedding model).
	VectorSize uint64 `mapstructure:"vector_size"`
}

// KafkaConfig holds Kafka publisher settings for domain events.
type KafkaConfig struct {
	// Enabled controls whether Kafka publishing is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic to publish domain events to.
	Topic string `mapstructure:"topic"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// RegistryConfig holds origin registry API settings for spam checks.
type RegistryConfig struct {
	// BaseURL is the registry API base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the registry API key (loaded from MODELINGEST_REGISTRY_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Timeout is the timeout for registry API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// RateBurst is the burst size for the rate limiter.
	RateBurst int `mapstructure:"rate_burst"`
}

// DocsConfig holds document conversion and chunking settings.
type DocsConfig struct {
	// ChunkSize is the chunk window size in words.
	ChunkSize int `mapstructure:"chunk_size"`
	// ChunkOverlap is the overlap between consecutive chunks in words.
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("MODELINGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/model-ingestion-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.LLM.APIKey = os.Getenv("MODELINGEST_LLM_API_KEY")
	cfg.ObjectStore.AccessKey = os.Getenv("MODELINGEST_OBJECT_STORE_ACCESS_KEY")
	cfg.ObjectStore.SecretKey = os.Getenv("MODELINGEST_OBJECT_STORE_SECRET_KEY")
	cfg.Registry.APIKey = os.Getenv("MODELINGEST_REGISTRY_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "modelingest")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "model_ingestion_service")
	// Default to "require" for production security. Use MODELINGEST_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 50)
	v.SetDefault("database.min_conns", 10)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Temporal defaults
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "model-ingestion")
	v.SetDefault("temporal.ingest_task_queue", "model-ingest-tasks")
	v.SetDefault("temporal.spam_check_task_queue", "spam-check-tasks")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// LLM defaults
	v.SetDefault("llm.base_url", "http://localhost:11434/v1")
	v.SetDefault("llm.model", "llama3.1")
	v.SetDefault("llm.embedding_base_url", "")
	v.SetDefault("llm.embedding_model", "nomic-embed-text")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.2)

	// Object store defaults
	v.SetDefault("object_store.endpoint", "localhost:9000")
	v.SetDefault("object_store.bucket", "model-backups")
	v.SetDefault("object_store.use_ssl", false)
	v.SetDefault("object_store.region", "")

	// Qdrant defaults
	v.SetDefault("qdrant.address", "localhost:6334")
	v.SetDefault("qdrant.vector_size", 768) // nomic-embed-text

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.model_ingestion_service")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")

	// Registry defaults
	v.SetDefault("registry.base_url", "http://localhost:8000")
	v.SetDefault("registry.timeout", "30s")
	v.SetDefault("registry.rate_limit", 5.0)
	v.SetDefault("registry.rate_burst", 10)

	// Docs defaults
	v.SetDefault("docs.chunk_size", 250)
	v.SetDefault("docs.chunk_overlap", 50)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate Temporal config
	if c.Temporal.HostPort == "" {
		return fmt.Errorf("temporal host_port is required")
	}
	if c.Temporal.IngestTaskQueue == "" || c.Temporal.SpamCheckTaskQueue == "" {
		return fmt.Errorf("temporal task queues are required")
	}

	// Validate LLM config
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm base_url is required")
	}
	if c.LLM.Model == "" || c.LLM.EmbeddingModel == "" {
		return fmt.Errorf("llm model and embedding_model are required")
	}

	// Validate object store config
	if c.ObjectStore.Endpoint == "" {
		return fmt.Errorf("object store endpoint is required")
	}
	if c.ObjectStore.Bucket == "" {
		return fmt.Errorf("object store bucket is required")
	}

	// Validate Qdrant config
	if c.Qdrant.Address == "" {
		return fmt.Errorf("qdrant address is required")
	}
	if c.Qdrant.VectorSize == 0 {
		return fmt.Errorf("qdrant vector_size must be positive")
	}

	// Validate registry config
	if c.Registry.BaseURL == "" {
		return fmt.Errorf("registry base_url is required")
	}
	if c.Registry.RateLimit <= 0 {
		return fmt.Errorf("registry rate_limit must be positive")
	}

	// Validate chunking config
	if c.Docs.ChunkSize <= 0 {
		return fmt.Errorf("docs chunk_size must be positive")
	}
	if c.Docs.ChunkOverlap < 0 || c.Docs.ChunkOverlap >= c.Docs.ChunkSize {
		return fmt.Errorf("docs chunk_overlap must be in [0, chunk_size)")
	}

	return nil
}

// EmbeddingBaseURLOrDefault returns the embedding base URL, falling back to
// the chat base URL when unset.
func (c *LLMConfig) EmbeddingBaseURLOrDefault() string {
	if c.EmbeddingBaseURL != "" {
		return c.EmbeddingBaseURL
	}
	return c.BaseURL
}

package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      *DatabaseConfig // Optional: query history persistence. When nil, history is disabled.
	Pinecone      PineconeConfig
	OpenAI        OpenAIConfig
	Retrieval     RetrievalConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration for the query log.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// PineconeConfig holds configuration for the hosted vector index and its
// inference (embedding) endpoint.
type PineconeConfig struct {
	APIKey     string
	IndexHost  string // Index-specific host, e.g. https://jung-works-xxxx.svc.aped-4627-b74a.pinecone.io
	EmbedURL   string
	EmbedModel string
	Dimension  int
	Namespace  string
	Timeout    time.Duration
	MaxRetries int
}

// OpenAIConfig holds the answer generator configuration
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// RetrievalConfig holds the retrieval-and-grounding tuning knobs.
// The defaults are the observed operating point; they are exposed as env
// vars rather than hard-coded so staging can experiment without a rebuild.
type RetrievalConfig struct {
	TopK            int
	ScoreThreshold  float64
	MaxContext      int
	RelatedConcepts int
}

// AuthConfig holds JWT authentication configuration.
// When Secret is empty the protected endpoints reject all requests.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env if present (repo root or backend/ depending on cwd)
	_ = godotenv.Load("backend/.env")
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Pinecone: PineconeConfig{
			APIKey:     getEnv("PINECONE_API_KEY", ""),
			IndexHost:  getEnv("PINECONE_INDEX_HOST", ""),
			EmbedURL:   getEnv("PINECONE_EMBED_URL", "https://api.pinecone.io/embed"),
			EmbedModel: getEnv("PINECONE_EMBED_MODEL", "multilingual-e5-large"),
			Dimension:  getEnvAsInt("PINECONE_DIMENSION", 1024),
			Namespace:  getEnv("PINECONE_NAMESPACE", ""),
			Timeout:    getEnvAsDuration("PINECONE_TIMEOUT", 30*time.Second),
			MaxRetries: getEnvAsInt("PINECONE_MAX_RETRIES", 3),
		},
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 500),
			Temperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
			MaxRetries:  getEnvAsInt("OPENAI_MAX_RETRIES", 3),
		},
		Retrieval: RetrievalConfig{
			TopK:            getEnvAsInt("RETRIEVAL_TOP_K", 6),
			ScoreThreshold:  getEnvAsFloat("RETRIEVAL_SCORE_THRESHOLD", 0.7),
			MaxContext:      getEnvAsInt("RETRIEVAL_MAX_CONTEXT", 3),
			RelatedConcepts: getEnvAsInt("RETRIEVAL_RELATED_CONCEPTS", 4),
		},
		Auth: AuthConfig{
			Secret:   getEnv("AUTH_JWT_SECRET", ""),
			Issuer:   getEnv("AUTH_JWT_ISSUER", "collectedworks"),
			Audience: getEnv("AUTH_JWT_AUDIENCE", "collectedworks-api"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.Pinecone.APIKey == "" {
			return fmt.Errorf("pinecone API key is required in production")
		}
		if c.Pinecone.IndexHost == "" {
			return fmt.Errorf("pinecone index host is required in production")
		}
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai API key is required in production")
		}
	}

	if c.Pinecone.Dimension <= 0 {
		return fmt.Errorf("pinecone dimension must be positive")
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive")
	}
	if c.Retrieval.MaxContext <= 0 {
		return fmt.Errorf("retrieval max_context must be positive")
	}
	if c.Retrieval.MaxContext > c.Retrieval.TopK {
		return fmt.Errorf("retrieval max_context cannot exceed top_k")
	}
	if c.Retrieval.ScoreThreshold < -1 || c.Retrieval.ScoreThreshold > 1 {
		return fmt.Errorf("retrieval score_threshold must be within [-1, 1]")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return c.ConnectionString
}

// LogString returns a safe string for logging (no password).
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil {
		return "host=<from DATABASE_URL>"
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	db := strings.TrimPrefix(u.Path, "/")
	return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
}

// loadDatabaseConfig loads the query-log database config from DATABASE_URL.
// Returns nil when not set (history persistence disabled).
func loadDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil
	}
	return &DatabaseConfig{
		ConnectionString: dbURL,
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

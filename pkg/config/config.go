package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Store configuration (vector index)
	Store StoreConfig `mapstructure:"store"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// LLM configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Chunking configuration
	Chunking ChunkingConfig `mapstructure:"chunking"`

	// Patient registry configuration
	Patient PatientConfig `mapstructure:"patient"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// StoreConfig holds vector store configuration
type StoreConfig struct {
	Driver     string `mapstructure:"driver"` // badger, qdrant
	Path       string `mapstructure:"path"`   // badger directory
	Addr       string `mapstructure:"addr"`   // qdrant gRPC address
	Collection string `mapstructure:"collection"`
}

// RetryConfig holds retry policy configuration for embedding calls
type RetryConfig struct {
	MaxRetries        int           `mapstructure:"max_retries"`
	InitialDelay      time.Duration `mapstructure:"initial_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider      string        `mapstructure:"provider"` // openai, local
	Model         string        `mapstructure:"model"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Dimensions    int           `mapstructure:"dimensions"`
	BatchSize     int           `mapstructure:"batch_size"`
	Timeout       time.Duration `mapstructure:"timeout"`
	FallbackModel string        `mapstructure:"fallback_model"` // local model for the fallback backend
	Retry         RetryConfig   `mapstructure:"retry"`
}

// LLMModelConfig holds configuration for a single generation model
type LLMModelConfig struct {
	Provider    string  `mapstructure:"provider"` // openai, gemini, rustbert
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LLMConfig holds generation configuration with a primary and a local fallback
type LLMConfig struct {
	Primary     LLMModelConfig `mapstructure:"primary"`
	Fallback    LLMModelConfig `mapstructure:"fallback"`
	TopK        int            `mapstructure:"top_k"`        // retrieved chunks per question
	RerankModel string         `mapstructure:"rerank_model"` // cross-encoder model; empty disables reranking
}

// ChunkingConfig holds text splitting configuration
type ChunkingConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// PatientConfig holds patient registry configuration
type PatientConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Store defaults
	viper.SetDefault("store.driver", "badger")
	viper.SetDefault("store.path", "./oncorag_db")
	viper.SetDefault("store.addr", "localhost:6334")
	viper.SetDefault("store.collection", "patient_chunks")

	// Embedding defaults
	viper.SetDefault("embedding.provider", "openai")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.batch_size", 20)
	viper.SetDefault("embedding.timeout", 5*time.Minute)
	viper.SetDefault("embedding.fallback_model", "all-MiniLM-L6-v2")
	viper.SetDefault("embedding.retry.max_retries", 5)
	viper.SetDefault("embedding.retry.initial_delay", 2*time.Second)
	viper.SetDefault("embedding.retry.max_delay", 60*time.Second)
	viper.SetDefault("embedding.retry.backoff_multiplier", 2.0)

	// LLM defaults
	viper.SetDefault("llm.primary.provider", "gemini")
	viper.SetDefault("llm.primary.model", "gemini-2.0-flash")
	viper.SetDefault("llm.primary.temperature", 0.1)
	viper.SetDefault("llm.primary.max_tokens", 2048)
	viper.SetDefault("llm.fallback.provider", "rustbert")
	viper.SetDefault("llm.fallback.model", "gpt2")
	viper.SetDefault("llm.fallback.max_tokens", 512)
	viper.SetDefault("llm.top_k", 4)

	// Chunking defaults
	viper.SetDefault("chunking.size", 500)
	viper.SetDefault("chunking.overlap", 100)

	// Patient registry defaults
	viper.SetDefault("patient.data_dir", "patient_data")

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.oncorag/telemetry", home)
		viper.SetDefault("telemetry.parquet_path", defaultPath)
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
		if config.LLM.Primary.Provider == "openai" {
			config.LLM.Primary.APIKey = apiKey
		}
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" && config.LLM.Primary.Provider == "gemini" {
		config.LLM.Primary.APIKey = apiKey
	}
	// The original deployment configured the Gemini key as GOOGLE_API_KEY.
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" && config.LLM.Primary.Provider == "gemini" && config.LLM.Primary.APIKey == "" {
		config.LLM.Primary.APIKey = apiKey
	}

	// Vector store settings
	if dir := os.Getenv("VECTOR_DB_DIR"); dir != "" {
		config.Store.Path = dir
	}
	if addr := os.Getenv("QDRANT_ADDR"); addr != "" {
		config.Store.Addr = addr
	}
	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		config.Store.Driver = driver
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Patient registry
	if dir := os.Getenv("PATIENT_DATA_DIR"); dir != "" {
		config.Patient.DataDir = dir
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}

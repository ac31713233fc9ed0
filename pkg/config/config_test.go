package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("VECTOR_DB_DIR", "")
	t.Setenv("QDRANT_ADDR", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SERVER_HOST", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("PATIENT_DATA_DIR", "")
	t.Setenv("TELEMETRY_PARQUET_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)

	assert.Equal(t, "badger", cfg.Store.Driver)
	assert.Equal(t, "patient_chunks", cfg.Store.Collection)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 20, cfg.Embedding.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Embedding.Timeout)
	assert.Equal(t, "all-MiniLM-L6-v2", cfg.Embedding.FallbackModel)
	assert.Equal(t, 5, cfg.Embedding.Retry.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Embedding.Retry.InitialDelay)
	assert.Equal(t, 60*time.Second, cfg.Embedding.Retry.MaxDelay)
	assert.Equal(t, 2.0, cfg.Embedding.Retry.BackoffMultiplier)

	assert.Equal(t, "gemini", cfg.LLM.Primary.Provider)
	assert.Equal(t, "rustbert", cfg.LLM.Fallback.Provider)
	assert.Equal(t, 4, cfg.LLM.TopK)

	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, "patient_data", cfg.Patient.DataDir)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("OPENAI_API_KEY", "sk-embed")
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("VECTOR_DB_DIR", "/tmp/vectors")
	t.Setenv("STORE_DRIVER", "qdrant")
	t.Setenv("QDRANT_ADDR", "qdrant.internal:6334")
	t.Setenv("PATIENT_DATA_DIR", "/tmp/patients")
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-embed", cfg.Embedding.APIKey)
	assert.Equal(t, "gm-key", cfg.LLM.Primary.APIKey)
	assert.Equal(t, "/tmp/vectors", cfg.Store.Path)
	assert.Equal(t, "qdrant", cfg.Store.Driver)
	assert.Equal(t, "qdrant.internal:6334", cfg.Store.Addr)
	assert.Equal(t, "/tmp/patients", cfg.Patient.DataDir)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadIgnoresMalformedServerPort(t *testing.T) {
	viper.Reset()
	t.Setenv("SERVER_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestGoogleAPIKeyFallback(t *testing.T) {
	viper.Reset()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "google-key", cfg.LLM.Primary.APIKey)
}

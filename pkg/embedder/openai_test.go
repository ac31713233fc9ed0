package embedder_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncorag/oncorag/pkg/embedder"
)

func TestNewOpenAIEmbedder(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		config embedder.Config
	}{
		{
			name:   "valid API key",
			apiKey: "test-api-key",
			config: embedder.Config{Model: "text-embedding-ada-002"},
		},
		{
			name:   "empty API key",
			apiKey: "",
			config: embedder.Config{Model: "text-embedding-ada-002"},
		},
		{
			name:   "custom model",
			apiKey: "test-api-key",
			config: embedder.Config{Model: "text-embedding-3-small"},
		},
		{
			name:   "custom base URL",
			apiKey: "test-api-key",
			config: embedder.Config{Model: "text-embedding-ada-002", BaseURL: "https://api.example.com"},
		},
		{
			name:   "empty model uses default",
			apiKey: "test-api-key",
			config: embedder.Config{}, // Empty config should use defaults
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := embedder.NewOpenAIEmbedder(tt.apiKey, tt.config)
			assert.NotNil(t, client)
			assert.Greater(t, client.Dimensions(), 0)
			assert.Equal(t, embedder.BackendOpenAI, client.Backend())
		})
	}
}

func TestEmbedderInterface(t *testing.T) {
	// The concrete clients and all wrappers implement the Client interface
	var _ embedder.Client = (*embedder.OpenAIEmbedder)(nil)
	var _ embedder.Client = (*embedder.LocalEmbedder)(nil)
	var _ embedder.Client = (*embedder.RetryClient)(nil)
	var _ embedder.Client = (*embedder.FallbackClient)(nil)
	var _ embedder.Client = (*embedder.CircuitBreakerClient)(nil)
}

func TestEmbedderConfig(t *testing.T) {
	tests := []struct {
		name         string
		config       embedder.Config
		expectedDims int
	}{
		{
			name: "default config",
			config: embedder.Config{
				Model: "text-embedding-ada-002",
			},
			expectedDims: 1536,
		},
		{
			name: "config with custom settings",
			config: embedder.Config{
				Model:   "text-embedding-3-small",
				BaseURL: "https://custom.openai.com",
			},
			expectedDims: 1536,
		},
		{
			name: "large model",
			config: embedder.Config{
				Model: "text-embedding-3-large",
			},
			expectedDims: 3072,
		},
		{
			name: "custom dimensions",
			config: embedder.Config{
				Model:      "custom-model",
				Dimensions: 512,
			},
			expectedDims: 512,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := embedder.NewOpenAIEmbedder("test-key", tt.config)
			assert.NotNil(t, client)
			assert.Equal(t, tt.expectedDims, client.Dimensions())
		})
	}
}

func TestEmbedderEmptyInput(t *testing.T) {
	client := embedder.NewOpenAIEmbedder("test-key", embedder.Config{
		Model:   "text-embedding-3-small",
		Timeout: time.Second,
	})

	_, err := client.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, embedder.ErrNoInput)
}

func TestEmbedderBatchProcessing(t *testing.T) {
	t.Skip("Skip integration test - requires API key")

	ctx := context.Background()
	client := embedder.NewOpenAIEmbedder("test-key", embedder.Config{
		Model:     "text-embedding-3-small",
		BatchSize: 2,
	})
	require.NotNil(t, client)

	texts := []string{
		"PSA 6.04 ng/mL on follow-up",
		"Gleason score 3 + 4",
		"Clinical stage T2a",
	}

	embeddings, err := client.Embed(ctx, texts)
	require.NoError(t, err)
	assert.Len(t, embeddings, len(texts))

	for _, embedding := range embeddings {
		assert.Equal(t, client.Dimensions(), len(embedding))
	}
}

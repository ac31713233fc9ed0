package embedder

import (
	"context"
	"time"
)

// Backend identifies which embedding backend produced a batch of vectors.
type Backend string

const (
	// BackendOpenAI is the remote, API-key authenticated backend.
	BackendOpenAI Backend = "openai"
	// BackendLocal is the file-resident model with no network dependency.
	BackendLocal Backend = "local"
)

// Client defines the interface for generating embeddings from text.
type Client interface {
	// Embed generates embeddings for the given texts, one vector per text in
	// input order. The call is all-or-nothing: on error no vectors are
	// returned.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the number of dimensions in the embeddings.
	Dimensions() int

	// Backend reports which backend serves (or last served) this client.
	Backend() Backend

	// Close cleans up any resources.
	Close() error
}

// Config holds configuration for embedding clients.
type Config struct {
	// Model is the embedding model identifier.
	Model string `json:"model,omitempty"`

	// BaseURL is a custom endpoint for OpenAI-compatible services.
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions overrides the model's native output size. Zero means use
	// the model default.
	Dimensions int `json:"dimensions,omitempty"`

	// BatchSize caps how many texts go into a single upstream request.
	// Larger inputs are subdivided to reduce single-call failure blast
	// radius. Zero means DefaultBatchSize.
	BatchSize int `json:"batch_size,omitempty"`

	// Timeout bounds each upstream request. Zero means DefaultTimeout.
	Timeout time.Duration `json:"timeout,omitempty"`
}

const (
	// DefaultBatchSize is the default number of texts per upstream request.
	DefaultBatchSize = 20

	// DefaultTimeout matches the generous upstream timeout the embedding API
	// needs for large batches.
	DefaultTimeout = 5 * time.Minute
)

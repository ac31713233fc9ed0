package embedder

import (
	"context"
	"fmt"

	embedeverything "github.com/soundprediction/go-embedeverything/pkg/embedder"
)

// DefaultLocalModel is the sentence-transformer model used when none is
// configured. Its native output is 384 dimensions.
const DefaultLocalModel = "all-MiniLM-L6-v2"

// LocalEmbedder implements the Client interface with a file-resident model.
// It has no network dependency and serves as the fallback backend when the
// remote backend is exhausted.
type LocalEmbedder struct {
	client *embedeverything.Embedder
	config Config
}

// NewLocalEmbedder creates a new local embedding client. A missing or broken
// model artifact surfaces as a BackendUnavailableError.
func NewLocalEmbedder(config Config) (*LocalEmbedder, error) {
	if config.Model == "" {
		config.Model = DefaultLocalModel
	}
	if config.Dimensions <= 0 {
		config.Dimensions = 384
	}

	client, err := embedeverything.NewEmbedder(config.Model)
	if err != nil {
		return nil, NewBackendUnavailableError(BackendLocal, err.Error())
	}

	return &LocalEmbedder{
		client: client,
		config: config,
	}, nil
}

// Embed generates embeddings for the given texts.
func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrNoInput
	}

	// go-embedeverything does not support context yet
	vectors, err := e.client.Embed(texts)
	if err != nil {
		return nil, NewBackendUnavailableError(BackendLocal, err.Error())
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("local backend returned %d embeddings for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedSingle generates an embedding for a single text.
func (e *LocalEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimensions returns the number of dimensions in the embeddings.
func (e *LocalEmbedder) Dimensions() int {
	return e.config.Dimensions
}

// Backend reports the backend identity.
func (e *LocalEmbedder) Backend() Backend {
	return BackendLocal
}

// Close cleans up any resources.
func (e *LocalEmbedder) Close() error {
	e.client.Close()
	return nil
}

package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// FallbackClient routes embedding batches to a primary backend and, once the
// primary is exhausted, re-embeds the same batch on a local fallback backend
// exactly once. A batch either yields one vector per input text, in order,
// or the call fails terminally; partial results are never returned.
//
// The two backends are not dimensionally compatible. The vector store keeps
// collections pinned to a single backend, so callers that see Backend()
// change between calls must not mix the resulting vectors in one collection.
type FallbackClient struct {
	primary  Client
	fallback Client
	log      *slog.Logger

	// served records which backend handled the most recent batch.
	served atomic.Value // Backend
}

// NewFallbackClient creates a fallback wrapper around a primary and a local
// client. fallback may be nil, in which case primary errors are terminal.
func NewFallbackClient(primary, fallback Client, log *slog.Logger) *FallbackClient {
	if log == nil {
		log = slog.Default()
	}
	c := &FallbackClient{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
	c.served.Store(primary.Backend())
	return c
}

// Embed implements the Client interface with primary/fallback routing.
func (f *FallbackClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrNoInput
	}

	vectors, primaryErr := f.primary.Embed(ctx, texts)
	if primaryErr == nil {
		if err := checkBatch(vectors, len(texts)); err != nil {
			return nil, err
		}
		f.served.Store(f.primary.Backend())
		f.log.Debug("embedded batch", "backend", f.primary.Backend(), "texts", len(texts))
		return vectors, nil
	}

	if f.fallback == nil {
		return nil, primaryErr
	}

	f.log.Warn("primary embedding backend exhausted, re-embedding on local fallback",
		"backend", f.primary.Backend(),
		"fallback", f.fallback.Backend(),
		"texts", len(texts),
		"error", primaryErr)

	vectors, fallbackErr := f.fallback.Embed(ctx, texts)
	if fallbackErr != nil {
		return nil, fmt.Errorf("both embedding backends failed: primary: %v; fallback: %w", primaryErr, fallbackErr)
	}
	if err := checkBatch(vectors, len(texts)); err != nil {
		return nil, err
	}

	f.served.Store(f.fallback.Backend())
	f.log.Info("embedded batch via fallback backend",
		"backend", f.fallback.Backend(),
		"dimensions", f.fallback.Dimensions(),
		"texts", len(texts))
	return vectors, nil
}

// checkBatch enforces the one-vector-per-text invariant.
func checkBatch(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("embedding backend returned %d vectors for %d texts", len(vectors), want)
	}
	return nil
}

// EmbedSingle implements the Client interface.
func (f *FallbackClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimensions returns the dimensionality of the backend that served the most
// recent batch.
func (f *FallbackClient) Dimensions() int {
	if f.Backend() == f.primary.Backend() || f.fallback == nil {
		return f.primary.Dimensions()
	}
	return f.fallback.Dimensions()
}

// Backend reports which backend served the most recent batch. Before any
// batch has been embedded it reports the primary backend.
func (f *FallbackClient) Backend() Backend {
	return f.served.Load().(Backend)
}

// Close closes both backends.
func (f *FallbackClient) Close() error {
	err := f.primary.Close()
	if f.fallback != nil {
		if ferr := f.fallback.Close(); err == nil {
			err = ferr
		}
	}
	return err
}

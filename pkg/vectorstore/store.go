// Package vectorstore persists embedded chunks and serves similarity
// queries over them. Two drivers are provided: an embedded Badger store for
// single-node deployments and a Qdrant store for remote indexes.
//
// A collection is pinned to the dimensionality and backend of the first
// batch written to it. Upserting vectors from a different embedding backend
// is rejected, because mixing dimensionalities corrupts similarity search.
package vectorstore

import (
	"context"
	"errors"

	"github.com/oncorag/oncorag/pkg/embedder"
	"github.com/oncorag/oncorag/pkg/types"
)

// Store errors
var (
	// ErrBackendMismatch indicates an upsert from a different embedding
	// backend than the one the collection was created with.
	ErrBackendMismatch = errors.New("collection is pinned to a different embedding backend")

	// ErrMissingEmbedding indicates a chunk without an embedding was offered
	// for indexing.
	ErrMissingEmbedding = errors.New("chunk has no embedding")
)

// Store defines the interface for a patient-chunk vector index.
type Store interface {
	// Upsert indexes embedded chunks. backend identifies which embedding
	// backend produced the vectors; it must match the collection's pinned
	// backend once set.
	Upsert(ctx context.Context, chunks []types.Chunk, backend embedder.Backend) error

	// Query returns the k chunks most similar to vector, restricted to one
	// patient when patientID is non-empty.
	Query(ctx context.Context, vector []float32, k int, patientID string) ([]types.ScoredChunk, error)

	// Clear removes all chunks belonging to a patient.
	Clear(ctx context.Context, patientID string) error

	// Count reports how many chunks are indexed.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying resources.
	Close() error
}

// collectionMeta pins a collection to one embedding backend.
type collectionMeta struct {
	Dimensions int              `json:"dimensions"`
	Backend    embedder.Backend `json:"backend"`
}

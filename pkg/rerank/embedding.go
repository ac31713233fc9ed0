package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/oncorag/oncorag/pkg/embedder"
	"github.com/oncorag/oncorag/pkg/utils"
)

// EmbeddingReranker scores passages by cosine similarity between the query
// embedding and each passage embedding. It reuses an existing embedding
// client, so it needs no extra model.
type EmbeddingReranker struct {
	embedder embedder.Client
}

// NewEmbeddingReranker creates a reranker backed by an embedding client.
func NewEmbeddingReranker(client embedder.Client) *EmbeddingReranker {
	return &EmbeddingReranker{
		embedder: client,
	}
}

// Rank ranks the given passages based on their relevance to the query.
func (e *EmbeddingReranker) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	queryVec, err := e.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	passageVecs, err := e.embedder.Embed(ctx, passages)
	if err != nil {
		return nil, fmt.Errorf("failed to embed passages: %w", err)
	}

	ranked := make([]RankedPassage, len(passages))
	for i, passage := range passages {
		ranked[i] = RankedPassage{
			Passage: passage,
			Score:   utils.CosineSimilarity(queryVec, passageVecs[i]),
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked, nil
}

// Close is a no-op: the embedding client is owned by the caller.
func (e *EmbeddingReranker) Close() error {
	return nil
}

package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/soundprediction/go-embedeverything/pkg/embedder"
)

// DefaultRerankModel is used when no model is configured.
const DefaultRerankModel = "BAAI/bge-reranker-base"

// EmbedEverythingReranker scores passages with a local cross-encoder model.
type EmbedEverythingReranker struct {
	reranker *embedder.Reranker
	model    string
}

// NewEmbedEverythingReranker loads the cross-encoder model, downloading it
// on first use.
func NewEmbedEverythingReranker(model string) (*EmbedEverythingReranker, error) {
	if model == "" {
		model = DefaultRerankModel
	}

	reranker, err := embedder.NewReranker(model)
	if err != nil {
		return nil, fmt.Errorf("failed to create reranker: %w", err)
	}

	return &EmbedEverythingReranker{
		reranker: reranker,
		model:    model,
	}, nil
}

// Rank ranks the given passages based on their relevance to the query.
func (e *EmbedEverythingReranker) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	// go-embedeverything does not support context yet
	results, err := e.reranker.Rerank(query, passages)
	if err != nil {
		return nil, fmt.Errorf("failed to rerank passages: %w", err)
	}

	ranked := make([]RankedPassage, len(results))
	for i, result := range results {
		ranked[i] = RankedPassage{
			Passage: result.Text,
			Score:   float64(result.Score),
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked, nil
}

// Close cleans up any resources.
func (e *EmbedEverythingReranker) Close() error {
	e.reranker.Close()
	return nil
}

/*
Package rerank reorders retrieved passages by their relevance to a query.

Vector search returns candidates by embedding similarity alone; a second
scoring pass over the candidate set usually improves which excerpts end up
in the generation prompt. Two implementations are provided: a local
cross-encoder model via go-embedeverything and an embedding
cosine-similarity reranker that reuses an existing embedding client.

Usage:

	reranker, err := rerank.NewEmbedEverythingReranker("BAAI/bge-reranker-base")
	if err != nil {
		log.Fatal(err)
	}
	defer reranker.Close()

	ranked, err := reranker.Rank(ctx, "latest PSA value", passages)
*/
package rerank

import "context"

// RankedPassage is a passage with its relevance score, higher is better.
type RankedPassage struct {
	Passage string  `json:"passage"`
	Score   float64 `json:"score"`
}

// Client scores passages against a query and returns them in descending
// relevance order.
type Client interface {
	Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error)

	// Close cleans up any resources.
	Close() error
}

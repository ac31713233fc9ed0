// Package qa answers natural-language questions against a patient's indexed
// documents: embed the question, retrieve the most similar chunks, and stuff
// them into a generation prompt.
package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/oncorag/oncorag/pkg/embedder"
	"github.com/oncorag/oncorag/pkg/llm"
	"github.com/oncorag/oncorag/pkg/rerank"
	"github.com/oncorag/oncorag/pkg/types"
	"github.com/oncorag/oncorag/pkg/vectorstore"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// Chain retrieves relevant chunks and generates answers from them.
type Chain struct {
	embedder embedder.Client
	store    vectorstore.Store
	llm      llm.Client
	reranker rerank.Client
	topK     int
	log      *slog.Logger
}

// NewChain builds a QA chain over an embedder, a vector store and a
// generation client.
func NewChain(emb embedder.Client, store vectorstore.Store, client llm.Client, topK int, log *slog.Logger) *Chain {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if log == nil {
		log = slog.Default()
	}
	return &Chain{
		embedder: emb,
		store:    store,
		llm:      client,
		topK:     topK,
		log:      log,
	}
}

// WithReranker enables a second scoring pass over retrieved candidates.
// Retrieval widens to pull in extra candidates, then the reranker picks
// the topK.
func (c *Chain) WithReranker(r rerank.Client) *Chain {
	c.reranker = r
	return c
}

// Ask answers a question against one patient's documents. patientID may be
// empty to search across all indexed documents.
func (c *Chain) Ask(ctx context.Context, question, patientID string) (*types.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, types.ErrEmptyQuestion
	}

	chunks, err := c.retrieve(ctx, question, patientID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no documents indexed for patient %q", patientID)
	}

	resp, err := c.llm.Chat(ctx, buildMessages(question, chunks, false))
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	model := resp.Model
	if model == "" {
		model = c.llm.Model()
	}
	c.log.Info("answered question",
		slog.String("patient_id", patientID),
		slog.String("model", model),
		slog.Int("sources", len(chunks)))

	return &types.Answer{
		Question:  question,
		Text:      resp.Content,
		PatientID: patientID,
		Model:     model,
		Sources:   chunks,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// AskJSON asks a question that expects a JSON answer and unmarshals the
// (repaired) model output into out. Model output is rarely clean JSON, so
// the raw content is run through jsonrepair first.
func (c *Chain) AskJSON(ctx context.Context, question, patientID string, out any) error {
	if strings.TrimSpace(question) == "" {
		return types.ErrEmptyQuestion
	}

	chunks, err := c.retrieve(ctx, question, patientID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no documents indexed for patient %q", patientID)
	}

	resp, err := c.llm.Chat(ctx, buildMessages(question, chunks, true))
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	repaired, err := jsonrepair.JSONRepair(resp.Content)
	if err != nil {
		return fmt.Errorf("model returned unrepairable JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return nil
}

// Search returns the chunks most similar to a free-text query without
// running generation.
func (c *Chain) Search(ctx context.Context, query, patientID string, k int) ([]types.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.ErrEmptyQuestion
	}
	if k <= 0 {
		k = c.topK
	}

	vector, err := c.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return c.store.Query(ctx, vector, k, patientID)
}

func (c *Chain) retrieve(ctx context.Context, question, patientID string) ([]types.ScoredChunk, error) {
	vector, err := c.embedder.EmbedSingle(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	k := c.topK
	if c.reranker != nil {
		// Widen the candidate pool so the reranker has something to choose from.
		k = c.topK * 3
	}

	chunks, err := c.store.Query(ctx, vector, k, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	return c.rerankChunks(ctx, question, chunks), nil
}

// rerankChunks reorders candidates by reranker score and keeps the topK.
// On reranker failure the vector-similarity order is kept.
func (c *Chain) rerankChunks(ctx context.Context, question string, chunks []types.ScoredChunk) []types.ScoredChunk {
	if c.reranker == nil || len(chunks) < 2 {
		return chunks
	}

	passages := make([]string, len(chunks))
	byText := make(map[string][]types.ScoredChunk, len(chunks))
	for i, sc := range chunks {
		passages[i] = sc.Chunk.Text
		byText[sc.Chunk.Text] = append(byText[sc.Chunk.Text], sc)
	}

	ranked, err := c.reranker.Rank(ctx, question, passages)
	if err != nil {
		c.log.Warn("reranking failed, keeping vector order", slog.String("error", err.Error()))
		if len(chunks) > c.topK {
			chunks = chunks[:c.topK]
		}
		return chunks
	}

	out := make([]types.ScoredChunk, 0, c.topK)
	for _, rp := range ranked {
		matches := byText[rp.Passage]
		if len(matches) == 0 {
			continue
		}
		sc := matches[0]
		byText[rp.Passage] = matches[1:]
		sc.Score = rp.Score
		out = append(out, sc)
		if len(out) == c.topK {
			break
		}
	}
	return out
}

package types

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyText      = errors.New("text cannot be empty")
	ErrEmptyPatientID = errors.New("patient_id cannot be empty")
	ErrEmptyDocID     = errors.New("document_id cannot be empty")
	ErrEmptyQuestion  = errors.New("question cannot be empty")
	ErrInvalidLimit   = errors.New("limit must be positive")
)

// ContextKey is the type used for context values set by the HTTP layer.
type ContextKey string

const (
	// ContextKeyPatientID carries the patient identifier of the current request.
	ContextKeyPatientID ContextKey = "patient_id"
	// ContextKeyDocumentID carries the document identifier of the current request.
	ContextKeyDocumentID ContextKey = "document_id"
	// ContextKeyRequestSource identifies how the request entered the system.
	ContextKeyRequestSource ContextKey = "request_source"
)

// Document represents the extracted text of a single PDF page.
type Document struct {
	ID        string                 `json:"id"`
	PatientID string                 `json:"patient_id"`
	Source    string                 `json:"source"` // original file name or path
	Page      int                    `json:"page"`   // 1-based
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Validate checks if the Document has all required fields set.
func (d *Document) Validate() error {
	if d.Content == "" {
		return ErrEmptyText
	}
	if d.PatientID == "" {
		return ErrEmptyPatientID
	}
	return nil
}

// Chunk is a bounded span of document text prepared for embedding.
// Chunks are immutable once produced by the splitter.
type Chunk struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	PatientID  string                 `json:"patient_id"`
	Source     string                 `json:"source"`
	Page       int                    `json:"page"`
	Text       string                 `json:"text"`
	Embedding  []float32              `json:"embedding,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Validate checks if the Chunk has all required fields set.
func (c *Chunk) Validate() error {
	if c.Text == "" {
		return ErrEmptyText
	}
	if c.PatientID == "" {
		return ErrEmptyPatientID
	}
	if c.DocumentID == "" {
		return ErrEmptyDocID
	}
	return nil
}

// ScoredChunk is a chunk returned from a similarity search with its score.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Role represents the role of a message participant.
type Role string

// Message represents a single message exchanged with a language model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage tracks token consumption for a language model call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response represents a language model response.
type Response struct {
	Content      string      `json:"content"`
	Model        string      `json:"model,omitempty"`
	FinishReason string      `json:"finish_reason,omitempty"`
	TokensUsed   *TokenUsage `json:"tokens_used,omitempty"`
}

// Answer is the result of a question answered against a patient's documents.
type Answer struct {
	Question  string        `json:"question"`
	Text      string        `json:"text"`
	PatientID string        `json:"patient_id"`
	Model     string        `json:"model,omitempty"`
	Sources   []ScoredChunk `json:"sources,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/soundprediction/go-rust-bert/pkg/rustbert"

	"github.com/oncorag/oncorag/pkg/types"
)

// DefaultRustBertModel is the local generation model used when the remote
// provider is unavailable.
const DefaultRustBertModel = "gpt2"

// RustBertClient implements the Client interface on top of a local
// rust-bert text generation model. It needs no network access or API key,
// which makes it the fallback for offline operation.
//
// Models are loaded lazily on first use because loading pulls weights into
// memory.
type RustBertClient struct {
	config       Config
	textGenModel *rustbert.TextGenerationModel
	qaModel      *rustbert.QAModel
	mu           sync.Mutex
}

// NewRustBertClient creates a new local generation client.
func NewRustBertClient(cfg Config) *RustBertClient {
	if cfg.Model == "" {
		cfg.Model = DefaultRustBertModel
	}
	return &RustBertClient{config: cfg}
}

func (c *RustBertClient) loadTextGenModel() error {
	if c.textGenModel != nil {
		return nil
	}
	m, err := rustbert.NewTextGenerationModel()
	if err != nil {
		return fmt.Errorf("failed to load text generation model: %w", err)
	}
	c.textGenModel = m
	return nil
}

func (c *RustBertClient) loadQAModel() error {
	if c.qaModel != nil {
		return nil
	}
	m, err := rustbert.NewQAModel()
	if err != nil {
		return fmt.Errorf("failed to load QA model: %w", err)
	}
	c.qaModel = m
	return nil
}

// Chat renders the conversation into a single prompt and generates a local
// completion.
func (c *RustBertClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadTextGenModel(); err != nil {
		return nil, err
	}

	result, err := c.textGenModel.Generate(renderPrompt(messages), "")
	if err != nil {
		return nil, fmt.Errorf("local text generation failed: %w", err)
	}

	return &types.Response{
		Content: result,
		Model:   c.config.Model,
	}, nil
}

// AnswerQuestion runs extractive question answering over a context passage.
// It produces shorter, more literal answers than Chat and suits cases where
// the answer must be a span of the source text.
func (c *RustBertClient) AnswerQuestion(ctx context.Context, question, passage string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadQAModel(); err != nil {
		return "", err
	}

	answers, err := c.qaModel.Predict(question, passage)
	if err != nil {
		return "", fmt.Errorf("QA prediction failed: %w", err)
	}
	if len(answers) == 0 {
		return "", fmt.Errorf("no answer found in context")
	}
	return answers[0].Answer, nil
}

// Model returns the configured model identifier.
func (c *RustBertClient) Model() string {
	return c.config.Model
}

// Close releases all loaded models.
func (c *RustBertClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.textGenModel != nil {
		c.textGenModel.Close()
		c.textGenModel = nil
	}
	if c.qaModel != nil {
		c.qaModel.Close()
		c.qaModel = nil
	}
	return nil
}

// renderPrompt flattens a message list into the plain prompt format local
// models expect.
func renderPrompt(messages []types.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		case RoleAssistant:
			b.WriteString("Assistant: ")
			b.WriteString(msg.Content)
			b.WriteString("\n")
		default:
			b.WriteString("User: ")
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
	}
	b.WriteString("Assistant:")
	return b.String()
}

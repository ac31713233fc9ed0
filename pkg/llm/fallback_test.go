package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncorag/oncorag/pkg/types"
)

// mockClient is a test double standing in for a generation backend.
type mockClient struct {
	model         string
	callCount     int
	errorToReturn error
	content       string
}

func (m *mockClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	m.callCount++
	if m.errorToReturn != nil {
		return nil, m.errorToReturn
	}
	return &types.Response{Content: m.content, Model: m.model}, nil
}

func (m *mockClient) Model() string { return m.model }
func (m *mockClient) Close() error  { return nil }

func testMessages() []types.Message {
	return []types.Message{
		NewSystemMessage("You are a medical assistant."),
		NewUserMessage("What was the most recent PSA value?"),
	}
}

func TestFallbackClientPrimarySucceeds(t *testing.T) {
	primary := &mockClient{model: "gemini-2.0-flash", content: "PSA was 4.5 ng/mL."}
	fallback := &mockClient{model: "gpt2", content: "unused"}
	client := NewFallbackClient(primary, fallback, slog.Default())

	resp, err := client.Chat(context.Background(), testMessages())
	require.NoError(t, err)
	assert.Equal(t, "PSA was 4.5 ng/mL.", resp.Content)
	assert.Equal(t, 1, primary.callCount)
	assert.Equal(t, 0, fallback.callCount, "fallback must not be consulted when primary succeeds")
}

func TestFallbackClientFallsBackOnce(t *testing.T) {
	primary := &mockClient{model: "gemini-2.0-flash", errorToReturn: errors.New("API request failed with status 503")}
	fallback := &mockClient{model: "gpt2", content: "local answer"}
	client := NewFallbackClient(primary, fallback, slog.Default())

	resp, err := client.Chat(context.Background(), testMessages())
	require.NoError(t, err)
	assert.Equal(t, "local answer", resp.Content)
	assert.Equal(t, "gpt2", resp.Model)
	assert.Equal(t, 1, primary.callCount)
	assert.Equal(t, 1, fallback.callCount)
}

func TestFallbackClientBothFail(t *testing.T) {
	primary := &mockClient{model: "gemini-2.0-flash", errorToReturn: errors.New("status 500")}
	fallback := &mockClient{model: "gpt2", errorToReturn: errors.New("model load failed")}
	client := NewFallbackClient(primary, fallback, slog.Default())

	resp, err := client.Chat(context.Background(), testMessages())
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "both generation models failed")
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model load failed")
}

func TestFallbackClientNoFallbackConfigured(t *testing.T) {
	primary := &mockClient{model: "gemini-2.0-flash", errorToReturn: errors.New("status 500")}
	client := NewFallbackClient(primary, nil, slog.Default())

	_, err := client.Chat(context.Background(), testMessages())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantErr  bool
		wantType any
	}{
		{
			name:     "openai provider",
			config:   Config{Provider: "openai", APIKey: "test-key"},
			wantType: &OpenAIClient{},
		},
		{
			name:     "gemini provider",
			config:   Config{Provider: "gemini", APIKey: "test-key"},
			wantType: &GeminiClient{},
		},
		{
			name:     "rustbert provider",
			config:   Config{Provider: "rustbert"},
			wantType: &RustBertClient{},
		},
		{
			name:    "unknown provider",
			config:  Config{Provider: "hal9000"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, client)
		})
	}
}

func TestMessageHelpers(t *testing.T) {
	msg := NewSystemMessage("context")
	assert.Equal(t, RoleSystem, msg.Role)
	assert.Equal(t, "context", msg.Content)

	msg = NewUserMessage("question")
	assert.Equal(t, RoleUser, msg.Role)

	msg = NewAssistantMessage("answer")
	assert.Equal(t, RoleAssistant, msg.Role)
}

// Interface compliance
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*GeminiClient)(nil)
	_ Client = (*RustBertClient)(nil)
	_ Client = (*FallbackClient)(nil)
)

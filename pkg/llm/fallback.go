package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oncorag/oncorag/pkg/types"
)

// FallbackClient tries a primary remote model and falls back to a local one
// when the remote call fails. The fallback is attempted exactly once per
// request.
type FallbackClient struct {
	primary  Client
	fallback Client
	log      *slog.Logger
}

// NewFallbackClient wires a primary client to an optional fallback.
func NewFallbackClient(primary, fallback Client, log *slog.Logger) *FallbackClient {
	if log == nil {
		log = slog.Default()
	}
	return &FallbackClient{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Chat sends the request to the primary model, switching to the fallback on
// failure.
func (f *FallbackClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	resp, err := f.primary.Chat(ctx, messages)
	if err == nil {
		return resp, nil
	}
	if f.fallback == nil {
		return nil, err
	}

	f.log.Warn("primary model failed, falling back to local model",
		slog.String("primary", f.primary.Model()),
		slog.String("fallback", f.fallback.Model()),
		slog.String("error", err.Error()))

	resp, ferr := f.fallback.Chat(ctx, messages)
	if ferr != nil {
		return nil, fmt.Errorf("both generation models failed: primary: %v; fallback: %w", err, ferr)
	}
	return resp, nil
}

// Model returns the primary model identifier.
func (f *FallbackClient) Model() string {
	return f.primary.Model()
}

// Close closes both clients.
func (f *FallbackClient) Close() error {
	err := f.primary.Close()
	if f.fallback != nil {
		if ferr := f.fallback.Close(); err == nil {
			err = ferr
		}
	}
	return err
}

// Package embedder provides text embedding clients for vector representations.
//
// This package defines the Client interface and provides a remote OpenAI
// implementation, a local embedding implementation, and composable wrappers
// that add retry with exponential backoff, primary/fallback routing, and
// circuit breaking.
//
// # Backends
//
// Two backends are supported:
//   - OpenAI: text-embedding-3-small, text-embedding-3-large, text-embedding-ada-002
//   - Local: sentence-transformer models loaded from disk, no network dependency
//
// Vectors from different backends have different dimensionality and must not
// be mixed within one vector store collection. The store enforces this; this
// package reports which backend served each batch so operators can tell.
//
// # Usage
//
//	primary := embedder.NewOpenAIEmbedder(apiKey, embedder.Config{
//	    Model:     "text-embedding-3-small",
//	    BatchSize: 20,
//	})
//	local, err := embedder.NewLocalEmbedder(embedder.Config{Model: "all-MiniLM-L6-v2"})
//	client := embedder.NewFallbackClient(
//	    embedder.NewRetryClient(primary, nil, log), local, log)
//
//	vectors, err := client.Embed(ctx, texts)
//
// Each Embed call is all-or-nothing: it returns one vector per input text in
// input order, or an error. Partial results are never returned.
package embedder

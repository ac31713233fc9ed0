// Package types defines the core data structures shared across oncorag:
// documents and chunks produced by the ingestion pipeline, scored search
// results returned by the vector store, and the message/response types used
// by the language model clients.
package types

// Package oncorag provides retrieval-augmented question answering over
// patient medical documents.
//
// PDF reports are split into overlapping chunks, embedded, and indexed in a
// vector store. Questions are answered by retrieving the most similar chunks
// and feeding them to a generation model. Both the embedding and generation
// layers pair a remote provider with a local fallback so the pipeline keeps
// working when the remote API is down.
//
// # Basic Usage
//
// Create a client from configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := oncorag.New(cfg, logger.NewDefaultLogger(slog.LevelInfo))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// # Ingesting Documents
//
// Index a patient's PDF report:
//
//	result, err := client.IngestDocument(ctx, "reports/biopsy.pdf", "patient-001")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("indexed %d chunks from %d pages\n", result.Chunks, result.Pages)
//
// # Asking Questions
//
// Answer questions against the indexed documents:
//
//	answer, err := client.Ask(ctx, "What was the most recent PSA value?", "patient-001")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(answer.Text)
//
// # Structured Extraction
//
// Pull structured values (PSA series, Gleason scores, staging, treatments)
// without involving a generation model:
//
//	data, err := client.ExtractMedicalData(ctx, "patient-001", extract.DataAll)
//
// # Architecture
//
//   - pkg/embedder: embedding clients with retry, fallback and circuit breaking
//   - pkg/vectorstore: Badger and Qdrant chunk indexes
//   - pkg/document: PDF loading, cleaning and recursive splitting
//   - pkg/llm: generation clients (OpenAI, Gemini, local rust-bert)
//   - pkg/qa: retrieval and answer generation
//   - pkg/rerank: optional cross-encoder reranking of retrieved chunks
//   - pkg/extract: deterministic medical data extraction
//   - pkg/patient: patient registry and document filing
//   - pkg/export: JSON, CSV and Parquet report export
package oncorag

package oncorag

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/oncorag/oncorag/pkg/alert"
	"github.com/oncorag/oncorag/pkg/config"
	"github.com/oncorag/oncorag/pkg/document"
	"github.com/oncorag/oncorag/pkg/embedder"
	"github.com/oncorag/oncorag/pkg/export"
	"github.com/oncorag/oncorag/pkg/extract"
	"github.com/oncorag/oncorag/pkg/llm"
	"github.com/oncorag/oncorag/pkg/patient"
	"github.com/oncorag/oncorag/pkg/qa"
	"github.com/oncorag/oncorag/pkg/rerank"
	"github.com/oncorag/oncorag/pkg/types"
	"github.com/oncorag/oncorag/pkg/vectorstore"
)

// IngestResult reports what one document ingestion produced.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
	Backend    string `json:"backend"`
}

// Client ties the pipeline together: document loading, chunking, embedding
// with retry and fallback, vector storage, retrieval and answer generation.
type Client struct {
	cfg      *config.Config
	log      *slog.Logger
	embedder embedder.Client
	store    vectorstore.Store
	llm      llm.Client
	reranker rerank.Client
	chain    *qa.Chain
	patients *patient.Manager
	splitter *document.RecursiveSplitter
}

// New builds a client from configuration. The embedding stack is a remote
// primary wrapped in retries, a local fallback, and a circuit breaker; the
// generation stack mirrors it without the breaker.
func New(cfg *config.Config, log *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		log = slog.Default()
	}

	emb, err := buildEmbedder(cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg, emb, log)
	if err != nil {
		emb.Close()
		return nil, err
	}

	gen, err := buildLLM(cfg, log)
	if err != nil {
		emb.Close()
		store.Close()
		return nil, err
	}

	patients, err := patient.NewManager(cfg.Patient.DataDir, log)
	if err != nil {
		emb.Close()
		store.Close()
		gen.Close()
		return nil, err
	}

	chain := qa.NewChain(emb, store, gen, cfg.LLM.TopK, log)
	var reranker rerank.Client
	if cfg.LLM.RerankModel != "" {
		r, err := rerank.NewEmbedEverythingReranker(cfg.LLM.RerankModel)
		if err != nil {
			log.Warn("failed to load rerank model, reranking disabled",
				slog.String("model", cfg.LLM.RerankModel),
				slog.String("error", err.Error()))
		} else {
			chain.WithReranker(r)
			reranker = r
		}
	}

	return &Client{
		cfg:      cfg,
		log:      log,
		embedder: emb,
		store:    store,
		llm:      gen,
		reranker: reranker,
		chain:    chain,
		patients: patients,
		splitter: document.NewRecursiveSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap),
	}, nil
}

// buildEmbedder assembles retry, fallback and circuit breaker layers around
// the configured primary backend.
func buildEmbedder(cfg *config.Config, log *slog.Logger) (embedder.Client, error) {
	embCfg := embedder.Config{
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
		Timeout:    cfg.Embedding.Timeout,
	}

	var primary embedder.Client
	switch cfg.Embedding.Provider {
	case "openai":
		primary = embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, embCfg)
	case "local":
		local, err := embedder.NewLocalEmbedder(embedder.Config{Model: cfg.Embedding.FallbackModel})
		if err != nil {
			return nil, fmt.Errorf("failed to create local embedding client: %w", err)
		}
		primary = local
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Embedding.Provider)
	}

	retryCfg := &embedder.RetryConfig{
		MaxRetries:        cfg.Embedding.Retry.MaxRetries,
		InitialDelay:      cfg.Embedding.Retry.InitialDelay,
		MaxDelay:          cfg.Embedding.Retry.MaxDelay,
		BackoffMultiplier: cfg.Embedding.Retry.BackoffMultiplier,
	}
	client := embedder.Client(embedder.NewRetryClient(primary, retryCfg, log))

	// the local model is only a fallback when the primary is remote
	if cfg.Embedding.Provider != "local" {
		local, lerr := embedder.NewLocalEmbedder(embedder.Config{Model: cfg.Embedding.FallbackModel})
		if lerr != nil {
			log.Warn("local embedding fallback unavailable", slog.String("error", lerr.Error()))
		} else {
			client = embedder.NewFallbackClient(client, local, log)
		}
	}

	if cfg.CircuitBreaker.Enabled {
		var alerter alert.Alerter = &alert.NoOpAlerter{}
		if cfg.Alert.Enabled {
			alerter = alert.NewEmailAlerter(cfg.Alert)
		}
		client = embedder.NewCircuitBreakerClient(client, cfg.CircuitBreaker, alerter, "embedder")
	}
	return client, nil
}

func buildStore(cfg *config.Config, emb embedder.Client, log *slog.Logger) (vectorstore.Store, error) {
	switch cfg.Store.Driver {
	case "badger":
		return vectorstore.NewBadgerStore(cfg.Store.Path, log)
	case "qdrant":
		return vectorstore.NewQdrantStore(cfg.Store.Addr, cfg.Store.Collection, emb.Dimensions(), emb.Backend(), log)
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}

func buildLLM(cfg *config.Config, log *slog.Logger) (llm.Client, error) {
	primary, err := llm.NewClient(llm.Config{
		Provider:    cfg.LLM.Primary.Provider,
		Model:       cfg.LLM.Primary.Model,
		APIKey:      cfg.LLM.Primary.APIKey,
		BaseURL:     cfg.LLM.Primary.BaseURL,
		Temperature: cfg.LLM.Primary.Temperature,
		MaxTokens:   cfg.LLM.Primary.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	if cfg.LLM.Fallback.Provider == "" {
		return primary, nil
	}
	fallback, err := llm.NewClient(llm.Config{
		Provider: cfg.LLM.Fallback.Provider,
		Model:    cfg.LLM.Fallback.Model,
		APIKey:   cfg.LLM.Fallback.APIKey,
		BaseURL:  cfg.LLM.Fallback.BaseURL,
	})
	if err != nil {
		log.Warn("generation fallback unavailable", slog.String("error", err.Error()))
		return primary, nil
	}
	return llm.NewFallbackClient(primary, fallback, log), nil
}

// IngestDocument loads a PDF, cleans and chunks its pages, embeds the chunks
// and indexes them under the patient.
func (c *Client) IngestDocument(ctx context.Context, path, patientID string) (*IngestResult, error) {
	if patientID == "" {
		return nil, types.ErrEmptyPatientID
	}

	docs, err := document.LoadPDF(path, patientID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", path)
	}

	for i := range docs {
		docs[i].Content = document.CleanText(docs[i].Content)
	}
	chunks := c.splitter.SplitDocuments(docs)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document produced no chunks: %s", path)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	backend := c.embedder.Backend()
	if err := c.store.Upsert(ctx, chunks, backend); err != nil {
		return nil, err
	}

	result := &IngestResult{
		DocumentID: docs[0].ID,
		Pages:      len(docs),
		Chunks:     len(chunks),
		Backend:    string(backend),
	}
	c.log.Info("indexed document",
		slog.String("patient_id", patientID),
		slog.String("document_id", result.DocumentID),
		slog.Int("pages", result.Pages),
		slog.Int("chunks", result.Chunks),
		slog.String("backend", result.Backend))
	return result, nil
}

// IngestUpload files an uploaded PDF under the patient and indexes it.
func (c *Client) IngestUpload(ctx context.Context, patientID, filename, documentType string, src io.Reader) (*IngestResult, patient.DocumentInfo, error) {
	info, err := c.patients.AddDocument(patientID, src, filename, documentType)
	if err != nil {
		return nil, patient.DocumentInfo{}, err
	}

	result, err := c.IngestDocument(ctx, info.FilePath, patientID)
	if err != nil {
		return nil, info, err
	}
	return result, info, nil
}

// Ask answers a question against a patient's indexed documents.
func (c *Client) Ask(ctx context.Context, question, patientID string) (*types.Answer, error) {
	ctx = context.WithValue(ctx, types.ContextKeyPatientID, patientID)
	return c.chain.Ask(ctx, question, patientID)
}

// Search returns the chunks most similar to a query.
func (c *Client) Search(ctx context.Context, query, patientID string, k int) ([]types.ScoredChunk, error) {
	return c.chain.Search(ctx, query, patientID, k)
}

// ExtractMedicalData retrieves a patient's chunks relevant to a category and
// runs the deterministic extractors over them.
func (c *Client) ExtractMedicalData(ctx context.Context, patientID string, dataType extract.DataType) (extract.MedicalData, error) {
	if patientID == "" {
		return extract.MedicalData{}, types.ErrEmptyPatientID
	}

	query := extractionQuery(dataType)
	chunks, err := c.chain.Search(ctx, query, patientID, 50)
	if err != nil {
		return extract.MedicalData{}, err
	}
	return extract.ExtractMedicalData(chunks, dataType), nil
}

// extractionQuery picks retrieval text broad enough to surface the chunks a
// category's patterns apply to.
func extractionQuery(dataType extract.DataType) string {
	switch dataType {
	case extract.DataPSA:
		return "PSA prostate specific antigen ng/mL"
	case extract.DataGleason:
		return "Gleason score pathology grade"
	case extract.DataStage:
		return "cancer stage TNM clinical staging"
	case extract.DataTreatment:
		return "treatment surgery radiation chemotherapy hormone therapy"
	case extract.DataBiopsy:
		return "biopsy core needle pathology"
	case extract.DataImaging:
		return "MRI CT PET ultrasound bone scan imaging"
	default:
		return "PSA Gleason stage treatment biopsy imaging results"
	}
}

// ExportPatientData extracts everything for a patient and writes a
// comprehensive report under outputDir.
func (c *Client) ExportPatientData(ctx context.Context, patientID, outputDir string) (export.Result, error) {
	summary, err := c.patients.GetSummary(patientID)
	if err != nil {
		return export.Result{}, err
	}
	data, err := c.ExtractMedicalData(ctx, patientID, extract.DataAll)
	if err != nil {
		return export.Result{}, err
	}

	report := export.Report{
		PatientID:   patientID,
		PatientInfo: summary,
		MedicalData: data,
	}
	return export.WriteComprehensiveReport(report, outputDir)
}

// ClearPatient removes a patient's chunks from the vector index. The
// registry record is untouched.
func (c *Client) ClearPatient(ctx context.Context, patientID string) error {
	return c.store.Clear(ctx, patientID)
}

// Patients exposes the patient registry.
func (c *Client) Patients() *patient.Manager {
	return c.patients
}

// Embedder exposes the embedding stack.
func (c *Client) Embedder() embedder.Client {
	return c.embedder
}

// Store exposes the vector index.
func (c *Client) Store() vectorstore.Store {
	return c.store
}

// Close releases all resources.
func (c *Client) Close() error {
	var firstErr error
	closers := []func() error{c.embedder.Close, c.llm.Close, c.store.Close}
	if c.reranker != nil {
		closers = append(closers, c.reranker.Close)
	}
	for _, closer := range closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

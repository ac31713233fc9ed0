package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oncorag/oncorag"
	"github.com/oncorag/oncorag/pkg/embedder"
	"github.com/oncorag/oncorag/pkg/export"
	"github.com/oncorag/oncorag/pkg/extract"
	"github.com/oncorag/oncorag/pkg/patient"
	"github.com/oncorag/oncorag/pkg/types"
	"github.com/oncorag/oncorag/pkg/vectorstore"
)

type mockStore struct {
	count    int
	countErr error
}

func (s *mockStore) Upsert(ctx context.Context, chunks []types.Chunk, backend embedder.Backend) error {
	return nil
}

func (s *mockStore) Query(ctx context.Context, vector []float32, k int, patientID string) ([]types.ScoredChunk, error) {
	return nil, nil
}

func (s *mockStore) Clear(ctx context.Context, patientID string) error { return nil }

func (s *mockStore) Count(ctx context.Context) (int, error) { return s.count, s.countErr }

func (s *mockStore) Close() error { return nil }

type mockService struct {
	patients *patient.Manager
	store    *mockStore

	askAnswer    *types.Answer
	askErr       error
	searchChunks []types.ScoredChunk
	searchErr    error
	extractData  extract.MedicalData
	extractErr   error
	exportResult export.Result
	exportErr    error
	ingestResult *oncorag.IngestResult
	ingestDoc    patient.DocumentInfo
	ingestErr    error
	clearErr     error

	clearedPatient string
	lastQuestion   string
	lastPatientID  string
	lastQuery      string
	lastLimit      int
	lastDataType   extract.DataType
	uploadedBody   string
}

func (m *mockService) IngestUpload(ctx context.Context, patientID, filename, documentType string, src io.Reader) (*oncorag.IngestResult, patient.DocumentInfo, error) {
	body, _ := io.ReadAll(src)
	m.uploadedBody = string(body)
	return m.ingestResult, m.ingestDoc, m.ingestErr
}

func (m *mockService) Ask(ctx context.Context, question, patientID string) (*types.Answer, error) {
	m.lastQuestion = question
	m.lastPatientID = patientID
	return m.askAnswer, m.askErr
}

func (m *mockService) Search(ctx context.Context, query, patientID string, k int) ([]types.ScoredChunk, error) {
	m.lastQuery = query
	m.lastLimit = k
	return m.searchChunks, m.searchErr
}

func (m *mockService) ExtractMedicalData(ctx context.Context, patientID string, dataType extract.DataType) (extract.MedicalData, error) {
	m.lastDataType = dataType
	return m.extractData, m.extractErr
}

func (m *mockService) ExportPatientData(ctx context.Context, patientID, outputDir string) (export.Result, error) {
	return m.exportResult, m.exportErr
}

func (m *mockService) ClearPatient(ctx context.Context, patientID string) error {
	m.clearedPatient = patientID
	return m.clearErr
}

func (m *mockService) Patients() *patient.Manager { return m.patients }

func (m *mockService) Store() vectorstore.Store { return m.store }

func newMockService(t *testing.T) *mockService {
	t.Helper()

	mgr, err := patient.NewManager(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create patient manager: %v", err)
	}
	return &mockService{
		patients: mgr,
		store:    &mockStore{},
	}
}

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	healthHandler := NewHealthHandler(svc)
	patientHandler := NewPatientHandler(svc)
	queryHandler := NewQueryHandler(svc)

	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	router.POST("/patients", patientHandler.AddPatient)
	router.GET("/patients", patientHandler.ListPatients)
	router.GET("/patients/search", patientHandler.SearchPatients)
	router.GET("/patients/:patient_id", patientHandler.GetPatient)
	router.PUT("/patients/:patient_id", patientHandler.UpdatePatient)
	router.DELETE("/patients/:patient_id", patientHandler.DeletePatient)
	router.GET("/patients/:patient_id/summary", patientHandler.GetSummary)
	router.GET("/patients/:patient_id/documents", patientHandler.ListDocuments)
	router.POST("/patients/:patient_id/documents", patientHandler.UploadDocument)
	router.POST("/patients/:patient_id/ask", queryHandler.Ask)
	router.POST("/patients/:patient_id/search", queryHandler.Search)
	router.GET("/patients/:patient_id/extract", queryHandler.Extract)
	router.POST("/patients/:patient_id/export", queryHandler.Export)
	router.DELETE("/patients/:patient_id/index", queryHandler.ClearIndex)
	router.POST("/ask", queryHandler.Ask)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(newMockService(t))

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", response["status"])
	}
	if response["service"] != "oncorag" {
		t.Errorf("expected service oncorag, got %v", response["service"])
	}
	if _, ok := response["timestamp"]; !ok {
		t.Error("expected timestamp in response")
	}
}

func TestReadinessCheck(t *testing.T) {
	svc := newMockService(t)
	svc.store.count = 7
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodGet, "/ready", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
}

func TestReadinessCheckStoreFailure(t *testing.T) {
	svc := newMockService(t)
	svc.store.countErr = fmt.Errorf("store offline")
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodGet, "/ready", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestAddAndGetPatient(t *testing.T) {
	svc := newMockService(t)
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/patients", map[string]interface{}{
		"patient_id": "p001",
		"name":       "John Doe",
		"age":        67,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/patients/p001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "John Doe") {
		t.Errorf("expected patient name in response, got %s", w.Body.String())
	}
}

func TestAddPatientDuplicate(t *testing.T) {
	svc := newMockService(t)
	router := newTestRouter(svc)

	body := map[string]interface{}{"patient_id": "p001", "name": "John Doe"}
	doJSON(t, router, http.MethodPost, "/patients", body)
	w := doJSON(t, router, http.MethodPost, "/patients", body)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestAddPatientValidation(t *testing.T) {
	router := newTestRouter(newMockService(t))

	w := doJSON(t, router, http.MethodPost, "/patients", map[string]interface{}{
		"patient_id": "p001",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestGetPatientNotFound(t *testing.T) {
	router := newTestRouter(newMockService(t))

	w := doJSON(t, router, http.MethodGet, "/patients/nobody", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestDeletePatientClearsIndex(t *testing.T) {
	svc := newMockService(t)
	router := newTestRouter(svc)

	doJSON(t, router, http.MethodPost, "/patients", map[string]interface{}{
		"patient_id": "p001", "name": "John Doe",
	})

	w := doJSON(t, router, http.MethodDelete, "/patients/p001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if svc.clearedPatient != "p001" {
		t.Errorf("expected index cleared for p001, got %q", svc.clearedPatient)
	}
}

func TestSearchPatientsRequiresQuery(t *testing.T) {
	router := newTestRouter(newMockService(t))

	w := doJSON(t, router, http.MethodGet, "/patients/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestAsk(t *testing.T) {
	svc := newMockService(t)
	svc.askAnswer = &types.Answer{
		Question:  "What is the latest PSA?",
		Text:      "The latest PSA is 4.5 ng/mL.",
		PatientID: "p001",
	}
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/patients/p001/ask", map[string]interface{}{
		"question": "What is the latest PSA?",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if svc.lastQuestion != "What is the latest PSA?" {
		t.Errorf("expected question forwarded, got %q", svc.lastQuestion)
	}
	if !strings.Contains(w.Body.String(), "4.5 ng/mL") {
		t.Errorf("expected answer text in response, got %s", w.Body.String())
	}
}

func TestAskTopLevelRouteTakesPatientFromBody(t *testing.T) {
	svc := newMockService(t)
	svc.askAnswer = &types.Answer{Text: "4.5 ng/mL", PatientID: "p002"}
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/ask", map[string]interface{}{
		"question":   "What is the latest PSA?",
		"patient_id": "p002",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if svc.lastPatientID != "p002" {
		t.Errorf("expected patient_id from body, got %q", svc.lastPatientID)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	router := newTestRouter(newMockService(t))

	w := doJSON(t, router, http.MethodPost, "/patients/p001/ask", map[string]interface{}{
		"question": "   ",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestSearchForwardsLimit(t *testing.T) {
	svc := newMockService(t)
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/patients/p001/search", map[string]interface{}{
		"query": "gleason score",
		"limit": 8,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if svc.lastLimit != 8 {
		t.Errorf("expected limit 8, got %d", svc.lastLimit)
	}
	if svc.lastQuery != "gleason score" {
		t.Errorf("expected query forwarded, got %q", svc.lastQuery)
	}
}

func TestExtractDefaultsToAll(t *testing.T) {
	svc := newMockService(t)
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodGet, "/patients/p001/extract", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if svc.lastDataType != extract.DataAll {
		t.Errorf("expected data type %q, got %q", extract.DataAll, svc.lastDataType)
	}
}

func TestExtractRejectsUnknownDataType(t *testing.T) {
	router := newTestRouter(newMockService(t))

	w := doJSON(t, router, http.MethodGet, "/patients/p001/extract?data_type=horoscope", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestExportWithEmptyBody(t *testing.T) {
	svc := newMockService(t)
	svc.exportResult = export.Result{JSONReport: "exports/p001_report.json"}
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/patients/p001/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "p001_report.json") {
		t.Errorf("expected report path in response, got %s", w.Body.String())
	}
}

func TestUploadDocument(t *testing.T) {
	svc := newMockService(t)
	svc.ingestResult = &oncorag.IngestResult{
		DocumentID: "doc-1",
		Pages:      3,
		Chunks:     12,
		Backend:    "openai",
	}
	svc.ingestDoc = patient.DocumentInfo{Filename: "20240101_120000_report.pdf"}
	router := newTestRouter(svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "report.pdf")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write([]byte("%PDF-1.4 fake"))
	mw.WriteField("document_type", "pathology_report")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/patients/p001/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if svc.uploadedBody != "%PDF-1.4 fake" {
		t.Errorf("expected file content forwarded, got %q", svc.uploadedBody)
	}
	if !strings.Contains(w.Body.String(), "doc-1") {
		t.Errorf("expected document id in response, got %s", w.Body.String())
	}
}

func TestUploadDocumentRequiresFile(t *testing.T) {
	router := newTestRouter(newMockService(t))

	w := doJSON(t, router, http.MethodPost, "/patients/p001/documents", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

// Package patient manages the patient registry: identity records and the
// documents filed under each patient. The registry is a JSON file plus a
// per-patient document directory, which keeps the data portable and
// inspectable without a database.
package patient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Registry errors
var (
	ErrPatientExists   = errors.New("patient already exists")
	ErrPatientNotFound = errors.New("patient not found")
	ErrDocumentMissing = errors.New("document not found")
)

// DefaultDocumentType is used when an upload does not declare its type.
const DefaultDocumentType = "medical_report"

const registryFilename = "patients.json"

// DocumentInfo describes one document filed under a patient.
type DocumentInfo struct {
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FilePath         string    `json:"file_path"`
	DocumentType     string    `json:"document_type"`
	UploadDate       time.Time `json:"upload_date"`
	FileSize         int64     `json:"file_size"`
}

// Record is a patient registry entry.
type Record struct {
	Name           string            `json:"name"`
	Age            int               `json:"age,omitempty"`
	CreatedDate    time.Time         `json:"created_date"`
	LastUpdated    time.Time         `json:"last_updated"`
	Documents      []DocumentInfo    `json:"documents"`
	AdditionalInfo map[string]string `json:"additional_info,omitempty"`
}

// Summary aggregates a patient's record for display.
type Summary struct {
	PatientID      string         `json:"patient_id"`
	Name           string         `json:"name"`
	Age            int            `json:"age,omitempty"`
	TotalDocuments int            `json:"total_documents"`
	DocumentTypes  map[string]int `json:"document_types"`
	CreatedDate    time.Time      `json:"created_date"`
	LastUpdated    time.Time      `json:"last_updated"`
}

// Manager is the patient registry. All mutations are persisted immediately.
type Manager struct {
	baseDir string
	log     *slog.Logger

	mu       sync.RWMutex
	patients map[string]*Record
}

// NewManager opens the registry rooted at baseDir, creating it if needed.
func NewManager(baseDir string, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create patient data dir: %w", err)
	}

	m := &Manager{
		baseDir:  baseDir,
		log:      log,
		patients: make(map[string]*Record),
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) registryPath() string {
	return filepath.Join(m.baseDir, registryFilename)
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.registryPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read patient registry: %w", err)
	}
	if err := json.Unmarshal(data, &m.patients); err != nil {
		return fmt.Errorf("failed to parse patient registry: %w", err)
	}
	return nil
}

// save must be called with the write lock held.
func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.patients, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal patient registry: %w", err)
	}
	if err := os.WriteFile(m.registryPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write patient registry: %w", err)
	}
	return nil
}

// AddPatient registers a new patient and creates their directory.
func (m *Manager) AddPatient(patientID, name string, age int, additionalInfo map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.patients[patientID]; ok {
		return fmt.Errorf("%w: %s", ErrPatientExists, patientID)
	}
	if err := os.MkdirAll(filepath.Join(m.baseDir, patientID), 0o755); err != nil {
		return fmt.Errorf("failed to create patient dir: %w", err)
	}

	now := time.Now().UTC()
	m.patients[patientID] = &Record{
		Name:           name,
		Age:            age,
		CreatedDate:    now,
		LastUpdated:    now,
		Documents:      []DocumentInfo{},
		AdditionalInfo: additionalInfo,
	}
	if err := m.save(); err != nil {
		return err
	}

	m.log.Info("added patient", slog.String("patient_id", patientID))
	return nil
}

// GetPatient returns a copy of one patient's record.
func (m *Manager) GetPatient(patientID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.patients[patientID]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	return *rec, nil
}

// ListPatients returns all registered patient IDs with their records.
func (m *Manager) ListPatients() map[string]Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Record, len(m.patients))
	for id, rec := range m.patients {
		out[id] = *rec
	}
	return out
}

// UpdatePatient changes a patient's name, age or additional info. Zero
// values leave the existing field untouched.
func (m *Manager) UpdatePatient(patientID, name string, age int, additionalInfo map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.patients[patientID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	if name != "" {
		rec.Name = name
	}
	if age != 0 {
		rec.Age = age
	}
	if additionalInfo != nil {
		rec.AdditionalInfo = additionalInfo
	}
	rec.LastUpdated = time.Now().UTC()
	return m.save()
}

// AddDocument files a copy of an uploaded document under the patient's
// directory with a timestamped filename.
func (m *Manager) AddDocument(patientID string, src io.Reader, originalFilename, documentType string) (DocumentInfo, error) {
	if documentType == "" {
		documentType = DefaultDocumentType
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.patients[patientID]
	if !ok {
		return DocumentInfo{}, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}

	docDir := filepath.Join(m.baseDir, patientID, "documents")
	if err := os.MkdirAll(docDir, 0o755); err != nil {
		return DocumentInfo{}, fmt.Errorf("failed to create documents dir: %w", err)
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("%s_%s", now.Format("20060102_150405"), filepath.Base(originalFilename))
	path := filepath.Join(docDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("failed to create document file: %w", err)
	}
	size, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return DocumentInfo{}, fmt.Errorf("failed to write document file: %w", err)
	}

	info := DocumentInfo{
		Filename:         filename,
		OriginalFilename: originalFilename,
		FilePath:         path,
		DocumentType:     documentType,
		UploadDate:       now,
		FileSize:         size,
	}
	rec.Documents = append(rec.Documents, info)
	rec.LastUpdated = now
	if err := m.save(); err != nil {
		return DocumentInfo{}, err
	}

	m.log.Info("filed document",
		slog.String("patient_id", patientID),
		slog.String("filename", filename),
		slog.Int64("bytes", size))
	return info, nil
}

// GetDocuments lists all documents filed under a patient.
func (m *Manager) GetDocuments(patientID string) ([]DocumentInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.patients[patientID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	docs := make([]DocumentInfo, len(rec.Documents))
	copy(docs, rec.Documents)
	return docs, nil
}

// GetDocumentPath resolves a filed document's path by filename.
func (m *Manager) GetDocumentPath(patientID, filename string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.patients[patientID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	for _, doc := range rec.Documents {
		if doc.Filename == filename {
			return doc.FilePath, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrDocumentMissing, filename)
}

// DeletePatient removes a patient and all their filed documents.
func (m *Manager) DeletePatient(patientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.patients[patientID]; !ok {
		return fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	if err := os.RemoveAll(filepath.Join(m.baseDir, patientID)); err != nil {
		return fmt.Errorf("failed to remove patient dir: %w", err)
	}
	delete(m.patients, patientID)
	if err := m.save(); err != nil {
		return err
	}

	m.log.Info("deleted patient", slog.String("patient_id", patientID))
	return nil
}

// SearchPatients matches patients by ID or name, case-insensitively.
func (m *Manager) SearchPatients(query string) []Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	var results []Summary
	for id, rec := range m.patients {
		if strings.Contains(strings.ToLower(id), q) || strings.Contains(strings.ToLower(rec.Name), q) {
			results = append(results, summarize(id, rec))
		}
	}
	return results
}

// GetSummary aggregates one patient's record, including document counts by
// type.
func (m *Manager) GetSummary(patientID string) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.patients[patientID]
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	return summarize(patientID, rec), nil
}

func summarize(patientID string, rec *Record) Summary {
	docTypes := make(map[string]int)
	for _, doc := range rec.Documents {
		t := doc.DocumentType
		if t == "" {
			t = "unknown"
		}
		docTypes[t]++
	}
	return Summary{
		PatientID:      patientID,
		Name:           rec.Name,
		Age:            rec.Age,
		TotalDocuments: len(rec.Documents),
		DocumentTypes:  docTypes,
		CreatedDate:    rec.CreatedDate,
		LastUpdated:    rec.LastUpdated,
	}
}

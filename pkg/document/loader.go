package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/oncorag/oncorag/pkg/types"
)

// LoadPDF extracts the plain text of every page of the PDF at path and
// returns one Document per non-empty page.
func LoadPDF(path, patientID string) ([]types.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	docID := uuid.NewString()
	source := filepath.Base(path)
	now := time.Now()

	var docs []types.Document
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d of %s: %w", pageIndex, source, err)
		}
		if text == "" {
			continue
		}

		docs = append(docs, types.Document{
			ID:        docID,
			PatientID: patientID,
			Source:    source,
			Page:      pageIndex,
			Content:   text,
			CreatedAt: now,
		})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", source)
	}
	return docs, nil
}

// SaveUpload persists an uploaded PDF stream to a temporary file and returns
// its path. The caller owns the file and should remove it after ingestion.
func SaveUpload(r io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to flush upload: %w", err)
	}

	return tmp.Name(), nil
}

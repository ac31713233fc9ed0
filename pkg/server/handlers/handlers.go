package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oncorag/oncorag"
	"github.com/oncorag/oncorag/pkg/export"
	"github.com/oncorag/oncorag/pkg/extract"
	"github.com/oncorag/oncorag/pkg/patient"
	"github.com/oncorag/oncorag/pkg/server/dto"
	"github.com/oncorag/oncorag/pkg/types"
	"github.com/oncorag/oncorag/pkg/vectorstore"
)

// Service is the subset of the client API the HTTP layer depends on.
// *oncorag.Client satisfies it.
type Service interface {
	IngestUpload(ctx context.Context, patientID, filename, documentType string, src io.Reader) (*oncorag.IngestResult, patient.DocumentInfo, error)
	Ask(ctx context.Context, question, patientID string) (*types.Answer, error)
	Search(ctx context.Context, query, patientID string, k int) ([]types.ScoredChunk, error)
	ExtractMedicalData(ctx context.Context, patientID string, dataType extract.DataType) (extract.MedicalData, error)
	ExportPatientData(ctx context.Context, patientID, outputDir string) (export.Result, error)
	ClearPatient(ctx context.Context, patientID string) error
	Patients() *patient.Manager
	Store() vectorstore.Store
}

// writeError writes an error response as JSON
func writeError(c *gin.Context, status int, errCode, message string) {
	c.JSON(status, dto.ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

// statusForError maps domain errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, patient.ErrDocumentMissing):
		return http.StatusNotFound
	case errors.Is(err, patient.ErrPatientExists):
		return http.StatusConflict
	case errors.Is(err, types.ErrEmptyPatientID),
		errors.Is(err, types.ErrInvalidLimit),
		errors.Is(err, types.ErrEmptyQuestion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

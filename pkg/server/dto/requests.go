package dto

import (
	"errors"
	"strings"
)

// AskRequest is the body for question answering requests. PatientID is
// only consulted on the top-level /ask route; the patient-scoped route
// takes it from the path.
type AskRequest struct {
	Question  string `json:"question" binding:"required"`
	PatientID string `json:"patient_id,omitempty"`
}

// Validate performs validation on AskRequest
func (r *AskRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return errors.New("question cannot be empty")
	}
	if len(r.Question) > MaxQuestionLength {
		return ErrQuestionTooLong
	}
	return nil
}

// SearchRequest is the body for similarity search requests
type SearchRequest struct {
	Query     string `json:"query" binding:"required"`
	PatientID string `json:"patient_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Validate performs validation on SearchRequest
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	if r.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

// AddPatientRequest is the body for patient registration requests
type AddPatientRequest struct {
	PatientID      string            `json:"patient_id" binding:"required"`
	Name           string            `json:"name" binding:"required"`
	Age            int               `json:"age,omitempty"`
	AdditionalInfo map[string]string `json:"additional_info,omitempty"`
}

// Validate performs validation on AddPatientRequest
func (r *AddPatientRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return errors.New("patient_id cannot be empty")
	}
	if len(r.PatientID) > MaxPatientIDLength {
		return ErrPatientIDTooLong
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if len(r.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if r.Age < 0 {
		return errors.New("age cannot be negative")
	}
	return nil
}

// UpdatePatientRequest is the body for patient update requests. Zero
// values leave the corresponding field unchanged.
type UpdatePatientRequest struct {
	Name           string            `json:"name,omitempty"`
	Age            int               `json:"age,omitempty"`
	AdditionalInfo map[string]string `json:"additional_info,omitempty"`
}

// Validate performs validation on UpdatePatientRequest
func (r *UpdatePatientRequest) Validate() error {
	if len(r.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if r.Age < 0 {
		return errors.New("age cannot be negative")
	}
	return nil
}

// ExportRequest is the body for data export requests
type ExportRequest struct {
	OutputDir string `json:"output_dir,omitempty"`
}

// UploadResponse is returned after a successful document upload
type UploadResponse struct {
	PatientID  string `json:"patient_id"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
	Backend    string `json:"backend"`
}

package dto

import "errors"

// Validation errors shared across request types
var (
	ErrQuestionTooLong  = errors.New("question exceeds maximum length")
	ErrQueryTooLong     = errors.New("query exceeds maximum length")
	ErrPatientIDTooLong = errors.New("patient_id exceeds maximum length")
	ErrNameTooLong      = errors.New("name exceeds maximum length")
)

// Maximum lengths for request fields
const (
	MaxQuestionLength  = 10000
	MaxQueryLength     = 10000
	MaxPatientIDLength = 256
	MaxNameLength      = 512
)

// Result represents a generic API result
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

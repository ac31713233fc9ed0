package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr error
	}{
		{
			name:    "valid document",
			doc:     Document{PatientID: "p1", Content: "PSA 4.5 ng/mL"},
			wantErr: nil,
		},
		{
			name:    "missing content",
			doc:     Document{PatientID: "p1"},
			wantErr: ErrEmptyText,
		},
		{
			name:    "missing patient",
			doc:     Document{Content: "text"},
			wantErr: ErrEmptyPatientID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestChunkValidate(t *testing.T) {
	tests := []struct {
		name    string
		chunk   Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   Chunk{DocumentID: "d1", PatientID: "p1", Text: "Gleason 3+4"},
			wantErr: nil,
		},
		{
			name:    "missing text",
			chunk:   Chunk{DocumentID: "d1", PatientID: "p1"},
			wantErr: ErrEmptyText,
		},
		{
			name:    "missing patient",
			chunk:   Chunk{DocumentID: "d1", Text: "x"},
			wantErr: ErrEmptyPatientID,
		},
		{
			name:    "missing document",
			chunk:   Chunk{PatientID: "p1", Text: "x"},
			wantErr: ErrEmptyDocID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chunk.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

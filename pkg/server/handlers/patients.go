package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oncorag/oncorag/pkg/patient"
	"github.com/oncorag/oncorag/pkg/server/dto"
)

// PatientHandler handles patient registry requests
type PatientHandler struct {
	svc Service
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(svc Service) *PatientHandler {
	return &PatientHandler{
		svc: svc,
	}
}

// AddPatient handles POST /patients
func (h *PatientHandler) AddPatient(c *gin.Context) {
	var req dto.AddPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.svc.Patients().AddPatient(req.PatientID, req.Name, req.Age, req.AdditionalInfo); err != nil {
		writeError(c, statusForError(err), "add_patient_failed", err.Error())
		return
	}

	c.JSON(http.StatusCreated, dto.Result{
		Success: true,
		Data:    gin.H{"patient_id": req.PatientID},
	})
}

// ListPatients handles GET /patients
func (h *PatientHandler) ListPatients(c *gin.Context) {
	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data:    h.svc.Patients().ListPatients(),
	})
}

// GetPatient handles GET /patients/:patient_id
func (h *PatientHandler) GetPatient(c *gin.Context) {
	record, err := h.svc.Patients().GetPatient(c.Param("patient_id"))
	if err != nil {
		writeError(c, statusForError(err), "get_patient_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data:    record,
	})
}

// UpdatePatient handles PUT /patients/:patient_id
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var req dto.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	patientID := c.Param("patient_id")
	if err := h.svc.Patients().UpdatePatient(patientID, req.Name, req.Age, req.AdditionalInfo); err != nil {
		writeError(c, statusForError(err), "update_patient_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data:    gin.H{"patient_id": patientID},
	})
}

// DeletePatient handles DELETE /patients/:patient_id. Indexed chunks
// are cleared along with the registry record.
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	patientID := c.Param("patient_id")

	if err := h.svc.ClearPatient(c.Request.Context(), patientID); err != nil {
		writeError(c, statusForError(err), "clear_index_failed", err.Error())
		return
	}
	if err := h.svc.Patients().DeletePatient(patientID); err != nil {
		writeError(c, statusForError(err), "delete_patient_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data:    gin.H{"patient_id": patientID},
	})
}

// SearchPatients handles GET /patients/search?q=
func (h *PatientHandler) SearchPatients(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "q parameter is required")
		return
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data:    h.svc.Patients().SearchPatients(query),
	})
}

// GetSummary handles GET /patients/:patient_id/summary
func (h *PatientHandler) GetSummary(c *gin.Context) {
	summary, err := h.svc.Patients().GetSummary(c.Param("patient_id"))
	if err != nil {
		writeError(c, statusForError(err), "get_summary_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data:    summary,
	})
}

// ListDocuments handles GET /patients/:patient_id/documents
func (h *PatientHandler) ListDocuments(c *gin.Context) {
	docs, err := h.svc.Patients().GetDocuments(c.Param("patient_id"))
	if err != nil {
		writeError(c, statusForError(err), "list_documents_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data:    docs,
	})
}

// UploadDocument handles POST /patients/:patient_id/documents. The
// document is stored in the registry and indexed in one step.
func (h *PatientHandler) UploadDocument(c *gin.Context) {
	patientID := c.Param("patient_id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "file field is required")
		return
	}
	documentType := c.DefaultPostForm("document_type", patient.DefaultDocumentType)

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	defer file.Close()

	result, doc, err := h.svc.IngestUpload(c.Request.Context(), patientID, fileHeader.Filename, documentType, file)
	if err != nil {
		writeError(c, statusForError(err), "ingest_failed", err.Error())
		return
	}

	c.JSON(http.StatusCreated, dto.Result{
		Success: true,
		Data: dto.UploadResponse{
			PatientID:  patientID,
			DocumentID: result.DocumentID,
			Filename:   doc.Filename,
			Pages:      result.Pages,
			Chunks:     result.Chunks,
			Backend:    result.Backend,
		},
	})
}

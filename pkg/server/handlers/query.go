package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oncorag/oncorag/pkg/extract"
	"github.com/oncorag/oncorag/pkg/server/dto"
)

// validDataTypes lists the extraction categories the API accepts
var validDataTypes = map[extract.DataType]bool{
	extract.DataAll:       true,
	extract.DataPSA:       true,
	extract.DataGleason:   true,
	extract.DataStage:     true,
	extract.DataTreatment: true,
	extract.DataBiopsy:    true,
	extract.DataImaging:   true,
}

// QueryHandler handles question answering and retrieval requests
type QueryHandler struct {
	svc Service
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(svc Service) *QueryHandler {
	return &QueryHandler{
		svc: svc,
	}
}

// Ask handles POST /patients/:patient_id/ask and the top-level POST /ask
func (h *QueryHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	patientID := c.Param("patient_id")
	if patientID == "" {
		patientID = req.PatientID
	}

	answer, err := h.svc.Ask(c.Request.Context(), req.Question, patientID)
	if err != nil {
		writeError(c, statusForError(err), "ask_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data:    answer,
	})
}

// Search handles POST /patients/:patient_id/search and the top-level POST /search
func (h *QueryHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	patientID := c.Param("patient_id")
	if patientID == "" {
		patientID = req.PatientID
	}

	chunks, err := h.svc.Search(c.Request.Context(), req.Query, patientID, req.Limit)
	if err != nil {
		writeError(c, statusForError(err), "search_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data: gin.H{
			"chunks": chunks,
			"total":  len(chunks),
		},
	})
}

// Extract handles GET /patients/:patient_id/extract?data_type= (or ?type=)
func (h *QueryHandler) Extract(c *gin.Context) {
	raw := c.Query("data_type")
	if raw == "" {
		raw = c.DefaultQuery("type", string(extract.DataAll))
	}
	dataType := extract.DataType(raw)
	if !validDataTypes[dataType] {
		writeError(c, http.StatusBadRequest, "invalid_request", "unknown data_type: "+string(dataType))
		return
	}

	data, err := h.svc.ExtractMedicalData(c.Request.Context(), c.Param("patient_id"), dataType)
	if err != nil {
		writeError(c, statusForError(err), "extract_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data:    data,
	})
}

// Export handles POST /patients/:patient_id/export
func (h *QueryHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}
	if req.OutputDir == "" {
		req.OutputDir = "exports"
	}

	result, err := h.svc.ExportPatientData(c.Request.Context(), c.Param("patient_id"), req.OutputDir)
	if err != nil {
		writeError(c, statusForError(err), "export_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data:    result,
	})
}

// ClearIndex handles DELETE /patients/:patient_id/index
func (h *QueryHandler) ClearIndex(c *gin.Context) {
	patientID := c.Param("patient_id")

	if err := h.svc.ClearPatient(c.Request.Context(), patientID); err != nil {
		writeError(c, statusForError(err), "clear_index_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.Result{
		Success: true,
		Data:    gin.H{"patient_id": patientID},
	})
}

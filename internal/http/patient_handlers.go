package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"healthline/internal/domain"
	"healthline/internal/service"
)

type createPatientRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Symptoms string `json:"symptoms"`
	UserID   int64  `json:"userId"`
}

type PatientResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Symptoms  string `json:"symptoms"`
	CreatedAt string `json:"createdAt"`
}

func patientToResponse(rec domain.PatientRecord) PatientResponse {
	return PatientResponse{
		ID:        rec.ID,
		UserID:    rec.OwnerUserID,
		Name:      rec.Name,
		Phone:     rec.Phone,
		Symptoms:  rec.Symptoms,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) listPatients(c *gin.Context) {
	id, _ := currentIdentity(c)
	records, err := h.records.ListRecords(c.Request.Context(), id.UserID, id.Role)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]PatientResponse, len(records))
	for i := range records {
		resp[i] = patientToResponse(records[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createPatient(c *gin.Context) {
	var req createPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	id, _ := currentIdentity(c)
	owner, err := service.ResolveOwner(id, req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	record, err := h.records.CreateRecord(c.Request.Context(), service.CreateRecordInput{
		Name:        req.Name,
		Phone:       req.Phone,
		Symptoms:    req.Symptoms,
		OwnerUserID: owner,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, patientToResponse(*record))
}

func (h *Handler) getPatient(c *gin.Context) {
	recordID, ok := parseRecordID(c)
	if !ok {
		return
	}
	id, _ := currentIdentity(c)
	record, err := h.records.GetRecord(c.Request.Context(), id, recordID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, patientToResponse(*record))
}

func (h *Handler) deletePatient(c *gin.Context) {
	recordID, ok := parseRecordID(c)
	if !ok {
		return
	}
	id, _ := currentIdentity(c)
	if err := h.records.DeleteRecord(c.Request.Context(), id, recordID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": recordID})
}

func parseRecordID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return 0, false
	}
	return id, true
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/service"
)

type StartWrapUpRequest struct {
	LeadID        string `json:"lead_id" validate:"required"`
	JobID         string `json:"job_id" validate:"required"`
	Type          string `json:"type" validate:"required,oneof=assist takeover coaching perk_delivery"`
	Takeover      string `json:"takeover" validate:"required,oneof=none partial full"`
	DurationMin   int    `json:"duration_min" validate:"gte=0"`
	LaborPercent  int    `json:"labor_percent" validate:"gte=0,lte=100"`
	WorkerStarted bool   `json:"worker_started"`
}

// @Summary Start a wrap-up session for an intervention
// @Tags wrapups
// @Accept json
// @Produce json
// @Success 200 {object} service.SessionView
// @Failure 409 {object} map[string]any
// @Router /api/wrapups [post]
func (h *Handler) WrapUpStart(c *gin.Context) {
	var req StartWrapUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	job, err := h.Store.GetJob(c.Request.Context(), req.JobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load job", err.Error())
		return
	}

	shift, err := h.Store.GetActiveShift(c.Request.Context(), req.LeadID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load shift", err.Error())
		return
	}
	if h.Modes.Resolve(shift, time.Now().UTC()) != service.ModeOversight {
		writeError(c, http.StatusConflict, "INVALID_STATE", "Lead is not in oversight mode", nil)
		return
	}

	session, err := h.Sessions.Start(service.JobContext{
		LeadID:                req.LeadID,
		WorkerID:              job.WorkerID,
		JobID:                 job.ID,
		Type:                  models.InterventionType(req.Type),
		Takeover:              models.TakeoverLevel(req.Takeover),
		DurationMin:           req.DurationMin,
		LaborPercent:          req.LaborPercent,
		Category:              job.Category,
		OriginalWorkerStarted: req.WorkerStarted,
		Checklist:             h.Modes.Checklist(),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionActive):
			writeError(c, http.StatusConflict, "SESSION_ACTIVE", err.Error(), nil)
		case errors.Is(err, service.ErrPartialTooShort):
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		default:
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Could not start wrap-up", err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, session.View())
}

func (h *Handler) WrapUpGet(c *gin.Context) {
	session := h.Sessions.Get(c.Param("id"))
	if session == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No live session with that id", nil)
		return
	}
	c.JSON(http.StatusOK, session.View())
}

type NotesRequest struct {
	Text string `json:"text"`
}

func (h *Handler) WrapUpNotes(c *gin.Context) {
	session := h.Sessions.Get(c.Param("id"))
	if session == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No live session with that id", nil)
		return
	}
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := session.UpdateNotes(req.Text); err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.View())
}

type TagRequest struct {
	Tag string `json:"tag" validate:"required"`
}

func (h *Handler) WrapUpTag(c *gin.Context) {
	session := h.Sessions.Get(c.Param("id"))
	if session == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No live session with that id", nil)
		return
	}
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	if err := session.SelectTag(req.Tag); err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.View())
}

type PhotoRequest struct {
	Ref    string `json:"ref" validate:"required"`
	Prompt string `json:"prompt"`
}

func (h *Handler) WrapUpPhoto(c *gin.Context) {
	session := h.Sessions.Get(c.Param("id"))
	if session == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No live session with that id", nil)
		return
	}
	var req PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	if err := session.AddPhoto(req.Ref, req.Prompt); err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.View())
}

type ChecklistRequest struct {
	Name string `json:"name" validate:"required"`
	Done bool   `json:"done"`
}

func (h *Handler) WrapUpChecklist(c *gin.Context) {
	session := h.Sessions.Get(c.Param("id"))
	if session == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No live session with that id", nil)
		return
	}
	var req ChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	if err := session.SetChecklistItem(req.Name, req.Done); err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.View())
}

// @Summary Submit a wrap-up session
// @Tags wrapups
// @Produce json
// @Success 200 {object} models.Intervention
// @Failure 409 {object} map[string]any
// @Router /api/wrapups/{id}/submit [post]
func (h *Handler) WrapUpSubmit(c *gin.Context) {
	session := h.Sessions.Get(c.Param("id"))
	if session == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No live session with that id", nil)
		return
	}
	rec, err := session.Submit(c.Request.Context())
	if err != nil {
		var lockout *service.LockoutError
		switch {
		case errors.As(err, &lockout):
			writeError(c, http.StatusConflict, "LOCKED", lockout.Reason, nil)
		case errors.Is(err, service.ErrSessionClosed):
			writeError(c, http.StatusConflict, "SESSION_CLOSED", err.Error(), nil)
		default:
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to record intervention", err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) WrapUpCancel(c *gin.Context) {
	session := h.Sessions.Get(c.Param("id"))
	if session == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No live session with that id", nil)
		return
	}
	if err := session.Cancel(); err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *Handler) writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotesTooLong):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, service.ErrSessionClosed):
		writeError(c, http.StatusConflict, "SESSION_CLOSED", err.Error(), nil)
	default:
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	}
}

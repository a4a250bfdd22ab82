package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/db"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/notify"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/service"
)

type Handler struct {
	Store     *db.Store
	Sessions  *service.SessionManager
	Modes     *service.ShiftModeController
	Notifier  notify.Notifier
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// JobsList returns monitored jobs with transient urgency and oversight flags.
// When lead_id is supplied the flags reflect that lead's current mode.
func (h *Handler) JobsList(c *gin.Context) {
	zone := strings.TrimSpace(c.Query("zone"))
	status := strings.TrimSpace(c.Query("status"))
	leadID := strings.TrimSpace(c.Query("lead_id"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, err := h.Store.ListJobs(c.Request.Context(), zone, status, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list jobs", err.Error())
		return
	}

	mode := service.ModeOffDuty
	if leadID != "" {
		shift, err := h.Store.GetActiveShift(c.Request.Context(), leadID)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load shift", err.Error())
			return
		}
		mode = h.Modes.Resolve(shift, time.Now().UTC())
	}

	items := h.Modes.AnnotateJobs(jobs, mode, time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{"items": items, "mode": mode, "limit": limit, "offset": offset})
}

func (h *Handler) ShiftsList(c *gin.Context) {
	leadID := strings.TrimSpace(c.Query("lead_id"))
	status := strings.TrimSpace(c.Query("status"))
	items, err := h.Store.ListShifts(c.Request.Context(), leadID, status)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list shifts", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Check out of a shift
// @Tags shifts
// @Produce json
// @Param id path string true "Shift ID"
// @Success 200 {object} map[string]any
// @Router /api/shifts/{id}/checkout [post]
func (h *Handler) ShiftCheckout(c *gin.Context) {
	id := c.Param("id")
	if err := h.Store.EndShift(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No active shift with that id", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to end shift", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

func (h *Handler) LeadMode(c *gin.Context) {
	leadID := c.Param("id")
	shift, err := h.Store.GetActiveShift(c.Request.Context(), leadID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load shift", err.Error())
		return
	}
	mode := h.Modes.Resolve(shift, time.Now().UTC())
	resp := gin.H{"lead_id": leadID, "mode": mode}
	if mode == service.ModeOversight {
		resp["zone"] = shift.Zone
		resp["shift"] = shift
		resp["checklist"] = h.Modes.Checklist()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) LeadEffectiveness(c *gin.Context) {
	leadID := c.Param("id")
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -7)
	checkins, err := h.Store.ListInterventionsByLead(c.Request.Context(), leadID, since)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load interventions", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lead_id":       leadID,
		"window_days":   7,
		"checkin_count": len(checkins),
		"effectiveness": service.ClassifyEffectiveness(checkins, now),
	})
}

// LeadRetention evaluates the retention rules against the lead's latest
// snapshot. A lead with no snapshot yet reports zero violations, not an error.
func (h *Handler) LeadRetention(c *gin.Context) {
	leadID := c.Param("id")
	snap, err := h.Store.GetLatestSnapshot(c.Request.Context(), leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusOK, gin.H{
				"lead_id":    leadID,
				"violations": []models.Violation{},
				"risk":       service.RiskLow,
				"snapshot":   nil,
			})
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load snapshot", err.Error())
		return
	}
	violations, risk := service.EvaluateRetention(snap)
	if violations == nil {
		violations = []models.Violation{}
	}
	c.JSON(http.StatusOK, gin.H{
		"lead_id":    leadID,
		"violations": violations,
		"risk":       risk,
		"snapshot":   snap,
	})
}

func (h *Handler) PromotionCandidates(c *gin.Context) {
	candidates, err := h.Store.ListPromotionCandidates(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load candidates", err.Error())
		return
	}
	type scored struct {
		Candidate models.PromotionCandidate `json:"candidate"`
		Result    service.PromotionResult   `json:"result"`
	}
	items := make([]scored, 0, len(candidates))
	for _, cand := range candidates {
		items = append(items, scored{Candidate: cand, Result: service.ScorePromotion(cand)})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Run the retention and promotion evaluation sweep
// @Tags evaluate
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/evaluate [post]
func (h *Handler) Evaluate(c *gin.Context) {
	runID, err := h.Store.CreateRun(c.Request.Context(), "RUNNING")
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to create run")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
		return
	}

	evaluator := service.EvaluationService{Store: h.Store, Notifier: h.Notifier, Logger: h.Logger}
	debug := c.Query("debug")
	summary, err := evaluator.Evaluate(c.Request.Context(), debug == "1" || strings.EqualFold(debug, "true"))
	status := "SUCCESS"
	if err != nil {
		status = "FAILED"
	}
	b, _ := json.Marshal(summary)
	if finishErr := h.Store.FinishRun(c.Request.Context(), runID, status, b); finishErr != nil {
		h.Logger.Error().Err(finishErr).Msg("failed to finish run")
	}

	if err != nil {
		h.Logger.Error().Err(err).Msg("evaluation failed")
		writeError(c, http.StatusInternalServerError, "EVALUATION_ERROR", "Evaluation failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Latest evaluation run
// @Tags runs
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	result, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Preview a compensation calculation
// @Tags debug
// @Produce json
// @Param takeover query string true "none|partial|full"
// @Param duration query int false "Duration in minutes"
// @Param category query string false "Service category"
// @Success 200 {object} service.CompensationResult
// @Router /api/debug/compensation [get]
func (h *Handler) DebugCompensation(c *gin.Context) {
	duration, _ := strconv.Atoi(c.DefaultQuery("duration", "0"))
	labor, _ := strconv.Atoi(c.DefaultQuery("labor", "0"))
	in := service.CompensationInput{
		Takeover:              models.TakeoverLevel(strings.ToLower(strings.TrimSpace(c.Query("takeover")))),
		DurationMin:           duration,
		LaborPercent:          labor,
		Category:              models.ResolveServiceCategory(c.Query("category")),
		LeadFinished:          c.Query("finished") == "1",
		OriginalWorkerStarted: c.Query("worker_started") == "1",
	}
	res, err := service.ComputeCompensation(in)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/utils"
)

type ImportSummary struct {
	Jobs struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"jobs"`
	Shifts struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"shifts"`
	Metrics struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"metrics"`
	Errors []string `json:"errors"`
}

// @Summary Import CSV data
// @Description Upload jobs, shifts, and metrics-snapshot CSV files
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param jobs formData file true "jobs.csv"
// @Param shifts formData file true "shifts.csv"
// @Param metrics formData file true "metrics.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	jobsFile, err := c.FormFile("jobs")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "jobs file required", nil)
		return
	}
	shiftsFile, err := c.FormFile("shifts")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "shifts file required", nil)
		return
	}
	metricsFile, err := c.FormFile("metrics")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "metrics file required", nil)
		return
	}

	if !validateExt(jobsFile.Filename) || !validateExt(shiftsFile.Filename) || !validateExt(metricsFile.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "all files must be .csv", nil)
		return
	}

	summary := ImportSummary{Errors: []string{}}
	ctx := c.Request.Context()

	jobs, errs := parseJobsCSV(jobsFile)
	summary.Jobs.Parsed = len(jobs)
	summary.Jobs.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	shifts, errs := parseShiftsCSV(shiftsFile)
	summary.Shifts.Parsed = len(shifts)
	summary.Shifts.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	metrics, errs := parseMetricsCSV(metricsFile)
	summary.Metrics.Parsed = len(metrics)
	summary.Metrics.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	if len(summary.Errors) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", summary.Errors)
		return
	}

	if err := h.Store.ResetImportTables(ctx); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reset tables", err.Error())
		return
	}

	inserted, err := h.Store.InsertJobs(ctx, jobs)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert jobs", err.Error())
		return
	}
	summary.Jobs.Inserted = int(inserted)

	inserted, err = h.Store.InsertShifts(ctx, shifts)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert shifts", err.Error())
		return
	}
	summary.Shifts.Inserted = int(inserted)

	inserted, err = h.Store.InsertMetricsSnapshots(ctx, metrics)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert metrics", err.Error())
		return
	}
	summary.Metrics.Inserted = int(inserted)

	c.JSON(http.StatusOK, summary)
}

func parseJobsCSV(file *multipart.FileHeader) ([]models.JobRecord, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.JobRecord

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := normalizeTrim(getFieldAny(rec, index, "id", "job_id", "order_id"))
		scheduledStr := normalizeTrim(getFieldAny(rec, index, "scheduled_at", "scheduled", "schedule"))
		status := normalizeTrim(getFieldAny(rec, index, "status", "state"))
		workerID := normalizeTrim(getFieldAny(rec, index, "worker_id", "worker", "bubbler_id"))
		serviceType := normalizeTrim(getFieldAny(rec, index, "service_type", "service", "type"))
		zone := normalizeTrim(getFieldAny(rec, index, "zone", "area"))

		var scheduledAt *time.Time
		if t, err := time.Parse(time.RFC3339, scheduledStr); err == nil {
			scheduledAt = &t
		}

		// Re-imports of upstream exports sometimes lack stable IDs; derive
		// one from the row so a second import does not duplicate jobs.
		if id == "" {
			id = fmt.Sprintf("JOB-%x", utils.HashStringToUint64(workerID+"|"+scheduledStr+"|"+zone))
		}
		if status == "" {
			status = "assigned"
		}

		out = append(out, models.JobRecord{
			ID:          id,
			ScheduledAt: scheduledAt,
			Status:      strings.ToLower(status),
			WorkerID:    workerID,
			ServiceType: serviceType,
			Category:    models.ResolveServiceCategory(serviceType),
			Zone:        zone,
		})
	}
	return out, errs
}

func parseShiftsCSV(file *multipart.FileHeader) ([]models.Shift, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Shift
	seenActive := map[string]bool{}

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := normalizeTrim(getFieldAny(rec, index, "id", "shift_id"))
		leadID := normalizeTrim(getFieldAny(rec, index, "lead_id", "lead"))
		zone := normalizeTrim(getFieldAny(rec, index, "zone", "area"))
		startsStr := normalizeTrim(getFieldAny(rec, index, "starts_at", "start", "start_time"))
		endsStr := normalizeTrim(getFieldAny(rec, index, "ends_at", "end", "end_time"))
		status := strings.ToLower(normalizeTrim(getFieldAny(rec, index, "status")))

		if leadID == "" {
			errs = append(errs, "shift row missing lead_id")
			continue
		}
		startsAt, err := time.Parse(time.RFC3339, startsStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("shift %s: bad starts_at %q", id, startsStr))
			continue
		}
		endsAt, err := time.Parse(time.RFC3339, endsStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("shift %s: bad ends_at %q", id, endsStr))
			continue
		}
		if id == "" {
			id = fmt.Sprintf("SHIFT-%x", utils.HashStringToUint64(leadID+"|"+startsStr))
		}
		if status == "" {
			status = string(models.ShiftEnded)
			if time.Now().UTC().Before(endsAt) {
				status = string(models.ShiftActive)
			}
		}
		// One active shift per lead; later rows are demoted rather than
		// failing the whole import.
		if status == string(models.ShiftActive) {
			if seenActive[leadID] {
				errs = append(errs, fmt.Sprintf("shift %s: lead %s already has an active shift", id, leadID))
				continue
			}
			seenActive[leadID] = true
		}

		out = append(out, models.Shift{
			ID:       id,
			LeadID:   leadID,
			Zone:     zone,
			StartsAt: startsAt,
			EndsAt:   endsAt,
			Status:   models.ShiftStatus(status),
		})
	}
	return out, errs
}

func parseMetricsCSV(file *multipart.FileHeader) ([]models.PerformanceMetricsSnapshot, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.PerformanceMetricsSnapshot

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		leadID := normalizeTrim(getFieldAny(rec, index, "lead_id", "lead"))
		if leadID == "" {
			errs = append(errs, "metrics row missing lead_id")
			continue
		}
		window, _ := strconv.Atoi(normalizeTrim(getFieldAny(rec, index, "window_days", "window")))
		if window == 0 {
			window = 30
		}
		rating, _ := strconv.ParseFloat(normalizeTrim(getFieldAny(rec, index, "avg_rating", "rating")), 64)
		onTime, _ := strconv.ParseFloat(normalizeTrim(getFieldAny(rec, index, "on_time_rate", "on_time")), 64)
		complaints, _ := strconv.Atoi(normalizeTrim(getFieldAny(rec, index, "complaint_count", "complaints")))
		missed, _ := strconv.Atoi(normalizeTrim(getFieldAny(rec, index, "missed_checkins", "missed")))
		capturedAt, err := time.Parse(time.RFC3339, normalizeTrim(getFieldAny(rec, index, "captured_at", "captured")))
		if err != nil {
			capturedAt = time.Now().UTC()
		}

		out = append(out, models.PerformanceMetricsSnapshot{
			LeadID:         leadID,
			WindowDays:     window,
			AvgRating:      rating,
			OnTimeRate:     onTime,
			ComplaintCount: complaints,
			MissedCheckins: missed,
			CapturedAt:     capturedAt,
		})
	}
	return out, errs
}

func validateExt(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

func headerIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return index
}

func getFieldAny(rec []string, index map[string]int, names ...string) string {
	for _, name := range names {
		if i, ok := index[name]; ok && i < len(rec) {
			return rec[i]
		}
	}
	return ""
}

func normalizeTrim(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\uFEFF"))
}

package models

import "time"

type ShiftStatus string

const (
	ShiftActive ShiftStatus = "active"
	ShiftEnded  ShiftStatus = "ended"
)

// Shift is a lead's published oversight window for a zone. At most one
// shift per lead may be active at any instant; the store enforces this.
type Shift struct {
	ID       string      `json:"id"`
	LeadID   string      `json:"lead_id"`
	Zone     string      `json:"zone"`
	StartsAt time.Time   `json:"starts_at"`
	EndsAt   time.Time   `json:"ends_at"`
	Status   ShiftStatus `json:"status"`
}

// ServiceCategory is the closed set of service lines a job can belong to.
// The raw service-type string is resolved to a category once at import time;
// the rule engine only ever sees the typed value.
type ServiceCategory string

const (
	ServiceLaundry  ServiceCategory = "laundry"
	ServiceCarWash  ServiceCategory = "car_wash"
	ServiceCleaning ServiceCategory = "cleaning"
	ServiceUnknown  ServiceCategory = "unknown"
)

// JobRecord is owned by the order system; the dashboard only reads it.
// Urgency and oversight flags are derived per request, never persisted.
type JobRecord struct {
	ID          string          `json:"id"`
	ScheduledAt *time.Time      `json:"scheduled_at"`
	Status      string          `json:"status"`
	WorkerID    string          `json:"worker_id"`
	ServiceType string          `json:"service_type"`
	Category    ServiceCategory `json:"category"`
	Zone        string          `json:"zone"`
}

type TakeoverLevel string

const (
	TakeoverNone    TakeoverLevel = "none"
	TakeoverPartial TakeoverLevel = "partial"
	TakeoverFull    TakeoverLevel = "full"
)

type InterventionType string

const (
	InterventionAssist       InterventionType = "assist"
	InterventionTakeover     InterventionType = "takeover"
	InterventionCoaching     InterventionType = "coaching"
	InterventionPerkDelivery InterventionType = "perk_delivery"
)

// Intervention is a lead's logged check-in on a worker's job. Immutable once
// submitted; prior to submission it only exists as a wrap-up session buffer.
type Intervention struct {
	ID             string           `json:"id"`
	LeadID         string           `json:"lead_id"`
	WorkerID       string           `json:"worker_id"`
	JobID          string           `json:"job_id"`
	Type           InterventionType `json:"type"`
	Takeover       TakeoverLevel    `json:"takeover"`
	DurationMin    int              `json:"duration_min"`
	LaborPercent   int              `json:"labor_percent"`
	Notes          string           `json:"notes"`
	PhotoRefs      []string         `json:"photo_refs"`
	Tier           string           `json:"tier"`
	WrapUpDuration int              `json:"wrapup_duration"`
	AutoSubmitted  bool             `json:"auto_submitted"`
	CreatedAt      time.Time        `json:"created_at"`
}

// WrapUpDraft is the autosave target for an in-flight wrap-up session.
// Best-effort only; a draft is never promoted to an Intervention by itself.
type WrapUpDraft struct {
	SessionID string    `json:"session_id"`
	LeadID    string    `json:"lead_id"`
	JobID     string    `json:"job_id"`
	Notes     string    `json:"notes"`
	Tags      []string  `json:"tags"`
	PhotoRefs []string  `json:"photo_refs"`
	Remaining int       `json:"remaining"`
	SavedAt   time.Time `json:"saved_at"`
}

// PerformanceMetricsSnapshot is a rolling-window aggregate supplied by the
// metrics pipeline. Read-only input to the retention rules.
type PerformanceMetricsSnapshot struct {
	LeadID         string    `json:"lead_id"`
	WindowDays     int       `json:"window_days"`
	AvgRating      float64   `json:"avg_rating"`
	OnTimeRate     float64   `json:"on_time_rate"`
	ComplaintCount int       `json:"complaint_count"`
	MissedCheckins int       `json:"missed_checkins"`
	CapturedAt     time.Time `json:"captured_at"`
}

type ViolationSeverity string

const (
	SeverityHigh   ViolationSeverity = "high"
	SeverityMedium ViolationSeverity = "medium"
)

// Violation is derived from a snapshot on every evaluation, never stored as
// authoritative state.
type Violation struct {
	Rule      string            `json:"rule"`
	Current   float64           `json:"current"`
	Threshold float64           `json:"threshold"`
	Severity  ViolationSeverity `json:"severity"`
}

type PromotionCandidate struct {
	WorkerID           string  `json:"worker_id"`
	Role               string  `json:"role"`
	CompletedJobs      int     `json:"completed_jobs"`
	Rating             float64 `json:"rating"`
	TotalEarnings      float64 `json:"total_earnings"`
	TenureDays         int     `json:"tenure_days"`
	DaysSincePromotion int     `json:"days_since_promotion"`
}

// Advisory is an informational record written by the evaluation sweep.
// Role or retention changes still require a separate administrative step.
type Advisory struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	SubjectID string    `json:"subject_id"`
	Outcome   string    `json:"outcome"`
	Detail    []byte    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

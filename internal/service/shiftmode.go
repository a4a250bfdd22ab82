package service

import (
	"time"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
)

type Mode string

const (
	ModeOversight Mode = "oversight"
	ModeOffDuty   Mode = "off_duty"
)

// ChecklistItem is an oversight duty a lead works through during a shift.
// Mandatory items feed the wrap-up lockout rule.
type ChecklistItem struct {
	Name      string `json:"name"`
	Mandatory bool   `json:"mandatory"`
	Done      bool   `json:"done"`
}

// MonitoredJob is a job annotated with transient oversight state for display.
// Neither flag is ever persisted.
type MonitoredJob struct {
	Job        models.JobRecord `json:"job"`
	Urgency    Urgency          `json:"urgency"`
	CanOversee bool             `json:"can_oversee"`
}

// ShiftModeController decides whether zone-wide job monitoring is active for
// a lead and owns the oversight checklist template.
type ShiftModeController struct{}

func NewShiftModeController() *ShiftModeController {
	return &ShiftModeController{}
}

// Resolve returns oversight only when the lead holds an active shift whose
// window covers now. A stale status flag does not keep monitoring on past
// the shift's end timestamp.
func (c *ShiftModeController) Resolve(shift *models.Shift, now time.Time) Mode {
	if shift == nil || shift.Status != models.ShiftActive {
		return ModeOffDuty
	}
	if now.Before(shift.StartsAt) || !now.Before(shift.EndsAt) {
		return ModeOffDuty
	}
	return ModeOversight
}

// Checklist returns a fresh oversight checklist for a new shift or wrap-up.
func (c *ShiftModeController) Checklist() []ChecklistItem {
	return []ChecklistItem{
		{Name: "zone_walkthrough", Mandatory: true},
		{Name: "supplies_verified", Mandatory: true},
		{Name: "team_briefed", Mandatory: false},
	}
}

// AnnotateJobs derives urgency and oversight flags for the monitored-jobs
// view. Jobs are only overseeable while the lead is in oversight mode and
// the job is still open.
func (c *ShiftModeController) AnnotateJobs(jobs []models.JobRecord, mode Mode, now time.Time) []MonitoredJob {
	out := make([]MonitoredJob, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, MonitoredJob{
			Job:        j,
			Urgency:    ClassifyUrgency(j.ScheduledAt, now),
			CanOversee: mode == ModeOversight && jobOpen(j.Status),
		})
	}
	return out
}

func jobOpen(status string) bool {
	switch status {
	case "completed", "cancelled":
		return false
	default:
		return true
	}
}

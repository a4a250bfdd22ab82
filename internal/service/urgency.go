package service

import "time"

type Urgency string

const (
	UrgencyOverdue  Urgency = "overdue"
	UrgencyCritical Urgency = "critical"
	UrgencyWarning  Urgency = "warning"
	UrgencyOnTrack  Urgency = "on_track"
	UrgencyUnknown  Urgency = "unknown"
)

// ClassifyUrgency buckets a job by how far its scheduled time is from now.
// A job with no schedule is unknown, never an error. Boundaries are
// inclusive on the near side: exactly 2h out is still critical.
func ClassifyUrgency(scheduledAt *time.Time, now time.Time) Urgency {
	if scheduledAt == nil {
		return UrgencyUnknown
	}
	delta := scheduledAt.Sub(now).Hours()
	switch {
	case delta < 0:
		return UrgencyOverdue
	case delta <= 2:
		return UrgencyCritical
	case delta <= 4:
		return UrgencyWarning
	default:
		return UrgencyOnTrack
	}
}

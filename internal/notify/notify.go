package notify

import (
	"context"
	"time"
)

// Event is a dashboard alert headed for toast/SMS/email delivery. Delivery
// itself lives outside this service; we only hand events to an adapter.
type Event struct {
	Kind      string    `json:"kind"`
	LeadID    string    `json:"lead_id"`
	SessionID string    `json:"session_id,omitempty"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

const (
	KindWrapUpWarning = "wrapup_warning"
	KindAutoSubmit    = "wrapup_auto_submit"
	KindRetentionRisk = "retention_risk"
)

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

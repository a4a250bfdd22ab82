package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// WebhookNotifier posts events to the notification gateway that fans out to
// toast/SMS/email. Callers treat failures as best-effort.
type WebhookNotifier struct {
	BaseURL string
	Client  *http.Client
}

func (w WebhookNotifier) Notify(ctx context.Context, ev Event) error {
	if w.Client == nil {
		w.Client = &http.Client{Timeout: 10 * time.Second}
	}

	b, _ := json.Marshal(ev)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.BaseURL+"/events", bytes.NewBuffer(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("notification gateway error")
	}
	return nil
}

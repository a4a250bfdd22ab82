package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUrgency_Boundaries(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(d)
		return &ts
	}

	tests := []struct {
		name      string
		scheduled *time.Time
		want      Urgency
	}{
		{"no schedule", nil, UrgencyUnknown},
		{"just past", at(-36 * time.Second), UrgencyOverdue},
		{"long past", at(-48 * time.Hour), UrgencyOverdue},
		{"exactly now", at(0), UrgencyCritical},
		{"one hour out", at(time.Hour), UrgencyCritical},
		{"exactly two hours", at(2 * time.Hour), UrgencyCritical},
		{"just over two hours", at(2*time.Hour + time.Millisecond), UrgencyWarning},
		{"three hours out", at(3 * time.Hour), UrgencyWarning},
		{"exactly four hours", at(4 * time.Hour), UrgencyWarning},
		{"just over four hours", at(4*time.Hour + time.Millisecond), UrgencyOnTrack},
		{"tomorrow", at(24 * time.Hour), UrgencyOnTrack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyUrgency(tt.scheduled, now))
		})
	}
}

func TestClassifyUrgency_Idempotent(t *testing.T) {
	now := time.Now().UTC()
	sched := now.Add(90 * time.Minute)
	first := ClassifyUrgency(&sched, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ClassifyUrgency(&sched, now))
	}
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
)

func checkinsAt(now time.Time, ages ...time.Duration) []models.Intervention {
	out := make([]models.Intervention, 0, len(ages))
	for _, age := range ages {
		out = append(out, models.Intervention{
			Type:      models.InterventionAssist,
			CreatedAt: now.Add(-age),
		})
	}
	return out
}

func TestClassifyEffectiveness(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name     string
		checkins []models.Intervention
		want     Effectiveness
	}{
		{"no history", nil, EffectivenessExcellent},
		{"empty slice", []models.Intervention{}, EffectivenessExcellent},
		{"one recent", checkinsAt(now, 2*day), EffectivenessGood},
		{"two recent", checkinsAt(now, day, 3*day), EffectivenessGood},
		{"three recent", checkinsAt(now, day, 2*day, 3*day), EffectivenessFair},
		{"five recent", checkinsAt(now, day, day, 2*day, 3*day, 6*day), EffectivenessFair},
		{"six recent", checkinsAt(now, day, day, day, 2*day, 3*day, 6*day), EffectivenessNeedsWork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyEffectiveness(tt.checkins, now))
		})
	}
}

func TestClassifyEffectiveness_IgnoresOldCheckins(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	// Ten check-ins, all older than the trailing week.
	old := checkinsAt(now, 8*day, 9*day, 10*day, 11*day, 12*day, 13*day, 14*day, 20*day, 30*day, 60*day)
	assert.Equal(t, EffectivenessExcellent, ClassifyEffectiveness(old, now))

	// Mixed: only the two inside the window count.
	mixed := append(old, checkinsAt(now, day, 5*day)...)
	assert.Equal(t, EffectivenessGood, ClassifyEffectiveness(mixed, now))
}

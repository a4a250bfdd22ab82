package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
)

func snapshot(rating, onTime float64, complaints, missed int) models.PerformanceMetricsSnapshot {
	return models.PerformanceMetricsSnapshot{
		LeadID:         "lead-1",
		WindowDays:     30,
		AvgRating:      rating,
		OnTimeRate:     onTime,
		ComplaintCount: complaints,
		MissedCheckins: missed,
	}
}

func TestEvaluateRetention_AllPassing(t *testing.T) {
	violations, risk := EvaluateRetention(snapshot(4.8, 97, 1, 0))
	assert.Empty(t, violations)
	assert.Equal(t, RiskLow, risk)
}

func TestEvaluateRetention_ExactThresholdsPass(t *testing.T) {
	violations, risk := EvaluateRetention(snapshot(4.7, 95, 2, 1))
	assert.Empty(t, violations)
	assert.Equal(t, RiskLow, risk)
}

func TestEvaluateRetention_SingleHighViolation(t *testing.T) {
	violations, risk := EvaluateRetention(snapshot(4.6, 96, 1, 0))
	require.Len(t, violations, 1)
	assert.Equal(t, "average_rating", violations[0].Rule)
	assert.Equal(t, 4.6, violations[0].Current)
	assert.Equal(t, 4.7, violations[0].Threshold)
	assert.Equal(t, models.SeverityHigh, violations[0].Severity)
	assert.Equal(t, RiskHigh, risk)
}

func TestEvaluateRetention_RiskAggregation(t *testing.T) {
	tests := []struct {
		name string
		snap models.PerformanceMetricsSnapshot
		want RiskLevel
	}{
		{"one medium", snapshot(4.8, 97, 3, 0), RiskMedium},
		{"two medium", snapshot(4.8, 97, 3, 2), RiskHigh},
		{"one high", snapshot(4.8, 90, 1, 0), RiskHigh},
		{"two high", snapshot(4.2, 80, 0, 0), RiskCritical},
		{"one high two medium", snapshot(4.6, 96, 5, 3), RiskCritical},
		{"everything failing", snapshot(3.9, 70, 8, 4), RiskCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, risk := EvaluateRetention(tt.snap)
			assert.Equal(t, tt.want, risk)
		})
	}
}

func TestEvaluateRetention_Deterministic(t *testing.T) {
	snap := snapshot(4.3, 88, 4, 2)
	first, firstRisk := EvaluateRetention(snap)
	for i := 0; i < 5; i++ {
		again, risk := EvaluateRetention(snap)
		assert.Equal(t, first, again)
		assert.Equal(t, firstRisk, risk)
	}
}

package service

import (
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type retentionRule struct {
	name      string
	severity  models.ViolationSeverity
	threshold float64
	current   func(models.PerformanceMetricsSnapshot) float64
	// atLeast true means the metric must meet or exceed the threshold,
	// false means it must not exceed it.
	atLeast bool
}

var retentionRules = []retentionRule{
	{
		name:      "average_rating",
		severity:  models.SeverityHigh,
		threshold: 4.7,
		current:   func(s models.PerformanceMetricsSnapshot) float64 { return s.AvgRating },
		atLeast:   true,
	},
	{
		name:      "on_time_completion",
		severity:  models.SeverityHigh,
		threshold: 95,
		current:   func(s models.PerformanceMetricsSnapshot) float64 { return s.OnTimeRate },
		atLeast:   true,
	},
	{
		name:      "support_complaints",
		severity:  models.SeverityMedium,
		threshold: 2,
		current:   func(s models.PerformanceMetricsSnapshot) float64 { return float64(s.ComplaintCount) },
		atLeast:   false,
	},
	{
		name:      "missed_checkins",
		severity:  models.SeverityMedium,
		threshold: 1,
		current:   func(s models.PerformanceMetricsSnapshot) float64 { return float64(s.MissedCheckins) },
		atLeast:   false,
	},
}

// EvaluateRetention runs the fixed rule table over a snapshot and aggregates
// the violations into a risk level. Deterministic and order-independent:
// the same snapshot always yields the same risk.
func EvaluateRetention(s models.PerformanceMetricsSnapshot) ([]models.Violation, RiskLevel) {
	var violations []models.Violation
	for _, r := range retentionRules {
		cur := r.current(s)
		failed := cur < r.threshold
		if !r.atLeast {
			failed = cur > r.threshold
		}
		if failed {
			violations = append(violations, models.Violation{
				Rule:      r.name,
				Current:   cur,
				Threshold: r.threshold,
				Severity:  r.severity,
			})
		}
	}
	return violations, aggregateRisk(violations)
}

func aggregateRisk(violations []models.Violation) RiskLevel {
	var high, medium int
	for _, v := range violations {
		switch v.Severity {
		case models.SeverityHigh:
			high++
		case models.SeverityMedium:
			medium++
		}
	}
	switch {
	case high >= 2 || (high >= 1 && medium >= 2):
		return RiskCritical
	case high >= 1 || medium >= 2:
		return RiskHigh
	case medium >= 1:
		return RiskMedium
	default:
		return RiskLow
	}
}

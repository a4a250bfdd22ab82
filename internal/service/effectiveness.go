package service

import (
	"time"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
)

type Effectiveness string

const (
	EffectivenessExcellent Effectiveness = "excellent"
	EffectivenessGood      Effectiveness = "good"
	EffectivenessFair      Effectiveness = "fair"
	EffectivenessNeedsWork Effectiveness = "needs_improvement"
)

const effectivenessWindow = 7 * 24 * time.Hour

// ClassifyEffectiveness grades a lead by how many interventions their zone
// needed in the trailing week. More check-ins means more workers needed help,
// so the scale is inverted. Nil or empty history grades excellent.
func ClassifyEffectiveness(checkins []models.Intervention, now time.Time) Effectiveness {
	cutoff := now.Add(-effectivenessWindow)
	count := 0
	for _, c := range checkins {
		if c.CreatedAt.After(cutoff) {
			count++
		}
	}
	switch {
	case count == 0:
		return EffectivenessExcellent
	case count <= 2:
		return EffectivenessGood
	case count <= 5:
		return EffectivenessFair
	default:
		return EffectivenessNeedsWork
	}
}

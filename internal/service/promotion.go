package service

import (
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
)

type PromotionAction string

const (
	ActionPromote  PromotionAction = "promote"
	ActionConsider PromotionAction = "consider"
	ActionDevelop  PromotionAction = "develop"
	ActionMaintain PromotionAction = "maintain"
)

// Eligibility gates. A candidate missing any single gate scores zero.
const (
	gateCompletedJobs = 50
	gateRating        = 4.5
	gateEarnings      = 5000.0
	gateTenureDays    = 90
	gateSincePromDays = 30
)

// Score component references and caps. Each component saturates at its cap
// even when the candidate exceeds the reference value.
const (
	refCompletedJobs = 100.0
	refRating        = 5.0
	refEarnings      = 10000.0
	refTenureDays    = 365.0
	refSincePromDays = 90.0
)

type PromotionResult struct {
	WorkerID string          `json:"worker_id"`
	Eligible bool            `json:"eligible"`
	Score    float64         `json:"score"`
	Action   PromotionAction `json:"action,omitempty"`
}

// ScorePromotion applies the eligibility gates, then a weighted 0-100 score.
// Ineligible candidates get score 0 and no recommended action.
func ScorePromotion(c models.PromotionCandidate) PromotionResult {
	res := PromotionResult{WorkerID: c.WorkerID}

	if c.CompletedJobs < gateCompletedJobs ||
		c.Rating < gateRating ||
		c.TotalEarnings < gateEarnings ||
		c.TenureDays < gateTenureDays ||
		c.DaysSincePromotion < gateSincePromDays {
		return res
	}

	res.Eligible = true
	res.Score = cappedShare(float64(c.CompletedJobs), refCompletedJobs, 30) +
		cappedShare(c.Rating, refRating, 25) +
		cappedShare(c.TotalEarnings, refEarnings, 20) +
		cappedShare(float64(c.TenureDays), refTenureDays, 15) +
		cappedShare(float64(c.DaysSincePromotion), refSincePromDays, 10)

	switch {
	case res.Score >= 80:
		res.Action = ActionPromote
	case res.Score >= 60:
		res.Action = ActionConsider
	case res.Score >= 40:
		res.Action = ActionDevelop
	default:
		res.Action = ActionMaintain
	}
	return res
}

func cappedShare(value, reference, weight float64) float64 {
	ratio := value / reference
	if ratio > 1 {
		ratio = 1
	}
	return ratio * weight
}

package service

import (
	"errors"
	"fmt"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
)

const (
	TierNone    = "none"
	TierPartial = "partial"
	TierFull    = "full"
)

const (
	minPartialMinutes    = 30
	originalWorkerCredit = 10.0
)

// categoryBonus is the fixed per-service bonus paid on a partial takeover.
var categoryBonus = map[models.ServiceCategory]float64{
	models.ServiceLaundry:  10,
	models.ServiceCarWash:  20,
	models.ServiceCleaning: 15,
}

var (
	ErrPartialTooShort = errors.New("partial takeover requires at least 30 minutes")
	ErrUnknownTakeover = errors.New("unknown takeover level")
)

type CompensationInput struct {
	Takeover              models.TakeoverLevel
	DurationMin           int
	LaborPercent          int
	Category              models.ServiceCategory
	LeadFinished          bool
	OriginalWorkerStarted bool
}

// CompensationResult describes how an intervention pays out. Amounts here are
// the variable parts only; the hourly oversight rate itself lives in payroll.
type CompensationResult struct {
	Tier                 string   `json:"tier"`
	Bonus                float64  `json:"bonus"`
	WorkerCredit         float64  `json:"worker_credit"`
	Lines                []string `json:"lines"`
	RequiresVerification bool     `json:"requires_verification"`
}

// ComputeCompensation maps an intervention onto one of three payout tiers.
// Pure: no persistence, no notification. A partial takeover under 30 minutes
// is a caller error, not a silent downgrade to the none tier.
func ComputeCompensation(in CompensationInput) (CompensationResult, error) {
	switch in.Takeover {
	case models.TakeoverNone:
		return CompensationResult{
			Tier:  TierNone,
			Lines: []string{"Hourly oversight rate only"},
		}, nil

	case models.TakeoverPartial:
		if in.DurationMin < minPartialMinutes {
			return CompensationResult{}, ErrPartialTooShort
		}
		bonus := categoryBonus[in.Category]
		lines := []string{
			"Hourly oversight rate",
			fmt.Sprintf("Service bonus $%.0f (%s)", bonus, in.Category),
			"Provisional pending admin verification",
		}
		return CompensationResult{
			Tier:                 TierPartial,
			Bonus:                bonus,
			Lines:                lines,
			RequiresVerification: true,
		}, nil

	case models.TakeoverFull:
		lines := []string{"Full job payout in place of hourly rate"}
		res := CompensationResult{
			Tier:                 TierFull,
			RequiresVerification: true,
		}
		if in.OriginalWorkerStarted {
			res.WorkerCredit = originalWorkerCredit
			lines = append(lines, fmt.Sprintf("Original worker credit $%.0f", originalWorkerCredit))
		}
		res.Lines = append(lines, "Provisional pending admin verification")
		return res, nil

	default:
		return CompensationResult{}, ErrUnknownTakeover
	}
}

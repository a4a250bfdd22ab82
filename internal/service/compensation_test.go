package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
)

func TestComputeCompensation_None(t *testing.T) {
	res, err := ComputeCompensation(CompensationInput{
		Takeover: models.TakeoverNone,
		Category: models.ServiceCleaning,
	})
	require.NoError(t, err)
	assert.Equal(t, TierNone, res.Tier)
	assert.Zero(t, res.Bonus)
	assert.Zero(t, res.WorkerCredit)
	assert.False(t, res.RequiresVerification)
	assert.Equal(t, []string{"Hourly oversight rate only"}, res.Lines)
}

func TestComputeCompensation_PartialDurationGate(t *testing.T) {
	_, err := ComputeCompensation(CompensationInput{
		Takeover:    models.TakeoverPartial,
		DurationMin: 29,
		Category:    models.ServiceLaundry,
	})
	assert.ErrorIs(t, err, ErrPartialTooShort)

	res, err := ComputeCompensation(CompensationInput{
		Takeover:    models.TakeoverPartial,
		DurationMin: 30,
		Category:    models.ServiceLaundry,
	})
	require.NoError(t, err)
	assert.Equal(t, TierPartial, res.Tier)
	assert.True(t, res.RequiresVerification)
}

func TestComputeCompensation_PartialBonusByCategory(t *testing.T) {
	tests := []struct {
		category models.ServiceCategory
		bonus    float64
	}{
		{models.ServiceLaundry, 10},
		{models.ServiceCarWash, 20},
		{models.ServiceCleaning, 15},
		{models.ServiceUnknown, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			res, err := ComputeCompensation(CompensationInput{
				Takeover:    models.TakeoverPartial,
				DurationMin: 45,
				Category:    tt.category,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.bonus, res.Bonus)
		})
	}
}

func TestComputeCompensation_FullWorkerCredit(t *testing.T) {
	res, err := ComputeCompensation(CompensationInput{
		Takeover:              models.TakeoverFull,
		Category:              models.ServiceCarWash,
		OriginalWorkerStarted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, TierFull, res.Tier)
	assert.Equal(t, 10.0, res.WorkerCredit)
	assert.True(t, res.RequiresVerification)
	assert.Contains(t, res.Lines, "Original worker credit $10")

	res, err = ComputeCompensation(CompensationInput{
		Takeover: models.TakeoverFull,
		Category: models.ServiceCarWash,
	})
	require.NoError(t, err)
	assert.Zero(t, res.WorkerCredit)
	assert.NotContains(t, res.Lines, "Original worker credit $10")
}

func TestComputeCompensation_UnknownTakeover(t *testing.T) {
	_, err := ComputeCompensation(CompensationInput{Takeover: "escalated"})
	assert.ErrorIs(t, err, ErrUnknownTakeover)
}

package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateCast/internal/domain/models"
)

func TestFitPoissonOnEquidispersedCounts(t *testing.T) {
	d := NewDemandModel()
	// a constant count series is fit exactly by the intercept alone
	obs := makeObs(60,
		func(i int) float64 { return 80 + float64((i*7)%81) },
		func(int, float64) int { return 12 },
	)

	snap, err := d.Fit(context.Background(), obs)
	require.NoError(t, err)

	assert.Equal(t, models.FamilyPoisson, snap.Family)
	assert.Zero(t, snap.Theta)
	assert.InDelta(t, math.Log(12), snap.Intercept, 0.05)
	assert.Less(t, snap.Dispersion, 0.5)
	assert.Equal(t, 60, snap.SampleSize)
	assert.Len(t, snap.Coefficients, len(snap.Features))
	assert.NotEmpty(t, snap.Version)
	assert.GreaterOrEqual(t, snap.Iterations, 1)
}

func TestFitWindowInsideOneMonth(t *testing.T) {
	d := NewDemandModel()
	// stay dates never leave May; the constant month encodings get
	// dropped and the intercept still lands on the observed mean
	obs := makeObs(31,
		func(i int) float64 { return 80 + float64((i*7)%81) },
		func(int, float64) int { return 12 },
	)

	snap, err := d.Fit(context.Background(), obs)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(12), snap.Intercept, 0.05)
	assert.Len(t, snap.Coefficients, len(snap.Features))

	p := NewPredictor()
	mc := &models.MarketContext{
		StayDate:  time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
		DayOfWeek: 6,
		Capacity:  20,
	}
	assert.InDelta(t, 12, p.Predict(snap, mc, 120), 0.5)
}

func TestFitSwitchesToNegativeBinomial(t *testing.T) {
	d := NewDemandModel()
	// alternating extremes: variance far above the mean
	obs := makeObs(60,
		func(i int) float64 { return 80 + float64((i*7)%81) },
		func(i int, _ float64) int {
			if i%2 == 0 {
				return 2
			}
			return 30
		},
	)

	snap, err := d.Fit(context.Background(), obs)
	require.NoError(t, err)

	assert.Equal(t, models.FamilyNegBinom, snap.Family)
	assert.Greater(t, snap.Theta, 0.0)
}

func TestFitInsufficientData(t *testing.T) {
	d := NewDemandModel()
	obs := makeObs(10, func(i int) float64 { return 100 + float64(i) }, func(i int, _ float64) int { return i + 1 })

	_, err := d.Fit(context.Background(), obs)
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 30, ide.Needed)
}

func TestFitAbortsOnCancelledContext(t *testing.T) {
	d := NewDemandModel()
	obs := makeObs(60,
		func(i int) float64 { return 80 + float64((i*7)%81) },
		func(int, float64) int { return 12 },
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Fit(ctx, obs)

	var mfe *ModelFitError
	require.ErrorAs(t, err, &mfe)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictorEvaluatesSnapshot(t *testing.T) {
	p := NewPredictor()
	snap := &models.DemandModelSnapshot{
		Version:      "v-test",
		Family:       models.FamilyPoisson,
		Features:     append([]string(nil), demandFeatureNames...),
		Coefficients: make([]float64, len(demandFeatureNames)),
		Intercept:    math.Log(10),
	}
	mc := &models.MarketContext{
		StayDate:      time.Date(2026, time.July, 18, 0, 0, 0, 0, time.UTC),
		DayOfWeek:     6,
		Capacity:      20,
		OverbookLimit: 2,
	}

	assert.InDelta(t, 10, p.Predict(snap, mc, 150), 1e-9)
	assert.InDelta(t, 10, p.Predict(snap, mc, 90), 1e-9)
}

func TestPredictorCapsAtOverbookLimit(t *testing.T) {
	p := NewPredictor()
	snap := &models.DemandModelSnapshot{
		Features:     append([]string(nil), demandFeatureNames...),
		Coefficients: make([]float64, len(demandFeatureNames)),
		Intercept:    math.Log(10),
	}
	mc := &models.MarketContext{
		StayDate:      time.Date(2026, time.July, 18, 0, 0, 0, 0, time.UTC),
		Capacity:      5,
		OverbookLimit: 2,
	}

	assert.InDelta(t, 7, p.Predict(snap, mc, 150), 1e-9)
}

func TestPredictorDegenerateInputs(t *testing.T) {
	p := NewPredictor()
	mc := &models.MarketContext{StayDate: time.Date(2026, time.July, 18, 0, 0, 0, 0, time.UTC)}

	assert.Zero(t, p.Predict(nil, mc, 100))
	assert.Zero(t, p.Predict(&models.DemandModelSnapshot{Intercept: 1}, mc, 0))
}

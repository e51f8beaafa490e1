package analytics

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateRecoversNegativeElasticity(t *testing.T) {
	e := NewEstimator()
	// demand = 5000 * price^-1.5; rounding to whole bookings is the only
	// noise in the series
	obs := makeObs(60,
		func(i int) float64 { return 80 + float64((i*7)%81) },
		func(_ int, p float64) int { return int(math.Round(5000 * math.Pow(p, -1.5))) },
	)

	est, err := e.Estimate(context.Background(), obs)
	require.NoError(t, err)

	assert.InDelta(t, -1.5, est.Coefficient, 0.4)
	assert.False(t, est.Anomalous)
	assert.Greater(t, est.RSquared, 0.8)
	assert.Equal(t, 60, est.SampleSize)
	assert.Equal(t, 0, est.ExcludedRows)
	assert.Less(t, est.CILower, est.Coefficient)
	assert.Greater(t, est.CIUpper, est.Coefficient)
}

func TestEstimateCountsExcludedRows(t *testing.T) {
	e := NewEstimator()
	obs := makeObs(60,
		func(i int) float64 { return 80 + float64((i*7)%81) },
		func(_ int, p float64) int { return int(math.Round(5000 * math.Pow(p, -1.5))) },
	)
	// nonpositive price and zero demand are both unloggable
	obs[3].Price = 0
	obs[7].Bookings = 0
	obs[7].Capacity = 0
	obs[7].OccupancyRate = 0

	est, err := e.Estimate(context.Background(), obs)
	require.NoError(t, err)
	assert.Equal(t, 2, est.ExcludedRows)
	assert.Equal(t, 58, est.SampleSize)
}

func TestEstimateWindowInsideOneMonth(t *testing.T) {
	e := NewEstimator()
	// all 28 stay dates fall in May, so both month encodings are
	// constant; the fit must drop them instead of failing singular
	obs := makeObs(28,
		func(i int) float64 { return 80 + float64((i*7)%81) },
		func(_ int, p float64) int { return int(math.Round(5000 * math.Pow(p, -1.5))) },
	)

	est, err := e.Estimate(context.Background(), obs)
	require.NoError(t, err)
	assert.InDelta(t, -1.5, est.Coefficient, 0.4)
	assert.False(t, est.Anomalous)
}

func TestEstimateInsufficientUsableRows(t *testing.T) {
	e := NewEstimator()
	obs := makeObs(10, func(i int) float64 { return 100 + float64(i) }, func(i int, _ float64) int { return i + 1 })

	_, err := e.Estimate(context.Background(), obs)
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 20, ide.Needed)
}

func TestEstimateFlagsPositiveSlope(t *testing.T) {
	e := NewEstimator()
	// demand rises with price: an anomalous market, not a fit failure
	obs := makeObs(60,
		func(i int) float64 { return 80 + float64((i*7)%81) },
		func(_ int, p float64) int { return int(p / 10) },
	)

	est, err := e.Estimate(context.Background(), obs)
	require.NoError(t, err)
	assert.Greater(t, est.Coefficient, 0.0)
	assert.True(t, est.Anomalous)
}

func TestEstimateCancelledContext(t *testing.T) {
	e := NewEstimator()
	obs := makeObs(40, func(i int) float64 { return 100 + float64(i) }, func(i int, _ float64) int { return i + 1 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Estimate(ctx, obs)
	assert.ErrorIs(t, err, context.Canceled)
}

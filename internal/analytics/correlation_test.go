package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateCast/internal/domain/models"
)

// makeObs builds n sequential daily observations starting in May so the
// stay dates span two seasons and every weekday.
func makeObs(n int, price func(i int) float64, bookings func(i int, price float64) int) []models.HistoricalObservation {
	start := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]models.HistoricalObservation, n)
	for i := 0; i < n; i++ {
		p := price(i)
		obs[i] = models.HistoricalObservation{
			PropertyID:    "prop-1",
			Date:          start.AddDate(0, 0, i),
			Price:         p,
			OccupancyRate: 0.5,
			Bookings:      bookings(i, p),
			Capacity:      20,
			IsHoliday:     i%10 == 0,
		}
	}
	return obs
}

func TestAnalyzeInsufficientData(t *testing.T) {
	a := NewAnalyzer()
	obs := makeObs(10, func(i int) float64 { return 100 + float64(i) }, func(i int, _ float64) int { return i + 1 })

	_, err := a.Analyze(context.Background(), obs, TargetDemand)
	require.Error(t, err)

	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 30, ide.Needed)
	assert.Equal(t, 10, ide.Got)
}

func TestAnalyzeConstantTarget(t *testing.T) {
	a := NewAnalyzer(WithMinObservations(20))
	obs := makeObs(40, func(int) float64 { return 100 }, func(i int, _ float64) int { return i + 1 })

	_, err := a.Analyze(context.Background(), obs, TargetPrice)
	require.Error(t, err)

	var cfe *ConstantFeatureError
	require.ErrorAs(t, err, &cfe)
	assert.Equal(t, "price", cfe.Feature)
}

func TestAnalyzeRanksStrongPredictor(t *testing.T) {
	a := NewAnalyzer(WithMinObservations(20))
	// demand tracks price exactly; the price phase is decorrelated from
	// the calendar by the coprime stride
	obs := makeObs(60,
		func(i int) float64 { return 100 + float64((i*13)%47) },
		func(_ int, p float64) int { return int(p) },
	)

	report, err := a.Analyze(context.Background(), obs, TargetDemand)
	require.NoError(t, err)
	assert.Equal(t, TargetDemand, report.Target)
	assert.Equal(t, 60, report.SampleSize)

	var priceScore *models.FeatureScore
	for i := range report.Scores {
		if report.Scores[i].Feature == "price" {
			priceScore = &report.Scores[i]
		}
	}
	require.NotNil(t, priceScore)
	require.NotNil(t, priceScore.Pearson)
	assert.InDelta(t, 1.0, *priceScore.Pearson, 1e-9)
	assert.Greater(t, priceScore.Importance, 0.9)
	assert.False(t, priceScore.LowConfidence)

	// ranking is deterministic: descending importance, alphabetical ties
	for i := 1; i < len(report.Scores); i++ {
		prev, cur := report.Scores[i-1], report.Scores[i]
		if prev.Importance == cur.Importance {
			assert.Less(t, prev.Feature, cur.Feature)
		} else {
			assert.Greater(t, prev.Importance, cur.Importance)
		}
	}

	again, err := a.Analyze(context.Background(), obs, TargetDemand)
	require.NoError(t, err)
	for i := range report.Scores {
		assert.Equal(t, report.Scores[i].Feature, again.Scores[i].Feature)
		assert.Equal(t, report.Scores[i].Importance, again.Scores[i].Importance)
	}
}

func TestAnalyzeScoresCategoricalFeatures(t *testing.T) {
	a := NewAnalyzer(WithMinObservations(20))
	obs := makeObs(60,
		func(i int) float64 { return 100 + float64((i*13)%47) },
		func(_ int, p float64) int { return int(p) },
	)

	report, err := a.Analyze(context.Background(), obs, TargetDemand)
	require.NoError(t, err)

	features := make(map[string]models.FeatureScore, len(report.Scores))
	for _, s := range report.Scores {
		features[s.Feature] = s
	}
	for _, name := range []string{"season", "is_holiday", "day_of_week"} {
		s, ok := features[name]
		require.True(t, ok, "missing categorical feature %s", name)
		require.NotNil(t, s.AnovaF)
		require.NotNil(t, s.AnovaP)
		assert.GreaterOrEqual(t, s.Importance, 0.0)
		assert.LessOrEqual(t, s.Importance, 1.0)
	}
}

func TestAnalyzeSkipsConstantDerivedColumns(t *testing.T) {
	a := NewAnalyzer(WithMinObservations(20))
	// a holiday-free window leaves is_holiday single-valued; the run
	// proceeds without it rather than erroring out
	obs := makeObs(60,
		func(i int) float64 { return 100 + float64((i*13)%47) },
		func(_ int, p float64) int { return int(p) },
	)
	for i := range obs {
		obs[i].IsHoliday = false
	}

	report, err := a.Analyze(context.Background(), obs, TargetDemand)
	require.NoError(t, err)

	for _, s := range report.Scores {
		assert.NotEqual(t, "is_holiday", s.Feature)
	}
	// the varying calendar columns are still ranked
	features := make(map[string]struct{}, len(report.Scores))
	for _, s := range report.Scores {
		features[s.Feature] = struct{}{}
	}
	assert.Contains(t, features, "day_of_week")
	assert.Contains(t, features, "season")
}

func TestCorrelationsMatrix(t *testing.T) {
	a := NewAnalyzer(WithMinObservations(20))
	obs := makeObs(60,
		func(i int) float64 { return 100 + float64((i*13)%47) },
		func(_ int, p float64) int { return int(p) },
	)

	mat, err := a.Correlations(context.Background(), obs)
	require.NoError(t, err)
	require.NotEmpty(t, mat.Columns)
	assert.Equal(t, "demand", mat.Columns[0])
	require.Len(t, mat.Values, len(mat.Columns))

	priceIdx := -1
	for i, c := range mat.Columns {
		if c == "price" {
			priceIdx = i
		}
	}
	require.NotEqual(t, -1, priceIdx)
	assert.InDelta(t, 1.0, mat.Values[0][priceIdx], 1e-9)

	for i := range mat.Values {
		require.Len(t, mat.Values[i], len(mat.Columns))
		assert.Equal(t, 1.0, mat.Values[i][i])
		for j := range mat.Values[i] {
			assert.InDelta(t, mat.Values[i][j], mat.Values[j][i], 1e-12)
			assert.LessOrEqual(t, mat.Values[i][j], 1.0)
			assert.GreaterOrEqual(t, mat.Values[i][j], -1.0)
		}
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	a := NewAnalyzer()
	obs := makeObs(40, func(i int) float64 { return 100 + float64(i) }, func(i int, _ float64) int { return i + 1 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Analyze(ctx, obs, TargetDemand)
	assert.ErrorIs(t, err, context.Canceled)
}

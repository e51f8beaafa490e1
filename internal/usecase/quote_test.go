package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateCast/internal/analytics"
	"RateCast/internal/domain/models"
	"RateCast/pkg/config"
)

// nopMetrics satisfies the metrics sink without recording anything.
type nopMetrics struct{}

func (nopMetrics) RecordQuote(string, float64)    {}
func (nopMetrics) RecordClamp(string)             {}
func (nopMetrics) RecordFit(string, float64)      {}
func (nopMetrics) RecordFitFailure(string)        {}
func (nopMetrics) RecordSnapshotAge(float64)      {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordLatency(string, float64)  {}
func (nopMetrics) RecordObservationStored(string) {}

type stubPrefill struct {
	pcts *models.CompetitorPercentiles
}

func (s stubPrefill) Percentiles(string, time.Time, time.Time) (*models.CompetitorPercentiles, bool) {
	if s.pcts == nil {
		return nil, false
	}
	return s.pcts, true
}

func quotePricing() config.Pricing {
	var p config.Pricing
	p.FallbackBasePrice = 100
	p.Objective = "balanced"
	p.Season.Winter, p.Season.Spring, p.Season.Summer, p.Season.Autumn = 0.9, 1.0, 1.3, 1.1
	p.DayOfWeek.Friday, p.DayOfWeek.Saturday, p.DayOfWeek.Sunday = 1.15, 1.25, 1.10
	p.DemandSlope = 0.5
	p.LeadTime.LastMinuteDays, p.LeadTime.LastMinuteBump = 7, 1.20
	p.LeadTime.FarAdvanceDays, p.LeadTime.FarAdvanceTrim = 90, 0.90
	p.LongStay.WeekDiscount, p.LongStay.Fortnight, p.LongStay.MonthDiscount = 0.90, 0.85, 0.80
	p.Positioning.HighOccupancy, p.Positioning.LowOccupancy = 1.10, 0.95
	p.Positioning.HighThreshold, p.Positioning.LowThreshold = 0.7, 0.3
	p.Stance.Aggressive, p.Stance.Conservative = 1.05, 0.95
	p.Grid.Points, p.Grid.Span = 5, 0.10
	p.Bounds.LowerFactor, p.Bounds.UpperFactor = 0.8, 2.0
	p.PickupFraction = 0.25
	return p
}

func fptr(v float64) *float64 { return &v }

// saturdayQuote is a one-night summer Saturday a month out with the
// competitor percentiles supplied inline.
func saturdayQuote() *models.QuoteRequest {
	return &models.QuoteRequest{
		Entity:    models.EntityRef{OwnerID: "own-1", PropertyID: "prop-1"},
		StayDate:  "2026-07-18",
		QuoteTime: "2026-06-18T12:00:00Z",
		Product:   models.ProductSpec{Type: "standard", LengthOfStay: 1},
		Inventory: models.InventorySpec{Capacity: 20, Remaining: 4},
		Market: &models.MarketSpec{
			CompetitorP10: fptr(100),
			CompetitorP50: fptr(120),
			CompetitorP90: fptr(150),
		},
	}
}

func newQuoteUC(holder *ArtifactHolder, prefill MarketPrefiller) *QuoteUseCase {
	return NewQuoteUseCase(holder, quotePricing(), analytics.NewPredictor(), prefill, nopMetrics{})
}

func TestQuoteDeterministic(t *testing.T) {
	uc := newQuoteUC(NewArtifactHolder(), nil)

	a, err := uc.Quote(context.Background(), saturdayQuote())
	require.NoError(t, err)
	b, err := uc.Quote(context.Background(), saturdayQuote())
	require.NoError(t, err)

	assert.Equal(t, a.QuoteID, b.QuoteID)
	assert.Equal(t, a.Price, b.Price)
	assert.Equal(t, a.PriceGrid, b.PriceGrid)
	assert.Equal(t, a.QuoteID, uc.CacheKey(saturdayQuote()))
}

func TestQuoteSummerSaturday(t *testing.T) {
	uc := newQuoteUC(NewArtifactHolder(), nil)

	rec, err := uc.Quote(context.Background(), saturdayQuote())
	require.NoError(t, err)

	// 120 x 1.3 x 1.25 x 1.4 x 1.1 = 300.3, then capped at the
	// competitor ceiling 2.0 x p90 = 300
	assert.InDelta(t, 300, rec.Price, 1e-6)
	assert.True(t, rec.Safety.Clamped)
	assert.InDelta(t, 300, rec.Safety.ClampUpper, 1e-9)
	assert.Equal(t, "rule", rec.Safety.DemandSource)
	assert.False(t, rec.Safety.BaseFallback)
	assert.Equal(t, 30, rec.Safety.LeadDays)
	assert.Equal(t, models.SeasonSummer, rec.Safety.Season)
	assert.Equal(t, 6, rec.Safety.DayOfWeek)
	assert.InDelta(t, 0.8, rec.Safety.OccupancyRate, 1e-9)
	assert.Contains(t, rec.Reasons, "Price capped at the competitor-anchored ceiling")
	assert.Contains(t, rec.Reasons, "No fitted artifacts loaded; keeping rule-based price")
}

func TestQuoteUnclampedWithoutBoundAnchors(t *testing.T) {
	uc := newQuoteUC(NewArtifactHolder(), nil)
	req := saturdayQuote()
	// only the median is known, so no competitor-anchored bounds apply
	req.Market = &models.MarketSpec{CompetitorP50: fptr(120)}

	rec, err := uc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 300.3, rec.Price, 1e-6)
	assert.False(t, rec.Safety.Clamped)
}

func TestQuoteInvalidStayDate(t *testing.T) {
	uc := newQuoteUC(NewArtifactHolder(), nil)
	req := saturdayQuote()
	req.StayDate = "not-a-date"

	_, err := uc.Quote(context.Background(), req)
	assert.ErrorContains(t, err, "invalid stay_date")
}

func TestQuotePrefillsCompetitorPercentiles(t *testing.T) {
	prefill := stubPrefill{pcts: &models.CompetitorPercentiles{P10: 100, P50: 120, P90: 150, N: 12}}
	uc := newQuoteUC(NewArtifactHolder(), prefill)
	req := saturdayQuote()
	req.Market = nil

	rec, err := uc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, rec.Safety.BaseFallback)
	assert.Equal(t, 120.0, rec.Safety.BasePriceUsed)
}

func TestQuoteFallsBackWithoutMarketData(t *testing.T) {
	uc := newQuoteUC(NewArtifactHolder(), stubPrefill{})
	req := saturdayQuote()
	req.Market = nil

	rec, err := uc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, rec.Safety.BaseFallback)
	assert.Equal(t, 100.0, rec.Safety.BasePriceUsed)
}

func TestQuoteUsesLoadedDemandModel(t *testing.T) {
	holder := NewArtifactHolder()
	holder.Swap(&models.ArtifactSet{
		Demand: &models.DemandModelSnapshot{
			Version:      "v1",
			Family:       models.FamilyPoisson,
			Coefficients: make([]float64, 7),
			Intercept:    math.Log(10),
		},
		RefittedAt: time.Now().UTC(),
	})
	uc := newQuoteUC(holder, nil)

	rec, err := uc.Quote(context.Background(), saturdayQuote())
	require.NoError(t, err)
	assert.Equal(t, "model", rec.Safety.DemandSource)
	assert.Equal(t, "v1", rec.Safety.ModelVersion)
	require.Len(t, rec.PriceGrid, 5)
}

func TestQuoteIDChangesWithSnapshotVersion(t *testing.T) {
	holder := NewArtifactHolder()
	uc := newQuoteUC(holder, nil)

	before, err := uc.Quote(context.Background(), saturdayQuote())
	require.NoError(t, err)

	holder.Swap(&models.ArtifactSet{
		Demand:     &models.DemandModelSnapshot{Version: "v2", Coefficients: make([]float64, 7)},
		RefittedAt: time.Now().UTC(),
	})
	after, err := uc.Quote(context.Background(), saturdayQuote())
	require.NoError(t, err)

	assert.NotEqual(t, before.QuoteID, after.QuoteID)
}

func TestQuoteToggleCompetitorsOff(t *testing.T) {
	uc := newQuoteUC(NewArtifactHolder(), nil)
	off := false
	req := saturdayQuote()
	req.Toggles = &models.ToggleSpec{UseCompetitors: &off}

	rec, err := uc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, rec.Safety.BaseFallback)
	assert.Equal(t, 100.0, rec.Safety.BasePriceUsed)
}

package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateCast/internal/domain/models"
	"RateCast/pkg/config"
)

// testPricing mirrors the documented configuration defaults.
func testPricing() config.Pricing {
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

func ptr(v float64) *float64 { return &v }

// summerSaturday is the canonical busy-night context: competitor median
// 120, high occupancy, one-night stay a month out.
func summerSaturday() *models.MarketContext {
	return &models.MarketContext{
		Season:        models.SeasonSummer,
		DayOfWeek:     6,
		OccupancyRate: 0.8,
		LeadDays:      30,
		LengthOfStay:  1,
		Capacity:      20,
		Remaining:     4,
		CompetitorP10: ptr(100),
		CompetitorP50: ptr(120),
		CompetitorP90: ptr(150),
		Toggles:       models.DefaultToggles(),
	}
}

func TestScoreSummerSaturdayHighOccupancy(t *testing.T) {
	s := NewScorer(testPricing())
	res := s.Score(summerSaturday())

	// 120 x 1.3 (summer) x 1.25 (saturday) x 1.4 (demand) x 1.1 (positioning)
	assert.InDelta(t, 300.3, res.AdjustedPrice, 1e-9)
	assert.Equal(t, 120.0, res.BasePrice)
	assert.False(t, res.BaseFallback)

	assert.Contains(t, res.Reasons, "Base price anchored to competitor median 120.00")
	assert.Contains(t, res.Reasons, "Summer season pricing")
	assert.Contains(t, res.Reasons, "Weekend premium")
	assert.Contains(t, res.Reasons, "Priced above competitor median 120.00 on strong demand")
}

func TestScorePriceNonDecreasingInOccupancy(t *testing.T) {
	s := NewScorer(testPricing())

	// the demand factor rises linearly and both positioning steps move
	// upward, so sweeping occupancy can never lower the price
	prev := -1.0
	for occ := 0.0; occ <= 1.0+1e-9; occ += 0.01 {
		mc := summerSaturday()
		mc.OccupancyRate = occ

		res := s.Score(mc)
		require.GreaterOrEqualf(t, res.AdjustedPrice, prev,
			"price dropped at occupancy %.2f", occ)
		prev = res.AdjustedPrice
	}
}

func TestScoreFallbackBaseWithoutMarketData(t *testing.T) {
	s := NewScorer(testPricing())
	mc := summerSaturday()
	mc.CompetitorP10, mc.CompetitorP50, mc.CompetitorP90 = nil, nil, nil

	res := s.Score(mc)
	require.True(t, res.BaseFallback)
	assert.Equal(t, 100.0, res.BasePrice)
	assert.Contains(t, res.Reasons, "No competitor data available; using configured base price 100.00")
	// positioning needs an anchor; only the calendar and demand factors apply
	assert.InDelta(t, 100*1.3*1.25*1.4, res.AdjustedPrice, 1e-9)
}

func TestScoreCompetitorToggleOff(t *testing.T) {
	s := NewScorer(testPricing())
	mc := summerSaturday()
	mc.Toggles.UseCompetitors = false

	res := s.Score(mc)
	require.True(t, res.BaseFallback)
	assert.Equal(t, 100.0, res.BasePrice)
	assert.Contains(t, res.Reasons, "Competitor anchoring disabled; using configured base price 100.00")
}

func TestScoreSeasonalityToggleOff(t *testing.T) {
	s := NewScorer(testPricing())
	mc := summerSaturday()
	mc.Toggles.ApplySeasonality = false

	res := s.Score(mc)
	assert.InDelta(t, 120*1.25*1.4*1.1, res.AdjustedPrice, 1e-9)
	assert.NotContains(t, res.Reasons, "Summer season pricing")
}

func TestScoreLeadTimeFactors(t *testing.T) {
	s := NewScorer(testPricing())

	mc := summerSaturday()
	mc.LeadDays = 3
	res := s.Score(mc)
	assert.InDelta(t, 300.3*1.20, res.AdjustedPrice, 1e-9)
	assert.Contains(t, res.Reasons, "Last-minute booking premium")

	mc = summerSaturday()
	mc.LeadDays = 120
	res = s.Score(mc)
	assert.InDelta(t, 300.3*0.90, res.AdjustedPrice, 1e-9)
	assert.Contains(t, res.Reasons, "Far-advance booking discount")
}

func TestScoreLongStayDiscountTiers(t *testing.T) {
	s := NewScorer(testPricing())
	for _, tc := range []struct {
		nights int
		factor float64
		reason string
	}{
		{7, 0.90, "Length-of-stay discount (7+ nights)"},
		{14, 0.85, "Length-of-stay discount (14+ nights)"},
		{30, 0.80, "Length-of-stay discount (30+ nights)"},
	} {
		mc := summerSaturday()
		mc.LengthOfStay = tc.nights
		res := s.Score(mc)
		assert.InDelta(t, 300.3*tc.factor, res.AdjustedPrice, 1e-9, "nights=%d", tc.nights)
		assert.Contains(t, res.Reasons, tc.reason)
	}
}

func TestScoreLowOccupancyPositioning(t *testing.T) {
	s := NewScorer(testPricing())
	mc := summerSaturday()
	mc.OccupancyRate = 0.2

	res := s.Score(mc)
	// 120 x 1.3 x 1.25 x 1.1 (demand at 20%) x 0.95 (undercut)
	assert.InDelta(t, 120*1.3*1.25*1.1*0.95, res.AdjustedPrice, 1e-9)
	assert.Contains(t, res.Reasons, "Priced below competitor median 120.00 to stimulate demand")
}

func TestScoreStanceToggles(t *testing.T) {
	s := NewScorer(testPricing())

	mc := summerSaturday()
	mc.Toggles.Aggressive = true
	res := s.Score(mc)
	assert.InDelta(t, 300.3*1.05, res.AdjustedPrice, 1e-9)
	assert.Contains(t, res.Reasons, "Aggressive stance premium")

	mc = summerSaturday()
	mc.Toggles.Conservative = true
	res = s.Score(mc)
	assert.InDelta(t, 300.3*0.95, res.AdjustedPrice, 1e-9)
	assert.Contains(t, res.Reasons, "Conservative stance discount")
}

func TestScoreIsDeterministic(t *testing.T) {
	s := NewScorer(testPricing())
	a := s.Score(summerSaturday())
	b := s.Score(summerSaturday())
	assert.Equal(t, a, b)
}

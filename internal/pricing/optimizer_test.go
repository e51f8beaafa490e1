package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
)

// stubPredictor returns a fixed demand curve regardless of snapshot.
type stubPredictor struct {
	fn func(price float64) float64
}

func (s stubPredictor) Predict(_ *models.DemandModelSnapshot, _ *models.MarketContext, price float64) float64 {
	return s.fn(price)
}

func TestOptimizeGridShape(t *testing.T) {
	o := NewOptimizer(testPricing(), stubPredictor{fn: func(float64) float64 { return 10 }})
	res := o.Optimize(summerSaturday(), 100, nil, domrepo.ObjectiveRevenue)

	require.Len(t, res.Grid, 5)
	assert.InDeltaSlice(t, []float64{90, 95, 100, 105, 110}, res.Grid, 1e-9)
}

func TestOptimizeNoArtifactsKeepsRulePrice(t *testing.T) {
	o := NewOptimizer(testPricing(), stubPredictor{fn: func(float64) float64 { return 10 }})
	mc := summerSaturday()
	mc.CompetitorP10, mc.CompetitorP90 = nil, nil

	res := o.Optimize(mc, 100, nil, domrepo.ObjectiveRevenue)
	assert.Equal(t, 100.0, res.Price)
	assert.Empty(t, res.Evaluations)
	assert.Equal(t, DemandSourceRule, res.DemandSource)
	assert.Equal(t, -1.0, res.ExpectedDemand)
	assert.Contains(t, res.Reasons, "No fitted artifacts loaded; keeping rule-based price")
}

func TestOptimizeUsesDemandModel(t *testing.T) {
	// flat demand makes revenue monotone in price: the top of the grid wins
	o := NewOptimizer(testPricing(), stubPredictor{fn: func(float64) float64 { return 10 }})
	mc := summerSaturday()
	mc.CompetitorP10, mc.CompetitorP90 = nil, nil
	artifacts := &models.ArtifactSet{Demand: &models.DemandModelSnapshot{Version: "v1"}}

	res := o.Optimize(mc, 100, artifacts, domrepo.ObjectiveRevenue)
	assert.Equal(t, DemandSourceModel, res.DemandSource)
	require.Len(t, res.Evaluations, 5)
	assert.InDelta(t, 110, res.Price, 1e-9)
	assert.InDelta(t, 10, res.ExpectedDemand, 1e-9)
}

func TestOptimizeElasticityFallback(t *testing.T) {
	o := NewOptimizer(testPricing(), stubPredictor{fn: func(float64) float64 { return 10 }})
	mc := summerSaturday()
	mc.CompetitorP10, mc.CompetitorP90 = nil, nil
	mc.OccupancyRate = 0.5
	artifacts := &models.ArtifactSet{
		Elasticity: &models.ElasticityEstimate{Coefficient: -1.2},
	}

	res := o.Optimize(mc, 100, artifacts, domrepo.ObjectiveRevenue)
	assert.Equal(t, DemandSourceElasticity, res.DemandSource)
	assert.Contains(t, res.Reasons, "Demand model unavailable; using elasticity-based demand estimate")

	// elasticity below -1: revenue falls as price rises, the floor wins
	assert.InDelta(t, 90, res.Price, 1e-9)
	d0 := mc.OccupancyRate * float64(mc.Capacity)
	assert.InDelta(t, d0*math.Pow(90.0/100.0, -1.2), res.ExpectedDemand, 1e-9)
}

func TestOptimizeSkipsAnomalousElasticity(t *testing.T) {
	o := NewOptimizer(testPricing(), stubPredictor{fn: func(float64) float64 { return 10 }})
	mc := summerSaturday()
	mc.CompetitorP10, mc.CompetitorP90 = nil, nil
	artifacts := &models.ArtifactSet{
		Elasticity: &models.ElasticityEstimate{Coefficient: 0.4, Anomalous: true},
	}

	res := o.Optimize(mc, 100, artifacts, domrepo.ObjectiveRevenue)
	assert.Equal(t, DemandSourceRule, res.DemandSource)
	assert.Equal(t, 100.0, res.Price)
	assert.Contains(t, res.Reasons, "Demand model unavailable; keeping rule-based price")
}

func TestOptimizeClampsToFloor(t *testing.T) {
	o := NewOptimizer(testPricing(), stubPredictor{fn: func(float64) float64 { return 10 }})
	mc := summerSaturday() // p10=100, p90=150 -> bounds [80, 300]

	res := o.Optimize(mc, 50, nil, domrepo.ObjectiveRevenue)
	assert.True(t, res.Clamped)
	assert.Equal(t, 80.0, res.Price)
	assert.Equal(t, 80.0, res.ClampLower)
	assert.Equal(t, 300.0, res.ClampUpper)
	assert.Contains(t, res.Reasons, "Price raised to the competitor-anchored floor")
}

func TestOptimizeClampsToCeiling(t *testing.T) {
	o := NewOptimizer(testPricing(), stubPredictor{fn: func(float64) float64 { return 10 }})
	mc := summerSaturday()

	res := o.Optimize(mc, 500, nil, domrepo.ObjectiveRevenue)
	assert.True(t, res.Clamped)
	assert.Equal(t, 300.0, res.Price)
	assert.Contains(t, res.Reasons, "Price capped at the competitor-anchored ceiling")
}

func TestOptimizeObjectives(t *testing.T) {
	// demand falls linearly with price so the objectives disagree
	curve := func(p float64) float64 { return 200 - p }
	mc := summerSaturday()
	mc.CompetitorP10, mc.CompetitorP90 = nil, nil
	artifacts := &models.ArtifactSet{Demand: &models.DemandModelSnapshot{Version: "v1"}}
	o := NewOptimizer(testPricing(), stubPredictor{fn: curve})

	occ := o.Optimize(mc, 100, artifacts, domrepo.ObjectiveOccupancy)
	assert.InDelta(t, 90, occ.Price, 1e-9, "occupancy objective picks the cheapest point")

	rev := o.Optimize(mc, 100, artifacts, domrepo.ObjectiveRevenue)
	// revenue p*(200-p) peaks at p=100 on this grid
	assert.InDelta(t, 100, rev.Price, 1e-9)
}

package pricing

import (
	"math"
	"time"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	"RateCast/pkg/config"
	"RateCast/pkg/util"
)

// Assembler combines scorer and optimizer output into the final
// recommendation. Pure aggregation; calling it twice with the same
// inputs yields the same result.
type Assembler struct {
	cfg config.Pricing
}

// NewAssembler creates the recommendation assembler.
func NewAssembler(cfg config.Pricing) *Assembler {
	return &Assembler{cfg: cfg}
}

// Assemble builds the PriceRecommendation. quoteID and generatedAt are
// supplied by the caller so the assembly itself stays deterministic.
func (a *Assembler) Assemble(
	quoteID string,
	mc *models.MarketContext,
	score ScoreResult,
	opt OptResult,
	artifacts *models.ArtifactSet,
	objective domrepo.Objective,
	generatedAt time.Time,
) *models.PriceRecommendation {
	price := round2(opt.Price)

	grid := make([]float64, len(opt.Grid))
	for i, p := range opt.Grid {
		grid[i] = round2(p)
	}

	band := a.confBand(price, opt, artifacts)

	reasons := make([]string, 0, len(score.Reasons)+len(opt.Reasons))
	reasons = append(reasons, score.Reasons...)
	reasons = append(reasons, opt.Reasons...)

	modelVersion := ""
	if artifacts != nil && artifacts.Demand != nil {
		modelVersion = artifacts.Demand.Version
	}

	return &models.PriceRecommendation{
		QuoteID:   quoteID,
		Price:     price,
		PriceGrid: grid,
		ConfBand:  band,
		Expected: models.ExpectedOccupancy{
			Now:         round4(mc.OccupancyRate),
			EndOfWindow: round4(a.expectedEndOccupancy(mc, opt)),
		},
		Reasons: reasons,
		Safety: models.SafetyRecord{
			BasePriceUsed: round2(score.BasePrice),
			BaseFallback:  score.BaseFallback,
			OccupancyRate: round4(mc.OccupancyRate),
			LeadDays:      mc.LeadDays,
			Season:        mc.Season,
			DayOfWeek:     mc.DayOfWeek,
			Clamped:       opt.Clamped,
			ClampLower:    round2(opt.ClampLower),
			ClampUpper:    round2(opt.ClampUpper),
			DemandSource:  opt.DemandSource,
			ModelVersion:  modelVersion,
			Objective:     string(objective),
		},
		GeneratedAt: generatedAt,
	}
}

// confBand derives the uncertainty range: the evaluated grid's spread
// by default, widened or narrowed by the elasticity CI when a
// non-anomalous estimate is loaded.
func (a *Assembler) confBand(price float64, opt OptResult, artifacts *models.ArtifactSet) models.ConfBand {
	half := price * a.cfg.Grid.Span
	if len(opt.Grid) > 1 {
		lo, hi := opt.Grid[0], opt.Grid[len(opt.Grid)-1]
		half = (hi - lo) / 2
	}
	if artifacts != nil && artifacts.Elasticity != nil && !artifacts.Elasticity.Anomalous {
		est := artifacts.Elasticity
		denom := math.Abs(est.Coefficient)
		if denom > 0 {
			rel := (est.CIUpper - est.CILower) / 2 / denom
			scaled := price * a.cfg.Grid.Span * rel
			// keep the band within sane multiples of the grid spread
			min := price * a.cfg.Grid.Span / 2
			max := price * a.cfg.Grid.Span * 3
			if scaled < min {
				scaled = min
			}
			if scaled > max {
				scaled = max
			}
			half = scaled
		}
	}
	return models.ConfBand{
		Lower: round2(price - half),
		Upper: round2(price + half),
	}
}

// expectedEndOccupancy projects occupancy at the end of the booking
// window: from the demand curve when available, otherwise the
// rule-based pickup fraction.
func (a *Assembler) expectedEndOccupancy(mc *models.MarketContext, opt OptResult) float64 {
	if opt.ExpectedDemand >= 0 && mc.Capacity > 0 {
		return util.Clamp01(opt.ExpectedDemand / float64(mc.Capacity))
	}
	return util.Clamp01(mc.OccupancyRate + (1-mc.OccupancyRate)*a.cfg.PickupFraction)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

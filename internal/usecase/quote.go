package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	domsvc "RateCast/internal/domain/service"
	"RateCast/internal/pricing"
	"RateCast/pkg/config"
	"RateCast/pkg/util"
)

// MarketPrefiller supplies competitor percentiles for a stay date when
// the request omits them (the live rate-shopper window).
type MarketPrefiller interface {
	Percentiles(propertyID string, stayDate time.Time, now time.Time) (*models.CompetitorPercentiles, bool)
}

// QuoteUseCase is the live scoring path: validate, build context,
// score, optimize, assemble. No blocking I/O; all statistical inputs
// come from the immutable artifact snapshot.
type QuoteUseCase struct {
	holder    *ArtifactHolder
	scorer    *pricing.Scorer
	optimizer *pricing.Optimizer
	assembler *pricing.Assembler
	prefill   MarketPrefiller
	metrics   domrepo.Metrics
	objective domrepo.Objective
}

// NewQuoteUseCase wires the live path. prefill may be nil when no rate
// stream is configured.
func NewQuoteUseCase(
	holder *ArtifactHolder,
	cfg config.Pricing,
	predictor domsvc.DemandPredictor,
	prefill MarketPrefiller,
	metrics domrepo.Metrics,
) *QuoteUseCase {
	return &QuoteUseCase{
		holder:    holder,
		scorer:    pricing.NewScorer(cfg),
		optimizer: pricing.NewOptimizer(cfg, predictor),
		assembler: pricing.NewAssembler(cfg),
		prefill:   prefill,
		metrics:   metrics,
		objective: domrepo.NormalizeObjective(cfg.Objective),
	}
}

// Quote produces one price recommendation. The only error it returns
// is a validation failure on the request payload; every statistical
// degradation falls back and is reported in reasons/safety instead.
func (uc *QuoteUseCase) Quote(ctx context.Context, req *models.QuoteRequest) (*models.PriceRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	mc, err := uc.buildContext(req)
	if err != nil {
		return nil, err
	}

	artifacts := uc.holder.Load()

	score := uc.scorer.Score(mc)
	opt := uc.optimizer.Optimize(mc, score.AdjustedPrice, artifacts, uc.objective)
	rec := uc.assembler.Assemble(quoteID(req, artifacts), mc, score, opt, artifacts, uc.objective, mc.QuoteTime)

	uc.metrics.RecordQuote(req.Entity.PropertyID, rec.Price)
	if rec.Safety.Clamped {
		uc.metrics.RecordClamp(clampDirection(opt))
	}
	uc.metrics.RecordLatency("quote", time.Since(start).Seconds())
	return rec, nil
}

// buildContext turns the request payload into a MarketContext.
// Missing calendar fields are the one hard failure; everything else
// has a documented fallback.
func (uc *QuoteUseCase) buildContext(req *models.QuoteRequest) (*models.MarketContext, error) {
	stay, ok := util.ParseDate(req.StayDate)
	if !ok {
		return nil, fmt.Errorf("invalid stay_date %q", req.StayDate)
	}
	quote := util.ParseTimeDefault(req.QuoteTime, time.Now().UTC())

	mc := &models.MarketContext{
		StayDate:      stay,
		QuoteTime:     quote,
		LeadDays:      util.LeadDays(quote, stay),
		LengthOfStay:  req.Product.LengthOfStay,
		Season:        models.ParseSeason(req.Context.Season, stay),
		Capacity:      req.Inventory.Capacity,
		Remaining:     req.Inventory.Remaining,
		OverbookLimit: req.Inventory.OverbookLimit,
		Weather:       req.Context.Weather,
		Toggles:       req.Toggles.Resolve(),
	}
	if mc.LengthOfStay <= 0 {
		mc.LengthOfStay = 1
	}

	if req.Context.DayOfWeek != nil {
		mc.DayOfWeek = *req.Context.DayOfWeek
	} else {
		mc.DayOfWeek = int(stay.Weekday())
	}

	if mc.Capacity > 0 {
		booked := mc.Capacity - mc.Remaining
		if booked < 0 {
			booked = 0
		}
		mc.OccupancyRate = util.Clamp01(float64(booked) / float64(mc.Capacity))
	}

	if req.Market != nil {
		mc.CompetitorP10 = req.Market.CompetitorP10
		mc.CompetitorP50 = req.Market.CompetitorP50
		mc.CompetitorP90 = req.Market.CompetitorP90
	}
	if mc.CompetitorP50 == nil && uc.prefill != nil {
		if pcts, ok := uc.prefill.Percentiles(req.Entity.PropertyID, stay, quote); ok {
			mc.CompetitorP10 = &pcts.P10
			mc.CompetitorP50 = &pcts.P50
			mc.CompetitorP90 = &pcts.P90
		}
	}

	return mc, nil
}

// quoteID is a deterministic digest of the payload and the loaded
// snapshot version, so identical requests against the same snapshot
// produce byte-identical responses (and share a cache slot).
func quoteID(req *models.QuoteRequest, artifacts *models.ArtifactSet) string {
	h := sha256.New()
	b, _ := json.Marshal(req)
	h.Write(b)
	if artifacts != nil && artifacts.Demand != nil {
		h.Write([]byte(artifacts.Demand.Version))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// CacheKey is the deterministic cache key for a request against the
// currently loaded snapshot. Matches the QuoteID in the response.
func (uc *QuoteUseCase) CacheKey(req *models.QuoteRequest) string {
	return quoteID(req, uc.holder.Load())
}

func clampDirection(opt pricing.OptResult) string {
	if opt.Price <= opt.ClampLower {
		return "floor"
	}
	return "ceiling"
}

package pricing

import (
	"math"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	domsvc "RateCast/internal/domain/service"
	"RateCast/pkg/config"
)

// Demand source labels recorded in the safety diagnostics.
const (
	DemandSourceModel      = "model"
	DemandSourceElasticity = "elasticity"
	DemandSourceRule       = "rule"
)

// GridPoint is one evaluated candidate price.
type GridPoint struct {
	Price     float64
	Demand    float64
	Objective float64
}

// OptResult is the optimizer's selection plus its evaluation trail.
type OptResult struct {
	Price          float64
	Grid           []float64 // ascending candidate prices
	Evaluations    []GridPoint
	DemandSource   string
	ExpectedDemand float64 // at the selected price; < 0 when unknown
	Clamped        bool
	ClampLower     float64
	ClampUpper     float64
	Reasons        []string
}

// Optimizer searches a bounded price grid for the objective's arg-max
// and enforces the hard competitor-anchored bounds afterwards.
type Optimizer struct {
	cfg       config.Pricing
	predictor domsvc.DemandPredictor
}

// NewOptimizer creates an optimizer; predictor evaluates demand-model
// snapshots at scoring time.
func NewOptimizer(cfg config.Pricing, predictor domsvc.DemandPredictor) *Optimizer {
	return &Optimizer{cfg: cfg, predictor: predictor}
}

// Optimize evaluates the candidate grid around the adjusted price.
// Demand precedence: fitted snapshot (when loaded and use_ml), then
// the analytic elasticity curve, then no re-selection at all; the
// scorer's price stands and the degradation is reported in safety.
func (o *Optimizer) Optimize(mc *models.MarketContext, adjusted float64, artifacts *models.ArtifactSet, objective domrepo.Objective) OptResult {
	res := OptResult{
		Price:          adjusted,
		Grid:           o.grid(adjusted),
		DemandSource:   DemandSourceRule,
		ExpectedDemand: -1,
	}

	curve := o.demandCurve(mc, adjusted, artifacts, &res)
	if curve != nil {
		best := math.Inf(-1)
		for _, p := range res.Grid {
			d := curve(p)
			obj := evaluate(objective, p, d, mc.Capacity)
			res.Evaluations = append(res.Evaluations, GridPoint{Price: p, Demand: d, Objective: obj})
			if obj > best {
				best = obj
				res.Price = p
				res.ExpectedDemand = d
			}
		}
	}

	o.clamp(mc, &res)
	return res
}

// grid builds the ascending candidate prices spanning ±span around
// the adjusted price.
func (o *Optimizer) grid(adjusted float64) []float64 {
	n := o.cfg.Grid.Points
	span := o.cfg.Grid.Span
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		frac := -span + 2*span*float64(i)/float64(n-1)
		out[i] = adjusted * (1 + frac)
	}
	return out
}

func (o *Optimizer) demandCurve(mc *models.MarketContext, adjusted float64, artifacts *models.ArtifactSet, res *OptResult) func(float64) float64 {
	if artifacts == nil {
		res.Reasons = append(res.Reasons, "No fitted artifacts loaded; keeping rule-based price")
		return nil
	}
	if mc.Toggles.UseML && artifacts.Demand != nil {
		snapshot := artifacts.Demand
		res.DemandSource = DemandSourceModel
		return func(p float64) float64 {
			return o.predictor.Predict(snapshot, mc, p)
		}
	}
	if est := artifacts.Elasticity; est != nil && !est.Anomalous {
		// analytic demand around the anchor: D(p) = D0 * (p/p0)^e
		d0 := mc.OccupancyRate * float64(mc.Capacity)
		if d0 < 1 {
			d0 = 1
		}
		eps := est.Coefficient
		res.DemandSource = DemandSourceElasticity
		res.Reasons = append(res.Reasons, "Demand model unavailable; using elasticity-based demand estimate")
		return func(p float64) float64 {
			return d0 * math.Pow(p/adjusted, eps)
		}
	}
	res.Reasons = append(res.Reasons, "Demand model unavailable; keeping rule-based price")
	return nil
}

func evaluate(objective domrepo.Objective, price, demand float64, capacity int) float64 {
	switch objective {
	case domrepo.ObjectiveOccupancy:
		return demand
	case domrepo.ObjectiveRevenue:
		return price * demand
	default: // balanced: revenue weighted by squared occupancy
		occ := 1.0
		if capacity > 0 {
			occ = demand / float64(capacity)
			if occ > 1 {
				occ = 1
			}
		}
		return price * demand * occ * occ
	}
}

// clamp enforces the hard bounds [lower*p10, upper*p90] after
// selection and records any clamping in the result.
func (o *Optimizer) clamp(mc *models.MarketContext, res *OptResult) {
	if !mc.HasBounds() {
		return
	}
	lower := o.cfg.Bounds.LowerFactor * *mc.CompetitorP10
	upper := o.cfg.Bounds.UpperFactor * *mc.CompetitorP90
	res.ClampLower = lower
	res.ClampUpper = upper
	if res.Price < lower {
		res.Price = lower
		res.Clamped = true
		res.Reasons = append(res.Reasons, "Price raised to the competitor-anchored floor")
	}
	if res.Price > upper {
		res.Price = upper
		res.Clamped = true
		res.Reasons = append(res.Reasons, "Price capped at the competitor-anchored ceiling")
	}
}

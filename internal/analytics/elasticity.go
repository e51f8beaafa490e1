package analytics

import (
	"context"
	"math"
	"time"

	"RateCast/internal/domain/models"
	"RateCast/pkg/util"
)

// Estimator fits price elasticity of demand by regressing log(demand)
// on log(price) with calendar covariates as controls.
type Estimator struct {
	minUsable int
}

// EstimatorOption configures Estimator.
type EstimatorOption func(*Estimator)

// WithMinUsable sets the floor on usable rows after log exclusion.
func WithMinUsable(n int) EstimatorOption {
	return func(e *Estimator) {
		if n > 0 {
			e.minUsable = n
		}
	}
}

// NewEstimator creates an elasticity estimator with the 20-row floor.
func NewEstimator(opts ...EstimatorOption) *Estimator {
	e := &Estimator{minUsable: 20}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate fits the log-log regression. Rows with nonpositive price or
// demand are excluded before the log transform; the exclusion count is
// reported rather than hidden. A non-negative coefficient is flagged
// anomalous, never silently trusted.
func (e *Estimator) Estimate(ctx context.Context, obs []models.HistoricalObservation) (*models.ElasticityEstimate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows     [][]float64
		y        []float64
		excluded int
	)
	for _, o := range obs {
		d := demandOf(o)
		if o.Price <= 0 || d <= 0 {
			excluded++
			continue
		}
		dowSin, dowCos := util.CyclicalEncode(o.DayOfWeek(), 7)
		monSin, monCos := util.CyclicalEncode(int(o.Date.Month())-1, 12)
		holiday := 0.0
		if o.IsHoliday {
			holiday = 1
		}
		rows = append(rows, []float64{math.Log(o.Price), dowSin, dowCos, monSin, monCos, holiday})
		y = append(y, math.Log(d))
	}
	if len(rows) < e.minUsable {
		return nil, &InsufficientDataError{Op: "elasticity fit", Needed: e.minUsable, Got: len(rows)}
	}

	fit, err := olsFit(rows, y)
	if err != nil {
		return nil, err
	}

	// coefficient index 1: the log-price term (0 is the intercept)
	coef := fit.Coefs[1]
	se := fit.StdErrs[1]
	tq := tQuantile(0.975, float64(fit.DF))

	return &models.ElasticityEstimate{
		Coefficient:  coef,
		CILower:      coef - tq*se,
		CIUpper:      coef + tq*se,
		RSquared:     fit.RSquared,
		SampleSize:   len(rows),
		ExcludedRows: excluded,
		Anomalous:    coef >= 0,
		FittedAt:     time.Now().UTC(),
	}, nil
}

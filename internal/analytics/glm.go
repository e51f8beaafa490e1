package analytics

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"RateCast/internal/domain/models"
	"RateCast/pkg/util"
)

// DemandModel fits a count regression (Poisson or negative-binomial)
// of bookings on calendar, weather, and price features via iteratively
// reweighted least squares.
type DemandModel struct {
	minObs           int
	maxIterations    int
	tolerance        float64
	dispersionCutoff float64
}

// DemandOption configures DemandModel.
type DemandOption func(*DemandModel)

// WithMaxIterations bounds the IRLS loop.
func WithMaxIterations(n int) DemandOption {
	return func(d *DemandModel) {
		if n > 0 {
			d.maxIterations = n
		}
	}
}

// WithDispersionCutoff sets the Pearson-dispersion level above which
// the negative-binomial family replaces Poisson.
func WithDispersionCutoff(v float64) DemandOption {
	return func(d *DemandModel) {
		if v > 0 {
			d.dispersionCutoff = v
		}
	}
}

// WithDemandMinObservations sets the fit's sample-size floor.
func WithDemandMinObservations(n int) DemandOption {
	return func(d *DemandModel) {
		if n > 0 {
			d.minObs = n
		}
	}
}

// NewDemandModel creates a fitter with the defaults: 30 observations,
// 50 iterations, 1e-8 relative deviance tolerance, dispersion cutoff 1.5.
func NewDemandModel(opts ...DemandOption) *DemandModel {
	d := &DemandModel{minObs: 30, maxIterations: 50, tolerance: 1e-8, dispersionCutoff: 1.5}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// demandFeatureNames is the fixed feature order the snapshot stores.
var demandFeatureNames = []string{
	featLogPrice, featDowSin, featDowCos, featMonthSin, featMonthCos,
	featHoliday, featWeatherQuality,
}

// Fit runs a provisional Poisson fit, tests over-dispersion on its
// residuals, and refits under the negative-binomial family when the
// sample variance substantially exceeds the mean. The context deadline
// aborts the IRLS loop with a ModelFitError.
func (d *DemandModel) Fit(ctx context.Context, obs []models.HistoricalObservation) (*models.DemandModelSnapshot, error) {
	usable := make([]models.HistoricalObservation, 0, len(obs))
	for _, o := range obs {
		if o.Price > 0 && demandOf(o) >= 0 {
			usable = append(usable, o)
		}
	}
	if len(usable) < d.minObs {
		return nil, &InsufficientDataError{Op: "demand fit", Needed: d.minObs, Got: len(usable)}
	}

	rows := make([][]float64, len(usable))
	y := make([]float64, len(usable))
	for i, o := range usable {
		rows[i] = demandFeatureRow(o)
		y[i] = math.Round(demandOf(o))
	}

	// Fit on the independent columns only. A constant or collinear
	// feature (every row a holiday, a window inside two calendar
	// months) otherwise leaves the weighted solve without a unique
	// answer; its coefficient comes back as zero in the snapshot.
	kept := independentColumns(rows)
	fitRows := reduceColumns(rows, kept)

	coefs, dev, iters, err := d.irls(ctx, fitRows, y, 0)
	if err != nil {
		return nil, err
	}

	dispersion := pearsonDispersion(fitRows, y, coefs, 0)
	family := models.FamilyPoisson
	theta := 0.0
	if dispersion > d.dispersionCutoff {
		family = models.FamilyNegBinom
		theta = momentTheta(fitRows, y, coefs)
		nbCoefs, nbDev, nbIters, nbErr := d.irls(ctx, fitRows, y, theta)
		if nbErr != nil {
			return nil, nbErr
		}
		coefs, dev, iters = nbCoefs, nbDev, nbIters
		dispersion = pearsonDispersion(fitRows, y, coefs, theta)
	}
	full := expandCoefs(coefs, kept, len(rows[0])+1)

	return &models.DemandModelSnapshot{
		Version:      uuid.NewString(),
		Family:       family,
		Features:     append([]string(nil), demandFeatureNames...),
		Coefficients: full[1:],
		Intercept:    full[0],
		Dispersion:   dispersion,
		Theta:        theta,
		Deviance:     dev,
		Iterations:   iters,
		SampleSize:   len(usable),
		FittedAt:     time.Now().UTC(),
	}, nil
}

// irls runs iteratively reweighted least squares for a log-link count
// model. theta == 0 selects Poisson weights; theta > 0 selects
// negative-binomial weights with fixed size parameter.
func (d *DemandModel) irls(ctx context.Context, rows [][]float64, y []float64, theta float64) (coefs []float64, deviance float64, iters int, err error) {
	n := len(rows)
	p := len(rows[0]) + 1

	beta := make([]float64, p)
	beta[0] = math.Log(mean(y) + 0.5)

	eta := make([]float64, n)
	mu := make([]float64, n)
	w := make([]float64, n)
	z := make([]float64, n)

	prevDev := math.Inf(1)
	for iter := 1; iter <= d.maxIterations; iter++ {
		if cerr := ctx.Err(); cerr != nil {
			return nil, 0, iter, &ModelFitError{Iterations: iter, Reason: "fit deadline exceeded", Err: cerr}
		}

		for i := 0; i < n; i++ {
			e := beta[0]
			for j, v := range rows[i] {
				e += beta[j+1] * v
			}
			// keep the exponent in a sane range
			if e > 30 {
				e = 30
			}
			if e < -30 {
				e = -30
			}
			eta[i] = e
			mu[i] = math.Exp(e)
			if theta > 0 {
				w[i] = mu[i] / (1 + mu[i]/theta)
			} else {
				w[i] = mu[i]
			}
			z[i] = eta[i] + (y[i]-mu[i])/mu[i]
		}

		xtwx := make([][]float64, p)
		for i := range xtwx {
			xtwx[i] = make([]float64, p)
		}
		xtwz := make([]float64, p)
		xrow := make([]float64, p)
		for r := 0; r < n; r++ {
			xrow[0] = 1
			copy(xrow[1:], rows[r])
			for i := 0; i < p; i++ {
				xtwz[i] += w[r] * xrow[i] * z[r]
				for j := i; j < p; j++ {
					xtwx[i][j] += w[r] * xrow[i] * xrow[j]
				}
			}
		}
		for i := 0; i < p; i++ {
			for j := 0; j < i; j++ {
				xtwx[i][j] = xtwx[j][i]
			}
			// small ridge guards against ill conditioning when the
			// working weights shrink a column toward zero mid-iteration
			xtwx[i][i] += 1e-8
		}

		next, serr := solveLinear(xtwx, xtwz)
		if serr != nil {
			return nil, 0, iter, &ModelFitError{Iterations: iter, Reason: "weighted normal equations singular", Err: serr}
		}
		beta = next

		dev := poissonDeviance(rows, y, beta)
		if math.IsNaN(dev) || math.IsInf(dev, 0) {
			return nil, 0, iter, &ModelFitError{Iterations: iter, Reason: "deviance diverged"}
		}
		if math.Abs(prevDev-dev) <= d.tolerance*(math.Abs(dev)+1) {
			return beta, dev, iter, nil
		}
		prevDev = dev
	}
	return nil, 0, d.maxIterations, &ModelFitError{Iterations: d.maxIterations, Reason: "no convergence within iteration bound"}
}

func poissonDeviance(rows [][]float64, y, beta []float64) float64 {
	var dev float64
	for i := range rows {
		e := beta[0]
		for j, v := range rows[i] {
			e += beta[j+1] * v
		}
		if e > 30 {
			e = 30
		}
		mu := math.Exp(e)
		if y[i] > 0 {
			dev += 2 * (y[i]*math.Log(y[i]/mu) - (y[i] - mu))
		} else {
			dev += 2 * mu
		}
	}
	return dev
}

// pearsonDispersion is the Pearson chi-square over residual degrees of
// freedom; values well above 1 indicate over-dispersion.
func pearsonDispersion(rows [][]float64, y, coefs []float64, theta float64) float64 {
	n := len(rows)
	p := len(coefs)
	if n <= p {
		return 0
	}
	var chi2 float64
	for i := range rows {
		e := coefs[0]
		for j, v := range rows[i] {
			e += coefs[j+1] * v
		}
		if e > 30 {
			e = 30
		}
		mu := math.Exp(e)
		varY := mu
		if theta > 0 {
			varY = mu + mu*mu/theta
		}
		if varY <= 0 {
			continue
		}
		r := y[i] - mu
		chi2 += r * r / varY
	}
	return chi2 / float64(n-p)
}

// momentTheta estimates the negative-binomial size parameter by the
// method of moments on the provisional Poisson fit.
func momentTheta(rows [][]float64, y, coefs []float64) float64 {
	var num, den float64
	for i := range rows {
		e := coefs[0]
		for j, v := range rows[i] {
			e += coefs[j+1] * v
		}
		if e > 30 {
			e = 30
		}
		mu := math.Exp(e)
		num += mu * mu
		r := y[i] - mu
		den += r*r - mu
	}
	if den <= 0 {
		// variance does not exceed the mean after all; large theta
		// degenerates to Poisson
		return 1e6
	}
	theta := num / den
	if theta < 0.1 {
		theta = 0.1
	}
	return theta
}

func demandFeatureRow(o models.HistoricalObservation) []float64 {
	dowSin, dowCos := util.CyclicalEncode(o.DayOfWeek(), 7)
	monSin, monCos := util.CyclicalEncode(int(o.Date.Month())-1, 12)
	holiday := 0.0
	if o.IsHoliday {
		holiday = 1
	}
	wq := neutralWeatherQuality
	if o.WeatherQuality != nil {
		wq = *o.WeatherQuality
	}
	return []float64{
		math.Log(o.Price), dowSin, dowCos, monSin, monCos,
		holiday, (wq - neutralWeatherQuality) / neutralWeatherQuality,
	}
}

// Predictor evaluates a fitted snapshot at scoring time. Pure function
// of the snapshot and the market context; never retrains inline.
type Predictor struct{}

// NewPredictor creates the scoring-time demand predictor.
func NewPredictor() *Predictor { return &Predictor{} }

// Predict returns expected bookings for the stay date at the candidate
// price, capped at capacity plus overbook limit.
func (Predictor) Predict(s *models.DemandModelSnapshot, mc *models.MarketContext, price float64) float64 {
	if s == nil || price <= 0 {
		return 0
	}
	row := contextFeatureRow(mc, price)
	e := s.Intercept
	for j, v := range row {
		if j >= len(s.Coefficients) {
			break
		}
		e += s.Coefficients[j] * v
	}
	if e > 30 {
		e = 30
	}
	mu := math.Exp(e)
	limit := float64(mc.Capacity + mc.OverbookLimit)
	if limit > 0 && mu > limit {
		mu = limit
	}
	return mu
}

// contextFeatureRow mirrors demandFeatureRow for a live market context.
// The order must match demandFeatureNames.
func contextFeatureRow(mc *models.MarketContext, price float64) []float64 {
	dowSin, dowCos := util.CyclicalEncode(mc.DayOfWeek, 7)
	monSin, monCos := util.CyclicalEncode(int(mc.StayDate.Month())-1, 12)
	holiday := 0.0
	wq := neutralWeatherQuality
	if mc.Weather != nil {
		if mc.Weather.IsHoliday {
			holiday = 1
		}
		if mc.Weather.Quality != nil {
			wq = *mc.Weather.Quality
		}
	}
	return []float64{
		math.Log(price), dowSin, dowCos, monSin, monCos,
		holiday, (wq - neutralWeatherQuality) / neutralWeatherQuality,
	}
}

package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"RateCast/internal/domain/models"
)

// MethodWeights control how the per-method measures combine into the
// composite importance score. Zero-valued weights fall back to equal
// weighting across available methods.
type MethodWeights struct {
	Pearson    float64
	Spearman   float64
	MutualInfo float64
	Anova      float64
}

// Analyzer computes multi-method feature importance against a target.
// Pure: no side effects over the input observations.
type Analyzer struct {
	minObs  int
	bins    int
	alpha   float64
	weights MethodWeights
}

// AnalyzerOption configures Analyzer.
type AnalyzerOption func(*Analyzer)

// WithMinObservations sets the minimum sample size.
func WithMinObservations(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.minObs = n
		}
	}
}

// WithMethodWeights sets the composite weighting.
func WithMethodWeights(w MethodWeights) AnalyzerOption {
	return func(a *Analyzer) { a.weights = w }
}

// WithBins sets the mutual-information bin count.
func WithBins(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n >= 2 {
			a.bins = n
		}
	}
}

// NewAnalyzer creates an importance analyzer with spec defaults:
// 30-observation floor, 8 MI bins, 0.05 significance level, equal
// method weights.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{minObs: 30, bins: 8, alpha: 0.05}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze ranks every candidate feature against the target. The
// ranking is deterministic for identical input: descending importance
// with an alphabetical tie-break on feature name. Derived calendar
// columns that come out constant are left out of the ranking; a
// constant target or measured column is an error.
func (a *Analyzer) Analyze(ctx context.Context, obs []models.HistoricalObservation, target string) (*models.FeatureImportanceReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(obs) < a.minObs {
		return nil, &InsufficientDataError{Op: "importance analysis", Needed: a.minObs, Got: len(obs)}
	}
	m, err := buildMatrix(obs, target)
	if err != nil {
		return nil, err
	}
	if variance(m.target.values) == 0 {
		return nil, &ConstantFeatureError{Feature: m.target.name}
	}

	scores := make([]models.FeatureScore, 0, len(m.numeric)+len(m.categorical))

	for _, col := range m.numeric {
		if variance(col.values) == 0 {
			if col.derived {
				continue
			}
			return nil, &ConstantFeatureError{Feature: col.name}
		}
		fs := models.FeatureScore{Feature: col.name}

		r := pearson(col.values, m.target.values)
		rp := corrPValue(r, m.n)
		fs.Pearson, fs.PearsonP = ptr(r), ptr(rp)

		rho := spearman(col.values, m.target.values)
		rhop := corrPValue(rho, m.n)
		fs.Spearman, fs.SpearmanP = ptr(rho), ptr(rhop)

		nmi := normalizedMI(col.values, m.target.values, a.bins)
		fs.MutualInfo = ptr(nmi)

		fs.Importance = a.combine([]measure{
			{a.weights.Pearson, math.Abs(r)},
			{a.weights.Spearman, math.Abs(rho)},
			{a.weights.MutualInfo, nmi},
		})
		fs.LowConfidence = rp > a.alpha && rhop > a.alpha
		scores = append(scores, fs)
	}

	for _, col := range m.categorical {
		if distinct(col.values) < 2 {
			if col.derived {
				continue
			}
			return nil, &ConstantFeatureError{Feature: col.name}
		}
		fs := models.FeatureScore{Feature: col.name}

		f, d1, d2, err := anovaF(m.target.values, col.values)
		if err != nil {
			return nil, err
		}
		fp := fPValue(f, d1, d2)
		fs.AnovaF, fs.AnovaP = ptr(f), ptr(fp)

		codes := categoryCodes(col.values)
		nmi := normalizedMI(codes, m.target.values, a.bins)
		fs.MutualInfo = ptr(nmi)

		normF := f / (1 + f)
		if math.IsInf(f, 1) {
			normF = 1
		}
		fs.Importance = a.combine([]measure{
			{a.weights.Anova, normF},
			{a.weights.MutualInfo, nmi},
		})
		fs.LowConfidence = fp > a.alpha
		scores = append(scores, fs)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Importance != scores[j].Importance {
			return scores[i].Importance > scores[j].Importance
		}
		return scores[i].Feature < scores[j].Feature
	})

	return &models.FeatureImportanceReport{
		Target:      target,
		Scores:      scores,
		SampleSize:  m.n,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Correlations computes the pairwise Pearson matrix over all numeric
// columns plus the price and demand targets.
func (a *Analyzer) Correlations(ctx context.Context, obs []models.HistoricalObservation) (*models.CorrelationMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(obs) < a.minObs {
		return nil, &InsufficientDataError{Op: "correlation matrix", Needed: a.minObs, Got: len(obs)}
	}
	m, err := buildMatrix(obs, TargetDemand)
	if err != nil {
		return nil, err
	}

	cols := append([]numericColumn{m.target}, m.numeric...)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	vals := make([][]float64, len(cols))
	for i := range cols {
		vals[i] = make([]float64, len(cols))
		for j := range cols {
			if i == j {
				vals[i][j] = 1
				continue
			}
			vals[i][j] = pearson(cols[i].values, cols[j].values)
		}
	}
	return &models.CorrelationMatrix{
		Columns:     names,
		Values:      vals,
		SampleSize:  m.n,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

type measure struct {
	weight float64
	value  float64
}

// combine takes a normalized weighted average over the available
// measures; all-zero weights mean equal weighting.
func (a *Analyzer) combine(ms []measure) float64 {
	var wsum, acc float64
	for _, m := range ms {
		wsum += m.weight
	}
	if wsum == 0 {
		for i := range ms {
			ms[i].weight = 1
		}
		wsum = float64(len(ms))
	}
	for _, m := range ms {
		acc += m.weight * m.value
	}
	v := acc / wsum
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}

func distinct(vs []string) int {
	seen := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// categoryCodes maps category labels to stable numeric codes
// (alphabetical order) for the MI estimate.
func categoryCodes(vs []string) []float64 {
	uniq := make([]string, 0)
	seen := make(map[string]struct{})
	for _, v := range vs {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			uniq = append(uniq, v)
		}
	}
	sort.Strings(uniq)
	code := make(map[string]float64, len(uniq))
	for i, u := range uniq {
		code[u] = float64(i)
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = code[v]
	}
	return out
}

func ptr(v float64) *float64 { return &v }

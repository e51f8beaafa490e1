package models

import "time"

// FeatureScore holds the per-method correlation measures and the
// combined importance score for one candidate feature.
type FeatureScore struct {
	Feature       string   `json:"feature"`
	Pearson       *float64 `json:"pearson,omitempty"`
	PearsonP      *float64 `json:"pearson_p,omitempty"`
	Spearman      *float64 `json:"spearman,omitempty"`
	SpearmanP     *float64 `json:"spearman_p,omitempty"`
	MutualInfo    *float64 `json:"mutual_info,omitempty"`
	AnovaF        *float64 `json:"anova_f,omitempty"`
	AnovaP        *float64 `json:"anova_p,omitempty"`
	Importance    float64  `json:"importance"` // 0..1 composite
	LowConfidence bool     `json:"low_confidence"`
}

// FeatureImportanceReport ranks candidate features against a target.
// Ranking is deterministic: descending importance, alphabetical
// tie-break on feature name.
type FeatureImportanceReport struct {
	Target      string         `json:"target"`
	Scores      []FeatureScore `json:"scores"` // ranked
	SampleSize  int            `json:"sample_size"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// CorrelationMatrix is the pairwise Pearson matrix over all numeric
// columns, an operator-facing offline analysis output.
type CorrelationMatrix struct {
	Columns     []string    `json:"columns"`
	Values      [][]float64 `json:"values"`
	SampleSize  int         `json:"sample_size"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// ElasticityEstimate is the fitted price elasticity of demand.
// Coefficient is typically negative; a non-negative value is flagged
// Anomalous rather than silently trusted.
type ElasticityEstimate struct {
	Coefficient  float64   `json:"coefficient"` // demand % change per 1% price change
	CILower      float64   `json:"ci_lower"`
	CIUpper      float64   `json:"ci_upper"`
	RSquared     float64   `json:"r_squared"`
	SampleSize   int       `json:"sample_size"`
	ExcludedRows int       `json:"excluded_rows"` // dropped nonpositive demand/price
	Anomalous    bool      `json:"anomalous"`
	FittedAt     time.Time `json:"fitted_at"`
}

// DemandFamily tags the count-regression family chosen by the
// over-dispersion test.
type DemandFamily string

const (
	FamilyPoisson  DemandFamily = "poisson"
	FamilyNegBinom DemandFamily = "negative_binomial"
)

// DemandModelSnapshot holds fitted count-regression parameters.
// Opaque and versioned; the scoring path loads exactly one snapshot at
// a time and never mutates it.
type DemandModelSnapshot struct {
	Version      string       `json:"version"`
	Family       DemandFamily `json:"family"`
	Features     []string     `json:"features"` // order matches Coefficients[1:]
	Coefficients []float64    `json:"coefficients"`
	Intercept    float64      `json:"intercept"`
	Dispersion   float64      `json:"dispersion"`
	Theta        float64      `json:"theta,omitempty"` // NB size parameter
	Deviance     float64      `json:"deviance"`
	Iterations   int          `json:"iterations"`
	SampleSize   int          `json:"sample_size"`
	FittedAt     time.Time    `json:"fitted_at"`
}

// ArtifactSet bundles the precomputed artifacts the live scoring path
// reads. The whole set is swapped atomically after a successful refit;
// individual fields may be nil when that fit has never succeeded.
type ArtifactSet struct {
	Importance   *FeatureImportanceReport
	Correlations *CorrelationMatrix
	Elasticity   *ElasticityEstimate
	Demand       *DemandModelSnapshot
	RefittedAt   time.Time
}

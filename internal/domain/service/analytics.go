package service

import (
	"context"

	"RateCast/internal/domain/models"
)

// ImportanceAnalyzer ranks candidate features against a target column.
type ImportanceAnalyzer interface {
	Analyze(ctx context.Context, obs []models.HistoricalObservation, target string) (*models.FeatureImportanceReport, error)
	Correlations(ctx context.Context, obs []models.HistoricalObservation) (*models.CorrelationMatrix, error)
}

// ElasticityEstimator fits price elasticity of demand from paired
// price/demand series.
type ElasticityEstimator interface {
	Estimate(ctx context.Context, obs []models.HistoricalObservation) (*models.ElasticityEstimate, error)
}

// DemandFitter fits a count-regression demand model offline.
type DemandFitter interface {
	Fit(ctx context.Context, obs []models.HistoricalObservation) (*models.DemandModelSnapshot, error)
}

// DemandPredictor is the pure scoring-time view of a fitted snapshot.
type DemandPredictor interface {
	Predict(snapshot *models.DemandModelSnapshot, mc *models.MarketContext, price float64) float64
}

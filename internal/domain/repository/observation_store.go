package repository

import (
	"context"
	"time"

	"RateCast/internal/domain/models"
)

// ObservationStore provides chronological access to historical booking
// observations for the offline pipeline, and batch writes for the
// ingestion path.
type ObservationStore interface {
	Store(ctx context.Context, o *models.HistoricalObservation) error
	StoreBatch(ctx context.Context, obs []*models.HistoricalObservation) error
	Window(ctx context.Context, propertyID string, from, to time.Time) ([]models.HistoricalObservation, error)
	LatestN(ctx context.Context, propertyID string, n int) ([]models.HistoricalObservation, error)
	Health(ctx context.Context) error
	Close() error
}

// ArtifactStore persists fitted artifacts so a restart resumes from
// the last good snapshot instead of an empty one.
type ArtifactStore interface {
	SaveArtifacts(ctx context.Context, propertyID string, set *models.ArtifactSet) error
	LoadLatest(ctx context.Context, propertyID string) (*models.ArtifactSet, error)
}

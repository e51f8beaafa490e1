package repository

import (
	"context"

	"RateCast/internal/domain/models"
)

// RateStream is a live feed of competitor rate observations.
type RateStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.RatePoint, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher publishes booking observations to the ingestion topic.
type Publisher interface {
	Publish(ctx context.Context, o *models.HistoricalObservation) error
	PublishBatch(ctx context.Context, obs []*models.HistoricalObservation) error
	Close() error
}

// Metrics records operational metrics for the pricing engine.
type Metrics interface {
	RecordQuote(propertyID string, price float64)
	RecordClamp(direction string)
	RecordFit(artifact string, seconds float64)
	RecordFitFailure(artifact string)
	RecordSnapshotAge(seconds float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordObservationStored(source string)
}

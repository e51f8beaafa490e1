package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateCast/internal/domain/models"
)

type capturingPublisher struct {
	published []*models.HistoricalObservation
	closed    bool
}

func (p *capturingPublisher) Publish(_ context.Context, o *models.HistoricalObservation) error {
	p.published = append(p.published, o)
	return nil
}

func (p *capturingPublisher) PublishBatch(_ context.Context, obs []*models.HistoricalObservation) error {
	p.published = append(p.published, obs...)
	return nil
}

func (p *capturingPublisher) Close() error {
	p.closed = true
	return nil
}

func sampleObservation() *models.HistoricalObservation {
	return &models.HistoricalObservation{
		PropertyID:    "prop-1",
		Date:          time.Date(2026, time.July, 18, 0, 0, 0, 0, time.UTC),
		Price:         120,
		OccupancyRate: 0.8,
		Bookings:      16,
		Capacity:      20,
	}
}

func TestProcessRoutesToKafkaBackend(t *testing.T) {
	pub := &capturingPublisher{}
	store := &capturingObsStore{}
	p := NewObservationProcessor(pub, store, nopMetrics{}, "kafka", 100, time.Second)

	require.NoError(t, p.Process(context.Background(), sampleObservation()))
	assert.Len(t, pub.published, 1)
	assert.Empty(t, store.stored)
}

func TestProcessRoutesToClickHouseBackend(t *testing.T) {
	pub := &capturingPublisher{}
	store := &capturingObsStore{}
	p := NewObservationProcessor(pub, store, nopMetrics{}, "clickhouse", 100, time.Second)

	require.NoError(t, p.Process(context.Background(), sampleObservation()))
	assert.Empty(t, pub.published)
	assert.Len(t, store.stored, 1)
}

func TestProcessBatchRoutesByBackend(t *testing.T) {
	pub := &capturingPublisher{}
	store := &capturingObsStore{}
	p := NewObservationProcessor(pub, store, nopMetrics{}, "kafka", 100, time.Second)

	batch := []*models.HistoricalObservation{sampleObservation(), sampleObservation()}
	require.NoError(t, p.ProcessBatch(context.Background(), batch))
	assert.Len(t, pub.published, 2)

	require.NoError(t, p.ProcessBatch(context.Background(), nil))
	assert.Len(t, pub.published, 2)
}

func TestProcessRejectsUnknownBackend(t *testing.T) {
	p := NewObservationProcessor(&capturingPublisher{}, &capturingObsStore{}, nopMetrics{}, "sqs", 100, time.Second)

	assert.ErrorContains(t, p.Process(context.Background(), sampleObservation()), "unknown backend")
	assert.ErrorContains(t, p.ProcessBatch(context.Background(),
		[]*models.HistoricalObservation{sampleObservation()}), "unknown backend")
}

func TestProcessNilObservation(t *testing.T) {
	p := NewObservationProcessor(&capturingPublisher{}, &capturingObsStore{}, nopMetrics{}, "kafka", 100, time.Second)
	assert.ErrorContains(t, p.Process(context.Background(), nil), "observation is nil")
}

func TestProcessorCloseClosesBothEnds(t *testing.T) {
	pub := &capturingPublisher{}
	p := NewObservationProcessor(pub, &capturingObsStore{}, nopMetrics{}, "kafka", 100, time.Second)
	p.Close()
	assert.True(t, pub.closed)
}

package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateCast/internal/domain/models"
)

type nopMetrics struct{}

func (nopMetrics) RecordQuote(string, float64)    {}
func (nopMetrics) RecordClamp(string)             {}
func (nopMetrics) RecordFit(string, float64)      {}
func (nopMetrics) RecordFitFailure(string)        {}
func (nopMetrics) RecordSnapshotAge(float64)      {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordLatency(string, float64)  {}
func (nopMetrics) RecordObservationStored(string) {}

type recordingSink struct {
	got []*models.RatePoint
	err error
}

func (s *recordingSink) Process(_ context.Context, rp *models.RatePoint) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, rp)
	return nil
}

func point(property string, price float64) *models.RatePoint {
	return &models.RatePoint{
		PropertyID: property,
		Competitor: "comp-1",
		StayDate:   time.Date(2026, time.July, 18, 0, 0, 0, 0, time.UTC),
		Price:      price,
		ObservedAt: time.Now().UTC(),
	}
}

func TestPipelineForwardsValidPoints(t *testing.T) {
	sink := &recordingSink{}
	p := NewRealtimePipeline(sink, nopMetrics{})

	require.NoError(t, p.Process(context.Background(), point("prop-1", 120)))
	require.Len(t, sink.got, 1)
	assert.Equal(t, 120.0, sink.got[0].Price)
}

func TestPipelineRejectsInvalidPoints(t *testing.T) {
	sink := &recordingSink{}
	p := NewRealtimePipeline(sink, nopMetrics{})
	ctx := context.Background()

	assert.Error(t, p.Process(ctx, nil))
	assert.Error(t, p.Process(ctx, point("", 120)))
	assert.Error(t, p.Process(ctx, point("prop-1", 0)))

	rp := point("prop-1", 120)
	rp.ObservedAt = time.Time{}
	assert.Error(t, p.Process(ctx, rp))

	assert.Empty(t, sink.got)
}

func TestPipelineAppliesTransform(t *testing.T) {
	sink := &recordingSink{}
	p := NewRealtimePipeline(sink, nopMetrics{}, WithTransform(func(rp *models.RatePoint) *models.RatePoint {
		out := *rp
		out.Price = rp.Price * 2
		return &out
	}))

	require.NoError(t, p.Process(context.Background(), point("prop-1", 50)))
	require.Len(t, sink.got, 1)
	assert.Equal(t, 100.0, sink.got[0].Price)
}

func TestPipelineThrottlesPerProperty(t *testing.T) {
	sink := &recordingSink{}
	p := NewRealtimePipeline(sink, nopMetrics{}, WithMaxRPS(1))
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, point("prop-1", 100)))
	// immediate second point for the same property is dropped, not errored
	require.NoError(t, p.Process(ctx, point("prop-1", 110)))
	// a different property has its own budget
	require.NoError(t, p.Process(ctx, point("prop-2", 120)))

	require.Len(t, sink.got, 2)
	assert.Equal(t, "prop-1", sink.got[0].PropertyID)
	assert.Equal(t, "prop-2", sink.got[1].PropertyID)
}

func TestPipelineBuffersOnDownstreamFailure(t *testing.T) {
	sink := &recordingSink{err: errors.New("window unavailable")}
	p := NewRealtimePipeline(sink, nopMetrics{}, WithBufferSize(4))

	err := p.Process(context.Background(), point("prop-1", 100))
	assert.ErrorContains(t, err, "pipeline downstream")
	assert.Len(t, p.bufCh, 1)
}

package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateCast/internal/domain/models"
)

type capturingObsStore struct {
	fakeObsStore
	stored []*models.HistoricalObservation
}

func (c *capturingObsStore) Store(_ context.Context, o *models.HistoricalObservation) error {
	c.stored = append(c.stored, o)
	return nil
}

func TestBookingsHandlerStoresObservation(t *testing.T) {
	store := &capturingObsStore{}
	h := NewKafkaBookingsHandler("bookings", store, nopMetrics{})

	msg := []byte(`{
		"property_id": "prop-1",
		"date": "2026-07-18",
		"price": 120.5,
		"occupancy_rate": 0.8,
		"bookings": 16,
		"capacity": 20,
		"temperature": 28.5,
		"is_holiday": true
	}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, store.stored, 1)
	o := store.stored[0]
	assert.Equal(t, "prop-1", o.PropertyID)
	assert.Equal(t, time.Date(2026, time.July, 18, 0, 0, 0, 0, time.UTC), o.Date)
	assert.Equal(t, 120.5, o.Price)
	assert.Equal(t, 0.8, o.OccupancyRate)
	assert.Equal(t, 16, o.Bookings)
	assert.Equal(t, 20, o.Capacity)
	require.NotNil(t, o.Temperature)
	assert.Equal(t, 28.5, *o.Temperature)
	assert.Nil(t, o.Precipitation)
	assert.True(t, o.IsHoliday)
}

func TestBookingsHandlerClampsOccupancy(t *testing.T) {
	store := &capturingObsStore{}
	h := NewKafkaBookingsHandler("bookings", store, nopMetrics{})

	msg := []byte(`{"property_id":"p","date":"2026-07-18","price":100,"occupancy_rate":1.4,"capacity":20}`)
	require.NoError(t, h.Handle(context.Background(), msg))
	require.Len(t, store.stored, 1)
	assert.Equal(t, 1.0, store.stored[0].OccupancyRate)
}

func TestBookingsHandlerRejectsBadPayloads(t *testing.T) {
	store := &capturingObsStore{}
	h := NewKafkaBookingsHandler("bookings", store, nopMetrics{})

	assert.Error(t, h.Handle(context.Background(), []byte("{not json")))
	assert.ErrorContains(t,
		h.Handle(context.Background(), []byte(`{"property_id":"p","date":"yesterday","price":100}`)),
		"invalid observation date")
	assert.Empty(t, store.stored)
}

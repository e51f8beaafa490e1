package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	pkgkafka "RateCast/pkg/kafka"
	"RateCast/pkg/util"
)

// KafkaBookingsHandler consumes booking observation messages and
// writes them to the observation store.
type KafkaBookingsHandler struct {
	topic   string
	store   domrepo.ObservationStore
	metrics domrepo.Metrics
}

func NewKafkaBookingsHandler(topic string, store domrepo.ObservationStore, metrics domrepo.Metrics) *KafkaBookingsHandler {
	return &KafkaBookingsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaBookingsHandler) Topic() string { return h.topic }

// incoming message schema:
// {property_id, date, price, occupancy_rate, bookings, capacity,
//  temperature?, precipitation?, weather_quality?, is_holiday}
func (h *KafkaBookingsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		PropertyID     string   `json:"property_id"`
		Date           string   `json:"date"`
		Price          float64  `json:"price"`
		OccupancyRate  float64  `json:"occupancy_rate"`
		Bookings       int      `json:"bookings"`
		Capacity       int      `json:"capacity"`
		Temperature    *float64 `json:"temperature"`
		Precipitation  *float64 `json:"precipitation"`
		WeatherQuality *float64 `json:"weather_quality"`
		IsHoliday      bool     `json:"is_holiday"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	date, ok := util.ParseDate(m.Date)
	if !ok {
		h.metrics.RecordError("consumer_date")
		return fmt.Errorf("invalid observation date %q", m.Date)
	}

	start := time.Now()
	err := h.store.Store(ctx, &models.HistoricalObservation{
		PropertyID:     m.PropertyID,
		Date:           date,
		Price:          m.Price,
		OccupancyRate:  util.Clamp01(m.OccupancyRate),
		Bookings:       m.Bookings,
		Capacity:       m.Capacity,
		Temperature:    m.Temperature,
		Precipitation:  m.Precipitation,
		WeatherQuality: m.WeatherQuality,
		IsHoliday:      m.IsHoliday,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordObservationStored("clickhouse")
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBookingsHandler)(nil)

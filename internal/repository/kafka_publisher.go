package repository

import (
	"context"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	pkgkafka "RateCast/pkg/kafka"
)

// KafkaPublisher implements Publisher for the bookings topic.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, o *models.HistoricalObservation) error {
	return p.producer.Publish(ctx, p.topic, []byte(o.PropertyID), observationPayload(o))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, obs []*models.HistoricalObservation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(obs))
	for i, o := range obs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(o.PropertyID),
			Value: observationPayload(o),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// observationPayload matches the bookings consumer schema.
func observationPayload(o *models.HistoricalObservation) map[string]interface{} {
	m := map[string]interface{}{
		"property_id":    o.PropertyID,
		"date":           o.Date.Format("2006-01-02"),
		"price":          o.Price,
		"occupancy_rate": o.OccupancyRate,
		"bookings":       o.Bookings,
		"capacity":       o.Capacity,
		"is_holiday":     o.IsHoliday,
	}
	if o.Temperature != nil {
		m["temperature"] = *o.Temperature
	}
	if o.Precipitation != nil {
		m["precipitation"] = *o.Precipitation
	}
	if o.WeatherQuality != nil {
		m["weather_quality"] = *o.WeatherQuality
	}
	return m
}

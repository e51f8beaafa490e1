package models

// ObservationPayload is one booking observation submitted over HTTP.
// Same schema as the Kafka bookings feed.
type ObservationPayload struct {
	PropertyID     string   `json:"property_id" validate:"required"`
	Date           string   `json:"date" validate:"required,datetime=2006-01-02"`
	Price          float64  `json:"price" validate:"required,gt=0"`
	OccupancyRate  float64  `json:"occupancy_rate" validate:"gte=0,lte=1"`
	Bookings       int      `json:"bookings" validate:"gte=0"`
	Capacity       int      `json:"capacity" validate:"gte=0"`
	Temperature    *float64 `json:"temperature,omitempty"`
	Precipitation  *float64 `json:"precipitation,omitempty"`
	WeatherQuality *float64 `json:"weather_quality,omitempty" validate:"omitempty,gte=0,lte=100"`
	IsHoliday      bool     `json:"is_holiday"`
}

// ObservationIngestRequest wraps a batch of observations for the
// ingest endpoint.
type ObservationIngestRequest struct {
	Observations []ObservationPayload `json:"observations" validate:"required,min=1,max=1000,dive"`
}

package models

import "time"

// HistoricalObservation is one stay-date of realized booking data.
// Immutable once recorded; owned by the offline pipeline and never
// mutated by the scoring path.
type HistoricalObservation struct {
	PropertyID     string
	Date           time.Time
	Price          float64
	OccupancyRate  float64 // 0..1
	Bookings       int
	Capacity       int
	Temperature    *float64
	Precipitation  *float64
	WeatherQuality *float64 // 0..100
	IsHoliday      bool
}

// DayOfWeek returns 0..6 with Sunday = 0.
func (o HistoricalObservation) DayOfWeek() int {
	return int(o.Date.Weekday())
}

// RatePoint is a single competitor price observation from the rate
// shopper stream.
type RatePoint struct {
	PropertyID string
	Competitor string
	StayDate   time.Time
	Price      float64
	ObservedAt time.Time
}

// CompetitorPercentiles are the market anchor points derived from
// competitor rate observations for one stay date.
type CompetitorPercentiles struct {
	P10 float64
	P50 float64
	P90 float64
	N   int
	At  time.Time
}

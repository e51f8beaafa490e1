package models

import "time"

// ConfBand is the uncertainty range around the recommended price.
type ConfBand struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ExpectedOccupancy holds current and end-of-booking-window occupancy
// expectations as 0..1 rates.
type ExpectedOccupancy struct {
	Now         float64 `json:"occ_now"`
	EndOfWindow float64 `json:"occ_end_bucket"`
}

// SafetyRecord is the diagnostic trail attached to every quote.
type SafetyRecord struct {
	BasePriceUsed  float64 `json:"base_price_used"`
	BaseFallback   bool    `json:"base_fallback"`
	OccupancyRate  float64 `json:"occupancy_rate"`
	LeadDays       int     `json:"lead_days"`
	Season         Season  `json:"season"`
	DayOfWeek      int     `json:"day_of_week"`
	Clamped        bool    `json:"clamped"`
	ClampLower     float64 `json:"clamp_lower,omitempty"`
	ClampUpper     float64 `json:"clamp_upper,omitempty"`
	DemandSource   string  `json:"demand_source"` // "model", "elasticity", "rule"
	ModelVersion   string  `json:"model_version,omitempty"`
	Objective      string  `json:"objective"`
}

// PriceRecommendation is the engine's final output. Created once per
// request, immutable, never stored by the engine.
type PriceRecommendation struct {
	QuoteID     string            `json:"quote_id"`
	Price       float64           `json:"price"`
	PriceGrid   []float64         `json:"price_grid"` // ascending
	ConfBand    ConfBand          `json:"conf_band"`
	Expected    ExpectedOccupancy `json:"expected"`
	Reasons     []string          `json:"reasons"`
	Safety      SafetyRecord      `json:"safety"`
	GeneratedAt time.Time         `json:"generated_at"`
}

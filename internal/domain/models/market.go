package models

import "time"

// WeatherSnapshot is contextual weather for the stay date, already
// fetched by an upstream collaborator and consumed read-only here.
type WeatherSnapshot struct {
	Temperature   *float64 `json:"temperature,omitempty"`
	Precipitation *float64 `json:"precipitation,omitempty"`
	Quality       *float64 `json:"quality,omitempty"` // 0..100
	IsHoliday     bool     `json:"is_holiday"`
}

// Toggles enable or disable individual scoring factors per request.
type Toggles struct {
	Aggressive       bool `json:"aggressive"`
	Conservative     bool `json:"conservative"`
	UseML            bool `json:"use_ml"`
	UseCompetitors   bool `json:"use_competitors"`
	ApplySeasonality bool `json:"apply_seasonality"`
}

// DefaultToggles returns the default factor switches: ML scoring,
// competitor anchoring, and seasonality on; stance modifiers off.
func DefaultToggles() Toggles {
	return Toggles{UseML: true, UseCompetitors: true, ApplySeasonality: true}
}

// ToggleSpec is the request-boundary form of Toggles. Pointers
// distinguish an omitted toggle (use the default) from an explicit
// false.
type ToggleSpec struct {
	Aggressive       *bool `json:"aggressive,omitempty"`
	Conservative     *bool `json:"conservative,omitempty"`
	UseML            *bool `json:"use_ml,omitempty"`
	UseCompetitors   *bool `json:"use_competitors,omitempty"`
	ApplySeasonality *bool `json:"apply_seasonality,omitempty"`
}

// Resolve merges the spec over the defaults.
func (s *ToggleSpec) Resolve() Toggles {
	t := DefaultToggles()
	if s == nil {
		return t
	}
	if s.Aggressive != nil {
		t.Aggressive = *s.Aggressive
	}
	if s.Conservative != nil {
		t.Conservative = *s.Conservative
	}
	if s.UseML != nil {
		t.UseML = *s.UseML
	}
	if s.UseCompetitors != nil {
		t.UseCompetitors = *s.UseCompetitors
	}
	if s.ApplySeasonality != nil {
		t.ApplySeasonality = *s.ApplySeasonality
	}
	return t
}

// MarketContext is the per-request pricing context. Constructed fresh
// for every quote and never persisted by the engine.
type MarketContext struct {
	StayDate      time.Time
	QuoteTime     time.Time
	LeadDays      int
	LengthOfStay  int
	Season        Season
	DayOfWeek     int // 0 = Sunday .. 6 = Saturday
	OccupancyRate float64

	Capacity      int
	Remaining     int
	OverbookLimit int

	CompetitorP10 *float64
	CompetitorP50 *float64
	CompetitorP90 *float64

	Weather *WeatherSnapshot
	Toggles Toggles
}

// HasCompetitorData reports whether the market anchor percentiles are
// usable.
func (c *MarketContext) HasCompetitorData() bool {
	return c.CompetitorP50 != nil && *c.CompetitorP50 > 0
}

// HasBounds reports whether both clamp anchors are present.
func (c *MarketContext) HasBounds() bool {
	return c.CompetitorP10 != nil && c.CompetitorP90 != nil &&
		*c.CompetitorP10 > 0 && *c.CompetitorP90 > 0
}

// IsWeekend reports Friday or Saturday stay nights.
func (c *MarketContext) IsWeekend() bool {
	return c.DayOfWeek == 5 || c.DayOfWeek == 6
}

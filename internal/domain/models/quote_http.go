package models

// Requests for pricing HTTP endpoints. Defined in domain for consistency and reuse.

type EntityRef struct {
	OwnerID    string `json:"owner_id"`
	PropertyID string `json:"property_id"`
}

type ProductSpec struct {
	Type         string `json:"type" default:"standard"`
	Refundable   bool   `json:"refundable"`
	LengthOfStay int    `json:"length_of_stay" default:"1" validate:"gte=1,lte=365"`
}

type InventorySpec struct {
	Capacity      int `json:"capacity" validate:"required,gte=1"`
	Remaining     int `json:"remaining" validate:"gte=0"`
	OverbookLimit int `json:"overbook_limit" validate:"gte=0"`
}

type MarketSpec struct {
	CompetitorP10 *float64 `json:"competitor_p10,omitempty" validate:"omitempty,gt=0"`
	CompetitorP50 *float64 `json:"competitor_p50,omitempty" validate:"omitempty,gt=0"`
	CompetitorP90 *float64 `json:"competitor_p90,omitempty" validate:"omitempty,gt=0"`
}

type ContextSpec struct {
	Season    string           `json:"season" validate:"omitempty,oneof=winter spring summer autumn"`
	DayOfWeek *int             `json:"day_of_week,omitempty" validate:"omitempty,gte=0,lte=6"`
	Weather   *WeatherSnapshot `json:"weather,omitempty"`
}

// QuoteRequest is the live scoring payload. StayDate is the only hard
// requirement; everything else has a documented fallback.
type QuoteRequest struct {
	Entity    EntityRef     `json:"entity"`
	StayDate  string        `json:"stay_date" validate:"required,datetime=2006-01-02"`
	QuoteTime string        `json:"quote_time" validate:"omitempty"`
	Product   ProductSpec   `json:"product"`
	Inventory InventorySpec `json:"inventory" validate:"required"`
	Market    *MarketSpec   `json:"market,omitempty"`
	Context   ContextSpec   `json:"context"`
	Toggles   *ToggleSpec   `json:"toggles,omitempty"`
}

type ImportanceRequest struct {
	Target string `query:"target" json:"target" default:"price" validate:"oneof=price demand"`
}

type ElasticityRequest struct{}

type FitErrorsRequest struct {
	N int `query:"n" json:"n" default:"50" validate:"gte=1,lte=500"`
}

type RefitRequest struct {
	PropertyID string `json:"property_id" validate:"required"`
}

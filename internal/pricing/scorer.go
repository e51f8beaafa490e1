package pricing

import (
	"fmt"

	"RateCast/internal/domain/models"
	"RateCast/pkg/config"
)

// ScoreResult is the multi-factor scorer's output: the adjusted price
// plus the rationale trail that produced it.
type ScoreResult struct {
	BasePrice     float64
	BaseFallback  bool
	AdjustedPrice float64
	Reasons       []string
}

// Scorer applies the rule-based multiplicative factors to a base price
// derived from competitor percentiles. Deterministic and stateless;
// every multiplier table comes from configuration.
type Scorer struct {
	cfg config.Pricing
}

// NewScorer creates a scorer over the given factor tables.
func NewScorer(cfg config.Pricing) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score runs the factors in fixed order: seasonal, day-of-week,
// demand, lead-time, length-of-stay, competitor positioning, stance.
// Calendar factors come first so demand responsiveness acts as a
// correction on top of the calendar baseline, not the reverse.
func (s *Scorer) Score(mc *models.MarketContext) ScoreResult {
	res := ScoreResult{}

	base := s.cfg.FallbackBasePrice
	switch {
	case !mc.Toggles.UseCompetitors:
		res.BaseFallback = true
		res.Reasons = append(res.Reasons,
			fmt.Sprintf("Competitor anchoring disabled; using configured base price %.2f", base))
	case !mc.HasCompetitorData():
		res.BaseFallback = true
		res.Reasons = append(res.Reasons,
			fmt.Sprintf("No competitor data available; using configured base price %.2f", base))
	default:
		base = *mc.CompetitorP50
		res.Reasons = append(res.Reasons,
			fmt.Sprintf("Base price anchored to competitor median %.2f", base))
	}
	res.BasePrice = base
	price := base

	if mc.Toggles.ApplySeasonality {
		price = s.applySeason(price, mc.Season, &res.Reasons)
	}
	price = s.applyDayOfWeek(price, mc.DayOfWeek, &res.Reasons)
	price = s.applyDemand(price, mc.OccupancyRate, &res.Reasons)
	price = s.applyLeadTime(price, mc.LeadDays, &res.Reasons)
	price = s.applyLongStay(price, mc.LengthOfStay, &res.Reasons)

	if mc.Toggles.UseCompetitors && mc.HasCompetitorData() {
		price = s.applyPositioning(price, mc, &res.Reasons)
	}

	if mc.Toggles.Aggressive {
		price *= s.cfg.Stance.Aggressive
		res.Reasons = append(res.Reasons, "Aggressive stance premium")
	}
	if mc.Toggles.Conservative {
		price *= s.cfg.Stance.Conservative
		res.Reasons = append(res.Reasons, "Conservative stance discount")
	}

	res.AdjustedPrice = price
	return res
}

func (s *Scorer) applySeason(price float64, season models.Season, reasons *[]string) float64 {
	switch season {
	case models.SeasonSummer:
		*reasons = append(*reasons, "Summer season pricing")
		return price * s.cfg.Season.Summer
	case models.SeasonWinter:
		*reasons = append(*reasons, "Winter low-season discount")
		return price * s.cfg.Season.Winter
	case models.SeasonAutumn:
		*reasons = append(*reasons, "Autumn shoulder-season premium")
		return price * s.cfg.Season.Autumn
	default:
		// spring is the 1.0 baseline
		return price * s.cfg.Season.Spring
	}
}

func (s *Scorer) applyDayOfWeek(price float64, dow int, reasons *[]string) float64 {
	switch dow {
	case 5: // Friday
		*reasons = append(*reasons, "Weekend premium")
		return price * s.cfg.DayOfWeek.Friday
	case 6: // Saturday
		*reasons = append(*reasons, "Weekend premium")
		return price * s.cfg.DayOfWeek.Saturday
	case 0: // Sunday
		*reasons = append(*reasons, "Sunday premium")
		return price * s.cfg.DayOfWeek.Sunday
	default:
		return price
	}
}

func (s *Scorer) applyDemand(price, occupancy float64, reasons *[]string) float64 {
	if occupancy <= 0 {
		return price
	}
	factor := 1 + occupancy*s.cfg.DemandSlope
	*reasons = append(*reasons,
		fmt.Sprintf("Demand premium at %.0f%% occupancy", occupancy*100))
	return price * factor
}

func (s *Scorer) applyLeadTime(price float64, leadDays int, reasons *[]string) float64 {
	switch {
	case leadDays < s.cfg.LeadTime.LastMinuteDays:
		*reasons = append(*reasons, "Last-minute booking premium")
		return price * s.cfg.LeadTime.LastMinuteBump
	case leadDays > s.cfg.LeadTime.FarAdvanceDays:
		*reasons = append(*reasons, "Far-advance booking discount")
		return price * s.cfg.LeadTime.FarAdvanceTrim
	default:
		return price
	}
}

func (s *Scorer) applyLongStay(price float64, nights int, reasons *[]string) float64 {
	switch {
	case nights >= 30:
		*reasons = append(*reasons, "Length-of-stay discount (30+ nights)")
		return price * s.cfg.LongStay.MonthDiscount
	case nights >= 14:
		*reasons = append(*reasons, "Length-of-stay discount (14+ nights)")
		return price * s.cfg.LongStay.Fortnight
	case nights >= 7:
		*reasons = append(*reasons, "Length-of-stay discount (7+ nights)")
		return price * s.cfg.LongStay.WeekDiscount
	default:
		return price
	}
}

func (s *Scorer) applyPositioning(price float64, mc *models.MarketContext, reasons *[]string) float64 {
	p50 := *mc.CompetitorP50
	switch {
	case mc.OccupancyRate >= s.cfg.Positioning.HighThreshold:
		*reasons = append(*reasons,
			fmt.Sprintf("Priced above competitor median %.2f on strong demand", p50))
		return price * s.cfg.Positioning.HighOccupancy
	case mc.OccupancyRate <= s.cfg.Positioning.LowThreshold:
		*reasons = append(*reasons,
			fmt.Sprintf("Priced below competitor median %.2f to stimulate demand", p50))
		return price * s.cfg.Positioning.LowOccupancy
	default:
		return price
	}
}

package analytics

import (
	"fmt"

	"RateCast/internal/domain/models"
	"RateCast/pkg/util"
)

// Candidate feature names shared by the analyzer and the demand model.
// Calendar cycles are encoded as sine/cosine pairs so day-of-week and
// month carry no false ordinal distance.
const (
	featLogPrice       = "log_price"
	featPrice          = "price"
	featOccupancy      = "occupancy_rate"
	featDowSin         = "dow_sin"
	featDowCos         = "dow_cos"
	featMonthSin       = "month_sin"
	featMonthCos       = "month_cos"
	featTemperature    = "temperature"
	featPrecipitation  = "precipitation"
	featWeatherQuality = "weather_quality"
	featHoliday        = "is_holiday"
	featSeason         = "season"
	featDayOfWeek      = "day_of_week"
)

// neutralWeatherQuality substitutes for a missing weather score; 50 is
// the midpoint of the 0..100 scale.
const neutralWeatherQuality = 50.0

// TargetPrice and TargetDemand name the analyzer targets.
const (
	TargetPrice  = "price"
	TargetDemand = "demand"
)

// derived marks columns computed from the stay date and its calendar
// flags rather than measured in the observations. A short window can
// make a derived column constant (no holidays, one season); the
// analyzer drops those instead of failing the run.
type numericColumn struct {
	name    string
	values  []float64
	derived bool
}

type categoricalColumn struct {
	name    string
	values  []string
	derived bool
}

// featureMatrix is the column-oriented input to the analyzer.
type featureMatrix struct {
	n           int
	target      numericColumn
	numeric     []numericColumn
	categorical []categoricalColumn
}

// demandOf derives the demand count for one observation: explicit
// bookings when recorded, otherwise occupancy times capacity.
func demandOf(o models.HistoricalObservation) float64 {
	if o.Bookings > 0 {
		return float64(o.Bookings)
	}
	if o.Capacity > 0 {
		return o.OccupancyRate * float64(o.Capacity)
	}
	return 0
}

// buildMatrix converts observations into a feature matrix for the
// given target. Optional enrichment columns are included only when
// every observation carries them, keeping column lengths aligned.
func buildMatrix(obs []models.HistoricalObservation, target string) (*featureMatrix, error) {
	n := len(obs)
	m := &featureMatrix{n: n}

	tvals := make([]float64, n)
	for i, o := range obs {
		switch target {
		case TargetPrice:
			tvals[i] = o.Price
		case TargetDemand:
			tvals[i] = demandOf(o)
		default:
			return nil, fmt.Errorf("unknown target %q", target)
		}
	}
	m.target = numericColumn{name: target, values: tvals}

	add := func(name string, derived bool, get func(o models.HistoricalObservation) float64) {
		vals := make([]float64, n)
		for i, o := range obs {
			vals[i] = get(o)
		}
		m.numeric = append(m.numeric, numericColumn{name: name, values: vals, derived: derived})
	}

	if target == TargetPrice {
		add(featOccupancy, false, func(o models.HistoricalObservation) float64 { return o.OccupancyRate })
	} else {
		add(featPrice, false, func(o models.HistoricalObservation) float64 { return o.Price })
	}
	add(featDowSin, true, func(o models.HistoricalObservation) float64 {
		s, _ := util.CyclicalEncode(o.DayOfWeek(), 7)
		return s
	})
	add(featDowCos, true, func(o models.HistoricalObservation) float64 {
		_, c := util.CyclicalEncode(o.DayOfWeek(), 7)
		return c
	})
	add(featMonthSin, true, func(o models.HistoricalObservation) float64 {
		s, _ := util.CyclicalEncode(int(o.Date.Month())-1, 12)
		return s
	})
	add(featMonthCos, true, func(o models.HistoricalObservation) float64 {
		_, c := util.CyclicalEncode(int(o.Date.Month())-1, 12)
		return c
	})

	allHave := func(get func(o models.HistoricalObservation) *float64) bool {
		for _, o := range obs {
			if get(o) == nil {
				return false
			}
		}
		return true
	}
	if allHave(func(o models.HistoricalObservation) *float64 { return o.Temperature }) {
		add(featTemperature, false, func(o models.HistoricalObservation) float64 { return *o.Temperature })
	}
	if allHave(func(o models.HistoricalObservation) *float64 { return o.Precipitation }) {
		add(featPrecipitation, false, func(o models.HistoricalObservation) float64 { return *o.Precipitation })
	}
	if allHave(func(o models.HistoricalObservation) *float64 { return o.WeatherQuality }) {
		add(featWeatherQuality, false, func(o models.HistoricalObservation) float64 { return *o.WeatherQuality })
	}

	seasons := make([]string, n)
	holidays := make([]string, n)
	dows := make([]string, n)
	for i, o := range obs {
		seasons[i] = string(models.SeasonOf(o.Date))
		if o.IsHoliday {
			holidays[i] = "holiday"
		} else {
			holidays[i] = "regular"
		}
		dows[i] = o.Date.Weekday().String()
	}
	m.categorical = append(m.categorical,
		categoricalColumn{name: featSeason, values: seasons, derived: true},
		categoricalColumn{name: featHoliday, values: holidays, derived: true},
		categoricalColumn{name: featDayOfWeek, values: dows, derived: true},
	)

	return m, nil
}

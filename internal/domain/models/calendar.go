package models

import "time"

// Season is one of the four canonical pricing buckets.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

// SeasonOf maps a stay date to its canonical season bucket
// (northern-hemisphere meteorological seasons).
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// ParseSeason normalizes a raw season string, falling back to deriving
// it from the stay date when empty or unknown.
func ParseSeason(s string, stayDate time.Time) Season {
	switch Season(s) {
	case SeasonWinter, SeasonSpring, SeasonSummer, SeasonAutumn:
		return Season(s)
	default:
		return SeasonOf(stayDate)
	}
}

// Package forecast reduces the 3-hour sample list to one entry per day.
package forecast

import (
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

// MorningHour is the first hour of day a sample may represent its date.
const MorningHour = 6

// DailyRepresentatives returns, for each calendar date in samples, the first
// sample of that date whose hour is at least MorningHour. Dates keep the order
// in which they first appear. A date with no sample at or after MorningHour
// yields no entry, so a forecast fetched before dawn may start on the next day.
//
// Both the date and the hour are read in loc; pass the place's zone
// (model.City.Location) so that days follow the place's wall clock.
func DailyRepresentatives(samples []model.ForecastSample, loc *time.Location) []model.ForecastSample {
	if loc == nil {
		loc = time.UTC
	}

	var order []string
	picked := make(map[string]model.ForecastSample)
	seen := make(map[string]bool)

	for _, s := range samples {
		ts := s.Time(loc)
		day := ts.Format(time.DateOnly)
		if !seen[day] {
			seen[day] = true
			order = append(order, day)
		}
		if _, ok := picked[day]; ok {
			continue
		}
		if ts.Hour() >= MorningHour {
			picked[day] = s
		}
	}

	out := make([]model.ForecastSample, 0, len(picked))
	for _, day := range order {
		if s, ok := picked[day]; ok {
			out = append(out, s)
		}
	}
	return out
}

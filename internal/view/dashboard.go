// Package view turns the forecast of the selected place into what the
// dashboard shows.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/forecast"
	"github.com/fakhrymubarak/weather-dashboard/internal/icon"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
	"github.com/fakhrymubarak/weather-dashboard/internal/units"
)

const (
	dayNameLayout  = "Monday"
	dateLayout     = "02.01.2006"
	hourLayout     = "3:04 PM"
	cardDateLayout = "02.01"
	sunLayout      = "15:04"
)

// Input is everything the dashboard is built from.
type Input struct {
	Place    string
	Forecast *model.ForecastSet
	FetchErr error
	Loading  bool
	Search   service.SearchView
}

type Dashboard struct {
	Place   string             `json:"place"`
	Loading bool               `json:"loading"`
	Cached  bool               `json:"cached"`
	Error   string             `json:"error,omitempty"`
	Current *Current           `json:"current,omitempty"`
	Hourly  []Hour             `json:"hourly"`
	Daily   []Day              `json:"daily"`
	Search  service.SearchView `json:"search"`
}

// Current is the first sample of the forecast.
type Current struct {
	DayName     string  `json:"dayName"`
	Date        string  `json:"date"`
	Temperature int     `json:"temperature"`
	FeelsLike   int     `json:"feelsLike"`
	TempMin     int     `json:"tempMin"`
	TempMax     int     `json:"tempMax"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	IconURL     string  `json:"iconUrl"`
	Details     Details `json:"details"`
}

type Hour struct {
	Time        string `json:"time"`
	Temperature int    `json:"temperature"`
	Icon        string `json:"icon"`
	IconURL     string `json:"iconUrl"`
}

// Day is one forecast card.
type Day struct {
	Date        string  `json:"date"`
	Weekday     string  `json:"weekday"`
	Temperature int     `json:"temperature"`
	FeelsLike   int     `json:"feelsLike"`
	TempMin     int     `json:"tempMin"`
	TempMax     int     `json:"tempMax"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	IconURL     string  `json:"iconUrl"`
	Details     Details `json:"details"`
}

type Details struct {
	Visibility string `json:"visibility"`
	Pressure   string `json:"pressure"`
	Humidity   string `json:"humidity"`
	WindSpeed  string `json:"windSpeed"`
	Sunrise    string `json:"sunrise"`
	Sunset     string `json:"sunset"`
}

// Build assembles the dashboard. While loading, or without a forecast, only
// the place, the search state and any fetch error are filled in.
func Build(in Input) Dashboard {
	d := Dashboard{
		Place:   in.Place,
		Loading: in.Loading,
		Hourly:  []Hour{},
		Daily:   []Day{},
		Search:  in.Search,
	}
	if in.FetchErr != nil {
		d.Error = in.FetchErr.Error()
	}
	if in.Loading || in.Forecast == nil || len(in.Forecast.List) == 0 {
		return d
	}

	set := in.Forecast
	loc := set.City.Location()
	d.Cached = set.Cached
	if set.City.Name != "" {
		d.Place = set.City.Name
	}

	first := set.List[0]
	t := first.Time(loc)
	code := icon.ForTime(first.PrimaryCondition().Icon, t)
	d.Current = &Current{
		DayName:     t.Format(dayNameLayout),
		Date:        t.Format(dateLayout),
		Temperature: units.KelvinToCelsius(first.Main.Temp),
		FeelsLike:   units.KelvinToCelsius(first.Main.FeelsLike),
		TempMin:     units.KelvinToCelsius(first.Main.TempMin),
		TempMax:     units.KelvinToCelsius(first.Main.TempMax),
		Description: first.PrimaryCondition().Description,
		Icon:        code,
		IconURL:     icon.URL(code),
		Details:     details(first, set.City, loc),
	}

	for _, s := range set.List {
		st := s.Time(loc)
		c := icon.ForTime(s.PrimaryCondition().Icon, st)
		d.Hourly = append(d.Hourly, Hour{
			Time:        st.Format(hourLayout),
			Temperature: units.KelvinToCelsius(s.Main.Temp),
			Icon:        c,
			IconURL:     icon.URL(c),
		})
	}

	for _, s := range forecast.DailyRepresentatives(set.List, loc) {
		st := s.Time(loc)
		c := icon.ForTime(s.PrimaryCondition().Icon, st)
		d.Daily = append(d.Daily, Day{
			Date:        st.Format(cardDateLayout),
			Weekday:     st.Format(dayNameLayout),
			Temperature: units.KelvinToCelsius(s.Main.Temp),
			FeelsLike:   units.KelvinToCelsius(s.Main.FeelsLike),
			TempMin:     units.KelvinToCelsius(s.Main.TempMin),
			TempMax:     units.KelvinToCelsius(s.Main.TempMax),
			Description: s.PrimaryCondition().Description,
			Icon:        c,
			IconURL:     icon.URL(c),
			Details:     details(s, set.City, loc),
		})
	}
	return d
}

func details(s model.ForecastSample, city model.City, loc *time.Location) Details {
	return Details{
		Visibility: units.FormatVisibility(float64(s.Visibility)),
		Pressure:   fmt.Sprintf("%d hPa", s.Main.Pressure),
		Humidity:   fmt.Sprintf("%d%%", s.Main.Humidity),
		WindSpeed:  units.FormatWindSpeed(s.Wind.Speed),
		Sunrise:    clock(city.Sunrise, loc),
		Sunset:     clock(city.Sunset, loc),
	}
}

func clock(unix int64, loc *time.Location) string {
	if unix == 0 {
		return ""
	}
	return time.Unix(unix, 0).In(loc).Format(sunLayout)
}

// Title is the page title for a place.
func Title(place string) string {
	place = strings.TrimSpace(place)
	if place == "" {
		return "Weather"
	}
	return "Weather in " + place
}

package model

import "time"

// ForecastSample is one 3-hour entry of the OpenWeatherMap /forecast list.
type ForecastSample struct {
	Dt         int64       `json:"dt"`
	Main       MainData    `json:"main"`
	Weather    []Condition `json:"weather"`
	Clouds     Clouds      `json:"clouds"`
	Wind       Wind        `json:"wind"`
	Visibility int         `json:"visibility"`
	Pop        float64     `json:"pop"`
	Sys        struct {
		Pod string `json:"pod"`
	} `json:"sys"`
	DtTxt string `json:"dt_txt"`
}

// Time returns the sample timestamp in the given zone.
func (s ForecastSample) Time(loc *time.Location) time.Time {
	return time.Unix(s.Dt, 0).In(loc)
}

// PrimaryCondition returns the first weather condition, or the zero value
// when the API sent none.
func (s ForecastSample) PrimaryCondition() Condition {
	if len(s.Weather) == 0 {
		return Condition{}
	}
	return s.Weather[0]
}

type MainData struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	SeaLevel  int     `json:"sea_level"`
	GrndLevel int     `json:"grnd_level"`
	Humidity  int     `json:"humidity"`
	TempKf    float64 `json:"temp_kf"`
}

type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type Clouds struct {
	All int `json:"all"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
	Gust  float64 `json:"gust"`
}

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// City is the place metadata attached to a forecast response.
type City struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Coord      Coord  `json:"coord"`
	Country    string `json:"country"`
	Population int    `json:"population"`
	Timezone   int    `json:"timezone"` // offset from UTC in seconds
	Sunrise    int64  `json:"sunrise"`
	Sunset     int64  `json:"sunset"`
}

// Location returns the fixed zone of the place. All calendar and hour-of-day
// decisions on its samples are made in this zone.
func (c City) Location() *time.Location {
	if c.Timezone == 0 {
		return time.UTC
	}
	return time.FixedZone(c.Name, c.Timezone)
}

// ForecastSet is the /forecast response for one place. It is replaced
// wholesale on every successful fetch.
type ForecastSet struct {
	Cod     string           `json:"cod"`
	Message int              `json:"message"`
	Cnt     int              `json:"cnt"`
	List    []ForecastSample `json:"list"`
	City    City             `json:"city"`
	Cached  bool             `json:"cached"`
}

// FindResponse is the /find (place search) response.
type FindResponse struct {
	Message string `json:"message"`
	Cod     string `json:"cod"`
	Count   int    `json:"count"`
	List    []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Sys  struct {
			Country string `json:"country"`
		} `json:"sys"`
	} `json:"list"`
}

// CurrentWeatherResponse is the subset of /weather used for reverse lookup.
type CurrentWeatherResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Coord Coord  `json:"coord"`
}

// APIErrorBody is the error document OpenWeatherMap returns on failures.
type APIErrorBody struct {
	Cod     interface{} `json:"cod"`
	Message string      `json:"message"`
}

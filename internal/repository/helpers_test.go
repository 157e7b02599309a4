package repository

import (
	"io"
	"net/http"
	"strings"
)

// RoundTripperFunc allows us to easily mock http.Client responses in tests.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Mock HTTP client
func newMockHTTPClient(fn func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: RoundTripperFunc(fn),
	}
}

func jsonResponse(status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json; charset=utf-8")
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     header,
	}
}

const forecastBody = `{
  "cod": "200",
  "message": 0,
  "cnt": 3,
  "list": [
    {"dt": 1710064800, "main": {"temp": 300.15, "feels_like": 302.1, "temp_min": 299.5, "temp_max": 300.9, "pressure": 1015, "humidity": 70},
     "weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"}],
     "clouds": {"all": 0}, "wind": {"speed": 4.1, "deg": 90, "gust": 5.2}, "visibility": 10000, "pop": 0,
     "sys": {"pod": "d"}, "dt_txt": "2024-03-10 10:00:00"},
    {"dt": 1710075600, "main": {"temp": 301.15, "feels_like": 303.0, "temp_min": 300.5, "temp_max": 301.9, "pressure": 1014, "humidity": 65},
     "weather": [{"id": 801, "main": "Clouds", "description": "few clouds", "icon": "02d"}],
     "clouds": {"all": 20}, "wind": {"speed": 5.0, "deg": 100, "gust": 6.0}, "visibility": 10000, "pop": 0.1,
     "sys": {"pod": "d"}, "dt_txt": "2024-03-10 13:00:00"},
    {"dt": 1710086400, "main": {"temp": 299.15, "feels_like": 300.0, "temp_min": 298.5, "temp_max": 299.9, "pressure": 1014, "humidity": 75},
     "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10n"}],
     "clouds": {"all": 60}, "wind": {"speed": 3.0, "deg": 120, "gust": 4.0}, "visibility": 9000, "pop": 0.4,
     "sys": {"pod": "n"}, "dt_txt": "2024-03-10 16:00:00"}
  ],
  "city": {"id": 3553478, "name": "Havana", "coord": {"lat": 23.133, "lon": -82.383}, "country": "CU",
           "population": 2163824, "timezone": -14400, "sunrise": 1710070000, "sunset": 1710113000}
}`

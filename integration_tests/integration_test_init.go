package integrationtest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/geo"
	"github.com/fakhrymubarak/weather-dashboard/internal/handler"
	"github.com/fakhrymubarak/weather-dashboard/internal/middleware"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

const testAPIKey = "test_api_key"

var (
	miniRedisMock *miniredis.Miniredis
)

// dashboard is the full component graph behind the test server.
type dashboard struct {
	state    *state.Store
	forecast *service.ForecastService
	search   *service.SearchBox
	server   *httptest.Server
}

func createMockRedisServer() {
	miniRedisMock = miniredis.NewMiniRedis()
	err := miniRedisMock.StartAddr(config.GetTestRedisMockPort())
	if err != nil {
		panic(err)
	}
}

func setupIntegrationTestServer(httpClient *http.Client) *dashboard {
	repo := repository.NewWeatherRepository(httpClient)
	st := state.New(config.GetDefaultPlace())
	forecast := service.NewForecastService(repo, st)
	search := service.NewSearchBox(repo, st)
	resolver := geo.NewResolver(repo, st)

	h := handler.NewDashboardHandler(forecast, search, resolver, st, geo.FromConfig())
	forecast.Start(context.Background())

	return &dashboard{
		state:    st,
		forecast: forecast,
		search:   search,
		server:   httptest.NewServer(middleware.RequestLogger(config.GetLogger())(h.Routes())),
	}
}

func (d *dashboard) Close() {
	d.server.Close()
	d.forecast.Stop()
}

// mockOWM stands in for the three OpenWeatherMap endpoints used by the
// dashboard and counts forecast requests.
type mockOWM struct {
	*httptest.Server
	forecastHits atomic.Int32
}

var knownPlaces = map[string]struct{}{
	"Havana": {},
	"London": {},
	"Playa":  {},
}

func mockOWMApi() *mockOWM {
	m := &mockOWM{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("appid") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
			return
		}

		q := r.URL.Query().Get("q")
		switch r.URL.Path {
		case "/forecast":
			m.forecastHits.Add(1)
			if _, ok := knownPlaces[q]; !ok {
				notFound(w)
				return
			}
			_, _ = fmt.Fprint(w, forecastBody(q))
		case "/find":
			switch q {
			case "Lon":
				_, _ = w.Write([]byte(`{"message":"accurate","cod":"200","count":2,"list":[{"id":2643743,"name":"London","sys":{"country":"GB"}},{"id":2643736,"name":"Londonderry","sys":{"country":"GB"}}]}`))
			default:
				_, _ = w.Write([]byte(`{"message":"accurate","cod":"200","count":0,"list":[]}`))
			}
		case "/weather":
			if r.URL.Query().Get("lat") == "" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"cod":"400","message":"Nothing to geocode"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":3544091,"name":"Playa","coord":{"lat":23.1,"lon":-82.4}}`))
		default:
			notFound(w)
		}
	}))
	return m
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
}

// forecastBody is a two-sample forecast for place, in UTC-4, starting
// 2024-01-15 09:00 local time.
func forecastBody(place string) string {
	start := time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC).Unix()
	return fmt.Sprintf(`{
  "cod": "200", "message": 0, "cnt": 2,
  "list": [
    {"dt": %d, "main": {"temp": 300.15, "feels_like": 302.15, "temp_min": 299.15, "temp_max": 301.15, "pressure": 1015, "humidity": 70},
     "weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01n"}],
     "clouds": {"all": 0}, "wind": {"speed": 5, "deg": 90, "gust": 6}, "visibility": 10000, "pop": 0,
     "sys": {"pod": "d"}, "dt_txt": "2024-01-15 13:00:00"},
    {"dt": %d, "main": {"temp": 298.15, "feels_like": 299.15, "temp_min": 298.15, "temp_max": 298.15, "pressure": 1016, "humidity": 75},
     "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
     "clouds": {"all": 40}, "wind": {"speed": 3, "deg": 80, "gust": 4}, "visibility": 9000, "pop": 0.3,
     "sys": {"pod": "d"}, "dt_txt": "2024-01-16 13:00:00"}
  ],
  "city": {"id": 1, "name": %q, "coord": {"lat": 23.13, "lon": -82.38}, "country": "CU",
    "population": 15000, "timezone": -14400, "sunrise": %d, "sunset": %d}
}`, start, start+24*60*60, place, start-2*60*60, start+9*60*60)
}

package integrationtest

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/middleware"
	"github.com/fakhrymubarak/weather-dashboard/internal/redis"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
)

type DashboardTestSuite struct {
	suite.Suite
	owm       *mockOWM
	dashboard *dashboard
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Message string          `json:"message"`
}

type dashboardData struct {
	Place   string `json:"place"`
	Loading bool   `json:"loading"`
	Cached  bool   `json:"cached"`
	Error   string `json:"error"`
	Current *struct {
		DayName     string `json:"dayName"`
		Date        string `json:"date"`
		Temperature int    `json:"temperature"`
		Icon        string `json:"icon"`
		Details     struct {
			WindSpeed string `json:"windSpeed"`
			Sunrise   string `json:"sunrise"`
			Sunset    string `json:"sunset"`
		} `json:"details"`
	} `json:"current"`
	Hourly []struct {
		Time string `json:"time"`
	} `json:"hourly"`
	Daily []struct {
		Date    string `json:"date"`
		Weekday string `json:"weekday"`
	} `json:"daily"`
}

func (s *DashboardTestSuite) SetupSuite() {
	createMockRedisServer()
	s.owm = mockOWMApi()

	s.T().Setenv("OPENWEATHERMAP_API_KEY", testAPIKey)
	viper.Set("redis.addr", miniRedisMock.Addr())
	viper.Set("openweathermap.api_url", s.owm.URL)
	viper.Set("cache.enabled", true)
	config.ReloadConfigForTest()
	redis.ResetClientForTest()

	s.dashboard = setupIntegrationTestServer(s.owm.Client())
	s.waitForPlace("Havana")
}

func (s *DashboardTestSuite) TearDownSuite() {
	if s.dashboard != nil {
		s.dashboard.Close()
	}
	if s.owm != nil {
		s.owm.Close()
	}
	_ = redis.Close()
	redis.ResetClientForTest()
	if miniRedisMock != nil {
		miniRedisMock.Close()
	}
	viper.Set("cache.enabled", false)
}

func TestDashboardTestSuite(t *testing.T) {
	suite.Run(t, new(DashboardTestSuite))
}

func (s *DashboardTestSuite) request(method, path string) (*http.Response, envelope) {
	req, err := http.NewRequest(method, s.dashboard.server.URL+path, nil)
	s.Require().NoError(err)

	resp, err := s.dashboard.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	var env envelope
	s.Require().NoError(json.Unmarshal(body, &env), string(body))
	return resp, env
}

func (s *DashboardTestSuite) getDashboard() dashboardData {
	resp, env := s.request(http.MethodGet, "/api/dashboard")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var d dashboardData
	s.Require().NoError(json.Unmarshal(env.Data, &d))
	return d
}

// waitForPlace waits until the dashboard shows the forecast of place.
func (s *DashboardTestSuite) waitForPlace(place string) dashboardData {
	var d dashboardData
	s.Require().Eventually(func() bool {
		d = s.getDashboard()
		return d.Place == place && !d.Loading && d.Current != nil
	}, 2*time.Second, 10*time.Millisecond)
	return d
}

func (s *DashboardTestSuite) TestDashboardOfDefaultPlace() {
	s.dashboard.state.Place.Set("Havana")
	d := s.waitForPlace("Havana")

	s.Equal("Monday", d.Current.DayName)
	s.Equal("15.01.2024", d.Current.Date)
	s.Equal(27, d.Current.Temperature)
	s.Equal("01d", d.Current.Icon)
	s.Equal("18km/h", d.Current.Details.WindSpeed)
	s.Equal("07:00", d.Current.Details.Sunrise)
	s.Equal("18:00", d.Current.Details.Sunset)

	s.Require().Len(d.Hourly, 2)
	s.Equal("9:00 AM", d.Hourly[0].Time)
	s.Require().Len(d.Daily, 2)
	s.Equal("15.01", d.Daily[0].Date)
	s.Equal("Tuesday", d.Daily[1].Weekday)
}

func (s *DashboardTestSuite) TestSearchAndSubmit() {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		validate   func(t *testing.T, env envelope)
	}{
		{
			name:       "Short input makes no lookup",
			method:     http.MethodGet,
			path:       "/api/suggestions?q=Lo",
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, env envelope) {
				var v service.SearchView
				require.NoError(t, json.Unmarshal(env.Data, &v))
				assert.Empty(t, v.Suggestions)
				assert.False(t, v.NotFound)
			},
		},
		{
			name:       "Suggestions in service order",
			method:     http.MethodGet,
			path:       "/api/suggestions?q=Lon",
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, env envelope) {
				var v service.SearchView
				require.NoError(t, json.Unmarshal(env.Data, &v))
				assert.Equal(t, []string{"London", "Londonderry"}, v.Suggestions)
				assert.True(t, v.ShowSuggestions)
			},
		},
		{
			name:       "Select suggestion",
			method:     http.MethodPost,
			path:       "/api/suggestions/select?name=London",
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, env envelope) {
				var v service.SearchView
				require.NoError(t, json.Unmarshal(env.Data, &v))
				assert.Equal(t, "London", v.Query)
				assert.False(t, v.ShowSuggestions)
			},
		},
		{
			name:       "Submit",
			method:     http.MethodPost,
			path:       "/api/place",
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, env envelope) {
				assert.JSONEq(t, `{"place":"London","loading":false}`, string(env.Data))
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, env := s.request(tt.method, tt.path)

			s.Equal(tt.wantStatus, resp.StatusCode)
			if tt.validate != nil {
				tt.validate(s.T(), env)
			}
		})
	}

	d := s.waitForPlace("London")
	s.Equal("London", d.Place)
}

func (s *DashboardTestSuite) TestSubmitUnknownPlace() {
	before := s.dashboard.state.Place.Get()

	resp, env := s.request(http.MethodPost, "/api/place?q=Atlantis")

	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Require().NotNil(env.Error)
	s.Equal(service.NotFoundMessage, *env.Error)
	s.Equal(before, s.dashboard.state.Place.Get())
	s.False(s.dashboard.state.Loading.Get())
	s.Equal(service.NotFoundMessage, s.dashboard.search.View().Error)
}

func (s *DashboardTestSuite) TestLocate() {
	resp, env := s.request(http.MethodPost, "/api/locate?lat=23.1&lon=-82.4")

	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`{"place":"Playa","loading":false}`, string(env.Data))
	s.waitForPlace("Playa")
}

func (s *DashboardTestSuite) TestLocateWithoutGeolocation() {
	before := s.dashboard.state.Place.Get()

	resp, env := s.request(http.MethodPost, "/api/locate")

	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
	s.Require().NotNil(env.Error)
	s.Equal(before, s.dashboard.state.Place.Get())
}

func (s *DashboardTestSuite) TestForecastIsCached() {
	s.dashboard.state.Place.Set("Havana")
	s.waitForPlace("Havana")
	s.True(miniRedisMock.Exists("forecast:havana"))

	hits := s.owm.forecastHits.Load()
	s.Require().NoError(s.dashboard.forecast.Refresh(context.Background()))

	s.Equal(hits, s.owm.forecastHits.Load(), "refresh served from the cache")
	s.True(s.getDashboard().Cached)
}

func (s *DashboardTestSuite) TestInvalidAPIKey() {
	s.T().Setenv("OPENWEATHERMAP_API_KEY", "invalid_key")

	resp, env := s.request(http.MethodGet, "/api/suggestions?q=Paris")

	s.Equal(http.StatusOK, resp.StatusCode)
	var v service.SearchView
	s.Require().NoError(json.Unmarshal(env.Data, &v))
	s.True(v.NotFound)
	s.Empty(v.Suggestions)
}

func (s *DashboardTestSuite) TestRequestID() {
	resp, _ := s.request(http.MethodGet, "/health")

	s.Equal(http.StatusOK, resp.StatusCode)
	s.NotEmpty(resp.Header.Get(middleware.RequestIDHeader))
}

func (s *DashboardTestSuite) TestDashboardPage() {
	resp, err := s.dashboard.server.Client().Get(s.dashboard.server.URL + "/")
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), "<title>Weather in ")
}

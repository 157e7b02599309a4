package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/redis"
)

// Custom error types
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrAPIKeyMissing    = errors.New("API key missing")
	ErrExternalAPI      = errors.New("external API error")
)

const (
	forecastEndpoint = "/forecast"
	findEndpoint     = "/find"
	weatherEndpoint  = "/weather"
)

// APIError is a non-2xx answer from OpenWeatherMap.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openweathermap: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrLocationNotFound
	}
	return ErrExternalAPI
}

// WeatherRepository defines the interface for weather data access
type WeatherRepository interface {
	GetForecast(ctx context.Context, place string) (*model.ForecastSet, error)
	FindPlaces(ctx context.Context, query string) ([]string, error)
	PlaceAt(ctx context.Context, lat, lon float64) (string, error)
}

// cacheClient is the part of the Redis client the repository uses.
type cacheClient interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

// weatherRepository implements WeatherRepository
type weatherRepository struct {
	cache  cacheClient // nil disables the request cache
	ttl    time.Duration
	client *resty.Client
	logger *zap.SugaredLogger
}

// NewWeatherRepository creates a new weather repository instance. The Redis
// request cache is used when cache.enabled is set.
func NewWeatherRepository(httpClient ...*http.Client) WeatherRepository {
	client := &http.Client{Timeout: config.GetHTTPClientTimeout()}
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	repo := newWeatherRepository(nil, client)
	if config.IsCacheEnabled() {
		repo.cache = redis.GetClient()
	}
	return repo
}

func newWeatherRepository(cache cacheClient, httpClient *http.Client) *weatherRepository {
	return &weatherRepository{
		cache:  cache,
		ttl:    config.GetCacheExpiration(),
		client: resty.NewWithClient(httpClient).SetBaseURL(config.GetOpenWeatherApiUrl()),
		logger: config.GetLogger(),
	}
}

// GetForecast retrieves the 5 day / 3 hour forecast, checking cache first, then external API
func (r *weatherRepository) GetForecast(ctx context.Context, place string) (*model.ForecastSet, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil, ErrLocationNotFound
	}
	cacheKey := "forecast:" + strings.ToLower(place)

	var cached model.ForecastSet
	if r.getFromCache(ctx, cacheKey, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	var set model.ForecastSet
	if err := r.get(ctx, forecastEndpoint, map[string]string{"q": place}, &set); err != nil {
		return nil, err
	}
	set.Cached = false

	r.store(ctx, cacheKey, &set)
	return &set, nil
}

// FindPlaces returns the names of the places matching query, in the order
// the API returned them.
func (r *weatherRepository) FindPlaces(ctx context.Context, query string) ([]string, error) {
	cacheKey := "find:" + strings.ToLower(query)

	var cached []string
	if r.getFromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	var data model.FindResponse
	if err := r.get(ctx, findEndpoint, map[string]string{"q": query}, &data); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(data.List))
	for _, item := range data.List {
		names = append(names, item.Name)
	}
	if len(names) == 0 {
		return names, ErrLocationNotFound
	}

	r.store(ctx, cacheKey, names)
	return names, nil
}

// PlaceAt resolves coordinates to the name of the containing place.
func (r *weatherRepository) PlaceAt(ctx context.Context, lat, lon float64) (string, error) {
	cacheKey := fmt.Sprintf("reverse:%.4f,%.4f", lat, lon)

	var cached string
	if r.getFromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	var data model.CurrentWeatherResponse
	params := map[string]string{
		"lat": fmt.Sprintf("%f", lat),
		"lon": fmt.Sprintf("%f", lon),
	}
	if err := r.get(ctx, weatherEndpoint, params, &data); err != nil {
		return "", err
	}
	if data.Name == "" {
		return "", ErrLocationNotFound
	}

	r.store(ctx, cacheKey, data.Name)
	return data.Name, nil
}

// get performs one request without retries and decodes the JSON body into out.
func (r *weatherRepository) get(ctx context.Context, endpoint string, params map[string]string, out interface{}) error {
	apiKey := config.GetOpenWeatherMapAPIKey()
	if apiKey == "" {
		return ErrAPIKeyMissing
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("appid", apiKey).
		Get(endpoint)
	if err != nil {
		r.logger.Warnw("OpenWeatherMap request failed", "endpoint", endpoint, "error", err)
		return fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}

	if !resp.IsSuccess() {
		apiErr := newAPIError(resp.StatusCode(), resp.Body())
		r.logger.Warnw("OpenWeatherMap returned an error", "endpoint", endpoint, "status", apiErr.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload model.APIErrorBody
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return &APIError{StatusCode: status, Message: payload.Message}
	}
	return &APIError{StatusCode: status, Message: http.StatusText(status)}
}

// getFromCache decodes the cached value for key into out and reports whether it was found.
func (r *weatherRepository) getFromCache(ctx context.Context, key string, out interface{}) bool {
	if r.cache == nil {
		return false
	}

	val, err := r.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redisv9.Nil) {
			r.logger.Debugw("Cache read failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal([]byte(val), out); err != nil {
		r.logger.Debugw("Cache entry is not valid JSON", "key", key, "error", err)
		return false
	}
	return true
}

// store caches value for the configured TTL. Failures only cost a future cache miss.
func (r *weatherRepository) store(ctx context.Context, key string, value interface{}) {
	if r.cache == nil {
		return
	}

	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, b, r.ttl).Err(); err != nil {
		r.logger.Debugw("Cache write failed", "key", key, "error", err)
	}
}

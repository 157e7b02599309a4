package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/geo"
	"github.com/fakhrymubarak/weather-dashboard/internal/handler"
	"github.com/fakhrymubarak/weather-dashboard/internal/middleware"
	"github.com/fakhrymubarak/weather-dashboard/internal/redis"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/scheduler"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

const shutdownTimeout = 10 * time.Second

// app is one dashboard session: the shared state, the components built on it
// and the loopback server exposing them.
type app struct {
	state     *state.Store
	forecast  *service.ForecastService
	scheduler *scheduler.Scheduler
	server    *http.Server
}

func newApp(repo repository.WeatherRepository) *app {
	st := state.New(config.GetDefaultPlace())
	forecast := service.NewForecastService(repo, st)
	search := service.NewSearchBox(repo, st)
	resolver := geo.NewResolver(repo, st)

	h := handler.NewDashboardHandler(forecast, search, resolver, st, geo.FromConfig())
	return &app{
		state:     st,
		forecast:  forecast,
		scheduler: scheduler.New(config.GetRefreshInterval(), forecast),
		server: &http.Server{
			Addr:              ":" + config.GetServerPort(),
			Handler:           middleware.RequestLogger(config.GetLogger())(h.Routes()),
			ReadHeaderTimeout: config.GetServerTimeout("read_header_timeout"),
			ReadTimeout:       config.GetServerTimeout("read_timeout"),
			WriteTimeout:      config.GetServerTimeout("write_timeout"),
			IdleTimeout:       config.GetServerTimeout("idle_timeout"),
		},
	}
}

// start begins following the selected place and the periodic refresh.
func (a *app) start(ctx context.Context) error {
	a.forecast.Start(ctx)
	return a.scheduler.Start()
}

func (a *app) shutdown(ctx context.Context) error {
	a.scheduler.Stop()
	err := a.server.Shutdown(ctx)
	a.forecast.Stop()
	return err
}

func main() {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	if config.GetOpenWeatherMapAPIKey() == "" {
		logger.Warnw("OPENWEATHERMAP_API_KEY is not set, every forecast request will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.IsCacheEnabled() {
		if err := redis.Ping(ctx); err != nil {
			logger.Warnw("Redis unavailable, requests will not be cached", "addr", config.GetRedisAddr(), "error", err)
		}
		defer func() { _ = redis.Close() }()
	}

	a := newApp(repository.NewWeatherRepository())
	if err := run(ctx, a); err != nil {
		logger.Errorw("Weather dashboard stopped", "error", err)
	}
}

// run starts a, serves until ctx is done or the server fails, then shuts it
// down. Every error is returned so the caller's cleanup still runs.
func run(ctx context.Context, a *app) error {
	logger := config.GetLogger()
	if err := a.start(ctx); err != nil {
		a.forecast.Stop()
		return fmt.Errorf("start periodic refresh: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("Weather dashboard running", "addr", a.server.Addr, "place", a.state.Place.Get())
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Infow("Shutting down")
	case err := <-serverErr:
		runErr = fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("shutdown: %w", err))
	}
	return runErr
}

package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

// ForecastFetcher loads the forecast of a place.
type ForecastFetcher interface {
	GetForecast(ctx context.Context, place string) (*model.ForecastSet, error)
}

// ForecastService keeps the forecast of the selected place.
//
// Every change of the selected place starts a fetch. Fetches already in flight
// are not cancelled. A response is applied only if its place is still
// selected when it arrives, so an older fetch cannot overwrite the forecast of
// a newer place. Two fetches for the same place may still complete out of order.
type ForecastService struct {
	repo   ForecastFetcher
	state  *state.Store
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	current *model.ForecastSet
	place   string // place of current and lastErr
	lastErr error

	wg          sync.WaitGroup
	unsubscribe func()

	// beforeApply runs between a fetch and storing its result. Tests only.
	beforeApply func()
}

func NewForecastService(repo ForecastFetcher, st *state.Store) *ForecastService {
	return &ForecastService{
		repo:   repo,
		state:  st,
		logger: config.GetLogger(),
	}
}

// Start fetches the forecast of the current place and follows every later
// change of the selected place.
func (s *ForecastService) Start(ctx context.Context) {
	s.unsubscribe = s.state.Place.Subscribe(func(string) {
		s.refreshAsync(ctx)
	})
	s.refreshAsync(ctx)
}

// Stop stops following the selected place and waits for in-flight fetches.
func (s *ForecastService) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.wg.Wait()
}

func (s *ForecastService) refreshAsync(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.Refresh(ctx)
	}()
}

// Refresh fetches the forecast of the currently selected place. The returned
// error is the fetch error, also kept for Snapshot.
func (s *ForecastService) Refresh(ctx context.Context) error {
	place := s.state.Place.Get()
	set, err := s.repo.GetForecast(ctx, place)
	if s.beforeApply != nil {
		s.beforeApply()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Checked under the lock so a newer place's result stored meanwhile is
	// never overwritten.
	if selected := s.state.Place.Get(); selected != place {
		s.logger.Debugw("Discarding forecast for a place no longer selected", "place", place, "selected", selected)
		return err
	}

	if err != nil {
		s.logger.Warnw("Forecast fetch failed", "place", place, "error", err)
		if s.place != place {
			s.current = nil
		}
		s.place = place
		s.lastErr = err
		return err
	}

	s.current = set
	s.place = place
	s.lastErr = nil
	return nil
}

// Snapshot is the forecast state of one place.
type Snapshot struct {
	Place    string
	Forecast *model.ForecastSet
	Err      error // last fetch error for Place
}

// Pending reports whether nothing has been fetched for place yet.
func (s Snapshot) Pending(place string) bool {
	return s.Place != place || (s.Forecast == nil && s.Err == nil)
}

// Snapshot returns the forecast of the place last fetched, if any, and the
// error of the last fetch for it.
func (s *ForecastService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Place: s.place, Forecast: s.current, Err: s.lastErr}
}

// Package geo resolves the device position to a place name and makes it the
// selected place.
package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

var (
	// ErrUnavailable means the platform offers no position at all.
	ErrUnavailable = errors.New("geolocation unavailable")
	// ErrPermissionDenied means the user refused to share the position.
	ErrPermissionDenied = errors.New("geolocation permission denied")
	ErrInvalidPosition  = errors.New("invalid position")
)

var validate = validator.New()

// Position is a WGS84 coordinate pair.
type Position struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

func (p Position) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return nil
}

// Locator is the platform geolocation capability.
type Locator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Fixed is a position already known to the caller, e.g. coordinates sent by
// the browser along with a locate request.
type Fixed Position

func (f Fixed) CurrentPosition(context.Context) (Position, error) {
	return Position(f), nil
}

// Denied is a Locator for a platform that refused access.
type Denied struct{}

func (Denied) CurrentPosition(context.Context) (Position, error) {
	return Position{}, ErrPermissionDenied
}

// FromConfig returns the configured device position, or nil when no device
// position is configured.
func FromConfig() Locator {
	g := config.GetGeolocation()
	if !g.Enabled {
		return nil
	}
	return Fixed{Latitude: g.Latitude, Longitude: g.Longitude}
}

// PlaceFinder resolves coordinates to a place name.
type PlaceFinder interface {
	PlaceAt(ctx context.Context, lat, lon float64) (string, error)
}

// Resolver turns a position into the selected place.
type Resolver struct {
	finder PlaceFinder
	state  *state.Store
	logger *zap.SugaredLogger
}

func NewResolver(finder PlaceFinder, st *state.Store) *Resolver {
	return &Resolver{finder: finder, state: st, logger: config.GetLogger()}
}

// Resolve asks locator for the current position and selects the place
// containing it. On any failure the selected place is left unchanged and the
// loading flag is cleared. Nothing is retried.
func (r *Resolver) Resolve(ctx context.Context, locator Locator) (string, error) {
	if locator == nil {
		return "", ErrUnavailable
	}

	pos, err := locator.CurrentPosition(ctx)
	if err != nil {
		r.logger.Infow("Position not available", "error", err)
		return "", err
	}
	if err := pos.Validate(); err != nil {
		return "", err
	}

	r.state.Loading.Set(true)
	defer r.state.Loading.Set(false)

	name, err := r.finder.PlaceAt(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		r.logger.Warnw("Reverse lookup failed", "latitude", pos.Latitude, "longitude", pos.Longitude, "error", err)
		return "", err
	}

	r.state.Place.Set(name)
	return name, nil
}

package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

type mockFinder struct {
	name  string
	err   error
	calls int
	// loadingDuringCall records the loading flag while the lookup is in flight.
	loadingDuringCall bool
	st                *state.Store
}

func (m *mockFinder) PlaceAt(ctx context.Context, lat, lon float64) (string, error) {
	m.calls++
	if m.st != nil {
		m.loadingDuringCall = m.st.Loading.Get()
	}
	return m.name, m.err
}

func TestResolve_Success(t *testing.T) {
	st := state.New("Havana")
	finder := &mockFinder{name: "London", st: st}
	r := NewResolver(finder, st)

	var loadingHistory []bool
	st.Loading.Subscribe(func(v bool) { loadingHistory = append(loadingHistory, v) })

	name, err := r.Resolve(context.Background(), Fixed{Latitude: 51.5, Longitude: -0.12})
	require.NoError(t, err)
	assert.Equal(t, "London", name)
	assert.Equal(t, "London", st.Place.Get())
	assert.True(t, finder.loadingDuringCall)
	assert.False(t, st.Loading.Get())
	assert.Equal(t, []bool{true, false}, loadingHistory)
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name      string
		locator   Locator
		finderErr error
		wantErr   error
		wantCalls int
	}{
		{name: "no capability", locator: nil, wantErr: ErrUnavailable},
		{name: "permission denied", locator: Denied{}, wantErr: ErrPermissionDenied},
		{name: "invalid position", locator: Fixed{Latitude: 123, Longitude: 0}, wantErr: ErrInvalidPosition},
		{name: "lookup failure", locator: Fixed{Latitude: 10, Longitude: 10}, finderErr: errors.New("boom"), wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := state.New("Havana")
			finder := &mockFinder{name: "Somewhere", err: tt.finderErr}
			r := NewResolver(finder, st)

			name, err := r.Resolve(context.Background(), tt.locator)
			assert.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, name)
			assert.Equal(t, "Havana", st.Place.Get())
			assert.False(t, st.Loading.Get())
			assert.Equal(t, tt.wantCalls, finder.calls)
		})
	}
}

func TestPositionValidate(t *testing.T) {
	assert.NoError(t, Position{Latitude: -90, Longitude: 180}.Validate())
	assert.ErrorIs(t, Position{Latitude: 0, Longitude: 181}.Validate(), ErrInvalidPosition)
}

func TestFromConfig(t *testing.T) {
	config.ReloadConfigForTest()
	assert.Nil(t, FromConfig())

	viper.Set("geolocation.enabled", true)
	viper.Set("geolocation.latitude", 23.13)
	viper.Set("geolocation.longitude", -82.38)
	defer viper.Set("geolocation.enabled", false)

	loc := FromConfig()
	require.NotNil(t, loc)
	pos, err := loc.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Position{Latitude: 23.13, Longitude: -82.38}, pos)
}

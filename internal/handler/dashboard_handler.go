package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/geo"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
	"github.com/fakhrymubarak/weather-dashboard/internal/view"
)

// ForecastReader exposes the forecast of the last fetched place.
type ForecastReader interface {
	Snapshot() service.Snapshot
}

// SearchControl is the city search box.
type SearchControl interface {
	Input(ctx context.Context, value string) service.SearchView
	Select(name string) service.SearchView
	Submit() error
	View() service.SearchView
}

// PlaceResolver turns the device position into the selected place.
type PlaceResolver interface {
	Resolve(ctx context.Context, locator geo.Locator) (string, error)
}

type DashboardHandler struct {
	Forecast ForecastReader
	Search   SearchControl
	Resolver PlaceResolver
	State    *state.Store
	// Locator is used by locate requests without coordinates. Nil means the
	// platform has no geolocation.
	Locator geo.Locator
	logger  *zap.SugaredLogger
}

func NewDashboardHandler(forecast ForecastReader, search SearchControl, resolver PlaceResolver, st *state.Store, locator geo.Locator) *DashboardHandler {
	return &DashboardHandler{
		Forecast: forecast,
		Search:   search,
		Resolver: resolver,
		State:    st,
		Locator:  locator,
		logger:   config.GetLogger(),
	}
}

// Routes registers every dashboard endpoint on a new mux.
func (h *DashboardHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HandlePage)
	mux.HandleFunc("/api/dashboard", h.HandleDashboard)
	mux.HandleFunc("/api/suggestions", h.HandleSuggestions)
	mux.HandleFunc("/api/suggestions/select", h.HandleSelect)
	mux.HandleFunc("/api/place", h.HandleSubmit)
	mux.HandleFunc("/api/locate", h.HandleLocate)
	mux.HandleFunc("/api/state", h.HandleState)
	mux.HandleFunc("/health", h.HandleHealth)
	return mux
}

func (h *DashboardHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorw("could not encode json", "error", err)
	}
}

func (h *DashboardHandler) writeError(w http.ResponseWriter, statusCode int, errMsg string, data interface{}) {
	h.writeJSONResponse(w, statusCode, model.Response{
		Data:    data,
		Error:   &errMsg,
		Message: "Error",
	})
}

func (h *DashboardHandler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    data,
		Message: "Success",
	})
}

// allowMethod answers 405 and returns false unless r uses method.
func (h *DashboardHandler) allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	return false
}

// dashboard builds the view of the selected place. A forecast fetched for
// another place is never shown, and the skeleton stays up until the first
// fetch for the selected place finishes.
func (h *DashboardHandler) dashboard() view.Dashboard {
	place := h.State.Place.Get()
	snap := h.Forecast.Snapshot()

	in := view.Input{
		Place:   place,
		Loading: h.State.Loading.Get() || snap.Pending(place),
		Search:  h.Search.View(),
	}
	if snap.Place == place {
		in.Forecast = snap.Forecast
		in.FetchErr = snap.Err
	}
	return view.Build(in)
}

func (h *DashboardHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Render(w, h.dashboard()); err != nil {
		h.logger.Errorw("could not render dashboard", "error", err)
	}
}

func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}
	h.writeSuccess(w, h.dashboard())
}

func (h *DashboardHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}
	h.writeSuccess(w, h.Search.Input(r.Context(), r.URL.Query().Get("q")))
}

func (h *DashboardHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPost) {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'name' parameter", nil)
		return
	}
	sv := h.Search.Select(name)
	if wantsHTML(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.writeSuccess(w, sv)
}

// HandleSubmit submits the search box. A q parameter is typed into the box
// first.
func (h *DashboardHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPost) {
		return
	}

	if q := r.FormValue("q"); q != "" && q != h.Search.View().Query {
		h.Search.Input(r.Context(), q)
	}

	err := h.Search.Submit()
	if wantsHTML(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if errors.Is(err, service.ErrLocationNotFound) {
		h.writeError(w, http.StatusNotFound, service.NotFoundMessage, h.Search.View())
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to select location", nil)
		return
	}
	h.writeSuccess(w, placeData(h.State))
}

// HandleLocate selects the place at the device position. Coordinates in the
// request take precedence over the configured locator.
func (h *DashboardHandler) HandleLocate(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPost) {
		return
	}

	locator := h.Locator
	if r.FormValue("lat") != "" || r.FormValue("lon") != "" {
		lat, errLat := strconv.ParseFloat(r.FormValue("lat"), 64)
		lon, errLon := strconv.ParseFloat(r.FormValue("lon"), 64)
		if errLat != nil || errLon != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid 'lat' or 'lon' parameter", placeData(h.State))
			return
		}
		locator = geo.Fixed{Latitude: lat, Longitude: lon}
	}

	_, err := h.Resolver.Resolve(r.Context(), locator)
	if wantsHTML(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		status, msg := locateFailure(err)
		h.writeError(w, status, msg, placeData(h.State))
		return
	}
	h.writeSuccess(w, placeData(h.State))
}

func locateFailure(err error) (int, string) {
	switch {
	case errors.Is(err, geo.ErrUnavailable):
		return http.StatusServiceUnavailable, "Geolocation is not available"
	case errors.Is(err, geo.ErrPermissionDenied):
		return http.StatusForbidden, "Geolocation permission denied"
	case errors.Is(err, geo.ErrInvalidPosition):
		return http.StatusBadRequest, "Invalid position"
	case errors.Is(err, repository.ErrLocationNotFound):
		return http.StatusNotFound, service.NotFoundMessage
	default:
		return http.StatusBadGateway, "Failed to resolve location"
	}
}

func (h *DashboardHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}
	h.writeSuccess(w, placeData(h.State))
}

func (h *DashboardHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ok"})
}

// PlaceState is the shared state as returned by the API.
type PlaceState struct {
	Place   string `json:"place"`
	Loading bool   `json:"loading"`
}

func placeData(st *state.Store) PlaceState {
	return PlaceState{Place: st.Place.Get(), Loading: st.Loading.Get()}
}

// wantsHTML reports whether r comes from a plain HTML form.
func wantsHTML(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") &&
		strings.Contains(r.Header.Get("Accept"), "text/html")
}

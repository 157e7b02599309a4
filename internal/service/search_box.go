package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

// MinQueryLength is the shortest input, in characters, that is looked up.
const MinQueryLength = 3

// NotFoundMessage is shown when a search is submitted without candidates.
const NotFoundMessage = "Location not found"

var ErrLocationNotFound = errors.New("location not found")

var (
	validate    = validator.New()
	minQueryTag = "min=" + strconv.Itoa(MinQueryLength)
)

// PlaceFinder looks up candidate place names for a partial name.
type PlaceFinder interface {
	FindPlaces(ctx context.Context, query string) ([]string, error)
}

// SearchView is what the search control shows.
type SearchView struct {
	Query           string   `json:"query"`
	Suggestions     []string `json:"suggestions"`
	ShowSuggestions bool     `json:"showSuggestions"`
	NotFound        bool     `json:"notFound"`
	Error           string   `json:"error,omitempty"`
}

// afterFunc runs f once after d and returns a function that cancels it.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// SearchBox is the city search control with autocomplete.
type SearchBox struct {
	finder    PlaceFinder
	state     *state.Store
	errorTTL  time.Duration
	afterFunc afterFunc
	logger    *zap.SugaredLogger

	mu          sync.Mutex
	query       string
	suggestions []string
	show        bool
	notFound    bool
	errMsg      string
	errSeq      int
}

func NewSearchBox(finder PlaceFinder, st *state.Store) *SearchBox {
	return &SearchBox{
		finder:    finder,
		state:     st,
		errorTTL:  config.GetErrorDisplayDuration(),
		afterFunc: realAfterFunc,
		logger:    config.GetLogger(),
	}
}

// Input handles a change of the typed text. Inputs shorter than
// MinQueryLength clear the suggestions without a lookup. Otherwise the
// candidates are fetched and shown in the order the service returned them.
// A lookup that fails or finds nothing leaves the list empty and marks the
// search as not found.
func (b *SearchBox) Input(ctx context.Context, value string) SearchView {
	b.mu.Lock()
	b.query = value
	if err := validate.Var(value, minQueryTag); err != nil {
		b.suggestions = nil
		b.show = false
		b.notFound = false
		v := b.viewLocked()
		b.mu.Unlock()
		return v
	}
	b.mu.Unlock()

	names, err := b.finder.FindPlaces(ctx, value)

	b.mu.Lock()
	defer b.mu.Unlock()

	// A newer input superseded this lookup.
	if b.query != value {
		return b.viewLocked()
	}

	if err != nil || len(names) == 0 {
		if err != nil {
			b.logger.Infow("Place lookup failed", "query", value, "error", err)
		}
		b.suggestions = nil
		b.show = false
		b.notFound = true
		return b.viewLocked()
	}

	b.suggestions = names
	b.show = true
	b.notFound = false
	b.errMsg = ""
	return b.viewLocked()
}

// Select copies a suggestion into the query and hides the list.
func (b *SearchBox) Select(name string) SearchView {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query = name
	b.show = false
	return b.viewLocked()
}

// Submit makes the current query the selected place. Without candidates it
// shows NotFoundMessage, which clears itself after the configured delay, and
// returns ErrLocationNotFound.
func (b *SearchBox) Submit() error {
	b.state.Loading.Set(true)

	b.mu.Lock()
	if len(b.suggestions) == 0 {
		b.errMsg = NotFoundMessage
		b.errSeq++
		seq := b.errSeq
		b.mu.Unlock()

		b.afterFunc(b.errorTTL, func() { b.clearError(seq) })
		b.state.Loading.Set(false)
		return ErrLocationNotFound
	}

	place := b.query
	b.errMsg = ""
	b.show = false
	b.mu.Unlock()

	b.state.Place.Set(place)
	b.state.Loading.Set(false)
	return nil
}

// clearError removes the error set by submission seq unless a later
// submission replaced it.
func (b *SearchBox) clearError(seq int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.errSeq == seq {
		b.errMsg = ""
	}
}

func (b *SearchBox) View() SearchView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewLocked()
}

func (b *SearchBox) viewLocked() SearchView {
	suggestions := make([]string, len(b.suggestions))
	copy(suggestions, b.suggestions)
	return SearchView{
		Query:           b.query,
		Suggestions:     suggestions,
		ShowSuggestions: b.show,
		NotFound:        b.notFound,
		Error:           b.errMsg,
	}
}

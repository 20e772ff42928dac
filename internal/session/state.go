// Package session holds per-user dashboard state (unit, theme, favorites, search
// history, current location) as an immutable value updated by pure functions, and
// persists it through an injected key-value Store.
package session

import (
	"errors"
	"slices"
	"time"

	"github.com/neexbeast/weatherdash/internal/weather"
)

// MaxHistory bounds the search history.
const MaxHistory = 5

var (
	// ErrAlreadyFavorite is returned when adding a location that is already a favorite.
	ErrAlreadyFavorite = errors.New("location is already a favorite")
	// ErrInvalidTheme is returned for a theme other than light or dark.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrInvalidUnit is returned for a unit other than metric or imperial.
	ErrInvalidUnit = errors.New("invalid unit")
)

// Theme is the UI color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Valid reports whether t is light or dark.
func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

// Location is a snapshot of a location's conditions at the time it was saved.
type Location struct {
	LocationID  int                  `json:"id"`
	Name        string               `json:"name"`
	Country     string               `json:"country,omitempty"`
	Coord       *weather.Coordinates `json:"coord,omitempty"`
	Temperature float64              `json:"temperature"`
	Category    weather.Category     `json:"category"`
	SavedAt     time.Time            `json:"saved_at"`
}

// LocationFrom snapshots c at time at.
func LocationFrom(c weather.CurrentConditions, at time.Time) Location {
	l := Location{
		LocationID:  c.LocationID,
		Name:        c.Name,
		Country:     c.Country,
		Temperature: c.Temperature,
		Category:    c.Category,
		SavedAt:     at.UTC(),
	}
	if c.Coord != nil {
		coord := *c.Coord
		l.Coord = &coord
	}
	return l
}

// State is one session's dashboard state. Methods never mutate the receiver.
type State struct {
	ID        string       `json:"id"`
	Unit      weather.Unit `json:"unit"`
	Theme     Theme        `json:"theme"`
	Favorites []Location   `json:"favorites"`
	History   []Location   `json:"history"`
	Current   *Location    `json:"current,omitempty"`
}

// New returns the initial state for session id.
func New(id string) State {
	return State{
		ID:        id,
		Unit:      weather.UnitMetric,
		Theme:     ThemeDark,
		Favorites: []Location{},
		History:   []Location{},
	}
}

// IsFavorite reports whether locationID is among the favorites.
func (s State) IsFavorite(locationID int) bool {
	return slices.ContainsFunc(s.Favorites, func(l Location) bool { return l.LocationID == locationID })
}

// AddFavorite appends l to the favorites.
func (s State) AddFavorite(l Location) (State, error) {
	if s.IsFavorite(l.LocationID) {
		return s, ErrAlreadyFavorite
	}
	s.Favorites = append(slices.Clone(s.Favorites), l)
	return s, nil
}

// RemoveFavorite drops locationID from the favorites. Unknown ids are a no-op.
func (s State) RemoveFavorite(locationID int) State {
	s.Favorites = slices.DeleteFunc(slices.Clone(s.Favorites), func(l Location) bool {
		return l.LocationID == locationID
	})
	return s
}

// RecordSearch moves l to the front of the history, dropping any earlier entry for
// the same location and keeping at most MaxHistory entries. l also becomes current.
func (s State) RecordSearch(l Location) State {
	h := make([]Location, 0, MaxHistory)
	h = append(h, l)
	for _, prev := range s.History {
		if len(h) == MaxHistory {
			break
		}
		if prev.LocationID != l.LocationID {
			h = append(h, prev)
		}
	}
	s.History = h
	s.Current = &l
	return s
}

// SetCurrent makes l the current location without touching the history.
func (s State) SetCurrent(l Location) State {
	s.Current = &l
	return s
}

// SetUnit switches the display unit.
func (s State) SetUnit(u weather.Unit) (State, error) {
	if !u.Valid() {
		return s, ErrInvalidUnit
	}
	s.Unit = u
	return s, nil
}

// SetTheme switches the theme.
func (s State) SetTheme(t Theme) (State, error) {
	if !t.Valid() {
		return s, ErrInvalidTheme
	}
	s.Theme = t
	return s, nil
}

// ToggleTheme flips between light and dark.
func (s State) ToggleTheme() State {
	if s.Theme == ThemeLight {
		s.Theme = ThemeDark
	} else {
		s.Theme = ThemeLight
	}
	return s
}

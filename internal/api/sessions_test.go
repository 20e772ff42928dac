package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weatherdash/internal/provider"
	"github.com/neexbeast/weatherdash/internal/session"
	"github.com/neexbeast/weatherdash/internal/weather"
)

type mockSessions struct {
	createFn         func(ctx context.Context) (session.State, error)
	getFn            func(ctx context.Context, id string) (*session.Result, error)
	searchFn         func(ctx context.Context, id string, q provider.Query) (*session.Result, error)
	refreshFn        func(ctx context.Context, id string) (*session.Result, error)
	addFavoriteFn    func(ctx context.Context, id string) (*session.Result, error)
	removeFavoriteFn func(ctx context.Context, id string, locationID int) (*session.Result, error)
	setPrefsFn       func(ctx context.Context, id string, p session.Preferences) (*session.Result, error)
}

func (m *mockSessions) Create(ctx context.Context) (session.State, error) {
	return m.createFn(ctx)
}
func (m *mockSessions) Get(ctx context.Context, id string) (*session.Result, error) {
	return m.getFn(ctx, id)
}
func (m *mockSessions) Search(ctx context.Context, id string, q provider.Query) (*session.Result, error) {
	return m.searchFn(ctx, id, q)
}
func (m *mockSessions) Refresh(ctx context.Context, id string) (*session.Result, error) {
	return m.refreshFn(ctx, id)
}
func (m *mockSessions) AddFavorite(ctx context.Context, id string) (*session.Result, error) {
	return m.addFavoriteFn(ctx, id)
}
func (m *mockSessions) RemoveFavorite(ctx context.Context, id string, locationID int) (*session.Result, error) {
	return m.removeFavoriteFn(ctx, id, locationID)
}
func (m *mockSessions) SetPreferences(ctx context.Context, id string, p session.Preferences) (*session.Result, error) {
	return m.setPrefsFn(ctx, id, p)
}

func resultFor(id string) *session.Result {
	return &session.Result{State: session.New(id)}
}

func TestCreateSession(t *testing.T) {
	svc := &mockSessions{createFn: func(context.Context) (session.State, error) {
		return session.New("abc"), nil
	}}

	w := do(t, buildRouter(deps{sessions: svc}), http.MethodPost, "/api/v1/sessions", "")

	assert.Equal(t, http.StatusCreated, w.Code)
	st := decode[session.State](t, w)
	assert.Equal(t, "abc", st.ID)
	assert.Equal(t, session.ThemeDark, st.Theme)
}

func TestCreateSession_StoreError(t *testing.T) {
	svc := &mockSessions{createFn: func(context.Context) (session.State, error) {
		return session.State{}, errors.New("redis down")
	}}

	w := do(t, buildRouter(deps{sessions: svc}), http.MethodPost, "/api/v1/sessions", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetSession(t *testing.T) {
	var gotID string
	svc := &mockSessions{getFn: func(_ context.Context, id string) (*session.Result, error) {
		gotID = id
		if id != "abc" {
			return nil, session.ErrNotFound
		}
		return resultFor(id), nil
	}}
	router := buildRouter(deps{sessions: svc})

	w := do(t, router, http.MethodGet, "/api/v1/sessions/abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", gotID)
	assert.Equal(t, "abc", decode[session.Result](t, w).State.ID)

	w = do(t, router, http.MethodGet, "/api/v1/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearch_CityAndCoordinates(t *testing.T) {
	var got provider.Query
	svc := &mockSessions{searchFn: func(_ context.Context, id string, q provider.Query) (*session.Result, error) {
		got = q
		return resultFor(id), nil
	}}
	router := buildRouter(deps{sessions: svc})

	w := do(t, router, http.MethodPost, "/api/v1/sessions/abc/search", `{"city":"Paris"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Paris", got.City)

	w = do(t, router, http.MethodPost, "/api/v1/sessions/abc/search", `{"coord":{"lat":48.85,"lon":2.35}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.Coord)
	assert.Equal(t, 48.85, got.Coord.Lat)
}

func TestSearch_BadRequests(t *testing.T) {
	svc := &mockSessions{searchFn: func(context.Context, string, provider.Query) (*session.Result, error) {
		t.Fatal("service should not be called for an invalid body")
		return nil, nil
	}}
	router := buildRouter(deps{sessions: svc})

	for _, body := range []string{``, `not json`, `{}`, `{"town":"Paris"}`, `{"coord":{"lat":95,"lon":0}}`} {
		w := do(t, router, http.MethodPost, "/api/v1/sessions/abc/search", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"superseded", session.ErrSuperseded, http.StatusConflict},
		{"unknown session", session.ErrNotFound, http.StatusNotFound},
		{"location not found", fmt.Errorf("fetching: %w", provider.ErrNotFound), http.StatusNotFound},
		{"circuit open", fmt.Errorf("fetching: %w", provider.ErrCircuitOpen), http.StatusBadGateway},
		{"upstream", errors.New("connection refused"), http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSessions{searchFn: func(context.Context, string, provider.Query) (*session.Result, error) {
				return nil, tc.err
			}}
			w := do(t, buildRouter(deps{sessions: svc}), http.MethodPost, "/api/v1/sessions/abc/search", `{"city":"Paris"}`)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRefreshSession(t *testing.T) {
	svc := &mockSessions{refreshFn: func(_ context.Context, id string) (*session.Result, error) {
		return resultFor(id), nil
	}}
	w := do(t, buildRouter(deps{sessions: svc}), http.MethodPost, "/api/v1/sessions/abc/refresh", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFavorites(t *testing.T) {
	var removed int
	svc := &mockSessions{
		addFavoriteFn: func(_ context.Context, id string) (*session.Result, error) {
			if id == "dup" {
				return nil, session.ErrAlreadyFavorite
			}
			if id == "empty" {
				return nil, session.ErrNoCurrentLocation
			}
			return resultFor(id), nil
		},
		removeFavoriteFn: func(_ context.Context, id string, locationID int) (*session.Result, error) {
			removed = locationID
			return resultFor(id), nil
		},
	}
	router := buildRouter(deps{sessions: svc})

	assert.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/v1/sessions/abc/favorites", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/v1/sessions/dup/favorites", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/v1/sessions/empty/favorites", "").Code)

	w := do(t, router, http.MethodDelete, "/api/v1/sessions/abc/favorites/2988507", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2988507, removed)

	w = do(t, router, http.MethodDelete, "/api/v1/sessions/abc/favorites/paris", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetPreferences(t *testing.T) {
	var got session.Preferences
	svc := &mockSessions{setPrefsFn: func(_ context.Context, id string, p session.Preferences) (*session.Result, error) {
		got = p
		if p.Theme != nil && !p.Theme.Valid() {
			return nil, session.ErrInvalidTheme
		}
		return resultFor(id), nil
	}}
	router := buildRouter(deps{sessions: svc})

	w := do(t, router, http.MethodPut, "/api/v1/sessions/abc/preferences", `{"unit":"imperial","toggle_theme":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.Unit)
	assert.Equal(t, weather.UnitImperial, *got.Unit)
	assert.True(t, got.ToggleTheme)

	w = do(t, router, http.MethodPut, "/api/v1/sessions/abc/preferences", `{"theme":"sepia"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weatherdash/internal/dashboard"
	"github.com/neexbeast/weatherdash/internal/insight"
	"github.com/neexbeast/weatherdash/internal/provider"
	"github.com/neexbeast/weatherdash/internal/session"
	"github.com/neexbeast/weatherdash/internal/weather"
)

// ---- mock implementations ----

type mockFetcher struct {
	fetchAllFn func(ctx context.Context, q provider.Query) (*provider.Bundle, error)
}

func (m *mockFetcher) FetchAll(ctx context.Context, q provider.Query) (*provider.Bundle, error) {
	return m.fetchAllFn(ctx, q)
}

type mockSnapshots struct {
	mu       sync.Mutex
	upserted []string
	err      error
}

func (m *mockSnapshots) UpsertSnapshot(_ context.Context, d dashboard.Dashboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, d.Current.Name)
	return m.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]dashboard.Dashboard
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]dashboard.Dashboard)}
}

func (m *mapCache) Get(_ context.Context, city string) (*dashboard.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[city]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *mapCache) Set(_ context.Context, city string, d *dashboard.Dashboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[city] = *d
	return nil
}

// ---- helpers ----

var cities = map[string]int{"London": 2643743, "Paris": 2988507, "Berlin": 2950159}

func bundleFor(name string) *provider.Bundle {
	return &provider.Bundle{
		Current: &weather.CurrentConditions{
			LocationID:  cities[name],
			Name:        name,
			Coord:       &weather.Coordinates{Lat: 50, Lon: 5},
			Temperature: 20,
			Humidity:    50,
			Category:    weather.CategoryClear,
		},
	}
}

func cityFetcher() *mockFetcher {
	return &mockFetcher{fetchAllFn: func(_ context.Context, q provider.Query) (*provider.Bundle, error) {
		if _, ok := cities[q.City]; !ok {
			return nil, provider.ErrNotFound
		}
		return bundleFor(q.City), nil
	}}
}

type fixture struct {
	svc       *session.Service
	store     *memStore
	cache     *mapCache
	snapshots *mockSnapshots
}

func newFixture(f session.Fetcher) fixture {
	fx := fixture{store: newMemStore(), cache: newMapCache(), snapshots: &mockSnapshots{}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	builder := dashboard.NewBuilder(insight.DefaultPolicy())
	fx.svc = session.NewService(fx.store, f, builder, fx.snapshots, fx.cache, "London", log)
	return fx
}

func createSession(t *testing.T, svc *session.Service) string {
	t.Helper()
	st, err := svc.Create(context.Background())
	require.NoError(t, err)
	return st.ID
}

// ---- tests ----

func TestCreateAndGet(t *testing.T) {
	fx := newFixture(cityFetcher())
	ctx := context.Background()

	st, err := fx.svc.Create(ctx)
	require.NoError(t, err)
	assert.Len(t, st.ID, 36)

	res, err := fx.svc.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ThemeDark, res.State.Theme)
	assert.Nil(t, res.View)

	_, err = fx.svc.Get(ctx, "unknown")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSearch_RecordsHistoryAndPersists(t *testing.T) {
	fx := newFixture(cityFetcher())
	ctx := context.Background()
	id := createSession(t, fx.svc)

	res, err := fx.svc.Search(ctx, id, provider.Query{City: "Paris"})
	require.NoError(t, err)
	require.NotNil(t, res.View)
	assert.Equal(t, "Paris", res.View.Location.Name)
	assert.Equal(t, "20°C", res.View.Current.Temperature)
	require.NotNil(t, res.State.Current)
	assert.Equal(t, 2988507, res.State.Current.LocationID)
	require.Len(t, res.State.History, 1)

	assert.Equal(t, []string{"Paris"}, fx.snapshots.upserted)
	cached, err := fx.cache.Get(ctx, "Paris")
	require.NoError(t, err)
	assert.NotNil(t, cached)

	got, err := fx.svc.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.View, "current dashboard is served from cache")
	assert.Equal(t, "Paris", got.View.Location.Name)
}

func TestSearch_UnknownSession(t *testing.T) {
	fx := newFixture(&mockFetcher{fetchAllFn: func(context.Context, provider.Query) (*provider.Bundle, error) {
		t.Fatal("fetcher should not be called for an unknown session")
		return nil, nil
	}})
	_, err := fx.svc.Search(context.Background(), "nope", provider.Query{City: "Paris"})
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSearch_UpstreamFailure(t *testing.T) {
	fx := newFixture(cityFetcher())
	id := createSession(t, fx.svc)

	_, err := fx.svc.Search(context.Background(), id, provider.Query{City: "Atlantis"})
	assert.ErrorIs(t, err, provider.ErrNotFound)

	res, err := fx.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, res.State.History, "a failed fetch leaves the state unchanged")
}

func TestSearch_CoordinateFallback(t *testing.T) {
	var queries []provider.Query
	f := &mockFetcher{fetchAllFn: func(_ context.Context, q provider.Query) (*provider.Bundle, error) {
		queries = append(queries, q)
		if q.Coord != nil {
			return nil, errors.New("geolocation lookup failed")
		}
		return bundleFor(q.City), nil
	}}
	fx := newFixture(f)
	id := createSession(t, fx.svc)

	res, err := fx.svc.Search(context.Background(), id, provider.Query{Coord: &weather.Coordinates{Lat: 1, Lon: 2}})
	require.NoError(t, err)
	assert.Equal(t, "London", res.State.Current.Name)
	require.Len(t, queries, 2)
	assert.Equal(t, "London", queries[1].City)
}

func TestSearch_LastFetchWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := &mockFetcher{fetchAllFn: func(_ context.Context, q provider.Query) (*provider.Bundle, error) {
		if q.City == "Berlin" {
			close(started)
			<-release
		}
		return bundleFor(q.City), nil
	}}
	fx := newFixture(f)
	ctx := context.Background()
	id := createSession(t, fx.svc)

	slowErr := make(chan error, 1)
	go func() {
		_, err := fx.svc.Search(ctx, id, provider.Query{City: "Berlin"})
		slowErr <- err
	}()
	<-started

	res, err := fx.svc.Search(ctx, id, provider.Query{City: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", res.State.Current.Name)

	close(release)
	select {
	case err := <-slowErr:
		assert.ErrorIs(t, err, session.ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded search did not return")
	}

	got, err := fx.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Paris", got.State.Current.Name)
	assert.Len(t, got.State.History, 1)
}

func TestRefresh(t *testing.T) {
	fx := newFixture(cityFetcher())
	ctx := context.Background()
	id := createSession(t, fx.svc)

	res, err := fx.svc.Refresh(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "London", res.State.Current.Name, "refresh without a location uses the default city")
	assert.Empty(t, res.State.History)

	_, err = fx.svc.Search(ctx, id, provider.Query{City: "Paris"})
	require.NoError(t, err)
	res, err = fx.svc.Refresh(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Paris", res.State.Current.Name)
	assert.Len(t, res.State.History, 1)
}

func TestFavorites(t *testing.T) {
	fx := newFixture(cityFetcher())
	ctx := context.Background()
	id := createSession(t, fx.svc)

	_, err := fx.svc.AddFavorite(ctx, id)
	assert.ErrorIs(t, err, session.ErrNoCurrentLocation)

	_, err = fx.svc.Search(ctx, id, provider.Query{City: "Paris"})
	require.NoError(t, err)

	res, err := fx.svc.AddFavorite(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.State.IsFavorite(2988507))

	_, err = fx.svc.AddFavorite(ctx, id)
	assert.ErrorIs(t, err, session.ErrAlreadyFavorite)

	res, err = fx.svc.RemoveFavorite(ctx, id, 2988507)
	require.NoError(t, err)
	assert.Empty(t, res.State.Favorites)
}

func TestSetPreferences_RerendersInNewUnit(t *testing.T) {
	fx := newFixture(cityFetcher())
	ctx := context.Background()
	id := createSession(t, fx.svc)

	_, err := fx.svc.Search(ctx, id, provider.Query{City: "Paris"})
	require.NoError(t, err)

	imperial := weather.UnitImperial
	res, err := fx.svc.SetPreferences(ctx, id, session.Preferences{Unit: &imperial, ToggleTheme: true})
	require.NoError(t, err)
	assert.Equal(t, weather.UnitImperial, res.State.Unit)
	assert.Equal(t, session.ThemeLight, res.State.Theme)
	require.NotNil(t, res.View)
	assert.Equal(t, "68°F", res.View.Current.Temperature)

	bad := session.Theme("sepia")
	_, err = fx.svc.SetPreferences(ctx, id, session.Preferences{Theme: &bad})
	assert.ErrorIs(t, err, session.ErrInvalidTheme)
}

func TestSearch_SnapshotFailureIsNotFatal(t *testing.T) {
	fx := newFixture(cityFetcher())
	fx.snapshots.err = errors.New("db down")
	id := createSession(t, fx.svc)

	res, err := fx.svc.Search(context.Background(), id, provider.Query{City: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", res.State.Current.Name)
}

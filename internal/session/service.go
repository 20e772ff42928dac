package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/neexbeast/weatherdash/internal/dashboard"
	"github.com/neexbeast/weatherdash/internal/provider"
	"github.com/neexbeast/weatherdash/internal/weather"
)

var (
	// ErrSuperseded is returned when a newer fetch for the same session started
	// before this one finished. Its result is discarded.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
	// ErrNoCurrentLocation is returned by operations that need a current location.
	ErrNoCurrentLocation = errors.New("session has no current location")
)

// Fetcher retrieves the raw weather records for a query.
type Fetcher interface {
	FetchAll(ctx context.Context, q provider.Query) (*provider.Bundle, error)
}

// Builder derives a dashboard from fetched records.
type Builder interface {
	Build(b *provider.Bundle, now time.Time) dashboard.Dashboard
}

// SnapshotStore persists built dashboards.
type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, d dashboard.Dashboard) error
}

// DashboardCache holds recently built dashboards by city name.
// Get returns nil, nil on a miss.
type DashboardCache interface {
	Get(ctx context.Context, city string) (*dashboard.Dashboard, error)
	Set(ctx context.Context, city string, d *dashboard.Dashboard) error
}

// Result is a session state with the dashboard for its current location, when known.
type Result struct {
	State State           `json:"state"`
	View  *dashboard.View `json:"dashboard,omitempty"`
}

// Preferences is a partial update of display settings. Nil fields are unchanged.
type Preferences struct {
	Unit        *weather.Unit `json:"unit,omitempty"`
	Theme       *Theme        `json:"theme,omitempty"`
	ToggleTheme bool          `json:"toggle_theme,omitempty"`
}

// Service runs session operations against the fetcher, cache and stores.
type Service struct {
	store       Store
	fetcher     Fetcher
	builder     Builder
	snapshots   SnapshotStore
	cache       DashboardCache
	tracker     *Tracker
	defaultCity string
	log         *slog.Logger

	now func() time.Time
}

// NewService constructs a Service. snapshots and cache may be nil.
func NewService(store Store, fetcher Fetcher, builder Builder, snapshots SnapshotStore, cache DashboardCache, defaultCity string, log *slog.Logger) *Service {
	return &Service{
		store:       store,
		fetcher:     fetcher,
		builder:     builder,
		snapshots:   snapshots,
		cache:       cache,
		tracker:     NewTracker(),
		defaultCity: defaultCity,
		log:         log,
		now:         time.Now,
	}
}

// Create starts a new session with default preferences.
func (s *Service) Create(ctx context.Context) (State, error) {
	st := New(uuid.NewString())
	if err := Save(ctx, s.store, st); err != nil {
		return State{}, fmt.Errorf("creating session: %w", err)
	}
	s.log.Info("session created", "session_id", st.ID)
	return st, nil
}

// Get returns the state for id with the cached dashboard for its current location.
func (s *Service) Get(ctx context.Context, id string) (*Result, error) {
	st, err := Load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	return &Result{State: st, View: s.cachedView(ctx, st)}, nil
}

// Search fetches weather for q, records it in the history and makes it current.
// A failed coordinate lookup falls back to the default city.
func (s *Service) Search(ctx context.Context, id string, q provider.Query) (*Result, error) {
	return s.fetch(ctx, id, q, true)
}

// Refresh re-fetches the current location, or the default city when there is none.
func (s *Service) Refresh(ctx context.Context, id string) (*Result, error) {
	st, err := Load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	q := provider.Query{City: s.defaultCity}
	if st.Current != nil {
		q = provider.Query{City: st.Current.Name, Coord: st.Current.Coord}
	}
	return s.fetch(ctx, id, q, false)
}

func (s *Service) fetch(ctx context.Context, id string, q provider.Query, record bool) (*Result, error) {
	if _, err := Load(ctx, s.store, id); err != nil {
		return nil, err
	}

	gen := s.tracker.Begin(id)
	defer s.tracker.Done(id, gen)

	b, err := s.fetcher.FetchAll(ctx, q)
	if err != nil && q.Coord != nil && q.City == "" && s.defaultCity != "" {
		s.log.Warn("coordinate lookup failed, falling back to default city",
			"session_id", id, "query", q.String(), "city", s.defaultCity, "err", err)
		b, err = s.fetcher.FetchAll(ctx, provider.Query{City: s.defaultCity})
	}
	if err != nil {
		return nil, fmt.Errorf("fetching weather for session %s: %w", id, err)
	}

	if !s.tracker.Current(id, gen) {
		s.log.Info("discarding superseded fetch", "session_id", id, "query", q.String())
		return nil, ErrSuperseded
	}

	now := s.now()
	d := s.builder.Build(b, now)
	s.persist(ctx, &d)

	// Reload so preference changes made during the fetch are kept.
	st, err := Load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	loc := LocationFrom(d.Current, now)
	if record {
		st = st.RecordSearch(loc)
	} else {
		st = st.SetCurrent(loc)
	}
	if err := Save(ctx, s.store, st); err != nil {
		return nil, err
	}

	v := dashboard.Render(d, st.Unit, nil, now)
	return &Result{State: st, View: &v}, nil
}

// AddFavorite saves the current location as a favorite.
func (s *Service) AddFavorite(ctx context.Context, id string) (*Result, error) {
	st, err := Load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if st.Current == nil {
		return nil, ErrNoCurrentLocation
	}

	fav := *st.Current
	fav.SavedAt = s.now().UTC()
	if st, err = st.AddFavorite(fav); err != nil {
		return nil, err
	}
	if err := Save(ctx, s.store, st); err != nil {
		return nil, err
	}
	return &Result{State: st, View: s.cachedView(ctx, st)}, nil
}

// RemoveFavorite drops locationID from the favorites.
func (s *Service) RemoveFavorite(ctx context.Context, id string, locationID int) (*Result, error) {
	st, err := Load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	st = st.RemoveFavorite(locationID)
	if err := Save(ctx, s.store, st); err != nil {
		return nil, err
	}
	return &Result{State: st, View: s.cachedView(ctx, st)}, nil
}

// SetPreferences applies p and re-renders the current dashboard in the new unit.
func (s *Service) SetPreferences(ctx context.Context, id string, p Preferences) (*Result, error) {
	st, err := Load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	if p.Unit != nil {
		if st, err = st.SetUnit(*p.Unit); err != nil {
			return nil, err
		}
	}
	if p.Theme != nil {
		if st, err = st.SetTheme(*p.Theme); err != nil {
			return nil, err
		}
	}
	if p.ToggleTheme {
		st = st.ToggleTheme()
	}

	if err := Save(ctx, s.store, st); err != nil {
		return nil, err
	}
	return &Result{State: st, View: s.cachedView(ctx, st)}, nil
}

// persist writes d to the snapshot store and cache. Failures are logged only.
func (s *Service) persist(ctx context.Context, d *dashboard.Dashboard) {
	if s.snapshots != nil {
		if err := s.snapshots.UpsertSnapshot(ctx, *d); err != nil {
			s.log.Warn("snapshot upsert failed", "city", d.Current.Name, "err", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, d.Current.Name, d); err != nil {
			s.log.Warn("cache set failed", "city", d.Current.Name, "err", err)
		}
	}
}

func (s *Service) cachedView(ctx context.Context, st State) *dashboard.View {
	if s.cache == nil || st.Current == nil {
		return nil
	}
	d, err := s.cache.Get(ctx, st.Current.Name)
	if err != nil {
		s.log.Warn("cache get failed", "city", st.Current.Name, "err", err)
		return nil
	}
	if d == nil {
		return nil
	}
	v := dashboard.Render(*d, st.Unit, nil, s.now())
	return &v
}

package api

import (
	"context"
	"time"

	"github.com/neexbeast/weatherdash/internal/dashboard"
	"github.com/neexbeast/weatherdash/internal/provider"
	"github.com/neexbeast/weatherdash/internal/session"
	"github.com/neexbeast/weatherdash/internal/storage"
	"github.com/neexbeast/weatherdash/internal/weather"
)

// SnapshotRepo defines the storage operations needed by handlers.
type SnapshotRepo interface {
	GetSnapshotByName(ctx context.Context, name string) (*storage.Snapshot, error)
	UpsertSnapshot(ctx context.Context, d dashboard.Dashboard) error
	ListSnapshotsByCondition(ctx context.Context, category weather.Category) ([]*storage.Snapshot, error)
}

// DashboardCache defines the cache operations needed by handlers.
type DashboardCache interface {
	Get(ctx context.Context, city string) (*dashboard.Dashboard, error)
	Set(ctx context.Context, city string, d *dashboard.Dashboard) error
	Delete(ctx context.Context, city string) error
}

// WeatherFetcher defines the upstream aggregation needed by handlers.
type WeatherFetcher interface {
	FetchAll(ctx context.Context, q provider.Query) (*provider.Bundle, error)
}

// DashboardBuilder derives dashboards from fetched records.
type DashboardBuilder interface {
	Build(b *provider.Bundle, now time.Time) dashboard.Dashboard
}

// SessionService defines the session operations exposed over HTTP.
type SessionService interface {
	Create(ctx context.Context) (session.State, error)
	Get(ctx context.Context, id string) (*session.Result, error)
	Search(ctx context.Context, id string, q provider.Query) (*session.Result, error)
	Refresh(ctx context.Context, id string) (*session.Result, error)
	AddFavorite(ctx context.Context, id string) (*session.Result, error)
	RemoveFavorite(ctx context.Context, id string, locationID int) (*session.Result, error)
	SetPreferences(ctx context.Context, id string, p session.Preferences) (*session.Result, error)
}

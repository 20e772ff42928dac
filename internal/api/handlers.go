package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/weatherdash/internal/dashboard"
	"github.com/neexbeast/weatherdash/internal/provider"
	"github.com/neexbeast/weatherdash/internal/weather"
)

// Handlers serves the city dashboard and snapshot endpoints.
type Handlers struct {
	repo    SnapshotRepo
	cache   DashboardCache
	fetcher WeatherFetcher
	builder DashboardBuilder
	log     *slog.Logger
	now     func() time.Time
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(repo SnapshotRepo, cache DashboardCache, fetcher WeatherFetcher, builder DashboardBuilder, log *slog.Logger) *Handlers {
	return &Handlers{
		repo:    repo,
		cache:   cache,
		fetcher: fetcher,
		builder: builder,
		log:     log,
		now:     time.Now,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeUpstreamError maps a fetch failure to a response status.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, provider.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "invalid location query")
	case errors.Is(err, provider.ErrNotFound):
		writeError(w, http.StatusNotFound, "location not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, provider.ErrCircuitOpen):
		writeError(w, http.StatusBadGateway, "weather provider unavailable")
	default:
		writeError(w, http.StatusBadGateway, "failed to fetch weather data")
	}
}

// GetDashboard handles GET /api/v1/dashboards/{city}.
// Cache hit returns. DB hit re-caches and returns. Neither is a 404.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	unit := weather.ParseUnit(r.URL.Query().Get("unit"))

	cached, err := h.cache.Get(r.Context(), city)
	if err != nil {
		h.log.Error("cache get failed", "city", city, "err", err)
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, dashboard.Render(*cached, unit, nil, h.now()))
		return
	}

	snap, err := h.repo.GetSnapshotByName(r.Context(), city)
	if err != nil {
		h.log.Error("db get failed", "city", city, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "dashboard not found, POST /refresh first")
		return
	}

	if err := h.cache.Set(r.Context(), city, &snap.Data); err != nil {
		h.log.Warn("cache set failed after db hit", "city", city, "err", err)
	}

	writeJSON(w, http.StatusOK, dashboard.Render(snap.Data, unit, nil, h.now()))
}

// RefreshDashboard handles POST /api/v1/dashboards/{city}/refresh.
// Fetches fresh data, rebuilds, upserts the snapshot and repopulates the cache.
func (h *Handlers) RefreshDashboard(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	unit := weather.ParseUnit(r.URL.Query().Get("unit"))

	b, err := h.fetcher.FetchAll(r.Context(), provider.Query{City: city})
	if err != nil {
		h.log.Error("fetch all failed", "city", city, "err", err)
		writeUpstreamError(w, err)
		return
	}

	now := h.now()
	d := h.builder.Build(b, now)

	if err := h.repo.UpsertSnapshot(r.Context(), d); err != nil {
		h.log.Error("upsert failed", "city", city, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store dashboard")
		return
	}

	if err := h.cache.Delete(r.Context(), city); err != nil {
		h.log.Warn("cache delete failed", "city", city, "err", err)
	}
	if err := h.cache.Set(r.Context(), city, &d); err != nil {
		h.log.Warn("cache set failed after refresh", "city", city, "err", err)
	}

	writeJSON(w, http.StatusOK, dashboard.Render(d, unit, nil, now))
}

// ListSnapshots handles GET /api/v1/snapshots?condition=Rain.
func (h *Handlers) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	condition := r.URL.Query().Get("condition")
	if condition == "" {
		writeError(w, http.StatusBadRequest, "condition query parameter is required")
		return
	}
	category := weather.ParseCategory(condition)

	snaps, err := h.repo.ListSnapshotsByCondition(r.Context(), category)
	if err != nil {
		h.log.Error("list snapshots failed", "condition", category, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"condition": category,
		"snapshots": snaps,
	})
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc handles GET /api/v1/health. It pings the database and Redis and
// returns 200 when both answer, 503 otherwise.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		body := map[string]string{"status": "ok", "db": "ok", "redis": "ok"}
		status := http.StatusOK

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			body["db"] = "error"
			status = http.StatusServiceUnavailable
		}
		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			body["redis"] = "error"
			status = http.StatusServiceUnavailable
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}

		writeJSON(w, status, body)
	}
}

package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/weatherdash/internal/weather"
)

const (
	// forecastStride picks one 3-hourly entry per day.
	forecastStride = 8
	dailyPoints    = 5
	hourlyPoints   = 24
)

// conditionsFetcher is the interface satisfied by OpenWeatherMap for current conditions.
type conditionsFetcher interface {
	Current(ctx context.Context, q Query) (*weather.CurrentConditions, error)
}

// forecastFetcher is the interface satisfied by OpenWeatherMap for forecasts.
type forecastFetcher interface {
	Forecast(ctx context.Context, lat, lon float64) ([]weather.ForecastPoint, error)
}

// airQualityFetcher is the interface satisfied by OpenWeatherMap for air pollution.
type airQualityFetcher interface {
	AirQuality(ctx context.Context, lat, lon float64) (*weather.AirQualityReading, error)
}

// Bundle is everything fetched for one location. Daily, Hourly and AirQuality are
// empty when their fetch failed; the failure is recorded in Errors.
type Bundle struct {
	Current    *weather.CurrentConditions `json:"current"`
	Daily      []weather.ForecastPoint    `json:"daily,omitempty"`
	Hourly     []weather.ForecastPoint    `json:"hourly,omitempty"`
	AirQuality *weather.AirQualityReading `json:"air_quality,omitempty"`
	Errors     map[string]string          `json:"errors,omitempty"`
}

// Fetcher aggregates current conditions, forecast and air quality for a location.
type Fetcher struct {
	current    conditionsFetcher
	forecast   forecastFetcher
	airQuality airQualityFetcher
}

// NewFetcher constructs a Fetcher backed by a single OpenWeatherMap client.
func NewFetcher(apiKey string, cfg TransportConfig) *Fetcher {
	owm := NewOpenWeatherMap(apiKey, NewTransport(cfg))
	return &Fetcher{current: owm, forecast: owm, airQuality: owm}
}

// NewFetcherWithClients constructs a Fetcher with injectable clients (used in tests).
func NewFetcherWithClients(c conditionsFetcher, f forecastFetcher, a airQualityFetcher) *Fetcher {
	return &Fetcher{current: c, forecast: f, airQuality: a}
}

// FetchAll fetches current conditions, then forecast and air quality in parallel.
// Current conditions are required and their failure is returned. Forecast and air
// quality failures, panics included, are non-fatal: partial data is returned with
// each failure logged and recorded in Bundle.Errors.
func (f *Fetcher) FetchAll(ctx context.Context, q Query) (*Bundle, error) {
	cur, err := f.current.Current(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetching current conditions for %s: %w", q, err)
	}

	coord := cur.Coord
	if coord == nil {
		coord = q.Coord
	}
	if coord == nil {
		slog.Warn("no coordinates for location, skipping forecast and air quality", "query", q.String())
		return &Bundle{
			Current: cur,
			Errors:  map[string]string{"forecast": "no coordinates", "air_quality": "no coordinates"},
		}, nil
	}

	g, gCtx := errgroup.WithContext(ctx)

	var series []weather.ForecastPoint
	var air *weather.AirQualityReading
	var forecastErr, airErr error

	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("forecast fetch panicked", "query", q.String(), "recover", r)
				forecastErr = fmt.Errorf("forecast fetch panicked: %v", r)
			}
		}()
		pts, fetchErr := f.forecast.Forecast(gCtx, coord.Lat, coord.Lon)
		if fetchErr != nil {
			slog.Warn("forecast fetch failed", "query", q.String(), "err", fetchErr)
			forecastErr = fetchErr
			return nil
		}
		series = pts
		return nil
	})

	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("air quality fetch panicked", "query", q.String(), "recover", r)
				airErr = fmt.Errorf("air quality fetch panicked: %v", r)
			}
		}()
		aq, fetchErr := f.airQuality.AirQuality(gCtx, coord.Lat, coord.Lon)
		if fetchErr != nil {
			slog.Warn("air quality fetch failed", "query", q.String(), "err", fetchErr)
			airErr = fetchErr
			return nil
		}
		air = aq
		return nil
	})

	// Branches record their own failures and always return nil.
	_ = g.Wait()

	b := &Bundle{
		Current:    cur,
		Daily:      DailySample(series),
		Hourly:     HourlySample(series),
		AirQuality: air,
	}
	if forecastErr != nil || airErr != nil {
		b.Errors = make(map[string]string, 2)
		if forecastErr != nil {
			b.Errors["forecast"] = publicError(forecastErr)
		}
		if airErr != nil {
			b.Errors["air_quality"] = publicError(airErr)
		}
	}
	return b, nil
}

// publicError describes err without transport details, which may carry the API key.
func publicError(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	if errors.Is(err, ErrCircuitOpen) {
		return ErrCircuitOpen.Error()
	}
	return "unavailable"
}

// DailySample keeps one entry per day (every 8th 3-hourly entry), up to five days.
func DailySample(series []weather.ForecastPoint) []weather.ForecastPoint {
	out := make([]weather.ForecastPoint, 0, dailyPoints)
	for i := 0; i < len(series) && len(out) < dailyPoints; i += forecastStride {
		out = append(out, series[i])
	}
	return out
}

// HourlySample keeps the leading 24 entries of the series.
func HourlySample(series []weather.ForecastPoint) []weather.ForecastPoint {
	n := min(len(series), hourlyPoints)
	out := make([]weather.ForecastPoint, n)
	copy(out, series[:n])
	return out
}

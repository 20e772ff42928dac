// Package config loads server settings from the environment, optionally seeded
// from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/neexbeast/weatherdash/internal/insight"
	"github.com/neexbeast/weatherdash/internal/provider"
)

// Config holds everything cmd/server needs to wire the service.
type Config struct {
	DatabaseURL    string
	RedisURL       string
	BearerToken    string
	OpenWeatherKey string

	Port          string
	DefaultCity   string
	CacheTTL      time.Duration
	SessionTTL    time.Duration
	MigrationsDir string

	Transport provider.TransportConfig
	Policy    insight.Policy
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. All missing required keys and malformed
// values are reported together.
func FromEnv(getenv func(string) string) (Config, error) {
	e := env{get: getenv}

	cfg := Config{
		DatabaseURL:    e.required("DATABASE_URL"),
		RedisURL:       e.required("REDIS_URL"),
		BearerToken:    e.required("BEARER_TOKEN"),
		OpenWeatherKey: e.required("OPENWEATHER_API_KEY"),
		Port:           e.str("PORT", "8080"),
		DefaultCity:    e.str("DEFAULT_CITY", "London"),
		CacheTTL:       e.duration("CACHE_TTL", 10*time.Minute),
		SessionTTL:     e.duration("SESSION_TTL", 30*24*time.Hour),
		MigrationsDir:  e.str("MIGRATIONS_DIR", "migrations"),
		Transport:      provider.DefaultTransportConfig("openweathermap"),
		Policy:         insight.DefaultPolicy(),
	}

	tc := &cfg.Transport
	tc.RPS = e.number("PROVIDER_RPS", tc.RPS)
	tc.Burst = e.integer("PROVIDER_BURST", tc.Burst)
	tc.Timeout = e.duration("PROVIDER_TIMEOUT", tc.Timeout)
	tc.MaxRetries = uint64(e.integer("PROVIDER_MAX_RETRIES", int(tc.MaxRetries)))
	tc.TripAfter = uint32(e.integer("PROVIDER_TRIP_AFTER", int(tc.TripAfter)))

	th := &cfg.Policy.Thresholds
	th.ExtremeHeat = e.number("INSIGHT_HEAT_C", th.ExtremeHeat)
	th.HighTemp = e.number("INSIGHT_HIGH_TEMP_C", th.HighTemp)
	th.Freezing = e.number("INSIGHT_FREEZING_C", th.Freezing)
	th.Cold = e.number("INSIGHT_COLD_C", th.Cold)
	th.HighHumidity = e.number("INSIGHT_HIGH_HUMIDITY", th.HighHumidity)
	th.LowHumidity = e.number("INSIGHT_LOW_HUMIDITY", th.LowHumidity)
	th.StrongWind = e.number("INSIGHT_STRONG_WIND_MS", th.StrongWind)
	th.Breezy = e.number("INSIGHT_BREEZY_MS", th.Breezy)
	th.TrendWindow = e.integer("INSIGHT_TREND_WINDOW", th.TrendWindow)
	th.PressureDelta = e.number("INSIGHT_PRESSURE_DELTA_HPA", th.PressureDelta)
	cfg.Policy.UV.Max = e.integer("UV_MAX", cfg.Policy.UV.Max)

	if th.TrendWindow < 2 {
		e.errs = append(e.errs, fmt.Errorf("INSIGHT_TREND_WINDOW must be at least 2, got %d", th.TrendWindow))
	}
	if uv := cfg.Policy.UV.Max; uv < 0 || uv > insight.UVScaleMax {
		e.errs = append(e.errs, fmt.Errorf("UV_MAX must be between 0 and %d, got %d", insight.UVScaleMax, uv))
	}
	if tc.Burst < 1 {
		e.errs = append(e.errs, fmt.Errorf("PROVIDER_BURST must be positive, got %d", tc.Burst))
	}

	if err := errors.Join(e.errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// env accumulates lookup and parse errors.
type env struct {
	get  func(string) string
	errs []error
}

func (e *env) required(key string) string {
	v := e.get(key)
	if v == "" {
		e.errs = append(e.errs, fmt.Errorf("required environment variable %s is not set", key))
	}
	return v
}

func (e *env) str(key, fallback string) string {
	if v := e.get(key); v != "" {
		return v
	}
	return fallback
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	v := e.get(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}

func (e *env) integer(key string, fallback int) int {
	v := e.get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}

func (e *env) number(key string, fallback float64) float64 {
	v := e.get(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid number %q", key, v))
		return fallback
	}
	return f
}

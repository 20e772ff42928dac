// Package dashboard assembles fetched weather records and derived insights into a
// single payload, and renders it for a unit system.
package dashboard

import (
	"time"

	"github.com/neexbeast/weatherdash/internal/insight"
	"github.com/neexbeast/weatherdash/internal/provider"
	"github.com/neexbeast/weatherdash/internal/weather"
)

// Dashboard is the unit-independent result of one fetch. Measurements stay metric.
type Dashboard struct {
	Current    weather.CurrentConditions  `json:"current"`
	Daily      []weather.ForecastPoint    `json:"daily"`
	Hourly     []weather.ForecastPoint    `json:"hourly"`
	AirQuality *weather.AirQualityReading `json:"air_quality,omitempty"`

	UVIndex     int                      `json:"uv_index"`
	UVAvailable bool                     `json:"uv_available"`
	AQI         insight.AQITier          `json:"aqi"`
	Pollutants  []insight.PollutantLevel `json:"pollutants,omitempty"`
	Insights    []insight.Insight        `json:"insights"`
	Trends      []insight.Trend          `json:"trends"`

	Errors      map[string]string `json:"errors,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Builder derives dashboards under a fixed policy.
type Builder struct {
	policy    insight.Policy
	generator *insight.Generator
}

// NewBuilder constructs a Builder for p.
func NewBuilder(p insight.Policy) *Builder {
	return &Builder{policy: p, generator: insight.NewGenerator(p.Thresholds)}
}

// Build computes every derived field from b. The UV estimate uses now as the
// reference instant. b.Current must be non-nil.
func (bl *Builder) Build(b *provider.Bundle, now time.Time) Dashboard {
	d := Dashboard{
		Current:     *b.Current,
		Daily:       nonNil(b.Daily),
		Hourly:      nonNil(b.Hourly),
		AirQuality:  b.AirQuality,
		Insights:    bl.generator.Insights(*b.Current),
		Trends:      bl.generator.Trends(b.Daily),
		AQI:         insight.UnknownAQI,
		Errors:      b.Errors,
		GeneratedAt: now.UTC(),
	}

	d.UVIndex, d.UVAvailable = insight.EstimateUV(*b.Current, now, bl.policy.UV)

	if b.AirQuality != nil {
		d.AQI = insight.ClassifyAQI(b.AirQuality.AQI)
		d.Pollutants = insight.Pollutants(*b.AirQuality)
	}

	return d
}

func nonNil(pts []weather.ForecastPoint) []weather.ForecastPoint {
	if pts == nil {
		return []weather.ForecastPoint{}
	}
	return pts
}

// Package weather holds the plain records the dashboard computes over.
// All measurements are stored in metric units; conversion happens at display time.
package weather

import (
	"strings"
	"time"
)

// Category is the coarse weather classification used for icons and heuristics.
type Category string

const (
	CategoryClear        Category = "Clear"
	CategoryClouds       Category = "Clouds"
	CategoryRain         Category = "Rain"
	CategoryDrizzle      Category = "Drizzle"
	CategoryThunderstorm Category = "Thunderstorm"
	CategorySnow         Category = "Snow"
	CategoryOther        Category = "Other"
)

// ParseCategory maps a provider condition name (e.g. "Clear", "rain") to a Category.
// Unrecognized names map to CategoryOther.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clear":
		return CategoryClear
	case "clouds":
		return CategoryClouds
	case "rain":
		return CategoryRain
	case "drizzle":
		return CategoryDrizzle
	case "thunderstorm":
		return CategoryThunderstorm
	case "snow":
		return CategorySnow
	default:
		return CategoryOther
	}
}

// Unit is the active display unit system.
type Unit string

const (
	UnitMetric   Unit = "metric"
	UnitImperial Unit = "imperial"
)

// ParseUnit returns the Unit for s, defaulting to metric.
func ParseUnit(s string) Unit {
	if strings.EqualFold(strings.TrimSpace(s), string(UnitImperial)) {
		return UnitImperial
	}
	return UnitMetric
}

// Valid reports whether u is one of the known unit systems.
func (u Unit) Valid() bool {
	return u == UnitMetric || u == UnitImperial
}

// DefaultVisibility is assumed when the provider omits visibility.
const DefaultVisibility = 10000.0

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CurrentConditions is an immutable snapshot of the weather at a location.
type CurrentConditions struct {
	LocationID    int          `json:"location_id"`
	Name          string       `json:"name"`
	Country       string       `json:"country,omitempty"`
	Coord         *Coordinates `json:"coord,omitempty"`
	Temperature   float64      `json:"temperature"`
	FeelsLike     float64      `json:"feels_like"`
	Humidity      float64      `json:"humidity"`
	WindSpeed     float64      `json:"wind_speed"`
	WindDirection float64      `json:"wind_direction"`
	Visibility    *float64     `json:"visibility,omitempty"`
	Pressure      float64      `json:"pressure"`
	CloudCover    float64      `json:"cloud_cover"`
	Category      Category     `json:"category"`
	Description   string       `json:"description,omitempty"`
	IconCode      string       `json:"icon_code,omitempty"`
	Sunrise       time.Time    `json:"sunrise"`
	Sunset        time.Time    `json:"sunset"`
	ObservedAt    time.Time    `json:"observed_at"`
	// UTCOffset is the location's offset from UTC in seconds.
	UTCOffset int `json:"utc_offset"`
}

// Zone returns the location's fixed time zone.
func (c CurrentConditions) Zone() *time.Location {
	if c.UTCOffset == 0 {
		return time.UTC
	}
	return time.FixedZone("", c.UTCOffset)
}

// VisibilityOrDefault returns the visibility in meters, or DefaultVisibility when absent.
func (c CurrentConditions) VisibilityOrDefault() float64 {
	if c.Visibility == nil {
		return DefaultVisibility
	}
	return *c.Visibility
}

// ForecastPoint is one element of a chronologically ordered forecast.
type ForecastPoint struct {
	Time              time.Time `json:"time"`
	Temperature       float64   `json:"temperature"`
	Humidity          float64   `json:"humidity"`
	Pressure          float64   `json:"pressure"`
	Category          Category  `json:"category"`
	Description       string    `json:"description,omitempty"`
	IconCode          string    `json:"icon_code,omitempty"`
	PrecipProbability float64   `json:"precip_probability"`
}

// AirQualityReading is a single air pollution sample.
type AirQualityReading struct {
	AQI        int                `json:"aqi"`
	Components map[string]float64 `json:"components,omitempty"`
	MeasuredAt time.Time          `json:"measured_at"`
}

// Pollutant symbols as reported by the provider.
const (
	PollutantCO   = "co"
	PollutantNO2  = "no2"
	PollutantO3   = "o3"
	PollutantPM25 = "pm2_5"
	PollutantPM10 = "pm10"
	PollutantSO2  = "so2"
)

// ClampPercent clamps v into [0, 100].
func ClampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

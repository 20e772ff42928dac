// Package insight derives advisories, trends, UV estimates and air quality tiers
// from already-fetched weather records. Every function here is pure.
package insight

import "github.com/neexbeast/weatherdash/internal/weather"

// Policy bundles the tunable constants used by the estimators and generators.
// None of these are physical constants.
type Policy struct {
	UV         UVPolicy
	Thresholds Thresholds
}

// DefaultPolicy returns the stock dashboard policy.
func DefaultPolicy() Policy {
	return Policy{UV: DefaultUVPolicy(), Thresholds: DefaultThresholds()}
}

// CloudStep attenuates the UV estimate once cloud cover exceeds Above percent.
type CloudStep struct {
	Above  float64
	Factor float64
}

// UVScaleMax is the top of the UV index scale reported by EstimateUV.
const UVScaleMax = 11

// UVPolicy parameterises EstimateUV.
type UVPolicy struct {
	// Ceiling is the estimate at the equator; LatitudeDivisor scales the drop with |lat|.
	Ceiling         float64
	LatitudeDivisor float64
	Floor           float64

	// CloudSteps must be ordered by descending Above; the first match applies.
	CloudSteps []CloudStep

	Multipliers       map[weather.Category]float64
	DefaultMultiplier float64
	Max               int
}

// DefaultUVPolicy returns the stock UV heuristic constants.
func DefaultUVPolicy() UVPolicy {
	return UVPolicy{
		Ceiling:         11,
		LatitudeDivisor: 8,
		Floor:           1,
		CloudSteps: []CloudStep{
			{Above: 80, Factor: 0.2},
			{Above: 60, Factor: 0.4},
			{Above: 40, Factor: 0.6},
			{Above: 20, Factor: 0.8},
		},
		Multipliers: map[weather.Category]float64{
			weather.CategoryClear:        1.2,
			weather.CategoryClouds:       0.7,
			weather.CategoryRain:         0.3,
			weather.CategoryDrizzle:      0.3,
			weather.CategoryThunderstorm: 0.1,
			weather.CategorySnow:         0.8,
		},
		DefaultMultiplier: 0.9,
		Max:               UVScaleMax,
	}
}

// Thresholds parameterises the insight and trend rule tables. Temperatures are °C,
// wind is m/s, visibility is meters and pressure is hPa.
type Thresholds struct {
	ExtremeHeat float64
	HighTemp    float64
	Freezing    float64
	Cold        float64

	HighHumidity float64
	LowHumidity  float64

	StrongWind float64
	Breezy     float64

	PoorVisibility    float64
	ReducedVisibility float64

	OutdoorMin float64
	OutdoorMax float64

	TrendWindow     int
	TrendStep       float64
	TrendMinScore   int
	PressureDelta   float64
	HumidPeriodMean float64
}

// DefaultThresholds returns the stock rule table constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExtremeHeat:       35,
		HighTemp:          30,
		Freezing:          0,
		Cold:              5,
		HighHumidity:      85,
		LowHumidity:       30,
		StrongWind:        15,
		Breezy:            10,
		PoorVisibility:    3000,
		ReducedVisibility: 8000,
		OutdoorMin:        15,
		OutdoorMax:        28,
		TrendWindow:       5,
		TrendStep:         1,
		TrendMinScore:     1,
		PressureDelta:     5,
		HumidPeriodMean:   80,
	}
}

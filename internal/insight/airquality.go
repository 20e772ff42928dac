package insight

import "github.com/neexbeast/weatherdash/internal/weather"

// AQITier is the display bucket for an AQI code.
type AQITier struct {
	Code        int    `json:"code"`
	Level       string `json:"level"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

var aqiTiers = [5]AQITier{
	{Code: 1, Level: "Good", Color: "#4ade80", Description: "Air quality is satisfactory"},
	{Code: 2, Level: "Fair", Color: "#facc15", Description: "Acceptable for most people"},
	{Code: 3, Level: "Moderate", Color: "#f97316", Description: "Sensitive groups should limit outdoor activities"},
	{Code: 4, Level: "Poor", Color: "#ef4444", Description: "Everyone should limit outdoor activities"},
	{Code: 5, Level: "Very Poor", Color: "#991b1b", Description: "Health warnings of emergency conditions"},
}

// UnknownAQI is returned for codes outside 1..5.
var UnknownAQI = AQITier{Code: 0, Level: "Unknown", Color: "#6b7280", Description: "Data unavailable"}

// ClassifyAQI maps a 1..5 AQI code to its tier.
func ClassifyAQI(code int) AQITier {
	if code < 1 || code > len(aqiTiers) {
		return UnknownAQI
	}
	return aqiTiers[code-1]
}

// PollutantLevel is one row of the pollutant breakdown.
type PollutantLevel struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
}

var pollutantOrder = []struct {
	key, symbol, name string
}{
	{weather.PollutantCO, "CO", "Carbon Monoxide"},
	{weather.PollutantNO2, "NO₂", "Nitrogen Dioxide"},
	{weather.PollutantO3, "O₃", "Ozone"},
	{weather.PollutantPM25, "PM2.5", "Fine Particles"},
	{weather.PollutantPM10, "PM10", "Coarse Particles"},
	{weather.PollutantSO2, "SO₂", "Sulfur Dioxide"},
}

// Pollutants returns the concentration breakdown (μg/m³) in a fixed display order.
// Missing components report 0.
func Pollutants(r weather.AirQualityReading) []PollutantLevel {
	out := make([]PollutantLevel, 0, len(pollutantOrder))
	for _, p := range pollutantOrder {
		out = append(out, PollutantLevel{Symbol: p.symbol, Name: p.name, Value: r.Components[p.key]})
	}
	return out
}

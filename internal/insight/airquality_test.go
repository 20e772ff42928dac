package insight_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weatherdash/internal/insight"
	"github.com/neexbeast/weatherdash/internal/weather"
)

func TestClassifyAQI_KnownCodes(t *testing.T) {
	levels := []string{"Good", "Fair", "Moderate", "Poor", "Very Poor"}
	for i, level := range levels {
		tier := insight.ClassifyAQI(i + 1)
		assert.Equal(t, level, tier.Level)
		assert.Equal(t, i+1, tier.Code)
		assert.NotEmpty(t, tier.Color)
		assert.NotEmpty(t, tier.Description)
	}
	assert.Equal(t, "#4ade80", insight.ClassifyAQI(1).Color)
	assert.Equal(t, "#991b1b", insight.ClassifyAQI(5).Color)
}

func TestClassifyAQI_Unknown(t *testing.T) {
	for _, code := range []int{0, 6, -1, 100} {
		tier := insight.ClassifyAQI(code)
		assert.Equal(t, insight.UnknownAQI, tier, "code %d", code)
	}
	assert.Equal(t, "Data unavailable", insight.UnknownAQI.Description)
}

func TestPollutants(t *testing.T) {
	got := insight.Pollutants(weather.AirQualityReading{
		AQI: 2,
		Components: map[string]float64{
			weather.PollutantPM25: 12.4,
			weather.PollutantCO:   201.9,
		},
	})

	require.Len(t, got, 6)
	assert.Equal(t, "CO", got[0].Symbol)
	assert.Equal(t, 201.9, got[0].Value)
	assert.Equal(t, "PM2.5", got[3].Symbol)
	assert.Equal(t, "Fine Particles", got[3].Name)
	assert.Equal(t, 12.4, got[3].Value)
	assert.Zero(t, got[5].Value)
}

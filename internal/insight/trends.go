package insight

import (
	"fmt"
	"math"

	"github.com/neexbeast/weatherdash/internal/weather"
)

// TrendCategory tags a Trend.
type TrendCategory string

const (
	TrendPositive TrendCategory = "positive"
	TrendNegative TrendCategory = "negative"
	TrendWarning  TrendCategory = "warning"
	TrendInfo     TrendCategory = "info"
)

// TrendKind names the series a Trend was derived from.
type TrendKind string

const (
	KindTemperature TrendKind = "temperature"
	KindPressure    TrendKind = "pressure"
	KindHumidity    TrendKind = "humidity"
)

// Trend is a directional summary over the leading forecast points.
// Delta is in °C, hPa or percent depending on Kind.
type Trend struct {
	Kind        TrendKind     `json:"kind"`
	Icon        string        `json:"icon"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    TrendCategory `json:"category"`
	Value       string        `json:"value,omitempty"`
	Delta       float64       `json:"delta"`
}

// Trends summarises temperature, pressure and humidity over the first TrendWindow
// points. Fewer than two points yield no trends.
func (g *Generator) Trends(points []weather.ForecastPoint) []Trend {
	window := points
	if g.t.TrendWindow > 0 && len(window) > g.t.TrendWindow {
		window = window[:g.t.TrendWindow]
	}
	if len(window) < 2 {
		return []Trend{}
	}

	out := make([]Trend, 0, 3)
	for _, eval := range []func([]weather.ForecastPoint) (Trend, bool){
		g.temperatureTrend,
		g.pressureTrend,
		g.humidityTrend,
	} {
		if tr, ok := eval(window); ok {
			out = append(out, tr)
		}
	}
	return out
}

// temperatureTrend scores each step +1/-1 when it moves by at least TrendStep degrees.
func (g *Generator) temperatureTrend(pts []weather.ForecastPoint) (Trend, bool) {
	score := 0
	for i := 1; i < len(pts); i++ {
		diff := pts[i].Temperature - pts[i-1].Temperature
		switch {
		case diff >= g.t.TrendStep:
			score++
		case diff <= -g.t.TrendStep:
			score--
		}
	}

	avg := (pts[len(pts)-1].Temperature - pts[0].Temperature) / float64(len(pts)-1)

	switch {
	case score > g.t.TrendMinScore:
		return Trend{
			Kind:        KindTemperature,
			Icon:        "📈",
			Title:       "Rising Temperature",
			Description: "Temperatures are trending upward over the forecast period.",
			Category:    TrendPositive,
			Value:       fmt.Sprintf("%+d°", roundInt(avg)),
			Delta:       avg,
		}, true
	case score < -g.t.TrendMinScore:
		return Trend{
			Kind:        KindTemperature,
			Icon:        "📉",
			Title:       "Cooling Trend",
			Description: "Temperatures are expected to drop in the coming days.",
			Category:    TrendNegative,
			Value:       fmt.Sprintf("%d°", roundInt(avg)),
			Delta:       avg,
		}, true
	}
	return Trend{}, false
}

func (g *Generator) pressureTrend(pts []weather.ForecastPoint) (Trend, bool) {
	change := pts[len(pts)-1].Pressure - pts[0].Pressure

	switch {
	case change > g.t.PressureDelta:
		return Trend{
			Kind:        KindPressure,
			Icon:        "📊",
			Title:       "Rising Pressure",
			Description: "High pressure system approaching. Expect clearer skies.",
			Category:    TrendPositive,
			Value:       fmt.Sprintf("%+d hPa", roundInt(change)),
			Delta:       change,
		}, true
	case change < -g.t.PressureDelta:
		return Trend{
			Kind:        KindPressure,
			Icon:        "🌀",
			Title:       "Falling Pressure",
			Description: "Low pressure system. Possible stormy weather ahead.",
			Category:    TrendWarning,
			Value:       fmt.Sprintf("%d hPa", roundInt(change)),
			Delta:       change,
		}, true
	}
	return Trend{}, false
}

func (g *Generator) humidityTrend(pts []weather.ForecastPoint) (Trend, bool) {
	var sum float64
	for _, p := range pts {
		sum += weather.ClampPercent(p.Humidity)
	}
	mean := sum / float64(len(pts))

	if mean <= g.t.HumidPeriodMean {
		return Trend{}, false
	}
	return Trend{
		Kind:        KindHumidity,
		Icon:        "💧",
		Title:       "High Humidity Period",
		Description: "Expect muggy conditions throughout the forecast.",
		Category:    TrendInfo,
		Value:       fmt.Sprintf("%d%%", roundInt(mean)),
		Delta:       mean,
	}, true
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

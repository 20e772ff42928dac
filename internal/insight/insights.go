package insight

import "github.com/neexbeast/weatherdash/internal/weather"

// Severity tags an Insight.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityTip     Severity = "tip"
)

// Insight is a short advisory derived from current conditions.
type Insight struct {
	Icon        string   `json:"icon"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Value       string   `json:"value,omitempty"`
}

// rule emits its insight when the predicate holds.
type rule struct {
	when    func(weather.CurrentConditions) bool
	insight Insight
}

// family is an ordered rule list; the first matching rule wins.
type family struct {
	name  string
	rules []rule
}

// Generator evaluates the insight and trend rule tables under a Policy.
type Generator struct {
	t        Thresholds
	families []family
}

// NewGenerator builds the rule tables from t.
func NewGenerator(t Thresholds) *Generator {
	return &Generator{t: t, families: insightFamilies(t)}
}

// Insights evaluates each family in order (temperature, humidity, wind, visibility,
// activity) and appends at most one insight per family.
func (g *Generator) Insights(c weather.CurrentConditions) []Insight {
	out := make([]Insight, 0, len(g.families))
	for _, f := range g.families {
		for _, r := range f.rules {
			if r.when(c) {
				out = append(out, r.insight)
				break
			}
		}
	}
	return out
}

func insightFamilies(t Thresholds) []family {
	temp := func(c weather.CurrentConditions) float64 { return c.Temperature }
	humidity := func(c weather.CurrentConditions) float64 { return weather.ClampPercent(c.Humidity) }
	wind := func(c weather.CurrentConditions) float64 { return c.WindSpeed }
	visibility := func(c weather.CurrentConditions) float64 { return c.VisibilityOrDefault() }

	return []family{
		{name: "temperature", rules: []rule{
			{
				when: func(c weather.CurrentConditions) bool { return temp(c) > t.ExtremeHeat },
				insight: Insight{
					Icon:        "🔥",
					Title:       "Extreme Heat Alert",
					Description: "Dangerous heat levels. Avoid prolonged sun exposure and stay hydrated.",
					Severity:    SeverityWarning,
				},
			},
			{
				when: func(c weather.CurrentConditions) bool { return temp(c) > t.HighTemp },
				insight: Insight{
					Icon:        "🌡️",
					Title:       "High Temperature",
					Description: "Hot weather ahead. Stay cool and drink plenty of water.",
					Severity:    SeverityWarning,
				},
			},
			{
				when: func(c weather.CurrentConditions) bool { return temp(c) < t.Freezing },
				insight: Insight{
					Icon:        "🧊",
					Title:       "Freezing Conditions",
					Description: "Temperature below freezing. Watch for ice and dress warmly.",
					Severity:    SeverityWarning,
				},
			},
			{
				when: func(c weather.CurrentConditions) bool { return temp(c) < t.Cold },
				insight: Insight{
					Icon:        "❄️",
					Title:       "Cold Weather",
					Description: "Chilly conditions. Layer up and stay warm.",
					Severity:    SeverityInfo,
				},
			},
		}},
		{name: "humidity", rules: []rule{
			{
				when: func(c weather.CurrentConditions) bool { return humidity(c) > t.HighHumidity },
				insight: Insight{
					Icon:        "💧",
					Title:       "Very High Humidity",
					Description: "Muggy conditions. You may feel warmer than the actual temperature.",
					Severity:    SeverityInfo,
				},
			},
			{
				when: func(c weather.CurrentConditions) bool { return humidity(c) < t.LowHumidity },
				insight: Insight{
					Icon:        "🏜️",
					Title:       "Low Humidity",
					Description: "Dry air conditions. Stay hydrated and use moisturizer.",
					Severity:    SeverityInfo,
				},
			},
		}},
		{name: "wind", rules: []rule{
			{
				when: func(c weather.CurrentConditions) bool { return wind(c) > t.StrongWind },
				insight: Insight{
					Icon:        "💨",
					Title:       "Strong Winds",
					Description: "Very windy conditions. Secure loose items and drive carefully.",
					Severity:    SeverityWarning,
				},
			},
			{
				when: func(c weather.CurrentConditions) bool { return wind(c) > t.Breezy },
				insight: Insight{
					Icon:        "🌬️",
					Title:       "Breezy Conditions",
					Description: "Moderate winds expected. Be cautious with outdoor activities.",
					Severity:    SeverityInfo,
				},
			},
		}},
		{name: "visibility", rules: []rule{
			{
				when: func(c weather.CurrentConditions) bool { return visibility(c) < t.PoorVisibility },
				insight: Insight{
					Icon:        "🌫️",
					Title:       "Poor Visibility",
					Description: "Limited visibility. Use headlights and drive slowly.",
					Severity:    SeverityWarning,
				},
			},
			{
				when: func(c weather.CurrentConditions) bool { return visibility(c) < t.ReducedVisibility },
				insight: Insight{
					Icon:        "👁️",
					Title:       "Reduced Visibility",
					Description: "Visibility is somewhat limited. Exercise caution.",
					Severity:    SeverityInfo,
				},
			},
		}},
		{name: "activity", rules: []rule{
			{
				when: func(c weather.CurrentConditions) bool {
					return c.Category == weather.CategoryClear && temp(c) > t.OutdoorMin && temp(c) < t.OutdoorMax
				},
				insight: Insight{
					Icon:        "🌞",
					Title:       "Perfect Day Outside",
					Description: "Ideal conditions for outdoor activities and exercise!",
					Severity:    SeverityTip,
				},
			},
			{
				when: func(c weather.CurrentConditions) bool { return c.Category == weather.CategoryRain },
				insight: Insight{
					Icon:        "☔",
					Title:       "Indoor Day",
					Description: "Great weather for indoor activities. Don't forget your umbrella!",
					Severity:    SeverityTip,
				},
			},
		}},
	}
}

package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/neexbeast/weatherdash/internal/format"
	"github.com/neexbeast/weatherdash/internal/insight"
	"github.com/neexbeast/weatherdash/internal/weather"
)

// View is a Dashboard with every measurement formatted for one unit system.
type View struct {
	Unit        weather.Unit      `json:"unit"`
	Location    LocationView      `json:"location"`
	Current     CurrentView       `json:"current"`
	Hourly      []PointView       `json:"hourly"`
	Daily       []PointView       `json:"daily"`
	AirQuality  insight.AQITier   `json:"air_quality"`
	Pollutants  []PollutantView   `json:"pollutants,omitempty"`
	Insights    []insight.Insight `json:"insights"`
	Trends      []insight.Trend   `json:"trends"`
	Errors      map[string]string `json:"errors,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// LocationView identifies the location shown.
type LocationView struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Country     string `json:"country,omitempty"`
	Coordinates string `json:"coordinates,omitempty"`
}

// CurrentView holds display strings for current conditions.
type CurrentView struct {
	Temperature   string           `json:"temperature"`
	FeelsLike     string           `json:"feels_like"`
	Category      weather.Category `json:"category"`
	Description   string           `json:"description,omitempty"`
	Icon          string           `json:"icon,omitempty"`
	Humidity      string           `json:"humidity"`
	Wind          string           `json:"wind"`
	WindDirection string           `json:"wind_direction"`
	Visibility    string           `json:"visibility"`
	Pressure      string           `json:"pressure"`
	Clouds        string           `json:"clouds"`
	Sunrise       string           `json:"sunrise,omitempty"`
	Sunset        string           `json:"sunset,omitempty"`
	UVIndex       string           `json:"uv_index"`
}

// PointView is one forecast entry formatted for display.
type PointView struct {
	Label         string           `json:"label"`
	Temperature   string           `json:"temperature"`
	Precipitation string           `json:"precipitation"`
	Humidity      string           `json:"humidity"`
	Category      weather.Category `json:"category"`
	Description   string           `json:"description,omitempty"`
	Icon          string           `json:"icon,omitempty"`
}

// PollutantView is one pollutant concentration formatted for display.
type PollutantView struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

// Render formats d for unit u. Clock times use loc, or the location's own UTC
// offset when loc is nil. Day labels are relative to now in that zone.
func Render(d Dashboard, u weather.Unit, loc *time.Location, now time.Time) View {
	if loc == nil {
		loc = d.Current.Zone()
	}
	now = now.In(loc)
	c := d.Current

	v := View{
		Unit: u,
		Location: LocationView{
			ID:      c.LocationID,
			Name:    c.Name,
			Country: c.Country,
		},
		Current: CurrentView{
			Temperature:   format.Temperature(c.Temperature, u),
			FeelsLike:     format.Temperature(c.FeelsLike, u),
			Category:      c.Category,
			Description:   c.Description,
			Icon:          c.IconCode,
			Humidity:      format.Percent(c.Humidity),
			Wind:          format.WindSpeed(c.WindSpeed, u),
			WindDirection: format.CompassDirection(c.WindDirection),
			Visibility:    format.Visibility(c.VisibilityOrDefault()),
			Pressure:      format.Pressure(c.Pressure),
			Clouds:        format.Percent(c.CloudCover),
			UVIndex:       "n/a",
		},
		Hourly:      make([]PointView, 0, len(d.Hourly)),
		Daily:       make([]PointView, 0, len(d.Daily)),
		AirQuality:  d.AQI,
		Insights:    d.Insights,
		Trends:      renderTrends(d.Trends, u),
		Errors:      d.Errors,
		GeneratedAt: d.GeneratedAt,
	}

	if c.Coord != nil {
		v.Location.Coordinates = fmt.Sprintf("%.2f°, %.2f°", c.Coord.Lat, c.Coord.Lon)
	}
	if !c.Sunrise.IsZero() {
		v.Current.Sunrise = format.TimeOfDay(c.Sunrise, loc)
	}
	if !c.Sunset.IsZero() {
		v.Current.Sunset = format.TimeOfDay(c.Sunset, loc)
	}
	if d.UVAvailable {
		v.Current.UVIndex = strconv.Itoa(d.UVIndex)
	}

	for i, p := range d.Hourly {
		label := "Now"
		if i > 0 {
			label = format.TimeOfDay(p.Time, loc)
		}
		v.Hourly = append(v.Hourly, renderPoint(p, label, u))
	}
	for _, p := range d.Daily {
		v.Daily = append(v.Daily, renderPoint(p, format.DayLabel(p.Time, now), u))
	}
	for _, p := range d.Pollutants {
		v.Pollutants = append(v.Pollutants, PollutantView{
			Symbol: p.Symbol,
			Name:   p.Name,
			Value:  fmt.Sprintf("%d μg/m³", int(math.Round(p.Value))),
		})
	}

	return v
}

func renderPoint(p weather.ForecastPoint, label string, u weather.Unit) PointView {
	return PointView{
		Label:         label,
		Temperature:   format.Temperature(p.Temperature, u),
		Precipitation: format.Probability(p.PrecipProbability),
		Humidity:      format.Percent(p.Humidity),
		Category:      p.Category,
		Description:   p.Description,
		Icon:          p.IconCode,
	}
}

// renderTrends rewrites temperature deltas into Fahrenheit degrees for imperial units.
func renderTrends(trends []insight.Trend, u weather.Unit) []insight.Trend {
	out := make([]insight.Trend, len(trends))
	copy(out, trends)
	if u != weather.UnitImperial {
		return out
	}
	for i, t := range out {
		if t.Kind != insight.KindTemperature {
			continue
		}
		delta := t.Delta * 9 / 5
		out[i].Delta = delta
		if t.Category == insight.TrendPositive {
			out[i].Value = fmt.Sprintf("%+d°", int(math.Round(delta)))
		} else {
			out[i].Value = fmt.Sprintf("%d°", int(math.Round(delta)))
		}
	}
	return out
}

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/neexbeast/weatherdash/internal/weather"
)

const owmDefaultURL = "https://api.openweathermap.org/data/2.5"

// ErrInvalidQuery is returned when a Query has neither a city nor coordinates.
var ErrInvalidQuery = errors.New("query needs a city name or coordinates")

// Query selects a location either by name or by coordinates.
type Query struct {
	City  string               `json:"city,omitempty"`
	Coord *weather.Coordinates `json:"coord,omitempty"`
}

// Validate checks that q identifies a location.
func (q Query) Validate() error {
	if q.Coord != nil {
		if q.Coord.Lat < -90 || q.Coord.Lat > 90 || q.Coord.Lon < -180 || q.Coord.Lon > 180 {
			return fmt.Errorf("coordinates out of range: %w", ErrInvalidQuery)
		}
		return nil
	}
	if q.City == "" {
		return ErrInvalidQuery
	}
	return nil
}

func (q Query) String() string {
	if q.Coord != nil {
		return fmt.Sprintf("%.4f,%.4f", q.Coord.Lat, q.Coord.Lon)
	}
	return q.City
}

// OpenWeatherMap fetches current conditions, forecasts and air pollution.
// Requests always use metric units.
type OpenWeatherMap struct {
	apiKey  string
	baseURL string
	client  Doer
}

// NewOpenWeatherMap constructs a client against the production API.
// A nil client gets a Transport with default settings.
func NewOpenWeatherMap(apiKey string, client Doer) *OpenWeatherMap {
	return NewOpenWeatherMapWithURL(owmDefaultURL, apiKey, client)
}

// NewOpenWeatherMapWithURL constructs a client pointing at a custom base URL (for tests).
func NewOpenWeatherMapWithURL(baseURL, apiKey string, client Doer) *OpenWeatherMap {
	if client == nil {
		client = NewTransport(DefaultTransportConfig("openweathermap"))
	}
	return &OpenWeatherMap{apiKey: apiKey, baseURL: baseURL, client: client}
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmCurrentResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Coord *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []owmCondition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Visibility *float64 `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Dt       int64 `json:"dt"`
	Timezone int   `json:"timezone"`
	Sys      struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

type owmForecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Pressure float64 `json:"pressure"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []owmCondition `json:"weather"`
		Pop     float64        `json:"pop"`
	} `json:"list"`
}

type owmAirResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
	} `json:"list"`
}

func (c *OpenWeatherMap) endpoint(path string, params url.Values) string {
	params.Set("appid", c.apiKey)
	return c.baseURL + path + "?" + params.Encode()
}

func coordParams(lat, lon float64) url.Values {
	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	v.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return v
}

// Current retrieves current conditions for q.
func (c *OpenWeatherMap) Current(ctx context.Context, q Query) (*weather.CurrentConditions, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	if q.Coord != nil {
		params = coordParams(q.Coord.Lat, q.Coord.Lon)
	} else {
		params.Set("q", q.City)
	}
	params.Set("units", "metric")

	var raw owmCurrentResponse
	if err := doGet(ctx, c.client, c.endpoint("/weather", params), &raw); err != nil {
		return nil, fmt.Errorf("openweathermap current for %s: %w", q, err)
	}

	cur := &weather.CurrentConditions{
		LocationID:    raw.ID,
		Name:          raw.Name,
		Country:       raw.Sys.Country,
		Temperature:   raw.Main.Temp,
		FeelsLike:     raw.Main.FeelsLike,
		Humidity:      raw.Main.Humidity,
		WindSpeed:     raw.Wind.Speed,
		WindDirection: raw.Wind.Deg,
		Visibility:    raw.Visibility,
		Pressure:      raw.Main.Pressure,
		CloudCover:    raw.Clouds.All,
		Category:      weather.CategoryOther,
		Sunrise:       unixOrZero(raw.Sys.Sunrise),
		Sunset:        unixOrZero(raw.Sys.Sunset),
		ObservedAt:    unixOrZero(raw.Dt),
		UTCOffset:     raw.Timezone,
	}
	if raw.Coord != nil {
		cur.Coord = &weather.Coordinates{Lat: raw.Coord.Lat, Lon: raw.Coord.Lon}
	}
	if len(raw.Weather) > 0 {
		cur.Category = weather.ParseCategory(raw.Weather[0].Main)
		cur.Description = raw.Weather[0].Description
		cur.IconCode = raw.Weather[0].Icon
	}

	return cur, nil
}

// Forecast retrieves the 3-hourly forecast series for a location, in chronological order.
func (c *OpenWeatherMap) Forecast(ctx context.Context, lat, lon float64) ([]weather.ForecastPoint, error) {
	params := coordParams(lat, lon)
	params.Set("units", "metric")

	var raw owmForecastResponse
	if err := doGet(ctx, c.client, c.endpoint("/forecast", params), &raw); err != nil {
		return nil, fmt.Errorf("openweathermap forecast for %.4f,%.4f: %w", lat, lon, err)
	}

	points := make([]weather.ForecastPoint, 0, len(raw.List))
	for _, e := range raw.List {
		p := weather.ForecastPoint{
			Time:              time.Unix(e.Dt, 0).UTC(),
			Temperature:       e.Main.Temp,
			Humidity:          e.Main.Humidity,
			Pressure:          e.Main.Pressure,
			Category:          weather.CategoryOther,
			PrecipProbability: e.Pop,
		}
		if len(e.Weather) > 0 {
			p.Category = weather.ParseCategory(e.Weather[0].Main)
			p.Description = e.Weather[0].Description
			p.IconCode = e.Weather[0].Icon
		}
		points = append(points, p)
	}

	return points, nil
}

// AirQuality retrieves the latest air pollution sample for a location.
func (c *OpenWeatherMap) AirQuality(ctx context.Context, lat, lon float64) (*weather.AirQualityReading, error) {
	var raw owmAirResponse
	if err := doGet(ctx, c.client, c.endpoint("/air_pollution", coordParams(lat, lon)), &raw); err != nil {
		return nil, fmt.Errorf("openweathermap air pollution for %.4f,%.4f: %w", lat, lon, err)
	}

	if len(raw.List) == 0 {
		return nil, fmt.Errorf("openweathermap air pollution: no results for %.4f,%.4f", lat, lon)
	}

	entry := raw.List[0]
	return &weather.AirQualityReading{
		AQI:        entry.Main.AQI,
		Components: entry.Components,
		MeasuredAt: unixOrZero(entry.Dt),
	}, nil
}

func unixOrZero(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// Package format turns metric measurements into display strings for a unit system.
package format

import (
	"fmt"
	"math"
	"time"

	"github.com/neexbeast/weatherdash/internal/weather"
)

const (
	msToKmh = 3.6
	msToMph = 2.2369362921
)

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CelsiusToFahrenheit converts °C to °F.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// FahrenheitToCelsius converts °F to °C.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// TemperatureValue returns celsius expressed in u.
func TemperatureValue(celsius float64, u weather.Unit) float64 {
	if u == weather.UnitImperial {
		return CelsiusToFahrenheit(celsius)
	}
	return celsius
}

// Temperature formats celsius as a rounded value with its unit symbol, e.g. "22°C".
func Temperature(celsius float64, u weather.Unit) string {
	symbol := "C"
	if u == weather.UnitImperial {
		symbol = "F"
	}
	return fmt.Sprintf("%d°%s", roundInt(TemperatureValue(celsius, u)), symbol)
}

// WindSpeed formats a speed in m/s as km/h (metric) or mph (imperial).
func WindSpeed(ms float64, u weather.Unit) string {
	if u == weather.UnitImperial {
		return fmt.Sprintf("%d mph", roundInt(ms*msToMph))
	}
	return fmt.Sprintf("%d km/h", roundInt(ms*msToKmh))
}

// Visibility formats meters as whole kilometers.
func Visibility(meters float64) string {
	return fmt.Sprintf("%d km", roundInt(meters/1000))
}

// Pressure formats hPa.
func Pressure(hpa float64) string {
	return fmt.Sprintf("%d hPa", roundInt(hpa))
}

// Percent clamps v into [0, 100] and formats it, e.g. "64%".
func Percent(v float64) string {
	return fmt.Sprintf("%d%%", roundInt(weather.ClampPercent(v)))
}

// Probability formats a 0..1 probability as a percentage.
func Probability(p float64) string {
	return Percent(p * 100)
}

// TimeOfDay formats t as a 12-hour clock time in loc, e.g. "06:42 AM".
// A nil loc keeps t's own location.
func TimeOfDay(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("03:04 PM")
}

// DayLabel returns "Today", "Tomorrow" or a short date such as "Mon, Jan 2",
// comparing calendar days in now's location.
func DayLabel(t, now time.Time) string {
	t = t.In(now.Location())
	if sameDay(t, now) {
		return "Today"
	}
	if sameDay(t, now.AddDate(0, 0, 1)) {
		return "Tomorrow"
	}
	return t.Format("Mon, Jan 2")
}

// CompassDirection maps wind degrees onto one of 16 compass points.
func CompassDirection(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return compassPoints[int(math.Round(deg/22.5))%len(compassPoints)]
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func roundInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

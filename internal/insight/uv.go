package insight

import (
	"math"
	"time"

	"github.com/neexbeast/weatherdash/internal/weather"
)

// EstimateUV approximates the UV index from sun position, latitude, cloud cover and
// condition category. The provider reports no UV measurement, so this is a coarse
// heuristic and not a radiative model.
//
// ok is false when sunrise, sunset or coordinates are missing; callers should show
// "no estimate" rather than an error. Outside daylight the estimate is exactly 0.
func EstimateUV(c weather.CurrentConditions, now time.Time, p UVPolicy) (index int, ok bool) {
	if c.Sunrise.IsZero() || c.Sunset.IsZero() || c.Coord == nil {
		return 0, false
	}
	if now.Before(c.Sunrise) || now.After(c.Sunset) {
		return 0, true
	}

	uv := math.Max(p.Floor, p.Ceiling-math.Abs(c.Coord.Lat)/p.LatitudeDivisor)
	uv *= cloudFactor(weather.ClampPercent(c.CloudCover), p.CloudSteps)

	mult, found := p.Multipliers[c.Category]
	if !found {
		mult = p.DefaultMultiplier
	}
	uv *= mult

	rounded := int(math.Round(uv))
	limit := min(p.Max, UVScaleMax)
	switch {
	case rounded < 0:
		return 0, true
	case rounded > limit:
		return limit, true
	default:
		return rounded, true
	}
}

func cloudFactor(cover float64, steps []CloudStep) float64 {
	for _, s := range steps {
		if cover > s.Above {
			return s.Factor
		}
	}
	return 1
}

package fixture

import (
	"math"
)

// WideMax is the top of the 16-bit range, split as value/255 and
// value%255 into the coarse and fine slots.
const WideMax = 65025

// Normalized returns the value in [0,1] that state presents for kind.
func Normalized(state State, r Range, kind Kind) float64 {
	c := state.Color()

	var v float64
	switch kind {
	case Brightness:
		v = state.Brightness()
	case Red:
		v = c.R
	case Green:
		v = c.G
	case Blue:
		v = c.B
	case White:
		v = math.Min(c.R, math.Min(c.G, c.B))
	case Hue:
		h, _, _ := c.Hsv()
		v = h / 360
	case Saturation:
		_, s, _ := c.Hsv()
		v = s
	case ColorTemperature:
		v = temperaturePosition(state.Temperature(), r)
	case ColdWhite:
		t := temperaturePosition(state.Temperature(), r)
		v = math.Min(1, t/0.5) * state.Brightness()
	case WarmWhite:
		t := temperaturePosition(state.Temperature(), r)
		v = math.Min(1, (1-t)/0.5) * state.Brightness()
	}
	return clamp01(v)
}

// temperaturePosition maps kelvin from [warm, cold] onto [0,1].
func temperaturePosition(kelvin int, r Range) float64 {
	if r.Cold == r.Warm {
		return 0
	}
	return clamp01(float64(kelvin-r.Warm) / float64(r.Cold-r.Warm))
}

// Quantize turns a normalised value into the bytes written for ch: one for
// an 8-bit channel, coarse then fine for a 16-bit one. Inversion is applied
// here, before quantisation.
func Quantize(ch Channel, v float64) []byte {
	v = clamp01(v)
	if ch.Inverted {
		v = 1 - v
	}
	// 1-(1-v) must land on the same step as v.
	v = math.Round(v*1e9) / 1e9

	if ch.Wide {
		n := int(math.Round(v * WideMax))
		return []byte{byte(n / 255), byte(n % 255)}
	}

	n := math.Round(float64(ch.Min) + v*float64(ch.Max-ch.Min))
	return []byte{byte(clampInt(int(n), 0, 255))}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

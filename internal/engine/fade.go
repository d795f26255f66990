package engine

import (
	"math"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"stagelights/internal/fixture"
)

// attribute is the part of a fixture's state a fade drives. Colour and
// temperature both drive the diffuse colour and share a slot.
type attribute int

const (
	attrColor attribute = iota
	attrBrightness
)

type fadeKey struct {
	fixture string
	attr    attribute
}

// fade moves one attribute of one fixture towards a target.
type fade struct {
	start    time.Time
	duration time.Duration
	easing   Easing

	fromColor, toColor colorful.Color
	fromKelvin, toKelvin int
	kelvin               bool

	fromBrightness, toBrightness float64
}

func (f *fade) progress(now time.Time) float64 {
	if f.duration <= 0 {
		return 1
	}
	return float64(now.Sub(f.start)) / float64(f.duration)
}

// step writes the state at now into fx and reports whether the fade is done.
func (f *fade) step(key fadeKey, fx *fixture.Fixture, now time.Time) bool {
	p := f.progress(now)
	done := p >= 1

	switch key.attr {
	case attrBrightness:
		if done {
			fx.SetBrightness(f.toBrightness)
		} else {
			fx.SetBrightness(f.easing.Interpolate(f.fromBrightness, f.toBrightness, p))
		}
	case attrColor:
		switch {
		case f.kelvin && done:
			fx.SetTemperature(f.toKelvin)
		case f.kelvin:
			k := f.easing.Interpolate(float64(f.fromKelvin), float64(f.toKelvin), p)
			fx.SetTemperature(int(math.Round(k)))
		case done:
			fx.SetColor(f.toColor, fx.Alpha())
		default:
			fx.SetColor(f.fromColor.BlendHcl(f.toColor, f.easing.Apply(p)).Clamped(), fx.Alpha())
		}
	}
	return done
}

package engine

import (
	"fmt"
	"math"
	"strings"
)

// Easing shapes the progress of a fade.
type Easing string

const (
	Linear         Easing = "linear"
	InOutSine      Easing = "in-out-sine"
	InOutCubic     Easing = "in-out-cubic"
	OutExponential Easing = "out-exponential"
	SCurve         Easing = "s-curve"
)

// DefaultEasing is used when a command names none.
const DefaultEasing = InOutSine

// ParseEasing accepts the easing names, case-insensitively. The empty
// string is DefaultEasing.
func ParseEasing(s string) (Easing, error) {
	e := Easing(strings.ToLower(strings.TrimSpace(s)))
	switch e {
	case "":
		return DefaultEasing, nil
	case Linear, InOutSine, InOutCubic, OutExponential, SCurve:
		return e, nil
	}
	return "", fmt.Errorf("unknown easing %q", s)
}

// Apply maps progress in [0,1] to eased progress in [0,1].
func (e Easing) Apply(progress float64) float64 {
	switch {
	case progress <= 0:
		return 0
	case progress >= 1:
		return 1
	}

	switch e {
	case InOutSine:
		return -(math.Cos(math.Pi*progress) - 1) / 2
	case InOutCubic:
		if progress < 0.5 {
			return 4 * progress * progress * progress
		}
		p := -2*progress + 2
		return 1 - p*p*p/2
	case OutExponential:
		return 1 - math.Pow(2, -10*progress)
	case SCurve:
		// logistic curve rescaled to pass through 0 and 1
		const k = 10.0
		lo := 1 / (1 + math.Exp(k/2))
		hi := 1 / (1 + math.Exp(-k/2))
		return (1/(1+math.Exp(-k*(progress-0.5))) - lo) / (hi - lo)
	default:
		return progress
	}
}

// Interpolate returns the value between from and to at progress.
func (e Easing) Interpolate(from, to, progress float64) float64 {
	return from + (to-from)*e.Apply(progress)
}

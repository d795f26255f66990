package engine

import (
	"errors"
	"fmt"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidCommand is returned for commands that cannot be applied.
var ErrInvalidCommand = errors.New("invalid command")

// Command changes the state of one fixture, optionally over time. It is
// the body of the HTTP PATCH endpoint and of the MQTT set topic.
type Command struct {
	Color       *string  `json:"color,omitempty"`
	Brightness  *float64 `json:"brightness,omitempty"`
	Temperature *int     `json:"temperature,omitempty"`
	FadeMs      int      `json:"fade_ms,omitempty"`
	Easing      string   `json:"easing,omitempty"`
}

// target is a validated Command.
type target struct {
	color       *colorful.Color
	brightness  *float64
	temperature *int
	duration    time.Duration
	easing      Easing
}

func (c Command) parse() (target, error) {
	var t target

	if c.Color == nil && c.Brightness == nil && c.Temperature == nil {
		return t, fmt.Errorf("%w: nothing to change", ErrInvalidCommand)
	}
	if c.Color != nil && c.Temperature != nil {
		return t, fmt.Errorf("%w: color and temperature are exclusive", ErrInvalidCommand)
	}
	if c.FadeMs < 0 {
		return t, fmt.Errorf("%w: negative fade_ms %d", ErrInvalidCommand, c.FadeMs)
	}

	if c.Color != nil {
		col, err := colorful.Hex(*c.Color)
		if err != nil {
			return t, fmt.Errorf("%w: color %q: %v", ErrInvalidCommand, *c.Color, err)
		}
		t.color = &col
	}
	if c.Brightness != nil {
		if *c.Brightness < 0 || *c.Brightness > 1 {
			return t, fmt.Errorf("%w: brightness %v outside [0,1]", ErrInvalidCommand, *c.Brightness)
		}
		t.brightness = c.Brightness
	}
	t.temperature = c.Temperature

	easing, err := ParseEasing(c.Easing)
	if err != nil {
		return t, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	t.easing = easing
	t.duration = time.Duration(c.FadeMs) * time.Millisecond
	return t, nil
}

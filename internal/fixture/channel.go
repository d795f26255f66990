package fixture

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChannel is returned for channels that cannot be written into a
// universe.
var ErrInvalidChannel = errors.New("invalid channel")

// Kind is the fixture attribute a channel carries.
type Kind int

const (
	Red Kind = iota
	Green
	Blue
	White
	ColdWhite
	WarmWhite
	ColorTemperature
	Brightness
	Hue
	Saturation
)

var kindNames = map[Kind]string{
	Red:              "red",
	Green:            "green",
	Blue:             "blue",
	White:            "white",
	ColdWhite:        "cold-white",
	WarmWhite:        "warm-white",
	ColorTemperature: "color-temperature",
	Brightness:       "brightness",
	Hue:              "hue",
	Saturation:       "saturation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind accepts the names printed by String, case-insensitively, and
// the short forms cw, ww and ct.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "cw":
		return ColdWhite, nil
	case "ww":
		return WarmWhite, nil
	case "ct", "cct":
		return ColorTemperature, nil
	case "dimmer", "intensity":
		return Brightness, nil
	}
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown channel kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Channel maps one fixture attribute onto one or two DMX slots.
type Channel struct {
	// Address is 1-based and relative to the fixture start address.
	Address  int  `toml:"address" yaml:"address" json:"address"`
	Kind     Kind `toml:"kind" yaml:"kind" json:"kind"`
	Wide     bool `toml:"16bit" yaml:"16bit" json:"16bit"`
	Inverted bool `toml:"inverted" yaml:"inverted" json:"inverted"`
	Min      int  `toml:"min" yaml:"min" json:"min"`
	Max      int  `toml:"max" yaml:"max" json:"max"`
}

// NewChannel returns an 8-bit, non-inverted channel with the full 0-255
// output range.
func NewChannel(address int, kind Kind) Channel {
	return Channel{Address: address, Kind: kind, Min: 0, Max: 255}
}

// Width is the number of slots the channel occupies.
func (c Channel) Width() int {
	if c.Wide {
		return 2
	}
	return 1
}

func (c Channel) validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("channel %d: %w: unknown kind %d", c.Address, ErrInvalidChannel, int(c.Kind))
	}
	if c.Address < 1 {
		return fmt.Errorf("channel %d: %w: address must be 1 or more", c.Address, ErrInvalidChannel)
	}
	if c.Min < 0 || c.Max > 255 || c.Min > c.Max {
		return fmt.Errorf("channel %d: %w: bounds %d..%d", c.Address, ErrInvalidChannel, c.Min, c.Max)
	}
	return nil
}

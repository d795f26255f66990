// Package fixture models lighting fixtures and turns their visual state
// into DMX channel values.
package fixture

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"stagelights/internal/colortemp"
	"stagelights/internal/dmx"
)

const (
	// DefaultWarmKelvin is the warm calibration bound used when none is set.
	DefaultWarmKelvin = 2700
	// DefaultColdKelvin is the cold calibration bound used when none is set.
	DefaultColdKelvin = 6500
)

// State is what the quantizer needs to know about a fixture.
type State interface {
	Color() colorful.Color
	Brightness() float64
	Temperature() int
}

// Range is the warm/cold calibration of a fixture's white emitters.
type Range struct {
	Warm int
	Cold int
}

// Fixture is one controllable lighting unit.
type Fixture struct {
	ID       string
	Name     string
	Start    int // 1-based start address in the universe
	Channels []Channel
	Range    Range

	// Attenuation and Position only feed the light block.
	Attenuation float64
	Position    [3]float64

	color       colorful.Color
	alpha       float64
	temperature int
}

// New returns a white, fully opaque fixture at full brightness.
func New(name string, start int, channels ...Channel) *Fixture {
	return &Fixture{
		Name:        name,
		Start:       start,
		Channels:    channels,
		Range:       Range{Warm: DefaultWarmKelvin, Cold: DefaultColdKelvin},
		Attenuation: 1,
		color:       colorful.Color{R: 1, G: 1, B: 1},
		alpha:       1,
		temperature: colortemp.Clamp(DefaultColdKelvin),
	}
}

// Color returns the diffuse colour.
func (f *Fixture) Color() colorful.Color {
	return f.color
}

// Alpha returns the diffuse colour alpha.
func (f *Fixture) Alpha() float64 {
	return f.alpha
}

// SetColor replaces the diffuse colour. Components are clamped to [0,1].
func (f *Fixture) SetColor(c colorful.Color, alpha float64) {
	f.color = c.Clamped()
	f.alpha = clamp01(alpha)
}

// Brightness is the HSV value of the diffuse colour.
func (f *Fixture) Brightness() float64 {
	_, _, v := f.color.Hsv()
	return v
}

// SetBrightness rescales the diffuse colour to brightness b, keeping hue
// and saturation.
func (f *Fixture) SetBrightness(b float64) {
	h, s, _ := f.color.Hsv()
	f.color = colorful.Hsv(h, s, clamp01(b)).Clamped()
}

// Temperature returns the last temperature set, in Kelvin.
func (f *Fixture) Temperature() int {
	return f.temperature
}

// SetTemperature sets the colour temperature and replaces the diffuse
// colour by the matching blackbody colour at the current brightness.
func (f *Fixture) SetTemperature(kelvin int) {
	brightness := f.Brightness()
	f.temperature = colortemp.Clamp(kelvin)
	f.color = colortemp.ToColor(f.temperature)
	f.SetBrightness(brightness)
}

// Slot returns the absolute 1-based universe address of ch.
func (f *Fixture) Slot(ch Channel) int {
	return f.Start + ch.Address - 1
}

// Validate checks that every channel lands inside the universe.
func (f *Fixture) Validate() error {
	if !dmx.ValidAddress(f.Start) {
		return fmt.Errorf("fixture %q: %w: start address %d", f.Name, ErrInvalidChannel, f.Start)
	}
	for _, ch := range f.Channels {
		if err := ch.validate(); err != nil {
			return fmt.Errorf("fixture %q: %w", f.Name, err)
		}
		last := f.Slot(ch) + ch.Width() - 1
		if !dmx.ValidAddress(last) {
			return fmt.Errorf("fixture %q: channel %d: %w: slot %d is outside the universe",
				f.Name, ch.Address, ErrInvalidChannel, last)
		}
	}
	return nil
}

// Write is one slot value produced by a fixture.
type Write struct {
	Address int
	Value   byte
	Channel Channel
}

// Render computes the slot values of every channel. Addresses are not
// checked here, that is up to whoever writes them into a universe.
func (f *Fixture) Render() []Write {
	writes := make([]Write, 0, len(f.Channels))
	for _, ch := range f.Channels {
		v := Normalized(f, f.Range, ch.Kind)
		for i, b := range Quantize(ch, v) {
			writes = append(writes, Write{Address: f.Slot(ch) + i, Value: b, Channel: ch})
		}
	}
	return writes
}

// CopyState takes over the colour and temperature of other.
func (f *Fixture) CopyState(other *Fixture) {
	f.color = other.color
	f.alpha = other.alpha
	f.temperature = other.temperature
}

package rig

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"stagelights/internal/fixture"
)

// File is the on-disk rig: reusable channel profiles and patched fixtures.
type File struct {
	Profiles map[string]Profile `toml:"profile" yaml:"profiles"`
	Fixtures []Patch            `toml:"fixture" yaml:"fixtures"`
}

// Profile is a channel layout shared by several fixtures.
type Profile struct {
	Channels []fixture.Channel `toml:"channel" yaml:"channels"`
	Warm     int               `toml:"warm" yaml:"warm"`
	Cold     int               `toml:"cold" yaml:"cold"`
}

// Patch places one fixture in the universe.
type Patch struct {
	ID          string            `toml:"id" yaml:"id"`
	Name        string            `toml:"name" yaml:"name"`
	Profile     string            `toml:"profile" yaml:"profile"`
	Start       int               `toml:"start" yaml:"start"`
	Channels    []fixture.Channel `toml:"channel" yaml:"channels"`
	Warm        int               `toml:"warm" yaml:"warm"`
	Cold        int               `toml:"cold" yaml:"cold"`
	Color       string            `toml:"color" yaml:"color"`
	Temperature int               `toml:"temperature" yaml:"temperature"`
	Brightness  *float64          `toml:"brightness" yaml:"brightness"`
	Attenuation *float64          `toml:"attenuation" yaml:"attenuation"`
	Position    []float64         `toml:"position" yaml:"position"`
}

// LoadFile reads a rig from path. Files ending in .yaml or .yml are YAML,
// everything else is TOML.
func LoadFile(path string) ([]*fixture.Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rig: %w", err)
	}

	var file File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("decode rig %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), &file); err != nil {
			return nil, fmt.Errorf("decode rig %s: %w", path, err)
		}
	}
	return file.Build()
}

// Build turns the patch list into fixtures, applying profiles and initial
// state. It does not check addresses, registration does.
func (rf File) Build() ([]*fixture.Fixture, error) {
	fixtures := make([]*fixture.Fixture, 0, len(rf.Fixtures))
	seen := make(map[string]bool)

	for i, p := range rf.Fixtures {
		if p.Name == "" {
			return nil, fmt.Errorf("fixture #%d: missing name", i+1)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("fixture %q: %w", p.Name, ErrDuplicateFixture)
		}
		seen[p.Name] = true

		f, err := rf.build(p)
		if err != nil {
			return nil, fmt.Errorf("fixture %q: %w", p.Name, err)
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

func (rf File) build(p Patch) (*fixture.Fixture, error) {
	channels := p.Channels
	warm, cold := p.Warm, p.Cold

	if p.Profile != "" {
		prof, ok := rf.Profiles[p.Profile]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", p.Profile)
		}
		if len(channels) == 0 {
			channels = prof.Channels
		}
		if warm == 0 {
			warm = prof.Warm
		}
		if cold == 0 {
			cold = prof.Cold
		}
	}

	// A bare patch is a single dimmer at its start address.
	if len(channels) == 0 {
		channels = []fixture.Channel{fixture.NewChannel(1, fixture.Brightness)}
	}

	f := fixture.New(p.Name, p.Start, withDefaultBounds(channels)...)
	f.ID = p.ID
	if warm != 0 {
		f.Range.Warm = warm
	}
	if cold != 0 {
		f.Range.Cold = cold
	}
	if p.Attenuation != nil {
		f.Attenuation = *p.Attenuation
	}
	if len(p.Position) > 3 {
		return nil, fmt.Errorf("position has %d components, want at most 3", len(p.Position))
	}
	copy(f.Position[:], p.Position)

	if p.Color != "" {
		c, err := colorful.Hex(p.Color)
		if err != nil {
			return nil, fmt.Errorf("color %q: %w", p.Color, err)
		}
		f.SetColor(c, 1)
	}
	if p.Temperature != 0 {
		f.SetTemperature(p.Temperature)
	}
	if p.Brightness != nil {
		f.SetBrightness(*p.Brightness)
	}
	return f, nil
}

// withDefaultBounds gives channels without bounds the full 0-255 range.
func withDefaultBounds(channels []fixture.Channel) []fixture.Channel {
	out := make([]fixture.Channel, len(channels))
	for i, ch := range channels {
		if ch.Min == 0 && ch.Max == 0 {
			ch.Max = 255
		}
		out[i] = ch
	}
	return out
}

// Package render builds the light block a shader consumes from the
// fixtures of a rig.
package render

import (
	"fmt"
	"strings"

	"stagelights/internal/fixture"
	"stagelights/internal/logger"
	"stagelights/internal/rig"
)

// MaxLights is the number of light records a block holds.
const MaxLights = 512

// Shading selects the shading model of the block. The values are the ones
// the shader expects.
type Shading int

const (
	Phong Shading = iota
	Gouraud
	Flat
)

var shadingNames = map[Shading]string{
	Phong:   "phong",
	Gouraud: "gouraud",
	Flat:    "flat",
}

func (s Shading) String() string {
	if name, ok := shadingNames[s]; ok {
		return name
	}
	return fmt.Sprintf("shading(%d)", int(s))
}

// ParseShading accepts phong, gouraud and flat.
func ParseShading(s string) (Shading, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range shadingNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown shading %q", s)
}

func (s Shading) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Light is one light record.
type Light struct {
	Name        string     `json:"name"`
	Intensity   [4]float64 `json:"intensity"`
	Attenuation float64    `json:"attenuation"`
	Position    [3]float64 `json:"position"`
}

// Block is the whole light uniform block.
type Block struct {
	Shading Shading    `json:"shading"`
	Ambient [4]float64 `json:"ambient"`
	Count   int        `json:"count"`
	Lights  []Light    `json:"lights"`
}

// Source is anything that iterates fixtures, usually a *rig.Manager.
type Source interface {
	Each(fn func(h rig.Handle, f *fixture.Fixture))
}

// Builder turns fixtures into blocks.
type Builder struct {
	log     *logger.Log
	Shading Shading
	Ambient [4]float64
}

// NewBuilder returns a Phong builder with a black, opaque ambient term.
func NewBuilder(log *logger.Log) *Builder {
	return &Builder{
		log:     log.Module("render"),
		Shading: Phong,
		Ambient: [4]float64{0, 0, 0, 1},
	}
}

// Build snapshots every fixture of src. Fixtures past MaxLights are left
// out and reported as an error.
func (b *Builder) Build(src Source) Block {
	block := Block{Shading: b.Shading, Ambient: b.Ambient}
	skipped := 0

	src.Each(func(_ rig.Handle, f *fixture.Fixture) {
		if len(block.Lights) >= MaxLights {
			skipped++
			return
		}
		c := f.Color()
		block.Lights = append(block.Lights, Light{
			Name:        f.Name,
			Intensity:   [4]float64{c.R, c.G, c.B, f.Alpha()},
			Attenuation: f.Attenuation,
			Position:    f.Position,
		})
	})
	block.Count = len(block.Lights)

	if skipped > 0 {
		b.log.Errorf("there are more lights than %d, %d left out", MaxLights, skipped)
	}
	return block
}

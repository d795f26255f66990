package render

import (
	"encoding/json"
	"fmt"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagelights/internal/fixture"
	"stagelights/internal/logger"
	"stagelights/internal/rig"
)

type fixtures []*fixture.Fixture

func (fs fixtures) Each(fn func(h rig.Handle, f *fixture.Fixture)) {
	for i, f := range fs {
		fn(rig.Handle(i+1), f)
	}
}

func TestBuild(t *testing.T) {
	l, hook := test.NewNullLogger()
	b := NewBuilder(logger.Wrap(l))

	f := fixture.New("spot", 1)
	f.SetColor(colorful.Color{R: 1, G: 0.5, B: 0}, 0.8)
	f.Attenuation = 0.3
	f.Position = [3]float64{1, 2, 3}

	block := b.Build(fixtures{f})

	assert.Equal(t, Phong, block.Shading)
	assert.Equal(t, [4]float64{0, 0, 0, 1}, block.Ambient)
	assert.Equal(t, 1, block.Count)
	require.Len(t, block.Lights, 1)
	assert.Equal(t, Light{
		Name:        "spot",
		Intensity:   [4]float64{1, 0.5, 0, 0.8},
		Attenuation: 0.3,
		Position:    [3]float64{1, 2, 3},
	}, block.Lights[0])
	assert.Empty(t, hook.AllEntries())
}

func TestBuild_TooManyLights(t *testing.T) {
	l, hook := test.NewNullLogger()
	b := NewBuilder(logger.Wrap(l))

	var fs fixtures
	for i := 0; i < MaxLights+3; i++ {
		fs = append(fs, fixture.New(fmt.Sprintf("f%d", i), 1))
	}

	block := b.Build(fs)

	assert.Equal(t, MaxLights, block.Count)
	assert.Equal(t, "f511", block.Lights[MaxLights-1].Name)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestBuild_FromManager(t *testing.T) {
	l, _ := test.NewNullLogger()
	m := rig.NewManager(logger.Wrap(l), rig.Output{})
	_, err := m.Register(fixture.New("a", 1))
	require.NoError(t, err)

	block := NewBuilder(logger.Wrap(l)).Build(m)

	assert.Equal(t, 1, block.Count)
}

func TestShading(t *testing.T) {
	assert.Equal(t, 0, int(Phong))
	assert.Equal(t, 1, int(Gouraud))
	assert.Equal(t, 2, int(Flat))

	s, err := ParseShading("Flat")
	require.NoError(t, err)
	assert.Equal(t, Flat, s)
	_, err = ParseShading("toon")
	assert.Error(t, err)

	data, err := json.Marshal(Block{Shading: Gouraud})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"shading":"gouraud"`)
}

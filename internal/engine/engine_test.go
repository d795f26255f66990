package engine

import (
	"errors"
	"testing"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagelights/internal/dmx"
	"stagelights/internal/fixture"
	"stagelights/internal/logger"
	"stagelights/internal/rig"
)

type countingSender struct {
	frames int
}

func (s *countingSender) SendFrame(int, *dmx.Universe) error {
	s.frames++
	return nil
}

type fixtureEnv struct {
	engine *Engine
	rig    *rig.Manager
	clock  time.Time
	sender *countingSender
}

func newEnv(t *testing.T) *fixtureEnv {
	t.Helper()
	l, _ := test.NewNullLogger()
	log := logger.Wrap(l)

	sender := &countingSender{}
	m := rig.NewManager(log, rig.Output{Frame: sender})
	_, err := m.Register(fixture.New("par", 1,
		fixture.NewChannel(1, fixture.Red),
		fixture.NewChannel(2, fixture.Green),
		fixture.NewChannel(3, fixture.Blue),
		fixture.NewChannel(4, fixture.Brightness),
	))
	require.NoError(t, err)

	env := &fixtureEnv{rig: m, sender: sender, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	env.engine = New(log, m, 40, 0)
	env.engine.now = func() time.Time { return env.clock }
	return env
}

func (env *fixtureEnv) state(t *testing.T) (c colorful.Color, brightness float64, kelvin int) {
	t.Helper()
	require.NoError(t, env.rig.Apply("par", func(f *fixture.Fixture) {
		c, brightness, kelvin = f.Color(), f.Brightness(), f.Temperature()
	}))
	return c, brightness, kelvin
}

func ptr[T any](v T) *T { return &v }

func TestApply_Immediate(t *testing.T) {
	env := newEnv(t)

	require.NoError(t, env.engine.Apply("par", Command{Color: ptr("#ff0000"), Brightness: ptr(0.5)}))

	c, b, _ := env.state(t)
	assert.InDelta(t, 0.5, c.R, 1e-9)
	assert.InDelta(t, 0, c.G, 1e-9)
	assert.InDelta(t, 0.5, b, 1e-9)
	assert.Equal(t, 0, env.engine.ActiveFades())

	report := env.engine.Step()
	assert.Equal(t, 1, report.Sent)
	frame := env.rig.Snapshot()
	assert.Equal(t, byte(128), frame.Get(1))
	assert.Equal(t, byte(0), frame.Get(2))
	assert.Equal(t, byte(128), frame.Get(4))
}

func TestApply_Temperature(t *testing.T) {
	env := newEnv(t)

	require.NoError(t, env.engine.Apply("par", Command{Temperature: ptr(20000)}))

	_, b, k := env.state(t)
	assert.Equal(t, 10000, k)
	assert.InDelta(t, 1, b, 1e-9)
}

func TestApply_BrightnessFade(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.engine.Apply("par", Command{Brightness: ptr(0.0), FadeMs: 1000, Easing: "linear"}))
	assert.Equal(t, 1, env.engine.ActiveFades())

	env.clock = env.clock.Add(250 * time.Millisecond)
	env.engine.Step()
	_, b, _ := env.state(t)
	assert.InDelta(t, 0.75, b, 1e-9)

	env.clock = env.clock.Add(time.Second)
	env.engine.Step()
	_, b, _ = env.state(t)
	assert.Equal(t, 0.0, b)
	assert.Equal(t, 0, env.engine.ActiveFades())
	assert.Equal(t, 2, env.sender.frames)
}

func TestApply_TemperatureFadeKeepsBrightnessFade(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.engine.Apply("par", Command{Temperature: ptr(3000)}))

	require.NoError(t, env.engine.Apply("par", Command{Temperature: ptr(5000), FadeMs: 100, Easing: "linear"}))
	require.NoError(t, env.engine.Apply("par", Command{Brightness: ptr(0.5), FadeMs: 100, Easing: "linear"}))
	assert.Equal(t, 2, env.engine.ActiveFades())

	env.clock = env.clock.Add(50 * time.Millisecond)
	env.engine.Step()
	_, b, k := env.state(t)
	assert.Equal(t, 4000, k)
	assert.InDelta(t, 0.75, b, 1e-9)

	env.clock = env.clock.Add(50 * time.Millisecond)
	env.engine.Step()
	_, b, k = env.state(t)
	assert.Equal(t, 5000, k)
	assert.InDelta(t, 0.5, b, 1e-9)
	assert.Equal(t, 0, env.engine.ActiveFades())
}

func TestApply_NewFadeReplacesOld(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.engine.Apply("par", Command{Brightness: ptr(0.0), FadeMs: 1000}))
	require.NoError(t, env.engine.Apply("par", Command{Brightness: ptr(0.2), FadeMs: 1000}))
	assert.Equal(t, 1, env.engine.ActiveFades())

	env.engine.Cancel("par")
	assert.Equal(t, 0, env.engine.ActiveFades())
}

func TestApply_FadeDroppedWhenFixtureGone(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.engine.Apply("par", Command{Brightness: ptr(0.0), FadeMs: 1000}))

	h, ok := env.rig.Lookup("par")
	require.True(t, ok)
	require.NoError(t, env.rig.Deregister(h))

	env.engine.Step()
	assert.Equal(t, 0, env.engine.ActiveFades())
}

func TestApply_Errors(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		name string
		cmd  Command
	}{
		{"empty", Command{}},
		{"color and temperature", Command{Color: ptr("#fff"), Temperature: ptr(3000)}},
		{"bad color", Command{Color: ptr("blue")}},
		{"brightness above one", Command{Brightness: ptr(1.5)}},
		{"negative fade", Command{Brightness: ptr(0.5), FadeMs: -1}},
		{"unknown easing", Command{Brightness: ptr(0.5), Easing: "bounce"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.engine.Apply("par", tt.cmd)
			assert.True(t, errors.Is(err, ErrInvalidCommand), "%v", err)
		})
	}

	err := env.engine.Apply("nobody", Command{Brightness: ptr(0.5)})
	assert.True(t, errors.Is(err, rig.ErrUnknownFixture))
}

func TestStepPublishes(t *testing.T) {
	env := newEnv(t)
	sub := env.engine.Hub().Subscribe(1)
	defer env.engine.Hub().Unsubscribe(sub)

	report := env.engine.Step()

	f := <-sub.C
	assert.Equal(t, report, f.Report)
	assert.Equal(t, byte(255), f.Values.Get(4))
	assert.Equal(t, report, env.engine.LastReport())
}

func TestStartStop(t *testing.T) {
	env := newEnv(t)
	env.engine.now = time.Now
	sub := env.engine.Hub().Subscribe(1)

	env.engine.Start()
	env.engine.Start()
	select {
	case <-sub.C:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame published")
	}
	require.NoError(t, env.engine.Stop())
	assert.Equal(t, rig.Idle, env.rig.State())
}

func TestStopWithoutStart(t *testing.T) {
	env := newEnv(t)
	assert.NoError(t, env.engine.Stop())
}

// Package engine drives the rig at a fixed frame rate, runs fades and
// publishes every rendered frame.
package engine

import (
	"errors"
	"sync"
	"time"

	tomb "gopkg.in/tomb.v2"

	"stagelights/internal/fixture"
	"stagelights/internal/logger"
	"stagelights/internal/rig"
)

// DefaultFrameRate is used for non-positive frame rates.
const DefaultFrameRate = 40

// Engine ticks the rig manager and animates fixture attributes.
type Engine struct {
	log      *logger.Log
	rig      *rig.Manager
	hub      *Hub
	universe int
	interval time.Duration
	now      func() time.Time

	mu    sync.Mutex
	fades map[fadeKey]*fade
	last  rig.Report

	t       tomb.Tomb
	running bool
}

// New returns an engine for m running at frameRate cycles per second.
func New(log *logger.Log, m *rig.Manager, frameRate, universe int) *Engine {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return &Engine{
		log:      log.Module("engine"),
		rig:      m,
		hub:      NewHub(),
		universe: universe,
		interval: time.Second / time.Duration(frameRate),
		now:      time.Now,
		fades:    make(map[fadeKey]*fade),
	}
}

// Hub returns the hub frames are published on.
func (e *Engine) Hub() *Hub {
	return e.hub
}

// Universe returns the universe frames are published for.
func (e *Engine) Universe() int {
	return e.universe
}

// Start runs the frame loop until Stop.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.t.Go(e.loop)
	e.log.Infof("frame loop started, one frame every %s", e.interval)
}

// Stop ends the frame loop and waits for the running cycle to finish.
func (e *Engine) Stop() error {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		return nil
	}
	e.t.Kill(nil)
	err := e.t.Wait()
	e.log.Info("frame loop stopped")
	return err
}

func (e *Engine) loop() error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.t.Dying():
			return nil
		case <-ticker.C:
			e.Step()
		}
	}
}

// Step advances fades, runs one rig update and publishes the frame.
func (e *Engine) Step() rig.Report {
	now := e.now()
	e.advance(now)

	report := e.rig.Update()
	if report.Failed > 0 || report.Dropped > 0 {
		e.log.WithField("frame", report.Frame).Debugf("cycle: %d sends failed, %d writes dropped", report.Failed, report.Dropped)
	}

	e.mu.Lock()
	e.last = report
	e.mu.Unlock()

	e.hub.Publish(Frame{
		Universe: e.universe,
		Time:     now,
		Values:   e.rig.Snapshot(),
		Report:   report,
	})
	return report
}

// LastReport returns the report of the latest cycle.
func (e *Engine) LastReport() rig.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// ActiveFades returns the number of running fades.
func (e *Engine) ActiveFades() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.fades)
}

// advance moves every fade to now. Colour fades run before brightness
// fades so both can drive the same fixture.
func (e *Engine) advance(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, attr := range []attribute{attrColor, attrBrightness} {
		for key, f := range e.fades {
			if key.attr != attr {
				continue
			}
			var done bool
			err := e.rig.Apply(key.fixture, func(fx *fixture.Fixture) {
				done = f.step(key, fx, now)
			})
			if errors.Is(err, rig.ErrUnknownFixture) {
				e.log.WithField("fixture", key.fixture).Debug("fade dropped, fixture is gone")
				done = true
			}
			if done {
				delete(e.fades, key)
			}
		}
	}
}

// Apply runs cmd against the fixture called name. Without a fade time the
// change is immediate, otherwise it replaces any fade already driving the
// same attribute.
func (e *Engine) Apply(name string, cmd Command) error {
	t, err := cmd.parse()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	return e.rig.Apply(name, func(fx *fixture.Fixture) {
		if t.color != nil || t.temperature != nil {
			key := fadeKey{fixture: name, attr: attrColor}
			delete(e.fades, key)
			f := &fade{
				start:      now,
				duration:   t.duration,
				easing:     t.easing,
				fromColor:  fx.Color(),
				fromKelvin: fx.Temperature(),
			}
			if t.temperature != nil {
				f.kelvin = true
				f.toKelvin = *t.temperature
			} else {
				f.toColor = *t.color
			}
			if t.duration == 0 {
				f.step(key, fx, now)
			} else {
				e.fades[key] = f
			}
		}

		if t.brightness != nil {
			key := fadeKey{fixture: name, attr: attrBrightness}
			delete(e.fades, key)
			f := &fade{
				start:          now,
				duration:       t.duration,
				easing:         t.easing,
				fromBrightness: fx.Brightness(),
				toBrightness:   *t.brightness,
			}
			if t.duration == 0 {
				f.step(key, fx, now)
			} else {
				e.fades[key] = f
			}
		}
	})
}

// Cancel stops every fade on the fixture called name, leaving it where it is.
func (e *Engine) Cancel(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.fades, fadeKey{fixture: name, attr: attrColor})
	delete(e.fades, fadeKey{fixture: name, attr: attrBrightness})
}

// Package rig owns the registered fixtures and runs the per-frame update
// that turns their state into DMX output.
package rig

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lucsky/cuid"

	"stagelights/internal/dmx"
	"stagelights/internal/fixture"
	"stagelights/internal/logger"
)

var (
	// ErrDuplicateFixture is returned when a fixture name is already registered.
	ErrDuplicateFixture = errors.New("fixture already registered")
	// ErrUnknownFixture is returned for names or handles that are not registered.
	ErrUnknownFixture = errors.New("unknown fixture")
)

// FrameSender transmits a whole universe at once.
type FrameSender interface {
	SendFrame(universe int, frame *dmx.Universe) error
}

// ChangeSender transmits a single channel change.
type ChangeSender interface {
	SendChange(address int, value byte) error
}

// Output selects how frames leave the manager. When Change is set the
// manager runs in per-change mode, otherwise whole frames go to Frame.
// A zero Output only renders.
type Output struct {
	Universe int
	Frame    FrameSender
	Change   ChangeSender
}

// Handle identifies a registered fixture for as long as it stays registered.
type Handle int

// State of the update cycle.
type State int

const (
	Idle State = iota
	Updating
)

func (s State) String() string {
	if s == Updating {
		return "updating"
	}
	return "idle"
}

// Report summarises one update cycle.
type Report struct {
	Frame    uint64        // Frame is the cycle number, starting at 1.
	Fixtures int           // Fixtures rendered.
	Writes   int           // Writes that landed in the universe.
	Dropped  int           // Writes rejected because they fell outside the universe.
	Sent     int           // Frames or changes handed to the transport.
	Failed   int           // Transport calls that returned an error.
	Duration time.Duration // Duration of the cycle.
}

// Manager holds fixtures by handle and renders them once per Update.
type Manager struct {
	mu sync.Mutex

	log    *logger.Log
	output Output

	fixtures map[Handle]*fixture.Fixture
	order    []Handle
	next     Handle

	frame  dmx.Universe
	shadow dmx.Universe // last values sent in per-change mode
	state  atomic.Int32
	frames uint64
	warned map[string]bool
}

// NewManager returns an empty manager writing to out.
func NewManager(log *logger.Log, out Output) *Manager {
	return &Manager{
		log:      log.Module("rig"),
		output:   out,
		fixtures: make(map[Handle]*fixture.Fixture),
		next:     1,
		warned:   make(map[string]bool),
	}
}

// FrameMode reports whether the manager sends whole frames.
func (m *Manager) FrameMode() bool {
	return m.output.Change == nil
}

// Register validates f and adds it to the rig. A fixture whose channels do
// not fit in the universe is rejected.
func (m *Manager) Register(f *fixture.Fixture) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.register(f)
}

func (m *Manager) register(f *fixture.Fixture) (Handle, error) {
	if err := f.Validate(); err != nil {
		m.log.With(logger.Fields{"fixture": f.Name}).Warnf("fixture rejected: %v", err)
		return 0, err
	}
	if _, ok := m.lookup(f.Name); ok {
		return 0, fmt.Errorf("%q: %w", f.Name, ErrDuplicateFixture)
	}
	if f.ID == "" {
		f.ID = cuid.New()
	}

	m.warnOverlaps(f)

	h := m.next
	m.next++
	m.fixtures[h] = f
	m.order = append(m.order, h)

	m.log.With(logger.Fields{"fixture": f.Name, "start": f.Start, "channels": len(f.Channels)}).Debug("fixture registered")
	return h, nil
}

// warnOverlaps logs slots that f shares with fixtures already registered.
func (m *Manager) warnOverlaps(f *fixture.Fixture) {
	used := make(map[int]string)
	for _, h := range m.order {
		other := m.fixtures[h]
		for _, ch := range other.Channels {
			for i := 0; i < ch.Width(); i++ {
				used[other.Slot(ch)+i] = other.Name
			}
		}
	}
	for _, ch := range f.Channels {
		for i := 0; i < ch.Width(); i++ {
			if owner, ok := used[f.Slot(ch)+i]; ok {
				m.log.With(logger.Fields{"fixture": f.Name, "other": owner, "slot": f.Slot(ch) + i}).
					Warn("fixture shares a slot with another fixture")
			}
		}
	}
}

// Deregister removes the fixture behind h.
func (m *Manager) Deregister(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deregister(h)
}

func (m *Manager) deregister(h Handle) error {
	f, ok := m.fixtures[h]
	if !ok {
		return fmt.Errorf("handle %d: %w", h, ErrUnknownFixture)
	}
	delete(m.fixtures, h)
	for i, o := range m.order {
		if o == h {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.log.With(logger.Fields{"fixture": f.Name}).Debug("fixture deregistered")
	return nil
}

// Replace swaps the whole rig for fixtures. Fixtures that keep their name
// keep their colour and temperature. Fixtures that fail to register are
// skipped and their errors returned.
func (m *Manager) Replace(fixtures []*fixture.Fixture) []error {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous := make(map[string]*fixture.Fixture, len(m.fixtures))
	for _, h := range m.order {
		previous[m.fixtures[h].Name] = m.fixtures[h]
	}
	for _, h := range append([]Handle(nil), m.order...) {
		_ = m.deregister(h)
	}

	var errs []error
	for _, f := range fixtures {
		if old, ok := previous[f.Name]; ok {
			f.CopyState(old)
			if f.ID == "" {
				f.ID = old.ID
			}
		}
		if _, err := m.register(f); err != nil {
			errs = append(errs, err)
		}
	}
	m.warned = make(map[string]bool)
	return errs
}

// Len returns the number of registered fixtures.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Lookup returns the handle of the fixture called name.
func (m *Manager) Lookup(name string) (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(name)
}

func (m *Manager) lookup(name string) (Handle, bool) {
	for _, h := range m.order {
		if m.fixtures[h].Name == name {
			return h, true
		}
	}
	return 0, false
}

// Apply runs fn on the fixture called name while holding the rig lock.
func (m *Manager) Apply(name string, fn func(f *fixture.Fixture)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.lookup(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownFixture)
	}
	fn(m.fixtures[h])
	return nil
}

// ApplyHandle is Apply by handle.
func (m *Manager) ApplyHandle(h Handle, fn func(f *fixture.Fixture)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.fixtures[h]
	if !ok {
		return fmt.Errorf("handle %d: %w", h, ErrUnknownFixture)
	}
	fn(f)
	return nil
}

// Each calls fn for every fixture in registration order while holding the
// rig lock. fn must not call back into the manager.
func (m *Manager) Each(fn func(h Handle, f *fixture.Fixture)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.order {
		fn(h, m.fixtures[h])
	}
}

// State returns the current cycle state. It does not wait for a running
// cycle to finish.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Snapshot returns a copy of the universe written by the last cycle.
func (m *Manager) Snapshot() dmx.Universe {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

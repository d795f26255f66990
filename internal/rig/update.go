package rig

import (
	"fmt"
	"time"

	"stagelights/internal/fixture"
	"stagelights/internal/logger"
)

// Update runs one cycle: render every fixture into the universe and flush
// it to the output. Transport errors are logged and counted, they never
// stop the cycle.
func (m *Manager) Update() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Store(int32(Updating))
	defer m.state.Store(int32(Idle))

	start := time.Now()
	m.frames++
	report := Report{Frame: m.frames, Fixtures: len(m.order)}

	if m.FrameMode() {
		m.frame.Blackout()
	} else {
		// per-change mode only sends what differs from the last values sent
		m.frame = m.shadow
	}

	for _, h := range m.order {
		f := m.fixtures[h]
		for _, w := range f.Render() {
			if err := m.frame.Set(w.Address, w.Value); err != nil {
				report.Dropped++
				m.warnDropped(f, w, err)
				continue
			}
			report.Writes++
		}
	}

	if m.FrameMode() {
		m.flushFrame(&report)
	} else {
		m.flushChanges(&report)
	}

	report.Duration = time.Since(start)
	return report
}

func (m *Manager) flushFrame(report *Report) {
	if m.output.Frame == nil {
		return
	}
	report.Sent++
	if err := m.output.Frame.SendFrame(m.output.Universe, &m.frame); err != nil {
		report.Failed++
		m.log.With(logger.Fields{"universe": m.output.Universe, "frame": report.Frame}).Errorf("send DMX failed: %v", err)
	}
}

func (m *Manager) flushChanges(report *Report) {
	for _, c := range m.frame.Diff(&m.shadow) {
		report.Sent++
		if err := m.output.Change.SendChange(c.Address, c.Value); err != nil {
			report.Failed++
			m.log.With(logger.Fields{"channel": c.Address, "value": c.Value}).Errorf("send channel change failed: %v", err)
			// keep the old shadow value so the next frame sends it again
			m.frame[c.Address-1] = m.shadow[c.Address-1]
			continue
		}
		m.shadow[c.Address-1] = c.Value
	}
}

// warnDropped logs a rejected write once per fixture slot.
func (m *Manager) warnDropped(f *fixture.Fixture, w fixture.Write, err error) {
	key := fmt.Sprintf("%s/%d", f.Name, w.Address)
	if m.warned[key] {
		return
	}
	m.warned[key] = true
	m.log.With(logger.Fields{"fixture": f.Name, "channel": w.Channel.Address, "kind": w.Channel.Kind.String()}).
		Warnf("write dropped: %v", err)
}

// Blackout zeroes the universe and flushes it, whatever the fixtures say.
// Used on shutdown so the rig is left dark.
func (m *Manager) Blackout() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Store(int32(Updating))
	defer m.state.Store(int32(Idle))

	start := time.Now()
	m.frames++
	report := Report{Frame: m.frames}

	m.frame.Blackout()
	if m.FrameMode() {
		m.flushFrame(&report)
	} else {
		m.flushChanges(&report)
	}

	report.Duration = time.Since(start)
	return report
}

// Package fsm implements the UP/DOWN availability state machine that
// decides, from a stream of probe results, when the panel is considered
// reachable and when a discovery sweep should fire.
package fsm

import "time"

// Mode is the FSM's observable state.
type Mode string

const (
	Up   Mode = "UP"
	Down Mode = "DOWN"
)

// Machine tracks consecutive successes/failures against configurable
// thresholds and a recovery window, per the hysteresis design in the
// original controller's State/tick logic.
type Machine struct {
	FailsToDown int
	OksToUp     int
	Recovery    time.Duration

	mode        Mode
	failStreak  int
	okStreak    int
	downSince   time.Time
	lastChanged time.Time
}

// New returns a Machine starting in the Down state, matching the original's
// conservative startup assumption (no target confirmed yet). downSince is
// left zero and set on the first Observe call, so a fresh start becomes
// eligible for discovery after exactly one Recovery window, not never.
func New(failsToDown, oksToUp int, recovery time.Duration) *Machine {
	return &Machine{
		FailsToDown: failsToDown,
		OksToUp:     oksToUp,
		Recovery:    recovery,
		mode:        Down,
	}
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode { return m.mode }

// DownSince returns when the machine last entered Down (for the initial Down
// state, the time of the first Observe); the zero time before the first
// Observe or while Up.
func (m *Machine) DownSince() time.Time { return m.downSince }

// Transition is returned by Observe describing what changed, if anything.
type Transition struct {
	Changed   bool
	From      Mode
	To        Mode
	At        time.Time
	FailCount int
	OKCount   int
}

// Observe feeds one probe result at time `at` into the machine and returns
// whether a mode transition occurred.
func (m *Machine) Observe(ok bool, at time.Time) Transition {
	from := m.mode

	if ok {
		m.failStreak = 0
		m.okStreak++
	} else {
		m.okStreak = 0
		m.failStreak++
	}

	switch m.mode {
	case Up:
		if m.failStreak >= m.FailsToDown {
			m.mode = Down
			m.downSince = at
			m.lastChanged = at
		}
	case Down:
		if m.downSince.IsZero() {
			// First observation since startup: the machine has been Down
			// since construction, not since `at`, but `at` is the earliest
			// timestamp we actually have.
			m.downSince = at
		}
		if m.okStreak >= m.OksToUp {
			m.mode = Up
			m.downSince = time.Time{}
			m.lastChanged = at
		}
	}

	return Transition{
		Changed:   m.mode != from,
		From:      from,
		To:        m.mode,
		At:        at,
		FailCount: m.failStreak,
		OKCount:   m.okStreak,
	}
}

// ShouldDiscover reports whether enough time has passed in Down for a
// discovery sweep to be worth running, i.e. we are past the recovery window
// during which the existing target might still come back on its own.
func (m *Machine) ShouldDiscover(now time.Time) bool {
	if m.mode != Down || m.downSince.IsZero() {
		return false
	}
	return now.Sub(m.downSince) >= m.Recovery
}

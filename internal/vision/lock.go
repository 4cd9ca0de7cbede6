// Package vision provides the fretboard geometry and lock-state core for
// the GuitarMotion practice system.
package vision

import "image"

// State represents the detection lock state of the fretboard tracker.
type State string

const (
	// StateSearching means no detection or low confidence.
	StateSearching State = "searching"
	// StateLocking means detections are present but not yet stable.
	StateLocking State = "locking"
	// StateLocked means detections have been stable long enough to trust.
	StateLocked State = "locked"
)

// Default lock parameters.
const (
	// DefaultLockThreshold is the minimum detection confidence that counts
	// toward a lock.
	DefaultLockThreshold = 0.75
	// DefaultStableFrames is the number of consecutive qualifying frames
	// required before the state becomes locked.
	DefaultStableFrames = 15
)

// LockStateManager turns a noisy per-frame detection stream into a stable
// lock signal. A single disqualifying frame resets the streak, so spurious
// one-frame detections never start a session.
//
// It is driven once per frame from the video loop and holds no lock of its
// own; only that loop may touch it.
type LockStateManager struct {
	state                 State
	lockThreshold         float64
	stableFrames          int
	consecutiveDetections int
}

// NewLockStateManager creates a lock state manager. Non-positive
// stableFrames falls back to DefaultStableFrames.
func NewLockStateManager(lockThreshold float64, stableFrames int) *LockStateManager {
	if stableFrames <= 0 {
		stableFrames = DefaultStableFrames
	}
	return &LockStateManager{
		state:         StateSearching,
		lockThreshold: lockThreshold,
		stableFrames:  stableFrames,
	}
}

// Update advances the state machine with the current frame's detection.
// A nil bbox or a confidence below the lock threshold resets the streak.
// Returns the resulting state.
func (m *LockStateManager) Update(bbox *image.Rectangle, confidence float64) State {
	if bbox == nil || confidence < m.lockThreshold {
		m.consecutiveDetections = 0
		m.state = StateSearching
		return m.state
	}

	m.consecutiveDetections++
	if m.consecutiveDetections < m.stableFrames {
		m.state = StateLocking
	} else {
		m.state = StateLocked
	}
	return m.state
}

// State returns the current lock state.
func (m *LockStateManager) State() State {
	return m.state
}

// IsLocked reports whether the tracker is currently locked.
func (m *LockStateManager) IsLocked() bool {
	return m.state == StateLocked
}

// Progress returns progress toward lock in [0, 1] for UI feedback.
func (m *LockStateManager) Progress() float64 {
	switch m.state {
	case StateLocked:
		return 1.0
	case StateLocking:
		return float64(m.consecutiveDetections) / float64(m.stableFrames)
	default:
		return 0.0
	}
}

// Reset forces the manager back to searching with an empty streak.
func (m *LockStateManager) Reset() {
	m.state = StateSearching
	m.consecutiveDetections = 0
}

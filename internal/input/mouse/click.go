// Package mouse turns raw pointer presses into multi-click activations.
package mouse

import (
	"sync"
	"time"
)

// Default multi-click thresholds.
const (
	DefaultDoubleClickTime     = 400 * time.Millisecond
	DefaultDoubleClickDistance = 4
)

// Button represents a mouse button.
type Button uint8

const (
	// ButtonNone indicates no button.
	ButtonNone Button = iota
	// ButtonLeft is the primary (left) mouse button.
	ButtonLeft
	// ButtonMiddle is the middle mouse button.
	ButtonMiddle
	// ButtonRight is the secondary (right) mouse button.
	ButtonRight
)

// String returns a string representation of the button.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "none"
	}
}

// Position represents a screen coordinate.
type Position struct {
	X int
	Y int
}

// Distance returns the Manhattan distance (|dx| + |dy|) between two positions.
func (p Position) Distance(other Position) int {
	dx := p.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Press is a single button press.
type Press struct {
	Position  Position
	Button    Button
	Timestamp time.Time
}

// Tracker counts consecutive presses of the same button that fall within
// the multi-click window. It is safe for concurrent use.
type Tracker struct {
	mu          sync.Mutex
	maxTime     time.Duration
	maxDistance int

	lastPos    Position
	lastButton Button
	lastTime   time.Time
	lastCount  int
}

// NewTracker creates a tracker. Non-positive arguments fall back to the
// defaults.
func NewTracker(maxTime time.Duration, maxDistance int) *Tracker {
	if maxTime <= 0 {
		maxTime = DefaultDoubleClickTime
	}
	if maxDistance <= 0 {
		maxDistance = DefaultDoubleClickDistance
	}
	return &Tracker{
		maxTime:     maxTime,
		maxDistance: maxDistance,
	}
}

// Record registers a press and returns its click count: 1 for a fresh
// press, 2 for the second press of a double click, 3 for a triple click.
// The count wraps back to 1 after 3.
func (t *Tracker) Record(p Press) int {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isPartOfSequence(p) {
		t.lastCount++
		if t.lastCount > 3 {
			t.lastCount = 1
		}
	} else {
		t.lastCount = 1
	}

	t.lastPos = p.Position
	t.lastButton = p.Button
	t.lastTime = p.Timestamp
	return t.lastCount
}

func (t *Tracker) isPartOfSequence(p Press) bool {
	if t.lastCount == 0 || t.lastTime.IsZero() || p.Button != t.lastButton {
		return false
	}

	// Negative elapsed time means clock skew; start over
	elapsed := p.Timestamp.Sub(t.lastTime)
	if elapsed < 0 || elapsed > t.maxTime {
		return false
	}

	return p.Position.Distance(t.lastPos) <= t.maxDistance
}

// Reset clears the click sequence.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastCount = 0
	t.lastTime = time.Time{}
	t.lastPos = Position{}
	t.lastButton = ButtonNone
}

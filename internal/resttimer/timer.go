package resttimer

import (
	"errors"
	"time"
)

var ErrInvalidDuration = errors.New("rest duration must be positive")

// State of a rest countdown.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateExpired State = "expired"
)

func (s State) String() string {
	return string(s)
}

// Timer is the rest countdown state machine. It holds no clock of its
// own, time advances only through Tick, which makes the transitions
// directly testable. The Manager drives it from a real ticker.
type Timer struct {
	state     State
	remaining time.Duration
}

func NewTimer() *Timer {
	return &Timer{
		state: StateIdle,
	}
}

func (t *Timer) State() State {
	return t.state
}

func (t *Timer) Remaining() time.Duration {
	return t.remaining
}

// Start arms the countdown. Restarting a running or expired timer is
// allowed and resets the remaining time.
func (t *Timer) Start(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidDuration
	}
	t.state = StateRunning
	t.remaining = d
	return nil
}

// Tick advances the countdown by the given step. A timer that reaches
// zero transitions to expired. Ticking an idle or expired timer is a no-op.
func (t *Timer) Tick(step time.Duration) {
	if t.state != StateRunning {
		return
	}
	t.remaining -= step
	if t.remaining <= 0 {
		t.remaining = 0
		t.state = StateExpired
	}
}

// Skip ends the rest early. Idempotent.
func (t *Timer) Skip() {
	t.Cancel()
}

// Cancel stops the countdown and returns the timer to idle. Idempotent.
func (t *Timer) Cancel() {
	t.state = StateIdle
	t.remaining = 0
}

package resttimer

import (
	"context"
	"sync"
	"time"

	"github.com/periolifts/periolifts/internal/telemetry/metrics"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ExpiredFunc is called once when a rest countdown runs out.
type ExpiredFunc func(sessionKey string)

type session struct {
	// generation changes on every Start, a replaced countdown's goroutine
	// notices the mismatch and exits without firing its callback
	generation uuid.UUID
	timer      *Timer
	cancel     context.CancelFunc
	onExpired  ExpiredFunc
}

// Manager runs at most one rest countdown per session key. Starting a
// countdown while one is running replaces it: the replaced countdown is
// stopped and its expiry callback is guaranteed to never fire.
type Manager struct {
	// baseCtx outlives any single request, countdown goroutines are
	// derived from it so they keep ticking after the response is written
	baseCtx context.Context

	mu       sync.Mutex
	sessions map[string]*session
	metrics  *metrics.Manager
	tick     time.Duration
}

func NewManager(ctx context.Context, metricsManager *metrics.Manager, tick time.Duration) *Manager {
	if tick <= 0 {
		tick = time.Second
	}
	return &Manager{
		baseCtx:  ctx,
		sessions: make(map[string]*session),
		metrics:  metricsManager,
		tick:     tick,
	}
}

// Start arms a countdown for the given session key. The returned UUID
// identifies this countdown generation, a later Start on the same key
// invalidates it.
func (m *Manager) Start(
	sessionKey string,
	d time.Duration,
	onExpired ExpiredFunc,
) (uuid.UUID, error) {
	timer := NewTimer()
	if err := timer.Start(d); err != nil {
		return uuid.Nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[sessionKey]; ok {
		existing.cancel()
	}

	runCtx, cancel := context.WithCancel(m.baseCtx)
	s := &session{
		generation: uuid.New(),
		timer:      timer,
		cancel:     cancel,
		onExpired:  onExpired,
	}
	m.sessions[sessionKey] = s

	go m.run(runCtx, sessionKey, s.generation)

	m.metrics.CounterRestTimersStarted.Inc()
	log.Debugf("rest timer started for session [%s]: %s", sessionKey, d)

	return s.generation, nil
}

func (m *Manager) run(ctx context.Context, sessionKey string, generation uuid.UUID) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.dropSession(sessionKey, generation)
			return
		case <-ticker.C:
			expired, onExpired := m.tickSession(sessionKey, generation)
			if onExpired != nil {
				onExpired(sessionKey)
			}
			if expired {
				return
			}
		}
	}
}

// tickSession advances the countdown by one tick. It reports whether this
// goroutine should stop and returns the callback to fire outside the lock,
// non-nil only on the expiry transition of the current generation.
func (m *Manager) tickSession(sessionKey string, generation uuid.UUID) (bool, ExpiredFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionKey]
	if !ok || s.generation != generation {
		// replaced or cancelled, the callback must not fire
		return true, nil
	}

	s.timer.Tick(m.tick)
	if s.timer.State() != StateExpired {
		return false, nil
	}

	delete(m.sessions, sessionKey)
	s.cancel()

	m.metrics.CounterRestTimersExpired.Inc()
	log.Debugf("rest timer expired for session [%s]", sessionKey)

	return true, s.onExpired
}

// dropSession removes the session entry for a countdown whose goroutine is
// exiting, but only while it still owns the entry.
func (m *Manager) dropSession(sessionKey string, generation uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionKey]
	if !ok || s.generation != generation {
		return
	}
	delete(m.sessions, sessionKey)
}

// Skip ends the rest for the given session early. Unknown keys are a no-op.
func (m *Manager) Skip(sessionKey string) {
	m.stop(sessionKey)
}

// Cancel stops the countdown for the given session. Unknown keys are a no-op.
func (m *Manager) Cancel(sessionKey string) {
	m.stop(sessionKey)
}

func (m *Manager) stop(sessionKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionKey]
	if !ok {
		return
	}
	s.cancel()
	s.timer.Cancel()
	delete(m.sessions, sessionKey)
}

// State returns the countdown state and remaining time for the session,
// idle with zero remaining when no countdown is armed.
func (m *Manager) State(sessionKey string) (State, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionKey]
	if !ok {
		return StateIdle, 0
	}
	return s.timer.State(), s.timer.Remaining()
}

// Shutdown stops all running countdowns.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, s := range m.sessions {
		s.cancel()
		delete(m.sessions, key)
	}
}

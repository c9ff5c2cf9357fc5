// Package reconnect judges when a reported network recovery is stable
// enough to trust before draining queued work.
package reconnect

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	historySize = 5
	// A reconnect signal is stable when the recent sample history is
	// all-online and spans at least this long.
	stabilityWindow = 3 * time.Second

	initialCooldown = 2 * time.Second
	maxCooldown     = 60 * time.Second
)

type sample struct {
	online bool
	at     time.Time
}

// Monitor tracks online/offline samples and rate-limits reconnection
// attempts with an exponential cooldown. It is advisory process-wide
// state governing a cooldown, not a lock.
type Monitor struct {
	logger  *zap.Logger
	onDrain func()
	now     func() time.Time

	mu          sync.Mutex
	history     []sample
	attempts    int
	lastAttempt time.Time
	cooldown    *backoff.ExponentialBackOff
	nextAllowed time.Time
}

// NewMonitor creates a monitor invoking onDrain after each stable,
// non-cooled-down reconnect.
func NewMonitor(onDrain func(), logger *zap.Logger) *Monitor {
	cooldown := backoff.NewExponentialBackOff()
	cooldown.InitialInterval = initialCooldown
	cooldown.MaxInterval = maxCooldown
	cooldown.MaxElapsedTime = 0 // cooldown never expires outright
	cooldown.Reset()

	return &Monitor{
		logger:   logger,
		onDrain:  onDrain,
		now:      time.Now,
		cooldown: cooldown,
	}
}

// Observe records a connectivity sample. A transition to stable online
// outside the cooldown window triggers the drain callback.
func (m *Monitor) Observe(online bool) {
	m.mu.Lock()

	m.history = append(m.history, sample{online: online, at: m.now()})
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}

	if !online {
		// Any offline sample resets the attempt streak.
		m.attempts = 0
		m.cooldown.Reset()
		m.mu.Unlock()
		return
	}

	if !m.stableLocked() || m.now().Before(m.nextAllowed) {
		m.mu.Unlock()
		return
	}

	m.attempts++
	m.lastAttempt = m.now()
	m.nextAllowed = m.now().Add(m.cooldown.NextBackOff())
	attempts := m.attempts
	m.mu.Unlock()

	m.logger.Info("Network stable, draining queued notifications",
		zap.Int("attempt", attempts))
	if m.onDrain != nil {
		m.onDrain()
	}
}

// Stable reports whether the recent sample history shows a steady
// online connection.
func (m *Monitor) Stable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stableLocked()
}

// Attempts reports the consecutive reconnection attempt count.
func (m *Monitor) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// stableLocked requires a full all-online history spanning the
// stability window. Callers hold m.mu.
func (m *Monitor) stableLocked() bool {
	if len(m.history) < historySize {
		return false
	}
	for _, s := range m.history {
		if !s.online {
			return false
		}
	}
	return m.now().Sub(m.history[0].at) >= stabilityWindow
}

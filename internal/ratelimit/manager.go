package ratelimit

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Config holds circuit breaker and backoff configuration
type Config struct {
	CircuitBreakerThreshold int           // Consecutive failures before a key's circuit opens
	CircuitBreakerTimeout   time.Duration // Time a key stays skipped once its circuit opens
	RetryAttempts           int           // Number of retry attempts for transient failures
	RetryBackoffBase        time.Duration // Base duration for exponential backoff
	MaxBackoff              time.Duration // Upper bound for a single backoff
}

// DefaultConfig returns the configuration used for Discord guilds
func DefaultConfig() Config {
	return Config{
		CircuitBreakerThreshold: 5,                // Skip a guild after 5 failed passes in a row
		CircuitBreakerTimeout:   10 * time.Minute, // Try the guild again after 10 minutes
		RetryAttempts:           3,                // Retry transient errors up to 3 times
		RetryBackoffBase:        500 * time.Millisecond,
		MaxBackoff:              10 * time.Second,
	}
}

// keyState is the circuit breaker state of a single key
type keyState struct {
	failureCount    int
	lastFailureTime time.Time
	circuitOpen     bool
}

// Manager tracks failures per key (a guild ID) and opens a circuit for keys
// that keep failing, so one broken guild does not cost every pass a round of
// doomed API calls.
type Manager struct {
	config Config
	mu     sync.RWMutex
	now    func() time.Time

	keys map[string]*keyState

	// Statistics
	totalSuccesses int64
	totalFailures  int64
	totalSkipped   int64
}

// NewManager creates a new manager
func NewManager(config Config) *Manager {
	return &Manager{
		config: config,
		now:    time.Now,
		keys:   make(map[string]*keyState),
	}
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() Config {
	return m.config
}

// Allow reports whether work for key should be attempted. It returns an
// error describing the remaining cooldown when the circuit is open.
func (m *Manager) Allow(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.keys[key]
	if !ok || !st.circuitOpen {
		return true, nil
	}

	elapsed := m.now().Sub(st.lastFailureTime)
	if elapsed < m.config.CircuitBreakerTimeout {
		m.totalSkipped++
		return false, fmt.Errorf("circuit breaker open for %s: waiting %v before retry",
			key, (m.config.CircuitBreakerTimeout - elapsed).Round(time.Second))
	}

	// Half-open: let one attempt through, a failure re-opens immediately
	st.circuitOpen = false
	st.failureCount = m.config.CircuitBreakerThreshold - 1
	return true, nil
}

// RecordSuccess resets the failure count for key
func (m *Manager) RecordSuccess(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalSuccesses++
	delete(m.keys, key)
}

// RecordFailure records a failure for key and opens its circuit once the
// threshold is reached. It returns true when the circuit opened.
func (m *Manager) RecordFailure(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.keys[key]
	if !ok {
		st = &keyState{}
		m.keys[key] = st
	}

	st.failureCount++
	st.lastFailureTime = m.now()
	m.totalFailures++

	if !st.circuitOpen && st.failureCount >= m.config.CircuitBreakerThreshold {
		st.circuitOpen = true
		return true
	}
	return false
}

// IsCircuitOpen returns whether key is currently being skipped
func (m *Manager) IsCircuitOpen(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.keys[key]
	if !ok || !st.circuitOpen {
		return false
	}
	return m.now().Sub(st.lastFailureTime) < m.config.CircuitBreakerTimeout
}

// Statistics contains circuit breaker metrics
type Statistics struct {
	OpenCircuits   []string
	FailingKeys    int
	TotalSuccesses int64
	TotalFailures  int64
	TotalSkipped   int64
}

// GetStatistics returns current statistics
func (m *Manager) GetStatistics() Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Statistics{
		FailingKeys:    len(m.keys),
		TotalSuccesses: m.totalSuccesses,
		TotalFailures:  m.totalFailures,
		TotalSkipped:   m.totalSkipped,
	}
	for key, st := range m.keys {
		if st.circuitOpen {
			stats.OpenCircuits = append(stats.OpenCircuits, key)
		}
	}
	sort.Strings(stats.OpenCircuits)
	return stats
}

// CalculateBackoff returns exponential backoff duration for retry attempt
func (m *Manager) CalculateBackoff(attempt int) time.Duration {
	base := m.config.RetryBackoffBase
	// Prevent integer overflow by capping attempt value
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	// Exponential: base, 2*base, 4*base, ...
	backoff := base * time.Duration(1<<uint(attempt))

	limit := m.config.MaxBackoff
	if limit <= 0 {
		limit = time.Minute
	}
	if backoff > limit || backoff <= 0 {
		backoff = limit
	}

	return backoff
}

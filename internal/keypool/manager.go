package keypool

import (
	"errors"
	"sync"
	"time"
)

// ErrNoKeysConfigured is returned when a RoundRobinManager is asked to
// select a key but was constructed with an empty key list.
var ErrNoKeysConfigured = errors.New("keypool: no keys configured")

// KeyStatus is a point-in-time, read-only view of one pooled key's health,
// safe to serialize directly into a status response.
type KeyStatus struct {
	Preview       string
	FailCount     int
	CooldownUntil time.Time
	Idle          bool
}

// RoundRobinManager rotates through a fixed set of API keys, skipping any
// key still in cooldown from a previous retryable failure. It is the
// per-provider key pool: one instance per running listener, built fresh
// each time the provider is started.
//
// Select always returns a key as long as at least one is configured: if
// every key is in cooldown it falls back to the one that recovers soonest,
// rather than failing the request outright.
type RoundRobinManager struct {
	mu              sync.Mutex
	keys            []string
	nextIndex       int
	cooldownUntil   []time.Time
	failCount       []int
	cooldownSeconds int64
	now             func() time.Time
}

// NewRoundRobinManager builds a manager over keys with the given cooldown
// window. keys must be non-empty; callers are expected to have already run
// them through config.SplitAndDedupeKeys.
func NewRoundRobinManager(keys []string, cooldownSeconds int64) *RoundRobinManager {
	return &RoundRobinManager{
		keys:            append([]string(nil), keys...),
		cooldownUntil:   make([]time.Time, len(keys)),
		failCount:       make([]int, len(keys)),
		cooldownSeconds: cooldownSeconds,
		now:             time.Now,
	}
}

// Len reports how many keys this manager rotates over.
func (m *RoundRobinManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

// Select returns the index and value of the next key to use. It prefers the
// next key (round-robin order starting from the last returned position)
// that is not currently in cooldown. If every key is in cooldown, it
// returns the one with the earliest cooldown expiry instead of failing.
func (m *RoundRobinManager) Select() (index int, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := len(m.keys)
	if count == 0 {
		return 0, "", ErrNoKeysConfigured
	}

	now := m.now()
	start := m.nextIndex % count

	earliestIdx := -1
	var earliestWait time.Duration

	for i := 0; i < count; i++ {
		idx := (start + i) % count
		wait := m.cooldownUntil[idx].Sub(now)
		if wait <= 0 {
			m.nextIndex = (idx + 1) % count
			return idx, m.keys[idx], nil
		}
		if earliestIdx == -1 || wait < earliestWait {
			earliestIdx, earliestWait = idx, wait
		}
	}

	m.nextIndex = (earliestIdx + 1) % count
	return earliestIdx, m.keys[earliestIdx], nil
}

// MarkRetryableFailure records a retryable upstream failure (401/402/429)
// for the key at index, putting it in cooldown for cooldownSeconds from
// now and incrementing its failure counter.
func (m *RoundRobinManager) MarkRetryableFailure(index int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.keys) {
		return
	}
	m.failCount[index]++
	m.cooldownUntil[index] = m.now().Add(time.Duration(m.cooldownSeconds) * time.Second)
}

// Snapshot returns the current status of every key, in pool order.
func (m *RoundRobinManager) Snapshot() []KeyStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	statuses := make([]KeyStatus, len(m.keys))
	for i, key := range m.keys {
		statuses[i] = KeyStatus{
			Preview:       TruncateKeyPreview(key),
			FailCount:     m.failCount[i],
			CooldownUntil: m.cooldownUntil[i],
			Idle:          !m.cooldownUntil[i].After(now),
		}
	}
	return statuses
}

// IdleStatuses builds the status list for a provider's configured keys
// before its manager has ever run, e.g. for a status query against a
// provider that isn't currently started. Every key reports idle with no
// recorded failures.
func IdleStatuses(keys []string) []KeyStatus {
	statuses := make([]KeyStatus, len(keys))
	for i, key := range keys {
		statuses[i] = KeyStatus{Preview: TruncateKeyPreview(key), Idle: true}
	}
	return statuses
}

// TruncateKeyPreview renders a safe-to-log preview of an API key: the key
// verbatim if it's short, otherwise its first 8 and last 5 runes joined by
// an ellipsis. Rune-based so multi-byte keys never split mid-character.
func TruncateKeyPreview(key string) string {
	runes := []rune(key)
	if len(runes) <= 14 {
		return key
	}
	return string(runes[:8]) + "..." + string(runes[len(runes)-5:])
}
